package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Config exposes the public client configuration.
func Config(apiURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"apiUrl": apiURL})
	}
}
