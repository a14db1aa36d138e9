package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/rtm-traders/internal/repository"
	"github.com/mamadbah2/rtm-traders/internal/service/auth"
	"github.com/mamadbah2/rtm-traders/internal/service/export"
	"github.com/mamadbah2/rtm-traders/internal/service/records"
)

// respondError maps domain errors to HTTP statuses. Anything unrecognised is
// logged and reported with the generic fallback message.
func respondError(c *gin.Context, logger *zap.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
	case errors.Is(err, repository.ErrInvalidRecord), errors.Is(err, records.ErrInvalidFilter):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid credentials"})
	case errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid or expired token"})
	case errors.Is(err, export.ErrSheetsDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google Sheets sync is not configured"})
	default:
		logger.Error(fallback,
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
