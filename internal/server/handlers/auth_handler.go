package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/rtm-traders/internal/domain/models"
	"github.com/mamadbah2/rtm-traders/internal/server/middleware"
)

// Authenticator exchanges credentials for a signed token.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, models.UserInfo, error)
}

// AuthHandler serves login and token verification.
type AuthHandler struct {
	auth   Authenticator
	logger *zap.Logger
}

// NewAuthHandler constructs the auth HTTP adapter.
func NewAuthHandler(authSvc Authenticator, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{auth: authSvc, logger: logger}
}

// Login checks the credentials and returns a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Username and password are required"})
		return
	}

	token, user, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, h.logger, err, "Login failed")
		return
	}

	c.JSON(http.StatusOK, models.LoginResponse{Success: true, Token: token, User: user})
}

// Verify echoes the claims of an already authenticated request.
func (h *AuthHandler) Verify(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"valid": true, "user": claims})
}
