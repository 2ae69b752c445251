package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"medipos-system/config"
	"medipos-system/internal/utils"
)

type AuthHTTPHandler struct {
	auth   config.AuthConfig
	logger *zap.Logger
}

func NewAuthHTTPHandler(auth config.AuthConfig, logger *zap.Logger) *AuthHTTPHandler {
	return &AuthHTTPHandler{auth: auth, logger: logger}
}

type loginRequest struct {
	CounterCode string `json:"counter_code" binding:"required"`
	PIN         string `json:"pin" binding:"required"`
}

// Login authenticates a sales counter and issues the JWT the protected
// routes require.
func (h *AuthHTTPHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "counter_code and pin are required",
		})
		return
	}

	codeOK := subtle.ConstantTimeCompare([]byte(req.CounterCode), []byte(h.auth.CounterCode)) == 1
	pinOK := subtle.ConstantTimeCompare([]byte(req.PIN), []byte(h.auth.CounterPIN)) == 1
	if h.auth.CounterPIN == "" || !codeOK || !pinOK {
		h.logger.Warn("failed login attempt", zap.String("counter_code", req.CounterCode))
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": "Invalid counter code or PIN",
		})
		return
	}

	token, exp, err := utils.GenerateToken(req.CounterCode, h.auth.TokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to issue token",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"token":      token,
		"expires_at": exp,
	})
}
