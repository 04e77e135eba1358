package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/RanaPoddar/gcs-service/internal/auth"
)

// AuthHandler handles operator authentication requests
type AuthHandler struct {
	jwtService   *auth.JWTService
	operatorUser string
	passwordHash string
}

// NewAuthHandler creates a new auth handler for the single operator
// account.
func NewAuthHandler(jwtService *auth.JWTService, operatorUser, passwordHash string) *AuthHandler {
	return &AuthHandler{
		jwtService:   jwtService,
		operatorUser: operatorUser,
		passwordHash: passwordHash,
	}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Login authenticates the operator and issues an access token
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid request body: " + err.Error(),
		})
		return
	}

	// Same failure for wrong user and wrong password; no account
	// enumeration.
	if req.Username != h.operatorUser || !auth.VerifyPassword(req.Password, h.passwordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "invalid credentials",
		})
		return
	}

	token, err := h.jwtService.GenerateAccessToken(req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "failed to generate token",
		})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.jwtService.GetAccessTokenTTL().Seconds()),
	})
}
