package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RanaPoddar/gcs-service/internal/auth"
)

func newAuthRouter(t *testing.T) (*gin.Engine, *auth.JWTService) {
	t.Helper()

	hash, err := auth.HashPassword("correct-horse")
	require.NoError(t, err)

	jwtService := auth.NewJWTService("test-secret", time.Hour)
	h := NewAuthHandler(jwtService, "operator", hash)

	router := newTestRouter()
	router.POST("/auth/login", h.Login)
	return router, jwtService
}

func TestAuthHandler_Login(t *testing.T) {
	router, jwtService := newAuthRouter(t)

	code, body := doJSON(t, router, http.MethodPost, "/auth/login",
		map[string]string{"username": "operator", "password": "correct-horse"})

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Bearer", body["token_type"])
	assert.EqualValues(t, 3600, body["expires_in"])

	claims, err := jwtService.ValidateToken(body["access_token"].(string))
	require.NoError(t, err)
	assert.Equal(t, "operator", claims.Username)
}

func TestAuthHandler_LoginWrongPassword(t *testing.T) {
	router, _ := newAuthRouter(t)

	code, body := doJSON(t, router, http.MethodPost, "/auth/login",
		map[string]string{"username": "operator", "password": "wrong"})

	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "invalid credentials", body["error"])
}

func TestAuthHandler_LoginWrongUsername(t *testing.T) {
	router, _ := newAuthRouter(t)

	code, body := doJSON(t, router, http.MethodPost, "/auth/login",
		map[string]string{"username": "admin", "password": "correct-horse"})

	// Same answer as a wrong password.
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "invalid credentials", body["error"])
}

func TestAuthHandler_LoginMissingFields(t *testing.T) {
	router, _ := newAuthRouter(t)

	code, _ := doJSON(t, router, http.MethodPost, "/auth/login",
		map[string]string{"username": "operator"})

	assert.Equal(t, http.StatusBadRequest, code)
}
