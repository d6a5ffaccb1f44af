package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"applyflow/services"
)

func newProtectedRouter(jwtService *services.JWTService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", Auth(jwtService), func(c *gin.Context) {
		claims := c.MustGet("claims").(*services.OperatorClaims)
		c.JSON(200, gin.H{"email": claims.Email})
	})
	return r
}

func TestAuthAcceptsValidToken(t *testing.T) {
	svc := services.NewJWTService("secret")
	token, err := svc.GenerateToken("op@example.com")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	newProtectedRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "op@example.com")
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	newProtectedRouter(services.NewJWTService("secret")).ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRejectsNonBearerHeader(t *testing.T) {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	newProtectedRouter(services.NewJWTService("secret")).ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRejectsForgedToken(t *testing.T) {
	other := services.NewJWTService("other-secret")
	token, err := other.GenerateToken("op@example.com")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	newProtectedRouter(services.NewJWTService("secret")).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
