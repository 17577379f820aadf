package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"event_staffing_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("", AuthMiddleware())
	if len(roles) > 0 {
		g.Use(RoleAuthMiddleware(roles...))
	}
	g.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetInt64("userID"), "role": c.GetString("userRole")})
	})
	return r
}

func get(t *testing.T, r http.Handler, header string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	utils.ConfigureJWT("middleware-secret", time.Hour)
	token, err := utils.GenerateAccessToken(7, "ada", "Staff")
	require.NoError(t, err)
	r := newEngine()

	assert.Equal(t, http.StatusUnauthorized, get(t, r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, r, "Token "+token).Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, r, "Bearer not-a-jwt").Code)

	w := get(t, r, "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":7,"role":"Staff"}`, w.Body.String())
}

func TestRoleAuthMiddleware(t *testing.T) {
	utils.ConfigureJWT("middleware-secret", time.Hour)
	staffToken, err := utils.GenerateAccessToken(7, "ada", "Staff")
	require.NoError(t, err)
	adminToken, err := utils.GenerateAccessToken(1, "root", "admin")
	require.NoError(t, err)
	r := newEngine("Admin")

	w := get(t, r, "Bearer "+staffToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), utils.ErrCodeForbidden)

	assert.Equal(t, http.StatusOK, get(t, r, "Bearer "+adminToken).Code, "role match is case-insensitive")
}
