package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/marocainperdu/projet-bah/internal/models"
)

func performWithRole(t *testing.T, allowed []models.UserRole, claims *models.JWTClaims) int {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	}, RequireRoles(allowed...), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRequireRolesAllowsListedRole(t *testing.T) {
	code := performWithRole(t, []models.UserRole{models.RoleDirector}, &models.JWTClaims{UserID: "d1", Role: models.RoleDirector})
	require.Equal(t, http.StatusOK, code)
}

func TestRequireRolesRejectsOtherRole(t *testing.T) {
	code := performWithRole(t, []models.UserRole{models.RoleDirector}, &models.JWTClaims{UserID: "t1", Role: models.RoleTeacher})
	require.Equal(t, http.StatusForbidden, code)
}

func TestRequireRolesRejectsMissingClaims(t *testing.T) {
	code := performWithRole(t, []models.UserRole{models.RoleDirector}, nil)
	require.Equal(t, http.StatusUnauthorized, code)
}
