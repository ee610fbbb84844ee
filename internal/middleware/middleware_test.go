package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"club_system/internal/domain"
	"club_system/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSessions map[uint]*domain.Session

func (s stubSessions) LoadSession(_ context.Context, userID uint) (*domain.Session, error) {
	sess, ok := s[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return sess, nil
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)
	sessions := stubSessions{
		1: {UserID: 1, Role: domain.RoleSystemAdmin},
		2: {UserID: 2, Role: domain.RolePlayer},
	}
	r := gin.New()
	r.Use(RequestLogger(log))
	r.GET("/admin", JWTAuthMiddleware("secret", sessions), AdminOnlyMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": SessionFrom(c).UserID})
	})
	return r
}

func get(t *testing.T, r *gin.Engine, userID uint, secret string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	if userID != 0 {
		token, err := utils.GenerateJWT(userID, "", secret, time.Now())
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminRoute(t *testing.T) {
	r := newRouter()

	w := get(t, r, 1, "secret")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	assert.Equal(t, http.StatusForbidden, get(t, r, 2, "secret").Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, r, 3, "secret").Code, "unknown user")
	assert.Equal(t, http.StatusUnauthorized, get(t, r, 1, "other").Code, "wrong signature")
	assert.Equal(t, http.StatusUnauthorized, get(t, r, 0, "secret").Code, "missing header")
}

func TestRequestIDIsEchoed(t *testing.T) {
	r := newRouter()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRequireRolesWithoutSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", RequireRoles(domain.RoleClubManager), func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
