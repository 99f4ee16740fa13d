package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/mocks"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (*gin.Engine, *mocks.MockSessionRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sessions := mocks.NewMockSessionRepository()
	require.NoError(t, sessions.Create(context.Background(), &domain.Session{
		ID: "sess-user", UserID: "user-1", Role: domain.RoleUser, ExpiresAt: time.Now().Add(time.Hour),
	}))
	require.NoError(t, sessions.Create(context.Background(), &domain.Session{
		ID: "sess-admin", UserID: "admin-1", Role: domain.RoleAdmin, ExpiresAt: time.Now().Add(time.Hour),
	}))

	jwtmw := NewAuthMW(mocks.NewMockTokenService(), sessions, nil)
	cb := NewCasbinMW(mocks.NewMockPolicyService(), nil)

	r := gin.New()
	r.Use(ClientInfo())
	whoami := func(c *gin.Context) {
		p, ok := domain.PrincipalFrom(c.Request.Context())
		cc := domain.ClientContextFrom(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{
			"ok":         ok,
			"user_id":    p.UserID,
			"gin_user":   c.GetString(KeyUserID),
			"session_id": cc.SessionID,
		})
	}
	r.GET("/auth/me", jwtmw.WithJWT(), whoami)
	r.GET("/admin/accounts", jwtmw.WithJWT(), cb.Enforce(), whoami)
	return r, sessions
}

func do(r *gin.Engine, path, token string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMW_WithJWT(t *testing.T) {
	r, sessions := setupRouter(t)

	tests := []struct {
		name           string
		token          string
		expectedStatus int
	}{
		{"valid token", "Bearer access|user-1|user|sess-user", http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Token access|user-1|user|sess-user", http.StatusUnauthorized},
		{"malformed token", "Bearer garbage", http.StatusUnauthorized},
		{"refresh token used as access", "Bearer refresh|user-1|user|sess-user", http.StatusUnauthorized},
		{"unknown session", "Bearer access|user-1|user|sess-gone", http.StatusUnauthorized},
		{"session of another user", "Bearer access|user-1|user|sess-admin", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, "/auth/me", tt.token, nil)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedStatus == http.StatusOK {
				assert.Contains(t, w.Body.String(), `"user_id":"user-1"`)
				assert.Contains(t, w.Body.String(), `"gin_user":"user-1"`)
				assert.Contains(t, w.Body.String(), `"session_id":"sess-user"`)
			}
		})
	}

	t.Run("logged out session is rejected", func(t *testing.T) {
		require.NoError(t, sessions.Delete(context.Background(), "sess-user"))
		w := do(r, "/auth/me", "Bearer access|user-1|user|sess-user", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestCasbinMW_Enforce(t *testing.T) {
	r, _ := setupRouter(t)

	tests := []struct {
		name           string
		token          string
		headers        map[string]string
		expectedStatus int
	}{
		{"admin allowed", "Bearer access|admin-1|admin|sess-admin", nil, http.StatusOK},
		{"user denied", "Bearer access|user-1|user|sess-user", nil, http.StatusForbidden},
		{"matching x-user-id", "Bearer access|admin-1|admin|sess-admin", map[string]string{"x-user-id": "admin-1"}, http.StatusOK},
		{"mismatched x-user-id", "Bearer access|admin-1|admin|sess-admin", map[string]string{"x-user-id": "user-1"}, http.StatusForbidden},
		{"no token", "", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, "/admin/accounts", tt.token, tt.headers)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
		})
	}
}

func TestCasbinMW_EnforceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	policy := mocks.NewMockPolicyService()
	policy.CheckPermissionFunc = func(role, resource, action string) (bool, error) {
		return false, assert.AnError
	}
	cb := NewCasbinMW(policy, nil)

	r := gin.New()
	r.GET("/admin/accounts", func(c *gin.Context) {
		ctx := domain.WithPrincipal(c.Request.Context(), domain.Principal{UserID: "admin-1", Role: domain.RoleAdmin})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}, cb.Enforce(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := do(r, "/admin/accounts", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
