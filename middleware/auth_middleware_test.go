package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/collectedworks/backend/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubValidator struct {
	claims *Claims
	err    error
}

func (s *stubValidator) ValidateToken(ctx context.Context, token string) (*Claims, error) {
	return s.claims, s.err
}

func authConfig() config.AuthConfig {
	return config.AuthConfig{
		Secret:   "test-secret-at-least-32-characters!!",
		Issuer:   "collectedworks",
		Audience: "collectedworks-api",
	}
}

func TestRequireAuth(t *testing.T) {
	logger := zap.NewNop()

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaimsFromContext(r.Context())
		require.NotNil(t, claims)
		w.WriteHeader(http.StatusOK)
	})

	t.Run("missing authorization header", func(t *testing.T) {
		m := NewAuthMiddleware(&stubValidator{}, logger)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
		w := httptest.NewRecorder()
		m.RequireAuth(okHandler).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed authorization header", func(t *testing.T) {
		m := NewAuthMiddleware(&stubValidator{}, logger)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
		req.Header.Set("Authorization", "Basic abc123")
		w := httptest.NewRecorder()
		m.RequireAuth(okHandler).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token rejected", func(t *testing.T) {
		m := NewAuthMiddleware(&stubValidator{err: errors.New("expired")}, logger)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
		req.Header.Set("Authorization", "Bearer bad-token")
		w := httptest.NewRecorder()
		m.RequireAuth(okHandler).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token passes claims through", func(t *testing.T) {
		m := NewAuthMiddleware(&stubValidator{claims: &Claims{Sub: "user-1"}}, logger)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		w := httptest.NewRecorder()
		m.RequireAuth(okHandler).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestJWTValidator(t *testing.T) {
	v := NewJWTValidator(authConfig())

	t.Run("round trip", func(t *testing.T) {
		token, err := v.IssueToken("reader-1", "reader@example.com", time.Hour)
		require.NoError(t, err)

		claims, err := v.ValidateToken(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, "reader-1", claims.Sub)
		assert.Equal(t, "reader@example.com", claims.Email)
		assert.Equal(t, "collectedworks", claims.Iss)
		assert.Equal(t, "collectedworks-api", claims.Aud)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		token, err := v.IssueToken("reader-1", "", -time.Minute)
		require.NoError(t, err)

		_, err = v.ValidateToken(context.Background(), token)
		assert.Error(t, err)
	})

	t.Run("wrong issuer rejected", func(t *testing.T) {
		other := NewJWTValidator(config.AuthConfig{
			Secret:   authConfig().Secret,
			Issuer:   "someone-else",
			Audience: authConfig().Audience,
		})

		token, err := other.IssueToken("reader-1", "", time.Hour)
		require.NoError(t, err)

		_, err = v.ValidateToken(context.Background(), token)
		assert.Error(t, err)
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		other := NewJWTValidator(config.AuthConfig{
			Secret:   "a-different-secret-also-32-chars!!!!",
			Issuer:   authConfig().Issuer,
			Audience: authConfig().Audience,
		})

		token, err := other.IssueToken("reader-1", "", time.Hour)
		require.NoError(t, err)

		_, err = v.ValidateToken(context.Background(), token)
		assert.Error(t, err)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		_, err := v.ValidateToken(context.Background(), "not.a.jwt")
		assert.Error(t, err)
	})

	t.Run("empty secret rejects all tokens", func(t *testing.T) {
		unconfigured := NewJWTValidator(config.AuthConfig{
			Secret:   "",
			Issuer:   authConfig().Issuer,
			Audience: authConfig().Audience,
		})

		// A token signed with the empty string must not verify
		forged, err := unconfigured.IssueToken("attacker", "", time.Hour)
		require.NoError(t, err)

		_, err = unconfigured.ValidateToken(context.Background(), forged)
		assert.Error(t, err)

		token, err := v.IssueToken("reader-1", "", time.Hour)
		require.NoError(t, err)

		_, err = unconfigured.ValidateToken(context.Background(), token)
		assert.Error(t, err)
	})
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Bearer", ""},
		{"Token abc", ""},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		assert.Equal(t, tt.want, extractToken(req), "header %q", tt.header)
	}
}
