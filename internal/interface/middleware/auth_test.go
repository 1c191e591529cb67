package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/civic-report/internal/application/apptest"
	"github.com/oksasatya/civic-report/internal/domain/repository"
	"github.com/oksasatya/civic-report/pkg/helpers"
)

func init() { gin.SetMode(gin.TestMode) }

func newAuthRouter(sessions repository.SessionRepository, jwt *helpers.JWTManager) *gin.Engine {
	r := gin.New()
	r.GET("/me", Auth(sessions, jwt), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.GetString(CtxUserIDKey), "role": c.GetString(CtxUserRoleKey)})
	})
	r.GET("/admin", Auth(sessions, jwt), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/maybe", OptionalAuth(sessions, jwt), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(CtxUserIDKey))
	})
	return r
}

func TestAuth(t *testing.T) {
	jwt := helpers.NewJWTManager("a", "r", time.Minute, time.Hour)
	sessions := apptest.NewSessions()
	ctx := context.Background()

	require.NoError(t, sessions.Save(ctx, repository.Session{UserID: "u-1", SessionID: "s-1", Role: "USER"}, time.Hour))
	require.NoError(t, sessions.Save(ctx, repository.Session{UserID: "a-1", SessionID: "s-2", Role: "ADMIN"}, time.Hour))

	userTok, _, err := jwt.GenerateAccessToken("u-1", "s-1")
	require.NoError(t, err)
	adminTok, _, err := jwt.GenerateAccessToken("a-1", "s-2")
	require.NoError(t, err)
	staleTok, _, err := jwt.GenerateAccessToken("u-1", "old")
	require.NoError(t, err)
	orphanTok, _, err := jwt.GenerateAccessToken("ghost", "s-9")
	require.NoError(t, err)
	refreshTok, _, err := jwt.GenerateRefreshToken("u-1", "s-1")
	require.NoError(t, err)

	r := newAuthRouter(sessions, jwt)

	cases := []struct {
		name   string
		path   string
		cookie string
		bearer string
		want   int
	}{
		{"no token", "/me", "", "", http.StatusUnauthorized},
		{"garbage", "/me", "not-a-jwt", "", http.StatusUnauthorized},
		{"refresh token", "/me", refreshTok, "", http.StatusUnauthorized},
		{"stale session", "/me", staleTok, "", http.StatusUnauthorized},
		{"no session", "/me", orphanTok, "", http.StatusUnauthorized},
		{"cookie", "/me", userTok, "", http.StatusOK},
		{"bearer", "/me", "", userTok, http.StatusOK},
		{"user on admin route", "/admin", userTok, "", http.StatusForbidden},
		{"admin on admin route", "/admin", adminTok, "", http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "access_token", Value: tc.cookie})
			}
			if tc.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tc.bearer)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}

	t.Run("optional auth", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/maybe", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())

		req := httptest.NewRequest(http.MethodGet, "/maybe", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: userTok})
		w = httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, "u-1", w.Body.String())
	})
}

func TestPrivateOnly(t *testing.T) {
	r := gin.New()
	r.Use(RealIP())
	r.GET("/metrics", PrivateOnly(), func(c *gin.Context) { c.Status(http.StatusOK) })

	cases := []struct {
		name string
		peer string
		xff  string
		want int
	}{
		{"loopback peer", "127.0.0.1:5000", "", http.StatusOK},
		{"private client via proxy", "10.0.0.2:5000", "10.1.2.3", http.StatusOK},
		{"lan client via proxy", "10.0.0.2:5000", "192.168.0.9, 10.0.0.2", http.StatusOK},
		{"public client via proxy", "10.0.0.2:5000", "8.8.8.8", http.StatusForbidden},
		{"public peer", "8.8.8.8:5000", "", http.StatusForbidden},
		{"public peer spoofing header", "8.8.8.8:5000", "127.0.0.1", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			req.RemoteAddr = tc.peer
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestRealIP(t *testing.T) {
	r := gin.New()
	r.Use(RealIP())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, ClientIP(c)) })

	cases := []struct {
		name    string
		peer    string
		headers map[string]string
		want    string
	}{
		{"no headers", "203.0.113.7:1000", nil, "203.0.113.7"},
		{"cloudflare first", "10.0.0.1:1000", map[string]string{"CF-Connecting-IP": "198.51.100.1", "X-Forwarded-For": "198.51.100.2"}, "198.51.100.1"},
		{"x-real-ip", "10.0.0.1:1000", map[string]string{"X-Real-IP": "198.51.100.3"}, "198.51.100.3"},
		{"left-most forwarded", "10.0.0.1:1000", map[string]string{"X-Forwarded-For": "198.51.100.4, 10.0.0.9"}, "198.51.100.4"},
		{"garbage header", "10.0.0.1:1000", map[string]string{"X-Forwarded-For": "not-an-ip"}, "10.0.0.1"},
		{"untrusted peer", "203.0.113.7:1000", map[string]string{"X-Forwarded-For": "10.0.0.5"}, "203.0.113.7"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.peer
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Body.String())
		})
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Body.String(), 36)
	assert.Equal(t, w.Body.String(), w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "7d444840-9dc0-11d1-b245-5ffdce74fad2")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "7d444840-9dc0-11d1-b245-5ffdce74fad2", w.Body.String())
}
