package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/civic-report/internal/domain/entity"
	"github.com/oksasatya/civic-report/internal/domain/repository"
	"github.com/oksasatya/civic-report/pkg/helpers"
	"github.com/oksasatya/civic-report/pkg/response"
)

// Gin context keys set by Auth.
const (
	CtxUserIDKey    = "userID"
	CtxUserNameKey  = "userName"
	CtxUserEmailKey = "userEmail"
	CtxUserRoleKey  = "userRole"
)

var (
	errNoToken    = errors.New("missing access token")
	errNoSession  = errors.New("session not found")
	errStaleToken = errors.New("session has been replaced")
)

// accessToken reads the access_token cookie, falling back to a Bearer header.
func accessToken(c *gin.Context) string {
	if tok, err := c.Cookie(helpers.AccessCookie); err == nil && tok != "" {
		return tok
	}
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// identify resolves the caller from the token and the live session.
func identify(c *gin.Context, sessions repository.SessionRepository, jwt *helpers.JWTManager) (*repository.Session, error) {
	token := accessToken(c)
	if token == "" {
		return nil, errNoToken
	}
	claims, err := jwt.ParseAccessToken(token)
	if err != nil {
		return nil, err
	}
	sess, err := sessions.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		return nil, errNoSession
	}
	if sess.SessionID != claims.SessionID {
		return nil, errStaleToken
	}
	return sess, nil
}

func setIdentity(c *gin.Context, s *repository.Session) {
	c.Set(CtxUserIDKey, s.UserID)
	c.Set(CtxUserNameKey, s.Name)
	c.Set(CtxUserEmailKey, s.Email)
	c.Set(CtxUserRoleKey, s.Role)
}

// Auth validates the access token and ensures an active session exists.
// It sets userID, userName, userEmail and userRole in the Gin context on success.
func Auth(sessions repository.SessionRepository, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := identify(c, sessions, jwt)
		switch {
		case errors.Is(err, errNoToken):
			response.Abort(c, http.StatusUnauthorized, "missing access token", nil)
			return
		case errors.Is(err, errNoSession), errors.Is(err, errStaleToken):
			response.Abort(c, http.StatusUnauthorized, err.Error(), nil)
			return
		case err != nil:
			response.Abort(c, http.StatusUnauthorized, "invalid access token", err.Error())
			return
		}
		setIdentity(c, sess)
		c.Next()
	}
}

// RequireAdmin must run after Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if entity.Role(c.GetString(CtxUserRoleKey)) != entity.RoleAdmin {
			response.Abort(c, http.StatusForbidden, "admin access required", nil)
			return
		}
		c.Next()
	}
}
