package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/civic-report/internal/domain/repository"
	"github.com/oksasatya/civic-report/pkg/helpers"
)

// OptionalAuth behaves like Auth when a valid session is present and lets
// anonymous requests through untouched otherwise.
func OptionalAuth(sessions repository.SessionRepository, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sess, err := identify(c, sessions, jwt); err == nil {
			setIdentity(c, sess)
		}
		c.Next()
	}
}
