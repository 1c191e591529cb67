package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/civic-report/internal/domain/repository"
	"github.com/oksasatya/civic-report/internal/interface/middleware"
	"github.com/oksasatya/civic-report/pkg/helpers"
)

// Guard bundles what modules need to protect their routes. A nil RDB
// disables rate limiting.
type Guard struct {
	Sessions repository.SessionRepository
	JWT      *helpers.JWTManager
	RDB      *redis.Client
}

func (g Guard) Auth() gin.HandlerFunc { return middleware.Auth(g.Sessions, g.JWT) }

func (g Guard) OptionalAuth() gin.HandlerFunc { return middleware.OptionalAuth(g.Sessions, g.JWT) }

func (g Guard) PerIP(max int, window time.Duration) gin.HandlerFunc {
	return middleware.RateLimit(g.RDB, max, window, middleware.KeyByIP(), middleware.AllowPrivateIP())
}

func (g Guard) PerIPAndPath(max int, window time.Duration) gin.HandlerFunc {
	return middleware.RateLimit(g.RDB, max, window, middleware.KeyByIPAndPath(), nil)
}

func (g Guard) PerUser(max int, window time.Duration) gin.HandlerFunc {
	return middleware.RateLimit(g.RDB, max, window, middleware.KeyByUserID(), nil)
}
