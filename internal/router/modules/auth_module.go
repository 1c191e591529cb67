package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/civic-report/internal/interface/http"
)

// AuthModule serves /auth: registration, sessions, profile, verification and reset.
type AuthModule struct {
	Handler *handlers.AuthHandler
	Guard   Guard
}

func NewAuthModule(h *handlers.AuthHandler, g Guard) *AuthModule {
	return &AuthModule{Handler: h, Guard: g}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/auth")

	// Public endpoints with IP-based rate limits
	g.POST("/register", m.Guard.PerIPAndPath(10, time.Minute), m.Handler.Register)
	g.POST("/login", m.Guard.PerIPAndPath(10, time.Minute), m.Handler.Login)
	g.POST("/refresh", m.Guard.PerIPAndPath(60, time.Minute), m.Handler.Refresh)
	g.POST("/logout", m.Guard.OptionalAuth(), m.Handler.Logout)
	g.POST("/verify/confirm", m.Guard.PerIPAndPath(30, time.Minute), m.Handler.VerifyConfirm)
	g.POST("/reset/init", m.Guard.PerIPAndPath(5, time.Minute), m.Handler.ResetInit)
	g.POST("/reset/confirm", m.Guard.PerIPAndPath(30, time.Minute), m.Handler.ResetConfirm)

	auth := g.Group("/")
	auth.Use(m.Guard.Auth(), m.Guard.PerUser(120, time.Minute))
	{
		auth.GET("/profile", m.Handler.Profile)
		auth.PUT("/profile", m.Handler.UpdateProfile)
		auth.PUT("/password", m.Handler.ChangePassword)
		auth.POST("/verify/init", m.Guard.PerUser(5, time.Minute), m.Handler.VerifyInit)
	}
}
