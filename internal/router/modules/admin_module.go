package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/civic-report/internal/interface/http"
	"github.com/oksasatya/civic-report/internal/interface/middleware"
)

// AdminModule serves /admin. Every route requires an ADMIN session.
type AdminModule struct {
	Admin      *handlers.AdminHandler
	Categories *handlers.CategoryHandler
	Users      *handlers.UserHandler
	Guard      Guard
}

func NewAdminModule(admin *handlers.AdminHandler, categories *handlers.CategoryHandler, users *handlers.UserHandler, g Guard) *AdminModule {
	return &AdminModule{Admin: admin, Categories: categories, Users: users, Guard: g}
}

func (m *AdminModule) Register(rg *gin.RouterGroup) {
	a := rg.Group("/admin")
	a.Use(m.Guard.Auth(), middleware.RequireAdmin(), m.Guard.PerUser(300, time.Minute))

	a.GET("/dashboard", m.Admin.Dashboard)
	a.GET("/dashboard/daily", m.Admin.Daily)

	reports := a.Group("/reports")
	{
		reports.GET("", m.Admin.Index)
		reports.GET("/search", m.Admin.Search)
		reports.GET("/:id", m.Admin.Show)
		reports.DELETE("/:id", m.Admin.Destroy)
		reports.PATCH("/:id/status", m.Admin.UpdateStatus)
		reports.POST("/:id/responses", m.Admin.Respond)
	}

	categories := a.Group("/categories")
	{
		categories.GET("", m.Categories.Index)
		categories.POST("", m.Categories.Store)
		categories.GET("/:id", m.Categories.Show)
		categories.PUT("/:id", m.Categories.Update)
		categories.DELETE("/:id", m.Categories.Destroy)
	}

	users := a.Group("/users")
	{
		users.GET("", m.Users.Index)
		users.POST("", m.Users.Store)
		users.GET("/:id", m.Users.Show)
		users.PUT("/:id", m.Users.Update)
		users.DELETE("/:id", m.Users.Destroy)
	}
}
