package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/civic-report/internal/interface/http"
)

// UserModule serves the citizen area under /user. Admins may use it too.
type UserModule struct {
	Handler *handlers.ReportHandler
	Guard   Guard
}

func NewUserModule(h *handlers.ReportHandler, g Guard) *UserModule {
	return &UserModule{Handler: h, Guard: g}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	u := rg.Group("/user")
	u.Use(m.Guard.Auth(), m.Guard.PerUser(120, time.Minute))
	{
		u.GET("/dashboard", m.Handler.Dashboard)
		u.GET("/report", m.Handler.Index)
		u.GET("/report/create", m.Handler.Create)
		u.POST("/report", m.Guard.PerUser(10, time.Minute), m.Handler.Store)
		u.GET("/report/:id", m.Handler.Show)
		u.POST("/report/:id/responses", m.Handler.Respond)
	}
}
