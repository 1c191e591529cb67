package modules

import (
	"expvar"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/civic-report/internal/interface/middleware"
)

// DebugModule exposes expvar and Prometheus metrics to private networks.
type DebugModule struct {
	Metrics http.Handler
	Guard   Guard
}

func NewDebugModule(metrics http.Handler, g Guard) *DebugModule {
	return &DebugModule{Metrics: metrics, Guard: g}
}

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	private := middleware.PrivateOnly()
	rg.GET("/debug/vars", private, m.Guard.PerIP(120, time.Minute), gin.WrapH(expvar.Handler()))
	if m.Metrics != nil {
		rg.GET("/metrics", private, gin.WrapH(m.Metrics))
	}
}
