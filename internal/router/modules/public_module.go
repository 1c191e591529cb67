package modules

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/civic-report/pkg/response"
)

// PublicModule serves the landing and health endpoints and, for the local
// storage driver, the evidence files under /storage.
type PublicModule struct {
	AppName string
	// StorageRoot is served at /storage when set.
	StorageRoot string
	// Ping reports dependency health; nil means always healthy.
	Ping func(c *gin.Context) error
}

func NewPublicModule(appName, storageRoot string, ping func(c *gin.Context) error) *PublicModule {
	return &PublicModule{AppName: appName, StorageRoot: storageRoot, Ping: ping}
}

func (m *PublicModule) Register(rg *gin.RouterGroup) {
	rg.GET("/", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"app": m.AppName}, "welcome", nil)
	})
	rg.GET("/healthz", func(c *gin.Context) {
		if m.Ping != nil {
			if err := m.Ping(c); err != nil {
				response.Error[any](c, http.StatusServiceUnavailable, "unhealthy", err.Error())
				return
			}
		}
		response.Success(c, http.StatusOK, gin.H{"ok": true}, "healthy", nil)
	})
	if m.StorageRoot != "" {
		rg.Static("/storage", m.StorageRoot)
	}
}
