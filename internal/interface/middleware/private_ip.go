package middleware

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/civic-report/pkg/response"
)

func isPrivate(c *gin.Context) bool {
	parsed := net.ParseIP(ClientIP(c))
	return parsed != nil && (parsed.IsLoopback() || parsed.IsPrivate())
}

// AllowPrivateIP is an AllowFunc that exempts loopback and private
// (10/8, 172.16/12, 192.168/16) clients from rate limiting.
func AllowPrivateIP() AllowFunc {
	return isPrivate
}

// PrivateOnly rejects requests from public addresses. Guards operational
// endpoints such as /metrics when they are exposed on the main listener.
func PrivateOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isPrivate(c) {
			response.Abort(c, http.StatusForbidden, "forbidden", nil)
			return
		}
		c.Next()
	}
}
