package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

const ctxRealIPKey = "real_ip"

// forwardHeaders are consulted in order when the direct peer is a proxy.
var forwardHeaders = []string{"CF-Connecting-IP", "X-Real-IP", "X-Forwarded-For"}

// RealIP resolves the client address and stores it under "real_ip".
// Forwarding headers are honoured only when the TCP peer is loopback or a
// private address, so a public client cannot claim to be internal.
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxRealIPKey, resolveIP(c))
		c.Next()
	}
}

func resolveIP(c *gin.Context) string {
	peer := c.RemoteIP()
	if p := net.ParseIP(peer); p == nil || !(p.IsLoopback() || p.IsPrivate()) {
		return peer
	}
	for _, h := range forwardHeaders {
		v := c.GetHeader(h)
		if v == "" {
			continue
		}
		// X-Forwarded-For lists the original client first.
		first, _, _ := strings.Cut(v, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	return peer
}

// ClientIP returns the address RealIP resolved, falling back to Gin's view
// of the peer and finally "unknown".
func ClientIP(c *gin.Context) string {
	if ip := c.GetString(ctxRealIPKey); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}
