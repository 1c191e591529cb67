package helpers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
	// refreshPath keeps the refresh token off every request except /auth/*.
	refreshPath = "/auth"
)

// Manager writes the access and refresh token cookies.
type Manager struct {
	Domain string
	Secure bool
}

func NewCookie(domain string, secure bool) *Manager {
	return &Manager{Domain: domain, Secure: secure}
}

func (m *Manager) set(c *gin.Context, name, value, path string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, path, m.Domain, m.Secure, true)
}

func (m *Manager) SetPair(c *gin.Context, access string, aexp time.Time, refresh string, rexp time.Time) {
	m.set(c, AccessCookie, access, "/", secondsUntil(aexp))
	m.set(c, RefreshCookie, refresh, refreshPath, secondsUntil(rexp))
}

func (m *Manager) Clear(c *gin.Context) {
	m.set(c, AccessCookie, "", "/", -1)
	m.set(c, RefreshCookie, "", refreshPath, -1)
}

func secondsUntil(exp time.Time) int {
	return max(0, int(time.Until(exp).Seconds()))
}
