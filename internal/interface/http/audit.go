package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	repo "github.com/oksasatya/civic-report/internal/domain/repository"
	"github.com/oksasatya/civic-report/internal/interface/middleware"
)

// Auditor writes audit_logs rows. A nil Auditor or Repo records nothing.
type Auditor struct {
	Repo   repo.AuditRepository
	Logger *logrus.Logger
}

func NewAuditor(r repo.AuditRepository, logger *logrus.Logger) *Auditor {
	return &Auditor{Repo: r, Logger: logger}
}

// Record stores one entry. Failures are logged and never reach the caller.
func (a *Auditor) Record(c *gin.Context, userID, email, action string, metadata map[string]any) {
	if a == nil || a.Repo == nil {
		return
	}
	e := repo.AuditEntry{
		UserID:    userID,
		Email:     email,
		Action:    action,
		IP:        middleware.ClientIP(c),
		UserAgent: c.GetHeader("User-Agent"),
		Metadata:  metadata,
	}
	if err := a.Repo.Insert(context.WithoutCancel(c.Request.Context()), e); err != nil && a.Logger != nil {
		a.Logger.WithError(err).WithField("action", action).Warn("audit insert failed")
	}
}
