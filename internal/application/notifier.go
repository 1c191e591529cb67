package application

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/civic-report/internal/domain/entity"
	"github.com/oksasatya/civic-report/pkg/mailer"
	tpl "github.com/oksasatya/civic-report/pkg/mailer/templates"
)

// Notifier turns domain events into email jobs on the queue. A nil Notifier
// or one with Enabled=false drops every event.
type Notifier struct {
	Pub     JobPublisher
	Enabled bool
	AppName string
	// BaseURL is the front-end origin used to build links in emails.
	BaseURL string
	Logger  *logrus.Logger
}

const publishTimeout = 5 * time.Second

func NewNotifier(pub JobPublisher, enabled bool, appName, baseURL string, logger *logrus.Logger) *Notifier {
	return &Notifier{Pub: pub, Enabled: enabled, AppName: appName, BaseURL: strings.TrimRight(baseURL, "/"), Logger: logger}
}

func (n *Notifier) active() bool {
	return n != nil && n.Enabled && n.Pub != nil
}

func (n *Notifier) publish(ctx context.Context, job mailer.EmailJob) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := n.Pub.PublishJSON(ctx, job); err != nil && n.Logger != nil {
		n.Logger.WithError(err).WithFields(logrus.Fields{"template": job.Template, "to": job.To}).Warn("failed to publish email job")
	}
}

func (n *Notifier) reportLink(id int64) string {
	return n.BaseURL + "/user/report/" + strconv.FormatInt(id, 10)
}

// StatusChanged tells the report owner about a status transition.
func (n *Notifier) StatusChanged(ctx context.Context, v *entity.ReportView, from, to entity.ReportStatus) {
	if !n.active() || v == nil || v.Owner.Email == "" {
		return
	}
	n.publish(ctx, mailer.EmailJob{
		To:       v.Owner.Email,
		Template: tpl.StatusChanged,
		Data: map[string]any{
			"AppName":     n.AppName,
			"Name":        v.Owner.Name,
			"ReportID":    v.ID,
			"ReportTitle": v.Title,
			"From":        string(from),
			"To":          string(to),
			"Link":        n.reportLink(v.ID),
		},
	})
}

// Responded tells the report owner an admin replied.
func (n *Notifier) Responded(ctx context.Context, v *entity.ReportView, authorName, message string) {
	if !n.active() || v == nil || v.Owner.Email == "" {
		return
	}
	n.publish(ctx, mailer.EmailJob{
		To:       v.Owner.Email,
		Template: tpl.ReportResponse,
		Data: map[string]any{
			"AppName":     n.AppName,
			"Name":        v.Owner.Name,
			"ReportID":    v.ID,
			"ReportTitle": v.Title,
			"Author":      authorName,
			"Message":     message,
			"Link":        n.reportLink(v.ID),
		},
	})
}

func (n *Notifier) VerifyEmail(ctx context.Context, u *entity.User, link string, ttl time.Duration) {
	if !n.active() || u == nil {
		return
	}
	n.publish(ctx, mailer.EmailJob{
		To:       u.Email,
		Template: tpl.VerifyEmail,
		Data: map[string]any{
			"AppName":   n.AppName,
			"Name":      u.Name,
			"Link":      link,
			"ExpiresIn": ttl.String(),
		},
	})
}

func (n *Notifier) ResetPassword(ctx context.Context, u *entity.User, link string, ttl time.Duration) {
	if !n.active() || u == nil {
		return
	}
	n.publish(ctx, mailer.EmailJob{
		To:       u.Email,
		Template: tpl.ResetPassword,
		Data: map[string]any{
			"AppName":   n.AppName,
			"Name":      u.Name,
			"Link":      link,
			"ExpiresIn": ttl.String(),
		},
	})
}
