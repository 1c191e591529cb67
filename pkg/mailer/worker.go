package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	tpl "github.com/oksasatya/civic-report/pkg/mailer/templates"
)

// Sender delivers one rendered message. Satisfied by *Mailgun.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// ErrPermanent marks jobs that will never succeed and must not be requeued.
var ErrPermanent = errors.New("permanent job failure")

// Render resolves the job's subject and bodies, using its template when set.
func (j *EmailJob) Render() (subject, text, html string, err error) {
	if j.Template == "" {
		if j.Subject == "" || (j.Text == "" && j.HTML == "") {
			return "", "", "", fmt.Errorf("%w: raw job needs subject and text or html", ErrPermanent)
		}
		return j.Subject, j.Text, j.HTML, nil
	}
	j.EnsureRecipient()
	subject, text, html, err = tpl.Render(j.Template, j.Data)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: render %s: %v", ErrPermanent, j.Template, err)
	}
	return subject, text, html, nil
}

// Deliver decodes a queued job, renders it and hands it to s.
// Errors wrapping ErrPermanent mean the message should be dropped.
func Deliver(ctx context.Context, body []byte, s Sender, timeout time.Duration) (*EmailJob, error) {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrPermanent, err)
	}
	if job.To == "" {
		return &job, fmt.Errorf("%w: missing recipient", ErrPermanent)
	}
	subject, text, html, err := job.Render()
	if err != nil {
		return &job, err
	}
	c, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return &job, s.Send(c, job.To, subject, text, html)
}
