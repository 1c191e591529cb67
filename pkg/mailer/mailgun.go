package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	mg "github.com/mailgun/mailgun-go/v4"
)

// Mailgun sends rendered notification emails through the Mailgun API.
type Mailgun struct {
	client mg.Mailgun
	Sender string
}

func NewMailgun(domain, apiKey, sender string) *Mailgun {
	return &Mailgun{client: mg.NewMailgun(domain, apiKey), Sender: sender}
}

// Send delivers one message. A 4xx answer other than 429 is wrapped in
// ErrPermanent so the worker drops the job instead of retrying it.
func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	msg := m.client.NewMessage(m.Sender, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	_, _, err := m.client.Send(ctx, msg)
	return classifySendError(err)
}

func classifySendError(err error) error {
	if err == nil {
		return nil
	}
	var ure *mg.UnexpectedResponseError
	if errors.As(err, &ure) && ure.Actual >= 400 && ure.Actual < 500 && ure.Actual != http.StatusTooManyRequests {
		return fmt.Errorf("%w: mailgun answered %d: %v", ErrPermanent, ure.Actual, err)
	}
	return err
}
