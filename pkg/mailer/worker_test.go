package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tpl "github.com/oksasatya/civic-report/pkg/mailer/templates"
)

type sentMail struct {
	to, subject, text, html string
}

type fakeSender struct {
	sent []sentMail
	err  error
}

func (f *fakeSender) Send(_ context.Context, to, subject, text, html string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, subject, text, html})
	return nil
}

func encode(t *testing.T, j EmailJob) []byte {
	t.Helper()
	b, err := json.Marshal(j)
	require.NoError(t, err)
	return b
}

func TestDeliver(t *testing.T) {
	statusJob := EmailJob{
		To:       "ann@example.test",
		Template: tpl.StatusChanged,
		Data: map[string]any{
			"AppName": "Civic", "Name": "Ann", "ReportID": 7, "ReportTitle": "Pothole",
			"From": "PENDING", "To": "RESOLVED", "Link": "http://front/user/report/7",
		},
	}

	cases := []struct {
		name      string
		body      []byte
		sendErr   error
		permanent bool
		wantErr   bool
		wantSent  int
	}{
		{"template job", encode(t, statusJob), nil, false, false, 1},
		{"raw job", encode(t, EmailJob{To: "a@b.test", Subject: "Hi", Text: "hello"}), nil, false, false, 1},
		{"raw job without body", encode(t, EmailJob{To: "a@b.test", Subject: "Hi"}), nil, true, true, 0},
		{"unknown template", encode(t, EmailJob{To: "a@b.test", Template: "nope"}), nil, true, true, 0},
		{"missing recipient", encode(t, EmailJob{Subject: "Hi", Text: "x"}), nil, true, true, 0},
		{"garbage", []byte("{"), nil, true, true, 0},
		{"transport failure is retryable", encode(t, statusJob), errors.New("timeout"), false, true, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &fakeSender{err: tc.sendErr}
			_, err := Deliver(context.Background(), tc.body, s, time.Second)
			if tc.wantErr {
				require.Error(t, err)
				assert.Equal(t, tc.permanent, errors.Is(err, ErrPermanent))
			} else {
				require.NoError(t, err)
			}
			assert.Len(t, s.sent, tc.wantSent)
		})
	}
}

func TestDeliver_RendersStatusChange(t *testing.T) {
	s := &fakeSender{}
	_, err := Deliver(context.Background(), encode(t, EmailJob{
		To:       "ann@example.test",
		Template: tpl.StatusChanged,
		Data:     map[string]any{"Name": "Ann", "ReportID": 7, "ReportTitle": "Pothole", "From": "PENDING", "To": "RESOLVED"},
	}), s, time.Second)
	require.NoError(t, err)
	require.Len(t, s.sent, 1)
	assert.Equal(t, "ann@example.test", s.sent[0].to)
	assert.NotEmpty(t, s.sent[0].subject)
	assert.Contains(t, s.sent[0].text, "Pothole")
	assert.Contains(t, s.sent[0].html, "Pothole")
}
