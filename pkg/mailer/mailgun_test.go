package mailer

import (
	"errors"
	"fmt"
	"testing"

	mg "github.com/mailgun/mailgun-go/v4"
	"github.com/stretchr/testify/assert"
)

func TestClassifySendError(t *testing.T) {
	transport := errors.New("connection reset")
	cases := []struct {
		name      string
		err       error
		permanent bool
	}{
		{"nil", nil, false},
		{"transport", transport, false},
		{"bad request", &mg.UnexpectedResponseError{Expected: []int{200}, Actual: 400}, true},
		{"unauthorized", &mg.UnexpectedResponseError{Expected: []int{200}, Actual: 401}, true},
		{"throttled", &mg.UnexpectedResponseError{Expected: []int{200}, Actual: 429}, false},
		{"server error", &mg.UnexpectedResponseError{Expected: []int{200}, Actual: 502}, false},
		{"wrapped", fmt.Errorf("send: %w", &mg.UnexpectedResponseError{Actual: 404}), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifySendError(tc.err)
			if tc.err == nil {
				assert.NoError(t, got)
				return
			}
			assert.Error(t, got)
			assert.Equal(t, tc.permanent, errors.Is(got, ErrPermanent))
		})
	}
}
