package validation

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
)

type statusPayload struct {
	Status string `json:"status" binding:"required,report_status"`
}

type userPayload struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
	Role     string `json:"role" binding:"required,role"`
	Message  string `form:"message" binding:"max=5"`
}

func TestToDetails_Aliases(t *testing.T) {
	Init()

	cases := []struct {
		name string
		obj  any
		want map[string]string
	}{
		{
			name: "bad status",
			obj:  &statusPayload{Status: "DONE"},
			want: map[string]string{"status": "must be one of: PENDING, IN_PROCESS, RESOLVED, REJECTED"},
		},
		{
			name: "missing status",
			obj:  &statusPayload{},
			want: map[string]string{"status": "is required"},
		},
		{
			name: "user payload",
			obj:  &userPayload{Email: "nope", Password: "short", Role: "ROOT", Message: "too long"},
			want: map[string]string{
				"email":    "must be a valid email",
				"password": "must be at least 8 characters long",
				"role":     "must be one of: ADMIN, USER",
				"message":  "must be at most 5 characters long",
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(tc.obj)
			assert.Equal(t, tc.want, ToDetails(err))
		})
	}

	assert.NoError(t, binding.Validator.ValidateStruct(&statusPayload{Status: "IN_PROCESS"}))
}

func TestToDetails_Fallbacks(t *testing.T) {
	assert.Nil(t, ToDetails(nil))

	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(&json.SyntaxError{}))
	assert.Equal(t, map[string]string{"payload": "invalid payload"}, ToDetails(errors.New("boom")))
}
