package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/civic-report/internal/domain/entity"
)

type reportBody struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	Image     string `json:"image"`
	ImageURL  string `json:"image_url"`
	Responses []struct {
		Message string `json:"message"`
		Author  struct {
			ID string `json:"id"`
		} `json:"author"`
	} `json:"responses"`
}

func TestAuthFlow(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/auth/register", map[string]string{
		"name": "Citizen Kane", "email": "kane@example.test",
		"password": "rosebud123", "password_confirmation": "rosebud123",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Result().Cookies())

	t.Run("duplicate email", func(t *testing.T) {
		w := h.do(http.MethodPost, "/auth/register", map[string]string{
			"name": "Other", "email": "KANE@example.test",
			"password": "rosebud123", "password_confirmation": "rosebud123",
		}, "")
		assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	})

	cases := []struct {
		name   string
		body   map[string]string
		status int
	}{
		{"missing password", map[string]string{"email": "kane@example.test"}, http.StatusBadRequest},
		{"bad email", map[string]string{"email": "kane", "password": "x"}, http.StatusBadRequest},
		{"wrong password", map[string]string{"email": "kane@example.test", "password": "nope12345"}, http.StatusUnauthorized},
		{"unknown user", map[string]string{"email": "ghost@example.test", "password": "rosebud123"}, http.StatusUnauthorized},
		{"ok", map[string]string{"email": "kane@example.test", "password": "rosebud123"}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := h.do(http.MethodPost, "/auth/login", tc.body, "")
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}
	assert.Contains(t, h.audit.Actions(), "register")
	assert.Contains(t, h.audit.Actions(), "login_failed")
	assert.Contains(t, h.audit.Actions(), "login")
}

func TestAuthLogoutEndsSession(t *testing.T) {
	h := newHarness(t)
	tok := h.token(h.alice)

	w := h.do(http.MethodGet, "/auth/profile", nil, tok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = h.do(http.MethodPost, "/auth/logout", nil, tok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = h.do(http.MethodGet, "/auth/profile", nil, tok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(http.MethodPost, "/auth/logout", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSubmitReport(t *testing.T) {
	h := newHarness(t)
	tok := h.token(h.alice)
	cat := strconv.FormatInt(h.cat.ID, 10)

	t.Run("status in form is ignored", func(t *testing.T) {
		w := h.upload("/user/report", map[string]string{
			"title": "Broken streetlight", "description": "dark corner", "category_id": cat, "status": "RESOLVED",
		}, "light.png", pngBytes, tok)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var got reportBody
		decode(t, w, &got)
		assert.Equal(t, string(entity.StatusPending), got.Status)
		assert.NotEmpty(t, got.Image)
		assert.Equal(t, "/storage/"+got.Image, got.ImageURL)
		assert.True(t, h.blobs.Has(got.Image))
	})

	cases := []struct {
		name   string
		fields map[string]string
		file   string
		data   []byte
		field  string
	}{
		{"missing title", map[string]string{"description": "d", "category_id": cat}, "a.png", pngBytes, "title"},
		{"missing image", map[string]string{"title": "t", "description": "d", "category_id": cat}, "", nil, "image"},
		{"unknown category", map[string]string{"title": "t", "description": "d", "category_id": "999"}, "a.png", pngBytes, "category_id"},
		{"not an image", map[string]string{"title": "t", "description": "d", "category_id": cat}, "a.png", []byte("plain text"), "image"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := h.blobs.Len()
			w := h.upload("/user/report", tc.fields, tc.file, tc.data, tok)
			require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
			env := decode(t, w, nil)
			assert.Contains(t, string(env.Error), tc.field)
			assert.Equal(t, before, h.blobs.Len())
		})
	}

	t.Run("non numeric category", func(t *testing.T) {
		w := h.upload("/user/report", map[string]string{
			"title": "t", "description": "d", "category_id": "abc",
		}, "a.png", pngBytes, tok)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
		env := decode(t, w, nil)
		assert.Contains(t, string(env.Error), `"category_id":"is invalid"`)
	})

	t.Run("anonymous", func(t *testing.T) {
		w := h.upload("/user/report", map[string]string{"title": "t"}, "", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestViewReportOwnership(t *testing.T) {
	h := newHarness(t)
	rp := h.store.AddReport(h.alice.ID, h.cat.ID, "Pothole")
	path := fmt.Sprintf("/user/report/%d", rp.ID)

	cases := []struct {
		name   string
		user   entity.User
		path   string
		status int
	}{
		{"owner", h.alice, path, http.StatusOK},
		{"other citizen", h.bob, path, http.StatusForbidden},
		{"missing", h.alice, "/user/report/9999", http.StatusNotFound},
		{"non numeric id", h.alice, "/user/report/abc", http.StatusNotFound},
		{"zero id", h.alice, "/user/report/0", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := h.do(http.MethodGet, tc.path, nil, h.token(tc.user))
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}

	t.Run("other citizen cannot reply", func(t *testing.T) {
		w := h.do(http.MethodPost, path+"/responses", map[string]string{"message": "me too"}, h.token(h.bob))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
	t.Run("owner replies", func(t *testing.T) {
		w := h.do(http.MethodPost, path+"/responses", map[string]string{"message": "still broken"}, h.token(h.alice))
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})
	t.Run("empty reply", func(t *testing.T) {
		w := h.do(http.MethodPost, path+"/responses", map[string]string{"message": "  "}, h.token(h.alice))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	h := newHarness(t)
	paths := []string{"/admin/dashboard", "/admin/reports", "/admin/categories", "/admin/users"}
	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, p, nil, "").Code)
			assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, p, nil, h.token(h.alice)).Code)
			assert.Equal(t, http.StatusOK, h.do(http.MethodGet, p, nil, h.token(h.admin)).Code)
		})
	}
}

func TestAdminUpdateStatus(t *testing.T) {
	h := newHarness(t)
	tok := h.token(h.admin)
	rp := h.store.AddReport(h.alice.ID, h.cat.ID, "Flooded road")
	path := fmt.Sprintf("/admin/reports/%d", rp.ID)

	cases := []struct {
		name    string
		status  string
		code    int
		changed bool
	}{
		{"unknown status", "DONE", http.StatusBadRequest, false},
		{"lowercase", "resolved", http.StatusBadRequest, false},
		{"to in process", "IN_PROCESS", http.StatusOK, true},
		{"same status", "IN_PROCESS", http.StatusOK, false},
		{"to resolved", "RESOLVED", http.StatusOK, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := h.do(http.MethodPatch, path+"/status", map[string]string{"status": tc.status}, tok)
			require.Equal(t, tc.code, w.Code, w.Body.String())
			if tc.code != http.StatusOK {
				return
			}
			var got struct {
				Changed bool       `json:"changed"`
				Report  reportBody `json:"report"`
			}
			decode(t, w, &got)
			assert.Equal(t, tc.changed, got.Changed)
			assert.Equal(t, tc.status, got.Report.Status)
		})
	}

	w := h.do(http.MethodGet, path, nil, tok)
	require.Equal(t, http.StatusOK, w.Code)
	var detail reportBody
	decode(t, w, &detail)
	require.Len(t, detail.Responses, 2)
	assert.Equal(t, entity.StatusChangeMessage(entity.StatusPending, entity.StatusInProcess), detail.Responses[0].Message)
	assert.Equal(t, entity.StatusChangeMessage(entity.StatusInProcess, entity.StatusResolved), detail.Responses[1].Message)
	assert.Equal(t, h.admin.ID, detail.Responses[0].Author.ID)

	assert.Equal(t, []string{"report_status", "report_status"}, h.audit.Actions())

	t.Run("citizen cannot patch", func(t *testing.T) {
		w := h.do(http.MethodPatch, path+"/status", map[string]string{"status": "REJECTED"}, h.token(h.alice))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestAdminDeleteReport(t *testing.T) {
	h := newHarness(t)
	rp := h.store.AddReport(h.alice.ID, h.cat.ID, "Graffiti")
	path := fmt.Sprintf("/admin/reports/%d", rp.ID)
	tok := h.token(h.admin)

	require.Equal(t, http.StatusOK, h.do(http.MethodDelete, path, nil, tok).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, path, nil, tok).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodDelete, path, nil, tok).Code)
}

func TestAdminSearch(t *testing.T) {
	h := newHarness(t)
	tok := h.token(h.admin)
	w := h.upload("/user/report", map[string]string{
		"title": "Leaking hydrant", "description": "water everywhere", "category_id": strconv.FormatInt(h.cat.ID, 10),
	}, "h.png", pngBytes, h.token(h.alice))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = h.do(http.MethodGet, "/admin/reports/search?q=hydrant", nil, tok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var found []reportBody
	decode(t, w, &found)
	require.Len(t, found, 1)
	assert.Equal(t, "Leaking hydrant", found[0].Title)

	t.Run("index unavailable", func(t *testing.T) {
		h.reports.Index = nil
		w := h.do(http.MethodGet, "/admin/reports/search?q=hydrant", nil, tok)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestAdminCategories(t *testing.T) {
	h := newHarness(t)
	tok := h.token(h.admin)
	h.store.AddReport(h.alice.ID, h.cat.ID, "in use")

	w := h.do(http.MethodPost, "/admin/categories", map[string]any{"name": "Parks", "description": "green spaces"}, tok)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var parks struct {
		ID int64 `json:"id"`
	}
	decode(t, w, &parks)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		code   int
	}{
		{"duplicate name", http.MethodPost, "/admin/categories", map[string]any{"name": "Parks"}, http.StatusConflict},
		{"blank name", http.MethodPost, "/admin/categories", map[string]any{"name": " "}, http.StatusUnprocessableEntity},
		{"rename", http.MethodPut, fmt.Sprintf("/admin/categories/%d", parks.ID), map[string]any{"name": "Parks and Gardens"}, http.StatusOK},
		{"delete in use", http.MethodDelete, fmt.Sprintf("/admin/categories/%d", h.cat.ID), nil, http.StatusConflict},
		{"delete unused", http.MethodDelete, fmt.Sprintf("/admin/categories/%d", parks.ID), nil, http.StatusOK},
		{"delete missing", http.MethodDelete, fmt.Sprintf("/admin/categories/%d", parks.ID), nil, http.StatusNotFound},
		{"bad id", http.MethodGet, "/admin/categories/x", nil, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := h.do(tc.method, tc.path, tc.body, tok)
			assert.Equal(t, tc.code, w.Code, w.Body.String())
		})
	}
}

func TestAdminUsers(t *testing.T) {
	h := newHarness(t)
	tok := h.token(h.admin)
	staff := h.store.AddUser("Staff", entity.RoleAdmin)
	rp := h.store.AddReport(h.alice.ID, h.cat.ID, "flooded underpass")
	require.NoError(t, h.store.Responses().Create(context.Background(), &entity.Response{
		ReportID: rp.ID, UserID: staff.ID, Message: "Crew dispatched.",
	}))

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		code   int
	}{
		{"create defaults to citizen", http.MethodPost, "/admin/users",
			map[string]any{"name": "New One", "email": "new@example.test", "password": "longenough1", "password_confirmation": "longenough1"}, http.StatusCreated},
		{"unknown role", http.MethodPost, "/admin/users",
			map[string]any{"name": "X", "email": "x@example.test", "password": "longenough1", "password_confirmation": "longenough1", "role": "ROOT"}, http.StatusBadRequest},
		{"show", http.MethodGet, "/admin/users/" + h.bob.ID, nil, http.StatusOK},
		{"show missing", http.MethodGet, "/admin/users/00000000-0000-0000-0000-000000000000", nil, http.StatusNotFound},
		{"delete self", http.MethodDelete, "/admin/users/" + h.admin.ID, nil, http.StatusForbidden},
		{"delete staff with replies on citizen reports", http.MethodDelete, "/admin/users/" + staff.ID, nil, http.StatusConflict},
		{"delete citizen", http.MethodDelete, "/admin/users/" + h.bob.ID, nil, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := h.do(tc.method, tc.path, tc.body, tok)
			assert.Equal(t, tc.code, w.Code, w.Body.String())
		})
	}
	assert.Contains(t, h.audit.Actions(), "user_delete")
}

func TestUserDashboard(t *testing.T) {
	h := newHarness(t)
	h.store.AddReport(h.alice.ID, h.cat.ID, "one")
	h.store.AddReport(h.alice.ID, h.cat.ID, "two")
	h.store.AddReport(h.bob.ID, h.cat.ID, "not mine")

	w := h.do(http.MethodGet, "/user/dashboard", nil, h.token(h.alice))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got struct {
		Stats struct {
			Total   int `json:"total"`
			Pending int `json:"pending"`
		} `json:"stats"`
		Recent []reportBody `json:"recent"`
	}
	decode(t, w, &got)
	assert.Equal(t, 2, got.Stats.Total)
	assert.Equal(t, 2, got.Stats.Pending)
	assert.Len(t, got.Recent, 2)

	w = h.do(http.MethodGet, "/user/report", nil, h.token(h.bob))
	var mine []reportBody
	decode(t, w, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, "not mine", mine[0].Title)
}
