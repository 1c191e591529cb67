package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/civic-report/internal/application"
	"github.com/oksasatya/civic-report/internal/application/apptest"
	"github.com/oksasatya/civic-report/internal/domain/entity"
	handlers "github.com/oksasatya/civic-report/internal/interface/http"
	"github.com/oksasatya/civic-report/internal/router/modules"
	"github.com/oksasatya/civic-report/pkg/helpers"
	"github.com/oksasatya/civic-report/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
	validation.Init()
}

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 64)...)

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

type harness struct {
	t        *testing.T
	store    *apptest.Store
	sessions *apptest.Sessions
	blobs    *apptest.Blobs
	index    *apptest.Index
	audit    *apptest.Audit
	reports  *application.ReportService
	users    *application.UserService
	engine   *gin.Engine

	admin entity.User
	alice entity.User
	bob   entity.User
	cat   entity.Category
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	h := &harness{
		t:        t,
		store:    apptest.NewStore(),
		sessions: apptest.NewSessions(),
		blobs:    apptest.NewBlobs(),
		index:    apptest.NewIndex(),
		audit:    &apptest.Audit{},
	}
	h.store.Clock = apptest.StepClock(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), time.Minute)
	h.admin = h.store.AddUser("Admin One", entity.RoleAdmin)
	h.alice = h.store.AddUser("Alice", entity.RoleUser)
	h.bob = h.store.AddUser("Bob", entity.RoleUser)
	h.cat = h.store.AddCategory("Infrastructure")

	jwt := helpers.NewJWTManager("access", "refresh", time.Hour, 24*time.Hour)
	s := h.store
	h.reports = application.NewReportService(s.Reports(), s.Responses(), s.Categories(), s.Users(), s.Transactor(), h.blobs, logger)
	h.reports.Index = h.index
	h.users = application.NewUserService(s.Users(), s.Reports(), h.sessions, apptest.NewTokens(), jwt, logger)
	h.users.Storage = h.blobs
	h.users.VerifyEmailURL = "http://front.test/verify"
	h.users.ResetURL = "http://front.test/reset"
	categories := application.NewCategoryService(s.Categories(), logger)
	admin := application.NewAdminService(s.Reports(), s.Responses(), s.Categories(), s.Users(), time.UTC)

	audit := handlers.NewAuditor(h.audit, logger)
	guard := modules.Guard{Sessions: h.sessions, JWT: jwt}
	authHandler := handlers.NewAuthHandler(h.users, audit, logger, helpers.NewCookie("", false))
	authHandler.ExposeLinks = true

	h.engine = gin.New()
	rg := h.engine.Group("/")
	modules.NewAuthModule(authHandler, guard).Register(rg)
	modules.NewUserModule(handlers.NewReportHandler(h.reports, categories, logger), guard).Register(rg)
	modules.NewAdminModule(
		handlers.NewAdminHandler(admin, h.reports, audit, logger),
		handlers.NewCategoryHandler(categories, audit, logger),
		handlers.NewUserHandler(h.users, audit, logger),
		guard,
	).Register(rg)
	return h
}

// token signs u in and returns a bearer access token.
func (h *harness) token(u entity.User) string {
	h.t.Helper()
	pair, err := h.users.IssueTokens(context.Background(), &u)
	require.NoError(h.t, err)
	return pair.AccessToken
}

func (h *harness) serve(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	return w
}

func (h *harness) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	h.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(h.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return h.serve(req, token)
}

func (h *harness) upload(path string, fields map[string]string, filename string, content []byte, token string) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(h.t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("image", filename)
		require.NoError(h.t, err)
		_, err = fw.Write(content)
		require.NoError(h.t, err)
	}
	require.NoError(h.t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return h.serve(req, token)
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}
