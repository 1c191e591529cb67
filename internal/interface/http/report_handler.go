package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/civic-report/internal/application"
	"github.com/oksasatya/civic-report/pkg/response"
)

// ReportHandler serves the citizen side: own reports, the thread and the dashboard.
type ReportHandler struct {
	Reports    *application.ReportService
	Categories *application.CategoryService
	Logger     *logrus.Logger
}

func NewReportHandler(reports *application.ReportService, categories *application.CategoryService, logger *logrus.Logger) *ReportHandler {
	return &ReportHandler{Reports: reports, Categories: categories, Logger: logger}
}

type messageRequest struct {
	Message string `json:"message"`
}

// Index GET /user/report
func (h *ReportHandler) Index(c *gin.Context) {
	reports, err := h.Reports.ListOwnedReports(c.Request.Context(), actor(c).ID)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toReports(reports, h.Reports.ImageURL), "reports", nil)
}

// Create GET /user/report/create returns what the submit form needs.
func (h *ReportHandler) Create(c *gin.Context) {
	cats, err := h.Categories.List(c.Request.Context())
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"categories": toCategories(cats)}, "report form", nil)
}

// Store POST /user/report (multipart: title, description, category_id, image).
// A status field in the form is ignored.
func (h *ReportHandler) Store(c *gin.Context) {
	in := application.SubmitReportInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
	}
	if raw := strings.TrimSpace(c.PostForm("category_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			id = -1
		}
		in.CategoryID = id
	}
	if fh, err := c.FormFile("image"); err == nil {
		f, err := fh.Open()
		if err != nil {
			fail(c, h.Logger, err)
			return
		}
		defer f.Close()
		in.Image = &application.EvidenceFile{Filename: fh.Filename, Content: f}
	}

	v, err := h.Reports.SubmitReport(c.Request.Context(), actor(c).ID, in)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toReport(*v, h.Reports.ImageURL), "report submitted", nil)
}

// Show GET /user/report/:id
func (h *ReportHandler) Show(c *gin.Context) {
	id, ok := int64Param(c, "id", "report")
	if !ok {
		return
	}
	d, err := h.Reports.ViewReport(c.Request.Context(), id, actor(c))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toReportDetail(d.ReportView, d.Responses, h.Reports.ImageURL), "report", nil)
}

// Respond POST /user/report/:id/responses lets owners reply in their thread.
func (h *ReportHandler) Respond(c *gin.Context) {
	id, ok := int64Param(c, "id", "report")
	if !ok {
		return
	}
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	r, err := h.Reports.AddResponse(c.Request.Context(), id, actor(c), req.Message)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"id": r.ID, "report_id": r.ReportID, "message": r.Message, "created_at": r.CreatedAt}, "response added", nil)
}

// Dashboard GET /user/dashboard
func (h *ReportHandler) Dashboard(c *gin.Context) {
	d, err := h.Reports.UserDashboard(c.Request.Context(), actor(c).ID)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"stats":  toReportStats(d.Stats),
		"recent": toReports(d.Recent, h.Reports.ImageURL),
	}, "dashboard", nil)
}
