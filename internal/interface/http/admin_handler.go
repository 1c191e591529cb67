package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/civic-report/internal/application"
	"github.com/oksasatya/civic-report/internal/domain/entity"
	"github.com/oksasatya/civic-report/pkg/response"
)

// AdminHandler serves the admin dashboard and report triage.
type AdminHandler struct {
	Stats   *application.AdminService
	Reports *application.ReportService
	Audit   *Auditor
	Logger  *logrus.Logger
}

func NewAdminHandler(stats *application.AdminService, reports *application.ReportService, audit *Auditor, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{Stats: stats, Reports: reports, Audit: audit, Logger: logger}
}

type statusRequest struct {
	Status string `json:"status" binding:"required,report_status"`
}

// Dashboard GET /admin/dashboard
func (h *AdminHandler) Dashboard(c *gin.Context) {
	d, err := h.Stats.Dashboard(c.Request.Context())
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"reports":        toReportStats(d.Reports),
		"users":          toUserStats(d.Users),
		"category_count": d.CategoryCount,
		"response_count": d.ResponseCount,
		"recent":         toReports(d.Recent, h.Reports.ImageURL),
		"categories":     toCategoryCounts(d.Categories),
		"daily":          toDailyCounts(d.Daily),
	}, "dashboard", nil)
}

// Daily GET /admin/dashboard/daily?days=N
func (h *AdminHandler) Daily(c *gin.Context) {
	days, _ := strconv.Atoi(c.Query("days"))
	ds, err := h.Stats.DailyReportCounts(c.Request.Context(), days)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toDailyCounts(ds), "daily report counts", nil)
}

// Index GET /admin/reports
func (h *AdminHandler) Index(c *gin.Context) {
	idx, err := h.Reports.AdminIndex(c.Request.Context())
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"stats":      toReportStats(idx.Stats),
		"reports":    toReports(idx.Reports, h.Reports.ImageURL),
		"categories": toCategories(idx.Categories),
	}, "reports", nil)
}

// Search GET /admin/reports/search?q=...&size=N
func (h *AdminHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.Query("size"))
	found, err := h.Reports.Search(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toReports(found, h.Reports.ImageURL), "search results", map[string]any{"count": len(found)})
}

// Show GET /admin/reports/:id
func (h *AdminHandler) Show(c *gin.Context) {
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

// UpdateStatus PATCH /admin/reports/:id/status {status}
func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	id, ok := int64Param(c, "id", "report")
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	a := actor(c)
	ch, err := h.Reports.UpdateStatus(c.Request.Context(), id, entity.ReportStatus(req.Status), a)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	if ch.Changed {
		h.Audit.Record(c, a.ID, "", "report_status", map[string]any{"report_id": id, "from": ch.From, "to": ch.To})
	}
	response.Success(c, http.StatusOK, gin.H{
		"report":  toReport(*ch.Report, h.Reports.ImageURL),
		"from":    ch.From,
		"to":      ch.To,
		"changed": ch.Changed,
	}, "status updated", nil)
}

// Respond POST /admin/reports/:id/responses {message}
func (h *AdminHandler) Respond(c *gin.Context) {
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

// Destroy DELETE /admin/reports/:id
func (h *AdminHandler) Destroy(c *gin.Context) {
	id, ok := int64Param(c, "id", "report")
	if !ok {
		return
	}
	a := actor(c)
	if err := h.Reports.DeleteReport(c.Request.Context(), id, a); err != nil {
		fail(c, h.Logger, err)
		return
	}
	h.Audit.Record(c, a.ID, "", "report_delete", map[string]any{"report_id": id})
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "report deleted", nil)
}
