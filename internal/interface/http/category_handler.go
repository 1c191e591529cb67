package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/civic-report/internal/application"
	"github.com/oksasatya/civic-report/pkg/response"
)

type CategoryHandler struct {
	Svc    *application.CategoryService
	Audit  *Auditor
	Logger *logrus.Logger
}

func NewCategoryHandler(svc *application.CategoryService, audit *Auditor, logger *logrus.Logger) *CategoryHandler {
	return &CategoryHandler{Svc: svc, Audit: audit, Logger: logger}
}

type categoryRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

func (r categoryRequest) input() application.CategoryInput {
	return application.CategoryInput{Name: r.Name, Description: r.Description}
}

// Index GET /admin/categories lists categories with their report counts.
func (h *CategoryHandler) Index(c *gin.Context) {
	cats, err := h.Svc.ListWithCounts(c.Request.Context())
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toCategoryCounts(cats), "categories", nil)
}

// Show GET /admin/categories/:id
func (h *CategoryHandler) Show(c *gin.Context) {
	id, ok := int64Param(c, "id", "category")
	if !ok {
		return
	}
	cat, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toCategory(*cat), "category", nil)
}

// Store POST /admin/categories
func (h *CategoryHandler) Store(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	cat, err := h.Svc.Create(c.Request.Context(), req.input())
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	h.Audit.Record(c, actor(c).ID, "", "category_create", map[string]any{"category_id": cat.ID, "name": cat.Name})
	response.Success(c, http.StatusCreated, toCategory(*cat), "category created", nil)
}

// Update PUT /admin/categories/:id
func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := int64Param(c, "id", "category")
	if !ok {
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	cat, err := h.Svc.Update(c.Request.Context(), id, req.input())
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	h.Audit.Record(c, actor(c).ID, "", "category_update", map[string]any{"category_id": cat.ID, "name": cat.Name})
	response.Success(c, http.StatusOK, toCategory(*cat), "category updated", nil)
}

// Destroy DELETE /admin/categories/:id. Categories still used by reports are kept.
func (h *CategoryHandler) Destroy(c *gin.Context) {
	id, ok := int64Param(c, "id", "category")
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		fail(c, h.Logger, err)
		return
	}
	h.Audit.Record(c, actor(c).ID, "", "category_delete", map[string]any{"category_id": id})
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "category deleted", nil)
}
