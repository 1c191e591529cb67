package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/civic-report/internal/application"
	"github.com/oksasatya/civic-report/internal/domain/entity"
	"github.com/oksasatya/civic-report/pkg/response"
)

// UserHandler is the admin user directory.
type UserHandler struct {
	Svc    *application.UserService
	Audit  *Auditor
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.UserService, audit *Auditor, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Audit: audit, Logger: logger}
}

type createUserRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	Role                 string `json:"role" binding:"omitempty,role"`
	Verified             bool   `json:"verified"`
}

type updateUserRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Role                 string `json:"role" binding:"omitempty,role"`
	Verified             *bool  `json:"verified"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// Index GET /admin/users
func (h *UserHandler) Index(c *gin.Context) {
	dir, err := h.Svc.ListUsers(c.Request.Context())
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	users := make([]userDTO, len(dir.Users))
	for i, u := range dir.Users {
		n := u.ReportsCount
		users[i] = toUser(u.User)
		users[i].ReportsCount = &n
	}
	response.Success(c, http.StatusOK, gin.H{"stats": toUserStats(dir.Stats), "users": users}, "users", nil)
}

// Show GET /admin/users/:id
func (h *UserHandler) Show(c *gin.Context) {
	u, err := h.Svc.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUser(*u), "user", nil)
}

// Store POST /admin/users
func (h *UserHandler) Store(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	role := entity.Role(req.Role)
	if role == "" {
		role = entity.RoleUser
	}
	u, err := h.Svc.CreateUser(c.Request.Context(), application.CreateUserInput{
		Name:                 req.Name,
		Email:                req.Email,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
		Role:                 role,
		Verified:             req.Verified,
	})
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	h.Audit.Record(c, actor(c).ID, "", "user_create", map[string]any{"user_id": u.ID, "role": u.Role})
	response.Success(c, http.StatusCreated, toUser(*u), "user created", nil)
}

// Update PUT /admin/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	u, err := h.Svc.UpdateUser(c.Request.Context(), c.Param("id"), application.UpdateUserInput{
		Name:                 req.Name,
		Email:                req.Email,
		Role:                 entity.Role(req.Role),
		Verified:             req.Verified,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
	})
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	h.Audit.Record(c, actor(c).ID, "", "user_update", map[string]any{"user_id": u.ID})
	response.Success(c, http.StatusOK, toUser(*u), "user updated", nil)
}

// Destroy DELETE /admin/users/:id. Admins cannot delete themselves.
func (h *UserHandler) Destroy(c *gin.Context) {
	id := c.Param("id")
	a := actor(c)
	if err := h.Svc.DeleteUser(c.Request.Context(), id, a); err != nil {
		fail(c, h.Logger, err)
		return
	}
	h.Audit.Record(c, a.ID, "", "user_delete", map[string]any{"user_id": id})
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "user deleted", nil)
}
