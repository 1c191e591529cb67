package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/civic-report/internal/application"
	"github.com/oksasatya/civic-report/internal/interface/middleware"
	"github.com/oksasatya/civic-report/pkg/helpers"
	"github.com/oksasatya/civic-report/pkg/response"
)

type AuthHandler struct {
	Svc     *application.UserService
	Audit   *Auditor
	Logger  *logrus.Logger
	Cookies *helpers.Manager
	// ExposeLinks returns verify/reset links in the response body. Enabled outside production.
	ExposeLinks bool
}

func NewAuthHandler(svc *application.UserService, audit *Auditor, logger *logrus.Logger, cookies *helpers.Manager) *AuthHandler {
	return &AuthHandler{Svc: svc, Audit: audit, Logger: logger, Cookies: cookies}
}

type registerRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type updateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type changePasswordRequest struct {
	CurrentPassword      string `json:"current_password" binding:"required"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

type tokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type resetInitRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetConfirmRequest struct {
	Token                string `json:"token" binding:"required"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

func tokenMeta(p application.TokenPair) map[string]any {
	return map[string]any{"access_expires_at": p.AccessTokenExpiry, "refresh_expires_at": p.RefreshTokenExpiry}
}

// Register POST /auth/register. Signs the new user in.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	u, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		Name:                 req.Name,
		Email:                req.Email,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
	})
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	pair, err := h.Svc.IssueTokens(c.Request.Context(), u)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	h.Audit.Record(c, u.ID, u.Email, "register", nil)
	response.Success(c, http.StatusCreated, toUser(*u), "registered", tokenMeta(pair))
}

// Login POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	u, pair, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.Audit.Record(c, "", req.Email, "login_failed", nil)
		fail(c, h.Logger, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	h.Audit.Record(c, u.ID, u.Email, "login", nil)
	response.Success(c, http.StatusOK, toUser(*u), "login successful", tokenMeta(pair))
}

// Refresh POST /auth/refresh rotates the cookie pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie(helpers.RefreshCookie)
	if err != nil || refresh == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	pair, _, err := h.Svc.Refresh(c.Request.Context(), refresh)
	if err != nil {
		h.Cookies.Clear(c)
		response.Error[any](c, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success[any](c, http.StatusOK, gin.H{"refreshed": true}, "token refreshed", tokenMeta(pair))
}

// Logout POST /auth/logout. Works without a valid session.
func (h *AuthHandler) Logout(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	if err := h.Svc.Logout(c.Request.Context(), uid); err != nil && h.Logger != nil {
		h.Logger.WithError(err).WithField("user_id", uid).Warn("session delete failed")
	}
	h.Cookies.Clear(c)
	if uid != "" {
		h.Audit.Record(c, uid, c.GetString(middleware.CtxUserEmailKey), "logout", nil)
	}
	response.Success[any](c, http.StatusOK, gin.H{"logged_out": true}, "logged out", nil)
}

// Profile GET /auth/profile
func (h *AuthHandler) Profile(c *gin.Context) {
	u, err := h.Svc.GetProfile(c.Request.Context(), c.GetString(middleware.CtxUserIDKey))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUser(*u), "profile", nil)
}

// UpdateProfile PUT /auth/profile
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	uid := c.GetString(middleware.CtxUserIDKey)
	u, err := h.Svc.UpdateProfile(c.Request.Context(), uid, application.UpdateProfileInput{Name: req.Name, Email: req.Email})
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	h.Audit.Record(c, u.ID, u.Email, "profile_update", nil)
	response.Success(c, http.StatusOK, toUser(*u), "profile updated", nil)
}

// ChangePassword PUT /auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	uid := c.GetString(middleware.CtxUserIDKey)
	if err := h.Svc.ChangePassword(c.Request.Context(), uid, req.CurrentPassword, req.Password, req.PasswordConfirmation); err != nil {
		fail(c, h.Logger, err)
		return
	}
	h.Audit.Record(c, uid, "", "password_change", nil)
	response.Success[any](c, http.StatusOK, gin.H{"updated": true}, "password updated", nil)
}

// VerifyInit POST /auth/verify/init
func (h *AuthHandler) VerifyInit(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	link, err := h.Svc.VerifyInit(c.Request.Context(), uid)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	if link == "" {
		response.Success(c, http.StatusOK, gin.H{"already_verified": true}, "already verified", nil)
		return
	}
	h.Audit.Record(c, uid, "", "verify_init_issue", nil)
	data := gin.H{"sent": true}
	if h.ExposeLinks {
		data["verify_link"] = link
	}
	response.Success(c, http.StatusOK, data, "verification link issued", nil)
}

// VerifyConfirm POST /auth/verify/confirm {token}
func (h *AuthHandler) VerifyConfirm(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	uid, err := h.Svc.VerifyConfirm(c.Request.Context(), req.Token)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	h.Audit.Record(c, uid, "", "verify_confirm", map[string]any{"token": "redacted"})
	response.Success[any](c, http.StatusOK, gin.H{"verified": true}, "email verified", nil)
}

// ResetInit POST /auth/reset/init {email}. Answers the same way for unknown addresses.
func (h *AuthHandler) ResetInit(c *gin.Context) {
	var req resetInitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	u, link, err := h.Svc.ResetInit(c.Request.Context(), req.Email)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	if u != nil {
		h.Audit.Record(c, u.ID, u.Email, "reset_init_issue", nil)
	} else {
		h.Audit.Record(c, "", req.Email, "reset_init_unknown", nil)
	}
	data := gin.H{"sent": true}
	if h.ExposeLinks {
		data["reset_link"] = link
	}
	response.Success(c, http.StatusOK, data, "if the address exists a reset link was sent", nil)
}

// ResetConfirm POST /auth/reset/confirm {token, password, password_confirmation}
func (h *AuthHandler) ResetConfirm(c *gin.Context) {
	var req resetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	uid, err := h.Svc.ResetConfirm(c.Request.Context(), req.Token, req.Password, req.PasswordConfirmation)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	h.Audit.Record(c, uid, "", "reset_confirm", map[string]any{"token": "redacted"})
	response.Success[any](c, http.StatusOK, gin.H{"reset": true}, "password updated", nil)
}
