package handlers

import (
	"time"

	"github.com/oksasatya/civic-report/internal/domain/entity"
)

type userRefDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type categoryDTO struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description"`
	ReportsCount *int      `json:"reports_count,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type reportDTO struct {
	ID             int64       `json:"id"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Status         string      `json:"status"`
	Image          string      `json:"image"`
	ImageURL       string      `json:"image_url"`
	Category       categoryDTO `json:"category"`
	Owner          userRefDTO  `json:"owner"`
	ResponsesCount int         `json:"responses_count"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

type responseDTO struct {
	ID        int64      `json:"id"`
	ReportID  int64      `json:"report_id"`
	Message   string     `json:"message"`
	Author    userRefDTO `json:"author"`
	CreatedAt time.Time  `json:"created_at"`
}

type reportDetailDTO struct {
	reportDTO
	Responses []responseDTO `json:"responses"`
}

type reportStatsDTO struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	InProcess int `json:"in_process"`
	Resolved  int `json:"resolved"`
	Rejected  int `json:"rejected"`
}

type userStatsDTO struct {
	Total    int `json:"total"`
	Admins   int `json:"admins"`
	Verified int `json:"verified"`
}

type userDTO struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Role            string     `json:"role"`
	Verified        bool       `json:"verified"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	ReportsCount    *int       `json:"reports_count,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type dailyCountDTO struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

func toUserRef(u entity.UserRef) userRefDTO {
	return userRefDTO{ID: u.ID, Name: u.Name, Email: u.Email, Role: string(u.Role)}
}

func toCategory(c entity.Category) categoryDTO {
	return categoryDTO{ID: c.ID, Name: c.Name, Description: c.Description, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

func toCategories(cs []entity.Category) []categoryDTO {
	out := make([]categoryDTO, len(cs))
	for i, c := range cs {
		out[i] = toCategory(c)
	}
	return out
}

func toCategoryCounts(cs []entity.CategoryReportCount) []categoryDTO {
	out := make([]categoryDTO, len(cs))
	for i, c := range cs {
		n := c.ReportsCount
		out[i] = toCategory(c.Category)
		out[i].ReportsCount = &n
	}
	return out
}

func toReport(v entity.ReportView, imageURL func(string) string) reportDTO {
	return reportDTO{
		ID:             v.ID,
		Title:          v.Title,
		Description:    v.Description,
		Status:         string(v.Status),
		Image:          v.Image,
		ImageURL:       imageURL(v.Image),
		Category:       toCategory(v.Category),
		Owner:          toUserRef(v.Owner),
		ResponsesCount: v.ResponsesCount,
		CreatedAt:      v.CreatedAt,
		UpdatedAt:      v.UpdatedAt,
	}
}

func toReports(vs []entity.ReportView, imageURL func(string) string) []reportDTO {
	out := make([]reportDTO, len(vs))
	for i, v := range vs {
		out[i] = toReport(v, imageURL)
	}
	return out
}

func toResponse(r entity.ResponseView) responseDTO {
	return responseDTO{ID: r.ID, ReportID: r.ReportID, Message: r.Message, Author: toUserRef(r.Author), CreatedAt: r.CreatedAt}
}

func toReportDetail(v entity.ReportView, rs []entity.ResponseView, imageURL func(string) string) reportDetailDTO {
	out := reportDetailDTO{reportDTO: toReport(v, imageURL), Responses: make([]responseDTO, len(rs))}
	for i, r := range rs {
		out.Responses[i] = toResponse(r)
	}
	out.ResponsesCount = len(rs)
	return out
}

func toReportStats(s entity.ReportStats) reportStatsDTO {
	return reportStatsDTO{Total: s.Total, Pending: s.Pending, InProcess: s.InProcess, Resolved: s.Resolved, Rejected: s.Rejected}
}

func toUserStats(s entity.UserStats) userStatsDTO {
	return userStatsDTO{Total: s.Total, Admins: s.Admins, Verified: s.Verified}
}

func toUser(u entity.User) userDTO {
	return userDTO{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Role:            string(u.Role),
		Verified:        u.IsVerified(),
		EmailVerifiedAt: u.EmailVerifiedAt,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func toDailyCounts(ds []entity.DailyCount) []dailyCountDTO {
	out := make([]dailyCountDTO, len(ds))
	for i, d := range ds {
		out[i] = dailyCountDTO{Date: d.Date, Count: d.Count}
	}
	return out
}
