package application

import (
	"context"
	"time"

	"github.com/oksasatya/civic-report/internal/domain/entity"
	repo "github.com/oksasatya/civic-report/internal/domain/repository"
)

const (
	defaultRecentLimit = 5
	maxRecentLimit     = 100
	defaultTrendDays   = 14
	maxTrendDays       = 366
	dayLayout          = "2006-01-02"
)

// AdminService computes read-only dashboard aggregates.
type AdminService struct {
	Reports    repo.ReportRepository
	Responses  repo.ResponseRepository
	Categories repo.CategoryRepository
	Users      repo.UserRepository

	// Location decides which calendar day a report belongs to.
	Location *time.Location
	Now      func() time.Time
}

func NewAdminService(
	reports repo.ReportRepository,
	responses repo.ResponseRepository,
	categories repo.CategoryRepository,
	users repo.UserRepository,
	loc *time.Location,
) *AdminService {
	if loc == nil {
		loc = time.UTC
	}
	return &AdminService{
		Reports:    reports,
		Responses:  responses,
		Categories: categories,
		Users:      users,
		Location:   loc,
		Now:        time.Now,
	}
}

type AdminDashboard struct {
	Reports       entity.ReportStats
	Users         entity.UserStats
	CategoryCount int
	ResponseCount int
	Recent        []entity.ReportView
	Categories    []entity.CategoryReportCount
	Daily         []entity.DailyCount
}

func (s *AdminService) ReportStats(ctx context.Context) (entity.ReportStats, error) {
	return s.Reports.CountByStatus(ctx, "")
}

func (s *AdminService) UserStats(ctx context.Context) (entity.UserStats, error) {
	return s.Users.Stats(ctx)
}

// CategoryBreakdown lists every category with its report count, highest count first.
func (s *AdminService) CategoryBreakdown(ctx context.Context) ([]entity.CategoryReportCount, error) {
	return s.Categories.ListWithReportCounts(ctx)
}

// RecentReports returns the newest reports. A non-positive limit means 5.
func (s *AdminService) RecentReports(ctx context.Context, limit int) ([]entity.ReportView, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}
	return s.Reports.List(ctx, repo.ReportFilter{Limit: limit})
}

// DailyReportCounts returns one entry per calendar day for the trailing
// days (today included), oldest first, with zero for days without reports.
func (s *AdminService) DailyReportCounts(ctx context.Context, days int) ([]entity.DailyCount, error) {
	if days <= 0 {
		days = defaultTrendDays
	}
	if days > maxTrendDays {
		days = maxTrendDays
	}
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	today := now().In(loc)
	midnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)
	start := midnight.AddDate(0, 0, -(days - 1))

	counts, err := s.Reports.CountByDay(ctx, start, loc)
	if err != nil {
		return nil, err
	}

	out := make([]entity.DailyCount, 0, days)
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i).Format(dayLayout)
		out = append(out, entity.DailyCount{Date: d, Count: counts[d]})
	}
	return out, nil
}

// Dashboard bundles every aggregate shown on the admin landing page.
func (s *AdminService) Dashboard(ctx context.Context) (*AdminDashboard, error) {
	var (
		d   AdminDashboard
		err error
	)
	if d.Reports, err = s.ReportStats(ctx); err != nil {
		return nil, err
	}
	if d.Users, err = s.UserStats(ctx); err != nil {
		return nil, err
	}
	if d.CategoryCount, err = s.Categories.Count(ctx); err != nil {
		return nil, err
	}
	if d.ResponseCount, err = s.Responses.Count(ctx); err != nil {
		return nil, err
	}
	if d.Recent, err = s.RecentReports(ctx, defaultRecentLimit); err != nil {
		return nil, err
	}
	if d.Categories, err = s.CategoryBreakdown(ctx); err != nil {
		return nil, err
	}
	if d.Daily, err = s.DailyReportCounts(ctx, defaultTrendDays); err != nil {
		return nil, err
	}
	return &d, nil
}
