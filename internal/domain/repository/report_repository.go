package repository

import (
	"context"
	"time"

	"github.com/oksasatya/civic-report/internal/domain/entity"
)

// ReportFilter narrows report listings. Zero values mean "no constraint".
type ReportFilter struct {
	OwnerID string
	IDs     []int64
	Limit   int
}

type ReportRepository interface {
	Create(ctx context.Context, r *entity.Report) error
	GetByID(ctx context.Context, id int64) (*entity.ReportView, error)
	// GetByIDForUpdate is GetByID that also locks the report row until the
	// surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id int64) (*entity.ReportView, error)
	// List returns reports newest first with category, owner and response count.
	List(ctx context.Context, f ReportFilter) ([]entity.ReportView, error)
	UpdateStatus(ctx context.Context, id int64, status entity.ReportStatus) error
	Delete(ctx context.Context, id int64) error
	// ImagesByOwner returns the evidence keys of every report owned by userID.
	ImagesByOwner(ctx context.Context, userID string) ([]string, error)
	// CountByStatus counts reports, restricted to ownerID when non-empty.
	CountByStatus(ctx context.Context, ownerID string) (entity.ReportStats, error)
	// CountByDay groups reports created at or after since by calendar date in loc.
	// Keys are formatted as YYYY-MM-DD.
	CountByDay(ctx context.Context, since time.Time, loc *time.Location) (map[string]int, error)
}

type ResponseRepository interface {
	Create(ctx context.Context, r *entity.Response) error
	// ListByReport returns the thread oldest first.
	ListByReport(ctx context.Context, reportID int64) ([]entity.ResponseView, error)
	Count(ctx context.Context) (int, error)
}
