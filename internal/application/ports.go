package application

import (
	"context"
	"io"

	"github.com/oksasatya/civic-report/internal/domain/entity"
)

// Actor is the authenticated caller of a service operation. It is always
// passed explicitly; services never read ambient request state.
type Actor struct {
	ID   string
	Role entity.Role
}

func (a Actor) IsAdmin() bool { return a.Role == entity.RoleAdmin }

// EvidenceStore persists uploaded evidence images.
type EvidenceStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// ReportIndexer mirrors reports into a full-text index.
type ReportIndexer interface {
	IndexReport(ctx context.Context, v entity.ReportView) error
	DeleteReport(ctx context.Context, id int64) error
	SearchReports(ctx context.Context, q string, size int) ([]int64, error)
}

// JobPublisher enqueues background jobs. Satisfied by helpers.RabbitPublisher.
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}
