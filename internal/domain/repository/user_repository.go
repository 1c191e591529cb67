package repository

import (
	"context"
	"time"

	"github.com/oksasatya/civic-report/internal/domain/entity"
)

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	ListWithReportCounts(ctx context.Context) ([]entity.UserWithReportCount, error)
	Update(ctx context.Context, u *entity.User) error
	UpdatePassword(ctx context.Context, id, hash string) error
	SetVerified(ctx context.Context, id string, at time.Time) error
	// Delete returns ErrReferenced when the user wrote responses on reports
	// owned by someone else.
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (entity.UserStats, error)
}
