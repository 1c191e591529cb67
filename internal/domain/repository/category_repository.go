package repository

import (
	"context"

	"github.com/oksasatya/civic-report/internal/domain/entity"
)

type CategoryRepository interface {
	Create(ctx context.Context, c *entity.Category) error
	GetByID(ctx context.Context, id int64) (*entity.Category, error)
	List(ctx context.Context) ([]entity.Category, error)
	Update(ctx context.Context, c *entity.Category) error
	// Delete returns ErrReferenced when reports still use the category.
	Delete(ctx context.Context, id int64) error
	CountReports(ctx context.Context, id int64) (int, error)
	// ListWithReportCounts is ordered by report count descending, then name.
	ListWithReportCounts(ctx context.Context) ([]entity.CategoryReportCount, error)
	Count(ctx context.Context) (int, error)
}
