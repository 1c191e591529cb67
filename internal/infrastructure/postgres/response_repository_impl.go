package postgres

import (
	"context"

	"github.com/oksasatya/civic-report/internal/domain/entity"
	"github.com/oksasatya/civic-report/internal/domain/repository"
)

type ResponseRepository struct {
	db DBTX
}

func NewResponseRepository(db DBTX) *ResponseRepository {
	return &ResponseRepository{db: db}
}

func (r *ResponseRepository) Create(ctx context.Context, resp *entity.Response) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO responses (report_id, user_id, message)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, resp.ReportID, resp.UserID, resp.Message)
	return mapErr(row.Scan(&resp.ID, &resp.CreatedAt))
}

func (r *ResponseRepository) ListByReport(ctx context.Context, reportID int64) ([]entity.ResponseView, error) {
	rows, err := r.db.Query(ctx, `
		SELECT rs.id, rs.report_id, rs.user_id, rs.message, rs.created_at,
		       u.id, u.name, u.email, u.role
		FROM responses rs
		JOIN users u ON u.id = rs.user_id
		WHERE rs.report_id = $1
		ORDER BY rs.created_at ASC, rs.id ASC
	`, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]entity.ResponseView, 0)
	for rows.Next() {
		var (
			v    entity.ResponseView
			role string
		)
		if err := rows.Scan(&v.ID, &v.ReportID, &v.UserID, &v.Message, &v.CreatedAt,
			&v.Author.ID, &v.Author.Name, &v.Author.Email, &role); err != nil {
			return nil, err
		}
		v.Author.Role = entity.Role(role)
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *ResponseRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM responses`).Scan(&n)
	return n, err
}

var _ repository.ResponseRepository = (*ResponseRepository)(nil)
