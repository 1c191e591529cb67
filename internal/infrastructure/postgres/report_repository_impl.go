package postgres

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/civic-report/internal/domain/entity"
	"github.com/oksasatya/civic-report/internal/domain/repository"
)

type ReportRepository struct {
	db DBTX
}

func NewReportRepository(db DBTX) *ReportRepository {
	return &ReportRepository{db: db}
}

const reportViewSelect = `
	SELECT rp.id, rp.user_id, rp.category_id, rp.title, rp.description, rp.image, rp.status,
	       rp.created_at, rp.updated_at,
	       c.id, c.name, c.description, c.created_at, c.updated_at,
	       u.id, u.name, u.email, u.role,
	       (SELECT COUNT(*) FROM responses rs WHERE rs.report_id = rp.id)
	FROM reports rp
	JOIN categories c ON c.id = rp.category_id
	JOIN users u ON u.id = rp.user_id`

func scanReportView(row pgx.Row, v *entity.ReportView) error {
	var status, role string
	if err := row.Scan(&v.ID, &v.UserID, &v.CategoryID, &v.Title, &v.Description, &v.Image, &status,
		&v.CreatedAt, &v.UpdatedAt,
		&v.Category.ID, &v.Category.Name, &v.Category.Description, &v.Category.CreatedAt, &v.Category.UpdatedAt,
		&v.Owner.ID, &v.Owner.Name, &v.Owner.Email, &role,
		&v.ResponsesCount); err != nil {
		return err
	}
	v.Status = entity.ReportStatus(status)
	v.Owner.Role = entity.Role(role)
	return nil
}

func (r *ReportRepository) Create(ctx context.Context, rep *entity.Report) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO reports (user_id, category_id, title, description, image, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, rep.UserID, rep.CategoryID, rep.Title, rep.Description, rep.Image, string(rep.Status))
	return mapErr(row.Scan(&rep.ID, &rep.CreatedAt, &rep.UpdatedAt))
}

func (r *ReportRepository) GetByID(ctx context.Context, id int64) (*entity.ReportView, error) {
	v := &entity.ReportView{}
	row := r.db.QueryRow(ctx, reportViewSelect+` WHERE rp.id = $1`, id)
	if err := scanReportView(row, v); err != nil {
		return nil, mapErr(err)
	}
	return v, nil
}

func (r *ReportRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entity.ReportView, error) {
	v := &entity.ReportView{}
	row := r.db.QueryRow(ctx, reportViewSelect+` WHERE rp.id = $1 FOR UPDATE OF rp`, id)
	if err := scanReportView(row, v); err != nil {
		return nil, mapErr(err)
	}
	return v, nil
}

func (r *ReportRepository) List(ctx context.Context, f repository.ReportFilter) ([]entity.ReportView, error) {
	var (
		where []string
		args  []any
	)
	if f.OwnerID != "" {
		args = append(args, f.OwnerID)
		where = append(where, "rp.user_id = $"+strconv.Itoa(len(args)))
	}
	if f.IDs != nil {
		args = append(args, f.IDs)
		where = append(where, "rp.id = ANY($"+strconv.Itoa(len(args))+")")
	}

	q := reportViewSelect
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY rp.created_at DESC, rp.id DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += " LIMIT $" + strconv.Itoa(len(args))
	}

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]entity.ReportView, 0)
	for rows.Next() {
		var v entity.ReportView
		if err := scanReportView(rows, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *ReportRepository) UpdateStatus(ctx context.Context, id int64, status entity.ReportStatus) error {
	res, err := r.db.Exec(ctx, `
		UPDATE reports SET status = $1, updated_at = now() WHERE id = $2
	`, string(status), id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ReportRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Exec(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ReportRepository) ImagesByOwner(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT image FROM reports WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *ReportRepository) CountByStatus(ctx context.Context, ownerID string) (entity.ReportStats, error) {
	q := `SELECT status, COUNT(*) FROM reports`
	var args []any
	if ownerID != "" {
		q += ` WHERE user_id = $1`
		args = append(args, ownerID)
	}
	q += ` GROUP BY status`

	var stats entity.ReportStats
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return stats, err
		}
		stats.Add(entity.ReportStatus(status), n)
	}
	return stats, rows.Err()
}

func (r *ReportRepository) CountByDay(ctx context.Context, since time.Time, loc *time.Location) (map[string]int, error) {
	tz := "UTC"
	if loc != nil && loc.String() != "Local" {
		tz = loc.String()
	}
	rows, err := r.db.Query(ctx, `
		SELECT to_char(created_at AT TIME ZONE $2, 'YYYY-MM-DD') AS day, COUNT(*)
		FROM reports
		WHERE created_at >= $1
		GROUP BY day
	`, since, tz)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			day string
			n   int
		)
		if err := rows.Scan(&day, &n); err != nil {
			return nil, err
		}
		out[day] = n
	}
	return out, rows.Err()
}

var _ repository.ReportRepository = (*ReportRepository)(nil)
