package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/civic-report/internal/domain/entity"
	"github.com/oksasatya/civic-report/internal/domain/repository"
)

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, name, email, password, role, email_verified_at, created_at, updated_at`

func scanUser(row pgx.Row, u *entity.User) error {
	var role string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &role,
		&u.EmailVerifiedAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return err
	}
	u.Role = entity.Role(role)
	return nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (name, email, password, role, email_verified_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, u.Name, u.Email, u.Password, string(u.Role), u.EmailVerifiedAt)

	return mapErr(row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	u := &entity.User{}
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err := scanUser(row, u); err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	u := &entity.User{}
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	if err := scanUser(row, u); err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

func (r *UserRepository) ListWithReportCounts(ctx context.Context) ([]entity.UserWithReportCount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT u.id, u.name, u.email, u.password, u.role, u.email_verified_at, u.created_at, u.updated_at,
		       COUNT(rp.id)
		FROM users u
		LEFT JOIN reports rp ON rp.user_id = u.id
		GROUP BY u.id
		ORDER BY u.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]entity.UserWithReportCount, 0)
	for rows.Next() {
		var (
			item entity.UserWithReportCount
			role string
		)
		if err := rows.Scan(&item.ID, &item.Name, &item.Email, &item.Password, &role,
			&item.EmailVerifiedAt, &item.CreatedAt, &item.UpdatedAt, &item.ReportsCount); err != nil {
			return nil, err
		}
		item.Role = entity.Role(role)
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	u.UpdatedAt = time.Now()

	res, err := r.db.Exec(ctx, `
		UPDATE users
		SET name = $1, email = $2, role = $3, email_verified_at = $4, updated_at = $5
		WHERE id = $6
	`, u.Name, u.Email, string(u.Role), u.EmailVerifiedAt, u.UpdatedAt, u.ID)
	if err != nil {
		return mapErr(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	res, err := r.db.Exec(ctx, `UPDATE users SET password = $1, updated_at = now() WHERE id = $2`, hash, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetVerified(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.Exec(ctx, `
		UPDATE users SET email_verified_at = $1, updated_at = now()
		WHERE id = $2 AND email_verified_at IS NULL
	`, at, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		// already verified is fine; only a missing row is an error
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) Stats(ctx context.Context) (entity.UserStats, error) {
	var s entity.UserStats
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE role = 'ADMIN'),
		       COUNT(*) FILTER (WHERE email_verified_at IS NOT NULL)
		FROM users
	`).Scan(&s.Total, &s.Admins, &s.Verified)
	return s, err
}

var _ repository.UserRepository = (*UserRepository)(nil)
