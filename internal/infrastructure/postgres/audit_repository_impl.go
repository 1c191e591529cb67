package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/oksasatya/civic-report/internal/domain/repository"
)

type AuditRepository struct {
	db DBTX
}

func NewAuditRepository(db DBTX) *AuditRepository {
	return &AuditRepository{db: db}
}

func optText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func (r *AuditRepository) Insert(ctx context.Context, e repository.AuditEntry) error {
	md, err := json.Marshal(e.Metadata)
	if err != nil || e.Metadata == nil {
		md = []byte("{}")
	}

	var uid pgtype.UUID
	if e.UserID != "" {
		if parsed, err := uuid.Parse(e.UserID); err == nil {
			uid.Bytes = parsed
			uid.Valid = true
		}
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO audit_logs (user_id, email, action, ip, user_agent, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uid, optText(e.Email), e.Action, optText(e.IP), optText(e.UserAgent), md)
	return err
}

var _ repository.AuditRepository = (*AuditRepository)(nil)
