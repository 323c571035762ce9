package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"civiclens_bot/internal/domain/enums"
	"civiclens_bot/internal/domain/model"
)

// AuditRepo records admin decisions taken through this bot. It is nil-safe:
// without a database the bot still works, it just keeps no local trail.
type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) Save(ctx context.Context, record model.AuditRecord) error {
	if r.db == nil {
		return nil
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bot_audit (id, actor_tg_id, actor_role, domain, target_id, decision, reason, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		record.ID,
		record.ActorTgID,
		string(record.ActorRole),
		record.Domain,
		record.TargetID,
		record.Decision,
		nullableString(record.Reason),
		record.DurationMS,
		record.CreatedAt,
	)
	return err
}

func (r *AuditRepo) ListRecent(ctx context.Context, limit int) ([]model.AuditRecord, error) {
	if r.db == nil {
		return []model.AuditRecord{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, actor_tg_id, actor_role, domain, target_id, decision, COALESCE(reason, ''), duration_ms, created_at
		FROM bot_audit
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent audit: %w", err)
	}
	defer rows.Close()

	records := make([]model.AuditRecord, 0, limit)
	for rows.Next() {
		var record model.AuditRecord
		var role string
		if err := rows.Scan(
			&record.ID,
			&record.ActorTgID,
			&role,
			&record.Domain,
			&record.TargetID,
			&record.Decision,
			&record.Reason,
			&record.DurationMS,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		record.ActorRole = enums.Role(role)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit rows: %w", err)
	}

	return records, nil
}
