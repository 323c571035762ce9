package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrTOTPSecretNotFound = errors.New("totp secret not found")

// TOTPRepo stores per-admin TOTP secrets, encrypted before they reach this
// layer.
type TOTPRepo struct {
	db *sql.DB
}

func NewTOTPRepo(db *sql.DB) *TOTPRepo {
	return &TOTPRepo{db: db}
}

func (r *TOTPRepo) Save(ctx context.Context, tgID int64, encryptedSecret string, enrolledAt time.Time) error {
	if r.db == nil {
		return nil
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bot_totp_secrets (tg_id, secret, enrolled_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (tg_id)
		DO UPDATE
		SET secret = EXCLUDED.secret,
			enrolled_at = EXCLUDED.enrolled_at
	`, tgID, encryptedSecret, enrolledAt)
	return err
}

func (r *TOTPRepo) Get(ctx context.Context, tgID int64) (string, error) {
	if r.db == nil {
		return "", ErrTOTPSecretNotFound
	}

	var secret string
	err := r.db.QueryRowContext(ctx, `
		SELECT secret
		FROM bot_totp_secrets
		WHERE tg_id = $1
	`, tgID).Scan(&secret)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrTOTPSecretNotFound
	}
	if err != nil {
		return "", err
	}

	return secret, nil
}

func (r *TOTPRepo) Delete(ctx context.Context, tgID int64) error {
	if r.db == nil {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM bot_totp_secrets WHERE tg_id = $1`, tgID)
	return err
}
