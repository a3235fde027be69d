package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	intconfig "bookbus/internal/config"
	"bookbus/internal/domain"
	"bookbus/internal/domain/models"
)

type OTPRepo struct {
	DB *sql.DB
}

func (r OTPRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r OTPRepo) Create(ctx context.Context, c models.OneTimeCode) (int64, error) {
	res, err := r.db().ExecContext(ctx, `
		INSERT INTO one_time_codes (email, purpose, code_hash, payload, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		strings.ToLower(c.Email), c.Purpose, c.CodeHash, c.Payload, c.ExpiresAt, c.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Latest returns the newest unverified code for email and purpose.
func (r OTPRepo) Latest(ctx context.Context, email, purpose string) (models.OneTimeCode, error) {
	var (
		c        models.OneTimeCode
		payload  sql.NullString
		verified sql.NullTime
	)
	err := r.db().QueryRowContext(ctx, `
		SELECT id, email, purpose, code_hash, payload, expires_at, verified_at, created_at
		FROM one_time_codes
		WHERE email = ? AND purpose = ? AND verified_at IS NULL
		ORDER BY id DESC
		LIMIT 1`, strings.ToLower(email), purpose).
		Scan(&c.ID, &c.Email, &c.Purpose, &c.CodeHash, &payload, &c.ExpiresAt, &verified, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.OneTimeCode{}, domain.NotFoundError{Resource: "verification code", Err: err}
	}
	if err != nil {
		return models.OneTimeCode{}, err
	}
	c.Payload = payload.String
	if verified.Valid {
		c.VerifiedAt = &verified.Time
	}
	return c, nil
}

// MarkVerified consumes a code. It fails with a conflict if another request got there first.
func (r OTPRepo) MarkVerified(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db().ExecContext(ctx,
		`UPDATE one_time_codes SET verified_at = ? WHERE id = ? AND verified_at IS NULL`, at, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ConflictError{Resource: "verification code", Msg: "already used"}
	}
	return nil
}
