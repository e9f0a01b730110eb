package sqlstore

import (
	"context"
	"time"

	"github.com/aussiebroadwan/fieldbank/internal/credentials/domain"
)

type otpCodesRepo struct {
	q querier
}

func (r *otpCodesRepo) UpsertOTPCode(ctx context.Context, c domain.OTPCode) error {
	_, err := r.q.exec(ctx, `
		INSERT INTO otp_codes (email, code_hash, superseded_hash, attempts, consumed, created_at, expires_at)
		VALUES (?, ?, '', 0, FALSE, ?, ?)
		ON CONFLICT (email) DO UPDATE SET
			superseded_hash = otp_codes.code_hash,
			code_hash = excluded.code_hash,
			attempts = 0,
			consumed = FALSE,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at`,
		c.Email, c.CodeHash, c.CreatedAt.UTC(), c.ExpiresAt.UTC(),
	)
	return err
}

func (r *otpCodesRepo) GetOTPCode(ctx context.Context, email string) (domain.OTPCode, error) {
	var c domain.OTPCode
	err := r.q.queryRow(ctx, `
		SELECT email, code_hash, superseded_hash, attempts, consumed, created_at, expires_at
		FROM otp_codes WHERE email = ?`, email,
	).Scan(&c.Email, &c.CodeHash, &c.SupersededHash, &c.Attempts, &c.Consumed, &c.CreatedAt, &c.ExpiresAt)
	if err != nil {
		return domain.OTPCode{}, mapNotFound(err)
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.ExpiresAt = c.ExpiresAt.UTC()
	return c, nil
}

func (r *otpCodesRepo) IncrementOTPAttempts(ctx context.Context, email string) (int, error) {
	var attempts int
	err := r.q.queryRow(ctx,
		`UPDATE otp_codes SET attempts = attempts + 1 WHERE email = ? RETURNING attempts`, email,
	).Scan(&attempts)
	if err != nil {
		return 0, mapNotFound(err)
	}
	return attempts, nil
}

func (r *otpCodesRepo) ConsumeOTPCode(ctx context.Context, email, codeHash string) (bool, error) {
	return r.q.affected(ctx, `
		UPDATE otp_codes SET consumed = TRUE
		WHERE email = ? AND code_hash = ? AND consumed = FALSE`,
		email, codeHash,
	)
}

func (r *otpCodesRepo) DeleteExpiredOTPCodes(ctx context.Context, before time.Time) (int64, error) {
	return r.q.count(ctx, `DELETE FROM otp_codes WHERE expires_at < ?`, before.UTC())
}
