package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/fieldbank/internal/credentials/domain"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/store"
)

const identityColumns = `id, email, password_hash, confirmed_at, last_sign_in_at, totp_secret, totp_enabled_at, created_at, updated_at`

type identitiesRepo struct {
	q querier
}

func scanIdentity(row scanner) (domain.Identity, error) {
	var (
		id                              domain.Identity
		confirmed, signedIn, totpEnable sql.NullTime
	)
	err := row.Scan(&id.ID, &id.Email, &id.PasswordHash, &confirmed, &signedIn, &id.TOTPSecret, &totpEnable, &id.CreatedAt, &id.UpdatedAt)
	if err != nil {
		return domain.Identity{}, mapNotFound(err)
	}
	id.ConfirmedAt = mapNullTimePtr(confirmed)
	id.LastSignInAt = mapNullTimePtr(signedIn)
	id.TOTPEnabledAt = mapNullTimePtr(totpEnable)
	id.CreatedAt = id.CreatedAt.UTC()
	id.UpdatedAt = id.UpdatedAt.UTC()
	return id, nil
}

func (r *identitiesRepo) CreateIdentity(ctx context.Context, id domain.Identity) error {
	_, err := r.q.exec(ctx, `
		INSERT INTO identities (`+identityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.ID, id.Email, id.PasswordHash,
		mapOptionalTime(id.ConfirmedAt), mapOptionalTime(id.LastSignInAt),
		id.TOTPSecret, mapOptionalTime(id.TOTPEnabledAt),
		id.CreatedAt.UTC(), id.UpdatedAt.UTC(),
	)
	return r.q.mapUnique(err)
}

func (r *identitiesRepo) GetIdentityByID(ctx context.Context, id string) (domain.Identity, error) {
	return scanIdentity(r.q.queryRow(ctx, `SELECT `+identityColumns+` FROM identities WHERE id = ?`, id))
}

func (r *identitiesRepo) GetIdentityByEmail(ctx context.Context, email string) (domain.Identity, error) {
	return scanIdentity(r.q.queryRow(ctx, `SELECT `+identityColumns+` FROM identities WHERE email = ?`, email))
}

func (r *identitiesRepo) DeleteIdentity(ctx context.Context, id string) error {
	return r.mustAffect(ctx, `DELETE FROM identities WHERE id = ?`, id)
}

func (r *identitiesRepo) DeleteUnreferencedIdentity(ctx context.Context, id string) (bool, error) {
	return r.q.affected(ctx, `
		DELETE FROM identities
		WHERE id = ? AND NOT EXISTS (SELECT 1 FROM profiles WHERE user_id = ?)`,
		id, id)
}

func (r *identitiesRepo) UpdatePasswordHash(ctx context.Context, id, hash string, at time.Time) error {
	return r.mustAffect(ctx, `UPDATE identities SET password_hash = ?, updated_at = ? WHERE id = ?`, hash, at.UTC(), id)
}

func (r *identitiesRepo) MarkConfirmed(ctx context.Context, id string, at time.Time) error {
	return r.mustAffect(ctx, `
		UPDATE identities SET confirmed_at = COALESCE(confirmed_at, ?), updated_at = ? WHERE id = ?`,
		at.UTC(), at.UTC(), id)
}

func (r *identitiesRepo) RecordSignIn(ctx context.Context, id string, at time.Time) error {
	return r.mustAffect(ctx, `UPDATE identities SET last_sign_in_at = ?, updated_at = ? WHERE id = ?`, at.UTC(), at.UTC(), id)
}

func (r *identitiesRepo) UpdateTOTPSecret(ctx context.Context, id, secret string, at time.Time) error {
	return r.mustAffect(ctx, `
		UPDATE identities SET totp_secret = ?, totp_enabled_at = NULL, updated_at = ? WHERE id = ?`,
		secret, at.UTC(), id)
}

func (r *identitiesRepo) EnableTOTP(ctx context.Context, id string, at time.Time) error {
	return r.mustAffect(ctx, `
		UPDATE identities SET totp_enabled_at = ?, updated_at = ? WHERE id = ? AND totp_secret <> ''`,
		at.UTC(), at.UTC(), id)
}

func (r *identitiesRepo) mustAffect(ctx context.Context, query string, args ...any) error {
	ok, err := r.q.affected(ctx, query, args...)
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrNotFound
	}
	return nil
}
