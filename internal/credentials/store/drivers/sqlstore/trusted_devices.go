package sqlstore

import (
	"context"
	"time"

	"github.com/aussiebroadwan/fieldbank/internal/credentials/domain"
)

type trustedDevicesRepo struct {
	q querier
}

func (r *trustedDevicesRepo) UpsertTrustedDevice(ctx context.Context, d domain.TrustedDevice) error {
	_, err := r.q.exec(ctx, `
		INSERT INTO trusted_devices (id, user_id, fingerprint_hash, granted_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, fingerprint_hash) DO UPDATE SET
			granted_at = excluded.granted_at,
			expires_at = excluded.expires_at`,
		d.ID, d.UserID, d.FingerprintHash, d.GrantedAt.UTC(), d.ExpiresAt.UTC(),
	)
	return err
}

func (r *trustedDevicesRepo) GetTrustedDevice(ctx context.Context, userID, fingerprintHash string) (domain.TrustedDevice, error) {
	var d domain.TrustedDevice
	err := r.q.queryRow(ctx, `
		SELECT id, user_id, fingerprint_hash, granted_at, expires_at
		FROM trusted_devices WHERE user_id = ? AND fingerprint_hash = ?`,
		userID, fingerprintHash,
	).Scan(&d.ID, &d.UserID, &d.FingerprintHash, &d.GrantedAt, &d.ExpiresAt)
	if err != nil {
		return domain.TrustedDevice{}, mapNotFound(err)
	}
	d.GrantedAt = d.GrantedAt.UTC()
	d.ExpiresAt = d.ExpiresAt.UTC()
	return d, nil
}

func (r *trustedDevicesRepo) DeleteTrustedDevicesForUser(ctx context.Context, userID string) (int64, error) {
	return r.q.count(ctx, `DELETE FROM trusted_devices WHERE user_id = ?`, userID)
}

func (r *trustedDevicesRepo) DeleteExpiredTrustedDevices(ctx context.Context, now time.Time) (int64, error) {
	return r.q.count(ctx, `DELETE FROM trusted_devices WHERE expires_at < ?`, now.UTC())
}
