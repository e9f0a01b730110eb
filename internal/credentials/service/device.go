package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/fieldbank/internal/credentials/domain"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/store"
	"github.com/aussiebroadwan/fieldbank/pkg/cryptox"
	"github.com/aussiebroadwan/fieldbank/pkg/idx"
	"github.com/aussiebroadwan/fieldbank/pkg/slogx"
)

// DeviceTrustService remembers devices that passed a second factor so the
// next sign-in from them can skip it. Grants are only created by OTPService
// after a successful verification.
type DeviceTrustService struct {
	Store store.Store

	// Key is the HMAC key for fingerprints. Raw fingerprints are never
	// stored.
	Key []byte
	Now func() time.Time
}

func (s *DeviceTrustService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *DeviceTrustService) hash(fingerprint string) string {
	return cryptox.KeyedFingerprint(s.Key, fingerprint)
}

// grant is unexported on purpose: the only caller is a verification that
// just succeeded in the same request.
func (s *DeviceTrustService) grant(ctx context.Context, userID, fingerprint string) error {
	if userID == "" || fingerprint == "" {
		return &ValidationError{Field: "fingerprint", Reason: "is required to remember a device"}
	}

	now := s.now()
	err := s.Store.TrustedDevices().UpsertTrustedDevice(ctx, domain.TrustedDevice{
		ID:              idx.NewAt(now).String(),
		UserID:          userID,
		FingerprintHash: s.hash(fingerprint),
		GrantedAt:       now,
		ExpiresAt:       now.Add(domain.TrustedDeviceTTL),
	})
	if err != nil {
		return fmt.Errorf("upsert trusted device: %w", err)
	}

	slogx.FromContext(ctx).Info("device trusted", slog.String("user_id", userID))
	return nil
}

// IsTrusted reports whether a live grant exists for this user and device.
func (s *DeviceTrustService) IsTrusted(ctx context.Context, userID, fingerprint string) (bool, error) {
	if userID == "" || fingerprint == "" {
		return false, nil
	}

	d, err := s.Store.TrustedDevices().GetTrustedDevice(ctx, userID, s.hash(fingerprint))
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get trusted device: %w", err)
	}
	return !s.now().After(d.ExpiresAt), nil
}

// RevokeAll forgets every device of the user.
func (s *DeviceTrustService) RevokeAll(ctx context.Context, userID string) (int64, error) {
	n, err := s.Store.TrustedDevices().DeleteTrustedDevicesForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("delete trusted devices: %w", err)
	}
	slogx.FromContext(ctx).Info("trusted devices revoked", slog.String("user_id", userID), slog.Int64("count", n))
	return n, nil
}
