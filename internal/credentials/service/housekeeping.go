package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/fieldbank/internal/credentials/store"
)

// otpRetention keeps spent and stale codes around for a day so a late
// verify still gets "expired" or "already used" instead of "not found".
const otpRetention = 24 * time.Hour

// HousekeepingService periodically expires stale invitations and drops dead
// OTP codes and device grants. Expiry is also applied lazily on read, so
// nothing depends on this running.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration
	Now      func() time.Time

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop() to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until the worker has finished any in-progress sweep.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Sweep once on startup
	s.Sweep(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// SweepReport counts what one sweep changed.
type SweepReport struct {
	ExpiredInvitations int64 `json:"expired_invitations"`
	DeletedOTPCodes    int64 `json:"deleted_otp_codes"`
	DeletedDevices     int64 `json:"deleted_devices"`
}

// Sweep runs each cleanup independently; a failure in one doesn't stop the
// others.
func (s *HousekeepingService) Sweep(ctx context.Context) SweepReport {
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}

	var report SweepReport
	var err error

	if report.ExpiredInvitations, err = s.Store.Invitations().ExpireStaleInvitations(ctx, now); err != nil {
		s.Logger.Error("failed to expire stale invitations", "error", err)
	}
	if report.DeletedOTPCodes, err = s.Store.OTPCodes().DeleteExpiredOTPCodes(ctx, now.Add(-otpRetention)); err != nil {
		s.Logger.Error("failed to delete expired otp codes", "error", err)
	}
	if report.DeletedDevices, err = s.Store.TrustedDevices().DeleteExpiredTrustedDevices(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired trusted devices", "error", err)
	}

	s.Logger.Info("housekeeping sweep completed",
		"expired_invitations", report.ExpiredInvitations,
		"deleted_otp_codes", report.DeletedOTPCodes,
		"deleted_trusted_devices", report.DeletedDevices,
	)
	return report
}
