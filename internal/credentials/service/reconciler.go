package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/fieldbank/internal/credentials/domain"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/identity"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/store"
)

// ReconcileReport summarises one pass.
type ReconcileReport struct {
	Scanned  int `json:"scanned"`
	Repaired int `json:"repaired"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// ReconcilerService promotes pending profiles whose identity has signed in
// since it was invited, which happens when acceptance went through a path
// that bypassed the invitation link. It never touches cancelled profiles
// and every write is conditional, so it can run alongside issuance and
// alongside other replicas.
type ReconcilerService struct {
	Store      store.Store
	Identities identity.Provider
	Logger     *slog.Logger
	Interval   time.Duration
	Now        func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewReconcilerService defaults the interval to 15 minutes.
func NewReconcilerService(s store.Store, ids identity.Provider, logger *slog.Logger, interval time.Duration) *ReconcilerService {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &ReconcilerService{
		Store:      s,
		Identities: ids,
		Logger:     logger,
		Interval:   interval,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

func (s *ReconcilerService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *ReconcilerService) Start() {
	go s.run()
	s.Logger.Info("reconciler started", "interval", s.Interval)
}

// Stop blocks until an in-progress pass finishes.
func (s *ReconcilerService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("reconciler stopped")
}

func (s *ReconcilerService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.ReconcileOnce(context.Background()); err != nil {
				s.Logger.Error("reconcile pass failed", "error", err)
			}
		case <-s.stopCh:
			return
		}
	}
}

// ReconcileOnce runs a single pass. Errors for individual profiles are
// counted, not returned.
func (s *ReconcilerService) ReconcileOnce(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	profiles, err := s.Store.Profiles().ListProfilesByStatus(ctx, domain.ProfilePending)
	if err != nil {
		return report, err
	}

	for _, p := range profiles {
		report.Scanned++

		repaired, err := s.reconcile(ctx, p)
		switch {
		case err != nil:
			report.Failed++
			s.Logger.Warn("failed to reconcile profile",
				slog.String("user_id", p.UserID),
				slog.String("scope_id", p.ScopeID),
				slog.Any("error", err),
			)
		case repaired:
			report.Repaired++
			s.Logger.Info("profile marked accepted",
				slog.String("user_id", p.UserID),
				slog.String("scope_id", p.ScopeID),
			)
		default:
			report.Skipped++
		}
	}

	s.Logger.Info("reconcile pass completed",
		slog.Int("scanned", report.Scanned),
		slog.Int("repaired", report.Repaired),
		slog.Int("failed", report.Failed),
	)
	return report, nil
}

func (s *ReconcilerService) reconcile(ctx context.Context, p domain.Profile) (bool, error) {
	ever, err := s.Identities.HasEverAuthenticated(ctx, p.UserID)
	if errors.Is(err, identity.ErrNotFound) {
		return false, nil
	}
	if err != nil || !ever {
		return false, err
	}

	// An identity that signed in before this invitation existed says
	// nothing about the invitation itself.
	ident, err := s.Identities.Get(ctx, p.UserID)
	if err != nil {
		return false, err
	}
	if ident.LastSignInAt == nil || ident.LastSignInAt.Before(p.InvitedAt) {
		return false, nil
	}

	// The links that would have produced this acceptance are spent along
	// with it, otherwise one could still overwrite the active credential.
	now := s.now()
	var repaired bool
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		moved, err := tx.Profiles().TransitionProfileStatus(ctx, p.UserID, p.ScopeID, domain.ProfilePending, domain.ProfileAccepted, now)
		if err != nil || !moved {
			return err
		}
		repaired = true

		pending, err := tx.Invitations().ListPendingInvitations(ctx, ident.Email, p.Role, p.ScopeID, domain.KindInvitation)
		if err != nil {
			return err
		}
		for _, inv := range pending {
			if inv.UserID != p.UserID {
				continue
			}
			if _, err := tx.Invitations().ClaimInvitation(ctx, inv.ID, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return repaired, nil
}
