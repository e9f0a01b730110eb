package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/fieldbank/internal/credentials/domain"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/identity"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/store"
	"github.com/aussiebroadwan/fieldbank/pkg/idx"
	"github.com/aussiebroadwan/fieldbank/pkg/slogx"
)

// BootstrapService creates the first administrator. Every later account
// comes in through an invitation.
type BootstrapService struct {
	Store      store.Store
	Identities identity.Provider
	Now        func() time.Time
}

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	n, err := s.Store.Profiles().CountProfilesByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// BootstrapAdmin creates an admin identity with password and an accepted
// admin profile. It refuses once any accepted admin exists.
func (s *BootstrapService) BootstrapAdmin(ctx context.Context, email, password string) (domain.Identity, error) {
	l := slogx.FromContext(ctx)

	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return domain.Identity{}, err
	}
	if err := validateCredential(password); err != nil {
		return domain.Identity{}, err
	}

	if done, err := s.IsBootstrapped(ctx); err != nil {
		return domain.Identity{}, err
	} else if done {
		l.Warn("attempted bootstrap with an existing administrator")
		return domain.Identity{}, ErrAlreadyBootstrapped
	}

	ident, err := s.Identities.LookupByEmail(ctx, email)
	created := false
	if errors.Is(err, identity.ErrNotFound) {
		ident, err = s.Identities.CreateIdentity(ctx, email)
		created = err == nil
	}
	if err != nil {
		return domain.Identity{}, &ProvisioningError{Err: err}
	}

	if err := s.Identities.SetCredential(ctx, ident.ID, password); err != nil {
		if created {
			_ = s.Identities.DeleteIdentity(context.WithoutCancel(ctx), ident.ID)
		}
		return domain.Identity{}, &ProvisioningError{Err: err}
	}

	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Profiles().UpsertPendingProfile(ctx, domain.Profile{
			ID:               idx.NewAt(now).String(),
			UserID:           ident.ID,
			Role:             domain.RoleAdmin,
			InvitationStatus: domain.ProfilePending,
			InvitedBy:        "bootstrap",
			InvitedAt:        now,
			UpdatedAt:        now,
		}); err != nil {
			return err
		}
		_, err := tx.Profiles().TransitionProfileStatus(ctx, ident.ID, "", domain.ProfilePending, domain.ProfileAccepted, now)
		return err
	})
	if err != nil {
		l.Error("failed to create admin profile", slog.Any("error", err))
		if created {
			_ = s.Identities.DeleteIdentity(context.WithoutCancel(ctx), ident.ID)
		}
		return domain.Identity{}, fmt.Errorf("create admin profile: %w", err)
	}

	l.Info("administrator bootstrapped", slog.String("user_id", ident.ID), slogx.Email(email))
	return ident, nil
}
