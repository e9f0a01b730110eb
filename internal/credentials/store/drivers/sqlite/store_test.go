package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/fieldbank/internal/credentials/domain"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/store"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/store/drivers/sqlite"
	"github.com/aussiebroadwan/fieldbank/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func pendingInvitation(email string, role domain.Role, scope string) domain.Invitation {
	id := idx.New().String()
	return domain.Invitation{
		ID:          id,
		TokenHash:   "hash-" + id,
		TokenSealed: []byte("sealed"),
		Email:       email,
		Role:        role,
		ScopeID:     scope,
		Kind:        domain.KindInvitation,
		UserID:      "user-1",
		InvitedBy:   "admin-1",
		Status:      domain.InvitationPending,
		ExpiresAt:   t0.Add(domain.InvitationTTL),
		CreatedAt:   t0,
		UpdatedAt:   t0,
	}
}

func TestInvitationRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	inv := pendingInvitation("jane@bank.example", domain.RoleBankViewer, "bank-1")
	require.NoError(t, s.Invitations().CreateInvitation(ctx, inv))

	got, err := s.Invitations().GetInvitationByTokenHash(ctx, inv.TokenHash)
	require.NoError(t, err)
	require.Equal(t, inv.ID, got.ID)
	require.Equal(t, domain.RoleBankViewer, got.Role)
	require.Equal(t, "bank-1", got.ScopeID)
	require.Equal(t, []byte("sealed"), got.TokenSealed)
	require.True(t, inv.ExpiresAt.Equal(got.ExpiresAt))
	require.Nil(t, got.CompletedAt)

	_, err = s.Invitations().GetInvitationByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestOnlyOnePendingInvitationPerTuple(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	first := pendingInvitation("jane@bank.example", domain.RoleSpecialist, "bank-1")
	require.NoError(t, s.Invitations().CreateInvitation(ctx, first))

	dup := pendingInvitation("jane@bank.example", domain.RoleSpecialist, "bank-1")
	require.ErrorIs(t, s.Invitations().CreateInvitation(ctx, dup), store.ErrAlreadyExists)

	// A different scope is a different tuple.
	other := pendingInvitation("jane@bank.example", domain.RoleSpecialist, "bank-2")
	require.NoError(t, s.Invitations().CreateInvitation(ctx, other))

	// Once the first leaves pending, the tuple is free again.
	ok, err := s.Invitations().CancelInvitation(ctx, first.ID, t0)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, s.Invitations().CreateInvitation(ctx, dup))
}

func TestClaimInvitationIsExactlyOnce(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	inv := pendingInvitation("jane@bank.example", domain.RoleAdmin, "")
	require.NoError(t, s.Invitations().CreateInvitation(ctx, inv))

	now := t0.Add(time.Hour)
	won, err := s.Invitations().ClaimInvitation(ctx, inv.ID, now)
	require.NoError(t, err)
	require.True(t, won)

	won, err = s.Invitations().ClaimInvitation(ctx, inv.ID, now)
	require.NoError(t, err)
	require.False(t, won, "second claim must lose")

	got, err := s.Invitations().GetInvitationByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, domain.InvitationAccepted, got.Status)
	require.NotNil(t, got.CompletedAt)

	// Accepted rows can't be cancelled or deleted.
	ok, err := s.Invitations().CancelInvitation(ctx, inv.ID, now)
	require.NoError(t, err)
	require.False(t, ok)
	ok, err = s.Invitations().DeleteInvitation(ctx, inv.ID)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Invitations().RevertInvitationClaim(ctx, inv.ID, now))
	got, err = s.Invitations().GetInvitationByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, domain.InvitationPending, got.Status)
	require.Nil(t, got.CompletedAt)
}

func TestClaimRespectsExpiryBoundary(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	inv := pendingInvitation("jane@bank.example", domain.RoleAdmin, "")
	require.NoError(t, s.Invitations().CreateInvitation(ctx, inv))

	won, err := s.Invitations().ClaimInvitation(ctx, inv.ID, inv.ExpiresAt.Add(time.Millisecond))
	require.NoError(t, err)
	require.False(t, won, "claim after expiry must fail")

	won, err = s.Invitations().ClaimInvitation(ctx, inv.ID, inv.ExpiresAt)
	require.NoError(t, err)
	require.True(t, won, "claim at the expiry instant is still valid")
}

func TestExpireInvitations(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	stale := pendingInvitation("a@bank.example", domain.RoleAdmin, "")
	fresh := pendingInvitation("b@bank.example", domain.RoleAdmin, "")
	fresh.ExpiresAt = t0.Add(30 * domain.InvitationTTL)
	require.NoError(t, s.Invitations().CreateInvitation(ctx, stale))
	require.NoError(t, s.Invitations().CreateInvitation(ctx, fresh))

	later := t0.Add(domain.InvitationTTL + time.Minute)

	ok, err := s.Invitations().ExpireInvitation(ctx, fresh.ID, later)
	require.NoError(t, err)
	require.False(t, ok, "an unexpired row must not be expired")

	n, err := s.Invitations().ExpireStaleInvitations(ctx, later)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	ok, err = s.Invitations().ExpireInvitation(ctx, stale.ID, later)
	require.NoError(t, err)
	require.False(t, ok, "expiring twice is a no-op")

	pending, err := s.Invitations().ListInvitations(ctx, domain.InvitationFilter{Status: domain.InvitationPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, fresh.ID, pending[0].ID)
}

func TestRecordClickAndDelivery(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	inv := pendingInvitation("jane@bank.example", domain.RoleAdmin, "")
	require.NoError(t, s.Invitations().CreateInvitation(ctx, inv))

	require.NoError(t, s.Invitations().RecordInvitationClick(ctx, inv.ID, t0.Add(time.Minute)))
	require.NoError(t, s.Invitations().RecordInvitationClick(ctx, inv.ID, t0.Add(2*time.Minute)))
	require.NoError(t, s.Invitations().MarkInvitationDelivered(ctx, inv.ID, t0))

	got, err := s.Invitations().GetInvitationByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.ClicksCount)
	require.NotNil(t, got.LastClickedAt)
	require.True(t, got.LastClickedAt.Equal(t0.Add(2*time.Minute)))
	require.NotNil(t, got.DeliveredAt)
}

func TestProfileUpsertAndTransition(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	p := domain.Profile{
		ID: idx.New().String(), UserID: "user-1", Role: domain.RoleBankViewer, ScopeID: "bank-1",
		InvitedBy: "admin-1", InvitedAt: t0, UpdatedAt: t0,
	}
	require.NoError(t, s.Profiles().UpsertPendingProfile(ctx, p))

	ok, err := s.Profiles().TransitionProfileStatus(ctx, "user-1", "bank-1", domain.ProfilePending, domain.ProfileAccepted, t0)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Profiles().TransitionProfileStatus(ctx, "user-1", "bank-1", domain.ProfilePending, domain.ProfileCancelled, t0)
	require.NoError(t, err)
	require.False(t, ok, "accepted profile must not match a pending transition")

	got, err := s.Profiles().GetProfile(ctx, "user-1", "bank-1")
	require.NoError(t, err)
	require.Equal(t, domain.ProfileAccepted, got.InvitationStatus)
	require.NotNil(t, got.AcceptedAt)

	n, err := s.Profiles().CountProfilesByRole(ctx, domain.RoleBankViewer)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	// Re-inviting resets to pending under the same row.
	p.ID = idx.New().String()
	p.Role = domain.RoleSpecialist
	require.NoError(t, s.Profiles().UpsertPendingProfile(ctx, p))

	got, err = s.Profiles().GetProfile(ctx, "user-1", "bank-1")
	require.NoError(t, err)
	require.Equal(t, domain.ProfilePending, got.InvitationStatus)
	require.Equal(t, domain.RoleSpecialist, got.Role)
	require.Nil(t, got.AcceptedAt)

	all, err := s.Profiles().ListProfilesForUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestIdentities(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	id := domain.Identity{ID: "6f1c7a9e-0000-4000-8000-000000000001", Email: "jane@bank.example", PasswordHash: "x", CreatedAt: t0, UpdatedAt: t0}
	require.NoError(t, s.Identities().CreateIdentity(ctx, id))

	dup := id
	dup.ID = "6f1c7a9e-0000-4000-8000-000000000002"
	require.ErrorIs(t, s.Identities().CreateIdentity(ctx, dup), store.ErrAlreadyExists)

	require.NoError(t, s.Identities().RecordSignIn(ctx, id.ID, t0))
	require.NoError(t, s.Identities().MarkConfirmed(ctx, id.ID, t0))
	require.NoError(t, s.Identities().MarkConfirmed(ctx, id.ID, t0.Add(time.Hour)))

	got, err := s.Identities().GetIdentityByEmail(ctx, "jane@bank.example")
	require.NoError(t, err)
	require.True(t, got.HasEverAuthenticated())
	require.True(t, got.ConfirmedAt.Equal(t0), "confirmation keeps the first timestamp")

	require.ErrorIs(t, s.Identities().EnableTOTP(ctx, id.ID, t0), store.ErrNotFound, "no secret yet")
	require.NoError(t, s.Identities().UpdateTOTPSecret(ctx, id.ID, "JBSWY3DPEHPK3PXP", t0))
	require.NoError(t, s.Identities().EnableTOTP(ctx, id.ID, t0))

	require.NoError(t, s.Identities().DeleteIdentity(ctx, id.ID))
	require.ErrorIs(t, s.Identities().DeleteIdentity(ctx, id.ID), store.ErrNotFound)
}

func TestDeleteUnreferencedIdentity(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	id := domain.Identity{ID: "6f1c7a9e-0000-4000-8000-000000000003", Email: "kim@bank.example", PasswordHash: "x", CreatedAt: t0, UpdatedAt: t0}
	require.NoError(t, s.Identities().CreateIdentity(ctx, id))
	require.NoError(t, s.Profiles().UpsertPendingProfile(ctx, domain.Profile{
		ID: idx.New().String(), UserID: id.ID, Role: domain.RoleBankViewer, ScopeID: "bank-1",
		InvitedBy: "admin-1", InvitedAt: t0, UpdatedAt: t0,
	}))

	gone, err := s.Identities().DeleteUnreferencedIdentity(ctx, id.ID)
	require.NoError(t, err)
	require.False(t, gone, "a profile still points at the identity")

	_, err = s.Identities().GetIdentityByEmail(ctx, "kim@bank.example")
	require.NoError(t, err)

	orphan := domain.Identity{ID: "6f1c7a9e-0000-4000-8000-000000000004", Email: "lee@bank.example", PasswordHash: "x", CreatedAt: t0, UpdatedAt: t0}
	require.NoError(t, s.Identities().CreateIdentity(ctx, orphan))

	gone, err = s.Identities().DeleteUnreferencedIdentity(ctx, orphan.ID)
	require.NoError(t, err)
	require.True(t, gone)

	_, err = s.Identities().GetIdentityByEmail(ctx, "lee@bank.example")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestOTPCodeSupersedeAndConsume(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	repo := s.OTPCodes()

	require.NoError(t, repo.UpsertOTPCode(ctx, domain.OTPCode{Email: "jane@bank.example", CodeHash: "first", CreatedAt: t0, ExpiresAt: t0.Add(domain.OTPTTL)}))

	n, err := repo.IncrementOTPAttempts(ctx, "jane@bank.example")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.NoError(t, repo.UpsertOTPCode(ctx, domain.OTPCode{Email: "jane@bank.example", CodeHash: "second", CreatedAt: t0, ExpiresAt: t0.Add(domain.OTPTTL)}))

	got, err := repo.GetOTPCode(ctx, "jane@bank.example")
	require.NoError(t, err)
	require.Equal(t, "second", got.CodeHash)
	require.Equal(t, "first", got.SupersededHash)
	require.Zero(t, got.Attempts)
	require.False(t, got.Consumed)

	ok, err := repo.ConsumeOTPCode(ctx, "jane@bank.example", "first")
	require.NoError(t, err)
	require.False(t, ok, "superseded code must not consume")

	ok, err = repo.ConsumeOTPCode(ctx, "jane@bank.example", "second")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.ConsumeOTPCode(ctx, "jane@bank.example", "second")
	require.NoError(t, err)
	require.False(t, ok, "second consume must lose")

	_, err = repo.IncrementOTPAttempts(ctx, "nobody@bank.example")
	require.ErrorIs(t, err, store.ErrNotFound)

	deleted, err := repo.DeleteExpiredOTPCodes(ctx, t0.Add(time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)
}

func TestTrustedDevices(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	repo := s.TrustedDevices()

	d := domain.TrustedDevice{ID: idx.New().String(), UserID: "user-1", FingerprintHash: "fp", GrantedAt: t0, ExpiresAt: t0.Add(domain.TrustedDeviceTTL)}
	require.NoError(t, repo.UpsertTrustedDevice(ctx, d))

	d.ID = idx.New().String()
	d.GrantedAt = t0.Add(24 * time.Hour)
	d.ExpiresAt = d.GrantedAt.Add(domain.TrustedDeviceTTL)
	require.NoError(t, repo.UpsertTrustedDevice(ctx, d))

	got, err := repo.GetTrustedDevice(ctx, "user-1", "fp")
	require.NoError(t, err)
	require.True(t, got.ExpiresAt.Equal(d.ExpiresAt), "re-grant refreshes the window")

	n, err := repo.DeleteExpiredTrustedDevices(ctx, d.ExpiresAt.Add(time.Second))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	inv := pendingInvitation("jane@bank.example", domain.RoleAdmin, "")
	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Invitations().CreateInvitation(ctx, inv); err != nil {
			return err
		}
		// Nested transactions are refused.
		require.Error(t, tx.WithTx(ctx, func(store.Tx) error { return nil }))
		return store.ErrAlreadyExists
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	_, err = s.Invitations().GetInvitationByID(ctx, inv.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}
