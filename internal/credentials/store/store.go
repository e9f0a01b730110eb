package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/fieldbank/internal/credentials/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. Sub-repositories hang off it so a Tx can hand out the same
// repos bound to the transaction, and so nested transactions are impossible
// to write by accident.
type Store interface {
	Invitations() Invitations
	Profiles() Profiles
	Identities() Identities
	OTPCodes() OTPCodes
	TrustedDevices() TrustedDevices

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	//
	// Don't touch the outer Store from inside fn. SQLite runs with a single
	// connection and will deadlock.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Invitations interface {
	// CreateInvitation returns ErrAlreadyExists when another pending record
	// exists for the same (email, role, scope, kind).
	CreateInvitation(ctx context.Context, inv domain.Invitation) error

	GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error)
	GetInvitationByTokenHash(ctx context.Context, hash string) (domain.Invitation, error)

	// ListPendingInvitations returns pending rows for the tuple, including
	// those already past their expiry.
	ListPendingInvitations(ctx context.Context, email string, role domain.Role, scopeID string, kind domain.InvitationKind) ([]domain.Invitation, error)

	// ListInvitations returns newest first.
	ListInvitations(ctx context.Context, f domain.InvitationFilter) ([]domain.Invitation, error)

	RecordInvitationClick(ctx context.Context, id string, at time.Time) error
	MarkInvitationDelivered(ctx context.Context, id string, at time.Time) error

	// ClaimInvitation flips pending to accepted if the record is still
	// within its window. It reports whether this caller won.
	ClaimInvitation(ctx context.Context, id string, now time.Time) (bool, error)

	// RevertInvitationClaim undoes a claim whose follow-up step failed.
	RevertInvitationClaim(ctx context.Context, id string, at time.Time) error

	// CancelInvitation and ExpireInvitation are conditional on pending.
	CancelInvitation(ctx context.Context, id string, at time.Time) (bool, error)
	ExpireInvitation(ctx context.Context, id string, at time.Time) (bool, error)

	// ExpireStaleInvitations marks every pending row past expiry as expired.
	ExpireStaleInvitations(ctx context.Context, now time.Time) (int64, error)

	// DeleteInvitation refuses accepted rows and reports whether a row went.
	DeleteInvitation(ctx context.Context, id string) (bool, error)
}

type Profiles interface {
	// UpsertPendingProfile creates the (user, scope) profile or resets an
	// existing one to pending with the new role and inviter.
	UpsertPendingProfile(ctx context.Context, p domain.Profile) error

	GetProfile(ctx context.Context, userID, scopeID string) (domain.Profile, error)
	ListProfilesByStatus(ctx context.Context, status domain.ProfileStatus) ([]domain.Profile, error)
	ListProfilesForUser(ctx context.Context, userID string) ([]domain.Profile, error)

	// TransitionProfileStatus moves from -> to and reports whether a row
	// matched. Moving to accepted stamps accepted_at.
	TransitionProfileStatus(ctx context.Context, userID, scopeID string, from, to domain.ProfileStatus, at time.Time) (bool, error)

	// CountProfilesByRole counts accepted profiles with role.
	CountProfilesByRole(ctx context.Context, role domain.Role) (int64, error)
}

type Identities interface {
	// CreateIdentity returns ErrAlreadyExists on a duplicate email.
	CreateIdentity(ctx context.Context, id domain.Identity) error
	GetIdentityByID(ctx context.Context, id string) (domain.Identity, error)
	GetIdentityByEmail(ctx context.Context, email string) (domain.Identity, error)
	DeleteIdentity(ctx context.Context, id string) error

	// DeleteUnreferencedIdentity deletes the identity only while no profile
	// points at it, in a single statement. It reports whether a row went.
	DeleteUnreferencedIdentity(ctx context.Context, id string) (bool, error)

	UpdatePasswordHash(ctx context.Context, id, hash string, at time.Time) error
	MarkConfirmed(ctx context.Context, id string, at time.Time) error
	RecordSignIn(ctx context.Context, id string, at time.Time) error

	UpdateTOTPSecret(ctx context.Context, id, secret string, at time.Time) error
	EnableTOTP(ctx context.Context, id string, at time.Time) error
}

type OTPCodes interface {
	// UpsertOTPCode replaces the live code for the email. The previous hash
	// is kept as superseded_hash and the attempt counter resets.
	UpsertOTPCode(ctx context.Context, c domain.OTPCode) error
	GetOTPCode(ctx context.Context, email string) (domain.OTPCode, error)

	// IncrementOTPAttempts returns the new attempt count.
	IncrementOTPAttempts(ctx context.Context, email string) (int, error)

	// ConsumeOTPCode marks the code consumed if it is still unconsumed and
	// the hash is the live one. It reports whether this caller won.
	ConsumeOTPCode(ctx context.Context, email, codeHash string) (bool, error)

	DeleteExpiredOTPCodes(ctx context.Context, before time.Time) (int64, error)
}

type TrustedDevices interface {
	// UpsertTrustedDevice refreshes the window on an existing grant.
	UpsertTrustedDevice(ctx context.Context, d domain.TrustedDevice) error
	GetTrustedDevice(ctx context.Context, userID, fingerprintHash string) (domain.TrustedDevice, error)
	DeleteTrustedDevicesForUser(ctx context.Context, userID string) (int64, error)
	DeleteExpiredTrustedDevices(ctx context.Context, now time.Time) (int64, error)
}
