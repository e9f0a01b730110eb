// Package identity provisions and authenticates the user identities that
// invitations and one-time codes are issued against.
package identity

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/fieldbank/internal/credentials/domain"
)

var (
	ErrNotFound           = errors.New("identity: not found")
	ErrAlreadyExists      = errors.New("identity: already exists")
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
	ErrTOTPNotEnrolled    = errors.New("identity: authenticator not enrolled")
	ErrTOTPAlreadyEnabled = errors.New("identity: authenticator already enabled")
	ErrInvalidTOTPCode    = errors.New("identity: invalid authenticator code")
)

// Provider is the identity backend the credential services talk to.
type Provider interface {
	LookupByEmail(ctx context.Context, email string) (domain.Identity, error)
	Get(ctx context.Context, id string) (domain.Identity, error)

	// CreateIdentity provisions a pre-confirmed identity holding an
	// unrecoverable placeholder credential. Returns ErrAlreadyExists if the
	// email is taken.
	CreateIdentity(ctx context.Context, email string) (domain.Identity, error)
	DeleteIdentity(ctx context.Context, id string) error

	// DeleteUnreferencedIdentity deletes the identity unless a profile has
	// been created for it. The check and the delete are atomic. Reports
	// whether the identity was removed.
	DeleteUnreferencedIdentity(ctx context.Context, id string) (bool, error)

	SetCredential(ctx context.Context, id, credential string) error
	Confirm(ctx context.Context, id string) error

	// Authenticate checks the password only. A password alone is not a
	// completed sign-in, see RecordSignIn.
	Authenticate(ctx context.Context, email, password string) (domain.Identity, error)

	// RecordSignIn stamps a sign-in that passed every required factor.
	RecordSignIn(ctx context.Context, id string) error
	HasEverAuthenticated(ctx context.Context, id string) (bool, error)

	// StartTOTPEnrollment stores a fresh secret and returns it with its
	// otpauth:// URL. The authenticator is not active until EnableTOTP.
	StartTOTPEnrollment(ctx context.Context, id string) (secret, url string, err error)
	EnableTOTP(ctx context.Context, id, code string) error
	ValidateTOTP(ctx context.Context, id, code string) error
}
