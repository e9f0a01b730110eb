package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/fieldbank/internal/credentials/domain"
)

// Error kinds. Match with errors.Is; the typed errors below carry detail
// and report the matching kind from their Is method.
var (
	ErrValidation     = errors.New("invalid request")
	ErrConflict       = errors.New("an active invitation already exists")
	ErrNotFound       = errors.New("not found")
	ErrExpired        = errors.New("expired")
	ErrAlreadyUsed    = errors.New("already used")
	ErrCancelled      = errors.New("cancelled")
	ErrDelivery       = errors.New("email delivery failed")
	ErrProvisioning   = errors.New("identity provisioning failed")
	ErrRateLimited    = errors.New("too many requests")
	ErrIncorrectCode  = errors.New("incorrect code")
	ErrUnavailable    = errors.New("temporarily unavailable")
	ErrNoActiveAccess = errors.New("no active dashboard profile")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidChallenge   = errors.New("sign-in challenge is invalid or has expired")

	ErrAlreadyBootstrapped = errors.New("an administrator already exists")
	ErrTOTPNotEnrolled     = errors.New("authenticator app is not enrolled")
	ErrTOTPAlreadyEnabled  = errors.New("authenticator app is already enabled")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConflictError names the record that blocks a new issuance.
type ConflictError struct {
	InvitationID string
	Status       string
	IssuedAt     time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("an invitation for this email and role is already %s (issued %s)",
		e.Status, e.IssuedAt.UTC().Format(time.RFC3339))
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// DeliveryError means the record was persisted and is still valid but the
// email did not go out. Invitation is set when one was issued, so the
// caller can re-trigger delivery.
type DeliveryError struct {
	Invitation *domain.Invitation
	Err        error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s: %v", ErrDelivery, e.Err)
}

func (e *DeliveryError) Unwrap() error        { return e.Err }
func (e *DeliveryError) Is(target error) bool { return target == ErrDelivery }

// ProvisioningError means nothing was persisted. Safe to retry.
type ProvisioningError struct {
	Err error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("%s: %v", ErrProvisioning, e.Err)
}

func (e *ProvisioningError) Unwrap() error        { return e.Err }
func (e *ProvisioningError) Is(target error) bool { return target == ErrProvisioning }

type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many requests, try again in %s", e.RetryAfter.Round(time.Second))
}

func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimited }

// IncorrectCodeError is soft guidance: there is no lockout, but after a few
// misses the caller should offer to send a new code.
type IncorrectCodeError struct {
	Attempts        int
	ResendSuggested bool
}

func (e *IncorrectCodeError) Error() string {
	if e.ResendSuggested {
		return "incorrect code, request a new code if you no longer have the latest one"
	}
	return "incorrect code"
}

func (e *IncorrectCodeError) Is(target error) bool { return target == ErrIncorrectCode }

// statusError describes a terminal classification of a link or code.
func statusError(subject string, kind error) error {
	return fmt.Errorf("%s %w", subject, kind)
}

func subjectFor(kind domain.InvitationKind) string {
	if kind == domain.KindPasswordReset {
		return "password reset link"
	}
	return "invitation"
}
