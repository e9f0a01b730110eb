package service

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/fieldbank/internal/credentials/identity"
)

// AuthenticatorService manages an optional TOTP app as an alternative to
// emailed codes.
type AuthenticatorService struct {
	Identities identity.Provider
}

type Enrollment struct {
	Secret string
	URL    string
}

func (s *AuthenticatorService) Enroll(ctx context.Context, userID string) (Enrollment, error) {
	secret, url, err := s.Identities.StartTOTPEnrollment(ctx, userID)
	if err != nil {
		return Enrollment{}, mapIdentityErr(err)
	}
	return Enrollment{Secret: secret, URL: url}, nil
}

func (s *AuthenticatorService) Confirm(ctx context.Context, userID, code string) error {
	if err := validate.Var(code, "required,len=6,numeric"); err != nil {
		return &ValidationError{Field: "code", Reason: "must be 6 digits"}
	}
	return mapIdentityErr(s.Identities.EnableTOTP(ctx, userID, code))
}

func mapIdentityErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, identity.ErrNotFound):
		return statusError("account", ErrNotFound)
	case errors.Is(err, identity.ErrTOTPAlreadyEnabled):
		return ErrTOTPAlreadyEnabled
	case errors.Is(err, identity.ErrTOTPNotEnrolled):
		return ErrTOTPNotEnrolled
	case errors.Is(err, identity.ErrInvalidTOTPCode):
		return &IncorrectCodeError{}
	}
	return err
}
