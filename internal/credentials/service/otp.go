package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/fieldbank/internal/credentials/domain"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/identity"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/mailer"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/ratelimit"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/store"
	"github.com/aussiebroadwan/fieldbank/pkg/cryptox"
	"github.com/aussiebroadwan/fieldbank/pkg/slogx"
)

// Second factor methods accepted by Verify.
const (
	MethodEmailOTP = "email_otp"
	MethodTOTP     = "totp"
)

type OTPService struct {
	Store      store.Store
	Identities identity.Provider
	Devices    *DeviceTrustService
	Mailer     mailer.Dispatcher
	Renderer   *mailer.Renderer

	SendLimiter   ratelimit.Limiter
	VerifyLimiter ratelimit.Limiter

	// CodeKey is the HMAC key codes are stored under.
	CodeKey []byte
	Now     func() time.Time
}

func (s *OTPService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// hash binds the code to the email so equal codes for different people
// don't share a hash.
func (s *OTPService) hash(email, code string) string {
	return cryptox.KeyedFingerprint(s.CodeKey, email+"\x00"+code)
}

// Issue sends a fresh code, replacing any earlier one for the email. On
// DeliveryError the stored code is still valid.
func (s *OTPService) Issue(ctx context.Context, email string) error {
	log := slogx.FromContext(ctx)

	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}
	if s.SendLimiter != nil {
		if err := limitErr(s.SendLimiter.Allow(ctx, email)); err != nil {
			log.Warn("otp send rate limited", slogx.Email(email))
			return err
		}
	}

	code, err := cryptox.GenerateNumericCode(domain.OTPDigits)
	if err != nil {
		return err
	}

	now := s.now()
	err = s.Store.OTPCodes().UpsertOTPCode(ctx, domain.OTPCode{
		Email:     email,
		CodeHash:  s.hash(email, code),
		CreatedAt: now,
		ExpiresAt: now.Add(domain.OTPTTL),
	})
	if err != nil {
		log.Error("failed to store otp code", slog.Any("error", err))
		return fmt.Errorf("store otp code: %w", err)
	}

	msg, err := s.Renderer.Render(mailer.TemplateOTP, email, mailer.CodeData{Code: code, ValidFor: domain.OTPTTL})
	if err != nil {
		return &DeliveryError{Err: err}
	}
	if err := s.Mailer.Send(ctx, msg); err != nil {
		log.Error("failed to send otp code", slogx.Email(email), slog.Any("error", err))
		return &DeliveryError{Err: err}
	}

	log.Info("otp code sent", slogx.Email(email))
	return nil
}

type VerifyRequest struct {
	Email  string `validate:"required,email,max=254"`
	Code   string `validate:"required,len=6,numeric"`
	Method string `validate:"omitempty,oneof=email_otp totp"`

	RememberDevice bool
	Fingerprint    string `validate:"max=512"`

	// UserID is the identity the code is checked for. Required for TOTP and
	// for remembering the device.
	UserID string
}

// Verify checks a code. A consumed or superseded code reports
// ErrAlreadyUsed, a stale one ErrExpired and a wrong one
// IncorrectCodeError. Device trust is granted only here, after success.
func (s *OTPService) Verify(ctx context.Context, req VerifyRequest) error {
	log := slogx.FromContext(ctx)

	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return err
	}
	if s.VerifyLimiter != nil {
		if err := limitErr(s.VerifyLimiter.Allow(ctx, req.Email)); err != nil {
			log.Warn("otp verify rate limited", slogx.Email(req.Email))
			return err
		}
	}

	var err error
	if req.Method == MethodTOTP {
		err = s.verifyTOTP(ctx, req)
	} else {
		err = s.verifyEmailCode(ctx, req)
	}
	if err != nil {
		return err
	}

	if s.VerifyLimiter != nil {
		if err := s.VerifyLimiter.Reset(ctx, req.Email); err != nil {
			log.Warn("failed to reset verify limiter", slog.Any("error", err))
		}
	}

	if req.RememberDevice && req.Fingerprint != "" {
		s.rememberDevice(ctx, req)
	}
	return nil
}

// rememberDevice grants trust after a successful verify. Failures are logged
// only; the code was correct either way.
func (s *OTPService) rememberDevice(ctx context.Context, req VerifyRequest) {
	log := slogx.FromContext(ctx)

	userID := req.UserID
	if userID == "" {
		ident, err := s.Identities.LookupByEmail(ctx, req.Email)
		if err != nil {
			log.Warn("no identity to trust device for", slogx.Email(req.Email), slog.Any("error", err))
			return
		}
		userID = ident.ID
	}

	if err := s.Devices.grant(ctx, userID, req.Fingerprint); err != nil {
		log.Error("failed to trust device", slog.String("user_id", userID), slog.Any("error", err))
	}
}

func (s *OTPService) verifyEmailCode(ctx context.Context, req VerifyRequest) error {
	row, err := s.Store.OTPCodes().GetOTPCode(ctx, req.Email)
	if errors.Is(err, store.ErrNotFound) {
		return statusError("verification code", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get otp code: %w", err)
	}

	h := s.hash(req.Email, req.Code)
	matches := cryptox.EqualFingerprints(h, row.CodeHash)

	switch {
	case matches && row.Consumed:
		return statusError("verification code", ErrAlreadyUsed)
	case row.SupersededHash != "" && cryptox.EqualFingerprints(h, row.SupersededHash):
		return statusError("verification code", ErrAlreadyUsed)
	case s.now().After(row.ExpiresAt):
		return statusError("verification code", ErrExpired)
	}

	if !matches {
		attempts, err := s.Store.OTPCodes().IncrementOTPAttempts(ctx, req.Email)
		if err != nil {
			return fmt.Errorf("increment otp attempts: %w", err)
		}
		slogx.FromContext(ctx).Info("incorrect otp code", slogx.Email(req.Email), slog.Int("attempts", attempts))
		return &IncorrectCodeError{
			Attempts:        attempts,
			ResendSuggested: attempts >= domain.OTPResendAfterAttempts,
		}
	}

	won, err := s.Store.OTPCodes().ConsumeOTPCode(ctx, req.Email, h)
	if err != nil {
		return fmt.Errorf("consume otp code: %w", err)
	}
	if !won {
		return statusError("verification code", ErrAlreadyUsed)
	}
	return nil
}

func (s *OTPService) verifyTOTP(ctx context.Context, req VerifyRequest) error {
	if req.UserID == "" {
		return &ValidationError{Field: "method", Reason: "authenticator codes need a sign-in challenge"}
	}

	err := s.Identities.ValidateTOTP(ctx, req.UserID, req.Code)
	switch {
	case errors.Is(err, identity.ErrInvalidTOTPCode):
		return &IncorrectCodeError{}
	case errors.Is(err, identity.ErrTOTPNotEnrolled):
		return ErrTOTPNotEnrolled
	case errors.Is(err, identity.ErrNotFound):
		return statusError("account", ErrNotFound)
	case err != nil:
		return fmt.Errorf("validate totp: %w", err)
	}
	return nil
}
