package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/fieldbank/internal/credentials/domain"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/mailer"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/ratelimit"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Scenario B.
func TestOTPResendSupersedesPreviousCode(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.mailOK()

	require.NoError(t, h.otp.Issue(ctx, "alice@co.com"))
	c1 := codeFrom(t, h.outbox.last(t))

	row, err := h.store.OTPCodes().GetOTPCode(ctx, "alice@co.com")
	require.NoError(t, err)
	require.WithinDuration(t, h.clock.Now().Add(domain.OTPTTL), row.ExpiresAt, 0)

	h.clock.Advance(time.Minute)
	require.NoError(t, h.otp.Issue(ctx, "alice@co.com"))
	c2 := codeFrom(t, h.outbox.last(t))
	if c1 == c2 {
		t.Skip("both codes came out identical, nothing to supersede")
	}

	err = h.otp.Verify(ctx, VerifyRequest{Email: "alice@co.com", Code: c1})
	require.ErrorIs(t, err, ErrAlreadyUsed)

	require.NoError(t, h.otp.Verify(ctx, VerifyRequest{Email: "alice@co.com", Code: c2}))

	err = h.otp.Verify(ctx, VerifyRequest{Email: "alice@co.com", Code: c2})
	require.ErrorIs(t, err, ErrAlreadyUsed)
}

func TestOTPIncorrectCodeSuggestsResend(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.mailOK()

	require.NoError(t, h.otp.Issue(ctx, "alice@co.com"))
	good := codeFrom(t, h.outbox.last(t))
	wrong := "000000"
	if good == wrong {
		wrong = "111111"
	}

	for attempt := 1; attempt <= 4; attempt++ {
		err := h.otp.Verify(ctx, VerifyRequest{Email: "alice@co.com", Code: wrong})
		require.ErrorIs(t, err, ErrIncorrectCode)

		var ice *IncorrectCodeError
		require.True(t, errors.As(err, &ice))
		require.Equal(t, attempt, ice.Attempts)
		require.Equal(t, attempt >= domain.OTPResendAfterAttempts, ice.ResendSuggested)
	}

	// No lockout: the right code still works.
	require.NoError(t, h.otp.Verify(ctx, VerifyRequest{Email: "alice@co.com", Code: good}))
}

func TestOTPExpiry(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.mailOK()

	require.NoError(t, h.otp.Issue(ctx, "alice@co.com"))
	code := codeFrom(t, h.outbox.last(t))

	h.clock.Advance(domain.OTPTTL + time.Second)
	err := h.otp.Verify(ctx, VerifyRequest{Email: "alice@co.com", Code: code})
	require.ErrorIs(t, err, ErrExpired)

	_, err = h.store.OTPCodes().GetOTPCode(ctx, "alice@co.com")
	require.NoError(t, err, "expired codes are kept, not deleted")
}

func TestOTPVerifyWithoutCode(t *testing.T) {
	h := newHarness(t)

	err := h.otp.Verify(context.Background(), VerifyRequest{Email: "nobody@co.com", Code: "123456"})
	require.ErrorIs(t, err, ErrNotFound)

	err = h.otp.Verify(context.Background(), VerifyRequest{Email: "nobody@co.com", Code: "12ab56"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestOTPDeliveryFailureKeepsCode(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	var sent string
	h.mail.On("Send", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = codeFrom(t, args.Get(1).(mailer.Message)) }).
		Return(errors.New("ses: Throttling"))

	err := h.otp.Issue(ctx, "alice@co.com")
	require.ErrorIs(t, err, ErrDelivery)
	require.NotErrorIs(t, err, ErrRateLimited)

	// The code that failed to go out is still the live one.
	require.NoError(t, h.otp.Verify(ctx, VerifyRequest{Email: "alice@co.com", Code: sent}))
}

func TestOTPRateLimits(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.mailOK()

	send, err := ratelimit.NewLocalLimiter(ratelimit.Policy{Window: time.Hour, Max: 5, Cooldown: time.Minute})
	require.NoError(t, err)
	verify, err := ratelimit.NewLocalLimiter(ratelimit.Policy{Window: time.Hour, Max: 2})
	require.NoError(t, err)
	h.otp.SendLimiter = send
	h.otp.VerifyLimiter = verify

	require.NoError(t, h.otp.Issue(ctx, "alice@co.com"))
	code := codeFrom(t, h.outbox.last(t))

	err = h.otp.Issue(ctx, "alice@co.com")
	require.ErrorIs(t, err, ErrRateLimited)
	var rle *RateLimitError
	require.True(t, errors.As(err, &rle))
	require.Positive(t, rle.RetryAfter)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	require.ErrorIs(t, h.otp.Verify(ctx, VerifyRequest{Email: "alice@co.com", Code: wrong}), ErrIncorrectCode)
	require.ErrorIs(t, h.otp.Verify(ctx, VerifyRequest{Email: "alice@co.com", Code: wrong}), ErrIncorrectCode)
	require.ErrorIs(t, h.otp.Verify(ctx, VerifyRequest{Email: "alice@co.com", Code: code}), ErrRateLimited)
}

// Scenario C.
func TestRememberDeviceGrantsTrust(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.mailOK()

	ident, err := h.ids.CreateIdentity(ctx, "alice@co.com")
	require.NoError(t, err)

	require.NoError(t, h.otp.Issue(ctx, "alice@co.com"))
	code := codeFrom(t, h.outbox.last(t))

	trusted, err := h.devices.IsTrusted(ctx, ident.ID, "fp-F")
	require.NoError(t, err)
	require.False(t, trusted)

	require.NoError(t, h.otp.Verify(ctx, VerifyRequest{
		Email:          "alice@co.com",
		Code:           code,
		RememberDevice: true,
		Fingerprint:    "fp-F",
		UserID:         ident.ID,
	}))

	dev, err := h.store.TrustedDevices().GetTrustedDevice(ctx, ident.ID, h.devices.hash("fp-F"))
	require.NoError(t, err)
	require.WithinDuration(t, h.clock.Now().Add(domain.TrustedDeviceTTL), dev.ExpiresAt, 0)
	require.NotEqual(t, "fp-F", dev.FingerprintHash)

	trusted, err = h.devices.IsTrusted(ctx, ident.ID, "fp-F")
	require.NoError(t, err)
	require.True(t, trusted)

	trusted, err = h.devices.IsTrusted(ctx, ident.ID, "fp-G")
	require.NoError(t, err)
	require.False(t, trusted)

	h.clock.Advance(domain.TrustedDeviceTTL)
	trusted, err = h.devices.IsTrusted(ctx, ident.ID, "fp-F")
	require.NoError(t, err)
	require.True(t, trusted, "still trusted at the expiry instant")

	h.clock.Advance(time.Second)
	trusted, err = h.devices.IsTrusted(ctx, ident.ID, "fp-F")
	require.NoError(t, err)
	require.False(t, trusted)
}

func TestFailedVerifyNeverGrantsTrust(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.mailOK()

	ident, err := h.ids.CreateIdentity(ctx, "alice@co.com")
	require.NoError(t, err)
	require.NoError(t, h.otp.Issue(ctx, "alice@co.com"))
	code := codeFrom(t, h.outbox.last(t))

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	err = h.otp.Verify(ctx, VerifyRequest{Email: "alice@co.com", Code: wrong, RememberDevice: true, Fingerprint: "fp", UserID: ident.ID})
	require.ErrorIs(t, err, ErrIncorrectCode)

	trusted, err := h.devices.IsTrusted(ctx, ident.ID, "fp")
	require.NoError(t, err)
	require.False(t, trusted)
}

func TestRevokeAllDevices(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	require.NoError(t, h.devices.grant(ctx, "user-1", "a"))
	require.NoError(t, h.devices.grant(ctx, "user-1", "b"))
	require.NoError(t, h.devices.grant(ctx, "user-2", "a"))

	n, err := h.devices.RevokeAll(ctx, "user-1")
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	trusted, err := h.devices.IsTrusted(ctx, "user-2", "a")
	require.NoError(t, err)
	require.True(t, trusted)
}

func TestVerifyWithAuthenticatorApp(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	ident, err := h.ids.CreateIdentity(ctx, "alice@co.com")
	require.NoError(t, err)

	auth := &AuthenticatorService{Identities: h.ids}
	err = h.otp.Verify(ctx, VerifyRequest{Email: "alice@co.com", Code: "123456", Method: MethodTOTP, UserID: ident.ID})
	require.ErrorIs(t, err, ErrTOTPNotEnrolled)

	enrollment, err := auth.Enroll(ctx, ident.ID)
	require.NoError(t, err)
	code, err := totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, auth.Confirm(ctx, ident.ID, code))

	_, err = auth.Enroll(ctx, ident.ID)
	require.ErrorIs(t, err, ErrTOTPAlreadyEnabled)

	code, err = totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, h.otp.Verify(ctx, VerifyRequest{Email: "alice@co.com", Code: code, Method: MethodTOTP, UserID: ident.ID}))

	err = h.otp.Verify(ctx, VerifyRequest{Email: "alice@co.com", Code: code, Method: MethodTOTP})
	require.ErrorIs(t, err, ErrValidation, "totp needs to know the user")
}
