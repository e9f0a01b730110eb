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
	"github.com/aussiebroadwan/fieldbank/pkg/jwtx"
	"github.com/aussiebroadwan/fieldbank/pkg/slogx"
)

// LoginService runs the password step and decides whether the device can
// skip the second factor.
type LoginService struct {
	Store      store.Store
	Identities identity.Provider
	Devices    *DeviceTrustService
	OTP        *OTPService

	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	Issuer   string

	AccessTTL    time.Duration
	ChallengeTTL time.Duration
	Now          func() time.Time
}

func (s *LoginService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// LoginResult holds either an access token or, when a second factor is
// required, a challenge token to present with the code.
type LoginResult struct {
	UserID string
	Email  string

	AccessToken string
	Role        domain.Role
	ScopeID     string

	ChallengeToken string
	Methods        []string

	ExpiresAt time.Time
}

func (r LoginResult) ChallengeRequired() bool { return r.ChallengeToken != "" }

func (s *LoginService) Login(ctx context.Context, email, password, fingerprint string) (LoginResult, error) {
	log := slogx.FromContext(ctx)

	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return LoginResult{}, err
	}

	ident, err := s.Identities.Authenticate(ctx, email, password)
	if errors.Is(err, identity.ErrInvalidCredentials) {
		log.Info("failed sign-in", slogx.Email(email))
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("authenticate: %w", err)
	}

	trusted, err := s.Devices.IsTrusted(ctx, ident.ID, fingerprint)
	if err != nil {
		log.Warn("device trust lookup failed, requiring second factor", slog.Any("error", err))
		trusted = false
	}
	if trusted {
		log.Info("sign-in from trusted device", slog.String("user_id", ident.ID))
		if err := s.recordSignIn(ctx, ident.ID); err != nil {
			return LoginResult{}, err
		}
		return s.issueAccess(ctx, ident, []string{"pwd", "device"})
	}

	if err := s.OTP.Issue(ctx, email); err != nil {
		return LoginResult{}, err
	}

	now := s.now()
	claims := jwtx.NewClaims(ident.ID, jwtx.PurposeOTPChallenge, s.Issuer, s.challengeTTL(), now)
	claims.Email = ident.Email
	challenge, err := s.Signer.Sign(claims)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign challenge: %w", err)
	}

	methods := []string{MethodEmailOTP}
	if ident.TOTPEnabled() {
		methods = append(methods, MethodTOTP)
	}

	log.Info("second factor required", slog.String("user_id", ident.ID))
	return LoginResult{
		UserID:         ident.ID,
		Email:          ident.Email,
		ChallengeToken: challenge,
		Methods:        methods,
		ExpiresAt:      claims.ExpiresAt.Time,
	}, nil
}

type ChallengeResponse struct {
	ChallengeToken string
	Code           string
	Method         string
	RememberDevice bool
	Fingerprint    string
}

// CompleteChallenge verifies the second factor for a challenge minted by
// Login and returns the access token.
func (s *LoginService) CompleteChallenge(ctx context.Context, resp ChallengeResponse) (LoginResult, error) {
	claims, err := s.Verifier.Verify(resp.ChallengeToken)
	if err != nil {
		return LoginResult{}, ErrInvalidChallenge
	}
	if err := claims.ValidatePurpose(jwtx.PurposeOTPChallenge); err != nil {
		return LoginResult{}, ErrInvalidChallenge
	}

	err = s.OTP.Verify(ctx, VerifyRequest{
		Email:          claims.Email,
		Code:           resp.Code,
		Method:         resp.Method,
		RememberDevice: resp.RememberDevice,
		Fingerprint:    resp.Fingerprint,
		UserID:         claims.Subject,
	})
	if err != nil {
		return LoginResult{}, err
	}

	ident, err := s.Identities.Get(ctx, claims.Subject)
	if errors.Is(err, identity.ErrNotFound) {
		return LoginResult{}, ErrInvalidChallenge
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("get identity: %w", err)
	}
	if err := s.recordSignIn(ctx, ident.ID); err != nil {
		return LoginResult{}, err
	}

	amr := []string{"pwd", "otp"}
	if resp.Method == MethodTOTP {
		amr = []string{"pwd", "totp"}
	}
	return s.issueAccess(ctx, ident, amr)
}

// recordSignIn runs once every factor has passed, before the profile check,
// so the reconciler also sees sign-ins that end in no_active_access.
func (s *LoginService) recordSignIn(ctx context.Context, userID string) error {
	if err := s.Identities.RecordSignIn(ctx, userID); err != nil {
		return fmt.Errorf("record sign-in: %w", err)
	}
	return nil
}

// issueAccess signs an access token carrying the user's highest ranked
// accepted profile.
func (s *LoginService) issueAccess(ctx context.Context, ident domain.Identity, amr []string) (LoginResult, error) {
	profiles, err := s.Store.Profiles().ListProfilesForUser(ctx, ident.ID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("list profiles: %w", err)
	}

	var best *domain.Profile
	for i := range profiles {
		p := &profiles[i]
		if p.InvitationStatus != domain.ProfileAccepted {
			continue
		}
		if best == nil || p.Role.Rank() > best.Role.Rank() {
			best = p
		}
	}
	if best == nil {
		slogx.FromContext(ctx).Warn("sign-in without an accepted profile", slog.String("user_id", ident.ID))
		return LoginResult{}, ErrNoActiveAccess
	}

	claims := jwtx.NewClaims(ident.ID, jwtx.PurposeAccess, s.Issuer, s.accessTTL(), s.now())
	claims.Email = ident.Email
	claims.Role = string(best.Role)
	claims.ScopeID = best.ScopeID
	claims.AMR = amr

	token, err := s.Signer.Sign(claims)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign access token: %w", err)
	}

	return LoginResult{
		UserID:      ident.ID,
		Email:       ident.Email,
		AccessToken: token,
		Role:        best.Role,
		ScopeID:     best.ScopeID,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

func (s *LoginService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (s *LoginService) challengeTTL() time.Duration {
	if s.ChallengeTTL > 0 {
		return s.ChallengeTTL
	}
	return jwtx.DefaultChallengeTTL
}
