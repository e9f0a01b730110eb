package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultAccessTokenTTL is the lifetime of a session token issued after a
	// successful sign-in.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultChallengeTTL bounds how long a caller has to answer an OTP
	// challenge after the password step.
	DefaultChallengeTTL = 10 * time.Minute
)

// Token purposes. A challenge token must never be accepted where an access
// token is expected.
const (
	PurposeAccess       = "access"
	PurposeOTPChallenge = "otp_challenge"
)

// Claims carried by every token the service mints.
type Claims struct {
	jwt.RegisteredClaims

	// Purpose is one of the Purpose* constants.
	Purpose string `json:"purpose"`

	Email   string `json:"email,omitempty"`
	Role    string `json:"role,omitempty"`
	ScopeID string `json:"scope_id,omitempty"`

	// Authentication Methods Reference ["pwd","otp","device"]
	AMR []string `json:"amr,omitempty"`
}

// NewClaims builds minimally-correct claims for subject.
func NewClaims(subject, purpose, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Purpose: purpose,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidatePurpose checks the token was minted for the expected step.
func (c *Claims) ValidatePurpose(expected string) error {
	if c.Purpose != expected {
		return ErrPurpose
	}
	return nil
}

// ValidateExpiryWithLeeway checks exp and nbf allowing for clock skew.
func (c *Claims) ValidateExpiryWithLeeway(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}

	return nil
}
