package credsdk

import "time"

// ============================================================================
// Errors
// ============================================================================

// ErrorResponse is the body of every non-2xx response. The optional fields
// are only set by the errors they belong to.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`

	// InvitationID names the invitation that blocked an issuance (409) or
	// the one whose email could not be delivered (502).
	InvitationID string `json:"invitation_id,omitempty"`

	// Attempts and ResendSuggested accompany incorrect_code.
	Attempts        int  `json:"attempts,omitempty"`
	ResendSuggested bool `json:"resend_suggested,omitempty"`

	// RetryAfter mirrors the Retry-After header on 429, in seconds.
	RetryAfter int `json:"retry_after,omitempty"`
}

// ============================================================================
// Invitations
// ============================================================================

// IssueInvitationRequest is the body of POST /v1/invitations.
type IssueInvitationRequest struct {
	Email   string `json:"email"`
	Role    string `json:"role"`
	ScopeID string `json:"scope_id,omitempty"`
}

// IssueInvitationResponse is returned with 201, and with 502 when the
// invitation was stored but the email failed.
type IssueInvitationResponse struct {
	InvitationID string    `json:"invitation_id"`
	ExpiresAt    time.Time `json:"expires_at"`

	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// TokenInfoResponse describes the invitation behind a link.
type TokenInfoResponse struct {
	Email       string    `json:"email"`
	Role        string    `json:"role,omitempty"`
	ScopeID     string    `json:"scope_id,omitempty"`
	Kind        string    `json:"kind"`
	Status      string    `json:"status"`
	ExpiresAt   time.Time `json:"expires_at"`
	ClicksCount int       `json:"clicks_count"`
}

// AcceptInvitationRequest sets the credential for the invited identity.
type AcceptInvitationRequest struct {
	Credential string `json:"credential"`
}

type AcceptInvitationResponse struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	Kind    string `json:"kind"`
	Role    string `json:"role,omitempty"`
	ScopeID string `json:"scope_id,omitempty"`
}

// Invitation is one row of the admin listing.
type Invitation struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Role          string     `json:"role,omitempty"`
	ScopeID       string     `json:"scope_id,omitempty"`
	Kind          string     `json:"kind"`
	Status        string     `json:"status"`
	InvitedBy     string     `json:"invited_by,omitempty"`
	ClicksCount   int        `json:"clicks_count"`
	LastClickedAt *time.Time `json:"last_clicked_at,omitempty"`
	DeliveredAt   *time.Time `json:"delivered_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	ExpiresAt     time.Time  `json:"expires_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

type ListInvitationsResponse struct {
	Invitations []Invitation `json:"invitations"`
}

// ListInvitationsFilter maps to the query string of GET /v1/admin/invitations.
type ListInvitationsFilter struct {
	Email   string
	ScopeID string
	Kind    string
	Status  string
	Limit   int
}

// ============================================================================
// Password resets
// ============================================================================

type PasswordResetRequest struct {
	Email string `json:"email"`
}

// ============================================================================
// Sign-in
// ============================================================================

type LoginRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// TokenResponse is returned once sign-in is complete.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	UserID      string `json:"user_id"`
	Role        string `json:"role"`
	ScopeID     string `json:"scope_id,omitempty"`
}

// ChallengeResponse is returned with 202 when a second factor is required.
type ChallengeResponse struct {
	ChallengeToken string    `json:"challenge_token"`
	Methods        []string  `json:"methods"`
	ExpiresAt      time.Time `json:"expires_at"`
}

type SendOTPRequest struct {
	Email string `json:"email"`
}

type SendOTPResponse struct {
	ExpiresIn int `json:"expires_in"`
}

// VerifyOTPRequest checks a code. With ChallengeToken set it completes a
// sign-in and the response is a TokenResponse.
type VerifyOTPRequest struct {
	Email          string `json:"email,omitempty"`
	Code           string `json:"code"`
	Method         string `json:"method,omitempty"`
	RememberDevice bool   `json:"remember_device,omitempty"`
	Fingerprint    string `json:"fingerprint,omitempty"`
	ChallengeToken string `json:"challenge_token,omitempty"`
}

type VerifyOTPResponse struct {
	Verified bool `json:"verified"`
}

// ============================================================================
// Authenticator app
// ============================================================================

type TOTPEnrollResponse struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauth_url"`
}

type TOTPConfirmRequest struct {
	Code string `json:"code"`
}

// ============================================================================
// Operations
// ============================================================================

type ReconcileResponse struct {
	Scanned  int `json:"scanned"`
	Repaired int `json:"repaired"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// HealthChecks reports the state of each dependency on /readyz.
type HealthChecks struct {
	Database    string `json:"database"`
	RateLimiter string `json:"rate_limiter,omitempty"`
}

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}
