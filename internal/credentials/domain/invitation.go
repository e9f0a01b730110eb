package domain

import "time"

// InvitationKind separates onboarding invitations from password resets.
// Both share the same token lifecycle.
type InvitationKind string

const (
	KindInvitation    InvitationKind = "invitation"
	KindPasswordReset InvitationKind = "password_reset"
)

// InvitationStatus only moves forward from pending. Every other value is terminal.
type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "pending"
	InvitationAccepted  InvitationStatus = "accepted"
	InvitationCancelled InvitationStatus = "cancelled"
	InvitationExpired   InvitationStatus = "expired"
)

// Validity windows.
const (
	InvitationTTL         = 5 * 24 * time.Hour
	PasswordResetTTL      = time.Hour
	AdminPasswordResetTTL = 24 * time.Hour
)

type Invitation struct {
	ID          string
	TokenHash   string // SHA-256 fingerprint of the bearer token
	TokenSealed []byte // AES-GCM sealed token, only opened to resend the same link
	Email       string
	Role        Role // empty for password resets
	ScopeID     string
	Kind        InvitationKind
	UserID      string
	InvitedBy   string
	Status      InvitationStatus

	ClicksCount   int
	LastClickedAt *time.Time
	CompletedAt   *time.Time
	DeliveredAt   *time.Time

	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PastExpiry reports whether now is beyond the validity window, regardless
// of the stored status.
func (i Invitation) PastExpiry(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// Live is true for a pending invitation that can still be accepted.
func (i Invitation) Live(now time.Time) bool {
	return i.Status == InvitationPending && !i.PastExpiry(now)
}

// InvitationFilter narrows List queries. Zero values mean "any".
type InvitationFilter struct {
	Email   string
	ScopeID string
	Kind    InvitationKind
	Status  InvitationStatus
	Limit   int
}
