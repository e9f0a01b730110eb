package domain

import "time"

// ProfileStatus mirrors the invitation that created the profile.
type ProfileStatus string

const (
	ProfilePending   ProfileStatus = "pending"
	ProfileAccepted  ProfileStatus = "accepted"
	ProfileCancelled ProfileStatus = "cancelled"
)

// Profile is the dashboard membership of a user within a scope. There is at
// most one per (UserID, ScopeID).
type Profile struct {
	ID               string
	UserID           string
	Role             Role
	ScopeID          string
	InvitationStatus ProfileStatus
	InvitedBy        string
	InvitedAt        time.Time
	AcceptedAt       *time.Time
	UpdatedAt        time.Time
}
