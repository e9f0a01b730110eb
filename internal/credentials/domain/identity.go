package domain

import "time"

type Identity struct {
	ID            string // UUID
	Email         string
	PasswordHash  string // argon2 encoded
	ConfirmedAt   *time.Time
	LastSignInAt  *time.Time
	TOTPSecret    string // base32, empty until enrolment starts
	TOTPEnabledAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasEverAuthenticated is true once the identity has signed in at least once.
func (i Identity) HasEverAuthenticated() bool {
	return i.LastSignInAt != nil
}

func (i Identity) TOTPEnabled() bool {
	return i.TOTPEnabledAt != nil && i.TOTPSecret != ""
}
