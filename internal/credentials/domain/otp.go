package domain

import "time"

const (
	OTPDigits = 6
	OTPTTL    = 5 * time.Minute

	// OTPResendAfterAttempts is when an incorrect-code response starts
	// suggesting a fresh code.
	OTPResendAfterAttempts = 3
)

// OTPCode is the single live code for an email. Issuing a new one replaces
// the row and moves the old hash to SupersededHash.
type OTPCode struct {
	Email          string
	CodeHash       string
	SupersededHash string
	Attempts       int
	Consumed       bool
	CreatedAt      time.Time
	ExpiresAt      time.Time
}
