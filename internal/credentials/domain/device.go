package domain

import "time"

const TrustedDeviceTTL = 30 * 24 * time.Hour

type TrustedDevice struct {
	ID              string
	UserID          string
	FingerprintHash string
	GrantedAt       time.Time
	ExpiresAt       time.Time
}
