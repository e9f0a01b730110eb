package app

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/fieldbank/pkg/cryptox"
	"github.com/aussiebroadwan/fieldbank/pkg/jwtx"
)

// MinSigningKeyBytes is the shortest SIGNING_KEY accepted.
const MinSigningKeyBytes = 32

// tokenLeeway absorbs clock skew between replicas.
const tokenLeeway = 30 * time.Second

// Keys holds everything derived from SIGNING_KEY.
type Keys struct {
	Signer   *jwtx.HS256Signer
	Verifier *jwtx.HS256Verifier

	// DeviceKey and CodeKey are HMAC keys for stored device fingerprints and
	// OTP codes, derived so one secret rotates them all.
	DeviceKey []byte
	CodeKey   []byte
}

// InitKeys configures the secret material used by the service: the password
// pepper, the master key that seals stored tokens and the HMAC key for
// access and challenge tokens.
//
// Outside dev SIGNING_KEY is required. In dev a random key is generated,
// which means every restart signs everyone out.
func InitKeys(cfg Config, logger *slog.Logger) (Keys, error) {
	cryptox.SetPepperPath(cfg.PepperFile)
	if cfg.MasterKeyPath != "" {
		cryptox.SetMasterKeyPath(cfg.MasterKeyPath)
		logger.Info("master key path configured", "path", cfg.MasterKeyPath)
	}

	key := []byte(cfg.SigningKey)
	switch {
	case len(key) == 0 && cfg.Env == "dev":
		key = make([]byte, MinSigningKeyBytes)
		if _, err := rand.Read(key); err != nil {
			return Keys{}, fmt.Errorf("generate signing key: %w", err)
		}
		logger.Warn("SIGNING_KEY not set, using an ephemeral key")
	case len(key) == 0:
		return Keys{}, errors.New("SIGNING_KEY is required")
	case len(key) < MinSigningKeyBytes:
		return Keys{}, fmt.Errorf("SIGNING_KEY must be at least %d bytes", MinSigningKeyBytes)
	}

	signer, err := jwtx.NewSignerHS256(key)
	if err != nil {
		return Keys{}, err
	}

	logger.Info("token keys initialised", "issuer", cfg.Issuer)
	return Keys{
		Signer:    signer,
		Verifier:  jwtx.NewVerifierHS256(key, cfg.Issuer, tokenLeeway),
		DeviceKey: []byte(cryptox.KeyedFingerprint(key, "device-trust")),
		CodeKey:   []byte(cryptox.KeyedFingerprint(key, "otp-code")),
	}, nil
}
