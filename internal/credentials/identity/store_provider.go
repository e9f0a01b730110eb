package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/fieldbank/internal/credentials/domain"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/store"
	"github.com/aussiebroadwan/fieldbank/pkg/cryptox"
	"github.com/aussiebroadwan/fieldbank/pkg/slogx"
	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// StoreProvider keeps identities in the credential store itself.
type StoreProvider struct {
	Store  store.Store
	Issuer string // shown by authenticator apps
	Now    func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewStoreProvider(s store.Store, issuer string) *StoreProvider {
	return &StoreProvider{Store: s, Issuer: issuer, Now: time.Now}
}

func (p *StoreProvider) now() time.Time {
	if p.Now == nil {
		return time.Now().UTC()
	}
	return p.Now().UTC()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrAlreadyExists):
		return ErrAlreadyExists
	}
	return err
}

func (p *StoreProvider) LookupByEmail(ctx context.Context, email string) (domain.Identity, error) {
	id, err := p.Store.Identities().GetIdentityByEmail(ctx, normalizeEmail(email))
	return id, mapStoreErr(err)
}

func (p *StoreProvider) Get(ctx context.Context, id string) (domain.Identity, error) {
	ident, err := p.Store.Identities().GetIdentityByID(ctx, id)
	return ident, mapStoreErr(err)
}

func (p *StoreProvider) CreateIdentity(ctx context.Context, email string) (domain.Identity, error) {
	placeholder, err := cryptox.UnusableCredential()
	if err != nil {
		return domain.Identity{}, err
	}
	hash, err := cryptox.HashPassword(placeholder)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("hash placeholder credential: %w", err)
	}

	now := p.now()
	ident := domain.Identity{
		ID:           uuid.NewString(),
		Email:        normalizeEmail(email),
		PasswordHash: hash,
		ConfirmedAt:  &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := p.Store.Identities().CreateIdentity(ctx, ident); err != nil {
		return domain.Identity{}, mapStoreErr(err)
	}

	slogx.FromContext(ctx).Info("identity provisioned",
		slog.String("user_id", ident.ID),
		slogx.Email(ident.Email),
	)
	return ident, nil
}

func (p *StoreProvider) DeleteIdentity(ctx context.Context, id string) error {
	return mapStoreErr(p.Store.Identities().DeleteIdentity(ctx, id))
}

func (p *StoreProvider) DeleteUnreferencedIdentity(ctx context.Context, id string) (bool, error) {
	gone, err := p.Store.Identities().DeleteUnreferencedIdentity(ctx, id)
	return gone, mapStoreErr(err)
}

func (p *StoreProvider) SetCredential(ctx context.Context, id, credential string) error {
	hash, err := cryptox.HashPassword(credential)
	if err != nil {
		return fmt.Errorf("hash credential: %w", err)
	}
	return mapStoreErr(p.Store.Identities().UpdatePasswordHash(ctx, id, hash, p.now()))
}

func (p *StoreProvider) Confirm(ctx context.Context, id string) error {
	return mapStoreErr(p.Store.Identities().MarkConfirmed(ctx, id, p.now()))
}

func (p *StoreProvider) Authenticate(ctx context.Context, email, password string) (domain.Identity, error) {
	ident, err := p.LookupByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		// Burn the same argon2 work so unknown emails aren't distinguishable
		// by response time.
		_ = cryptox.VerifyPassword(password, p.dummy())
		return domain.Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.Identity{}, err
	}

	if err := cryptox.VerifyPassword(password, ident.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return domain.Identity{}, ErrInvalidCredentials
		}
		return domain.Identity{}, err
	}

	return ident, nil
}

func (p *StoreProvider) RecordSignIn(ctx context.Context, id string) error {
	return mapStoreErr(p.Store.Identities().RecordSignIn(ctx, id, p.now()))
}

func (p *StoreProvider) dummy() string {
	p.dummyOnce.Do(func() {
		p.dummyHash, _ = cryptox.HashPassword("placeholder-for-timing")
	})
	return p.dummyHash
}

func (p *StoreProvider) HasEverAuthenticated(ctx context.Context, id string) (bool, error) {
	ident, err := p.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return ident.HasEverAuthenticated(), nil
}

func (p *StoreProvider) StartTOTPEnrollment(ctx context.Context, id string) (string, string, error) {
	ident, err := p.Get(ctx, id)
	if err != nil {
		return "", "", err
	}
	if ident.TOTPEnabled() {
		return "", "", ErrTOTPAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      p.Issuer,
		AccountName: ident.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", "", fmt.Errorf("generate TOTP key: %w", err)
	}

	if err := p.Store.Identities().UpdateTOTPSecret(ctx, id, key.Secret(), p.now()); err != nil {
		return "", "", mapStoreErr(err)
	}
	return key.Secret(), key.URL(), nil
}

func (p *StoreProvider) EnableTOTP(ctx context.Context, id, code string) error {
	ident, err := p.Get(ctx, id)
	if err != nil {
		return err
	}
	if ident.TOTPSecret == "" {
		return ErrTOTPNotEnrolled
	}
	if ident.TOTPEnabled() {
		return ErrTOTPAlreadyEnabled
	}
	if !totp.Validate(code, ident.TOTPSecret) {
		return ErrInvalidTOTPCode
	}
	return mapStoreErr(p.Store.Identities().EnableTOTP(ctx, id, p.now()))
}

func (p *StoreProvider) ValidateTOTP(ctx context.Context, id, code string) error {
	ident, err := p.Get(ctx, id)
	if err != nil {
		return err
	}
	if !ident.TOTPEnabled() {
		return ErrTOTPNotEnrolled
	}
	if !totp.Validate(code, ident.TOTPSecret) {
		return ErrInvalidTOTPCode
	}
	return nil
}
