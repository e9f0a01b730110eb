package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/aussiebroadwan/fieldbank/internal/credentials/domain"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/identity"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/mailer"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/ratelimit"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/store"
	"github.com/aussiebroadwan/fieldbank/pkg/cryptox"
	"github.com/aussiebroadwan/fieldbank/pkg/idx"
	"github.com/aussiebroadwan/fieldbank/pkg/slogx"
)

// Paths on the dashboard that consume the tokens.
const (
	AcceptInvitationPath = "/accept-invitation"
	ResetPasswordPath    = "/reset-password"
)

type InvitationService struct {
	Store      store.Store
	Identities identity.Provider
	Mailer     mailer.Dispatcher
	Renderer   *mailer.Renderer

	// AppBaseURL is the dashboard origin the activation links point at.
	AppBaseURL string

	// ResetLimiter throttles self-service password reset requests. Nil
	// means unlimited.
	ResetLimiter ratelimit.Limiter

	Now func() time.Time
}

func (s *InvitationService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

type IssueRequest struct {
	Email     string      `validate:"required,email,max=254"`
	Role      domain.Role `validate:"required,oneof=admin bank_viewer specialist"`
	ScopeID   string      `validate:"max=64"`
	InvitedBy string      `validate:"max=254"`
}

// TokenInfo is what a link click reveals about its invitation.
type TokenInfo struct {
	InvitationID string
	Email        string
	Role         domain.Role
	ScopeID      string
	Kind         domain.InvitationKind
	Status       domain.InvitationStatus
	ExpiresAt    time.Time
	ClicksCount  int
}

type AcceptResult struct {
	UserID  string
	Email   string
	Kind    domain.InvitationKind
	Role    domain.Role
	ScopeID string
}

// Issue provisions the identity if needed, persists a pending invitation
// with its profile and emails the activation link.
//
// On DeliveryError the invitation exists and is still valid.
func (s *InvitationService) Issue(ctx context.Context, req IssueRequest) (domain.Invitation, error) {
	log := slogx.FromContext(ctx)

	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return domain.Invitation{}, err
	}
	if err := req.Role.CheckScope(req.ScopeID); err != nil {
		return domain.Invitation{}, &ValidationError{Field: "scope_id", Reason: err.Error()}
	}

	ident, created, err := s.ensureIdentity(ctx, req.Email)
	if err != nil {
		log.Error("failed to provision identity", slogx.Email(req.Email), slog.Any("error", err))
		return domain.Invitation{}, &ProvisioningError{Err: err}
	}

	inv, token, err := s.persistInvitation(ctx, req, ident.ID)
	if err != nil {
		if created {
			s.compensate(ctx, ident.ID)
		}
		return domain.Invitation{}, err
	}

	log.Info("invitation issued",
		slog.String("invitation_id", inv.ID),
		slogx.Email(inv.Email),
		slog.String("role", string(inv.Role)),
		slog.String("scope_id", inv.ScopeID),
		slog.Bool("new_identity", created),
	)

	if err := s.deliver(ctx, &inv, token); err != nil {
		return inv, err
	}
	return inv, nil
}

// ensureIdentity reports whether the identity was created by this call. Only
// those are removed again if a later step fails.
func (s *InvitationService) ensureIdentity(ctx context.Context, email string) (domain.Identity, bool, error) {
	ident, err := s.Identities.LookupByEmail(ctx, email)
	if err == nil {
		return ident, false, nil
	}
	if !errors.Is(err, identity.ErrNotFound) {
		return domain.Identity{}, false, err
	}

	ident, err = s.Identities.CreateIdentity(ctx, email)
	if errors.Is(err, identity.ErrAlreadyExists) {
		// Lost a race with a concurrent issuance. Use theirs.
		ident, err = s.Identities.LookupByEmail(ctx, email)
		return ident, false, err
	}
	if err != nil {
		return domain.Identity{}, false, err
	}
	return ident, true, nil
}

// compensate removes an identity this issuance created. It runs on a
// context detached from the request so a client disconnect can't skip it.
// If a concurrent issuance already committed a profile against the identity
// it is left alone.
func (s *InvitationService) compensate(ctx context.Context, userID string) {
	ctx = context.WithoutCancel(ctx)
	log := slogx.FromContext(ctx).With(slog.String("user_id", userID))

	gone, err := s.Identities.DeleteUnreferencedIdentity(ctx, userID)
	switch {
	case err != nil:
		log.Error("compensation: failed to delete provisioned identity", slog.Any("error", err))
	case gone:
		log.Info("compensation: deleted provisioned identity")
	default:
		log.Warn("compensation: identity now referenced by another issuance, keeping it")
	}
}

func (s *InvitationService) persistInvitation(ctx context.Context, req IssueRequest, userID string) (domain.Invitation, string, error) {
	now := s.now()

	if err := s.checkConflict(ctx, req, userID, now); err != nil {
		return domain.Invitation{}, "", err
	}

	inv, token, err := newInvitation(req.Email, req.Role, req.ScopeID, domain.KindInvitation, userID, req.InvitedBy, now, domain.InvitationTTL)
	if err != nil {
		return domain.Invitation{}, "", err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		err := tx.Profiles().UpsertPendingProfile(ctx, domain.Profile{
			ID:               idx.NewAt(now).String(),
			UserID:           userID,
			Role:             req.Role,
			ScopeID:          req.ScopeID,
			InvitationStatus: domain.ProfilePending,
			InvitedBy:        req.InvitedBy,
			InvitedAt:        now,
			UpdatedAt:        now,
		})
		if err != nil {
			return fmt.Errorf("upsert profile: %w", err)
		}
		if err := tx.Invitations().CreateInvitation(ctx, inv); err != nil {
			return fmt.Errorf("create invitation: %w", err)
		}
		return nil
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		// Lost the race on the one-pending-per-tuple index.
		return domain.Invitation{}, "", s.conflictFromStore(ctx, req, now)
	}
	if err != nil {
		slogx.FromContext(ctx).Error("failed to persist invitation", slog.Any("error", err))
		return domain.Invitation{}, "", err
	}
	return inv, token, nil
}

// checkConflict refuses issuance while a live invitation exists for the
// tuple, or while the user already holds a profile in this scope that is
// accepted or still backed by a live invitation. Expired pending rows found
// on the way are marked expired.
func (s *InvitationService) checkConflict(ctx context.Context, req IssueRequest, userID string, now time.Time) error {
	pending, err := s.Store.Invitations().ListPendingInvitations(ctx, req.Email, req.Role, req.ScopeID, domain.KindInvitation)
	if err != nil {
		return fmt.Errorf("list pending invitations: %w", err)
	}
	for _, p := range pending {
		if p.PastExpiry(now) {
			s.expireLazily(ctx, p, now)
			continue
		}
		return &ConflictError{InvitationID: p.ID, Status: string(p.Status), IssuedAt: p.CreatedAt}
	}

	profile, err := s.Store.Profiles().GetProfile(ctx, userID, req.ScopeID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get profile: %w", err)
	}

	switch profile.InvitationStatus {
	case domain.ProfileAccepted:
		return &ConflictError{Status: string(profile.InvitationStatus), IssuedAt: profile.InvitedAt}
	case domain.ProfilePending:
		// A pending profile only blocks while some invitation for this
		// scope can still be accepted, whatever its role.
		live, err := s.Store.Invitations().ListInvitations(ctx, domain.InvitationFilter{
			Email:   req.Email,
			ScopeID: req.ScopeID,
			Kind:    domain.KindInvitation,
			Status:  domain.InvitationPending,
		})
		if err != nil {
			return fmt.Errorf("list scope invitations: %w", err)
		}
		for _, l := range live {
			if l.ScopeID != req.ScopeID {
				continue
			}
			if l.PastExpiry(now) {
				s.expireLazily(ctx, l, now)
				continue
			}
			return &ConflictError{InvitationID: l.ID, Status: string(l.Status), IssuedAt: l.CreatedAt}
		}
	}
	return nil
}

func (s *InvitationService) conflictFromStore(ctx context.Context, req IssueRequest, now time.Time) error {
	pending, err := s.Store.Invitations().ListPendingInvitations(ctx, req.Email, req.Role, req.ScopeID, domain.KindInvitation)
	if err == nil && len(pending) > 0 {
		return &ConflictError{InvitationID: pending[0].ID, Status: string(pending[0].Status), IssuedAt: pending[0].CreatedAt}
	}
	return &ConflictError{Status: string(domain.InvitationPending), IssuedAt: now}
}

func (s *InvitationService) expireLazily(ctx context.Context, inv domain.Invitation, now time.Time) {
	if _, err := s.Store.Invitations().ExpireInvitation(ctx, inv.ID, now); err != nil {
		slogx.FromContext(ctx).Warn("failed to mark invitation expired",
			slog.String("invitation_id", inv.ID),
			slog.Any("error", err),
		)
	}
}

func newInvitation(
	email string,
	role domain.Role,
	scopeID string,
	kind domain.InvitationKind,
	userID string,
	invitedBy string,
	now time.Time,
	ttl time.Duration,
) (domain.Invitation, string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.Invitation{}, "", err
	}
	sealed, err := cryptox.Seal([]byte(token))
	if err != nil {
		return domain.Invitation{}, "", fmt.Errorf("seal token: %w", err)
	}

	return domain.Invitation{
		ID:          idx.NewAt(now).String(),
		TokenHash:   cryptox.FingerprintToken(token),
		TokenSealed: sealed,
		Email:       email,
		Role:        role,
		ScopeID:     scopeID,
		Kind:        kind,
		UserID:      userID,
		InvitedBy:   invitedBy,
		Status:      domain.InvitationPending,
		ExpiresAt:   now.Add(ttl),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, token, nil
}

// ActivationURL builds the dashboard link carrying token.
func (s *InvitationService) ActivationURL(kind domain.InvitationKind, token string) (string, error) {
	base, err := url.Parse(s.AppBaseURL)
	if err != nil {
		return "", fmt.Errorf("parse app base url: %w", err)
	}

	path := AcceptInvitationPath
	if kind == domain.KindPasswordReset {
		path = ResetPasswordPath
	}
	u := base.JoinPath(path)
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// deliver emails the link. Nothing is rolled back on failure.
func (s *InvitationService) deliver(ctx context.Context, inv *domain.Invitation, token string) error {
	log := slogx.FromContext(ctx).With(slog.String("invitation_id", inv.ID))

	link, err := s.ActivationURL(inv.Kind, token)
	if err != nil {
		return &DeliveryError{Invitation: inv, Err: err}
	}

	tmpl := mailer.TemplateInvitation
	if inv.Kind == domain.KindPasswordReset {
		tmpl = mailer.TemplatePasswordReset
	}
	msg, err := s.Renderer.Render(tmpl, inv.Email, mailer.LinkData{
		URL:       link,
		Role:      inv.Role,
		InvitedBy: inv.InvitedBy,
		ExpiresAt: inv.ExpiresAt,
	})
	if err != nil {
		log.Error("failed to render email", slog.Any("error", err))
		return &DeliveryError{Invitation: inv, Err: err}
	}

	if err := s.Mailer.Send(ctx, msg); err != nil {
		log.Error("failed to send email", slogx.Email(inv.Email), slog.Any("error", err))
		return &DeliveryError{Invitation: inv, Err: err}
	}

	now := s.now()
	if err := s.Store.Invitations().MarkInvitationDelivered(ctx, inv.ID, now); err != nil {
		log.Warn("failed to record delivery", slog.Any("error", err))
	} else {
		inv.DeliveredAt = &now
	}
	return nil
}

func (s *InvitationService) lookup(ctx context.Context, token string) (domain.Invitation, error) {
	if token == "" {
		return domain.Invitation{}, statusError("invitation", ErrNotFound)
	}
	inv, err := s.Store.Invitations().GetInvitationByTokenHash(ctx, cryptox.FingerprintToken(token))
	if errors.Is(err, store.ErrNotFound) {
		return domain.Invitation{}, statusError("invitation", ErrNotFound)
	}
	if err != nil {
		return domain.Invitation{}, fmt.Errorf("get invitation: %w", err)
	}
	return inv, nil
}

// classify returns the terminal error for inv, or nil if it can still be
// accepted. A pending record past its window is marked expired on the way.
func (s *InvitationService) classify(ctx context.Context, inv domain.Invitation, now time.Time) error {
	subject := subjectFor(inv.Kind)
	switch inv.Status {
	case domain.InvitationAccepted:
		return statusError(subject, ErrAlreadyUsed)
	case domain.InvitationCancelled:
		return statusError(subject, ErrCancelled)
	case domain.InvitationExpired:
		return statusError(subject, ErrExpired)
	}
	if inv.PastExpiry(now) {
		s.expireLazily(ctx, inv, now)
		return statusError(subject, ErrExpired)
	}
	return nil
}

// checkProfileOpen refuses an invitation whose profile was already accepted
// some other way. Setting the credential would hijack an active account.
func (s *InvitationService) checkProfileOpen(ctx context.Context, inv domain.Invitation) error {
	if inv.Kind != domain.KindInvitation {
		return nil
	}
	p, err := s.Store.Profiles().GetProfile(ctx, inv.UserID, inv.ScopeID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get profile: %w", err)
	}
	if p.InvitationStatus == domain.ProfileAccepted {
		slogx.FromContext(ctx).Warn("invitation presented for an accepted profile",
			slog.String("invitation_id", inv.ID),
			slog.String("user_id", inv.UserID),
		)
		return statusError(subjectFor(inv.Kind), ErrAlreadyUsed)
	}
	return nil
}

// Validate checks a clicked link and records the click. It never consumes
// the token.
func (s *InvitationService) Validate(ctx context.Context, token string) (TokenInfo, error) {
	inv, err := s.lookup(ctx, token)
	if err != nil {
		return TokenInfo{}, err
	}

	now := s.now()
	if err := s.classify(ctx, inv, now); err != nil {
		return TokenInfo{}, err
	}

	if err := s.Store.Invitations().RecordInvitationClick(ctx, inv.ID, now); err != nil {
		slogx.FromContext(ctx).Warn("failed to record invitation click",
			slog.String("invitation_id", inv.ID),
			slog.Any("error", err),
		)
	} else {
		inv.ClicksCount++
	}

	return TokenInfo{
		InvitationID: inv.ID,
		Email:        inv.Email,
		Role:         inv.Role,
		ScopeID:      inv.ScopeID,
		Kind:         inv.Kind,
		Status:       inv.Status,
		ExpiresAt:    inv.ExpiresAt,
		ClicksCount:  inv.ClicksCount,
	}, nil
}

// Accept consumes the token exactly once and sets the credential. Of two
// concurrent callers one wins and the other gets ErrAlreadyUsed.
func (s *InvitationService) Accept(ctx context.Context, token, credential string) (AcceptResult, error) {
	log := slogx.FromContext(ctx)

	if err := validateCredential(credential); err != nil {
		return AcceptResult{}, err
	}

	inv, err := s.lookup(ctx, token)
	if err != nil {
		return AcceptResult{}, err
	}

	now := s.now()
	if err := s.classify(ctx, inv, now); err != nil {
		return AcceptResult{}, err
	}
	if err := s.checkProfileOpen(ctx, inv); err != nil {
		return AcceptResult{}, err
	}

	won, err := s.Store.Invitations().ClaimInvitation(ctx, inv.ID, now)
	if err != nil {
		return AcceptResult{}, fmt.Errorf("claim invitation: %w", err)
	}
	if !won {
		return AcceptResult{}, s.reclassify(ctx, inv, now)
	}

	if err := s.Identities.SetCredential(ctx, inv.UserID, credential); err != nil {
		log.Error("failed to set credential, reverting claim",
			slog.String("invitation_id", inv.ID),
			slog.Any("error", err),
		)
		if rerr := s.Store.Invitations().RevertInvitationClaim(context.WithoutCancel(ctx), inv.ID, s.now()); rerr != nil {
			log.Error("failed to revert invitation claim",
				slog.String("invitation_id", inv.ID),
				slog.Any("error", rerr),
			)
		}
		return AcceptResult{}, fmt.Errorf("set credential: %w", err)
	}

	// The token is spent from here on. Anything below that fails is logged
	// and left for the reconciler.
	switch inv.Kind {
	case domain.KindInvitation:
		moved, err := s.Store.Profiles().TransitionProfileStatus(ctx, inv.UserID, inv.ScopeID, domain.ProfilePending, domain.ProfileAccepted, now)
		if err != nil {
			log.Error("failed to accept profile", slog.String("user_id", inv.UserID), slog.Any("error", err))
		} else if !moved {
			log.Warn("profile was not pending at acceptance", slog.String("user_id", inv.UserID), slog.String("scope_id", inv.ScopeID))
		}
	case domain.KindPasswordReset:
		if n, err := s.Store.TrustedDevices().DeleteTrustedDevicesForUser(ctx, inv.UserID); err != nil {
			log.Warn("failed to revoke trusted devices after reset", slog.Any("error", err))
		} else if n > 0 {
			log.Info("revoked trusted devices after password reset", slog.Int64("count", n))
		}
	}

	if err := s.Identities.Confirm(ctx, inv.UserID); err != nil {
		log.Warn("failed to confirm identity", slog.String("user_id", inv.UserID), slog.Any("error", err))
	}

	log.Info("invitation accepted",
		slog.String("invitation_id", inv.ID),
		slog.String("kind", string(inv.Kind)),
		slog.String("user_id", inv.UserID),
	)

	return AcceptResult{
		UserID:  inv.UserID,
		Email:   inv.Email,
		Kind:    inv.Kind,
		Role:    inv.Role,
		ScopeID: inv.ScopeID,
	}, nil
}

// reclassify is used after losing a conditional update: the re-read status
// says who won.
func (s *InvitationService) reclassify(ctx context.Context, inv domain.Invitation, now time.Time) error {
	current, err := s.Store.Invitations().GetInvitationByID(ctx, inv.ID)
	if errors.Is(err, store.ErrNotFound) {
		return statusError(subjectFor(inv.Kind), ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("reload invitation: %w", err)
	}
	if err := s.classify(ctx, current, now); err != nil {
		return err
	}
	return statusError(subjectFor(inv.Kind), ErrAlreadyUsed)
}

func (s *InvitationService) get(ctx context.Context, id string) (domain.Invitation, error) {
	inv, err := s.Store.Invitations().GetInvitationByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Invitation{}, statusError("invitation", ErrNotFound)
	}
	if err != nil {
		return domain.Invitation{}, fmt.Errorf("get invitation: %w", err)
	}
	return inv, nil
}

// Cancel withdraws a pending invitation. Its profile is cancelled with it
// while that is still pending.
func (s *InvitationService) Cancel(ctx context.Context, id string) error {
	log := slogx.FromContext(ctx)

	inv, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	now := s.now()
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		ok, err := tx.Invitations().CancelInvitation(ctx, inv.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			return errLostTransition
		}
		if inv.Kind == domain.KindInvitation {
			if _, err := tx.Profiles().TransitionProfileStatus(ctx, inv.UserID, inv.ScopeID, domain.ProfilePending, domain.ProfileCancelled, now); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, errLostTransition) {
		return s.terminalError(ctx, inv)
	}
	if err != nil {
		log.Error("failed to cancel invitation", slog.String("invitation_id", id), slog.Any("error", err))
		return fmt.Errorf("cancel invitation: %w", err)
	}

	log.Info("invitation cancelled", slog.String("invitation_id", id))
	return nil
}

var errLostTransition = errors.New("conditional update matched no rows")

// terminalError explains why a conditional transition on inv matched
// nothing.
func (s *InvitationService) terminalError(ctx context.Context, inv domain.Invitation) error {
	current, err := s.Store.Invitations().GetInvitationByID(ctx, inv.ID)
	if errors.Is(err, store.ErrNotFound) {
		return statusError(subjectFor(inv.Kind), ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("reload invitation: %w", err)
	}

	subject := subjectFor(current.Kind)
	switch current.Status {
	case domain.InvitationAccepted:
		return statusError(subject, ErrAlreadyUsed)
	case domain.InvitationCancelled:
		return statusError(subject, ErrCancelled)
	case domain.InvitationExpired:
		return statusError(subject, ErrExpired)
	}
	return fmt.Errorf("%s changed concurrently, retry", subject)
}

// Delete physically removes an invitation that was never accepted.
func (s *InvitationService) Delete(ctx context.Context, id string) error {
	log := slogx.FromContext(ctx)

	inv, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if inv.Status == domain.InvitationAccepted {
		return statusError(subjectFor(inv.Kind), ErrAlreadyUsed)
	}

	now := s.now()
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		ok, err := tx.Invitations().DeleteInvitation(ctx, inv.ID)
		if err != nil {
			return err
		}
		if !ok {
			return errLostTransition
		}
		// Stop the reconciler from promoting a profile whose invitation is
		// gone.
		if inv.Kind == domain.KindInvitation && inv.Status == domain.InvitationPending {
			if _, err := tx.Profiles().TransitionProfileStatus(ctx, inv.UserID, inv.ScopeID, domain.ProfilePending, domain.ProfileCancelled, now); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, errLostTransition) {
		return s.terminalError(ctx, inv)
	}
	if err != nil {
		log.Error("failed to delete invitation", slog.String("invitation_id", id), slog.Any("error", err))
		return fmt.Errorf("delete invitation: %w", err)
	}

	log.Info("invitation deleted", slog.String("invitation_id", id))
	return nil
}

// Resend emails the same link again. Only live invitations qualify.
func (s *InvitationService) Resend(ctx context.Context, id string) (domain.Invitation, error) {
	inv, err := s.get(ctx, id)
	if err != nil {
		return domain.Invitation{}, err
	}
	if err := s.classify(ctx, inv, s.now()); err != nil {
		return domain.Invitation{}, err
	}

	token, err := cryptox.Open(inv.TokenSealed)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to open sealed token", slog.String("invitation_id", id), slog.Any("error", err))
		return domain.Invitation{}, fmt.Errorf("open sealed token: %w", err)
	}

	if err := s.deliver(ctx, &inv, string(token)); err != nil {
		return inv, err
	}
	slogx.FromContext(ctx).Info("invitation resent", slog.String("invitation_id", id))
	return inv, nil
}

// List returns invitations newest first. Pending rows past their window are
// reported as expired.
func (s *InvitationService) List(ctx context.Context, f domain.InvitationFilter) ([]domain.Invitation, error) {
	if f.Email != "" {
		f.Email = normalizeEmail(f.Email)
	}
	invs, err := s.Store.Invitations().ListInvitations(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}

	now := s.now()
	for i := range invs {
		if invs[i].Status == domain.InvitationPending && invs[i].PastExpiry(now) {
			invs[i].Status = domain.InvitationExpired
		}
	}
	return invs, nil
}

// RequestPasswordReset issues a reset link for an existing identity. Unknown
// emails succeed silently unless an admin asked, so the endpoint can't be
// used to discover which accounts exist. A newer request supersedes older live links.
func (s *InvitationService) RequestPasswordReset(ctx context.Context, email string, adminTriggered bool, requestedBy string) error {
	log := slogx.FromContext(ctx)

	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}

	if !adminTriggered && s.ResetLimiter != nil {
		if err := limitErr(s.ResetLimiter.Allow(ctx, email)); err != nil {
			return err
		}
	}

	ident, err := s.Identities.LookupByEmail(ctx, email)
	if errors.Is(err, identity.ErrNotFound) {
		if adminTriggered {
			return statusError("account", ErrNotFound)
		}
		log.Info("password reset requested for unknown email", slogx.Email(email))
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup identity: %w", err)
	}

	ttl := domain.PasswordResetTTL
	if adminTriggered {
		ttl = domain.AdminPasswordResetTTL
	}

	now := s.now()
	inv, token, err := newInvitation(email, "", "", domain.KindPasswordReset, ident.ID, requestedBy, now, ttl)
	if err != nil {
		return err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		older, err := tx.Invitations().ListPendingInvitations(ctx, email, "", "", domain.KindPasswordReset)
		if err != nil {
			return err
		}
		for _, o := range older {
			if _, err := tx.Invitations().CancelInvitation(ctx, o.ID, now); err != nil {
				return err
			}
		}
		return tx.Invitations().CreateInvitation(ctx, inv)
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		// A concurrent request got there first and its link is on the way.
		log.Info("concurrent password reset request", slogx.Email(email))
		return nil
	}
	if err != nil {
		log.Error("failed to persist password reset", slog.Any("error", err))
		return fmt.Errorf("create password reset: %w", err)
	}

	log.Info("password reset issued",
		slog.String("invitation_id", inv.ID),
		slogx.Email(email),
		slog.Bool("admin_triggered", adminTriggered),
	)
	return s.deliver(ctx, &inv, token)
}

func limitErr(err error) error {
	if err == nil {
		return nil
	}
	var le *ratelimit.LimitedError
	if errors.As(err, &le) {
		return &RateLimitError{RetryAfter: le.RetryAfter}
	}
	if errors.Is(err, ratelimit.ErrUnavailable) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
