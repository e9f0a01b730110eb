package credsdk

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrSessionExpired is returned before any request once the access token
// has passed its lifetime. Sign in again.
var ErrSessionExpired = errors.New("credsdk: session expired")

// Session carries an access token. There are no refresh tokens; a
// session ends when its token expires.
type Session struct {
	client      *SDKClient
	accessToken string
	userID      string
	role        string
	expiresAt   time.Time
}

func (s *Session) UserID() string       { return s.userID }
func (s *Session) Role() string         { return s.role }
func (s *Session) AccessToken() string  { return s.accessToken }
func (s *Session) ExpiresAt() time.Time { return s.expiresAt }

func (s *Session) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	if !s.expiresAt.IsZero() && time.Now().After(s.expiresAt) {
		return nil, ErrSessionExpired
	}
	return s.client.doJSON(ctx, method, path, body, s.accessToken)
}

// EnrollTOTP starts authenticator app enrollment for the signed-in user.
func (s *Session) EnrollTOTP(ctx context.Context) (*TOTPEnrollResponse, error) {
	resp, err := s.do(ctx, http.MethodPost, "/v1/totp/enroll", nil)
	if err != nil {
		return nil, err
	}

	var out TOTPEnrollResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfirmTOTP enables the authenticator app once it produces a valid code.
func (s *Session) ConfirmTOTP(ctx context.Context, code string) error {
	resp, err := s.do(ctx, http.MethodPost, "/v1/totp/confirm", TOTPConfirmRequest{Code: code})
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusNoContent)
}

// ============================================================================
// Admin operations
// ============================================================================

// IssueInvitation invites email to a role. When the invitation is stored
// but the email fails, both the response and an *APIError with
// delivery_failed are returned so the caller can resend.
func (s *Session) IssueInvitation(ctx context.Context, req IssueInvitationRequest) (*IssueInvitationResponse, error) {
	resp, err := s.do(ctx, http.MethodPost, "/v1/invitations", req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusBadGateway {
		var out IssueInvitationResponse
		derr := decodeJSON(resp, &out, http.StatusBadGateway)
		if derr != nil {
			return nil, derr
		}
		return &out, &APIError{
			StatusCode: http.StatusBadGateway,
			ErrorResponse: ErrorResponse{
				Error:            out.Error,
				ErrorDescription: out.ErrorDescription,
				InvitationID:     out.InvitationID,
			},
		}
	}

	var out IssueInvitationResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) ListInvitations(ctx context.Context, f ListInvitationsFilter) ([]Invitation, error) {
	q := url.Values{}
	if f.Email != "" {
		q.Set("email", f.Email)
	}
	if f.ScopeID != "" {
		q.Set("scope_id", f.ScopeID)
	}
	if f.Kind != "" {
		q.Set("kind", f.Kind)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}

	path := "/v1/admin/invitations"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := s.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var out ListInvitationsResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Invitations, nil
}

func (s *Session) CancelInvitation(ctx context.Context, id string) error {
	resp, err := s.do(ctx, http.MethodPost, "/v1/admin/invitations/"+url.PathEscape(id)+"/cancel", nil)
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusNoContent)
}

// ResendInvitation emails the same link again.
func (s *Session) ResendInvitation(ctx context.Context, id string) (*IssueInvitationResponse, error) {
	resp, err := s.do(ctx, http.MethodPost, "/v1/admin/invitations/"+url.PathEscape(id)+"/resend", nil)
	if err != nil {
		return nil, err
	}

	var out IssueInvitationResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) DeleteInvitation(ctx context.Context, id string) error {
	resp, err := s.do(ctx, http.MethodDelete, "/v1/admin/invitations/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusNoContent)
}

// SendPasswordReset sends a reset link on the user's behalf. Unlike the
// self-service endpoint, an unknown email is reported as not_found.
func (s *Session) SendPasswordReset(ctx context.Context, email string) error {
	resp, err := s.do(ctx, http.MethodPost, "/v1/admin/password-resets", PasswordResetRequest{Email: email})
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusAccepted)
}

// Reconcile runs one status reconciliation pass now.
func (s *Session) Reconcile(ctx context.Context) (*ReconcileResponse, error) {
	resp, err := s.do(ctx, http.MethodPost, "/v1/admin/reconcile", nil)
	if err != nil {
		return nil, err
	}

	var out ReconcileResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
