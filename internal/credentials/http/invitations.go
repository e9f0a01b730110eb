package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/fieldbank/internal/credentials/domain"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/service"
	"github.com/aussiebroadwan/fieldbank/pkg/credsdk"
	"github.com/aussiebroadwan/fieldbank/pkg/httpx"
	"github.com/aussiebroadwan/fieldbank/pkg/slogx"
)

type InvitationHandler struct {
	InvitationService *service.InvitationService
}

// HandleIssue godoc
//
//	@Summary		Issue Invitation
//	@Description	Invite an email address to a dashboard role. Admins are global; bank_viewer and specialist need a scope_id.
//	@Description	A 502 means the invitation was stored but its email was not sent. The body still carries invitation_id so it can be resent.
//	@Tags			Invitations
//	@Accept			json
//	@Produce		json
//	@Param			request	body		credsdk.IssueInvitationRequest	true	"Invitation"
//	@Success		201		{object}	credsdk.IssueInvitationResponse	"invitation_id, expires_at"
//	@Failure		400		{object}	credsdk.ErrorResponse			"error, error_description"
//	@Failure		401		{object}	credsdk.ErrorResponse			"error, error_description"
//	@Failure		403		{object}	credsdk.ErrorResponse			"error, error_description"
//	@Failure		409		{object}	credsdk.ErrorResponse			"an active invitation already exists"
//	@Failure		502		{object}	credsdk.IssueInvitationResponse	"stored but not delivered"
//	@Security		BearerAuth
//	@Router			/v1/invitations [post].
func (h *InvitationHandler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req credsdk.IssueInvitationRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	invitedBy := httpx.UserIDFromContext(ctx)
	if claims, ok := httpx.ClaimsFromContext(ctx); ok && claims.Email != "" {
		invitedBy = claims.Email
	}

	inv, err := h.InvitationService.Issue(ctx, service.IssueRequest{
		Email:     req.Email,
		Role:      domain.Role(req.Role),
		ScopeID:   req.ScopeID,
		InvitedBy: invitedBy,
	})

	var delivery *service.DeliveryError
	if errors.As(err, &delivery) && delivery.Invitation != nil {
		slogx.FromContext(ctx).Warn("invitation stored but not delivered",
			"invitation_id", delivery.Invitation.ID, "error", delivery.Err)
		httpx.WriteJSON(w, http.StatusBadGateway, credsdk.IssueInvitationResponse{
			InvitationID:     delivery.Invitation.ID,
			ExpiresAt:        delivery.Invitation.ExpiresAt,
			Error:            credsdk.ErrorCodeDeliveryFailed,
			ErrorDescription: service.ErrDelivery.Error(),
		})
		return
	}
	if err != nil {
		writeServiceError(w, r, err, "issue invitation")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, credsdk.IssueInvitationResponse{
		InvitationID: inv.ID,
		ExpiresAt:    inv.ExpiresAt,
	})
}

// HandleValidate godoc
//
//	@Summary		Validate Invitation Link
//	@Description	Look up the invitation or password reset behind a link token. Every call is recorded as a click.
//	@Tags			Invitations
//	@Produce		json
//	@Param			token	path		string						true	"Link token"
//	@Success		200		{object}	credsdk.TokenInfoResponse	"invitation details"
//	@Failure		404		{object}	credsdk.ErrorResponse		"unknown token"
//	@Failure		409		{object}	credsdk.ErrorResponse		"already used or cancelled"
//	@Failure		410		{object}	credsdk.ErrorResponse		"expired"
//	@Router			/v1/invitations/{token} [get].
func (h *InvitationHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	info, err := h.InvitationService.Validate(r.Context(), r.PathValue("token"))
	if err != nil {
		writeServiceError(w, r, err, "validate invitation")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, credsdk.TokenInfoResponse{
		Email:       info.Email,
		Role:        string(info.Role),
		ScopeID:     info.ScopeID,
		Kind:        string(info.Kind),
		Status:      string(info.Status),
		ExpiresAt:   info.ExpiresAt,
		ClicksCount: info.ClicksCount,
	})
}

// HandleAccept godoc
//
//	@Summary		Accept Invitation
//	@Description	Set the account password through an invitation or password reset link. A link can be accepted exactly once.
//	@Tags			Invitations
//	@Accept			json
//	@Produce		json
//	@Param			token	path		string								true	"Link token"
//	@Param			request	body		credsdk.AcceptInvitationRequest		true	"New credential"
//	@Success		200		{object}	credsdk.AcceptInvitationResponse	"user_id, email, kind"
//	@Failure		400		{object}	credsdk.ErrorResponse				"credential rejected"
//	@Failure		404		{object}	credsdk.ErrorResponse				"unknown token"
//	@Failure		409		{object}	credsdk.ErrorResponse				"already used or cancelled"
//	@Failure		410		{object}	credsdk.ErrorResponse				"expired"
//	@Router			/v1/invitations/{token}/accept [post].
func (h *InvitationHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	var req credsdk.AcceptInvitationRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	res, err := h.InvitationService.Accept(r.Context(), r.PathValue("token"), req.Credential)
	if err != nil {
		writeServiceError(w, r, err, "accept invitation")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, credsdk.AcceptInvitationResponse{
		UserID:  res.UserID,
		Email:   res.Email,
		Kind:    string(res.Kind),
		Role:    string(res.Role),
		ScopeID: res.ScopeID,
	})
}

// HandleRequestPasswordReset godoc
//
//	@Summary		Request Password Reset
//	@Description	Email a password reset link. The response is the same whether or not the address has an account.
//	@Tags			Password Resets
//	@Accept			json
//	@Produce		json
//	@Param			request	body	credsdk.PasswordResetRequest	true	"Email"
//	@Success		202		"accepted"
//	@Failure		400		{object}	credsdk.ErrorResponse	"error, error_description"
//	@Failure		429		{object}	credsdk.ErrorResponse	"rate limited"
//	@Router			/v1/password-resets [post].
func (h *InvitationHandler) HandleRequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req credsdk.PasswordResetRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	err := h.InvitationService.RequestPasswordReset(r.Context(), req.Email, false, "")
	switch {
	case err == nil:
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrRateLimited), errors.Is(err, service.ErrUnavailable):
		writeServiceError(w, r, err, "request password reset")
		return
	default:
		// Anything else would reveal whether the address has an account.
		slogx.FromContext(r.Context()).Error("password reset request failed", "error", err)
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusAccepted)
}
