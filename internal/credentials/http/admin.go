package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/fieldbank/internal/credentials/domain"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/service"
	"github.com/aussiebroadwan/fieldbank/pkg/credsdk"
	"github.com/aussiebroadwan/fieldbank/pkg/httpx"
)

// maxListLimit caps a single page of the invitation listing.
const maxListLimit = 500

type AdminHandler struct {
	InvitationService *service.InvitationService
	ReconcilerService *service.ReconcilerService
}

// HandleList godoc
//
//	@Summary		List Invitations
//	@Description	List invitations and password resets, newest first. Pending rows past their window are reported as expired.
//	@Tags			Admin
//	@Produce		json
//	@Param			email		query		string	false	"Filter by email"
//	@Param			scope_id	query		string	false	"Filter by bank scope"
//	@Param			kind		query		string	false	"invitation or password_reset"
//	@Param			status		query		string	false	"pending, accepted, cancelled or expired"
//	@Param			limit		query		int		false	"Maximum rows (default 100, max 500)"
//	@Success		200			{object}	credsdk.ListInvitationsResponse
//	@Failure		400			{object}	credsdk.ErrorResponse	"error, error_description"
//	@Failure		401			{object}	credsdk.ErrorResponse	"error, error_description"
//	@Failure		403			{object}	credsdk.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/admin/invitations [get].
func (h *AdminHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := domain.InvitationFilter{
		Email:   q.Get("email"),
		ScopeID: q.Get("scope_id"),
		Kind:    domain.InvitationKind(q.Get("kind")),
		Status:  domain.InvitationStatus(q.Get("status")),
		Limit:   100,
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxListLimit {
			writeBadRequest(w, "limit must be between 1 and 500")
			return
		}
		f.Limit = n
	}
	switch f.Kind {
	case "", domain.KindInvitation, domain.KindPasswordReset:
	default:
		writeBadRequest(w, "unknown kind")
		return
	}
	switch f.Status {
	case "", domain.InvitationPending, domain.InvitationAccepted, domain.InvitationCancelled, domain.InvitationExpired:
	default:
		writeBadRequest(w, "unknown status")
		return
	}

	invs, err := h.InvitationService.List(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, err, "list invitations")
		return
	}

	out := credsdk.ListInvitationsResponse{Invitations: make([]credsdk.Invitation, 0, len(invs))}
	for _, inv := range invs {
		out.Invitations = append(out.Invitations, toSDKInvitation(inv))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleCancel godoc
//
//	@Summary		Cancel Invitation
//	@Description	Cancel a pending invitation or password reset. Its link stops working immediately.
//	@Tags			Admin
//	@Param			id	path	string	true	"Invitation ID"
//	@Success		204	"cancelled"
//	@Failure		404	{object}	credsdk.ErrorResponse	"unknown invitation"
//	@Failure		409	{object}	credsdk.ErrorResponse	"already accepted or cancelled"
//	@Failure		410	{object}	credsdk.ErrorResponse	"expired"
//	@Security		BearerAuth
//	@Router			/v1/admin/invitations/{id}/cancel [post].
func (h *AdminHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	if err := h.InvitationService.Cancel(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err, "cancel invitation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleResend godoc
//
//	@Summary		Resend Invitation
//	@Description	Email the same link again. Only pending invitations within their window qualify.
//	@Tags			Admin
//	@Produce		json
//	@Param			id	path		string							true	"Invitation ID"
//	@Success		200	{object}	credsdk.IssueInvitationResponse	"invitation_id, expires_at"
//	@Failure		404	{object}	credsdk.ErrorResponse			"unknown invitation"
//	@Failure		409	{object}	credsdk.ErrorResponse			"already accepted or cancelled"
//	@Failure		410	{object}	credsdk.ErrorResponse			"expired"
//	@Failure		502	{object}	credsdk.ErrorResponse			"email not delivered"
//	@Security		BearerAuth
//	@Router			/v1/admin/invitations/{id}/resend [post].
func (h *AdminHandler) HandleResend(w http.ResponseWriter, r *http.Request) {
	inv, err := h.InvitationService.Resend(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "resend invitation")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, credsdk.IssueInvitationResponse{
		InvitationID: inv.ID,
		ExpiresAt:    inv.ExpiresAt,
	})
}

// HandleDelete godoc
//
//	@Summary		Delete Invitation
//	@Description	Remove an invitation that was never accepted.
//	@Tags			Admin
//	@Param			id	path	string	true	"Invitation ID"
//	@Success		204	"deleted"
//	@Failure		404	{object}	credsdk.ErrorResponse	"unknown invitation"
//	@Failure		409	{object}	credsdk.ErrorResponse	"already accepted"
//	@Security		BearerAuth
//	@Router			/v1/admin/invitations/{id} [delete].
func (h *AdminHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.InvitationService.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err, "delete invitation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePasswordReset godoc
//
//	@Summary		Send Password Reset
//	@Description	Send a password reset link on a user's behalf. The link is valid for 24 hours.
//	@Tags			Admin
//	@Accept			json
//	@Param			request	body	credsdk.PasswordResetRequest	true	"Email"
//	@Success		202		"sent"
//	@Failure		400		{object}	credsdk.ErrorResponse	"error, error_description"
//	@Failure		404		{object}	credsdk.ErrorResponse	"no account for this email"
//	@Failure		502		{object}	credsdk.ErrorResponse	"email not delivered"
//	@Security		BearerAuth
//	@Router			/v1/admin/password-resets [post].
func (h *AdminHandler) HandlePasswordReset(w http.ResponseWriter, r *http.Request) {
	var req credsdk.PasswordResetRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	requestedBy := httpx.UserIDFromContext(r.Context())
	if claims, ok := httpx.ClaimsFromContext(r.Context()); ok && claims.Email != "" {
		requestedBy = claims.Email
	}

	if err := h.InvitationService.RequestPasswordReset(r.Context(), req.Email, true, requestedBy); err != nil {
		writeServiceError(w, r, err, "admin password reset")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// HandleReconcile godoc
//
//	@Summary		Reconcile Statuses
//	@Description	Run one reconciliation pass now: pending profiles whose identity has signed in since the invitation are marked accepted.
//	@Tags			Admin
//	@Produce		json
//	@Success		200	{object}	credsdk.ReconcileResponse
//	@Failure		500	{object}	credsdk.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/admin/reconcile [post].
func (h *AdminHandler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	if h.ReconcilerService == nil {
		writeServiceError(w, r, errors.New("reconciler not configured"), "reconcile")
		return
	}

	report, err := h.ReconcilerService.ReconcileOnce(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "reconcile")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, credsdk.ReconcileResponse{
		Scanned:  report.Scanned,
		Repaired: report.Repaired,
		Skipped:  report.Skipped,
		Failed:   report.Failed,
	})
}

func toSDKInvitation(inv domain.Invitation) credsdk.Invitation {
	return credsdk.Invitation{
		ID:            inv.ID,
		Email:         inv.Email,
		Role:          string(inv.Role),
		ScopeID:       inv.ScopeID,
		Kind:          string(inv.Kind),
		Status:        string(inv.Status),
		InvitedBy:     inv.InvitedBy,
		ClicksCount:   inv.ClicksCount,
		LastClickedAt: inv.LastClickedAt,
		DeliveredAt:   inv.DeliveredAt,
		CompletedAt:   inv.CompletedAt,
		ExpiresAt:     inv.ExpiresAt,
		CreatedAt:     inv.CreatedAt,
	}
}
