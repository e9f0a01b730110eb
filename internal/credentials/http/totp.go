package http

import (
	"net/http"

	"github.com/aussiebroadwan/fieldbank/internal/credentials/service"
	"github.com/aussiebroadwan/fieldbank/pkg/credsdk"
	"github.com/aussiebroadwan/fieldbank/pkg/httpx"
)

type TOTPHandler struct {
	AuthenticatorService *service.AuthenticatorService
}

// HandleEnroll godoc
//
//	@Summary		Enroll Authenticator App
//	@Description	Start enrolling an authenticator app. The secret is not active until confirmed with a code.
//	@Tags			Authenticator
//	@Produce		json
//	@Success		200	{object}	credsdk.TOTPEnrollResponse	"secret, otpauth_url"
//	@Failure		401	{object}	credsdk.ErrorResponse		"error, error_description"
//	@Failure		409	{object}	credsdk.ErrorResponse		"already enabled"
//	@Security		BearerAuth
//	@Router			/v1/totp/enroll [post].
func (h *TOTPHandler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	enrollment, err := h.AuthenticatorService.Enroll(r.Context(), httpx.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, "enroll totp")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, credsdk.TOTPEnrollResponse{
		Secret:     enrollment.Secret,
		OTPAuthURL: enrollment.URL,
	})
}

// HandleConfirm godoc
//
//	@Summary		Confirm Authenticator App
//	@Description	Enable the enrolled authenticator app by proving it produces valid codes.
//	@Tags			Authenticator
//	@Accept			json
//	@Param			request	body	credsdk.TOTPConfirmRequest	true	"Code"
//	@Success		204		"enabled"
//	@Failure		400		{object}	credsdk.ErrorResponse	"incorrect code"
//	@Failure		401		{object}	credsdk.ErrorResponse	"error, error_description"
//	@Failure		409		{object}	credsdk.ErrorResponse	"not enrolled or already enabled"
//	@Security		BearerAuth
//	@Router			/v1/totp/confirm [post].
func (h *TOTPHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	var req credsdk.TOTPConfirmRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := h.AuthenticatorService.Confirm(r.Context(), httpx.UserIDFromContext(r.Context()), req.Code); err != nil {
		writeServiceError(w, r, err, "confirm totp")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
