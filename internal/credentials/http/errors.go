package http

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/fieldbank/internal/credentials/service"
	"github.com/aussiebroadwan/fieldbank/pkg/credsdk"
	"github.com/aussiebroadwan/fieldbank/pkg/httpx"
	"github.com/aussiebroadwan/fieldbank/pkg/slogx"
)

type errorMapping struct {
	kind   error
	status int
	code   string
}

// errorTable is the only place service errors become status codes. The
// first matching kind wins.
var errorTable = []errorMapping{
	{service.ErrValidation, http.StatusBadRequest, credsdk.ErrorCodeInvalidRequest},
	{service.ErrIncorrectCode, http.StatusBadRequest, credsdk.ErrorCodeIncorrectCode},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, credsdk.ErrorCodeInvalidCredentials},
	{service.ErrInvalidChallenge, http.StatusUnauthorized, credsdk.ErrorCodeInvalidChallenge},
	{service.ErrNoActiveAccess, http.StatusForbidden, credsdk.ErrorCodeNoActiveAccess},
	{service.ErrNotFound, http.StatusNotFound, credsdk.ErrorCodeNotFound},
	{service.ErrConflict, http.StatusConflict, credsdk.ErrorCodeConflict},
	{service.ErrAlreadyUsed, http.StatusConflict, credsdk.ErrorCodeAlreadyUsed},
	{service.ErrCancelled, http.StatusConflict, credsdk.ErrorCodeCancelled},
	{service.ErrTOTPNotEnrolled, http.StatusConflict, credsdk.ErrorCodeTOTPNotEnrolled},
	{service.ErrTOTPAlreadyEnabled, http.StatusConflict, credsdk.ErrorCodeTOTPAlreadyEnabled},
	{service.ErrExpired, http.StatusGone, credsdk.ErrorCodeExpired},
	{service.ErrRateLimited, http.StatusTooManyRequests, credsdk.ErrorCodeRateLimited},
	{service.ErrDelivery, http.StatusBadGateway, credsdk.ErrorCodeDeliveryFailed},
	{service.ErrProvisioning, http.StatusBadGateway, credsdk.ErrorCodeProvisioningFailed},
	{service.ErrUnavailable, http.StatusServiceUnavailable, credsdk.ErrorCodeUnavailable},
}

// errorResponse builds the status and body for err. Descriptions of 5xx
// responses never echo internal error text.
func errorResponse(err error) (int, credsdk.ErrorResponse) {
	for _, m := range errorTable {
		if !errors.Is(err, m.kind) {
			continue
		}

		body := credsdk.ErrorResponse{Error: m.code, ErrorDescription: err.Error()}
		if m.status >= http.StatusInternalServerError {
			body.ErrorDescription = m.kind.Error()
		}

		var conflict *service.ConflictError
		var incorrect *service.IncorrectCodeError
		var limited *service.RateLimitError
		var delivery *service.DeliveryError
		switch {
		case errors.As(err, &conflict):
			body.InvitationID = conflict.InvitationID
		case errors.As(err, &incorrect):
			body.Attempts = incorrect.Attempts
			body.ResendSuggested = incorrect.ResendSuggested
		case errors.As(err, &limited):
			body.RetryAfter = retryAfterSeconds(limited)
		case errors.As(err, &delivery) && delivery.Invitation != nil:
			body.InvitationID = delivery.Invitation.ID
		}
		return m.status, body
	}

	return http.StatusInternalServerError, credsdk.ErrorResponse{
		Error:            credsdk.ErrorCodeServerError,
		ErrorDescription: "An unexpected error occurred.",
	}
}

// writeServiceError maps err through errorTable and logs anything that is
// the server's fault.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	status, body := errorResponse(err)

	if status >= http.StatusInternalServerError {
		slogx.FromContext(r.Context()).Error("request failed",
			slog.String("action", action),
			slog.Int("status", status),
			slog.Any("error", err),
		)
	}
	if body.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(body.RetryAfter))
	}
	httpx.WriteJSON(w, status, body)
}

func retryAfterSeconds(e *service.RateLimitError) int {
	return max(int(math.Ceil(e.RetryAfter.Seconds())), 1)
}

func writeBadRequest(w http.ResponseWriter, desc string) {
	httpx.WriteJSON(w, http.StatusBadRequest, credsdk.ErrorResponse{
		Error:            credsdk.ErrorCodeInvalidRequest,
		ErrorDescription: desc,
	})
}
