package credsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Error codes written by the service.
const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeIncorrectCode      = "incorrect_code"
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeInvalidChallenge   = "invalid_challenge"
	ErrorCodeInvalidToken       = "invalid_token"
	ErrorCodeInsufficientRole   = "insufficient_role"
	ErrorCodeNoActiveAccess     = "no_active_access"
	ErrorCodeNotFound           = "not_found"
	ErrorCodeConflict           = "conflict"
	ErrorCodeAlreadyUsed        = "already_used"
	ErrorCodeCancelled          = "cancelled"
	ErrorCodeExpired            = "expired"
	ErrorCodeTOTPNotEnrolled    = "totp_not_enrolled"
	ErrorCodeTOTPAlreadyEnabled = "totp_already_enabled"
	ErrorCodeRateLimited        = "rate_limit_exceeded"
	ErrorCodeDeliveryFailed     = "delivery_failed"
	ErrorCodeProvisioningFailed = "provisioning_failed"
	ErrorCodeUnavailable        = "temporarily_unavailable"
	ErrorCodeServerError        = "server_error"
)

// APIError is any non-2xx response.
type APIError struct {
	StatusCode int
	ErrorResponse

	// RetryAfterDuration is parsed from the Retry-After header.
	RetryAfterDuration time.Duration
}

func (e *APIError) Error() string {
	if e.ErrorDescription == "" {
		return fmt.Sprintf("%d %s", e.StatusCode, e.ErrorResponse.Error)
	}
	return fmt.Sprintf("%d %s: %s", e.StatusCode, e.ErrorResponse.Error, e.ErrorDescription)
}

// HasCode reports whether err is an APIError with the given error code.
func HasCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.ErrorResponse.Error == code
}

// ChallengeRequiredError is returned by Login when the device is not trusted.
// Complete the sign-in with CompleteChallenge.
type ChallengeRequiredError struct {
	ChallengeResponse
}

func (e *ChallengeRequiredError) Error() string {
	return fmt.Sprintf("second factor required: available methods=%v", e.Methods)
}

// parseErrorResponse turns a non-2xx response into an APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	if err := json.Unmarshal(body, &apiErr.ErrorResponse); err != nil || apiErr.ErrorResponse.Error == "" {
		apiErr.ErrorResponse = ErrorResponse{
			Error:            ErrorCodeServerError,
			ErrorDescription: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		}
	}

	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			apiErr.RetryAfterDuration = time.Duration(secs) * time.Second
		}
	}
	return apiErr
}
