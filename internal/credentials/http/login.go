package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/fieldbank/internal/credentials/domain"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/service"
	"github.com/aussiebroadwan/fieldbank/pkg/credsdk"
	"github.com/aussiebroadwan/fieldbank/pkg/httpx"
)

type LoginHandler struct {
	LoginService *service.LoginService
	OTPService   *service.OTPService
}

// HandleLogin godoc
//
//	@Summary		Sign In
//	@Description	Check email and password. A trusted device gets an access token straight away (200).
//	@Description	Otherwise a code is emailed and the response is a challenge (202) to complete at /v1/otp/verify.
//	@Tags			Sign-in
//	@Accept			json
//	@Produce		json
//	@Param			request	body		credsdk.LoginRequest		true	"Credentials"
//	@Success		200		{object}	credsdk.TokenResponse		"access token"
//	@Success		202		{object}	credsdk.ChallengeResponse	"second factor required"
//	@Failure		400		{object}	credsdk.ErrorResponse		"error, error_description"
//	@Failure		401		{object}	credsdk.ErrorResponse		"invalid email or password"
//	@Failure		403		{object}	credsdk.ErrorResponse		"no accepted dashboard profile"
//	@Failure		429		{object}	credsdk.ErrorResponse		"rate limited"
//	@Router			/v1/login [post].
func (h *LoginHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	res, err := h.LoginService.Login(r.Context(), req.Email, req.Password, req.Fingerprint)
	if err != nil {
		writeServiceError(w, r, err, "login")
		return
	}

	if res.ChallengeRequired() {
		httpx.WriteJSON(w, http.StatusAccepted, credsdk.ChallengeResponse{
			ChallengeToken: res.ChallengeToken,
			Methods:        res.Methods,
			ExpiresAt:      res.ExpiresAt,
		})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tokenResponse(res))
}

// HandleSendOTP godoc
//
//	@Summary		Send Verification Code
//	@Description	Email a six digit code valid for five minutes. Any earlier code for the address stops working.
//	@Tags			Sign-in
//	@Accept			json
//	@Produce		json
//	@Param			request	body		credsdk.SendOTPRequest	true	"Email"
//	@Success		202		{object}	credsdk.SendOTPResponse	"expires_in"
//	@Failure		400		{object}	credsdk.ErrorResponse	"error, error_description"
//	@Failure		429		{object}	credsdk.ErrorResponse	"rate limited"
//	@Failure		502		{object}	credsdk.ErrorResponse	"email not delivered"
//	@Failure		503		{object}	credsdk.ErrorResponse	"rate limiter unavailable"
//	@Router			/v1/otp/send [post].
func (h *LoginHandler) HandleSendOTP(w http.ResponseWriter, r *http.Request) {
	var req credsdk.SendOTPRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := h.OTPService.Issue(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err, "send otp")
		return
	}
	httpx.WriteJSON(w, http.StatusAccepted, credsdk.SendOTPResponse{
		ExpiresIn: int(domain.OTPTTL / time.Second),
	})
}

// HandleVerifyOTP godoc
//
//	@Summary		Verify Code
//	@Description	Check an emailed or authenticator code. With challenge_token the sign-in is completed and an access token returned.
//	@Description	remember_device with a fingerprint trusts this device for 30 days, only after a successful check.
//	@Tags			Sign-in
//	@Accept			json
//	@Produce		json
//	@Param			request	body		credsdk.VerifyOTPRequest	true	"Code"
//	@Success		200		{object}	credsdk.TokenResponse		"access token when challenge_token was given, otherwise {verified: true}"
//	@Failure		400		{object}	credsdk.ErrorResponse		"incorrect code or invalid request"
//	@Failure		401		{object}	credsdk.ErrorResponse		"invalid challenge"
//	@Failure		404		{object}	credsdk.ErrorResponse		"no code was sent"
//	@Failure		409		{object}	credsdk.ErrorResponse		"code already used or superseded"
//	@Failure		410		{object}	credsdk.ErrorResponse		"code expired"
//	@Failure		429		{object}	credsdk.ErrorResponse		"rate limited"
//	@Router			/v1/otp/verify [post].
func (h *LoginHandler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req credsdk.VerifyOTPRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if req.ChallengeToken != "" {
		res, err := h.LoginService.CompleteChallenge(r.Context(), service.ChallengeResponse{
			ChallengeToken: req.ChallengeToken,
			Code:           req.Code,
			Method:         req.Method,
			RememberDevice: req.RememberDevice,
			Fingerprint:    req.Fingerprint,
		})
		if err != nil {
			writeServiceError(w, r, err, "complete challenge")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, tokenResponse(res))
		return
	}

	err := h.OTPService.Verify(r.Context(), service.VerifyRequest{
		Email:          req.Email,
		Code:           req.Code,
		Method:         req.Method,
		RememberDevice: req.RememberDevice,
		Fingerprint:    req.Fingerprint,
	})
	if err != nil {
		writeServiceError(w, r, err, "verify otp")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, credsdk.VerifyOTPResponse{Verified: true})
}

func tokenResponse(res service.LoginResult) credsdk.TokenResponse {
	return credsdk.TokenResponse{
		AccessToken: res.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   max(int(time.Until(res.ExpiresAt).Round(time.Second).Seconds()), 0),
		UserID:      res.UserID,
		Role:        string(res.Role),
		ScopeID:     res.ScopeID,
	}
}
