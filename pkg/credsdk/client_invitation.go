package credsdk

import (
	"context"
	"net/http"
	"net/url"
)

// ValidateInvitation looks up the invitation or password reset behind a
// link token. Each call counts as a click.
func (c *SDKClient) ValidateInvitation(ctx context.Context, token string) (*TokenInfoResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/v1/invitations/"+url.PathEscape(token), nil, "")
	if err != nil {
		return nil, err
	}

	var info TokenInfoResponse
	if err := decodeJSON(resp, &info, http.StatusOK); err != nil {
		return nil, err
	}
	return &info, nil
}

// AcceptInvitation sets the credential and consumes the link.
func (c *SDKClient) AcceptInvitation(ctx context.Context, token, credential string) (*AcceptInvitationResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/invitations/"+url.PathEscape(token)+"/accept",
		AcceptInvitationRequest{Credential: credential}, "")
	if err != nil {
		return nil, err
	}

	var out AcceptInvitationResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestPasswordReset asks for a reset link. The service answers the same
// way whether or not the email is known.
func (c *SDKClient) RequestPasswordReset(ctx context.Context, email string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/password-resets", PasswordResetRequest{Email: email}, "")
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusAccepted)
}

// SendOTP emails a fresh code, superseding any earlier one.
func (c *SDKClient) SendOTP(ctx context.Context, email string) (*SendOTPResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/otp/send", SendOTPRequest{Email: email}, "")
	if err != nil {
		return nil, err
	}

	var out SendOTPResponse
	if err := decodeJSON(resp, &out, http.StatusAccepted); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyOTP checks a code outside a sign-in.
func (c *SDKClient) VerifyOTP(ctx context.Context, req VerifyOTPRequest) error {
	req.ChallengeToken = ""
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/otp/verify", req, "")
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusOK)
}
