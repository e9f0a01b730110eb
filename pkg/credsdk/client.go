package credsdk

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// SDKClient talks to the credentials service. Public endpoints hang off the
// client directly; admin and account endpoints need a Session.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Login signs in with a password. When the device is not trusted the error
// is a *ChallengeRequiredError carrying the challenge to complete.
func (c *SDKClient) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/login", req, "")
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusAccepted {
		var challenge ChallengeResponse
		if err := decodeJSON(resp, &challenge, http.StatusAccepted); err != nil {
			return nil, err
		}
		return nil, &ChallengeRequiredError{ChallengeResponse: challenge}
	}

	var tok TokenResponse
	if err := decodeJSON(resp, &tok, http.StatusOK); err != nil {
		return nil, err
	}
	return c.NewSession(&tok), nil
}

// CompleteChallenge finishes a sign-in started by Login.
func (c *SDKClient) CompleteChallenge(ctx context.Context, challenge *ChallengeRequiredError, req VerifyOTPRequest) (*Session, error) {
	if challenge == nil {
		return nil, errors.New("credsdk: nil challenge")
	}
	req.ChallengeToken = challenge.ChallengeToken

	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/otp/verify", req, "")
	if err != nil {
		return nil, err
	}

	var tok TokenResponse
	if err := decodeJSON(resp, &tok, http.StatusOK); err != nil {
		return nil, err
	}
	return c.NewSession(&tok), nil
}

// NewSession wraps an access token obtained elsewhere. A zero ExpiresIn
// leaves the expiry to the server.
func (c *SDKClient) NewSession(tok *TokenResponse) *Session {
	s := &Session{
		client:      c,
		accessToken: tok.AccessToken,
		userID:      tok.UserID,
		role:        tok.Role,
	}
	if tok.ExpiresIn > 0 {
		s.expiresAt = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}
	return s
}
