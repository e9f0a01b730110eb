/*
Package credsdk is a client for the Fieldbank credentials service.

# SDKClient vs Session

SDKClient covers the public endpoints: invitation links, password reset
requests, emailed codes and sign-in. Signing in yields a Session, which
carries the access token for account and admin endpoints.

	client := credsdk.NewSDKClient("https://credentials.example.com")

	session, err := client.Login(ctx, credsdk.LoginRequest{
		Email:       "ops@fieldbank.example",
		Password:    password,
		Fingerprint: deviceID,
	})

	var challenge *credsdk.ChallengeRequiredError
	if errors.As(err, &challenge) {
		session, err = client.CompleteChallenge(ctx, challenge, credsdk.VerifyOTPRequest{
			Code:           code,
			RememberDevice: true,
			Fingerprint:    deviceID,
		})
	}

# Admin operations

	inv, err := session.IssueInvitation(ctx, credsdk.IssueInvitationRequest{
		Email:   "viewer@bank.example",
		Role:    "bank_viewer",
		ScopeID: "bank-042",
	})

A 502 from IssueInvitation means the invitation exists but its email did
not go out; the response still carries the invitation id for
ResendInvitation.

# Errors

Every non-2xx response becomes an *APIError. Match codes with HasCode:

	if credsdk.HasCode(err, credsdk.ErrorCodeExpired) {
		// ask an admin for a new invitation
	}
*/
package credsdk
