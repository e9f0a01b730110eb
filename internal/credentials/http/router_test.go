package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/fieldbank/internal/credentials/domain"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/identity"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/mailer"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/mailer/mailertest"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/ratelimit"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/service"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/store/drivers/sqlite"
	"github.com/aussiebroadwan/fieldbank/pkg/credsdk"
	"github.com/aussiebroadwan/fieldbank/pkg/cryptox"
	"github.com/aussiebroadwan/fieldbank/pkg/httpx"
	"github.com/aussiebroadwan/fieldbank/pkg/jwtx"
	"github.com/aussiebroadwan/fieldbank/pkg/slogx"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	cryptox.SetPepper("http-test-pepper")
	cryptox.SetMasterKey([]byte("http-test-master-key"))
	os.Exit(m.Run())
}

const testIssuer = "fieldbank-test"

var (
	testSigningKey = []byte("0123456789abcdef0123456789abcdef")
	linkTokenRe    = regexp.MustCompile(`token=([A-Za-z0-9_-]+)`)
	codeRe         = regexp.MustCompile(`\b(\d{6})\b`)
)

// generous keeps the per-IP middleware out of the way; every test request
// comes from the same address.
var generous = httpx.RateLimitConfig{RequestsPerWindow: 10000, Window: time.Minute, Burst: 10000}

type testServer struct {
	router *Router
	store  *sqlite.Store
	ids    *identity.StoreProvider
	mail   *mailertest.MockDispatcher
	signer jwtx.Signer

	mu   sync.Mutex
	sent []mailer.Message
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })

	signer, err := jwtx.NewSignerHS256(testSigningKey)
	require.NoError(t, err)
	verifier := jwtx.NewVerifierHS256(testSigningKey, testIssuer, time.Minute)

	ts := &testServer{
		store:  s,
		ids:    identity.NewStoreProvider(s, "Fieldbank"),
		mail:   &mailertest.MockDispatcher{},
		signer: signer,
	}

	renderer := mailer.MustRenderer()
	devices := &service.DeviceTrustService{Store: s, Key: []byte("device-key")}
	invites := &service.InvitationService{
		Store:      s,
		Identities: ts.ids,
		Mailer:     ts.mail,
		Renderer:   renderer,
		AppBaseURL: "https://dash.example",
	}
	otp := &service.OTPService{
		Store:      s,
		Identities: ts.ids,
		Devices:    devices,
		Mailer:     ts.mail,
		Renderer:   renderer,
		CodeKey:    []byte("otp-key"),
	}

	profiles := httpx.Profiles{Strict: generous, Moderate: generous, Lenient: generous, Public: generous}
	r := NewRouter(verifier, "test", s, slogx.Discard(), profiles)
	r.InvitationService = invites
	r.OTPService = otp
	r.LoginService = &service.LoginService{
		Store:      s,
		Identities: ts.ids,
		Devices:    devices,
		OTP:        otp,
		Signer:     signer,
		Verifier:   verifier,
		Issuer:     testIssuer,
	}
	r.ReconcilerService = service.NewReconcilerService(s, ts.ids, slogx.Discard(), time.Hour)
	r.AuthenticatorService = &service.AuthenticatorService{Identities: ts.ids}
	r.ApplyRoutes()

	ts.router = r
	return ts
}

// mailOK makes every send succeed and records the message.
func (ts *testServer) mailOK() {
	ts.mail.On("Send", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			ts.mu.Lock()
			defer ts.mu.Unlock()
			ts.sent = append(ts.sent, args.Get(1).(mailer.Message))
		}).
		Return(nil)
}

func (ts *testServer) lastMail(t *testing.T) mailer.Message {
	t.Helper()
	ts.mu.Lock()
	defer ts.mu.Unlock()
	require.NotEmpty(t, ts.sent, "no email was sent")
	return ts.sent[len(ts.sent)-1]
}

func (ts *testServer) mailCount() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.sent)
}

func (ts *testServer) token(t *testing.T, userID string, role domain.Role) string {
	t.Helper()
	c := jwtx.NewClaims(userID, jwtx.PurposeAccess, testIssuer, time.Minute, time.Now())
	c.Role = string(role)
	c.Email = userID + "@fieldbank.example"
	tok, err := ts.signer.Sign(c)
	require.NoError(t, err)
	return tok
}

func (ts *testServer) do(t *testing.T, method, path string, body any, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func linkToken(t *testing.T, m mailer.Message) string {
	t.Helper()
	match := linkTokenRe.FindStringSubmatch(m.Text)
	require.Len(t, match, 2)
	return match[1]
}

func mailCode(t *testing.T, m mailer.Message) string {
	t.Helper()
	match := codeRe.FindStringSubmatch(m.Text)
	require.Len(t, match, 2)
	return match[1]
}

func TestIssueRequiresAdmin(t *testing.T) {
	ts := newTestServer(t)
	ts.mailOK()
	req := credsdk.IssueInvitationRequest{Email: "viewer@bank.com", Role: "bank_viewer", ScopeID: "bank-1"}

	rec := ts.do(t, http.MethodPost, "/v1/invitations", req, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodPost, "/v1/invitations", req, ts.token(t, "someone", domain.RoleBankViewer))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Zero(t, ts.mailCount())
}

func TestInvitationLifecycle(t *testing.T) {
	ts := newTestServer(t)
	ts.mailOK()
	admin := ts.token(t, "ops", domain.RoleAdmin)
	req := credsdk.IssueInvitationRequest{Email: "Viewer@Bank.com", Role: "bank_viewer", ScopeID: "bank-1"}

	rec := ts.do(t, http.MethodPost, "/v1/invitations", req, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	issued := decode[credsdk.IssueInvitationResponse](t, rec)
	require.NotEmpty(t, issued.InvitationID)

	rec = ts.do(t, http.MethodPost, "/v1/invitations", req, admin)
	require.Equal(t, http.StatusConflict, rec.Code)
	conflict := decode[credsdk.ErrorResponse](t, rec)
	require.Equal(t, credsdk.ErrorCodeConflict, conflict.Error)
	require.Equal(t, issued.InvitationID, conflict.InvitationID)

	token := linkToken(t, ts.lastMail(t))

	rec = ts.do(t, http.MethodGet, "/v1/invitations/"+token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	info := decode[credsdk.TokenInfoResponse](t, rec)
	require.Equal(t, "viewer@bank.com", info.Email)
	require.Equal(t, "pending", info.Status)
	require.Equal(t, 1, info.ClicksCount)

	rec = ts.do(t, http.MethodPost, "/v1/invitations/"+token+"/accept", credsdk.AcceptInvitationRequest{Credential: "short"}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/v1/invitations/"+token+"/accept", credsdk.AcceptInvitationRequest{Credential: "correct horse battery"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	accepted := decode[credsdk.AcceptInvitationResponse](t, rec)
	require.Equal(t, "bank_viewer", accepted.Role)

	rec = ts.do(t, http.MethodPost, "/v1/invitations/"+token+"/accept", credsdk.AcceptInvitationRequest{Credential: "correct horse battery"}, "")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, credsdk.ErrorCodeAlreadyUsed, decode[credsdk.ErrorResponse](t, rec).Error)

	rec = ts.do(t, http.MethodGet, "/v1/invitations/not-a-token", nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIssueRejectsBadInput(t *testing.T) {
	ts := newTestServer(t)
	ts.mailOK()
	admin := ts.token(t, "ops", domain.RoleAdmin)

	tests := []struct {
		name string
		body any
	}{
		{"unknown field", map[string]any{"email": "a@bank.com", "role": "admin", "superuser": true}},
		{"bad email", credsdk.IssueInvitationRequest{Email: "nope", Role: "admin"}},
		{"unknown role", credsdk.IssueInvitationRequest{Email: "a@bank.com", Role: "owner"}},
		{"scoped admin", credsdk.IssueInvitationRequest{Email: "a@bank.com", Role: "admin", ScopeID: "bank-1"}},
		{"unscoped viewer", credsdk.IssueInvitationRequest{Email: "a@bank.com", Role: "bank_viewer"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/v1/invitations", tt.body, admin)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			require.Equal(t, credsdk.ErrorCodeInvalidRequest, decode[credsdk.ErrorResponse](t, rec).Error)
		})
	}
	require.Zero(t, ts.mailCount())
}

func TestIssueDeliveryFailureKeepsInvitation(t *testing.T) {
	ts := newTestServer(t)
	ts.mail.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp: 421 try later")).Once()
	ts.mailOK()
	admin := ts.token(t, "ops", domain.RoleAdmin)

	rec := ts.do(t, http.MethodPost, "/v1/invitations",
		credsdk.IssueInvitationRequest{Email: "viewer@bank.com", Role: "bank_viewer", ScopeID: "bank-1"}, admin)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	out := decode[credsdk.IssueInvitationResponse](t, rec)
	require.NotEmpty(t, out.InvitationID)
	require.Equal(t, credsdk.ErrorCodeDeliveryFailed, out.Error)
	require.NotContains(t, rec.Body.String(), "421")

	rec = ts.do(t, http.MethodPost, "/v1/admin/invitations/"+out.InvitationID+"/resend", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/v1/invitations/"+linkToken(t, ts.lastMail(t)), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminCancelListDelete(t *testing.T) {
	ts := newTestServer(t)
	ts.mailOK()
	admin := ts.token(t, "ops", domain.RoleAdmin)

	issue := func(email string) string {
		rec := ts.do(t, http.MethodPost, "/v1/invitations",
			credsdk.IssueInvitationRequest{Email: email, Role: "specialist", ScopeID: "bank-9"}, admin)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		return decode[credsdk.IssueInvitationResponse](t, rec).InvitationID
	}

	first := issue("one@bank.com")
	token := linkToken(t, ts.lastMail(t))
	second := issue("two@bank.com")

	rec := ts.do(t, http.MethodPost, "/v1/admin/invitations/"+first+"/cancel", nil, admin)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodPost, "/v1/admin/invitations/"+first+"/cancel", nil, admin)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodGet, "/v1/invitations/"+token, nil, "")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, credsdk.ErrorCodeCancelled, decode[credsdk.ErrorResponse](t, rec).Error)

	rec = ts.do(t, http.MethodGet, "/v1/admin/invitations?scope_id=bank-9&status=pending", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[credsdk.ListInvitationsResponse](t, rec)
	require.Len(t, list.Invitations, 1)
	require.Equal(t, second, list.Invitations[0].ID)

	rec = ts.do(t, http.MethodGet, "/v1/admin/invitations?limit=0", nil, admin)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = ts.do(t, http.MethodGet, "/v1/admin/invitations?status=bogus", nil, admin)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/v1/admin/invitations/"+second, nil, admin)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(t, http.MethodDelete, "/v1/admin/invitations/"+second, nil, admin)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

// onboard takes email through invitation and acceptance over the API.
func (ts *testServer) onboard(t *testing.T, email string) {
	t.Helper()
	admin := ts.token(t, "ops", domain.RoleAdmin)

	rec := ts.do(t, http.MethodPost, "/v1/invitations",
		credsdk.IssueInvitationRequest{Email: email, Role: "bank_viewer", ScopeID: "bank-1"}, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/v1/invitations/"+linkToken(t, ts.lastMail(t))+"/accept",
		credsdk.AcceptInvitationRequest{Credential: "correct horse battery"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestLoginWithChallengeAndRememberedDevice(t *testing.T) {
	ts := newTestServer(t)
	ts.mailOK()
	ts.onboard(t, "viewer@bank.com")

	login := credsdk.LoginRequest{Email: "viewer@bank.com", Password: "correct horse battery", Fingerprint: "laptop"}

	rec := ts.do(t, http.MethodPost, "/v1/login", credsdk.LoginRequest{Email: "viewer@bank.com", Password: "wrong password"}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodPost, "/v1/login", login, "")
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	challenge := decode[credsdk.ChallengeResponse](t, rec)
	require.Equal(t, []string{"email_otp"}, challenge.Methods)

	code := mailCode(t, ts.lastMail(t))
	rec = ts.do(t, http.MethodPost, "/v1/otp/verify", credsdk.VerifyOTPRequest{
		ChallengeToken: challenge.ChallengeToken,
		Code:           code,
		RememberDevice: true,
		Fingerprint:    "laptop",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tok := decode[credsdk.TokenResponse](t, rec)
	require.Equal(t, "Bearer", tok.TokenType)
	require.Equal(t, "bank_viewer", tok.Role)
	require.Positive(t, tok.ExpiresIn)

	// The same code can't be replayed.
	rec = ts.do(t, http.MethodPost, "/v1/otp/verify", credsdk.VerifyOTPRequest{ChallengeToken: challenge.ChallengeToken, Code: code}, "")
	require.Equal(t, http.StatusConflict, rec.Code)

	sent := ts.mailCount()
	rec = ts.do(t, http.MethodPost, "/v1/login", login, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, sent, ts.mailCount())

	// The access token opens authenticated endpoints.
	rec = ts.do(t, http.MethodPost, "/v1/totp/enroll", nil, decode[credsdk.TokenResponse](t, rec).AccessToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotEmpty(t, decode[credsdk.TOTPEnrollResponse](t, rec).OTPAuthURL)
}

func TestChallengeTokenIsNotAnAccessToken(t *testing.T) {
	ts := newTestServer(t)
	ts.mailOK()
	ts.onboard(t, "viewer@bank.com")

	rec := ts.do(t, http.MethodPost, "/v1/login", credsdk.LoginRequest{Email: "viewer@bank.com", Password: "correct horse battery"}, "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	challenge := decode[credsdk.ChallengeResponse](t, rec)

	rec = ts.do(t, http.MethodPost, "/v1/totp/enroll", nil, challenge.ChallengeToken)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOTPSendAndVerify(t *testing.T) {
	ts := newTestServer(t)
	ts.mailOK()

	rec := ts.do(t, http.MethodPost, "/v1/otp/send", credsdk.SendOTPRequest{Email: "viewer@bank.com"}, "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, 300, decode[credsdk.SendOTPResponse](t, rec).ExpiresIn)
	first := mailCode(t, ts.lastMail(t))

	rec = ts.do(t, http.MethodPost, "/v1/otp/send", credsdk.SendOTPRequest{Email: "viewer@bank.com"}, "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	second := mailCode(t, ts.lastMail(t))

	if first != second {
		rec = ts.do(t, http.MethodPost, "/v1/otp/verify", credsdk.VerifyOTPRequest{Email: "viewer@bank.com", Code: first}, "")
		require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	}

	wrong := "000000"
	for _, c := range []string{"111111", "222222"} {
		if wrong != first && wrong != second {
			break
		}
		wrong = c
	}
	rec = ts.do(t, http.MethodPost, "/v1/otp/verify", credsdk.VerifyOTPRequest{Email: "viewer@bank.com", Code: wrong}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, credsdk.ErrorCodeIncorrectCode, decode[credsdk.ErrorResponse](t, rec).Error)

	rec = ts.do(t, http.MethodPost, "/v1/otp/verify", credsdk.VerifyOTPRequest{Email: "viewer@bank.com", Code: second}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.True(t, decode[credsdk.VerifyOTPResponse](t, rec).Verified)
}

func TestOTPSendRateLimited(t *testing.T) {
	ts := newTestServer(t)
	ts.mailOK()

	limiter, err := ratelimit.NewLocalLimiter(ratelimit.Policy{Window: time.Hour, Max: 5, Cooldown: time.Minute})
	require.NoError(t, err)
	ts.router.OTPService.SendLimiter = limiter

	rec := ts.do(t, http.MethodPost, "/v1/otp/send", credsdk.SendOTPRequest{Email: "viewer@bank.com"}, "")
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = ts.do(t, http.MethodPost, "/v1/otp/send", credsdk.SendOTPRequest{Email: "viewer@bank.com"}, "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
	require.Positive(t, decode[credsdk.ErrorResponse](t, rec).RetryAfter)
}

func TestPasswordResetNeverRevealsAccounts(t *testing.T) {
	ts := newTestServer(t)
	ts.mailOK()
	ts.onboard(t, "viewer@bank.com")
	before := ts.mailCount()

	rec := ts.do(t, http.MethodPost, "/v1/password-resets", credsdk.PasswordResetRequest{Email: "ghost@bank.com"}, "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, before, ts.mailCount())

	rec = ts.do(t, http.MethodPost, "/v1/password-resets", credsdk.PasswordResetRequest{Email: "viewer@bank.com"}, "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, before+1, ts.mailCount())

	// Admins are told when there is no account.
	admin := ts.token(t, "ops", domain.RoleAdmin)
	rec = ts.do(t, http.MethodPost, "/v1/admin/password-resets", credsdk.PasswordResetRequest{Email: "ghost@bank.com"}, admin)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminReconcile(t *testing.T) {
	ts := newTestServer(t)
	ts.mailOK()
	admin := ts.token(t, "ops", domain.RoleAdmin)

	rec := ts.do(t, http.MethodPost, "/v1/invitations",
		credsdk.IssueInvitationRequest{Email: "drift@bank.com", Role: "bank_viewer", ScopeID: "bank-1"}, admin)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Credential set and a completed sign-in recorded outside the link flow.
	ident, err := ts.ids.LookupByEmail(context.Background(), "drift@bank.com")
	require.NoError(t, err)
	require.NoError(t, ts.ids.SetCredential(context.Background(), ident.ID, "correct horse battery"))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, ts.ids.RecordSignIn(context.Background(), ident.ID))

	rec = ts.do(t, http.MethodPost, "/v1/admin/reconcile", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, credsdk.ReconcileResponse{Scanned: 1, Repaired: 1}, decode[credsdk.ReconcileResponse](t, rec))
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/livez", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decode[credsdk.HealthResponse](t, rec).Status)

	rec = ts.do(t, http.MethodGet, "/readyz", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[credsdk.HealthResponse](t, rec)
	require.Equal(t, "ok", health.Checks.Database)
	require.Empty(t, health.Checks.RateLimiter)

	handler := ReadyzHandler(time.Now(), "test", ts.store, fakePinger{err: errors.New("connection refused")})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, decode[credsdk.HealthResponse](t, rec).Checks.RateLimiter, "connection refused")
}

func TestErrorTable(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &service.ValidationError{Field: "email", Reason: "required"}, http.StatusBadRequest, credsdk.ErrorCodeInvalidRequest},
		{"expired", errors.Join(errors.New("invitation"), service.ErrExpired), http.StatusGone, credsdk.ErrorCodeExpired},
		{"already used", service.ErrAlreadyUsed, http.StatusConflict, credsdk.ErrorCodeAlreadyUsed},
		{"rate limited", &service.RateLimitError{RetryAfter: 1500 * time.Millisecond}, http.StatusTooManyRequests, credsdk.ErrorCodeRateLimited},
		{"provisioning", &service.ProvisioningError{Err: errors.New("ldap down")}, http.StatusBadGateway, credsdk.ErrorCodeProvisioningFailed},
		{"unavailable", service.ErrUnavailable, http.StatusServiceUnavailable, credsdk.ErrorCodeUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, credsdk.ErrorCodeServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := errorResponse(tt.err)
			require.Equal(t, tt.status, status)
			require.Equal(t, tt.code, body.Error)
			if status >= http.StatusInternalServerError {
				require.NotContains(t, body.ErrorDescription, "ldap")
				require.NotContains(t, body.ErrorDescription, "boom")
			}
		})
	}

	_, body := errorResponse(&service.RateLimitError{RetryAfter: 1500 * time.Millisecond})
	require.Equal(t, 2, body.RetryAfter)
}
