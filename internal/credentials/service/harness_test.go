package service

import (
	"context"
	"errors"
	"os"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/fieldbank/internal/credentials/domain"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/identity"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/mailer"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/mailer/mailertest"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/store"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/store/drivers/sqlite"
	"github.com/aussiebroadwan/fieldbank/pkg/cryptox"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	cryptox.SetPepper("service-test-pepper")
	cryptox.SetMasterKey([]byte("service-test-master-key"))
	os.Exit(m.Run())
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// outbox captures everything sent through a mock dispatcher.
type outbox struct {
	mu   sync.Mutex
	msgs []mailer.Message
}

func (o *outbox) add(m mailer.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, m)
}

func (o *outbox) last(t *testing.T) mailer.Message {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.msgs, "no email was sent")
	return o.msgs[len(o.msgs)-1]
}

func (o *outbox) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.msgs)
}

var (
	tokenRe = regexp.MustCompile(`token=([A-Za-z0-9_-]+)`)
	codeRe  = regexp.MustCompile(`\b(\d{6})\b`)
)

func tokenFrom(t *testing.T, m mailer.Message) string {
	t.Helper()
	match := tokenRe.FindStringSubmatch(m.Text)
	require.Len(t, match, 2, "no token in %q", m.Text)
	return match[1]
}

func codeFrom(t *testing.T, m mailer.Message) string {
	t.Helper()
	match := codeRe.FindStringSubmatch(m.Text)
	require.Len(t, match, 2, "no code in %q", m.Text)
	return match[1]
}

type harness struct {
	store   *sqlite.Store
	ids     *identity.StoreProvider
	mail    *mailertest.MockDispatcher
	outbox  *outbox
	clock   *fakeClock
	invites *InvitationService
	otp     *OTPService
	devices *DeviceTrustService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })

	h := &harness{
		store:  s,
		mail:   &mailertest.MockDispatcher{},
		outbox: &outbox{},
		clock:  newFakeClock(),
	}
	h.ids = &identity.StoreProvider{Store: s, Issuer: "Fieldbank", Now: h.clock.Now}

	renderer := mailer.MustRenderer()
	h.devices = &DeviceTrustService{Store: s, Key: []byte("device-key"), Now: h.clock.Now}
	h.invites = &InvitationService{
		Store:      s,
		Identities: h.ids,
		Mailer:     h.mail,
		Renderer:   renderer,
		AppBaseURL: "https://dash.example",
		Now:        h.clock.Now,
	}
	h.otp = &OTPService{
		Store:      s,
		Identities: h.ids,
		Devices:    h.devices,
		Mailer:     h.mail,
		Renderer:   renderer,
		CodeKey:    []byte("otp-key"),
		Now:        h.clock.Now,
	}
	return h
}

// mailOK makes every send succeed and land in the outbox.
func (h *harness) mailOK() {
	h.mail.On("Send", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { h.outbox.add(args.Get(1).(mailer.Message)) }).
		Return(nil)
}

func (h *harness) issue(t *testing.T, email string, role domain.Role, scope string) (domain.Invitation, string) {
	t.Helper()
	inv, err := h.invites.Issue(context.Background(), IssueRequest{Email: email, Role: role, ScopeID: scope, InvitedBy: "ops@fieldbank.example"})
	require.NoError(t, err)
	return inv, tokenFrom(t, h.outbox.last(t))
}

// failingProfilesStore fails every profile upsert made inside a
// transaction.
type failingProfilesStore struct{ store.Store }

func (f failingProfilesStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return f.Store.WithTx(ctx, func(tx store.Tx) error { return fn(failingProfilesTx{tx}) })
}

// baseTx names the embedded field something other than Tx, which would
// shadow the Store.Tx method.
type baseTx = store.Tx

type failingProfilesTx struct{ baseTx }

func (t failingProfilesTx) Profiles() store.Profiles { return failingProfiles{t.baseTx.Profiles()} }

type failingProfiles struct{ store.Profiles }

func (failingProfiles) UpsertPendingProfile(context.Context, domain.Profile) error {
	return errors.New("disk I/O error")
}

// brokenCredentials fails SetCredential and passes everything else through.
type brokenCredentials struct {
	*identity.StoreProvider
}

func (brokenCredentials) SetCredential(context.Context, string, string) error {
	return errors.New("identity backend unavailable")
}
