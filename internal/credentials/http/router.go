package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/fieldbank/internal/credentials/domain"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/service"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/store"
	"github.com/aussiebroadwan/fieldbank/pkg/httpx"
	"github.com/aussiebroadwan/fieldbank/pkg/jwtx"
	"github.com/aussiebroadwan/fieldbank/pkg/slogx"

	_ "github.com/aussiebroadwan/fieldbank/api/credentials" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	profiles     httpx.Profiles
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	// Limiter is pinged by /readyz when the OTP limiter is shared (Redis).
	Limiter Pinger

	InvitationService    *service.InvitationService
	OTPService           *service.OTPService
	LoginService         *service.LoginService
	ReconcilerService    *service.ReconcilerService
	AuthenticatorService *service.AuthenticatorService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
	profiles httpx.Profiles,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		profiles:     profiles,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerInvitations()
	r.registerSignIn()
	r.registerAuthenticator()
	r.registerAdmin()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Fieldbank Credentials Service API
//	@version		0.1.0
//	@description	Issues and verifies dashboard credentials: invitation and password reset links, emailed one-time codes, trusted devices and sign-in.
//	@description
//	@description				Access tokens are HS256 JWTs. Admin endpoints require the admin role.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/fieldbank
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// admin wraps h with bearer authentication, the admin role check and a
// per-user limit.
func (r *Router) admin(h http.HandlerFunc) http.Handler {
	return httpx.Chain(h,
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireRole(string(domain.RoleAdmin)),
		httpx.RateLimitByUser(r.profiles.Moderate),
	)
}

func (r *Router) registerInvitations() {
	h := &InvitationHandler{InvitationService: r.InvitationService}

	// POST /v1/invitations - admin only
	r.Mux.Handle("POST /v1/invitations", r.admin(h.HandleIssue))

	// GET /v1/invitations/{token} - link click, lenient by IP
	r.Mux.Handle("GET /v1/invitations/{token}",
		httpx.Chain(http.HandlerFunc(h.HandleValidate),
			httpx.RateLimitByIP(r.profiles.Lenient),
		),
	)

	// POST /v1/invitations/{token}/accept - sets a credential, strict by IP
	r.Mux.Handle("POST /v1/invitations/{token}/accept",
		httpx.Chain(http.HandlerFunc(h.HandleAccept),
			httpx.RateLimitByIP(r.profiles.Strict),
		),
	)

	// POST /v1/password-resets - public, strict by IP; the service also
	// limits per email
	r.Mux.Handle("POST /v1/password-resets",
		httpx.Chain(http.HandlerFunc(h.HandleRequestPasswordReset),
			httpx.RateLimitByIP(r.profiles.Strict),
		),
	)
}

func (r *Router) registerSignIn() {
	h := &LoginHandler{LoginService: r.LoginService, OTPService: r.OTPService}

	r.Mux.Handle("POST /v1/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(r.profiles.Strict),
		),
	)
	r.Mux.Handle("POST /v1/otp/send",
		httpx.Chain(http.HandlerFunc(h.HandleSendOTP),
			httpx.RateLimitByIP(r.profiles.Strict),
		),
	)
	r.Mux.Handle("POST /v1/otp/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyOTP),
			httpx.RateLimitByIP(r.profiles.Strict),
		),
	)
}

func (r *Router) registerAuthenticator() {
	h := &TOTPHandler{AuthenticatorService: r.AuthenticatorService}

	r.Mux.Handle("POST /v1/totp/enroll",
		httpx.Chain(http.HandlerFunc(h.HandleEnroll),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(r.profiles.Moderate),
		),
	)
	// Strict: guessing confirmation codes
	r.Mux.Handle("POST /v1/totp/confirm",
		httpx.Chain(http.HandlerFunc(h.HandleConfirm),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(r.profiles.Strict),
		),
	)
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{
		InvitationService: r.InvitationService,
		ReconcilerService: r.ReconcilerService,
	}

	r.Mux.Handle("GET /v1/admin/invitations", r.admin(h.HandleList))
	r.Mux.Handle("POST /v1/admin/invitations/{id}/cancel", r.admin(h.HandleCancel))
	r.Mux.Handle("POST /v1/admin/invitations/{id}/resend", r.admin(h.HandleResend))
	r.Mux.Handle("DELETE /v1/admin/invitations/{id}", r.admin(h.HandleDelete))
	r.Mux.Handle("POST /v1/admin/password-resets", r.admin(h.HandlePasswordReset))
	r.Mux.Handle("POST /v1/admin/reconcile", r.admin(h.HandleReconcile))
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.profiles.Lenient),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.Limiter),
			httpx.RateLimitByIP(r.profiles.Lenient),
		),
	)
}
