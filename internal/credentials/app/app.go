package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/fieldbank/internal/credentials/http"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/identity"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/mailer"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/ratelimit"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/service"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/store"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/store/drivers/postgres"
	"github.com/aussiebroadwan/fieldbank/internal/credentials/store/drivers/sqlite"
	"github.com/aussiebroadwan/fieldbank/pkg/httpx"
	"github.com/aussiebroadwan/fieldbank/pkg/slogx"
	"github.com/redis/go-redis/v9"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application holds the credentials service and everything it depends on.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db    store.Store
	keys  Keys
	redis *redis.Client

	identities *identity.StoreProvider
	dispatcher mailer.Dispatcher
	limiters   limiters

	invitationService    *service.InvitationService
	otpService           *service.OTPService
	deviceService        *service.DeviceTrustService
	loginService         *service.LoginService
	bootstrapService     *service.BootstrapService
	authenticatorService *service.AuthenticatorService
	reconcilerService    *service.ReconcilerService
	housekeepingService  *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

type limiters struct {
	send   ratelimit.Limiter
	verify ratelimit.Limiter
	reset  ratelimit.Limiter

	// pinger is set when the limiters live in Redis, so readiness can
	// report on it.
	pinger httpapi.Pinger
}

// New builds the application. Nothing is listening until Run.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "credentials-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
			Output:  cfg.LogOutput,
		}),
	}

	keys, err := InitKeys(cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize keys: %w", err)
	}
	app.keys = keys

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initMailer(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	if err := app.initLimiters(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Store exposes the opened store to the operator CLI, which runs the same
// services without the HTTP layer.
func (app *Application) Store() store.Store { return app.db }

func (app *Application) Logger() *slog.Logger { return app.logger }

func (app *Application) Bootstrap() *service.BootstrapService { return app.bootstrapService }

func (app *Application) Reconciler() *service.ReconcilerService { return app.reconcilerService }

func (app *Application) Invitations() *service.InvitationService { return app.invitationService }

func (app *Application) Housekeeping() *service.HousekeepingService { return app.housekeepingService }

// Run starts the background loops and the server and blocks until shutdown
// is requested.
func (app *Application) Run() error {
	app.reconcilerService.Start()
	app.housekeepingService.Start()

	app.logger.Info("credentials service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains the server, stops the loops and closes connections.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down credentials service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.reconcilerService.Stop()
	app.housekeepingService.Stop()

	return app.Close()
}

// Close releases the store and Redis connection without touching the
// server. The CLI calls it directly.
func (app *Application) Close() error {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("credentials service stopped")
	return nil
}

// initDatabase opens the configured driver and applies migrations.
func (app *Application) initDatabase() error {
	var (
		db  store.Store
		err error
	)

	switch app.cfg.DatabaseDriver {
	case "postgres":
		if app.cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
		db, err = postgres.NewStore(app.cfg.DatabaseURL)
	case "sqlite", "":
		host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
		db, err = sqlite.NewStore(host)
	default:
		return fmt.Errorf("unknown DATABASE_DRIVER %q", app.cfg.DatabaseDriver)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

func (app *Application) initMailer() error {
	ctx := slogx.WithContext(context.Background(), app.logger)

	switch app.cfg.Mailer {
	case "smtp":
		cfg, err := mailer.LoadSMTPConfig()
		if err != nil {
			return fmt.Errorf("failed to load SMTP config: %w", err)
		}
		d, err := mailer.NewSMTPDispatcher(cfg)
		if err != nil {
			return err
		}
		app.dispatcher = d
	case "ses":
		cfg, err := mailer.LoadSESConfig()
		if err != nil {
			return fmt.Errorf("failed to load SES config: %w", err)
		}
		d, err := mailer.NewSESDispatcher(ctx, cfg)
		if err != nil {
			return err
		}
		app.dispatcher = d
	case "log", "":
		if app.cfg.Env != "dev" {
			app.logger.Warn("MAILER=log outside dev, emails will not be delivered")
		}
		app.dispatcher = mailer.LogDispatcher{IncludeBody: app.cfg.Env == "dev"}
	default:
		return fmt.Errorf("unknown MAILER %q", app.cfg.Mailer)
	}

	app.logger.Info("mailer configured", "provider", app.cfg.Mailer)
	return nil
}

// initLimiters shares OTP limits through Redis when REDIS_ADDR is set and
// keeps them in process otherwise.
func (app *Application) initLimiters() error {
	send := ratelimit.Policy{
		Window:   app.cfg.OTPSendWindow,
		Max:      app.cfg.OTPSendMax,
		Cooldown: app.cfg.OTPSendCooldown,
	}
	verify := ratelimit.Policy{
		Window: app.cfg.OTPSendWindow,
		Max:    app.cfg.OTPVerifyMax,
	}

	if app.cfg.RedisAddr == "" {
		var err error
		if app.limiters.send, err = ratelimit.NewLocalLimiter(send); err != nil {
			return err
		}
		if app.limiters.verify, err = ratelimit.NewLocalLimiter(verify); err != nil {
			return err
		}
		if app.limiters.reset, err = ratelimit.NewLocalLimiter(send); err != nil {
			return err
		}
		app.logger.Info("using in-process OTP rate limits")
		return nil
	}

	app.redis = redis.NewClient(&redis.Options{
		Addr:     app.cfg.RedisAddr,
		Password: app.cfg.RedisPassword,
	})

	sendLimiter, err := ratelimit.NewRedisLimiter(app.redis, "otp_send", send)
	if err != nil {
		return err
	}
	if app.limiters.verify, err = ratelimit.NewRedisLimiter(app.redis, "otp_verify", verify); err != nil {
		return err
	}
	if app.limiters.reset, err = ratelimit.NewRedisLimiter(app.redis, "password_reset", send); err != nil {
		return err
	}
	app.limiters.send = sendLimiter
	app.limiters.pinger = sendLimiter

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := sendLimiter.Ping(ctx); err != nil {
		// Not fatal. Requests fail closed until Redis comes back.
		app.logger.Warn("redis not reachable at startup", "addr", app.cfg.RedisAddr, "error", err)
	}

	app.logger.Info("using redis OTP rate limits", "addr", app.cfg.RedisAddr)
	return nil
}

func (app *Application) initServices() {
	renderer := mailer.MustRenderer()

	app.identities = identity.NewStoreProvider(app.db, app.cfg.Issuer)

	app.deviceService = &service.DeviceTrustService{
		Store: app.db,
		Key:   app.keys.DeviceKey,
	}
	app.invitationService = &service.InvitationService{
		Store:        app.db,
		Identities:   app.identities,
		Mailer:       app.dispatcher,
		Renderer:     renderer,
		AppBaseURL:   app.cfg.AppBaseURL,
		ResetLimiter: app.limiters.reset,
	}
	app.otpService = &service.OTPService{
		Store:         app.db,
		Identities:    app.identities,
		Devices:       app.deviceService,
		Mailer:        app.dispatcher,
		Renderer:      renderer,
		SendLimiter:   app.limiters.send,
		VerifyLimiter: app.limiters.verify,
		CodeKey:       app.keys.CodeKey,
	}
	app.loginService = &service.LoginService{
		Store:      app.db,
		Identities: app.identities,
		Devices:    app.deviceService,
		OTP:        app.otpService,
		Signer:     app.keys.Signer,
		Verifier:   app.keys.Verifier,
		Issuer:     app.cfg.Issuer,
	}
	app.bootstrapService = &service.BootstrapService{
		Store:      app.db,
		Identities: app.identities,
	}
	app.authenticatorService = &service.AuthenticatorService{Identities: app.identities}

	app.reconcilerService = service.NewReconcilerService(
		app.db,
		app.identities,
		app.logger,
		app.cfg.ReconcileInterval,
	)
	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keys.Verifier,
		BuildVersion,
		app.db,
		app.logger,
		httpx.LoadProfiles(),
	)

	router.InvitationService = app.invitationService
	router.OTPService = app.otpService
	router.LoginService = app.loginService
	router.ReconcilerService = app.reconcilerService
	router.AuthenticatorService = app.authenticatorService
	router.Limiter = app.limiters.pinger
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
