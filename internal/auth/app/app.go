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

	httpapi "github.com/aussiebroadwan/gatekeeper/internal/auth/http"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/provider"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/service"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/gatekeeper/pkg/cryptox"
	"github.com/aussiebroadwan/gatekeeper/pkg/jwtx"
	"github.com/aussiebroadwan/gatekeeper/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags.
var BuildVersion = "v0.1.0"

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	db         store.Store
	keyManager *jwtx.KeyManager
	hasher     *cryptox.Hasher
	totpBox    *cryptox.SecretBox
	refresher  *provider.OAuth2Refresher

	sessionService       *service.SessionService
	accountService       *service.AccountService
	signInService        *service.SignInService
	mfaService           *service.MFAService
	ticketBroker         *service.TicketBroker
	providerTokenService *service.ProviderTokenService
	housekeepingService  *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initSecrets(); err != nil {
		return nil, err
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	keyManager, err := InitAuthKeys(app.cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize JWT keys: %w", err)
	}
	app.keyManager = keyManager

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			_ = app.db.Close()
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

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initSecrets loads the password pepper and the optional TOTP sealing key.
func (app *Application) initSecrets() error {
	pepper, err := cryptox.LoadOrCreatePepper(app.cfg.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}
	app.hasher = cryptox.NewHasher(pepper)

	box, err := cryptox.LoadSecretBox(app.cfg.TOTPKeyFile)
	if err != nil {
		return fmt.Errorf("failed to load TOTP key: %w", err)
	}
	app.totpBox = box
	if box == nil {
		app.logger.Warn("AUTH_TOTP_KEY_FILE not set, TOTP secrets are stored unencrypted")
	}
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(sqlite.DSN(app.cfg.DatabaseFile))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "file", app.cfg.DatabaseFile)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	refresher, err := provider.NewOAuth2Refresher(provider.Options{
		Providers: app.cfg.Providers,
		Breaker:   provider.DefaultBreakerConfig(),
		Logger:    app.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to configure providers: %w", err)
	}
	app.refresher = refresher
	app.logger.Info("oauth providers configured", "providers", refresher.Providers())

	app.sessionService = &service.SessionService{
		KeyManager: app.keyManager,
		Store:      app.db,
		Issuer:     app.cfg.Issuer,
		Audience:   app.cfg.Audience,
		AccessTTL:  app.cfg.AccessTokenTTL,
		RefreshTTL: app.cfg.RefreshTokenTTL,
	}

	app.mfaService = &service.MFAService{
		Store:    app.db,
		Issuer:   app.cfg.TOTPIssuer,
		Period:   app.cfg.TOTPPeriod,
		Skew:     app.cfg.TOTPSkew,
		Disabled: !app.cfg.MFAEnabled,
		Secrets:  app.totpBox,
	}

	app.ticketBroker = &service.TicketBroker{
		Store:    app.db,
		MFA:      app.mfaService,
		Sessions: app.sessionService,
		TTL:      app.cfg.MFATicketTTL,
	}

	app.signInService = &service.SignInService{
		Verifier:             &service.CredentialVerifier{Store: app.db, Hasher: app.hasher},
		Tickets:              app.ticketBroker,
		Sessions:             app.sessionService,
		RequireVerifiedEmail: app.cfg.EmailVerificationRequired,
	}

	app.accountService = &service.AccountService{
		Store:                app.db,
		Hasher:               app.hasher,
		Sessions:             app.sessionService,
		Notifier:             service.LogNotifier{Logger: app.logger},
		DefaultRole:          app.cfg.DefaultRole,
		AllowedRoles:         app.cfg.AllowedRoles,
		DisableNewUsers:      app.cfg.DisableNewUsers,
		RequireVerifiedEmail: app.cfg.EmailVerificationRequired,
		VerificationTTL:      app.cfg.EmailVerificationTTL,
	}

	app.providerTokenService = &service.ProviderTokenService{
		Store:       app.db,
		Refresher:   app.refresher,
		AdminSecret: app.cfg.AdminSecret,
		Timeout:     app.cfg.ProviderRefreshTimeout,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keyManager,
		BuildVersion,
		app.db,
		app.cfg.RateLimits.HTTPRateLimits(),
		app.logger,
	)

	router.Accounts = app.accountService
	router.SignIn = app.signInService
	router.Tickets = app.ticketBroker
	router.Sessions = app.sessionService
	router.MFA = app.mfaService
	router.ProviderTokens = app.providerTokenService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
