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

	"github.com/learnloop/learnloop/internal/auth/email"
	"github.com/learnloop/learnloop/internal/auth/federation"
	httpapi "github.com/learnloop/learnloop/internal/auth/http"
	"github.com/learnloop/learnloop/internal/auth/service"
	"github.com/learnloop/learnloop/internal/auth/store"
	"github.com/learnloop/learnloop/internal/auth/store/drivers/sqlite"
	"github.com/learnloop/learnloop/pkg/jwtx"
	"github.com/learnloop/learnloop/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db     store.Store
	codec  *jwtx.Codec
	sender email.Sender

	// Services
	sessionService      *service.SessionService
	refreshService      *service.RefreshService
	verificationService *service.VerificationService
	federationService   *service.FederationService
	providers           federation.Registry

	// HTTP server
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

	if cfg.AccessSecret == "" {
		return nil, errors.New("AUTH_ACCESS_SECRET is required")
	}

	app.codec = jwtx.NewCodec(cfg.Issuer,
		[]byte(cfg.AccessSecret), []byte(cfg.RefreshSecret), time.Now)
	if app.codec.DegradedMode() {
		app.logger.Warn("no dedicated refresh secret configured, falling back to the access secret for both purposes")
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initEmail()
	app.initProviders()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
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

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initEmail selects the mail transport. Without an SMTP host, mails land in
// the log so local flows stay testable end to end.
func (app *Application) initEmail() {
	if app.cfg.SMTPHost == "" {
		app.logger.Warn("SMTP_HOST not set, emails will be written to the log")
		app.sender = &email.LogSender{FrontendURL: app.cfg.FrontendURL}
		return
	}

	app.sender = email.NewSMTPSender(email.SMTPConfig{
		Host:        app.cfg.SMTPHost,
		Port:        app.cfg.SMTPPort,
		Username:    app.cfg.SMTPUsername,
		Password:    app.cfg.SMTPPassword,
		From:        app.cfg.SMTPFrom,
		FrontendURL: app.cfg.FrontendURL,
	})
}

// initProviders registers the federated login providers that have
// credentials configured.
func (app *Application) initProviders() {
	app.providers = federation.Registry{}

	if app.cfg.GoogleClientID != "" && app.cfg.GoogleClientSecret != "" {
		app.providers["google"] = federation.NewGoogleProvider(
			app.cfg.GoogleClientID,
			app.cfg.GoogleClientSecret,
			app.cfg.OAuthRedirectBase+"/v1/auth/oauth/google/callback",
		)
		app.logger.Info("google login enabled")
	}

	if app.cfg.GitHubClientID != "" && app.cfg.GitHubClientSecret != "" {
		app.providers["github"] = federation.NewGitHubProvider(
			app.cfg.GitHubClientID,
			app.cfg.GitHubClientSecret,
			app.cfg.OAuthRedirectBase+"/v1/auth/oauth/github/callback",
		)
		app.logger.Info("github login enabled")
	}
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.verificationService = &service.VerificationService{
		Store:           app.db,
		Email:           app.sender,
		VerificationTTL: app.cfg.VerificationTTL,
		ResetTTL:        app.cfg.ResetTTL,
	}

	app.sessionService = &service.SessionService{
		Codec:        app.codec,
		Store:        app.db,
		Verification: app.verificationService,
		AccessTTL:    app.cfg.AccessTTL,
		RefreshTTL:   app.cfg.RefreshTTL,
	}

	app.refreshService = &service.RefreshService{
		Sessions: app.sessionService,
		Codec:    app.codec,
	}

	app.federationService = &service.FederationService{Store: app.db}
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.codec,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.Cookies = httpapi.CookiePolicy{Secure: app.cfg.Env == "prod"}
	router.FrontendURL = app.cfg.FrontendURL

	// Wire services to router
	router.SessionService = app.sessionService
	router.RefreshService = app.refreshService
	router.VerificationService = app.verificationService
	router.FederationService = app.federationService
	router.Providers = app.providers
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
