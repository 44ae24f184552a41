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

	httpapi "github.com/aussiebroadwan/passguard/internal/auth/http"
	"github.com/aussiebroadwan/passguard/internal/auth/policy"
	"github.com/aussiebroadwan/passguard/internal/auth/service"
	"github.com/aussiebroadwan/passguard/internal/auth/store"
	"github.com/aussiebroadwan/passguard/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/passguard/pkg/cryptox"
	"github.com/aussiebroadwan/passguard/pkg/jwtx"
	"github.com/aussiebroadwan/passguard/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sethvargo/go-retry"
)

// BuildVersion is overwritten at build time via ldflags.
var BuildVersion = "dev"

// Application encapsulates the auth service and all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	registry *prometheus.Registry

	tokenService        *service.TokenService
	authService         *service.AuthService
	authenticator       *service.Authenticator
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg:    cfg,
		logger: newLogger(cfg),
	}

	pepper, err := cryptox.LoadPepper(cfg.PepperFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}
	cryptox.SetPepper(pepper)

	if err := app.initDatabase(context.Background()); err != nil {
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler exposes the routed HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

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

// Shutdown drains in-flight requests and closes the database.
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

// Migrate opens the configured database, applies pending migrations and
// closes it again.
func Migrate(ctx context.Context, cfg Config) error {
	app := &Application{cfg: cfg, logger: newLogger(cfg)}
	if err := app.initDatabase(ctx); err != nil {
		return err
	}
	return app.db.Close()
}

func newLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "passguard",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// databaseDSN builds the modernc sqlite DSN for cfg.
func databaseDSN(file string) string {
	if file == ":memory:" {
		return file
	}
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", file)
}

// initDatabase opens the store, waits for it to answer and applies migrations.
func (app *Application) initDatabase(ctx context.Context) error {
	db, err := sqlite.NewStore(databaseDSN(app.cfg.DatabaseFile))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	// A busy file (another process migrating) answers SQLITE_BUSY for a
	// short while.
	backoff := retry.WithMaxRetries(5, retry.NewExponential(100*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := db.Ping(ctx); err != nil {
			app.logger.Warn("database not ready", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("database unreachable: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}
	app.db = db

	app.logger.Info("database migrations applied successfully", "file", app.cfg.DatabaseFile)
	return nil
}

// initServices builds the token, lockout and authentication services.
func (app *Application) initServices() error {
	jwtCfg := app.cfg.JWT

	signer, err := jwtx.NewSignerHS256([]byte(jwtCfg.SecretKey))
	if err != nil {
		return fmt.Errorf("failed to build token signer: %w", err)
	}
	verifier := jwtx.NewVerifierHS256([]byte(jwtCfg.SecretKey), jwtx.VerifyOptions{
		Issuer:             jwtCfg.Issuer,
		ValidateIssuer:     jwtCfg.ValidateIssuer,
		ValidateAudience:   jwtCfg.ValidateAudience,
		ValidateLifetime:   jwtCfg.ValidateLifetime,
		ValidateSigningKey: jwtCfg.ValidateIssuerSigningKey,
	})

	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := service.NewMetrics(app.registry)

	app.tokenService = &service.TokenService{
		Signer:        signer,
		Verifier:      verifier,
		Hasher:        service.Argon2Hasher{},
		Issuer:        jwtCfg.Issuer,
		ExpiryMinutes: jwtCfg.ExpiryMinutes,
		Metrics:       metrics,
	}

	up := app.cfg.UserPolicy
	app.authService = &service.AuthService{
		Store:  app.db,
		Tokens: app.tokenService,
		Lockout: &service.LockoutTracker{
			Threshold: up.FailedAttempts,
			Duration:  time.Duration(up.LockoutMinutes) * time.Minute,
		},
		Hasher: service.Argon2Hasher{},
		Policy: policy.Policy{
			MinLength:          up.MinLength,
			RequireUppercase:   up.RequireUppercase,
			RequireLowercase:   up.RequireLowercase,
			RequireDigit:       up.RequireDigit,
			RequireNonAlphanum: up.RequireNonAlphanum,
		},
		PasswordLifetimeDays: up.PasswordLifetimeDays,
		Metrics:              metrics,
	}

	app.authenticator = service.NewAuthenticator(app.tokenService, app.db)

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	return nil
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)

	router.AuthService = app.authService
	router.Authenticator = app.authenticator
	router.Gatherer = app.registry
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
