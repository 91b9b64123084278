package main

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

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tendant/simple-workspace/internal/config"
	httpserver "github.com/tendant/simple-workspace/internal/http"
	"github.com/tendant/simple-workspace/internal/notification"
	"github.com/tendant/simple-workspace/pkg/auth"
	"github.com/tendant/simple-workspace/pkg/authz"
	"github.com/tendant/simple-workspace/pkg/lifecycle"
	"github.com/tendant/simple-workspace/pkg/repository"
	"github.com/tendant/simple-workspace/pkg/repository/memory"
)

var migrateOnStart bool

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	rootCmd := &cobra.Command{
		Use:           "workspaced",
		Short:         "Multi-tenant workspace API server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), logger)
		},
	}
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply database migrations before serving")

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context(), logger)
		},
	}

	rootCmd.AddCommand(serveCmd, migrateCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func dbConfig(cfg *config.Config) (*repository.Config, error) {
	if cfg.StoreBackend != config.StoreBackendPostgres {
		return nil, fmt.Errorf("store backend %q has no database", cfg.StoreBackend)
	}
	return &repository.Config{
		Host:         cfg.DBHost,
		Port:         cfg.DBPort,
		User:         cfg.DBUser,
		Password:     cfg.DBPassword,
		DBName:       cfg.DBName,
		SSLMode:      cfg.DBSSLMode,
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	}, nil
}

func migrate(ctx context.Context, logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	dbCfg, err := dbConfig(cfg)
	if err != nil {
		return err
	}
	db, err := repository.NewDB(*dbCfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	return repository.Migrate(ctx, db, logger)
}

func serve(ctx context.Context, logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if cfg.HasSentry() {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
		}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
		logger.Info("error reporting enabled")
	}

	var store repository.Store
	switch cfg.StoreBackend {
	case config.StoreBackendMemory:
		mem, err := memory.New()
		if err != nil {
			return err
		}
		store = mem
		logger.Warn("using in-memory store; data is lost on restart")
	default:
		dbCfg, err := dbConfig(cfg)
		if err != nil {
			return err
		}
		db, err := repository.NewDB(*dbCfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()
		logger.Info("connected to database")

		if migrateOnStart {
			if err := repository.Migrate(ctx, db, logger); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
		store = repository.NewPostgresStore(db)
	}

	var notifier interface {
		auth.VerificationMailer
		lifecycle.Notifier
	}
	if cfg.HasSMTP() {
		notifier = notification.NewEmailService(notification.EmailConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			FromName: cfg.SMTP.FromName,
		}, logger)
		logger.Info("email service enabled")
	} else {
		notifier = notification.NewLogNotifier(logger)
		logger.Warn("SMTP not configured; emails are logged instead of sent")
	}

	tokens := auth.NewTokenService(auth.TokenConfig{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.TokenTTL,
	})
	accounts := auth.NewAccountService(
		store,
		tokens,
		auth.Argon2Hasher{},
		auth.NewPasswordPolicy(cfg.PasswordPolicy),
		notifier,
		auth.AccountConfig{
			AppBaseURL:           cfg.AppBaseURL,
			VerificationTTL:      cfg.VerificationTTL,
			BlockDisposableEmail: cfg.BlockDisposableEmail,
		},
		logger,
	)
	manager := lifecycle.New(store, notifier, tokens, lifecycle.Config{AppBaseURL: cfg.AppBaseURL}, logger)
	authorizer := authz.New(tokens, store, logger)

	router := httpserver.NewRouter(httpserver.RouterConfig{
		Logger:             logger,
		AccountService:     accounts,
		Manager:            manager,
		Authorizer:         authorizer,
		RateLimitConfig:    cfg.RateLimit,
		SecurityHeaders:    cfg.SecurityHeaders,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	})

	server := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", server.Addr, "store", cfg.StoreBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-quit:
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
