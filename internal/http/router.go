package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/tendant/simple-workspace/internal/config"
	"github.com/tendant/simple-workspace/internal/http/features/account"
	"github.com/tendant/simple-workspace/internal/http/features/databases"
	"github.com/tendant/simple-workspace/internal/http/features/records"
	"github.com/tendant/simple-workspace/internal/http/features/tenant"
	"github.com/tendant/simple-workspace/internal/http/middleware"
	"github.com/tendant/simple-workspace/internal/httputil"
	"github.com/tendant/simple-workspace/pkg/auth"
	"github.com/tendant/simple-workspace/pkg/authz"
	"github.com/tendant/simple-workspace/pkg/lifecycle"
	"github.com/tendant/simple-workspace/pkg/metrics"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger             *slog.Logger
	AccountService     *auth.AccountService
	Manager            *lifecycle.Manager
	Authorizer         *authz.Authorizer
	RateLimitConfig    config.RateLimitConfig
	SecurityHeaders    config.SecurityHeadersConfig
	MaxRequestBodySize int64
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.SecurityHeaders(cfg.SecurityHeaders))
	r.Use(middleware.RequestSizeLimit(cfg.MaxRequestBodySize))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.Error(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	guard := middleware.NewGuard(cfg.Authorizer, cfg.Logger)
	limiters := middleware.NewLimiters(cfg.RateLimitConfig, cfg.Logger)

	account.NewHandler(cfg.Logger, cfg.AccountService).RegisterRoutes(r, guard, limiters.Auth, limiters.Verify)
	tenant.NewHandler(cfg.Logger, cfg.Manager).RegisterRoutes(r, guard)
	databases.NewHandler(cfg.Logger, cfg.Manager).RegisterRoutes(r, guard)
	records.NewHandler(cfg.Logger, cfg.Manager).RegisterRoutes(r, guard)

	return r
}
