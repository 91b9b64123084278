package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/tendant/simple-workspace/internal/config"
	"github.com/tendant/simple-workspace/internal/httputil"
)

// RateLimitConfig holds the limit applied to one group of routes.
type RateLimitConfig struct {
	Name     string
	Requests int
	Window   time.Duration
	Logger   *slog.Logger
}

// RateLimit creates an IP-based rate limiter middleware with logging.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.Requests,
		cfg.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Logger != nil {
				cfg.Logger.Warn("rate limit exceeded",
					"limiter", cfg.Name,
					"ip", r.RemoteAddr,
					"path", r.URL.Path,
					"method", r.Method,
				)
			}
			httputil.Error(w, http.StatusTooManyRequests, "rate limit exceeded. please try again later")
		}),
	)
}

// NoRateLimit returns a no-op middleware when rate limiting is disabled.
func NoRateLimit() func(http.Handler) http.Handler {
	return passthrough
}

func passthrough(next http.Handler) http.Handler {
	return next
}

// Limiters groups the rate limiters of the unauthenticated account routes.
type Limiters struct {
	// Auth guards register and login.
	Auth func(http.Handler) http.Handler
	// Verify guards the email verification link.
	Verify func(http.Handler) http.Handler
}

// NewLimiters builds the limiters from configuration. Every limiter is a
// no-op when rate limiting is disabled.
func NewLimiters(cfg config.RateLimitConfig, logger *slog.Logger) Limiters {
	if !cfg.Enabled {
		return Limiters{Auth: NoRateLimit(), Verify: NoRateLimit()}
	}
	return Limiters{
		Auth: RateLimit(RateLimitConfig{
			Name:     "auth",
			Requests: cfg.AuthRequests,
			Window:   cfg.AuthWindow,
			Logger:   logger,
		}),
		Verify: RateLimit(RateLimitConfig{
			Name:     "verify",
			Requests: cfg.VerifyRequests,
			Window:   cfg.VerifyWindow,
			Logger:   logger,
		}),
	}
}
