package middleware

import (
	"fmt"
	"net/http"

	"github.com/tendant/simple-workspace/internal/config"
)

// securityHeaders returns the response headers configured in cfg.
// Empty values are left out.
func securityHeaders(cfg config.SecurityHeadersConfig) http.Header {
	h := http.Header{}
	set := func(key, value string) {
		if value != "" {
			h.Set(key, value)
		}
	}

	set("Content-Security-Policy", cfg.CSP)
	if cfg.HSTSMaxAge > 0 {
		h.Set("Strict-Transport-Security", fmt.Sprintf("max-age=%d; includeSubDomains", cfg.HSTSMaxAge))
	}
	set("X-Frame-Options", cfg.FrameOptions)
	set("X-Content-Type-Options", cfg.ContentTypeOptions)
	set("X-XSS-Protection", cfg.XSSProtection)
	set("Referrer-Policy", cfg.ReferrerPolicy)
	set("Permissions-Policy", cfg.PermissionsPolicy)
	// API responses carry tokens and tenant data.
	h.Set("Cache-Control", "no-store")
	return h
}

// SecurityHeaders applies the configured security headers to every response.
func SecurityHeaders(cfg config.SecurityHeadersConfig) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		return passthrough
	}

	headers := securityHeaders(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for key, values := range headers {
				w.Header()[key] = values
			}
			next.ServeHTTP(w, r)
		})
	}
}
