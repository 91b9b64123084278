package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tendant/simple-workspace/internal/config"
)

func headersFor(cfg config.SecurityHeadersConfig) http.Header {
	handler := SecurityHeaders(cfg)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/api/user/dashboard", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w.Header()
}

func TestSecurityHeaders(t *testing.T) {
	cfg := config.SecurityHeadersConfig{
		Enabled:            true,
		CSP:                "default-src 'none'",
		HSTSMaxAge:         31536000,
		FrameOptions:       "DENY",
		ContentTypeOptions: "nosniff",
		XSSProtection:      "0",
		ReferrerPolicy:     "no-referrer",
		PermissionsPolicy:  "geolocation=()",
	}
	got := headersFor(cfg)

	want := map[string]string{
		"Content-Security-Policy":   cfg.CSP,
		"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
		"X-Frame-Options":           cfg.FrameOptions,
		"X-Content-Type-Options":    cfg.ContentTypeOptions,
		"X-XSS-Protection":          cfg.XSSProtection,
		"Referrer-Policy":           cfg.ReferrerPolicy,
		"Permissions-Policy":        cfg.PermissionsPolicy,
		"Cache-Control":             "no-store",
	}
	for key, value := range want {
		if got.Get(key) != value {
			t.Errorf("%s = %q, want %q", key, got.Get(key), value)
		}
	}
}

func TestSecurityHeaders_Disabled(t *testing.T) {
	got := headersFor(config.SecurityHeadersConfig{
		Enabled: false,
		CSP:     "default-src 'self'",
	})

	for _, key := range []string{"Content-Security-Policy", "Cache-Control"} {
		if got.Get(key) != "" {
			t.Errorf("%s should not be set when disabled, got %q", key, got.Get(key))
		}
	}
}

func TestSecurityHeaders_EmptyValues(t *testing.T) {
	got := headersFor(config.SecurityHeadersConfig{Enabled: true})

	for _, key := range []string{"Content-Security-Policy", "Strict-Transport-Security", "X-Frame-Options", "Permissions-Policy"} {
		if got.Get(key) != "" {
			t.Errorf("%s should not be set when empty, got %q", key, got.Get(key))
		}
	}
	if got.Get("Cache-Control") != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", got.Get("Cache-Control"))
	}
}
