package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/simple-workspace/internal/httputil"
	"github.com/tendant/simple-workspace/pkg/authz"
)

// TenantIDParam is the chi URL parameter that carries a tenant id.
const TenantIDParam = "tenantID"

// Guard builds Authorize middleware for a list of checks.
type Guard func(checks ...authz.Check) func(http.Handler) http.Handler

// NewGuard binds an Authorizer and logger into a Guard.
func NewGuard(authorizer *authz.Authorizer, logger *slog.Logger) Guard {
	return func(checks ...authz.Check) func(http.Handler) http.Handler {
		return Authorize(authorizer, logger, checks...)
	}
}

// Authorized returns the AuthorizedContext stored by Authorize. When it is
// missing it writes a 401 and reports false.
func Authorized(w http.ResponseWriter, r *http.Request) (authz.AuthorizedContext, bool) {
	ac, ok := authz.FromContext(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "authentication required")
	}
	return ac, ok
}

// Authorize runs the authorization chain before the handler. On success the
// AuthorizedContext is available through authz.FromContext.
func Authorize(authorizer *authz.Authorizer, logger *slog.Logger, checks ...authz.Check) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req, err := buildRequest(r)
			if err != nil {
				httputil.WriteError(w, r, logger, err)
				return
			}

			ac, err := authorizer.Authorize(r.Context(), req, checks...)
			if err != nil {
				logger.Debug("request denied", "path", r.URL.Path, "error", err)
				httputil.WriteError(w, r, logger, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(authz.NewContext(r.Context(), ac)))
		})
	}
}

// buildRequest collects the token and the tenant and resource ids a request
// names. The body is read once and restored for the handler.
func buildRequest(r *http.Request) (authz.Request, error) {
	req := authz.Request{
		Token:         httputil.BearerToken(r),
		PathTenantID:  chi.URLParam(r, TenantIDParam),
		QueryTenantID: r.URL.Query().Get("tenant_id"),
		ResourceIDs:   make(map[authz.ResourceKind]string),
	}

	fields, err := peekBody(r)
	if err != nil {
		return req, err
	}
	req.BodyTenantID = fields[authz.ResourceTenant.IDKey()]
	for _, kind := range authz.ResourceKinds() {
		if id := fields[kind.IDKey()]; id != "" {
			req.ResourceIDs[kind] = id
		}
	}
	return req, nil
}

// peekBody returns the top-level string fields of a JSON body. Bodies that
// are not JSON objects yield no fields; the handler reports them.
func peekBody(r *http.Request) (map[string]string, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	body, err := io.ReadAll(r.Body)
	r.Body.Close()
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, httputil.ErrBodyTooLarge
		}
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, nil
	}
	fields := make(map[string]string, len(raw))
	for key, value := range raw {
		var s string
		if json.Unmarshal(value, &s) == nil {
			fields[key] = s
		}
	}
	return fields, nil
}
