package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/simple-workspace/internal/http/middleware"
	"github.com/tendant/simple-workspace/pkg/authz"
)

// RegisterRoutes registers account routes. limit guards the credential
// routes and verify guards the verification link.
func (h *Handler) RegisterRoutes(r chi.Router, guard middleware.Guard, limit, verify func(http.Handler) http.Handler) {
	r.With(limit).Post("/api/user/register", h.Register)
	r.With(limit).Post("/api/user/login", h.Login)
	r.With(verify).Get("/api/user/verify/{code}", h.Verify)
	r.With(guard(authz.Authenticate())).Get("/api/user/dashboard", h.Dashboard)
}
