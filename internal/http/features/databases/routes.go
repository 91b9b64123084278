package databases

import (
	"github.com/go-chi/chi/v5"
	"github.com/tendant/simple-workspace/internal/http/middleware"
	"github.com/tendant/simple-workspace/pkg/authz"
	"github.com/tendant/simple-workspace/pkg/domain"
)

// RegisterRoutes registers isolated database routes.
func (h *Handler) RegisterRoutes(r chi.Router, guard middleware.Guard) {
	member := authz.ResolveMembership()
	admin := authz.RequireRole(domain.RoleAdmin)

	r.With(guard(member, admin)).Post("/api/tenant/isolated-databases/create", h.Create)
	r.With(guard(member, admin)).Post("/api/tenant/isolated-databases/update", h.Update)
	r.With(guard(member, admin, authz.RequireOwnership(authz.ResourceDatabase))).Post("/api/tenant/isolated-databases/delete", h.Delete)
	r.With(guard(member)).Get("/api/tenant/isolated-databases/view/{"+DatabaseIDParam+"}", h.View)
}
