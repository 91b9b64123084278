package tenant

import (
	"github.com/go-chi/chi/v5"
	"github.com/tendant/simple-workspace/internal/http/middleware"
	"github.com/tendant/simple-workspace/pkg/authz"
	"github.com/tendant/simple-workspace/pkg/domain"
)

// RegisterRoutes registers tenant and membership routes.
func (h *Handler) RegisterRoutes(r chi.Router, guard middleware.Guard) {
	member := authz.ResolveMembership()
	admin := authz.RequireRole(domain.RoleAdmin)
	owner := authz.RequireOwnership(authz.ResourceTenant)

	r.With(guard()).Post("/api/tenant/create", h.Create)
	r.With(guard(member, admin)).Post("/api/tenant/update", h.Update)
	r.With(guard(member, admin, owner)).Post("/api/tenant/delete", h.Delete)
	r.With(guard(member, admin)).Post("/api/tenant/invite-contributor", h.InviteContributor)
	r.With(guard(member, admin)).Post("/api/tenant/update-contributor", h.UpdateContributor)
	r.With(guard(member, admin, owner)).Post("/api/tenant/remove-contributor", h.RemoveContributor)
	r.With(guard(member)).Get("/api/tenant/info/{"+middleware.TenantIDParam+"}", h.Info)
	r.With(guard()).Get("/api/tenant/join/{"+middleware.TenantIDParam+"}", h.Join)
}
