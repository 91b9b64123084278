package records

import (
	"github.com/go-chi/chi/v5"
	"github.com/tendant/simple-workspace/internal/http/middleware"
	"github.com/tendant/simple-workspace/pkg/authz"
	"github.com/tendant/simple-workspace/pkg/domain"
)

// RegisterRoutes registers record routes. Writes require the EDITOR role.
func (h *Handler) RegisterRoutes(r chi.Router, guard middleware.Guard) {
	member := authz.ResolveMembership()
	editor := authz.RequireRole(domain.RoleEditor)

	r.With(guard(member, editor)).Post("/api/tenant/isolated-databases/records/create", h.Create)
	r.With(guard(member, editor)).Post("/api/tenant/isolated-databases/records/update", h.Update)
	r.With(guard(member, editor, authz.RequireOwnership(authz.ResourceRecord))).Post("/api/tenant/isolated-databases/records/delete", h.Delete)
	r.With(guard(member)).Get("/api/tenant/isolated-databases/records/read/{"+RecordIDParam+"}", h.Read)
}
