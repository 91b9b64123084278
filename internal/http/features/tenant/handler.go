package tenant

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/tendant/simple-workspace/internal/http/middleware"
	"github.com/tendant/simple-workspace/internal/httputil"
	"github.com/tendant/simple-workspace/pkg/domain"
	"github.com/tendant/simple-workspace/pkg/lifecycle"
)

// Handler handles tenant and membership endpoints.
type Handler struct {
	logger  *slog.Logger
	manager *lifecycle.Manager
}

// NewHandler creates a new tenant handler.
func NewHandler(logger *slog.Logger, manager *lifecycle.Manager) *Handler {
	return &Handler{logger: logger, manager: manager}
}

// CreateRequest represents a tenant creation request.
type CreateRequest struct {
	TenantName string `json:"tenant_name" validate:"required"`
}

// UpdateRequest represents a tenant rename. The tenant is the one resolved
// by the authorization chain.
type UpdateRequest struct {
	TenantID   string `json:"tenant_id"`
	TenantName string `json:"tenant_name" validate:"required"`
}

// InviteRequest represents a contributor invitation.
type InviteRequest struct {
	TenantID     string `json:"tenant_id"`
	TenantName   string `json:"tenant_name"`
	InvitorName  string `json:"invitor_name"`
	InviteeEmail string `json:"invitee_email" validate:"required,email"`
}

// ContributorRequest names a contributor of the resolved tenant. Role and
// Status are only read by update-contributor.
type ContributorRequest struct {
	TenantID      string  `json:"tenant_id"`
	ContributorID string  `json:"contributor_id" validate:"required"`
	Role          *string `json:"role,omitempty"`
	Status        *string `json:"status,omitempty"`
}

func (req ContributorRequest) contributorID() (uuid.UUID, error) {
	return httputil.ParseID("contributor_id", req.ContributorID)
}

// Create creates a tenant owned by the caller.
// POST /api/tenant/create
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.Authorized(w, r)
	if !ok {
		return
	}

	var req CreateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	tenant, err := h.manager.CreateTenant(r.Context(), ac.Identity.UserID, req.TenantName)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	httputil.Message(w, http.StatusCreated, "Tenant created successfully.", tenant)
}

// Info returns the tenant, its members and a page of its databases, plus a
// token scoped to the tenant.
// GET /api/tenant/info/{tenantID}
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.Authorized(w, r)
	if !ok {
		return
	}

	info, err := h.manager.GetTenantInfo(r.Context(), ac, httputil.PageFromQuery(r))
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, httputil.Envelope{
		Message: "Fetched tenant information successfully.",
		Data:    info,
		Token:   info.Token,
	})
}

// Update renames the tenant.
// POST /api/tenant/update
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.Authorized(w, r)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	tenant, err := h.manager.UpdateTenant(r.Context(), ac.TenantID, req.TenantName)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	httputil.Message(w, http.StatusOK, "Tenant information updated!", tenant)
}

// Delete removes the tenant with all its databases, records and memberships.
// POST /api/tenant/delete
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.Authorized(w, r)
	if !ok {
		return
	}

	if err := h.manager.RemoveTenant(r.Context(), ac.TenantID); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	httputil.Message(w, http.StatusOK, "Deleted the tenant and all related items successfully.", nil)
}

// InviteContributor invites a registered user to the tenant.
// POST /api/tenant/invite-contributor
func (h *Handler) InviteContributor(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.Authorized(w, r)
	if !ok {
		return
	}

	var req InviteRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	member, err := h.manager.InviteContributor(r.Context(), ac, lifecycle.InviteInput{
		InviteeEmail: req.InviteeEmail,
		TenantName:   req.TenantName,
		InviterName:  req.InvitorName,
	})
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	httputil.Message(w, http.StatusOK, "Invitation sent successfully.", member)
}

// Join accepts the caller's invitation to the tenant in the path.
// GET /api/tenant/join/{tenantID}
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.Authorized(w, r)
	if !ok {
		return
	}

	tenantID, err := httputil.PathUUID(r, middleware.TenantIDParam)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	ref, err := h.manager.AcceptInvitation(r.Context(), tenantID, ac.Identity.UserID)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	httputil.Message(w, http.StatusOK, "Joined the tenant successfully.", ref)
}

// UpdateContributor changes a contributor's role and/or status.
// POST /api/tenant/update-contributor
func (h *Handler) UpdateContributor(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.Authorized(w, r)
	if !ok {
		return
	}

	var req ContributorRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	var role *domain.Role
	if req.Role != nil {
		v := domain.Role(*req.Role)
		role = &v
	}
	var status *domain.MemberStatus
	if req.Status != nil {
		v := domain.MemberStatus(*req.Status)
		status = &v
	}

	contributorID, err := req.contributorID()
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	member, err := h.manager.UpdateContributor(r.Context(), ac.TenantID, contributorID, role, status)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	httputil.Message(w, http.StatusOK, "Updated contributor in tenant successfully.", member)
}

// RemoveContributor removes a contributor from the tenant.
// POST /api/tenant/remove-contributor
func (h *Handler) RemoveContributor(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.Authorized(w, r)
	if !ok {
		return
	}

	var req ContributorRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	contributorID, err := req.contributorID()
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	if err := h.manager.RemoveContributor(r.Context(), ac.TenantID, contributorID); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	httputil.Message(w, http.StatusOK, "Removed contributor from tenant successfully.", nil)
}
