package databases

import (
	"log/slog"
	"net/http"

	"github.com/tendant/simple-workspace/internal/http/middleware"
	"github.com/tendant/simple-workspace/internal/httputil"
	"github.com/tendant/simple-workspace/pkg/domain"
	"github.com/tendant/simple-workspace/pkg/lifecycle"
)

// DatabaseIDParam is the URL parameter of the view route.
const DatabaseIDParam = "dbID"

// Handler handles isolated database endpoints.
type Handler struct {
	logger  *slog.Logger
	manager *lifecycle.Manager
}

// NewHandler creates a new isolated database handler.
func NewHandler(logger *slog.Logger, manager *lifecycle.Manager) *Handler {
	return &Handler{logger: logger, manager: manager}
}

// CreateRequest represents a new isolated database.
type CreateRequest struct {
	TenantID string                   `json:"tenant_id"`
	DBName   string                   `json:"db_name" validate:"required"`
	Fields   []domain.FieldDefinition `json:"fields"`
}

// UpdateRequest changes an isolated database. An omitted fields list keeps
// the current schema; a present one replaces it.
type UpdateRequest struct {
	TenantID     string                   `json:"tenant_id"`
	IsolatedDBID string                   `json:"isolated_db_id" validate:"required"`
	DBName       string                   `json:"db_name"`
	Fields       []domain.FieldDefinition `json:"fields"`
}

// DeleteRequest names the database to remove.
type DeleteRequest struct {
	TenantID     string `json:"tenant_id"`
	IsolatedDBID string `json:"isolated_db_id" validate:"required"`
}

// Create creates an isolated database in the caller's tenant.
// POST /api/tenant/isolated-databases/create
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

	db, err := h.manager.CreateIsolatedDatabase(r.Context(), ac, lifecycle.DatabaseInput{
		Name:   req.DBName,
		Fields: req.Fields,
	})
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	httputil.Message(w, http.StatusCreated, "Isolated database created successfully.", db)
}

// View returns a database with a page of its records.
// GET /api/tenant/isolated-databases/view/{dbID}
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.Authorized(w, r)
	if !ok {
		return
	}

	id, err := httputil.PathUUID(r, DatabaseIDParam)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	view, err := h.manager.GetIsolatedDatabase(r.Context(), ac, id, httputil.PageFromQuery(r))
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	httputil.Message(w, http.StatusOK, "Fetched isolated database successfully.", view)
}

// Update renames a database and/or replaces its fields.
// POST /api/tenant/isolated-databases/update
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
	id, err := httputil.ParseID("isolated_db_id", req.IsolatedDBID)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	db, err := h.manager.UpdateIsolatedDatabase(r.Context(), ac, id, lifecycle.DatabaseUpdate{
		Name:   req.DBName,
		Fields: req.Fields,
	})
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	httputil.Message(w, http.StatusOK, "Isolated database updated successfully.", db)
}

// Delete removes a database and its records.
// POST /api/tenant/isolated-databases/delete
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.Authorized(w, r)
	if !ok {
		return
	}

	var req DeleteRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	id, err := httputil.ParseID("isolated_db_id", req.IsolatedDBID)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	if _, err := h.manager.RemoveIsolatedDatabase(r.Context(), ac, id); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	httputil.Message(w, http.StatusOK, "Isolated database deleted successfully.", nil)
}
