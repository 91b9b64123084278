package records

import (
	"log/slog"
	"net/http"

	"github.com/tendant/simple-workspace/internal/http/middleware"
	"github.com/tendant/simple-workspace/internal/httputil"
	"github.com/tendant/simple-workspace/pkg/domain"
	"github.com/tendant/simple-workspace/pkg/lifecycle"
)

// RecordIDParam is the URL parameter of the read route.
const RecordIDParam = "recordID"

// Handler handles record endpoints.
type Handler struct {
	logger  *slog.Logger
	manager *lifecycle.Manager
}

// NewHandler creates a new record handler.
func NewHandler(logger *slog.Logger, manager *lifecycle.Manager) *Handler {
	return &Handler{logger: logger, manager: manager}
}

// CreateRequest represents a new record.
type CreateRequest struct {
	TenantID     string              `json:"tenant_id"`
	IsolatedDBID string              `json:"isolated_db_id" validate:"required"`
	Values       []domain.FieldValue `json:"values"`
}

// UpdateRequest replaces the values of a record.
type UpdateRequest struct {
	TenantID string              `json:"tenant_id"`
	RecordID string              `json:"record_id" validate:"required"`
	Values   []domain.FieldValue `json:"values"`
}

// DeleteRequest names the record to remove.
type DeleteRequest struct {
	TenantID string `json:"tenant_id"`
	RecordID string `json:"record_id" validate:"required"`
}

// Create adds a record to a database of the caller's tenant.
// POST /api/tenant/isolated-databases/records/create
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
	dbID, err := httputil.ParseID("isolated_db_id", req.IsolatedDBID)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	rec, err := h.manager.CreateRecord(r.Context(), ac, lifecycle.RecordInput{
		DatabaseID: dbID,
		Values:     req.Values,
	})
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	httputil.Message(w, http.StatusCreated, "Record created successfully.", rec)
}

// Read returns one record.
// GET /api/tenant/isolated-databases/records/read/{recordID}
func (h *Handler) Read(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.Authorized(w, r)
	if !ok {
		return
	}

	id, err := httputil.PathUUID(r, RecordIDParam)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	rec, err := h.manager.GetRecord(r.Context(), ac, id)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	httputil.Message(w, http.StatusOK, "Fetched record successfully.", rec)
}

// Update replaces the values of a record.
// POST /api/tenant/isolated-databases/records/update
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
	id, err := httputil.ParseID("record_id", req.RecordID)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	rec, err := h.manager.UpdateRecord(r.Context(), ac, id, req.Values)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	httputil.Message(w, http.StatusOK, "Record updated successfully.", rec)
}

// Delete removes a record.
// POST /api/tenant/isolated-databases/records/delete
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
	id, err := httputil.ParseID("record_id", req.RecordID)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	rec, err := h.manager.RemoveRecord(r.Context(), ac, id)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	httputil.Message(w, http.StatusOK, "Record deleted successfully.", rec)
}
