package account

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/simple-workspace/internal/http/middleware"
	"github.com/tendant/simple-workspace/internal/httputil"
	"github.com/tendant/simple-workspace/pkg/auth"
)

// Handler handles account endpoints.
type Handler struct {
	logger   *slog.Logger
	accounts *auth.AccountService
}

// NewHandler creates a new account handler.
func NewHandler(logger *slog.Logger, accounts *auth.AccountService) *Handler {
	return &Handler{logger: logger, accounts: accounts}
}

// RegisterRequest represents a registration request.
type RegisterRequest struct {
	Name          string `json:"name" validate:"required"`
	Email         string `json:"email" validate:"required"`
	Password      string `json:"password" validate:"required"`
	ContactCode   string `json:"contact_code"`
	ContactNumber string `json:"contact_number"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Register creates an account and sends the verification link.
// POST /api/user/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	user, err := h.accounts.Register(r.Context(), auth.RegisterInput{
		Name:          req.Name,
		Email:         req.Email,
		Password:      req.Password,
		ContactCode:   req.ContactCode,
		ContactNumber: req.ContactNumber,
	})
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	httputil.Message(w, http.StatusCreated, "Registered successfully!", user)
}

// Login exchanges credentials for an access token.
// POST /api/user/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	result, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, httputil.Envelope{
		Message: "Logged in successfully!",
		Data:    result.User,
		Token:   result.Token,
	})
}

// Dashboard returns the caller and the tenants they have joined.
// GET /api/user/dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.Authorized(w, r)
	if !ok {
		return
	}

	dashboard, err := h.accounts.Dashboard(r.Context(), ac.Identity.UserID)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	httputil.Message(w, http.StatusOK, "Information obtained successfully!", dashboard)
}

// Verify marks the account named by the verification code as verified.
// GET /api/user/verify/{code}
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		httputil.Error(w, http.StatusBadRequest, "verification code is required")
		return
	}

	user, err := h.accounts.Verify(r.Context(), code)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	httputil.Message(w, http.StatusOK, "Account verified successfully!", user)
}
