package httputil

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/tendant/simple-workspace/pkg/domain"
)

// StatusOf maps an error to its HTTP status.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrInvalidToken), errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotAMember), errors.Is(err, domain.ErrInsufficientRole), errors.Is(err, domain.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err with the status StatusOf assigns it. Server errors
// are logged, reported, and answered with a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		ReportError(r, err)
		Error(w, status, "internal server error")
		return
	}
	Error(w, status, publicMessage(err))
}

// publicMessage drops the transaction wrapper so clients see the cause.
func publicMessage(err error) string {
	var aborted *domain.TxAbortedError
	if errors.As(err, &aborted) && aborted.Err != nil {
		return aborted.Err.Error()
	}
	return err.Error()
}

// ReportError sends err to Sentry tagged with the request route.
// It is a no-op when Sentry has not been initialized.
func ReportError(r *http.Request, err error) {
	hub := sentry.CurrentHub().Clone()
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetRequest(r)
		scope.SetTag("method", r.Method)
		scope.SetTag("path", r.URL.Path)
		hub.CaptureException(err)
	})
}
