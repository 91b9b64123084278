package middleware

import (
	"net/http"

	"github.com/tendant/simple-workspace/internal/httputil"
)

// RequestSizeLimit caps request bodies at maxBytes. Requests that declare a
// larger Content-Length are rejected before the handler runs; the rest are
// read through http.MaxBytesReader. A non-positive maxBytes disables the cap.
func RequestSizeLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if maxBytes <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				httputil.Error(w, http.StatusRequestEntityTooLarge, httputil.ErrBodyTooLarge.Error())
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
