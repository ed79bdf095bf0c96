package middleware

import (
	"fmt"
	"net/http"

	"github.com/cloo-solutions/panelsearch/internal/api"
)

// BodyLimit caps request bodies at limit bytes. Requests that declare a
// larger Content-Length are refused up front; the rest fail on read once
// they cross the limit. A limit of zero or less disables the check.
func BodyLimit(limit int64) func(http.Handler) http.Handler {
	tooLarge := fmt.Sprintf("request body too large (limit %d bytes)", limit)
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > limit {
				api.Error(w, http.StatusRequestEntityTooLarge, tooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
