package middleware

import (
	"fmt"
	"net/http"

	"github.com/dustin/go-humanize"

	apperrors "github.com/bleitz/meditai/errors"
)

// ParseSize parses sizes such as "1MB" or "512 KiB".
func ParseSize(s string) (int64, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n == 0 || n > 1<<40 {
		return 0, fmt.Errorf("size %q out of range", s)
	}
	return int64(n), nil
}

// BodySizeLimit caps request bodies at limit bytes. Reads past the limit fail
// with *http.MaxBytesError.
func BodySizeLimit(limit int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				writeError(w, apperrors.PayloadTooLarge(humanize.IBytes(uint64(limit))))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
