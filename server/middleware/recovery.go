package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	apperrors "github.com/bleitz/meditai/errors"
	"github.com/bleitz/meditai/logger"
)

// Recovery turns a panic into a 500 with the standard error body. When the
// response has already started (an audio stream), the connection is dropped
// instead.
func Recovery(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := newStatusWriter(w)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error("Panic recovered", map[string]interface{}{
					logger.FieldError:     fmt.Sprintf("%v", rec),
					"stack":               string(debug.Stack()),
					logger.FieldPath:      r.URL.Path,
					logger.FieldMethod:    r.Method,
					logger.FieldRequestID: r.Header.Get(HeaderRequestID),
				})
				if sw.wroteHeader {
					panic(http.ErrAbortHandler)
				}
				writeError(w, apperrors.Internal(fmt.Errorf("panic: %v", rec)))
			}()
			next.ServeHTTP(sw, r)
		})
	}
}
