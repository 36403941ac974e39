package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/bleitz/meditai/logger"
)

const slowRequest = 2 * time.Second

// probePaths are served constantly by orchestrators and are not logged.
var probePaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
	"/readyz":  true,
	"/livez":   true,
}

// RequestLogger logs every request once it completes, at a level chosen by
// status code. Audio streams are logged with their byte count.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if probePaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)
			elapsed := time.Since(start)

			fields := map[string]interface{}{
				logger.FieldMethod:   r.Method,
				logger.FieldPath:     r.URL.Path,
				logger.FieldStatus:   sw.status,
				logger.FieldDuration: elapsed.Milliseconds(),
				logger.FieldClientIP: clientIP(r),
				"size":               humanize.IBytes(uint64(sw.bytes)),
			}
			if id := r.Header.Get(HeaderRequestID); id != "" {
				fields[logger.FieldRequestID] = id
			}
			if elapsed > slowRequest {
				fields["slow"] = true
			}
			logByStatus(log, fields, sw.status)
		})
	}
}

func logByStatus(log *logger.Logger, fields map[string]interface{}, status int) {
	switch {
	case status >= 500:
		log.Error("Request completed", fields)
	case status >= 400:
		log.Warn("Request completed", fields)
	default:
		log.Info("Request completed", fields)
	}
}

// clientIP returns the first X-Forwarded-For hop, or the remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := r.Header.Get("X-Real-Ip"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
