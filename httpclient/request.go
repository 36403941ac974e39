package httpclient

import (
	"io"
	"net/http"
	"strconv"
)

// Request describes an outbound HTTP request.
type Request struct {
	Method string
	// Path is joined to BaseURL unless it is already absolute.
	Path    string
	Headers map[string]string
	Query   map[string]string
	// Body accepts io.Reader, []byte, string, or any JSON-encodable value.
	// Readers are buffered so retries can replay them.
	Body any
	// Auth overrides the client-level auth for this request.
	Auth *AuthConfig
}

// Response is a fully buffered HTTP response.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// StreamResponse is an HTTP response whose body is read incrementally.
// The caller must Close it.
type StreamResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       io.ReadCloser
}

// ContentType returns the response Content-Type.
func (r *StreamResponse) ContentType() string {
	return r.Headers["Content-Type"]
}

// ContentLength returns the declared body length, or -1 when unknown.
func (r *StreamResponse) ContentLength() int64 {
	n, err := strconv.ParseInt(r.Headers["Content-Length"], 10, 64)
	if err != nil {
		return -1
	}
	return n
}

// Close releases the underlying connection.
func (r *StreamResponse) Close() error {
	if r.Body == nil {
		return nil
	}
	return r.Body.Close()
}

// flattenHeaders keeps the first value of each header in canonical form.
func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			out[http.CanonicalHeaderKey(k)] = v[0]
		}
	}
	return out
}
