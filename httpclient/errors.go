package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// ErrorCode classifies outbound HTTP failures.
type ErrorCode int

const (
	// ErrCodeTimeout indicates the deadline passed before a response arrived.
	ErrCodeTimeout ErrorCode = iota
	// ErrCodeCanceled indicates the caller canceled the request.
	ErrCodeCanceled
	// ErrCodeConnection indicates a transport failure (refused, DNS, reset).
	ErrCodeConnection
	// ErrCodeAuth indicates rejected credentials (401/403).
	ErrCodeAuth
	// ErrCodeNotFound indicates a missing resource (404).
	ErrCodeNotFound
	// ErrCodeRateLimit indicates upstream throttling (429).
	ErrCodeRateLimit
	// ErrCodeValidation indicates a rejected request (other 4xx) or a request we could not build.
	ErrCodeValidation
	// ErrCodeServer indicates an upstream failure (5xx).
	ErrCodeServer
)

const maxMessageLen = 256

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeTimeout:
		return "timeout"
	case ErrCodeCanceled:
		return "canceled"
	case ErrCodeConnection:
		return "connection"
	case ErrCodeAuth:
		return "auth"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeRateLimit:
		return "rate_limit"
	case ErrCodeValidation:
		return "validation"
	case ErrCodeServer:
		return "server"
	default:
		return "unknown"
	}
}

// Error is a classified outbound HTTP failure.
type Error struct {
	// StatusCode is the HTTP status (0 for transport failures).
	StatusCode int
	Code       ErrorCode
	Message    string
	Retryable  bool
	// Body is the upstream response body, if any.
	Body []byte
	Err  error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewTimeoutError creates a retryable timeout error.
func NewTimeoutError(err error) *Error {
	return &Error{Code: ErrCodeTimeout, Message: err.Error(), Retryable: true, Err: err}
}

// NewCanceledError creates a non-retryable cancellation error.
func NewCanceledError(err error) *Error {
	return &Error{Code: ErrCodeCanceled, Message: err.Error(), Err: err}
}

// NewConnectionError creates a retryable transport error.
func NewConnectionError(err error) *Error {
	return &Error{Code: ErrCodeConnection, Message: err.Error(), Retryable: true, Err: err}
}

// NewValidationError creates a non-retryable client-side error.
func NewValidationError(msg string) *Error {
	return &Error{Code: ErrCodeValidation, Message: msg}
}

// transportError classifies a failure from http.Client.Do.
func transportError(ctx context.Context, err error) *Error {
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return NewCanceledError(err)
	case ctx.Err() != nil, errors.Is(err, context.DeadlineExceeded):
		return NewTimeoutError(err)
	default:
		var te interface{ Timeout() bool }
		if errors.As(err, &te) && te.Timeout() {
			return NewTimeoutError(err)
		}
		return NewConnectionError(err)
	}
}

// ClassifyStatusCode converts a non-2xx status into a typed error. Returns nil for 2xx.
func ClassifyStatusCode(statusCode int, body []byte) *Error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	e := &Error{StatusCode: statusCode, Message: bodyMessage(statusCode, body), Body: body}
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		e.Code = ErrCodeAuth
	case statusCode == http.StatusNotFound:
		e.Code = ErrCodeNotFound
	case statusCode == http.StatusTooManyRequests:
		e.Code = ErrCodeRateLimit
		e.Retryable = true
	case statusCode == http.StatusRequestTimeout:
		e.Code = ErrCodeTimeout
		e.Retryable = true
	case statusCode >= 400 && statusCode < 500:
		e.Code = ErrCodeValidation
	case statusCode >= 500:
		e.Code = ErrCodeServer
		e.Retryable = statusCode != http.StatusNotImplemented
	default:
		e.Code = ErrCodeServer
	}
	return e
}

// bodyMessage pulls a human readable message out of an upstream error body.
// It understands {"error":{"message":...}}, {"error":"..."} and {"message":...}.
func bodyMessage(statusCode int, body []byte) string {
	fallback := fmt.Sprintf("HTTP %d", statusCode)
	if len(body) == 0 {
		return fallback
	}

	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if json.Unmarshal(body, &envelope) == nil {
		if len(envelope.Error) > 0 {
			var nested struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(envelope.Error, &nested) == nil && nested.Message != "" {
				return truncate(nested.Message)
			}
			var flat string
			if json.Unmarshal(envelope.Error, &flat) == nil && flat != "" {
				return truncate(flat)
			}
		}
		if envelope.Message != "" {
			return truncate(envelope.Message)
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" && utf8.ValidString(text) && !strings.HasPrefix(text, "<") {
		return truncate(text)
	}
	return fallback
}

func truncate(s string) string {
	if len(s) <= maxMessageLen {
		return s
	}
	cut := maxMessageLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// IsTimeout reports whether err is a timeout.
func IsTimeout(err error) bool { return hasCode(err, ErrCodeTimeout) }

// IsCanceled reports whether err is a caller cancellation.
func IsCanceled(err error) bool { return hasCode(err, ErrCodeCanceled) }

// IsConnection reports whether err is a transport failure.
func IsConnection(err error) bool { return hasCode(err, ErrCodeConnection) }

// IsAuth reports whether the upstream rejected our credentials.
func IsAuth(err error) bool { return hasCode(err, ErrCodeAuth) }

// IsNotFound reports whether the upstream returned 404.
func IsNotFound(err error) bool { return hasCode(err, ErrCodeNotFound) }

// IsRateLimit reports whether the upstream throttled us.
func IsRateLimit(err error) bool { return hasCode(err, ErrCodeRateLimit) }

// IsServerError reports whether the upstream failed with 5xx.
func IsServerError(err error) bool { return hasCode(err, ErrCodeServer) }

// IsRetryable reports whether err may succeed on another attempt.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}

// StatusCode returns the upstream status carried by err, or 0.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}
