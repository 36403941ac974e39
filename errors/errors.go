// Package errors provides the structured error type shared by every meditai
// package. Each error carries a machine-readable code, an HTTP status and a
// retryable flag so handlers can render it without inspecting its origin.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is matches another AppError by code, so errors.Is(err, InvalidScript("")) works
// regardless of message and details.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !stderrors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// Wrap converts any error into an AppError. AppErrors anywhere in the chain
// are returned as-is; everything else becomes an internal error.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}

// --- Common Error Constructors ---

// ServiceUnavailable creates a new AppError for a service that is temporarily unavailable.
func ServiceUnavailable(service string) *AppError {
	return &AppError{
		Code: ErrCodeServiceUnavailable, Message: fmt.Sprintf("The %s is temporarily unavailable. Please try again.", service),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"service": service},
	}
}

// Timeout creates a new AppError for a request that timed out.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The request took too long. Please try again.",
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"operation": operation},
	}
}

// PayloadTooLarge creates a new AppError for a request body over limit.
func PayloadTooLarge(limit string) *AppError {
	return &AppError{
		Code: ErrCodePayloadTooLarge, Message: "Request body exceeds " + limit,
		HTTPStatus: http.StatusRequestEntityTooLarge,
	}
}

// RateLimited creates a new AppError for too many requests.
func RateLimited() *AppError {
	return &AppError{
		Code: ErrCodeRateLimited, Message: "Too many requests. Please wait a moment and try again.",
		HTTPStatus: http.StatusTooManyRequests, Retryable: true,
	}
}

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Details: details,
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: reason,
		HTTPStatus: http.StatusBadRequest, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// MissingField creates a new AppError for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		HTTPStatus: http.StatusBadRequest,
		Details: map[string]any{"field": field},
	}
}

// InvalidScript reports an empty or malformed script. It is fatal: no markup is produced.
func InvalidScript(reason string) *AppError {
	msg := "The meditation script is empty or malformed."
	if reason != "" {
		msg = "Invalid meditation script: " + reason
	}
	return &AppError{
		Code: ErrCodeInvalidScript, Message: msg,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// UnsupportedPauseClass reports a pause token that has no weight.
func UnsupportedPauseClass(token string) *AppError {
	return &AppError{
		Code: ErrCodeUnsupportedPauseClass, Message: fmt.Sprintf("Unsupported pause class %q. Expected none, short, medium or long.", token),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{"pause": token},
	}
}

// DurationTooShort is the advisory raised when the requested length cannot hold
// any silence. Callers attach it as a warning, not as a failure.
func DurationTooShort(desiredSeconds, spokenSeconds int) *AppError {
	return &AppError{
		Code: ErrCodeDurationTooShort, Message: "The requested duration is shorter than the spoken script; pauses were removed.",
		HTTPStatus: http.StatusOK,
		Details: map[string]any{"desired_seconds": desiredSeconds, "spoken_seconds": spokenSeconds},
	}
}

// ScriptGenerationFailed wraps a language model failure.
func ScriptGenerationFailed(cause error) *AppError {
	return &AppError{
		Code: ErrCodeScriptGeneration, Message: "Could not generate a meditation script. Please try again.",
		HTTPStatus: http.StatusBadGateway, Retryable: true, Cause: cause,
	}
}

// SynthesisFailed wraps a speech engine failure.
func SynthesisFailed(cause error) *AppError {
	return &AppError{
		Code: ErrCodeSynthesis, Message: "Could not synthesize the meditation audio. Please try again.",
		HTTPStatus: http.StatusBadGateway, Retryable: true, Cause: cause,
	}
}

// Internal creates a new AppError for an internal server error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred. Please try again.",
		HTTPStatus: http.StatusInternalServerError, Cause: cause,
	}
}

// ExternalServiceError creates a new AppError for an error from an external service.
func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeExternalService, Message: fmt.Sprintf("The %s service encountered an error. Please try again.", service),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"service": service}, Cause: cause,
	}
}
