package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Connection/Availability errors (retryable)
const (
	// ErrCodeServiceUnavailable indicates the service is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeRateLimited indicates the client is rate limited.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
)

// Request errors
const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodePayloadTooLarge indicates a request body over the configured limit.
	ErrCodePayloadTooLarge ErrorCode = "PAYLOAD_TOO_LARGE"
)

// Script and timing errors
const (
	// ErrCodeInvalidScript indicates an empty or malformed meditation script.
	ErrCodeInvalidScript ErrorCode = "INVALID_SCRIPT"
	// ErrCodeUnsupportedPauseClass indicates a pause token outside none/short/medium/long.
	ErrCodeUnsupportedPauseClass ErrorCode = "UNSUPPORTED_PAUSE_CLASS"
	// ErrCodeDurationTooShort is advisory: the requested duration leaves no room for silence.
	ErrCodeDurationTooShort ErrorCode = "DURATION_TOO_SHORT"
)

// Upstream and internal errors
const (
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeExternalService indicates an error from an external service.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	// ErrCodeScriptGeneration indicates the language model failed to produce a script.
	ErrCodeScriptGeneration ErrorCode = "SCRIPT_GENERATION_FAILED"
	// ErrCodeSynthesis indicates the speech engine failed to produce audio.
	ErrCodeSynthesis ErrorCode = "SYNTHESIS_FAILED"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeTimeout:            true,
	ErrCodeRateLimited:        true,
	ErrCodeExternalService:    true,
	ErrCodeScriptGeneration:   true,
	ErrCodeSynthesis:          true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
