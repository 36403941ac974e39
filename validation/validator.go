package validation

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/bleitz/meditai/errors"
)

// Validator collects field errors for checks that struct tags cannot express,
// such as limits that come from configuration.
type Validator struct {
	errors []FieldError
}

// New creates an empty Validator.
func New() *Validator {
	return &Validator{}
}

// AddError records a field error.
func (v *Validator) AddError(field, message string) *Validator {
	v.errors = append(v.errors, FieldError{Field: field, Message: message})
	return v
}

// HasErrors reports whether any check failed.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns the recorded field errors.
func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Validate returns a VALIDATION_ERROR AppError, or nil when every check passed.
func (v *Validator) Validate() error {
	if !v.HasErrors() {
		return nil
	}
	messages := make([]string, len(v.errors))
	for i, e := range v.errors {
		messages[i] = e.Field + ": " + e.Message
	}
	return errors.Validation(strings.Join(messages, "; ")).WithDetail("fields", v.errors)
}

// Required checks that value is not blank.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
	}
	return v
}

// MaxLength checks that value has at most maxLen characters.
func (v *Validator) MaxLength(field, value string, maxLen int) *Validator {
	if len([]rune(value)) > maxLen {
		v.AddError(field, fmt.Sprintf("must be at most %d characters", maxLen))
	}
	return v
}

// Range checks that value lies in [lo, hi].
func (v *Validator) Range(field string, value, lo, hi float64) *Validator {
	if value < lo || value > hi {
		v.AddError(field, fmt.Sprintf("must be between %g and %g", lo, hi))
	}
	return v
}

// UUID checks that value is a non-nil UUID.
func (v *Validator) UUID(field, value string) *Validator {
	parsed, err := uuid.Parse(value)
	switch {
	case err != nil:
		v.AddError(field, "must be a valid UUID")
	case parsed == uuid.Nil:
		v.AddError(field, "must not be the nil UUID")
	}
	return v
}
