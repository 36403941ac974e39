// Package validation checks request bodies and configuration.
//
// Struct tags go through go-playground/validator, with a "pause" tag for
// script pause tokens:
//
//	type segment struct {
//	    Paragraph string `json:"paragraph" validate:"required"`
//	    Pause     string `json:"pause" validate:"required,pause"`
//	}
//	err := validation.Validate(seg)
//
// Checks against runtime limits use the collecting Validator:
//
//	err := validation.New().MaxLength("topic", topic, limits.MaxTopicLength).Validate()
package validation
