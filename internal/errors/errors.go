// Package errors provides shared error types for the DevOps Tools API.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// NotFoundMessage is the fixed detail returned for missing tool IDs.
const NotFoundMessage = "Tool not found"

// NotFoundError indicates a tool ID is absent from the store.
type NotFoundError struct {
	ID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tool %d not found", e.ID)
}

// NewNotFoundError creates a NotFoundError for a tool lookup.
func NewNotFoundError(id int) *NotFoundError {
	return &NotFoundError{ID: id}
}

// Validation error types, matching the codes API clients already understand.
const (
	TypeMissing     = "missing"
	TypeStringType  = "string_type"
	TypeStringShort = "string_too_short"
	TypeBoolType    = "bool_type"
	TypeBoolParsing = "bool_parsing"
	TypeIntParsing  = "int_parsing"
	TypeJSONInvalid = "json_invalid"
	TypeObjectType  = "model_attributes_type"
	TypeInvalid     = "value_error"
)

// FieldError describes one failing location in a request.
type FieldError struct {
	Type  string   `json:"type"`
	Loc   []string `json:"loc"`
	Msg   string   `json:"msg"`
	Input any      `json:"input,omitempty"`
}

func (f FieldError) String() string {
	return fmt.Sprintf("%s: %s", strings.Join(f.Loc, "."), f.Msg)
}

// ValidationError indicates a request did not match the Tool schema.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	switch len(e.Fields) {
	case 0:
		return "validation failed"
	case 1:
		return "validation failed: " + e.Fields[0].String()
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return fmt.Sprintf("validation failed (%d errors): %s", len(e.Fields), strings.Join(parts, "; "))
}

// NewValidationError creates a ValidationError from field errors.
func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

// IsNotFound returns true if err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return stderrors.As(err, &nf)
}

// IsValidation returns true if err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return stderrors.As(err, &ve)
}
