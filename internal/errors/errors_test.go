package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFoundError_Error(t *testing.T) {
	err := NewNotFoundError(42)
	if got, want := err.Error(), "tool 42 not found"; got != want {
		t.Errorf("NotFoundError.Error() = %q, want %q", got, want)
	}
	if err.ID != 42 {
		t.Errorf("ID = %d, want 42", err.ID)
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ValidationError
		expected string
	}{
		{
			name:     "no fields",
			err:      NewValidationError(),
			expected: "validation failed",
		},
		{
			name: "single field",
			err: NewValidationError(FieldError{
				Type: TypeMissing,
				Loc:  []string{"body", "name"},
				Msg:  "Field required",
			}),
			expected: "validation failed: body.name: Field required",
		},
		{
			name: "multiple fields",
			err: NewValidationError(
				FieldError{Type: TypeMissing, Loc: []string{"body", "name"}, Msg: "Field required"},
				FieldError{Type: TypeBoolType, Loc: []string{"body", "is_open_source"}, Msg: "Input should be a valid boolean"},
			),
			expected: "validation failed (2 errors): body.name: Field required; body.is_open_source: Input should be a valid boolean",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("ValidationError.Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"NotFoundError", NewNotFoundError(1), true},
		{"wrapped NotFoundError", fmt.Errorf("get tool: %w", NewNotFoundError(1)), true},
		{"ValidationError", NewValidationError(), false},
		{"generic error", errors.New("some error"), false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.expected {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsValidation(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"ValidationError", NewValidationError(), true},
		{"wrapped ValidationError", fmt.Errorf("create tool: %w", NewValidationError()), true},
		{"NotFoundError", NewNotFoundError(1), false},
		{"generic error", errors.New("some error"), false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidation(tt.err); got != tt.expected {
				t.Errorf("IsValidation() = %v, want %v", got, tt.expected)
			}
		})
	}
}
