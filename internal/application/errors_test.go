package application

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	if err.Error() != "" {
		t.Fatalf("expected empty string for nil error, got %q", err.Error())
	}

	withFields := &ValidationError{FieldErrors: map[string]string{"field": "invalid"}}
	if got := withFields.Error(); got != "validation failed" {
		t.Fatalf("expected generic message, got %q", got)
	}
}

func TestValidationError_AddAndFieldError(t *testing.T) {
	t.Parallel()

	base := &ValidationError{}
	if base.HasErrors() {
		t.Fatalf("expected HasErrors to report false for empty error")
	}
	base.add("first", "value")
	base.add("first", "replaced")
	if got := base.FieldErrors["first"]; got != "replaced" {
		t.Fatalf("expected add to overwrite the field, got %q", got)
	}

	single := fieldError("second", "another")
	if !single.HasErrors() || len(single.FieldErrors) != 1 || single.FieldErrors["second"] != "another" {
		t.Fatalf("unexpected fieldError result %+v", single.FieldErrors)
	}
}

func TestValidateInput_RejectsBlankText(t *testing.T) {
	t.Parallel()

	vErr := validateInput(WorkerInput{Name: " ", Role: "\t", Phone: "\n ", Password: "secret1"})
	for _, field := range []string{"name", "role", "phone"} {
		if got := vErr.FieldErrors[field]; got != field+" is required" {
			t.Fatalf("expected %s to be required, got %q", field, got)
		}
	}

	blank := "  "
	vErr = validateInput(StudentUpdateInput{Name: &blank})
	if got := vErr.FieldErrors["name"]; got != "name is required" {
		t.Fatalf("expected blank update name to be rejected, got %q", got)
	}
	if vErr := validateInput(StudentUpdateInput{}); vErr.HasErrors() {
		t.Fatalf("expected omitted update fields to pass, got %v", vErr.FieldErrors)
	}
}

func TestConflictError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("wrapped: %w", newConflict("Room number already exists"))
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict to match ErrConflict")
	}

	var cErr *ConflictError
	if !errors.As(err, &cErr) || cErr.Message != "Room number already exists" {
		t.Fatalf("expected ConflictError with message, got %v", err)
	}

	if got := (&ConflictError{}).Error(); got != ErrConflict.Error() {
		t.Fatalf("expected fallback message, got %q", got)
	}
}
