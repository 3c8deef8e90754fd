package application

import "errors"

var (
	// ErrUnauthenticated is returned when no valid bearer credential accompanies a request.
	ErrUnauthenticated = errors.New("application: unauthenticated")
	// ErrForbidden is returned when the acting principal lacks permission for an operation.
	ErrForbidden = errors.New("application: forbidden")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrConflict is returned when a write collides with existing state.
	ErrConflict = errors.New("application: conflict")
	// ErrInvalidCredentials indicates the supplied login identifier or password did not match.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrAccountDisabled indicates the account exists but may not sign in.
	ErrAccountDisabled = errors.New("application: account disabled")
	// ErrInvalidTransition indicates a complaint status change outside the allowed graph.
	ErrInvalidTransition = errors.New("application: invalid status transition")
)

// ConflictError carries a client facing explanation for a conflict. It matches ErrConflict.
type ConflictError struct {
	Message string
}

func newConflict(message string) *ConflictError {
	return &ConflictError{Message: message}
}

// Error implements the error interface.
func (c *ConflictError) Error() string {
	if c == nil || c.Message == "" {
		return ErrConflict.Error()
	}
	return c.Message
}

// Is reports whether target is ErrConflict.
func (c *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

func fieldError(field, message string) *ValidationError {
	vErr := &ValidationError{}
	vErr.add(field, message)
	return vErr
}
