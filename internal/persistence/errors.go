package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a unique key (email, phone, room number) is already taken.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrConstraintViolation is returned when a CHECK constraint rejects the row.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrForeignKey is returned when a referenced record does not exist.
	ErrForeignKey = errors.New("persistence: foreign key violation")
	// ErrInUse is returned when a record cannot be removed while other rows reference it.
	ErrInUse = errors.New("persistence: record in use")
	// ErrCapacityExceeded is returned when a room has no free bed left.
	ErrCapacityExceeded = errors.New("persistence: room capacity exceeded")
)
