package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrConstraintViolation is returned when a row fails a CHECK constraint.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrForeignKeyViolation is returned when a referenced row does not exist.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
	// ErrOverlap is returned when a reservation would double-book a room or an employee.
	ErrOverlap = errors.New("persistence: overlapping reservation")
)

// OverlapError reports which resources rejected a reservation write.
// It matches ErrOverlap with errors.Is.
type OverlapError struct {
	Room     bool
	Employee bool
}

// Error implements the error interface.
func (e *OverlapError) Error() string {
	switch {
	case e.Room && e.Employee:
		return "persistence: room and employee already booked for this period"
	case e.Employee:
		return "persistence: employee already booked for this period"
	default:
		return "persistence: room already booked for this period"
	}
}

// Unwrap exposes the ErrOverlap sentinel.
func (e *OverlapError) Unwrap() error {
	return ErrOverlap
}
