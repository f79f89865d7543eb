package errmode

import (
	"errors"
	"fmt"
)

// IntegrityError signals a violated engine invariant: index desynchronization,
// a merge producing the wrong survivor, a monotonic timestamp moving backward.
// It is fatal regardless of the configured mode.
type IntegrityError struct {
	// Op names the operation that detected the violation.
	Op string
	// EntityKind is the kind of entity involved (album, asset, tag), if any.
	EntityKind string
	// EntityID is the id of the entity involved, if any.
	EntityID string
	// Detail describes the violated invariant.
	Detail string
}

func (e *IntegrityError) Error() string {
	if e.EntityID != "" {
		return fmt.Sprintf("integrity violation in %s (%s %s): %s", e.Op, e.EntityKind, e.EntityID, e.Detail)
	}
	return fmt.Sprintf("integrity violation in %s: %s", e.Op, e.Detail)
}

// Integrity builds an IntegrityError for an operation without an entity reference.
func Integrity(op, format string, args ...any) *IntegrityError {
	return &IntegrityError{Op: op, Detail: fmt.Sprintf(format, args...)}
}

// IntegrityFor builds an IntegrityError tied to a concrete entity.
func IntegrityFor(op, kind, id, format string, args ...any) *IntegrityError {
	return &IntegrityError{Op: op, EntityKind: kind, EntityID: id, Detail: fmt.Sprintf(format, args...)}
}

// IsIntegrity reports whether err is (or wraps) an IntegrityError.
func IsIntegrity(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}
