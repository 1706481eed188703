package errors

import (
	"errors"

	"github.com/oconnorjohnson/project-hub/internal/domain"
)

// Sentinel errors for handlers to map to HTTP status. ErrNotFound covers
// both a missing row and a caller without visibility into it: callers are
// never told which, so existence does not leak.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrForbidden          = errors.New("insufficient permissions")
	ErrSlugTaken          = errors.New("slug already exists")
	ErrSelfReference      = errors.New("reference cannot target its own source")
	ErrDuplicateReference = errors.New("reference already exists")
	ErrLockNotFound       = errors.New("no lock held by this session")
)

// LockedError reports that a document mutation or lock acquisition was
// blocked by an active lock. The holding lock is carried so handlers can
// return it to the client ("locked by another session").
type LockedError struct {
	Lock *domain.DocumentLock
}

func (e *LockedError) Error() string {
	return "document is locked by another session"
}

// AsLocked unwraps err into a LockedError, or nil.
func AsLocked(err error) *LockedError {
	var le *LockedError
	if errors.As(err, &le) {
		return le
	}
	return nil
}
