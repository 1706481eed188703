package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Document is a rich-text note. Content is the editor's JSON tree, stored
// verbatim and round-tripped structurally. ProjectID is nil for global
// documents, which belong to their creator alone.
type Document struct {
	ID        uuid.UUID
	Title     string
	Content   json.RawMessage
	ProjectID *uuid.UUID
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DocumentLock is a time-boxed exclusive edit claim. It is advisory: the
// update and delete paths consult it, nothing else does. At most one row
// exists per document.
type DocumentLock struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"documentId"`
	LockedBy   string    `json:"lockedBy"`
	LockedAt   time.Time `json:"lockedAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Active reports whether the lock is still in force at the given instant.
func (l *DocumentLock) Active(now time.Time) bool {
	return l != nil && now.Before(l.ExpiresAt)
}

// DocumentVersion is a snapshot of document content taken before a save
// overwrites it.
type DocumentVersion struct {
	ID            uuid.UUID
	DocumentID    uuid.UUID
	Content       json.RawMessage
	VersionNumber string
	CreatedBy     string
	CreatedAt     time.Time
}
