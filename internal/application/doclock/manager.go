// Package doclock serializes document edit sessions with a cooperative,
// time-boxed lock. The lock is advisory: only the document update and
// delete paths consult it. Expiry is lazy — there is no background sweep;
// an expired row simply stops counting and is overwritten by the next
// acquisition.
package doclock

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/oconnorjohnson/project-hub/internal/application/ports"
	"github.com/oconnorjohnson/project-hub/internal/domain"
	domerrors "github.com/oconnorjohnson/project-hub/internal/domain/errors"
)

// DefaultTTL is how long an acquired lock is honored without release.
const DefaultTTL = 30 * time.Minute

// Manager grants, checks and releases document edit locks.
type Manager struct {
	docs  ports.DocumentRepository
	locks ports.DocumentLockRepository
	ttl   time.Duration
	now   func() time.Time
}

// NewManager builds a lock manager. A non-positive ttl falls back to
// DefaultTTL.
func NewManager(docs ports.DocumentRepository, locks ports.DocumentLockRepository, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{docs: docs, locks: locks, ttl: ttl, now: time.Now}
}

// Acquire claims the document for sessionID. When an unexpired lock is
// held — by any session, including sessionID's own — it returns a
// LockedError carrying the holding lock. The underlying write is a single
// conditional upsert keyed on the document, so two concurrent acquisitions
// cannot both succeed.
func (m *Manager) Acquire(ctx context.Context, documentID uuid.UUID, sessionID string) (*domain.DocumentLock, error) {
	doc, err := m.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domerrors.ErrNotFound
	}

	now := m.now()
	lock := &domain.DocumentLock{
		ID:         uuid.New(),
		DocumentID: documentID,
		LockedBy:   sessionID,
		LockedAt:   now,
		ExpiresAt:  now.Add(m.ttl),
	}
	ok, err := m.locks.Acquire(ctx, lock)
	if err != nil {
		return nil, err
	}
	if !ok {
		held, err := m.locks.GetActive(ctx, documentID)
		if err != nil {
			return nil, err
		}
		return nil, &domerrors.LockedError{Lock: held}
	}
	return lock, nil
}

// Release drops the lock held by sessionID. Only the exact
// (documentID, sessionID) pair releases; anything else — wrong session,
// already expired and replaced, never locked — is ErrLockNotFound, so a
// client can never forcibly release another session's claim.
func (m *Manager) Release(ctx context.Context, documentID uuid.UUID, sessionID string) error {
	released, err := m.locks.Release(ctx, documentID, sessionID)
	if err != nil {
		return err
	}
	if !released {
		return domerrors.ErrLockNotFound
	}
	return nil
}

// Status returns the active lock on the document, or nil when it is
// editable. A row whose expiry has passed counts as no lock.
func (m *Manager) Status(ctx context.Context, documentID uuid.UUID) (*domain.DocumentLock, error) {
	lock, err := m.locks.GetActive(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !lock.Active(m.now()) {
		return nil, nil
	}
	return lock, nil
}

// CheckMutation returns a LockedError when an active lock held by a
// different session blocks a mutation. A caller presenting the holding
// session's id may write through its own lock.
func (m *Manager) CheckMutation(ctx context.Context, documentID uuid.UUID, sessionID string) error {
	lock, err := m.Status(ctx, documentID)
	if err != nil {
		return err
	}
	if lock != nil && lock.LockedBy != sessionID {
		return &domerrors.LockedError{Lock: lock}
	}
	return nil
}
