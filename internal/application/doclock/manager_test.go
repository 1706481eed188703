package doclock

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/oconnorjohnson/project-hub/internal/application/ports"
	"github.com/oconnorjohnson/project-hub/internal/domain"
	domerrors "github.com/oconnorjohnson/project-hub/internal/domain/errors"
)

// fakeLockStore mimics the conditional-upsert contract of the postgres
// repository: one row per document, replaced only once expired.
type fakeLockStore struct {
	now   func() time.Time
	locks map[uuid.UUID]*domain.DocumentLock
}

func newFakeLockStore(now func() time.Time) *fakeLockStore {
	return &fakeLockStore{now: now, locks: make(map[uuid.UUID]*domain.DocumentLock)}
}

func (f *fakeLockStore) Acquire(_ context.Context, lock *domain.DocumentLock) (bool, error) {
	if held, ok := f.locks[lock.DocumentID]; ok && held.Active(f.now()) {
		return false, nil
	}
	f.locks[lock.DocumentID] = lock
	return true, nil
}

func (f *fakeLockStore) GetActive(_ context.Context, documentID uuid.UUID) (*domain.DocumentLock, error) {
	held, ok := f.locks[documentID]
	if !ok || !held.Active(f.now()) {
		return nil, nil
	}
	return held, nil
}

func (f *fakeLockStore) Release(_ context.Context, documentID uuid.UUID, sessionID string) (bool, error) {
	held, ok := f.locks[documentID]
	if !ok || held.LockedBy != sessionID {
		return false, nil
	}
	delete(f.locks, documentID)
	return true, nil
}

type fakeDocs struct {
	ports.DocumentRepository

	ids map[uuid.UUID]bool
}

func (f *fakeDocs) GetByID(_ context.Context, id uuid.UUID) (*domain.Document, error) {
	if !f.ids[id] {
		return nil, nil
	}
	return &domain.Document{ID: id}, nil
}

func newManagerAt(t *testing.T, docID uuid.UUID) (*Manager, *fakeLockStore, *time.Time) {
	t.Helper()
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return current }
	store := newFakeLockStore(now)
	m := NewManager(&fakeDocs{ids: map[uuid.UUID]bool{docID: true}}, store, 0)
	m.now = now
	store.now = m.now
	return m, store, &current
}

func TestAcquireReleaseCycle(t *testing.T) {
	docID := uuid.New()
	m, _, _ := newManagerAt(t, docID)
	ctx := context.Background()

	lock, err := m.Acquire(ctx, docID, "s1")
	require.NoError(t, err)
	require.Equal(t, "s1", lock.LockedBy)
	require.Equal(t, lock.LockedAt.Add(DefaultTTL), lock.ExpiresAt)

	// Contending session is told who holds the claim.
	_, err = m.Acquire(ctx, docID, "s2")
	locked := domerrors.AsLocked(err)
	require.NotNil(t, locked)
	require.Equal(t, "s1", locked.Lock.LockedBy)

	// Wrong session cannot release.
	require.ErrorIs(t, m.Release(ctx, docID, "s2"), domerrors.ErrLockNotFound)

	require.NoError(t, m.Release(ctx, docID, "s1"))
	_, err = m.Acquire(ctx, docID, "s2")
	require.NoError(t, err)
}

func TestAcquireAfterExpiry(t *testing.T) {
	docID := uuid.New()
	m, _, current := newManagerAt(t, docID)
	ctx := context.Background()

	_, err := m.Acquire(ctx, docID, "s1")
	require.NoError(t, err)

	*current = current.Add(DefaultTTL - time.Second)
	_, err = m.Acquire(ctx, docID, "s2")
	require.NotNil(t, domerrors.AsLocked(err))

	*current = current.Add(2 * time.Second)
	lock, err := m.Acquire(ctx, docID, "s2")
	require.NoError(t, err)
	require.Equal(t, "s2", lock.LockedBy)

	// The expired s1 row was replaced; releasing as s1 now fails.
	require.ErrorIs(t, m.Release(ctx, docID, "s1"), domerrors.ErrLockNotFound)
}

func TestStatusTreatsExpiredAsUnlocked(t *testing.T) {
	docID := uuid.New()
	m, _, current := newManagerAt(t, docID)
	ctx := context.Background()

	lock, err := m.Status(ctx, docID)
	require.NoError(t, err)
	require.Nil(t, lock)

	_, err = m.Acquire(ctx, docID, "s1")
	require.NoError(t, err)
	lock, err = m.Status(ctx, docID)
	require.NoError(t, err)
	require.NotNil(t, lock)

	*current = current.Add(DefaultTTL + time.Minute)
	lock, err = m.Status(ctx, docID)
	require.NoError(t, err)
	require.Nil(t, lock)
}

func TestCheckMutationAllowsOwnSession(t *testing.T) {
	docID := uuid.New()
	m, _, _ := newManagerAt(t, docID)
	ctx := context.Background()

	require.NoError(t, m.CheckMutation(ctx, docID, "s1"))

	_, err := m.Acquire(ctx, docID, "s1")
	require.NoError(t, err)

	require.NoError(t, m.CheckMutation(ctx, docID, "s1"))
	err = m.CheckMutation(ctx, docID, "s2")
	locked := domerrors.AsLocked(err)
	require.NotNil(t, locked)
	require.Equal(t, "s1", locked.Lock.LockedBy)
}

func TestAcquireUnknownDocument(t *testing.T) {
	m, _, _ := newManagerAt(t, uuid.New())
	_, err := m.Acquire(context.Background(), uuid.New(), "s1")
	require.ErrorIs(t, err, domerrors.ErrNotFound)
}
