package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oconnorjohnson/project-hub/internal/application/ports"
	"github.com/oconnorjohnson/project-hub/internal/domain"
)

// DocumentRepository persists documents and their version snapshots.
type DocumentRepository struct {
	pool *pgxpool.Pool
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

func (r *DocumentRepository) Create(ctx context.Context, d *domain.Document) error {
	if d.ID == (uuid.UUID{}) {
		d.ID = uuid.New()
	}
	now := time.Now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	if len(d.Content) == 0 {
		d.Content = json.RawMessage(`{}`)
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO documents (id, title, content, project_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3::jsonb, $4, $5, $6, $7)`,
		d.ID, d.Title, string(d.Content), d.ProjectID, d.CreatedBy, d.CreatedAt, d.UpdatedAt)
	return err
}

const documentColumns = `id, title, content, project_id, created_by, created_at, updated_at`

func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	var d domain.Document
	var content []byte
	err := r.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id).
		Scan(&d.ID, &d.Title, &content, &d.ProjectID, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	d.Content = json.RawMessage(content)
	return &d, nil
}

// sortColumn maps API sort keys to columns. Anything unknown falls back to
// updated_at, never into the SQL string.
func sortColumn(sortBy string) string {
	switch sortBy {
	case "title":
		return "title"
	case "createdAt":
		return "created_at"
	default:
		return "updated_at"
	}
}

func (r *DocumentRepository) List(ctx context.Context, f ports.DocumentFilter) ([]domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE 1=1`
	args := []any{}
	n := 0
	arg := func(v any) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}

	switch {
	case f.ProjectID != nil:
		query += ` AND project_id = ` + arg(*f.ProjectID)
	case f.GlobalOnly:
		query += ` AND project_id IS NULL AND created_by = ` + arg(f.CreatedBy)
	default:
		query += ` AND created_by = ` + arg(f.CreatedBy)
	}
	if f.Search != "" {
		query += ` AND title ILIKE ` + arg("%"+f.Search+"%")
	}

	order := " DESC"
	if f.SortOrder == "asc" {
		order = " ASC"
	}
	query += ` ORDER BY ` + sortColumn(f.SortBy) + order

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Document, 0)
	for rows.Next() {
		var d domain.Document
		var content []byte
		if err := rows.Scan(&d.ID, &d.Title, &content, &d.ProjectID, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		d.Content = json.RawMessage(content)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *DocumentRepository) Update(ctx context.Context, d *domain.Document) error {
	d.UpdatedAt = time.Now()
	if len(d.Content) == 0 {
		d.Content = json.RawMessage(`{}`)
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE documents SET title = $2, content = $3::jsonb, updated_at = $4
		WHERE id = $1`,
		d.ID, d.Title, string(d.Content), d.UpdatedAt)
	return err
}

func (r *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	return err
}

func (r *DocumentRepository) AddVersion(ctx context.Context, v *domain.DocumentVersion) error {
	if v.ID == (uuid.UUID{}) {
		v.ID = uuid.New()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO document_versions (id, document_id, content, version_number, created_by, created_at)
		VALUES ($1, $2, $3::jsonb, $4, $5, $6)`,
		v.ID, v.DocumentID, string(v.Content), v.VersionNumber, v.CreatedBy, v.CreatedAt)
	return err
}

func (r *DocumentRepository) ListVersions(ctx context.Context, documentID uuid.UUID) ([]domain.DocumentVersion, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, document_id, content, version_number, created_by, created_at
		FROM document_versions
		WHERE document_id = $1
		ORDER BY created_at DESC`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.DocumentVersion, 0)
	for rows.Next() {
		var v domain.DocumentVersion
		var content []byte
		if err := rows.Scan(&v.ID, &v.DocumentID, &content, &v.VersionNumber, &v.CreatedBy, &v.CreatedAt); err != nil {
			return nil, err
		}
		v.Content = json.RawMessage(content)
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *DocumentRepository) CountVersions(ctx context.Context, documentID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM document_versions WHERE document_id = $1`, documentID).
		Scan(&count)
	return count, err
}

var _ ports.DocumentRepository = (*DocumentRepository)(nil)

// DocumentLockRepository persists edit locks, one row per document.
type DocumentLockRepository struct {
	pool *pgxpool.Pool
}

func NewDocumentLockRepository(pool *pgxpool.Pool) *DocumentLockRepository {
	return &DocumentLockRepository{pool: pool}
}

// Acquire is a single conditional upsert against the unique document_id
// index: it replaces the held row only when that row has expired, so two
// concurrent acquisitions cannot both succeed. No row back means an active
// lock blocked the write.
func (r *DocumentLockRepository) Acquire(ctx context.Context, lock *domain.DocumentLock) (bool, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		INSERT INTO document_locks (id, document_id, locked_by, locked_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (document_id) DO UPDATE SET
			id = EXCLUDED.id,
			locked_by = EXCLUDED.locked_by,
			locked_at = EXCLUDED.locked_at,
			expires_at = EXCLUDED.expires_at
		WHERE document_locks.expires_at <= now()
		RETURNING id`,
		lock.ID, lock.DocumentID, lock.LockedBy, lock.LockedAt, lock.ExpiresAt).
		Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *DocumentLockRepository) GetActive(ctx context.Context, documentID uuid.UUID) (*domain.DocumentLock, error) {
	var l domain.DocumentLock
	err := r.pool.QueryRow(ctx, `
		SELECT id, document_id, locked_by, locked_at, expires_at
		FROM document_locks
		WHERE document_id = $1 AND expires_at > now()`, documentID).
		Scan(&l.ID, &l.DocumentID, &l.LockedBy, &l.LockedAt, &l.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *DocumentLockRepository) Release(ctx context.Context, documentID uuid.UUID, sessionID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM document_locks
		WHERE document_id = $1 AND locked_by = $2`, documentID, sessionID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

var _ ports.DocumentLockRepository = (*DocumentLockRepository)(nil)
