package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oconnorjohnson/project-hub/internal/application/ports"
	"github.com/oconnorjohnson/project-hub/internal/domain"
)

// TaskRepository persists TASK rows of the artifacts table. Content and
// metadata are typed structs marshalled to jsonb at this boundary; nothing
// above it sees raw JSON.
type TaskRepository struct {
	pool *pgxpool.Pool
}

func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	if t.ID == (uuid.UUID{}) {
		t.ID = uuid.New()
	}
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	content, err := json.Marshal(t.Content)
	if err != nil {
		return err
	}
	metadata, err := json.Marshal(t.Metadata)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO artifacts (id, project_id, type, title, content, metadata, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb, $7, $8, $9)`,
		t.ID, t.ProjectID, domain.ArtifactTask, t.Title, string(content), string(metadata),
		t.CreatedBy, t.CreatedAt, t.UpdatedAt)
	return err
}

const taskRowQuery = `
	SELECT a.id, a.project_id, a.title, a.content, a.metadata, a.created_by, a.created_at, a.updated_at,
	       p.id, p.name, p.slug, p.description, p.workspace_id,
	       w.id, w.name, w.slug, w.description,
	       u.id, u.email, u.first_name, u.last_name, u.image_url
	FROM artifacts a
	LEFT JOIN projects p ON p.id = a.project_id
	LEFT JOIN workspaces w ON w.id = p.workspace_id
	LEFT JOIN users u ON u.id = a.created_by
	WHERE a.type = 'TASK'`

func (r *TaskRepository) GetRow(ctx context.Context, id uuid.UUID) (*domain.TaskRow, error) {
	row, err := scanTaskRow(r.pool.QueryRow(ctx, taskRowQuery+` AND a.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return row, nil
}

func (r *TaskRepository) List(ctx context.Context, f ports.TaskFilter) ([]domain.TaskRow, error) {
	query := taskRowQuery
	args := []any{}
	switch {
	case f.GlobalOnly:
		query += ` AND a.project_id IS NULL AND a.created_by = $1`
		args = append(args, f.CreatedBy)
	case f.ProjectID != nil:
		query += ` AND a.project_id = $1`
		args = append(args, *f.ProjectID)
	default:
		query += ` AND a.created_by = $1`
		args = append(args, f.CreatedBy)
	}
	query += ` ORDER BY a.created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.TaskRow, 0)
	for rows.Next() {
		row, err := scanTaskRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *row)
	}
	return out, rows.Err()
}

func scanTaskRow(row pgx.Row) (*domain.TaskRow, error) {
	var t domain.TaskRow
	var content, metadata []byte
	var (
		projID, wsID                   *uuid.UUID
		projName, projSlug             *string
		projDesc                       *string
		projWorkspaceID                *uuid.UUID
		wsName, wsSlug, wsDesc         *string
		userID, userEmail              *string
		userFirst, userLast, userImage *string
	)
	if err := row.Scan(
		&t.ID, &t.Task.ProjectID, &t.Title, &content, &metadata, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
		&projID, &projName, &projSlug, &projDesc, &projWorkspaceID,
		&wsID, &wsName, &wsSlug, &wsDesc,
		&userID, &userEmail, &userFirst, &userLast, &userImage,
	); err != nil {
		return nil, err
	}
	if len(content) > 0 {
		if err := json.Unmarshal(content, &t.Content); err != nil {
			return nil, err
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &t.Metadata); err != nil {
			return nil, err
		}
	}
	if projID != nil {
		t.Project = &domain.ProjectRef{
			ID: *projID, Name: *projName, Slug: *projSlug,
			Description: projDesc, WorkspaceID: *projWorkspaceID,
		}
	}
	if wsID != nil {
		t.Workspace = &domain.WorkspaceRef{ID: *wsID, Name: *wsName, Slug: *wsSlug, Description: wsDesc}
	}
	if userID != nil {
		t.CreatedByUser = &domain.UserRef{
			ID: *userID, Email: *userEmail,
			FirstName: userFirst, LastName: userLast, ImageURL: userImage,
		}
	}
	return &t, nil
}

var _ ports.TaskRepository = (*TaskRepository)(nil)
