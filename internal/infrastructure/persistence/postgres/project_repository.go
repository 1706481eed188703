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

// ProjectRepository persists projects. Tags live in a jsonb column and are
// marshalled through pgx's native json handling.
type ProjectRepository struct {
	pool *pgxpool.Pool
}

func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) error {
	if p.ID == (uuid.UUID{}) {
		p.ID = uuid.New()
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.Tags == nil {
		p.Tags = []string{}
	}
	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO projects (id, workspace_id, name, slug, description, tags, is_archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8, $9)`,
		p.ID, p.WorkspaceID, p.Name, p.Slug, p.Description, string(tags), p.IsArchived, p.CreatedAt, p.UpdatedAt)
	return err
}

const projectColumns = `id, workspace_id, name, slug, description, tags, is_archived, created_at, updated_at`

func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	return r.get(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
}

func (r *ProjectRepository) GetBySlug(ctx context.Context, workspaceID uuid.UUID, slug string) (*domain.Project, error) {
	return r.get(ctx, `SELECT `+projectColumns+` FROM projects WHERE workspace_id = $1 AND slug = $2`, workspaceID, slug)
}

func (r *ProjectRepository) get(ctx context.Context, query string, args ...any) (*domain.Project, error) {
	var p domain.Project
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&p.ID, &p.WorkspaceID, &p.Name, &p.Slug, &p.Description,
		&p.Tags, &p.IsArchived, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// GetForUser joins project -> workspace -> membership. Both returns are
// zero when the project is absent or the user is not a member of its
// workspace; callers cannot tell the two apart.
func (r *ProjectRepository) GetForUser(ctx context.Context, projectID uuid.UUID, userID string) (*domain.Project, domain.Role, error) {
	var p domain.Project
	var role domain.Role
	err := r.pool.QueryRow(ctx, `
		SELECT p.id, p.workspace_id, p.name, p.slug, p.description, p.tags, p.is_archived, p.created_at, p.updated_at, m.role
		FROM projects p
		JOIN workspaces w ON w.id = p.workspace_id
		JOIN user_workspace_roles m ON m.workspace_id = w.id
		WHERE p.id = $1 AND m.user_id = $2`, projectID, userID).
		Scan(&p.ID, &p.WorkspaceID, &p.Name, &p.Slug, &p.Description,
			&p.Tags, &p.IsArchived, &p.CreatedAt, &p.UpdatedAt, &role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", nil
		}
		return nil, "", err
	}
	return &p, role, nil
}

func (r *ProjectRepository) ListForUser(ctx context.Context, userID string, workspaceID *uuid.UUID) ([]domain.ProjectWithWorkspace, error) {
	query := `
		SELECT p.id, p.workspace_id, p.name, p.slug, p.description, p.tags, p.is_archived, p.created_at, p.updated_at,
		       w.id, w.name, w.slug, w.description
		FROM projects p
		JOIN workspaces w ON w.id = p.workspace_id
		JOIN user_workspace_roles m ON m.workspace_id = w.id
		WHERE m.user_id = $1`
	args := []any{userID}
	if workspaceID != nil {
		query += ` AND p.workspace_id = $2`
		args = append(args, *workspaceID)
	}
	query += ` ORDER BY p.created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ProjectWithWorkspace, 0)
	for rows.Next() {
		var row domain.ProjectWithWorkspace
		if err := rows.Scan(
			&row.ID, &row.WorkspaceID, &row.Name, &row.Slug, &row.Description,
			&row.Tags, &row.IsArchived, &row.CreatedAt, &row.UpdatedAt,
			&row.Workspace.ID, &row.Workspace.Name, &row.Workspace.Slug, &row.Workspace.Description,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *ProjectRepository) Update(ctx context.Context, p *domain.Project) error {
	p.UpdatedAt = time.Now()
	if p.Tags == nil {
		p.Tags = []string{}
	}
	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		UPDATE projects SET name = $2, slug = $3, description = $4, tags = $5::jsonb, is_archived = $6, updated_at = $7
		WHERE id = $1`,
		p.ID, p.Name, p.Slug, p.Description, string(tags), p.IsArchived, p.UpdatedAt)
	return err
}

func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	return err
}

func (r *ProjectRepository) Search(ctx context.Context, userID, query string, excludeIDs []uuid.UUID, limit int) ([]ports.ProjectSearchResult, error) {
	pattern := "%" + query + "%"
	if excludeIDs == nil {
		// nil would encode as SQL NULL and ANY(NULL) swallows every row.
		excludeIDs = []uuid.UUID{}
	}
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.workspace_id, p.name, p.slug, p.description, p.tags, p.is_archived, p.created_at, p.updated_at,
		       w.id, w.name, w.slug, w.description, m.role
		FROM projects p
		JOIN workspaces w ON w.id = p.workspace_id
		JOIN user_workspace_roles m ON m.workspace_id = w.id
		WHERE m.user_id = $1
		  AND (p.name ILIKE $2 OR p.slug ILIKE $2 OR p.description ILIKE $2)
		  AND NOT (p.id = ANY($3))
		LIMIT $4`, userID, pattern, excludeIDs, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ports.ProjectSearchResult, 0)
	for rows.Next() {
		var res ports.ProjectSearchResult
		if err := rows.Scan(
			&res.Project.ID, &res.Project.WorkspaceID, &res.Project.Name, &res.Project.Slug,
			&res.Project.Description, &res.Project.Tags, &res.Project.IsArchived,
			&res.Project.CreatedAt, &res.Project.UpdatedAt,
			&res.Workspace.ID, &res.Workspace.Name, &res.Workspace.Slug, &res.Workspace.Description,
			&res.Role,
		); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

var _ ports.ProjectRepository = (*ProjectRepository)(nil)
