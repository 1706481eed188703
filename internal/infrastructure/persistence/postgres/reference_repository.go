package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oconnorjohnson/project-hub/internal/application/ports"
	"github.com/oconnorjohnson/project-hub/internal/domain"
	domerrors "github.com/oconnorjohnson/project-hub/internal/domain/errors"
)

const uniqueViolation = "23505"

// ReferenceRepository persists the typed directed edges between workspaces
// and between projects. The (source, target, type) uniqueness lives in the
// schema; a concurrent duplicate insert surfaces as ErrDuplicateReference.
type ReferenceRepository struct {
	pool *pgxpool.Pool
}

func NewReferenceRepository(pool *pgxpool.Pool) *ReferenceRepository {
	return &ReferenceRepository{pool: pool}
}

func (r *ReferenceRepository) CreateWorkspaceReference(ctx context.Context, ref *domain.WorkspaceReference) error {
	if ref.ID == (uuid.UUID{}) {
		ref.ID = uuid.New()
	}
	now := time.Now()
	if ref.CreatedAt.IsZero() {
		ref.CreatedAt = now
	}
	ref.UpdatedAt = now
	_, err := r.pool.Exec(ctx, `
		INSERT INTO workspace_references (id, source_workspace_id, target_workspace_id, reference_type, description, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		ref.ID, ref.SourceWorkspaceID, ref.TargetWorkspaceID, ref.ReferenceType,
		ref.Description, ref.CreatedBy, ref.CreatedAt, ref.UpdatedAt)
	return mapDuplicate(err)
}

func (r *ReferenceRepository) WorkspaceReferenceExists(ctx context.Context, source, target uuid.UUID, refType domain.WorkspaceReferenceType) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM workspace_references
			WHERE source_workspace_id = $1 AND target_workspace_id = $2 AND reference_type = $3
		)`, source, target, refType).Scan(&exists)
	return exists, err
}

func (r *ReferenceRepository) ListWorkspaceReferences(ctx context.Context, workspaceID uuid.UUID) (outgoing, incoming []domain.WorkspaceReferenceEdge, err error) {
	outgoing, err = r.listWorkspaceEdges(ctx, workspaceID, true)
	if err != nil {
		return nil, nil, err
	}
	incoming, err = r.listWorkspaceEdges(ctx, workspaceID, false)
	if err != nil {
		return nil, nil, err
	}
	return outgoing, incoming, nil
}

// listWorkspaceEdges joins the counterpart workspace: the target for
// outgoing edges, the source for incoming ones.
func (r *ReferenceRepository) listWorkspaceEdges(ctx context.Context, workspaceID uuid.UUID, outgoing bool) ([]domain.WorkspaceReferenceEdge, error) {
	join, where := `r.target_workspace_id`, `r.source_workspace_id`
	if !outgoing {
		join, where = `r.source_workspace_id`, `r.target_workspace_id`
	}
	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.source_workspace_id, r.target_workspace_id, r.reference_type, r.description,
		       r.created_by, r.created_at, r.updated_at,
		       w.id, w.name, w.slug, w.description,
		       u.id, u.email, u.first_name, u.last_name
		FROM workspace_references r
		JOIN workspaces w ON w.id = `+join+`
		JOIN users u ON u.id = r.created_by
		WHERE `+where+` = $1
		ORDER BY r.created_at DESC`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.WorkspaceReferenceEdge, 0)
	for rows.Next() {
		var e domain.WorkspaceReferenceEdge
		if err := rows.Scan(
			&e.ID, &e.SourceWorkspaceID, &e.TargetWorkspaceID, &e.ReferenceType, &e.Description,
			&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
			&e.Counterpart.ID, &e.Counterpart.Name, &e.Counterpart.Slug, &e.Counterpart.Description,
			&e.CreatedByUser.ID, &e.CreatedByUser.Email, &e.CreatedByUser.FirstName, &e.CreatedByUser.LastName,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *ReferenceRepository) CreateProjectReference(ctx context.Context, ref *domain.ProjectReference) error {
	if ref.ID == (uuid.UUID{}) {
		ref.ID = uuid.New()
	}
	now := time.Now()
	if ref.CreatedAt.IsZero() {
		ref.CreatedAt = now
	}
	ref.UpdatedAt = now
	_, err := r.pool.Exec(ctx, `
		INSERT INTO project_references (id, source_project_id, target_project_id, reference_type, description, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		ref.ID, ref.SourceProjectID, ref.TargetProjectID, ref.ReferenceType,
		ref.Description, ref.CreatedBy, ref.CreatedAt, ref.UpdatedAt)
	return mapDuplicate(err)
}

func (r *ReferenceRepository) ProjectReferenceExists(ctx context.Context, source, target uuid.UUID, refType domain.ProjectReferenceType) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM project_references
			WHERE source_project_id = $1 AND target_project_id = $2 AND reference_type = $3
		)`, source, target, refType).Scan(&exists)
	return exists, err
}

func (r *ReferenceRepository) ListProjectReferences(ctx context.Context, projectID uuid.UUID) (outgoing, incoming []domain.ProjectReferenceEdge, err error) {
	outgoing, err = r.listProjectEdges(ctx, projectID, true)
	if err != nil {
		return nil, nil, err
	}
	incoming, err = r.listProjectEdges(ctx, projectID, false)
	if err != nil {
		return nil, nil, err
	}
	return outgoing, incoming, nil
}

func (r *ReferenceRepository) listProjectEdges(ctx context.Context, projectID uuid.UUID, outgoing bool) ([]domain.ProjectReferenceEdge, error) {
	join, where := `r.target_project_id`, `r.source_project_id`
	if !outgoing {
		join, where = `r.source_project_id`, `r.target_project_id`
	}
	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.source_project_id, r.target_project_id, r.reference_type, r.description,
		       r.created_by, r.created_at, r.updated_at,
		       p.id, p.name, p.slug, p.description, p.workspace_id,
		       w.id, w.name, w.slug, w.description,
		       u.id, u.email, u.first_name, u.last_name
		FROM project_references r
		JOIN projects p ON p.id = `+join+`
		JOIN workspaces w ON w.id = p.workspace_id
		JOIN users u ON u.id = r.created_by
		WHERE `+where+` = $1
		ORDER BY r.created_at DESC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ProjectReferenceEdge, 0)
	for rows.Next() {
		var e domain.ProjectReferenceEdge
		if err := rows.Scan(
			&e.ID, &e.SourceProjectID, &e.TargetProjectID, &e.ReferenceType, &e.Description,
			&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
			&e.Counterpart.ID, &e.Counterpart.Name, &e.Counterpart.Slug, &e.Counterpart.Description, &e.Counterpart.WorkspaceID,
			&e.CounterpartWorkspace.ID, &e.CounterpartWorkspace.Name, &e.CounterpartWorkspace.Slug, &e.CounterpartWorkspace.Description,
			&e.CreatedByUser.ID, &e.CreatedByUser.Email, &e.CreatedByUser.FirstName, &e.CreatedByUser.LastName,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func mapDuplicate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domerrors.ErrDuplicateReference
	}
	return err
}

var _ ports.ReferenceRepository = (*ReferenceRepository)(nil)
