package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oconnorjohnson/project-hub/internal/application/ports"
	"github.com/oconnorjohnson/project-hub/internal/domain"
)

// WorkspaceRepository persists workspaces and memberships.
type WorkspaceRepository struct {
	pool *pgxpool.Pool
}

func NewWorkspaceRepository(pool *pgxpool.Pool) *WorkspaceRepository {
	return &WorkspaceRepository{pool: pool}
}

// Create inserts the workspace and the creator's OWNER membership in one
// transaction, so a workspace can never exist without an owner.
func (r *WorkspaceRepository) Create(ctx context.Context, ws *domain.Workspace, ownerID string) error {
	if ws.ID == (uuid.UUID{}) {
		ws.ID = uuid.New()
	}
	now := time.Now()
	if ws.CreatedAt.IsZero() {
		ws.CreatedAt = now
	}
	ws.UpdatedAt = now

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO workspaces (id, name, slug, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		ws.ID, ws.Name, ws.Slug, ws.Description, ws.CreatedAt, ws.UpdatedAt)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO user_workspace_roles (id, user_id, workspace_id, role, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), ownerID, ws.ID, domain.RoleOwner, now)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *WorkspaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Workspace, error) {
	return r.get(ctx, `SELECT id, name, slug, description, created_at, updated_at FROM workspaces WHERE id = $1`, id)
}

func (r *WorkspaceRepository) GetBySlug(ctx context.Context, slug string) (*domain.Workspace, error) {
	return r.get(ctx, `SELECT id, name, slug, description, created_at, updated_at FROM workspaces WHERE slug = $1`, slug)
}

func (r *WorkspaceRepository) get(ctx context.Context, query string, arg any) (*domain.Workspace, error) {
	var ws domain.Workspace
	err := r.pool.QueryRow(ctx, query, arg).
		Scan(&ws.ID, &ws.Name, &ws.Slug, &ws.Description, &ws.CreatedAt, &ws.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ws, nil
}

func (r *WorkspaceRepository) ListForUser(ctx context.Context, userID string) ([]domain.WorkspaceWithRole, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT w.id, w.name, w.slug, w.description, w.created_at, w.updated_at,
		       m.id, m.user_id, m.workspace_id, m.role, m.created_at
		FROM workspaces w
		JOIN user_workspace_roles m ON m.workspace_id = w.id
		WHERE m.user_id = $1
		ORDER BY w.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.WorkspaceWithRole, 0)
	for rows.Next() {
		var row domain.WorkspaceWithRole
		if err := rows.Scan(
			&row.ID, &row.Name, &row.Slug, &row.Description, &row.CreatedAt, &row.UpdatedAt,
			&row.Membership.ID, &row.Membership.UserID, &row.Membership.WorkspaceID,
			&row.Membership.Role, &row.Membership.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *WorkspaceRepository) Update(ctx context.Context, ws *domain.Workspace) error {
	ws.UpdatedAt = time.Now()
	_, err := r.pool.Exec(ctx, `
		UPDATE workspaces SET name = $2, slug = $3, description = $4, updated_at = $5
		WHERE id = $1`,
		ws.ID, ws.Name, ws.Slug, ws.Description, ws.UpdatedAt)
	return err
}

// Delete removes the workspace; memberships, projects and everything under
// them go with it via cascades.
func (r *WorkspaceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM workspaces WHERE id = $1`, id)
	return err
}

func (r *WorkspaceRepository) Search(ctx context.Context, userID, query string, excludeIDs []uuid.UUID, limit int) ([]ports.WorkspaceSearchResult, error) {
	pattern := "%" + query + "%"
	if excludeIDs == nil {
		// nil would encode as SQL NULL and ANY(NULL) swallows every row.
		excludeIDs = []uuid.UUID{}
	}
	rows, err := r.pool.Query(ctx, `
		SELECT w.id, w.name, w.slug, w.description, w.created_at, w.updated_at, m.role
		FROM workspaces w
		JOIN user_workspace_roles m ON m.workspace_id = w.id
		WHERE m.user_id = $1
		  AND (w.name ILIKE $2 OR w.slug ILIKE $2 OR w.description ILIKE $2)
		  AND NOT (w.id = ANY($3))
		LIMIT $4`, userID, pattern, excludeIDs, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ports.WorkspaceSearchResult, 0)
	for rows.Next() {
		var res ports.WorkspaceSearchResult
		if err := rows.Scan(
			&res.Workspace.ID, &res.Workspace.Name, &res.Workspace.Slug,
			&res.Workspace.Description, &res.Workspace.CreatedAt, &res.Workspace.UpdatedAt,
			&res.Role,
		); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

var _ ports.WorkspaceRepository = (*WorkspaceRepository)(nil)

// MembershipRepository resolves user roles in workspaces.
type MembershipRepository struct {
	pool *pgxpool.Pool
}

func NewMembershipRepository(pool *pgxpool.Pool) *MembershipRepository {
	return &MembershipRepository{pool: pool}
}

func (r *MembershipRepository) Get(ctx context.Context, userID string, workspaceID uuid.UUID) (*domain.Membership, error) {
	var m domain.Membership
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, workspace_id, role, created_at
		FROM user_workspace_roles
		WHERE user_id = $1 AND workspace_id = $2`, userID, workspaceID).
		Scan(&m.ID, &m.UserID, &m.WorkspaceID, &m.Role, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

var _ ports.MembershipRepository = (*MembershipRepository)(nil)
