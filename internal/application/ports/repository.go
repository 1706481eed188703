package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/oconnorjohnson/project-hub/internal/domain"
)

// UserRepository persists identities synced from the external provider.
type UserRepository interface {
	Upsert(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, userID string) error
	GetByID(ctx context.Context, userID string) (*domain.User, error)
}

// WorkspaceSearchResult is one workspace hit of the search endpoint.
type WorkspaceSearchResult struct {
	Workspace domain.Workspace
	Role      domain.Role
}

// WorkspaceRepository persists workspaces and their memberships.
type WorkspaceRepository interface {
	// Create inserts the workspace and the creator's OWNER membership.
	Create(ctx context.Context, ws *domain.Workspace, ownerID string) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Workspace, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Workspace, error)
	ListForUser(ctx context.Context, userID string) ([]domain.WorkspaceWithRole, error)
	Update(ctx context.Context, ws *domain.Workspace) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, userID, query string, excludeIDs []uuid.UUID, limit int) ([]WorkspaceSearchResult, error)
}

// MembershipRepository resolves a user's role in a workspace. Get returns
// nil (not an error) when the user has no membership.
type MembershipRepository interface {
	Get(ctx context.Context, userID string, workspaceID uuid.UUID) (*domain.Membership, error)
}

// ProjectSearchResult is one project hit of the search endpoint.
type ProjectSearchResult struct {
	Project   domain.Project
	Workspace domain.WorkspaceRef
	Role      domain.Role
}

// ProjectRepository persists projects.
type ProjectRepository interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	GetBySlug(ctx context.Context, workspaceID uuid.UUID, slug string) (*domain.Project, error)
	// GetForUser joins project -> workspace -> membership; both returns are
	// zero when the project does not exist or the user has no membership in
	// its workspace (the two cases are indistinguishable on purpose).
	GetForUser(ctx context.Context, projectID uuid.UUID, userID string) (*domain.Project, domain.Role, error)
	ListForUser(ctx context.Context, userID string, workspaceID *uuid.UUID) ([]domain.ProjectWithWorkspace, error)
	Update(ctx context.Context, p *domain.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, userID, query string, excludeIDs []uuid.UUID, limit int) ([]ProjectSearchResult, error)
}

// TaskFilter narrows task listings. GlobalOnly selects tasks with no
// project, which are always additionally scoped to CreatedBy.
type TaskFilter struct {
	ProjectID  *uuid.UUID
	GlobalOnly bool
	CreatedBy  string
}

// TaskRepository persists TASK artifacts.
type TaskRepository interface {
	Create(ctx context.Context, t *domain.Task) error
	GetRow(ctx context.Context, id uuid.UUID) (*domain.TaskRow, error)
	List(ctx context.Context, f TaskFilter) ([]domain.TaskRow, error)
}

// DocumentFilter narrows document listings. SortBy is one of title,
// createdAt, updatedAt; SortOrder is asc or desc.
type DocumentFilter struct {
	ProjectID  *uuid.UUID
	GlobalOnly bool
	CreatedBy  string
	Search     string
	SortBy     string
	SortOrder  string
}

// DocumentRepository persists documents and their version snapshots.
type DocumentRepository interface {
	Create(ctx context.Context, d *domain.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error)
	List(ctx context.Context, f DocumentFilter) ([]domain.Document, error)
	Update(ctx context.Context, d *domain.Document) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddVersion(ctx context.Context, v *domain.DocumentVersion) error
	ListVersions(ctx context.Context, documentID uuid.UUID) ([]domain.DocumentVersion, error)
	CountVersions(ctx context.Context, documentID uuid.UUID) (int, error)
}

// DocumentLockRepository persists edit locks, at most one row per document.
type DocumentLockRepository interface {
	// Acquire installs the lock unless an unexpired lock is already held.
	// The write is a single conditional statement: it replaces an expired
	// lock row in place and reports false, without writing, when the held
	// lock is still active.
	Acquire(ctx context.Context, lock *domain.DocumentLock) (bool, error)
	// GetActive returns the unexpired lock for the document, or nil.
	GetActive(ctx context.Context, documentID uuid.UUID) (*domain.DocumentLock, error)
	// Release deletes the lock matching (documentID, sessionID) and reports
	// whether a row was deleted.
	Release(ctx context.Context, documentID uuid.UUID, sessionID string) (bool, error)
}

// ReferenceRepository persists workspace and project reference edges.
type ReferenceRepository interface {
	CreateWorkspaceReference(ctx context.Context, ref *domain.WorkspaceReference) error
	// WorkspaceReferenceExists checks the (source, target, type) triple.
	WorkspaceReferenceExists(ctx context.Context, source, target uuid.UUID, refType domain.WorkspaceReferenceType) (bool, error)
	ListWorkspaceReferences(ctx context.Context, workspaceID uuid.UUID) (outgoing, incoming []domain.WorkspaceReferenceEdge, err error)

	CreateProjectReference(ctx context.Context, ref *domain.ProjectReference) error
	ProjectReferenceExists(ctx context.Context, source, target uuid.UUID, refType domain.ProjectReferenceType) (bool, error)
	ListProjectReferences(ctx context.Context, projectID uuid.UUID) (outgoing, incoming []domain.ProjectReferenceEdge, err error)
}
