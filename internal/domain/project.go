package domain

import (
	"time"

	"github.com/google/uuid"
)

// Project is a unit of work inside a workspace. Slugs are unique per
// workspace, not globally.
type Project struct {
	ID          uuid.UUID
	WorkspaceID uuid.UUID
	Name        string
	Slug        string
	Description *string
	Tags        []string
	IsArchived  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProjectWithWorkspace is a project listing row with its workspace summary.
type ProjectWithWorkspace struct {
	Project
	Workspace WorkspaceRef
}

// ProjectRef is the summary shape embedded in joined listings.
type ProjectRef struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	WorkspaceID uuid.UUID `json:"workspaceId"`
}

// Ref returns the summary shape for this project.
func (p *Project) Ref() ProjectRef {
	return ProjectRef{ID: p.ID, Name: p.Name, Slug: p.Slug, Description: p.Description, WorkspaceID: p.WorkspaceID}
}
