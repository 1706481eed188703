package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is a user's role within a workspace. Authorization is a set-membership
// check per operation, not a numeric hierarchy.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
	RoleViewer Role = "VIEWER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}

// In reports whether r is in the given role set.
func (r Role) In(roles ...Role) bool {
	for _, candidate := range roles {
		if r == candidate {
			return true
		}
	}
	return false
}

// Workspace is the tenant boundary. Slugs are globally unique.
type Workspace struct {
	ID          uuid.UUID
	Name        string
	Slug        string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Membership links a user to a workspace with a role.
type Membership struct {
	ID          uuid.UUID
	UserID      string
	WorkspaceID uuid.UUID
	Role        Role
	CreatedAt   time.Time
}

// WorkspaceWithRole is a workspace listing row carrying the caller's role.
type WorkspaceWithRole struct {
	Workspace
	Membership Membership
}

// WorkspaceRef is the summary shape embedded in joined listings.
type WorkspaceRef struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
}

// Ref returns the summary shape for this workspace.
func (w *Workspace) Ref() WorkspaceRef {
	return WorkspaceRef{ID: w.ID, Name: w.Name, Slug: w.Slug, Description: w.Description}
}
