// Package access answers "may user U perform an operation requiring role
// set R on workspace or project P". Every workspace- and project-scoped
// handler goes through it; global artifacts and documents bypass it and
// check creator identity instead.
package access

import (
	"context"

	"github.com/google/uuid"

	"github.com/oconnorjohnson/project-hub/internal/application/ports"
	"github.com/oconnorjohnson/project-hub/internal/domain"
	domerrors "github.com/oconnorjohnson/project-hub/internal/domain/errors"
)

// Resolver resolves a caller's role against a target workspace or project.
// It is a pure read over the membership table; it holds no state between
// requests.
type Resolver struct {
	memberships ports.MembershipRepository
	projects    ports.ProjectRepository
}

// NewResolver builds a resolver over the given repositories.
func NewResolver(memberships ports.MembershipRepository, projects ports.ProjectRepository) *Resolver {
	return &Resolver{memberships: memberships, projects: projects}
}

// Workspace resolves the caller's role in the workspace. A missing
// membership maps to ErrNotFound regardless of whether the workspace
// exists; a role outside the allowed set maps to ErrForbidden. An empty
// allowed set accepts any member.
func (r *Resolver) Workspace(ctx context.Context, userID string, workspaceID uuid.UUID, allowed ...domain.Role) (domain.Role, error) {
	m, err := r.memberships.Get(ctx, userID, workspaceID)
	if err != nil {
		return "", err
	}
	if m == nil {
		return "", domerrors.ErrNotFound
	}
	if len(allowed) > 0 && !m.Role.In(allowed...) {
		return "", domerrors.ErrForbidden
	}
	return m.Role, nil
}

// Project resolves the caller's role in the project's workspace and returns
// the project alongside it. Absence of the project and absence of a
// membership collapse into the same ErrNotFound.
func (r *Resolver) Project(ctx context.Context, userID string, projectID uuid.UUID, allowed ...domain.Role) (*domain.Project, domain.Role, error) {
	p, role, err := r.projects.GetForUser(ctx, projectID, userID)
	if err != nil {
		return nil, "", err
	}
	if p == nil {
		return nil, "", domerrors.ErrNotFound
	}
	if len(allowed) > 0 && !role.In(allowed...) {
		return nil, "", domerrors.ErrForbidden
	}
	return p, role, nil
}
