package domain

import (
	"time"

	"github.com/google/uuid"
)

// WorkspaceReferenceType classifies a workspace-to-workspace edge.
type WorkspaceReferenceType string

const (
	WorkspaceRefDependency    WorkspaceReferenceType = "DEPENDENCY"
	WorkspaceRefCollaboration WorkspaceReferenceType = "COLLABORATION"
	WorkspaceRefParentChild   WorkspaceReferenceType = "PARENT_CHILD"
)

// Valid reports whether t is a known workspace reference type.
func (t WorkspaceReferenceType) Valid() bool {
	switch t {
	case WorkspaceRefDependency, WorkspaceRefCollaboration, WorkspaceRefParentChild:
		return true
	}
	return false
}

// ProjectReferenceType classifies a project-to-project edge.
type ProjectReferenceType string

const (
	ProjectRefDependency ProjectReferenceType = "DEPENDENCY"
	ProjectRefBlocks     ProjectReferenceType = "BLOCKS"
	ProjectRefRelated    ProjectReferenceType = "RELATED"
	ProjectRefSubtask    ProjectReferenceType = "SUBTASK"
)

// Valid reports whether t is a known project reference type.
func (t ProjectReferenceType) Valid() bool {
	switch t {
	case ProjectRefDependency, ProjectRefBlocks, ProjectRefRelated, ProjectRefSubtask:
		return true
	}
	return false
}

// WorkspaceReference is a typed directed edge between two workspaces.
// (source, target, type) is unique; source may never equal target.
type WorkspaceReference struct {
	ID                uuid.UUID
	SourceWorkspaceID uuid.UUID
	TargetWorkspaceID uuid.UUID
	ReferenceType     WorkspaceReferenceType
	Description       *string
	CreatedBy         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// WorkspaceReferenceEdge is a reference listing row. Counterpart is the
// workspace on the far end of the edge: the target for outgoing listings,
// the source for incoming ones.
type WorkspaceReferenceEdge struct {
	WorkspaceReference
	Counterpart   WorkspaceRef
	CreatedByUser UserRef
}

// ProjectReference is a typed directed edge between two projects, with the
// same uniqueness and self-reference rules as workspace references.
type ProjectReference struct {
	ID              uuid.UUID
	SourceProjectID uuid.UUID
	TargetProjectID uuid.UUID
	ReferenceType   ProjectReferenceType
	Description     *string
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ProjectReferenceEdge is a project reference listing row. Counterpart and
// CounterpartWorkspace describe the project on the far end of the edge.
type ProjectReferenceEdge struct {
	ProjectReference
	Counterpart          ProjectRef
	CounterpartWorkspace WorkspaceRef
	CreatedByUser        UserRef
}
