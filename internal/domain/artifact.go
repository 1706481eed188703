package domain

import (
	"time"

	"github.com/google/uuid"
)

// ArtifactType tags the polymorphic work-item table. Only TASK has routes;
// the remaining values are reserved in the schema.
type ArtifactType string

const (
	ArtifactTask  ArtifactType = "TASK"
	ArtifactDoc   ArtifactType = "DOC"
	ArtifactAsset ArtifactType = "ASSET"
	ArtifactEvent ArtifactType = "EVENT"
)

// TaskStatus is the kanban column of a task.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusInReview   TaskStatus = "IN_REVIEW"
	StatusDone       TaskStatus = "DONE"
	StatusCancelled  TaskStatus = "CANCELLED"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusInReview, StatusDone, StatusCancelled:
		return true
	}
	return false
}

// TaskPriority orders tasks within a column.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
	PriorityUrgent TaskPriority = "URGENT"
)

// Valid reports whether p is a known priority.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ChecklistItem is one entry of a task checklist.
type ChecklistItem struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Attachment is a file reference attached to a task.
type Attachment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"`
}

// TaskContent is the typed payload of a TASK artifact. The store persists it
// as JSON but it is decoded into this shape at the boundary rather than
// cast ad hoc in business logic.
type TaskContent struct {
	Description string          `json:"description,omitempty"`
	Checklist   []ChecklistItem `json:"checklist,omitempty"`
	Attachments []Attachment    `json:"attachments,omitempty"`
}

// TaskMetadata carries the scheduling and assignment fields of a task.
type TaskMetadata struct {
	Status         TaskStatus   `json:"status"`
	Priority       TaskPriority `json:"priority"`
	DueDate        string       `json:"dueDate,omitempty"`
	EstimatedHours *float64     `json:"estimatedHours,omitempty"`
	ActualHours    *float64     `json:"actualHours,omitempty"`
	AssignedTo     []string     `json:"assignedTo,omitempty"`
	Tags           []string     `json:"tags,omitempty"`
	ParentTaskID   *uuid.UUID   `json:"parentTaskId,omitempty"`
	Position       *int         `json:"position,omitempty"`
}

// Task is a TASK artifact. ProjectID is nil for global tasks, which belong
// to their creator alone.
type Task struct {
	ID        uuid.UUID
	ProjectID *uuid.UUID
	Title     string
	Content   TaskContent
	Metadata  TaskMetadata
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TaskRow is a task listing row with its joined context. Project, Workspace
// and CreatedByUser are nil when the join has no counterpart (global task,
// deleted creator).
type TaskRow struct {
	Task
	Project       *ProjectRef
	Workspace     *WorkspaceRef
	CreatedByUser *UserRef
}
