package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/oconnorjohnson/project-hub/internal/application/access"
	"github.com/oconnorjohnson/project-hub/internal/application/ports"
	"github.com/oconnorjohnson/project-hub/internal/domain"
	"github.com/oconnorjohnson/project-hub/internal/infrastructure/http/middleware"
)

// TasksHandler handles /tasks. Requires JWT. Tasks are either
// project-scoped (visibility through workspace membership) or global
// (visible to their creator only).
type TasksHandler struct {
	tasks  ports.TaskRepository
	access *access.Resolver
	log    zerolog.Logger
}

func NewTasksHandler(tasks ports.TaskRepository, resolver *access.Resolver, log zerolog.Logger) *TasksHandler {
	return &TasksHandler{tasks: tasks, access: resolver, log: log}
}

// TaskResponse is the JSON shape for a task listing row.
type TaskResponse struct {
	ID        uuid.UUID            `json:"id"`
	ProjectID *uuid.UUID           `json:"projectId"`
	Title     string               `json:"title"`
	Content   domain.TaskContent   `json:"content"`
	Metadata  domain.TaskMetadata  `json:"metadata"`
	Project   *domain.ProjectRef   `json:"project,omitempty"`
	Workspace *domain.WorkspaceRef `json:"workspace,omitempty"`
	CreatedBy *domain.UserRef      `json:"createdBy,omitempty"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

func taskResponse(row *domain.TaskRow) TaskResponse {
	return TaskResponse{
		ID:        row.ID,
		ProjectID: row.Task.ProjectID,
		Title:     row.Title,
		Content:   row.Content,
		Metadata:  row.Metadata,
		Project:   row.Project,
		Workspace: row.Workspace,
		CreatedBy: row.CreatedByUser,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

// List returns tasks, newest first. ?projectId lists a project's tasks
// (membership required), ?global=true the caller's global tasks, and no
// filter the caller's own tasks everywhere.
func (h *TasksHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	q := r.URL.Query()

	filter := ports.TaskFilter{CreatedBy: userID}
	if raw := q.Get("projectId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid projectId")
			return
		}
		if _, _, err := h.access.Project(r.Context(), userID, id); err != nil {
			writeDomainErr(w, h.log, err)
			return
		}
		filter.ProjectID = &id
	} else if q.Get("global") == "true" {
		filter.GlobalOnly = true
	}

	rows, err := h.tasks.List(r.Context(), filter)
	if err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	items := make([]TaskResponse, 0, len(rows))
	for i := range rows {
		items = append(items, taskResponse(&rows[i]))
	}
	writeData(w, http.StatusOK, items)
}

// Create creates a task. A projectId requires OWNER, ADMIN or MEMBER in the
// project's workspace; without one the task is global to the caller.
func (h *TasksHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	var body struct {
		ProjectID *uuid.UUID          `json:"projectId"`
		Title     string              `json:"title" validate:"required,max=500"`
		Content   domain.TaskContent  `json:"content"`
		Metadata  domain.TaskMetadata `json:"metadata"`
	}
	if !bindJSON(w, r, &body) {
		return
	}
	if body.ProjectID != nil {
		if _, _, err := h.access.Project(r.Context(), userID, *body.ProjectID,
			domain.RoleOwner, domain.RoleAdmin, domain.RoleMember); err != nil {
			writeDomainErr(w, h.log, err)
			return
		}
	}
	if body.Metadata.Status == "" {
		body.Metadata.Status = domain.StatusTodo
	}
	if body.Metadata.Priority == "" {
		body.Metadata.Priority = domain.PriorityMedium
	}
	if !body.Metadata.Status.Valid() {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid status")
		return
	}
	if !body.Metadata.Priority.Valid() {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid priority")
		return
	}

	t := &domain.Task{
		ProjectID: body.ProjectID,
		Title:     body.Title,
		Content:   body.Content,
		Metadata:  body.Metadata,
		CreatedBy: userID,
	}
	if err := h.tasks.Create(r.Context(), t); err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	row, err := h.tasks.GetRow(r.Context(), t.ID)
	if err != nil || row == nil {
		// The insert succeeded; fall back to the bare task.
		row = &domain.TaskRow{Task: *t}
	}
	writeData(w, http.StatusCreated, taskResponse(row))
}
