package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/oconnorjohnson/project-hub/internal/application/access"
	"github.com/oconnorjohnson/project-hub/internal/application/ports"
	"github.com/oconnorjohnson/project-hub/internal/domain"
	domerrors "github.com/oconnorjohnson/project-hub/internal/domain/errors"
	"github.com/oconnorjohnson/project-hub/internal/infrastructure/http/middleware"
)

// ProjectsHandler handles /projects/* including project references.
// Requires JWT.
type ProjectsHandler struct {
	projects   ports.ProjectRepository
	references ports.ReferenceRepository
	access     *access.Resolver
	log        zerolog.Logger
}

func NewProjectsHandler(projects ports.ProjectRepository, references ports.ReferenceRepository, resolver *access.Resolver, log zerolog.Logger) *ProjectsHandler {
	return &ProjectsHandler{projects: projects, references: references, access: resolver, log: log}
}

// ProjectResponse is the JSON shape for a project. Workspace is present in
// listings, where it is joined in.
type ProjectResponse struct {
	ID          uuid.UUID            `json:"id"`
	WorkspaceID uuid.UUID            `json:"workspaceId"`
	Name        string               `json:"name"`
	Slug        string               `json:"slug"`
	Description *string              `json:"description"`
	Tags        []string             `json:"tags"`
	IsArchived  bool                 `json:"isArchived"`
	Workspace   *domain.WorkspaceRef `json:"workspace,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

func projectResponse(p *domain.Project, ws *domain.WorkspaceRef) ProjectResponse {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return ProjectResponse{
		ID:          p.ID,
		WorkspaceID: p.WorkspaceID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Tags:        tags,
		IsArchived:  p.IsArchived,
		Workspace:   ws,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// List returns projects across the caller's workspaces, optionally narrowed
// by ?workspaceId.
func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	var workspaceID *uuid.UUID
	if raw := r.URL.Query().Get("workspaceId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid workspaceId")
			return
		}
		workspaceID = &id
	}
	rows, err := h.projects.ListForUser(r.Context(), userID, workspaceID)
	if err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	items := make([]ProjectResponse, 0, len(rows))
	for i := range rows {
		items = append(items, projectResponse(&rows[i].Project, &rows[i].Workspace))
	}
	writeData(w, http.StatusOK, items)
}

// Create creates a project in a workspace the caller can write to.
// VIEWER cannot create.
func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	var body struct {
		WorkspaceID uuid.UUID `json:"workspaceId" validate:"required"`
		Name        string    `json:"name" validate:"required,max=255"`
		Slug        string    `json:"slug" validate:"required,slug"`
		Description *string   `json:"description" validate:"omitempty,max=1000"`
		Tags        []string  `json:"tags" validate:"omitempty,dive,max=50"`
	}
	if !bindJSON(w, r, &body) {
		return
	}
	if _, err := h.access.Workspace(r.Context(), userID, body.WorkspaceID,
		domain.RoleOwner, domain.RoleAdmin, domain.RoleMember); err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	existing, err := h.projects.GetBySlug(r.Context(), body.WorkspaceID, body.Slug)
	if err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	if existing != nil {
		writeDomainErr(w, h.log, domerrors.ErrSlugTaken)
		return
	}
	p := &domain.Project{
		WorkspaceID: body.WorkspaceID,
		Name:        body.Name,
		Slug:        body.Slug,
		Description: body.Description,
		Tags:        body.Tags,
	}
	if err := h.projects.Create(r.Context(), p); err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	writeData(w, http.StatusCreated, projectResponse(p, nil))
}

// Get returns one project the caller can see.
func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	p, _, err := h.access.Project(r.Context(), userID, id)
	if err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	writeData(w, http.StatusOK, projectResponse(p, nil))
}

// Update edits a project. OWNER, ADMIN or MEMBER; the slug is immutable.
func (h *ProjectsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	p, _, err := h.access.Project(r.Context(), userID, id,
		domain.RoleOwner, domain.RoleAdmin, domain.RoleMember)
	if err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	var body struct {
		Name        *string   `json:"name" validate:"omitempty,min=1,max=255"`
		Description *string   `json:"description" validate:"omitempty,max=1000"`
		Tags        *[]string `json:"tags" validate:"omitempty,dive,max=50"`
		IsArchived  *bool     `json:"isArchived"`
	}
	if !bindJSON(w, r, &body) {
		return
	}
	if body.Name != nil {
		p.Name = *body.Name
	}
	if body.Description != nil {
		p.Description = body.Description
	}
	if body.Tags != nil {
		p.Tags = *body.Tags
	}
	if body.IsArchived != nil {
		p.IsArchived = *body.IsArchived
	}
	if err := h.projects.Update(r.Context(), p); err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	writeData(w, http.StatusOK, projectResponse(p, nil))
}

// Delete removes a project and cascades through its artifacts and
// documents. OWNER or ADMIN.
func (h *ProjectsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if _, _, err := h.access.Project(r.Context(), userID, id,
		domain.RoleOwner, domain.RoleAdmin); err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	if err := h.projects.Delete(r.Context(), id); err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	writeMessage(w, http.StatusOK, nil, "project deleted")
}

// ProjectReferenceResponse is the JSON shape for one project edge.
type ProjectReferenceResponse struct {
	ID            uuid.UUID           `json:"id"`
	SourceID      uuid.UUID           `json:"sourceProjectId"`
	TargetID      uuid.UUID           `json:"targetProjectId"`
	ReferenceType string              `json:"referenceType"`
	Description   *string             `json:"description"`
	Project       domain.ProjectRef   `json:"project"`
	Workspace     domain.WorkspaceRef `json:"workspace"`
	CreatedBy     domain.UserRef      `json:"createdBy"`
	CreatedAt     time.Time           `json:"createdAt"`
}

func projectReferenceResponse(e *domain.ProjectReferenceEdge) ProjectReferenceResponse {
	return ProjectReferenceResponse{
		ID:            e.ID,
		SourceID:      e.SourceProjectID,
		TargetID:      e.TargetProjectID,
		ReferenceType: string(e.ReferenceType),
		Description:   e.Description,
		Project:       e.Counterpart,
		Workspace:     e.CounterpartWorkspace,
		CreatedBy:     e.CreatedByUser,
		CreatedAt:     e.CreatedAt,
	}
}

// ListReferences returns the project's outgoing and incoming edges. Any
// member of the project's workspace may read them.
func (h *ProjectsHandler) ListReferences(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if _, _, err := h.access.Project(r.Context(), userID, id); err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	outgoing, incoming, err := h.references.ListProjectReferences(r.Context(), id)
	if err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	out := make([]ProjectReferenceResponse, 0, len(outgoing))
	for i := range outgoing {
		out = append(out, projectReferenceResponse(&outgoing[i]))
	}
	in := make([]ProjectReferenceResponse, 0, len(incoming))
	for i := range incoming {
		in = append(in, projectReferenceResponse(&incoming[i]))
	}
	writeData(w, http.StatusOK, map[string]interface{}{"outgoing": out, "incoming": in})
}

// CreateReference links this project to another. OWNER or ADMIN on the
// source project's workspace; the target project must be visible to the
// caller.
func (h *ProjectsHandler) CreateReference(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	sourceID, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if _, _, err := h.access.Project(r.Context(), userID, sourceID,
		domain.RoleOwner, domain.RoleAdmin); err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	var body struct {
		TargetProjectID uuid.UUID `json:"targetProjectId" validate:"required"`
		ReferenceType   string    `json:"referenceType" validate:"required"`
		Description     *string   `json:"description" validate:"omitempty,max=1000"`
	}
	if !bindJSON(w, r, &body) {
		return
	}
	refType := domain.ProjectReferenceType(body.ReferenceType)
	if !refType.Valid() {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid reference type")
		return
	}
	if body.TargetProjectID == sourceID {
		writeDomainErr(w, h.log, domerrors.ErrSelfReference)
		return
	}
	if _, _, err := h.access.Project(r.Context(), userID, body.TargetProjectID); err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	exists, err := h.references.ProjectReferenceExists(r.Context(), sourceID, body.TargetProjectID, refType)
	if err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	if exists {
		writeDomainErr(w, h.log, domerrors.ErrDuplicateReference)
		return
	}
	ref := &domain.ProjectReference{
		SourceProjectID: sourceID,
		TargetProjectID: body.TargetProjectID,
		ReferenceType:   refType,
		Description:     body.Description,
		CreatedBy:       userID,
	}
	if err := h.references.CreateProjectReference(r.Context(), ref); err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	writeData(w, http.StatusCreated, map[string]interface{}{
		"id":              ref.ID,
		"sourceProjectId": ref.SourceProjectID,
		"targetProjectId": ref.TargetProjectID,
		"referenceType":   ref.ReferenceType,
		"description":     ref.Description,
		"createdAt":       ref.CreatedAt,
	})
}
