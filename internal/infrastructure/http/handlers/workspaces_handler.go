package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/oconnorjohnson/project-hub/internal/application/access"
	"github.com/oconnorjohnson/project-hub/internal/application/ports"
	"github.com/oconnorjohnson/project-hub/internal/domain"
	domerrors "github.com/oconnorjohnson/project-hub/internal/domain/errors"
	"github.com/oconnorjohnson/project-hub/internal/infrastructure/http/middleware"
)

// WorkspacesHandler handles /workspaces/* including workspace references.
// Requires JWT.
type WorkspacesHandler struct {
	workspaces ports.WorkspaceRepository
	references ports.ReferenceRepository
	access     *access.Resolver
	log        zerolog.Logger
}

func NewWorkspacesHandler(workspaces ports.WorkspaceRepository, references ports.ReferenceRepository, resolver *access.Resolver, log zerolog.Logger) *WorkspacesHandler {
	return &WorkspacesHandler{workspaces: workspaces, references: references, access: resolver, log: log}
}

// WorkspaceResponse is the JSON shape for a workspace. Role is the caller's
// role and is present where a membership was resolved.
type WorkspaceResponse struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Slug        string      `json:"slug"`
	Description *string     `json:"description"`
	Role        domain.Role `json:"role,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func workspaceResponse(ws *domain.Workspace, role domain.Role) WorkspaceResponse {
	return WorkspaceResponse{
		ID:          ws.ID,
		Name:        ws.Name,
		Slug:        ws.Slug,
		Description: ws.Description,
		Role:        role,
		CreatedAt:   ws.CreatedAt,
		UpdatedAt:   ws.UpdatedAt,
	}
}

// List returns the caller's workspaces with their role in each.
func (h *WorkspacesHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	rows, err := h.workspaces.ListForUser(r.Context(), userID)
	if err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	items := make([]WorkspaceResponse, 0, len(rows))
	for i := range rows {
		items = append(items, workspaceResponse(&rows[i].Workspace, rows[i].Membership.Role))
	}
	writeData(w, http.StatusOK, items)
}

// Create creates a workspace; the creator becomes its OWNER in the same
// transaction.
func (h *WorkspacesHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	var body struct {
		Name        string  `json:"name" validate:"required,max=255"`
		Slug        string  `json:"slug" validate:"required,slug"`
		Description *string `json:"description" validate:"omitempty,max=1000"`
	}
	if !bindJSON(w, r, &body) {
		return
	}
	existing, err := h.workspaces.GetBySlug(r.Context(), body.Slug)
	if err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	if existing != nil {
		writeDomainErr(w, h.log, domerrors.ErrSlugTaken)
		return
	}
	ws := &domain.Workspace{
		Name:        body.Name,
		Slug:        body.Slug,
		Description: body.Description,
	}
	if err := h.workspaces.Create(r.Context(), ws, userID); err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	writeData(w, http.StatusCreated, workspaceResponse(ws, domain.RoleOwner))
}

// Get returns one workspace the caller is a member of.
func (h *WorkspacesHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	role, err := h.access.Workspace(r.Context(), userID, id)
	if err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	ws, err := h.workspaces.GetByID(r.Context(), id)
	if err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	if ws == nil {
		writeDomainErr(w, h.log, domerrors.ErrNotFound)
		return
	}
	writeData(w, http.StatusOK, workspaceResponse(ws, role))
}

// Update renames or redescribes a workspace. OWNER or ADMIN only. The slug
// is immutable.
func (h *WorkspacesHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	role, err := h.access.Workspace(r.Context(), userID, id, domain.RoleOwner, domain.RoleAdmin)
	if err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	var body struct {
		Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
		Description *string `json:"description" validate:"omitempty,max=1000"`
	}
	if !bindJSON(w, r, &body) {
		return
	}
	ws, err := h.workspaces.GetByID(r.Context(), id)
	if err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	if ws == nil {
		writeDomainErr(w, h.log, domerrors.ErrNotFound)
		return
	}
	if body.Name != nil {
		ws.Name = *body.Name
	}
	if body.Description != nil {
		ws.Description = body.Description
	}
	if err := h.workspaces.Update(r.Context(), ws); err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	writeData(w, http.StatusOK, workspaceResponse(ws, role))
}

// Delete removes a workspace and cascades through its projects, artifacts
// and documents. OWNER only.
func (h *WorkspacesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.access.Workspace(r.Context(), userID, id, domain.RoleOwner); err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	if err := h.workspaces.Delete(r.Context(), id); err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	writeMessage(w, http.StatusOK, nil, "workspace deleted")
}

// WorkspaceReferenceResponse is the JSON shape for one reference edge.
type WorkspaceReferenceResponse struct {
	ID            uuid.UUID           `json:"id"`
	SourceID      uuid.UUID           `json:"sourceWorkspaceId"`
	TargetID      uuid.UUID           `json:"targetWorkspaceId"`
	ReferenceType string              `json:"referenceType"`
	Description   *string             `json:"description"`
	Workspace     domain.WorkspaceRef `json:"workspace"`
	CreatedBy     domain.UserRef      `json:"createdBy"`
	CreatedAt     time.Time           `json:"createdAt"`
}

func workspaceReferenceResponse(e *domain.WorkspaceReferenceEdge) WorkspaceReferenceResponse {
	return WorkspaceReferenceResponse{
		ID:            e.ID,
		SourceID:      e.SourceWorkspaceID,
		TargetID:      e.TargetWorkspaceID,
		ReferenceType: string(e.ReferenceType),
		Description:   e.Description,
		Workspace:     e.Counterpart,
		CreatedBy:     e.CreatedByUser,
		CreatedAt:     e.CreatedAt,
	}
}

// ListReferences returns the workspace's outgoing and incoming edges.
// Any member may read them.
func (h *WorkspacesHandler) ListReferences(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.access.Workspace(r.Context(), userID, id); err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	outgoing, incoming, err := h.references.ListWorkspaceReferences(r.Context(), id)
	if err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	out := make([]WorkspaceReferenceResponse, 0, len(outgoing))
	for i := range outgoing {
		out = append(out, workspaceReferenceResponse(&outgoing[i]))
	}
	in := make([]WorkspaceReferenceResponse, 0, len(incoming))
	for i := range incoming {
		in = append(in, workspaceReferenceResponse(&incoming[i]))
	}
	writeData(w, http.StatusOK, map[string]interface{}{"outgoing": out, "incoming": in})
}

// CreateReference links this workspace to another. OWNER or ADMIN on the
// source; the target must be visible to the caller, self references are
// rejected and the (source, target, type) triple is unique.
func (h *WorkspacesHandler) CreateReference(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	sourceID, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.access.Workspace(r.Context(), userID, sourceID, domain.RoleOwner, domain.RoleAdmin); err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	var body struct {
		TargetWorkspaceID uuid.UUID `json:"targetWorkspaceId" validate:"required"`
		ReferenceType     string    `json:"referenceType" validate:"required"`
		Description       *string   `json:"description" validate:"omitempty,max=1000"`
	}
	if !bindJSON(w, r, &body) {
		return
	}
	refType := domain.WorkspaceReferenceType(body.ReferenceType)
	if !refType.Valid() {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid reference type")
		return
	}
	if body.TargetWorkspaceID == sourceID {
		writeDomainErr(w, h.log, domerrors.ErrSelfReference)
		return
	}
	// The caller must see the target too; a foreign workspace id behaves
	// exactly like a nonexistent one.
	if _, err := h.access.Workspace(r.Context(), userID, body.TargetWorkspaceID); err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	exists, err := h.references.WorkspaceReferenceExists(r.Context(), sourceID, body.TargetWorkspaceID, refType)
	if err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	if exists {
		writeDomainErr(w, h.log, domerrors.ErrDuplicateReference)
		return
	}
	ref := &domain.WorkspaceReference{
		SourceWorkspaceID: sourceID,
		TargetWorkspaceID: body.TargetWorkspaceID,
		ReferenceType:     refType,
		Description:       body.Description,
		CreatedBy:         userID,
	}
	if err := h.references.CreateWorkspaceReference(r.Context(), ref); err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	writeData(w, http.StatusCreated, map[string]interface{}{
		"id":                ref.ID,
		"sourceWorkspaceId": ref.SourceWorkspaceID,
		"targetWorkspaceId": ref.TargetWorkspaceID,
		"referenceType":     ref.ReferenceType,
		"description":       ref.Description,
		"createdAt":         ref.CreatedAt,
	})
}

// parseID reads a UUID path parameter, writing the 400 itself on failure.
func parseID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid id")
		return uuid.UUID{}, false
	}
	return id, true
}
