package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/oconnorjohnson/project-hub/internal/application/access"
	"github.com/oconnorjohnson/project-hub/internal/application/doclock"
	"github.com/oconnorjohnson/project-hub/internal/application/ports"
	"github.com/oconnorjohnson/project-hub/internal/domain"
	domerrors "github.com/oconnorjohnson/project-hub/internal/domain/errors"
	"github.com/oconnorjohnson/project-hub/internal/infrastructure/http/middleware"
)

// DocumentsHandler handles /documents/* including edit locks and version
// history. Requires JWT. Project documents are visible to workspace
// members; global documents belong to their creator alone.
type DocumentsHandler struct {
	documents ports.DocumentRepository
	locks     *doclock.Manager
	access    *access.Resolver
	log       zerolog.Logger
}

func NewDocumentsHandler(documents ports.DocumentRepository, locks *doclock.Manager, resolver *access.Resolver, log zerolog.Logger) *DocumentsHandler {
	return &DocumentsHandler{documents: documents, locks: locks, access: resolver, log: log}
}

// DocumentResponse is the JSON shape for a document. Lock and CanEdit are
// populated on single reads only.
type DocumentResponse struct {
	ID        uuid.UUID            `json:"id"`
	Title     string               `json:"title"`
	Content   json.RawMessage      `json:"content"`
	ProjectID *uuid.UUID           `json:"projectId"`
	CreatedBy string               `json:"createdBy"`
	Lock      *domain.DocumentLock `json:"lock,omitempty"`
	CanEdit   *bool                `json:"canEdit,omitempty"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

func documentResponse(d *domain.Document) DocumentResponse {
	return DocumentResponse{
		ID:        d.ID,
		Title:     d.Title,
		Content:   d.Content,
		ProjectID: d.ProjectID,
		CreatedBy: d.CreatedBy,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// resolve loads a document and answers whether the caller can see and edit
// it. Invisible and nonexistent documents are both ErrNotFound.
func (h *DocumentsHandler) resolve(ctx context.Context, userID string, id uuid.UUID) (doc *domain.Document, canEdit bool, err error) {
	doc, err = h.documents.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if doc == nil {
		return nil, false, domerrors.ErrNotFound
	}
	if doc.ProjectID == nil {
		if doc.CreatedBy != userID {
			return nil, false, domerrors.ErrNotFound
		}
		return doc, true, nil
	}
	_, role, err := h.access.Project(ctx, userID, *doc.ProjectID)
	if err != nil {
		return nil, false, err
	}
	return doc, role.In(domain.RoleOwner, domain.RoleAdmin, domain.RoleMember), nil
}

// List returns documents. ?projectId lists a project's documents
// (membership required), ?global=true the caller's global documents, and no
// filter all of the caller's own. ?search filters by title; ?sortBy one of
// title, createdAt, updatedAt with ?sortOrder asc or desc.
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	q := r.URL.Query()

	filter := ports.DocumentFilter{
		CreatedBy: userID,
		Search:    q.Get("search"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}
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

	docs, err := h.documents.List(r.Context(), filter)
	if err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	items := make([]DocumentResponse, 0, len(docs))
	for i := range docs {
		items = append(items, documentResponse(&docs[i]))
	}
	writeData(w, http.StatusOK, items)
}

// Create creates a document. A projectId requires OWNER, ADMIN or MEMBER in
// the project's workspace; without one the document is global to the caller.
func (h *DocumentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	var body struct {
		Title     string          `json:"title" validate:"required,max=500"`
		Content   json.RawMessage `json:"content"`
		ProjectID *uuid.UUID      `json:"projectId"`
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
	d := &domain.Document{
		Title:     body.Title,
		Content:   body.Content,
		ProjectID: body.ProjectID,
		CreatedBy: userID,
	}
	if err := h.documents.Create(r.Context(), d); err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	writeData(w, http.StatusCreated, documentResponse(d))
}

// Get returns one document with its current lock state and whether the
// caller may edit it.
func (h *DocumentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	doc, canEdit, err := h.resolve(r.Context(), userID, id)
	if err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	lock, err := h.locks.Status(r.Context(), id)
	if err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	resp := documentResponse(doc)
	resp.Lock = lock
	resp.CanEdit = &canEdit
	writeData(w, http.StatusOK, resp)
}

// Update edits title and/or content. An active lock held by a different
// session blocks the write; the holding session passes its sessionId to
// write through its own lock. A content change snapshots the previous
// content as a version first.
func (h *DocumentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	doc, canEdit, err := h.resolve(r.Context(), userID, id)
	if err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	if !canEdit {
		writeDomainErr(w, h.log, domerrors.ErrForbidden)
		return
	}
	var body struct {
		Title     *string          `json:"title" validate:"omitempty,min=1,max=500"`
		Content   *json.RawMessage `json:"content"`
		SessionID string           `json:"sessionId"`
	}
	if !bindJSON(w, r, &body) {
		return
	}
	if err := h.locks.CheckMutation(r.Context(), id, body.SessionID); err != nil {
		writeDomainErr(w, h.log, err)
		return
	}

	if body.Content != nil && !bytes.Equal(*body.Content, doc.Content) {
		if err := h.snapshotVersion(r.Context(), doc, userID); err != nil {
			writeDomainErr(w, h.log, err)
			return
		}
		doc.Content = *body.Content
	}
	if body.Title != nil {
		doc.Title = *body.Title
	}
	if err := h.documents.Update(r.Context(), doc); err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	writeData(w, http.StatusOK, documentResponse(doc))
}

// snapshotVersion stores the document's current content as the next
// numbered version.
func (h *DocumentsHandler) snapshotVersion(ctx context.Context, doc *domain.Document, userID string) error {
	count, err := h.documents.CountVersions(ctx, doc.ID)
	if err != nil {
		return err
	}
	return h.documents.AddVersion(ctx, &domain.DocumentVersion{
		DocumentID:    doc.ID,
		Content:       doc.Content,
		VersionNumber: fmt.Sprintf("v%d", count+1),
		CreatedBy:     userID,
	})
}

// Delete removes a document and its versions. Subject to the same lock
// check as Update; the holder's sessionId comes as ?sessionId.
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	_, canEdit, err := h.resolve(r.Context(), userID, id)
	if err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	if !canEdit {
		writeDomainErr(w, h.log, domerrors.ErrForbidden)
		return
	}
	if err := h.locks.CheckMutation(r.Context(), id, r.URL.Query().Get("sessionId")); err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	if err := h.documents.Delete(r.Context(), id); err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	writeMessage(w, http.StatusOK, nil, "document deleted")
}

// VersionResponse is the JSON shape for a saved document version.
type VersionResponse struct {
	ID            uuid.UUID       `json:"id"`
	DocumentID    uuid.UUID       `json:"documentId"`
	Content       json.RawMessage `json:"content"`
	VersionNumber string          `json:"versionNumber"`
	CreatedBy     string          `json:"createdBy"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// ListVersions returns the document's saved versions, newest first.
func (h *DocumentsHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if _, _, err := h.resolve(r.Context(), userID, id); err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	versions, err := h.documents.ListVersions(r.Context(), id)
	if err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	items := make([]VersionResponse, 0, len(versions))
	for _, v := range versions {
		items = append(items, VersionResponse{
			ID:            v.ID,
			DocumentID:    v.DocumentID,
			Content:       v.Content,
			VersionNumber: v.VersionNumber,
			CreatedBy:     v.CreatedBy,
			CreatedAt:     v.CreatedAt,
		})
	}
	writeData(w, http.StatusOK, items)
}

// AcquireLock claims the document for the caller's editing session.
// Contention returns 409 with the holding lock.
func (h *DocumentsHandler) AcquireLock(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if _, canEdit, err := h.resolve(r.Context(), userID, id); err != nil {
		writeDomainErr(w, h.log, err)
		return
	} else if !canEdit {
		writeDomainErr(w, h.log, domerrors.ErrForbidden)
		return
	}
	var body struct {
		SessionID string `json:"sessionId" validate:"required,max=255"`
	}
	if !bindJSON(w, r, &body) {
		return
	}
	lock, err := h.locks.Acquire(r.Context(), id, body.SessionID)
	if err != nil {
		if domerrors.AsLocked(err) != nil {
			middleware.RecordLockAcquisition("conflict")
		} else {
			middleware.RecordLockAcquisition("error")
		}
		writeDomainErr(w, h.log, err)
		return
	}
	middleware.RecordLockAcquisition("acquired")
	writeData(w, http.StatusCreated, lock)
}

// LockStatus reports whether the document is locked and by which session.
func (h *DocumentsHandler) LockStatus(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if _, _, err := h.resolve(r.Context(), userID, id); err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	lock, err := h.locks.Status(r.Context(), id)
	if err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{
		"locked": lock != nil,
		"lock":   lock,
	})
}

// ReleaseLock drops the caller's lock. Only the exact (document, sessionId)
// pair releases; anything else is 404.
func (h *DocumentsHandler) ReleaseLock(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if _, _, err := h.resolve(r.Context(), userID, id); err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "sessionId required")
		return
	}
	if err := h.locks.Release(r.Context(), id, sessionID); err != nil {
		writeDomainErr(w, h.log, err)
		return
	}
	writeMessage(w, http.StatusOK, nil, "lock released")
}
