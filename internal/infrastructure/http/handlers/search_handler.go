package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/oconnorjohnson/project-hub/internal/application/ports"
	"github.com/oconnorjohnson/project-hub/internal/domain"
	"github.com/oconnorjohnson/project-hub/internal/infrastructure/http/middleware"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

// SearchHandler handles /search over the caller's workspaces and projects.
// Requires JWT. Matching is a case-insensitive substring over name, slug
// and description.
type SearchHandler struct {
	workspaces ports.WorkspaceRepository
	projects   ports.ProjectRepository
	log        zerolog.Logger
}

func NewSearchHandler(workspaces ports.WorkspaceRepository, projects ports.ProjectRepository, log zerolog.Logger) *SearchHandler {
	return &SearchHandler{workspaces: workspaces, projects: projects, log: log}
}

// WorkspaceHit is one workspace search result.
type WorkspaceHit struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Slug        string      `json:"slug"`
	Description *string     `json:"description"`
	Role        domain.Role `json:"role"`
}

// ProjectHit is one project search result with its workspace summary.
type ProjectHit struct {
	ID          uuid.UUID           `json:"id"`
	Name        string              `json:"name"`
	Slug        string              `json:"slug"`
	Description *string             `json:"description"`
	Workspace   domain.WorkspaceRef `json:"workspace"`
	Role        domain.Role         `json:"role"`
}

// Search runs ?query against workspaces, projects or both (?type), skipping
// ?excludeIds (comma-separated), returning at most ?limit hits per kind.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())
	q := r.URL.Query()

	query := strings.TrimSpace(q.Get("query"))
	if query == "" {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "query required")
		return
	}
	kind := q.Get("type")
	switch kind {
	case "", "all", "workspaces", "projects":
	default:
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid type")
		return
	}

	limit := defaultSearchLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid limit")
			return
		}
		if n > maxSearchLimit {
			n = maxSearchLimit
		}
		limit = n
	}

	var excludeIDs []uuid.UUID
	if raw := q.Get("excludeIds"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := uuid.Parse(strings.TrimSpace(part))
			if err != nil {
				writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid excludeIds")
				return
			}
			excludeIDs = append(excludeIDs, id)
		}
	}

	result := map[string]interface{}{}

	if kind == "" || kind == "all" || kind == "workspaces" {
		rows, err := h.workspaces.Search(r.Context(), userID, query, excludeIDs, limit)
		if err != nil {
			writeDomainErr(w, h.log, err)
			return
		}
		hits := make([]WorkspaceHit, 0, len(rows))
		for _, row := range rows {
			hits = append(hits, WorkspaceHit{
				ID:          row.Workspace.ID,
				Name:        row.Workspace.Name,
				Slug:        row.Workspace.Slug,
				Description: row.Workspace.Description,
				Role:        row.Role,
			})
		}
		result["workspaces"] = hits
	}

	if kind == "" || kind == "all" || kind == "projects" {
		rows, err := h.projects.Search(r.Context(), userID, query, excludeIDs, limit)
		if err != nil {
			writeDomainErr(w, h.log, err)
			return
		}
		hits := make([]ProjectHit, 0, len(rows))
		for _, row := range rows {
			hits = append(hits, ProjectHit{
				ID:          row.Project.ID,
				Name:        row.Project.Name,
				Slug:        row.Project.Slug,
				Description: row.Project.Description,
				Workspace:   row.Workspace,
				Role:        row.Role,
			})
		}
		result["projects"] = hits
	}

	writeData(w, http.StatusOK, result)
}
