package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/oconnorjohnson/project-hub/internal/application/access"
	"github.com/oconnorjohnson/project-hub/internal/application/doclock"
	"github.com/oconnorjohnson/project-hub/internal/application/ports"
	"github.com/oconnorjohnson/project-hub/internal/domain"
	"github.com/oconnorjohnson/project-hub/internal/infrastructure/http/middleware"
)

// memStore is an in-memory implementation of every repository port, shared
// by the handler tests. offset shifts its clock for lock expiry tests.
type memStore struct {
	mu         sync.Mutex
	users      map[string]*domain.User
	workspaces map[uuid.UUID]*domain.Workspace
	members    []domain.Membership
	projects   map[uuid.UUID]*domain.Project
	tasks      map[uuid.UUID]*domain.Task
	documents  map[uuid.UUID]*domain.Document
	versions   map[uuid.UUID][]domain.DocumentVersion
	locks      map[uuid.UUID]*domain.DocumentLock
	wsRefs     []*domain.WorkspaceReference
	pjRefs     []*domain.ProjectReference
	offset     time.Duration
}

func newMemStore() *memStore {
	return &memStore{
		users:      make(map[string]*domain.User),
		workspaces: make(map[uuid.UUID]*domain.Workspace),
		projects:   make(map[uuid.UUID]*domain.Project),
		tasks:      make(map[uuid.UUID]*domain.Task),
		documents:  make(map[uuid.UUID]*domain.Document),
		versions:   make(map[uuid.UUID][]domain.DocumentVersion),
		locks:      make(map[uuid.UUID]*domain.DocumentLock),
	}
}

func (s *memStore) now() time.Time { return time.Now().Add(s.offset) }

// advance shifts the store clock forward, as if d had elapsed.
func (s *memStore) advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset += d
}

// --- ports.UserRepository ---

func (s *memStore) Upsert(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *memStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
	return nil
}

func (s *memStore) GetByID(_ context.Context, userID string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

// --- ports.WorkspaceRepository ---

type fakeWorkspaces struct{ s *memStore }

func (f fakeWorkspaces) Create(_ context.Context, ws *domain.Workspace, ownerID string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if ws.ID == (uuid.UUID{}) {
		ws.ID = uuid.New()
	}
	ws.CreatedAt = f.s.now()
	ws.UpdatedAt = ws.CreatedAt
	cp := *ws
	f.s.workspaces[ws.ID] = &cp
	f.s.members = append(f.s.members, domain.Membership{
		ID: uuid.New(), UserID: ownerID, WorkspaceID: ws.ID, Role: domain.RoleOwner, CreatedAt: ws.CreatedAt,
	})
	return nil
}

func (f fakeWorkspaces) GetByID(_ context.Context, id uuid.UUID) (*domain.Workspace, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	ws, ok := f.s.workspaces[id]
	if !ok {
		return nil, nil
	}
	cp := *ws
	return &cp, nil
}

func (f fakeWorkspaces) GetBySlug(_ context.Context, slug string) (*domain.Workspace, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, ws := range f.s.workspaces {
		if ws.Slug == slug {
			cp := *ws
			return &cp, nil
		}
	}
	return nil, nil
}

func (f fakeWorkspaces) ListForUser(_ context.Context, userID string) ([]domain.WorkspaceWithRole, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := make([]domain.WorkspaceWithRole, 0)
	for _, m := range f.s.members {
		if m.UserID != userID {
			continue
		}
		if ws, ok := f.s.workspaces[m.WorkspaceID]; ok {
			out = append(out, domain.WorkspaceWithRole{Workspace: *ws, Membership: m})
		}
	}
	return out, nil
}

func (f fakeWorkspaces) Update(_ context.Context, ws *domain.Workspace) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	ws.UpdatedAt = f.s.now()
	cp := *ws
	f.s.workspaces[ws.ID] = &cp
	return nil
}

func (f fakeWorkspaces) Delete(_ context.Context, id uuid.UUID) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	delete(f.s.workspaces, id)
	kept := f.s.members[:0]
	for _, m := range f.s.members {
		if m.WorkspaceID != id {
			kept = append(kept, m)
		}
	}
	f.s.members = kept
	for pid, p := range f.s.projects {
		if p.WorkspaceID == id {
			delete(f.s.projects, pid)
		}
	}
	return nil
}

func (f fakeWorkspaces) Search(_ context.Context, userID, query string, excludeIDs []uuid.UUID, limit int) ([]ports.WorkspaceSearchResult, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	excluded := make(map[uuid.UUID]bool)
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	q := strings.ToLower(query)
	out := make([]ports.WorkspaceSearchResult, 0)
	for _, m := range f.s.members {
		if m.UserID != userID || excluded[m.WorkspaceID] {
			continue
		}
		ws, ok := f.s.workspaces[m.WorkspaceID]
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(ws.Name), q) || strings.Contains(ws.Slug, q) {
			out = append(out, ports.WorkspaceSearchResult{Workspace: *ws, Role: m.Role})
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// --- ports.MembershipRepository ---

type fakeMemberships struct{ s *memStore }

func (f fakeMemberships) Get(_ context.Context, userID string, workspaceID uuid.UUID) (*domain.Membership, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, m := range f.s.members {
		if m.UserID == userID && m.WorkspaceID == workspaceID {
			cp := m
			return &cp, nil
		}
	}
	return nil, nil
}

func (f fakeMemberships) add(userID string, workspaceID uuid.UUID, role domain.Role) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.members = append(f.s.members, domain.Membership{
		ID: uuid.New(), UserID: userID, WorkspaceID: workspaceID, Role: role, CreatedAt: f.s.now(),
	})
}

// --- ports.ProjectRepository ---

type fakeProjects struct{ s *memStore }

func (f fakeProjects) Create(_ context.Context, p *domain.Project) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if p.ID == (uuid.UUID{}) {
		p.ID = uuid.New()
	}
	p.CreatedAt = f.s.now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	f.s.projects[p.ID] = &cp
	return nil
}

func (f fakeProjects) GetByID(_ context.Context, id uuid.UUID) (*domain.Project, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p, ok := f.s.projects[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f fakeProjects) GetBySlug(_ context.Context, workspaceID uuid.UUID, slug string) (*domain.Project, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, p := range f.s.projects {
		if p.WorkspaceID == workspaceID && p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f fakeProjects) GetForUser(ctx context.Context, projectID uuid.UUID, userID string) (*domain.Project, domain.Role, error) {
	p, err := f.GetByID(ctx, projectID)
	if err != nil || p == nil {
		return nil, "", err
	}
	m, err := (fakeMemberships{f.s}).Get(ctx, userID, p.WorkspaceID)
	if err != nil || m == nil {
		return nil, "", err
	}
	return p, m.Role, nil
}

func (f fakeProjects) ListForUser(ctx context.Context, userID string, workspaceID *uuid.UUID) ([]domain.ProjectWithWorkspace, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := make([]domain.ProjectWithWorkspace, 0)
	for _, p := range f.s.projects {
		if workspaceID != nil && p.WorkspaceID != *workspaceID {
			continue
		}
		var role domain.Role
		for _, m := range f.s.members {
			if m.UserID == userID && m.WorkspaceID == p.WorkspaceID {
				role = m.Role
			}
		}
		if role == "" {
			continue
		}
		ws := f.s.workspaces[p.WorkspaceID]
		out = append(out, domain.ProjectWithWorkspace{Project: *p, Workspace: ws.Ref()})
	}
	return out, nil
}

func (f fakeProjects) Update(_ context.Context, p *domain.Project) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p.UpdatedAt = f.s.now()
	cp := *p
	f.s.projects[p.ID] = &cp
	return nil
}

func (f fakeProjects) Delete(_ context.Context, id uuid.UUID) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	delete(f.s.projects, id)
	return nil
}

func (f fakeProjects) Search(_ context.Context, userID, query string, excludeIDs []uuid.UUID, limit int) ([]ports.ProjectSearchResult, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	excluded := make(map[uuid.UUID]bool)
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	q := strings.ToLower(query)
	out := make([]ports.ProjectSearchResult, 0)
	for _, p := range f.s.projects {
		if excluded[p.ID] {
			continue
		}
		var role domain.Role
		for _, m := range f.s.members {
			if m.UserID == userID && m.WorkspaceID == p.WorkspaceID {
				role = m.Role
			}
		}
		if role == "" {
			continue
		}
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(p.Slug, q) {
			ws := f.s.workspaces[p.WorkspaceID]
			out = append(out, ports.ProjectSearchResult{Project: *p, Workspace: ws.Ref(), Role: role})
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// --- ports.TaskRepository ---

type fakeTasks struct{ s *memStore }

func (f fakeTasks) Create(_ context.Context, t *domain.Task) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if t.ID == (uuid.UUID{}) {
		t.ID = uuid.New()
	}
	t.CreatedAt = f.s.now()
	t.UpdatedAt = t.CreatedAt
	cp := *t
	f.s.tasks[t.ID] = &cp
	return nil
}

func (f fakeTasks) row(t *domain.Task) domain.TaskRow {
	row := domain.TaskRow{Task: *t}
	if t.ProjectID != nil {
		if p, ok := f.s.projects[*t.ProjectID]; ok {
			pref := p.Ref()
			row.Project = &pref
			if ws, ok := f.s.workspaces[p.WorkspaceID]; ok {
				wref := ws.Ref()
				row.Workspace = &wref
			}
		}
	}
	if u, ok := f.s.users[t.CreatedBy]; ok {
		uref := u.Ref()
		row.CreatedByUser = &uref
	}
	return row
}

func (f fakeTasks) GetRow(_ context.Context, id uuid.UUID) (*domain.TaskRow, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	t, ok := f.s.tasks[id]
	if !ok {
		return nil, nil
	}
	row := f.row(t)
	return &row, nil
}

func (f fakeTasks) List(_ context.Context, filter ports.TaskFilter) ([]domain.TaskRow, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := make([]domain.TaskRow, 0)
	for _, t := range f.s.tasks {
		switch {
		case filter.ProjectID != nil:
			if t.ProjectID == nil || *t.ProjectID != *filter.ProjectID {
				continue
			}
		case filter.GlobalOnly:
			if t.ProjectID != nil || t.CreatedBy != filter.CreatedBy {
				continue
			}
		default:
			if t.CreatedBy != filter.CreatedBy {
				continue
			}
		}
		out = append(out, f.row(t))
	}
	return out, nil
}

// --- ports.DocumentRepository ---

type fakeDocuments struct{ s *memStore }

func (f fakeDocuments) Create(_ context.Context, d *domain.Document) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if d.ID == (uuid.UUID{}) {
		d.ID = uuid.New()
	}
	d.CreatedAt = f.s.now()
	d.UpdatedAt = d.CreatedAt
	if len(d.Content) == 0 {
		d.Content = []byte(`{}`)
	}
	cp := *d
	f.s.documents[d.ID] = &cp
	return nil
}

func (f fakeDocuments) GetByID(_ context.Context, id uuid.UUID) (*domain.Document, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	d, ok := f.s.documents[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (f fakeDocuments) List(_ context.Context, filter ports.DocumentFilter) ([]domain.Document, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := make([]domain.Document, 0)
	for _, d := range f.s.documents {
		switch {
		case filter.ProjectID != nil:
			if d.ProjectID == nil || *d.ProjectID != *filter.ProjectID {
				continue
			}
		case filter.GlobalOnly:
			if d.ProjectID != nil || d.CreatedBy != filter.CreatedBy {
				continue
			}
		default:
			if d.CreatedBy != filter.CreatedBy {
				continue
			}
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(d.Title), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func (f fakeDocuments) Update(_ context.Context, d *domain.Document) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	d.UpdatedAt = f.s.now()
	cp := *d
	f.s.documents[d.ID] = &cp
	return nil
}

func (f fakeDocuments) Delete(_ context.Context, id uuid.UUID) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	delete(f.s.documents, id)
	delete(f.s.versions, id)
	delete(f.s.locks, id)
	return nil
}

func (f fakeDocuments) AddVersion(_ context.Context, v *domain.DocumentVersion) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if v.ID == (uuid.UUID{}) {
		v.ID = uuid.New()
	}
	v.CreatedAt = f.s.now()
	f.s.versions[v.DocumentID] = append(f.s.versions[v.DocumentID], *v)
	return nil
}

func (f fakeDocuments) ListVersions(_ context.Context, documentID uuid.UUID) ([]domain.DocumentVersion, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return append([]domain.DocumentVersion(nil), f.s.versions[documentID]...), nil
}

func (f fakeDocuments) CountVersions(_ context.Context, documentID uuid.UUID) (int, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return len(f.s.versions[documentID]), nil
}

// --- ports.DocumentLockRepository ---

// fakeLocks follows the conditional-upsert contract: an unexpired row
// blocks, an expired row is replaced in place.
type fakeLocks struct{ s *memStore }

func (f fakeLocks) Acquire(_ context.Context, lock *domain.DocumentLock) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	held, ok := f.s.locks[lock.DocumentID]
	if ok && f.s.now().Before(held.ExpiresAt) {
		return false, nil
	}
	cp := *lock
	f.s.locks[lock.DocumentID] = &cp
	return true, nil
}

func (f fakeLocks) GetActive(_ context.Context, documentID uuid.UUID) (*domain.DocumentLock, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	held, ok := f.s.locks[documentID]
	if !ok || !f.s.now().Before(held.ExpiresAt) {
		return nil, nil
	}
	cp := *held
	return &cp, nil
}

func (f fakeLocks) Release(_ context.Context, documentID uuid.UUID, sessionID string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	held, ok := f.s.locks[documentID]
	if !ok || held.LockedBy != sessionID {
		return false, nil
	}
	delete(f.s.locks, documentID)
	return true, nil
}

// --- ports.ReferenceRepository ---

type fakeRefs struct{ s *memStore }

func (f fakeRefs) CreateWorkspaceReference(_ context.Context, ref *domain.WorkspaceReference) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if ref.ID == (uuid.UUID{}) {
		ref.ID = uuid.New()
	}
	ref.CreatedAt = f.s.now()
	cp := *ref
	f.s.wsRefs = append(f.s.wsRefs, &cp)
	return nil
}

func (f fakeRefs) WorkspaceReferenceExists(_ context.Context, source, target uuid.UUID, refType domain.WorkspaceReferenceType) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, ref := range f.s.wsRefs {
		if ref.SourceWorkspaceID == source && ref.TargetWorkspaceID == target && ref.ReferenceType == refType {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeRefs) ListWorkspaceReferences(_ context.Context, workspaceID uuid.UUID) (outgoing, incoming []domain.WorkspaceReferenceEdge, err error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	outgoing = make([]domain.WorkspaceReferenceEdge, 0)
	incoming = make([]domain.WorkspaceReferenceEdge, 0)
	for _, ref := range f.s.wsRefs {
		if ref.SourceWorkspaceID == workspaceID {
			outgoing = append(outgoing, f.wsEdge(ref, ref.TargetWorkspaceID))
		}
		if ref.TargetWorkspaceID == workspaceID {
			incoming = append(incoming, f.wsEdge(ref, ref.SourceWorkspaceID))
		}
	}
	return outgoing, incoming, nil
}

func (f fakeRefs) wsEdge(ref *domain.WorkspaceReference, counterpartID uuid.UUID) domain.WorkspaceReferenceEdge {
	edge := domain.WorkspaceReferenceEdge{WorkspaceReference: *ref}
	if ws, ok := f.s.workspaces[counterpartID]; ok {
		edge.Counterpart = ws.Ref()
	}
	if u, ok := f.s.users[ref.CreatedBy]; ok {
		edge.CreatedByUser = u.Ref()
	}
	return edge
}

func (f fakeRefs) CreateProjectReference(_ context.Context, ref *domain.ProjectReference) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if ref.ID == (uuid.UUID{}) {
		ref.ID = uuid.New()
	}
	ref.CreatedAt = f.s.now()
	cp := *ref
	f.s.pjRefs = append(f.s.pjRefs, &cp)
	return nil
}

func (f fakeRefs) ProjectReferenceExists(_ context.Context, source, target uuid.UUID, refType domain.ProjectReferenceType) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, ref := range f.s.pjRefs {
		if ref.SourceProjectID == source && ref.TargetProjectID == target && ref.ReferenceType == refType {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeRefs) ListProjectReferences(_ context.Context, projectID uuid.UUID) (outgoing, incoming []domain.ProjectReferenceEdge, err error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	outgoing = make([]domain.ProjectReferenceEdge, 0)
	incoming = make([]domain.ProjectReferenceEdge, 0)
	for _, ref := range f.s.pjRefs {
		if ref.SourceProjectID == projectID {
			outgoing = append(outgoing, f.pjEdge(ref, ref.TargetProjectID))
		}
		if ref.TargetProjectID == projectID {
			incoming = append(incoming, f.pjEdge(ref, ref.SourceProjectID))
		}
	}
	return outgoing, incoming, nil
}

func (f fakeRefs) pjEdge(ref *domain.ProjectReference, counterpartID uuid.UUID) domain.ProjectReferenceEdge {
	edge := domain.ProjectReferenceEdge{ProjectReference: *ref}
	if p, ok := f.s.projects[counterpartID]; ok {
		edge.Counterpart = p.Ref()
		if ws, ok := f.s.workspaces[p.WorkspaceID]; ok {
			edge.CounterpartWorkspace = ws.Ref()
		}
	}
	if u, ok := f.s.users[ref.CreatedBy]; ok {
		edge.CreatedByUser = u.Ref()
	}
	return edge
}

var (
	_ ports.UserRepository         = (*memStore)(nil)
	_ ports.WorkspaceRepository    = fakeWorkspaces{}
	_ ports.MembershipRepository   = fakeMemberships{}
	_ ports.ProjectRepository      = fakeProjects{}
	_ ports.TaskRepository         = fakeTasks{}
	_ ports.DocumentRepository     = fakeDocuments{}
	_ ports.DocumentLockRepository = fakeLocks{}
	_ ports.ReferenceRepository    = fakeRefs{}
)

// env wires handlers over the memStore behind an httptest-exercised chi
// router. Auth is a stub that reads the bearer token as the user id.
type env struct {
	store  *memStore
	router chi.Router
}

func newEnv() *env {
	store := newMemStore()
	log := zerolog.Nop()

	resolver := access.NewResolver(fakeMemberships{store}, fakeProjects{store})
	lockManager := doclock.NewManager(fakeDocuments{store}, fakeLocks{store}, doclock.DefaultTTL)

	workspaces := NewWorkspacesHandler(fakeWorkspaces{store}, fakeRefs{store}, resolver, log)
	projects := NewProjectsHandler(fakeProjects{store}, fakeRefs{store}, resolver, log)
	tasks := NewTasksHandler(fakeTasks{store}, resolver, log)
	documents := NewDocumentsHandler(fakeDocuments{store}, lockManager, resolver, log)
	search := NewSearchHandler(fakeWorkspaces{store}, fakeProjects{store}, log)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(stubAuth)
		r.Route("/api/workspaces", func(r chi.Router) {
			r.Get("/", workspaces.List)
			r.Post("/", workspaces.Create)
			r.Get("/{id}", workspaces.Get)
			r.Patch("/{id}", workspaces.Update)
			r.Delete("/{id}", workspaces.Delete)
			r.Get("/{id}/references", workspaces.ListReferences)
			r.Post("/{id}/references", workspaces.CreateReference)
		})
		r.Route("/api/projects", func(r chi.Router) {
			r.Get("/", projects.List)
			r.Post("/", projects.Create)
			r.Get("/{id}", projects.Get)
			r.Patch("/{id}", projects.Update)
			r.Delete("/{id}", projects.Delete)
			r.Get("/{id}/references", projects.ListReferences)
			r.Post("/{id}/references", projects.CreateReference)
		})
		r.Route("/api/tasks", func(r chi.Router) {
			r.Get("/", tasks.List)
			r.Post("/", tasks.Create)
		})
		r.Route("/api/documents", func(r chi.Router) {
			r.Get("/", documents.List)
			r.Post("/", documents.Create)
			r.Get("/{id}", documents.Get)
			r.Patch("/{id}", documents.Update)
			r.Delete("/{id}", documents.Delete)
			r.Get("/{id}/versions", documents.ListVersions)
			r.Post("/{id}/lock", documents.AcquireLock)
			r.Get("/{id}/lock", documents.LockStatus)
			r.Delete("/{id}/lock", documents.ReleaseLock)
		})
		r.Get("/api/search", search.Search)
	})

	return &env{store: store, router: r}
}

// stubAuth takes the bearer token verbatim as the user id.
func stubAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			writeErr(w, http.StatusUnauthorized, ErrCodeUnauthorized, "missing or invalid authorization")
			return
		}
		ctx := middleware.WithUser(r.Context(), strings.TrimPrefix(auth, "Bearer "))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// do runs one request as the given user and returns the recorder.
func (e *env) do(method, target, user string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+user)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}
