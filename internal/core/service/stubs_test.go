package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/99minutos/storefront/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*domain.User
	nextID  int
	findErr error // if set, FindByEmail returns this error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) byEmail(email string) *domain.User {
	for _, u := range r.byID {
		if domain.NormalizeEmail(u.Email) == domain.NormalizeEmail(email) {
			return u
		}
	}
	return nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	if u := r.byEmail(email); u != nil {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byEmail(user.Email) != nil {
		return nil, domain.ErrUserExists
	}
	clone := cloneUser(user)
	if clone.ID == "" {
		r.nextID++
		clone.ID = fmt.Sprintf("u%d", r.nextID)
	}
	r.byID[clone.ID] = clone
	return cloneUser(clone), nil
}

func (r *stubUserRepo) Upsert(ctx context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	existing := r.byEmail(user.Email)
	if existing != nil {
		existing.Name = user.Name
		existing.PasswordHash = user.PasswordHash
		existing.Role = user.Role
		out := cloneUser(existing)
		r.mu.Unlock()
		return out, nil
	}
	r.mu.Unlock()
	return r.Create(ctx, user)
}

func (r *stubUserRepo) Update(_ context.Context, id string, upd domain.UserUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	if upd.AvatarURL != nil {
		u.AvatarURL = *upd.AvatarURL
	}
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// seed inserts a user with the given role and returns it.
func (r *stubUserRepo) seed(t *testing.T, id, email string, role domain.Role) *domain.User {
	t.Helper()
	u, err := r.Create(context.Background(), &domain.User{ID: id, Email: email, Name: id, Role: role})
	if err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
	return u
}

type stubCategoryRepo struct {
	byID map[string]*domain.Category
	n    int
}

func newStubCategoryRepo() *stubCategoryRepo {
	return &stubCategoryRepo{byID: make(map[string]*domain.Category)}
}

func (r *stubCategoryRepo) List(_ context.Context) ([]*domain.Category, error) {
	out := make([]*domain.Category, 0, len(r.byID))
	for _, c := range r.byID {
		clone := *c
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubCategoryRepo) Create(_ context.Context, c *domain.Category) (*domain.Category, error) {
	for _, existing := range r.byID {
		if existing.Slug == c.Slug {
			return nil, domain.ErrCategoryExists
		}
	}
	r.n++
	clone := *c
	clone.ID = fmt.Sprintf("c%d", r.n)
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubCategoryRepo) Rename(_ context.Context, id, name, slug string) (*domain.Category, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	c.Name, c.Slug = name, slug
	out := *c
	return &out, nil
}

func (r *stubCategoryRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrCategoryNotFound
	}
	delete(r.byID, id)
	return nil
}

type stubAuditRepo struct {
	inserted  []*domain.AuditEvent
	insertErr error
	lastLimit int
}

func (r *stubAuditRepo) Insert(_ context.Context, e *domain.AuditEvent) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.inserted = append(r.inserted, e)
	return nil
}

func (r *stubAuditRepo) ListRecent(_ context.Context, limit int) ([]*domain.AuditEvent, error) {
	r.lastLimit = limit
	return r.inserted, nil
}

type stubAuditSink struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (s *stubAuditSink) Enqueue(e domain.AuditEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *stubAuditSink) actions() []domain.AuditAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AuditAction, len(s.events))
	for i, e := range s.events {
		out[i] = e.Action
	}
	return out
}

type stubLimiter struct {
	allow    bool
	allowErr error
	attempts map[string]int
	resets   []string
}

func (l *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	if l.attempts == nil {
		l.attempts = make(map[string]int)
	}
	l.attempts[key]++
	return l.allow, l.allowErr
}

func (l *stubLimiter) Reset(_ context.Context, key string) error {
	l.resets = append(l.resets, key)
	return nil
}

// ---------------------------------------------------------------------------
// Session helpers
// ---------------------------------------------------------------------------

const testSecret = "test-signing-secret"

func newTestIssuer(t *testing.T, opts ...SessionOption) *SessionIssuer {
	t.Helper()
	issuer, err := NewSessionIssuer(testSecret, time.Hour, opts...)
	if err != nil {
		t.Fatalf("NewSessionIssuer: %v", err)
	}
	return issuer
}

// ctxAs returns a context carrying a freshly issued token for user.
func ctxAs(t *testing.T, issuer *SessionIssuer, user *domain.User) context.Context {
	t.Helper()
	token, _, err := issuer.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return WithSessionToken(context.Background(), token)
}
