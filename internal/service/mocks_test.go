package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx/types"

	"github.com/Maverics-Seneca/auth-service/internal/models"
	appErrors "github.com/Maverics-Seneca/auth-service/pkg/errors"
	"github.com/Maverics-Seneca/auth-service/pkg/mailer"
)

type mockUserRepo struct {
	mu             sync.Mutex
	users          map[string]*models.User
	findByIDErr    error
	findByEmailErr error
	updateErr      error
	deleted        []string
	seq            int
}

func newMockUserRepo(users ...*models.User) *mockUserRepo {
	m := &mockUserRepo{users: make(map[string]*models.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]models.User, 0)
	for _, u := range m.users {
		if filter.OrganizationID != "" && u.OrgID() != filter.OrganizationID {
			continue
		}
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findByIDErr != nil {
		return nil, m.findByIDErr
	}
	if user, ok := m.users[id]; ok {
		copy := *user
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findByEmailErr != nil {
		return nil, m.findByEmailErr
	}
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == "" {
		m.seq++
		user.ID = fmt.Sprintf("user-%d", m.seq)
	}
	user.Email = strings.ToLower(user.Email)
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, user *models.User) error {
	return m.Update(ctx, user)
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = updatedAt
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	m.deleted = append(m.deleted, id)
	return nil
}

// mockAuditStore mirrors the ordering and filtering of the SQL store.
type mockAuditStore struct {
	mu        sync.Mutex
	entries   []models.LogEntry
	insertErr error
	listErr   error
	attempts  int
	clock     time.Time
}

func (m *mockAuditStore) Insert(ctx context.Context, entry *models.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
	if m.insertErr != nil {
		return m.insertErr
	}
	if m.clock.IsZero() {
		m.clock = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	m.clock = m.clock.Add(time.Second)
	ts := m.clock
	entry.ID = fmt.Sprintf("log-%03d", len(m.entries)+1)
	entry.Timestamp = &ts
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockAuditStore) List(ctx context.Context, filter models.LogFilter) ([]models.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	excluded := make(map[string]bool, len(filter.ExcludeActions))
	for _, a := range filter.ExcludeActions {
		excluded[a] = true
	}
	out := make([]models.LogEntry, 0, len(m.entries))
	for _, e := range m.entries {
		if excluded[e.Action] {
			continue
		}
		if filter.OrganizationID != nil && (e.OrganizationID == nil || *e.OrganizationID != *filter.OrganizationID) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].Timestamp, out[j].Timestamp
		if !ti.Equal(*tj) {
			return ti.After(*tj)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *mockAuditStore) seed(action, actor string, org *string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ts := at
	a := actor
	m.entries = append(m.entries, models.LogEntry{
		ID:             fmt.Sprintf("seed-%03d", len(m.entries)+1),
		Action:         action,
		ActorUserID:    &a,
		ActorName:      actor,
		EntityKind:     models.EntityUser,
		Details:        types.JSONText(`{}`),
		OrganizationID: org,
		Timestamp:      &ts,
	})
}

func (m *mockAuditStore) snapshot() []models.LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.LogEntry(nil), m.entries...)
}

// recorderSpy captures writer calls made by domain services.
type recorderSpy struct {
	mu      sync.Mutex
	records []models.AuditRecord
}

func (r *recorderSpy) Record(ctx context.Context, rec models.AuditRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

func (r *recorderSpy) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.records))
	for i, rec := range r.records {
		out[i] = rec.Action
	}
	return out
}

func (r *recorderSpy) last() models.AuditRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[len(r.records)-1]
}

type mockOrgRepo struct {
	orgs      map[string]*models.Organization
	listCalls int
	seq       int
}

func newMockOrgRepo(orgs ...*models.Organization) *mockOrgRepo {
	m := &mockOrgRepo{orgs: make(map[string]*models.Organization)}
	for _, o := range orgs {
		m.orgs[o.ID] = o
	}
	return m
}

func (m *mockOrgRepo) Create(ctx context.Context, org *models.Organization) error {
	m.seq++
	org.ID = fmt.Sprintf("org-%d", m.seq)
	org.CreatedAt = time.Now().UTC()
	org.UpdatedAt = org.CreatedAt
	copy := *org
	m.orgs[org.ID] = &copy
	return nil
}

func (m *mockOrgRepo) FindByID(ctx context.Context, id string) (*models.Organization, error) {
	if o, ok := m.orgs[id]; ok {
		copy := *o
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockOrgRepo) ListAll(ctx context.Context) ([]models.OrganizationRef, error) {
	m.listCalls++
	refs := make([]models.OrganizationRef, 0, len(m.orgs))
	for _, o := range m.orgs {
		refs = append(refs, models.OrganizationRef{OrganizationID: o.ID, Name: o.Name})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

func (m *mockOrgRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.Organization, error) {
	out := make([]models.Organization, 0)
	for _, o := range m.orgs {
		if o.OwnerID == ownerID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrgRepo) Update(ctx context.Context, org *models.Organization) error {
	copy := *org
	m.orgs[org.ID] = &copy
	return nil
}

func (m *mockOrgRepo) Delete(ctx context.Context, id string) error {
	delete(m.orgs, id)
	return nil
}

// memoryCache is an in-process CacheRepository.
type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = raw
	return nil
}

func (c *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
		}
	}
	return nil
}

type mockCaretakerRepo struct {
	caretaker *models.Caretaker
}

func (m *mockCaretakerRepo) FindByEmail(ctx context.Context, email string) (*models.Caretaker, error) {
	if m.caretaker == nil || !strings.EqualFold(m.caretaker.Email, email) {
		return nil, sql.ErrNoRows
	}
	return m.caretaker, nil
}

type mockResetStore struct {
	tokens  map[string]string
	saveErr error
	lastTTL time.Duration
}

func newMockResetStore() *mockResetStore {
	return &mockResetStore{tokens: make(map[string]string)}
}

func (m *mockResetStore) Save(ctx context.Context, token, userID string, ttl time.Duration) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.tokens[token] = userID
	m.lastTTL = ttl
	return nil
}

func (m *mockResetStore) Consume(ctx context.Context, token string) (string, error) {
	userID, ok := m.tokens[token]
	if !ok {
		return "", appErrors.ErrTokenExpired
	}
	delete(m.tokens, token)
	return userID, nil
}

type mockSender struct {
	sent []mailer.Message
	err  error
}

func (m *mockSender) Send(ctx context.Context, msg mailer.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

var errStoreDown = errors.New("store unavailable")

func strPtr(v string) *string { return &v }
