package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/civicdesk/grievance-portal/internal/domain"
	"github.com/civicdesk/grievance-portal/internal/events"
	"github.com/civicdesk/grievance-portal/internal/repository"
)

type fakeCredentialStore struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	codes  map[string]bool
	nextID int64
	err    error
}

func newFakeCredentialStore() *fakeCredentialStore {
	return &fakeCredentialStore{users: map[string]*domain.User{}, codes: map[string]bool{}}
}

func (f *fakeCredentialStore) IssueAdminCode(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	code := repository.NewAdminCode()
	f.codes[code] = false
	return code, nil
}

func (f *fakeCredentialStore) RedeemAdminCode(_ context.Context, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	return f.redeemLocked(code), nil
}

func (f *fakeCredentialStore) redeemLocked(code string) bool {
	used, ok := f.codes[code]
	if !ok || used {
		return false
	}
	f.codes[code] = true
	return true
}

func (f *fakeCredentialStore) RegisterUser(_ context.Context, user *domain.User, isAdmin bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	return f.insertLocked(user, isAdmin), nil
}

func (f *fakeCredentialStore) insertLocked(user *domain.User, isAdmin bool) bool {
	if _, exists := f.users[user.Username]; exists {
		return false
	}
	f.nextID++
	user.ID = f.nextID
	user.Role = domain.UserRoleUser
	user.Verified = false
	if isAdmin {
		user.Role = domain.UserRoleAdmin
		user.Verified = true
	}
	stored := *user
	f.users[user.Username] = &stored
	return true
}

func (f *fakeCredentialStore) RegisterAdmin(_ context.Context, code string, user *domain.User) (repository.AdminRegistration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return repository.AdminCodeRejected, f.err
	}
	if used, ok := f.codes[code]; !ok || used {
		return repository.AdminCodeRejected, nil
	}
	if !f.insertLocked(user, true) {
		return repository.AdminUsernameTaken, nil
	}
	f.codes[code] = true
	return repository.AdminRegistered, nil
}

func (f *fakeCredentialStore) GetByID(_ context.Context, id int64) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCredentialStore) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeCredentialStore) SetVerified(_ context.Context, id int64, verified bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, u := range f.users {
		if u.ID == id {
			u.Verified = verified
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeComplaintStore struct {
	mu            sync.Mutex
	complaints    map[int64]*domain.Complaint
	nextID        int64
	now           func() time.Time
	err           error
	snapshotCalls int
}

func newFakeComplaintStore(now func() time.Time) *fakeComplaintStore {
	return &fakeComplaintStore{complaints: map[int64]*domain.Complaint{}, now: now}
}

func (f *fakeComplaintStore) Create(_ context.Context, complaint *domain.Complaint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.nextID++
	complaint.ID = f.nextID
	complaint.CreatedAt = f.now()
	complaint.ResolvedAt = nil
	stored := *complaint
	f.complaints[complaint.ID] = &stored
	return nil
}

func (f *fakeComplaintStore) GetByID(_ context.Context, id int64) (*domain.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.complaints[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (f *fakeComplaintStore) UpdateStatus(_ context.Context, update repository.StatusUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	c, ok := f.complaints[update.ID]
	if !ok {
		return repository.ErrNotFound
	}
	c.Status = update.Status
	switch {
	case update.ResolvedAt != nil:
		resolvedAt := *update.ResolvedAt
		if resolvedAt.Before(c.CreatedAt) {
			resolvedAt = c.CreatedAt
		}
		c.ResolvedAt = &resolvedAt
	case update.ClearResolvedAt:
		c.ResolvedAt = nil
	}
	return nil
}

func (f *fakeComplaintStore) List(ctx context.Context, filter repository.ComplaintFilter) ([]domain.Complaint, error) {
	all, err := f.all()
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return all, nil
}

func (f *fakeComplaintStore) Snapshot(ctx context.Context, filter repository.ComplaintFilter) ([]domain.Complaint, error) {
	f.mu.Lock()
	f.snapshotCalls++
	f.mu.Unlock()
	all, err := f.all()
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (f *fakeComplaintStore) all() ([]domain.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Complaint, 0, len(f.complaints))
	for _, c := range f.complaints {
		out = append(out, *c)
	}
	return out, nil
}

// recordingDispatcher captures published events.
type recordingDispatcher struct {
	events.Dispatcher
	mu        sync.Mutex
	published []events.Event
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{Dispatcher: events.NewInMemoryDispatcher()}
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	d.published = append(d.published, event)
	d.mu.Unlock()
	return d.Dispatcher.Publish(ctx, event)
}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.published))
	for _, e := range d.published {
		out = append(out, e.Type)
	}
	return out
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
