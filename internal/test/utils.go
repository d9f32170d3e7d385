package test

import (
	"context"
	"sync"
	"time"

	"github.com/Stewz00/myfabtotum-link/internal/interfaces"
	"github.com/Stewz00/myfabtotum-link/internal/model"
	"github.com/Stewz00/myfabtotum-link/internal/myfabtotum"
	"github.com/Stewz00/myfabtotum-link/internal/repository"
)

// MockDB implements a mock database for testing
type MockDB struct {
	users    map[int64]*model.User
	sessions map[string]bool
	nextID   int64
}

func NewMockDB() *MockDB {
	return &MockDB{
		users:    make(map[int64]*model.User),
		sessions: make(map[string]bool),
	}
}

// MockUserRepository implements the repository.UserRepository interface.
// Users are stored and returned as copies so callers cannot mutate storage
// without going through UpdateSettings.
type MockUserRepository struct {
	mu sync.Mutex
	db *MockDB

	// SettingsWrites counts UpdateSettings calls.
	SettingsWrites int
}

// Verify that MockUserRepository implements UserRepository interface
var _ interfaces.UserRepository = (*MockUserRepository)(nil)

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		db: NewMockDB(),
	}
}

// AddUser seeds a user and returns its stored copy.
func (r *MockUserRepository) AddUser(email string, settings model.Settings) *model.User {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.db.nextID++
	user := &model.User{
		ID:       r.db.nextID,
		Email:    email,
		Settings: settings.Clone(),
		Created:  time.Now(),
	}
	r.db.users[user.ID] = user
	return user.Clone()
}

// StoredSettings returns the persisted settings of a user.
func (r *MockUserRepository) StoredSettings(userID int64) (model.Settings, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.db.users[userID]
	if !ok {
		return model.Settings{}, false
	}
	return user.Settings.Clone(), true
}

// CreateUser mocks creating a new user
func (r *MockUserRepository) CreateUser(ctx context.Context, email, passwordHash string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.db.users {
		if u.Email == email {
			return nil, repository.ErrDuplicateEmail
		}
	}

	r.db.nextID++
	user := &model.User{
		ID:       r.db.nextID,
		Email:    email,
		Password: passwordHash,
		Created:  time.Now(),
	}
	r.db.users[user.ID] = user
	return user.Clone(), nil
}

// GetUserByEmail mocks retrieving a user by email
func (r *MockUserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.db.users {
		if u.Email == email {
			return u.Clone(), nil
		}
	}
	return nil, repository.ErrUserNotFound
}

// GetUserByID mocks retrieving a user by id
func (r *MockUserRepository) GetUserByID(ctx context.Context, userID int64) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.db.users[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user.Clone(), nil
}

// GetUserByFabID mocks the settings lookup by linked FABID
func (r *MockUserRepository) GetUserByFabID(ctx context.Context, fabid string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var found *model.User
	for _, u := range r.db.users {
		if u.Settings.Fabid != nil && u.Settings.Fabid.Email == fabid {
			if found == nil || u.ID < found.ID {
				found = u
			}
		}
	}
	if found == nil {
		return nil, repository.ErrUserNotFound
	}
	return found.Clone(), nil
}

// UpdateSettings mocks replacing the settings blob
func (r *MockUserRepository) UpdateSettings(ctx context.Context, userID int64, settings model.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.db.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	// Round-trip through the storage encoding like the real repository.
	encoded, err := settings.Encode()
	if err != nil {
		return err
	}
	decoded, err := model.DecodeSettings(encoded)
	if err != nil {
		return err
	}
	user.Settings = decoded
	r.SettingsWrites++
	return nil
}

// UpdateLastLogin mocks updating the last login time
func (r *MockUserRepository) UpdateLastLogin(ctx context.Context, userID int64) error {
	return nil
}

// IncrementFailedAttempts mocks incrementing failed login attempts
func (r *MockUserRepository) IncrementFailedAttempts(ctx context.Context, userID int64) error {
	return nil
}

// CreateSession mocks creating a new session
func (r *MockUserRepository) CreateSession(ctx context.Context, userID int64, tokenID string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.db.sessions[tokenID] = true
	return nil
}

// RevokeSession mocks revoking a session
func (r *MockUserRepository) RevokeSession(ctx context.Context, tokenID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.db.sessions[tokenID]; !exists {
		return repository.ErrSessionNotFound
	}
	r.db.sessions[tokenID] = false
	return nil
}

// IsSessionValid mocks checking if a session is valid
func (r *MockUserRepository) IsSessionValid(ctx context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	valid, exists := r.db.sessions[tokenID]
	if !exists {
		return false, nil
	}
	return valid, nil
}

// FakeProvider records calls made to the my.fabtotum.com API.
type FakeProvider struct {
	LoginReply    myfabtotum.Reply
	LoginErr      error
	RegisterReply myfabtotum.Reply
	RegisterErr   error
	Registered    bool
	RegisteredErr error

	LoginCalls    []string
	RegisterCalls [][2]string
	CheckCalls    int
}

var _ interfaces.IdentityProvider = (*FakeProvider)(nil)

func (p *FakeProvider) Login(ctx context.Context, fabid, password string) (myfabtotum.Reply, error) {
	p.LoginCalls = append(p.LoginCalls, fabid)
	return p.LoginReply, p.LoginErr
}

func (p *FakeProvider) RegisterPrinter(ctx context.Context, fabid, serial string) (myfabtotum.Reply, error) {
	p.RegisterCalls = append(p.RegisterCalls, [2]string{fabid, serial})
	return p.RegisterReply, p.RegisterErr
}

func (p *FakeProvider) IsPrinterRegistered(ctx context.Context) (bool, error) {
	p.CheckCalls++
	return p.Registered, p.RegisteredErr
}

// Calls returns the total number of remote calls made.
func (p *FakeProvider) Calls() int {
	return len(p.LoginCalls) + len(p.RegisterCalls) + p.CheckCalls
}

// FakeConnectivity reports a fixed connectivity state.
type FakeConnectivity bool

func (c FakeConnectivity) Available(ctx context.Context) bool {
	return bool(c)
}

// FakeReloader counts reload signals.
type FakeReloader struct {
	Count int
	Err   error
}

func (r *FakeReloader) Reload(ctx context.Context) error {
	r.Count++
	return r.Err
}
