package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ysa-registration/internal/model"
	"ysa-registration/internal/repository"
)

// MsgInvalidLogin is shown for any failed login attempt, regardless of
// which tier rejected it.
const MsgInvalidLogin = "ឈ្មោះគណនី ឬលេខសម្ងាត់មិនត្រឹមត្រូវ"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrReservedUsername   = errors.New("username is reserved")
)

// masterAccount is a hardcoded credential pair checked before any dynamic
// account. Master accounts cannot be listed, created, or deleted.
type masterAccount struct {
	username string
	password string
	role     string
}

var masterAccounts = []masterAccount{
	{username: "AdminYSACambodia2025", password: "AdminSouthStakeYSA", role: model.RoleAdmin},
	{username: "ViewerYSACambodia2025", password: "ViewerSouthStakeYSA", role: model.RoleViewer},
}

// Session is an authenticated dashboard session identified by a bearer
// token.
type Session struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Auth authenticates dashboard logins against the master accounts and the
// dynamic user store, and tracks issued sessions in memory. Sessions do not
// survive a restart.
type Auth struct {
	users  *repository.Users
	logger *zap.Logger

	mu       sync.RWMutex
	sessions map[string]Session
}

func NewAuth(users *repository.Users, logger *zap.Logger) *Auth {
	return &Auth{
		users:    users,
		logger:   logger,
		sessions: make(map[string]Session),
	}
}

// Login checks the master accounts first, then the dynamic user store. Both
// tiers require an exact username and password match. On success a new
// session is issued; the caller learns nothing about which tier matched
// beyond the resulting role.
func (a *Auth) Login(ctx context.Context, username, password string) (Session, error) {
	role, ok := a.matchMaster(username, password)
	if !ok {
		user, _ := a.users.FindByCredentials(ctx, username, password)
		if user == nil {
			return Session{}, ErrInvalidCredentials
		}
		role = user.Role
	}

	session := Session{
		Token:     uuid.New().String(),
		Username:  username,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	a.mu.Lock()
	a.sessions[session.Token] = session
	a.mu.Unlock()

	a.logger.Info("login", zap.String("username", username), zap.String("role", role))
	return session, nil
}

func (a *Auth) matchMaster(username, password string) (string, bool) {
	for _, m := range masterAccounts {
		if m.username == username && m.password == password {
			return m.role, true
		}
	}
	return "", false
}

// Logout invalidates the session token. Unknown tokens are a no-op.
func (a *Auth) Logout(token string) {
	a.mu.Lock()
	delete(a.sessions, token)
	a.mu.Unlock()
}

// SessionByToken resolves a bearer token to its session, if still valid.
func (a *Auth) SessionByToken(token string) (Session, bool) {
	a.mu.RLock()
	session, ok := a.sessions[token]
	a.mu.RUnlock()
	return session, ok
}

// ListUsers returns the dynamic accounts. Master accounts never appear.
func (a *Auth) ListUsers(ctx context.Context) ([]model.SystemUser, error) {
	return a.users.List(ctx)
}

// CreateUser adds a dynamic account. Usernames must be unique among dynamic
// accounts and must not shadow a master account.
func (a *Auth) CreateUser(ctx context.Context, req model.CreateUserRequest) (model.SystemUser, error) {
	if req.Username == "" || req.Password == "" {
		return model.SystemUser{}, ErrInvalidCredentials
	}
	if !model.ValidRole(req.Role) {
		return model.SystemUser{}, errors.New("invalid role")
	}
	for _, m := range masterAccounts {
		if m.username == req.Username {
			return model.SystemUser{}, ErrReservedUsername
		}
	}
	return a.users.Create(ctx, model.SystemUser{
		Username:  req.Username,
		Password:  req.Password,
		Role:      req.Role,
		CreatedAt: time.Now().UTC(),
	})
}

// DeleteUser removes a dynamic account. Sessions already issued to it stay
// valid until logout.
func (a *Auth) DeleteUser(ctx context.Context, id string) error {
	return a.users.Delete(ctx, id)
}
