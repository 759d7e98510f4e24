package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"ysa-registration/internal/model"
	"ysa-registration/internal/store"
)

// ErrUsernameTaken is returned when a new SystemUser collides with an
// existing username.
var ErrUsernameTaken = errors.New("username already exists")

// Users persists admin-managed logins. Unlike registrations, users live only
// in the remote store: there is no local fallback slot for them, so a
// degraded deployment keeps working through the master accounts alone.
type Users struct {
	remote store.RemoteStore
	logger *zap.Logger
}

func NewUsers(remote store.RemoteStore, logger *zap.Logger) *Users {
	return &Users{remote: remote, logger: logger}
}

// List returns all dynamic users, oldest first.
func (u *Users) List(ctx context.Context) ([]model.SystemUser, error) {
	users, err := u.remote.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return users, nil
}

// Create inserts a new user after checking username uniqueness. The check
// and the insert are not transactional; the store as used here offers no
// unique constraint, matching the registration-side checks.
func (u *Users) Create(ctx context.Context, user model.SystemUser) (model.SystemUser, error) {
	existing, err := u.remote.FindUserByUsername(ctx, user.Username)
	if err != nil {
		return model.SystemUser{}, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	if existing != nil {
		return model.SystemUser{}, ErrUsernameTaken
	}
	created, err := u.remote.InsertUser(ctx, user)
	if err != nil {
		return model.SystemUser{}, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return created, nil
}

// Delete removes a user. Delete and recreate is the only update path.
func (u *Users) Delete(ctx context.Context, id string) error {
	err := u.remote.DeleteUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return nil
}

// FindByCredentials looks a user up by exact username and password match.
// Returns (nil, nil) when no user matches.
func (u *Users) FindByCredentials(ctx context.Context, username, password string) (*model.SystemUser, error) {
	user, err := u.remote.FindUserByCredentials(ctx, username, password)
	if err != nil {
		// A failed dynamic lookup must not break the static tier; the
		// authenticator treats it as "no dynamic match".
		u.logger.Warn("dynamic user lookup failed", zap.Error(err))
		return nil, nil
	}
	return user, nil
}
