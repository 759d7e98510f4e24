package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ysa-registration/internal/model"
	"ysa-registration/internal/store"
)

func TestUsersCreateEnforcesUniqueUsername(t *testing.T) {
	remote := store.NewMemory()
	users := NewUsers(remote, zap.NewNop())
	ctx := context.Background()

	created, err := users.Create(ctx, model.SystemUser{Username: "staff1", Password: "pw", Role: model.RoleViewer})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	_, err = users.Create(ctx, model.SystemUser{Username: "staff1", Password: "other", Role: model.RoleAdmin})
	require.ErrorIs(t, err, ErrUsernameTaken)
}

func TestUsersDelete(t *testing.T) {
	remote := store.NewMemory()
	users := NewUsers(remote, zap.NewNop())
	ctx := context.Background()

	created, err := users.Create(ctx, model.SystemUser{Username: "staff1", Password: "pw", Role: model.RoleViewer})
	require.NoError(t, err)

	require.NoError(t, users.Delete(ctx, created.ID))
	require.ErrorIs(t, users.Delete(ctx, created.ID), ErrNotFound)
}

func TestUsersFindByCredentialsSwallowsLookupFailure(t *testing.T) {
	remote := store.NewMemory()
	remote.FailAll = store.ErrPermissionDenied
	users := NewUsers(remote, zap.NewNop())

	u, err := users.FindByCredentials(context.Background(), "staff1", "pw")
	require.NoError(t, err)
	require.Nil(t, u)
}

func TestUsersFindByCredentialsExactMatch(t *testing.T) {
	remote := store.NewMemory()
	users := NewUsers(remote, zap.NewNop())
	ctx := context.Background()

	_, err := users.Create(ctx, model.SystemUser{Username: "staff1", Password: "pw", Role: model.RoleViewer})
	require.NoError(t, err)

	u, err := users.FindByCredentials(ctx, "staff1", "pw")
	require.NoError(t, err)
	require.NotNil(t, u)
	require.Equal(t, model.RoleViewer, u.Role)

	u, err = users.FindByCredentials(ctx, "staff1", "wrong")
	require.NoError(t, err)
	require.Nil(t, u)
}
