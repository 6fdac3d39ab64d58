package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserStoreCreateAndGet(t *testing.T) {
	users := NewUserStore(openTestDB(t))
	ctx := context.Background()

	created, err := users.Create(ctx, "admin", "hash")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	got, err := users.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)
}

func TestUserStoreUsernameUnique(t *testing.T) {
	users := NewUserStore(openTestDB(t))
	ctx := context.Background()

	_, err := users.Create(ctx, "admin", "a")
	require.NoError(t, err)
	_, err = users.Create(ctx, "admin", "b")
	assert.Error(t, err)
}

func TestUserStoreGetByUsername_Missing(t *testing.T) {
	users := NewUserStore(openTestDB(t))

	got, err := users.GetByUsername(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUserStoreUpdatePassword(t *testing.T) {
	users := NewUserStore(openTestDB(t))
	ctx := context.Background()

	u, err := users.Create(ctx, "admin", "old")
	require.NoError(t, err)
	require.NoError(t, users.UpdatePassword(ctx, u.ID, "new"))

	got, err := users.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "new", got.PasswordHash)

	assert.Error(t, users.UpdatePassword(ctx, "missing", "x"))
}
