package repository

import (
	"context"
	"testing"

	"storefront/internal/model"
	"storefront/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserRepository(t *testing.T) {
	repo := NewUserRepository(testutil.NewDB(t))
	ctx := context.Background()

	user := &model.User{ID: "u-1", Name: "Asha", Email: "asha@example.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, user))

	exists, err := repo.ExistsByEmail(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByEmail(ctx, "ravi@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	found, err := repo.FindByEmail(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", found.ID)

	found, err = repo.FindByID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", found.Name)

	err = repo.Create(ctx, &model.User{ID: "u-2", Name: "Dup", Email: "asha@example.com", PasswordHash: "hash"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	_, err = repo.FindByID(ctx, "u-3")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
