package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/parceltrack/internal/domain"
	"github.com/vladislavdragonenkov/parceltrack/internal/storage/memory"
)

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo := memory.NewUserRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, domain.User{ID: "u1", Email: " Ops@Example.com", PasswordHash: []byte("h")}))
	assert.ErrorIs(t, repo.Create(ctx, domain.User{ID: "u2", Email: "ops@example.com"}), domain.ErrUserExists)

	user, err := repo.FindByEmail(ctx, "OPS@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "ops@example.com", user.Email)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = repo.Get(ctx, "u9")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
