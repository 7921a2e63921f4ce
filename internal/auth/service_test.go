package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/parceltrack/internal/auth"
	"github.com/vladislavdragonenkov/parceltrack/internal/domain"
	"github.com/vladislavdragonenkov/parceltrack/internal/storage/memory"
)

func newService(t *testing.T) *auth.Service {
	t.Helper()
	return auth.NewService(memory.NewUserRepository(), auth.NewMemorySessionStore(time.Hour), nil)
}

func TestService_RegisterLoginResolveLogout(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Ops@Example.com", "Ops", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, []byte("s3cret-pass"), user.PasswordHash)

	token, loggedIn, err := svc.Login(ctx, "ops@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	userID, err := svc.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	require.NoError(t, svc.Logout(ctx, token))
	_, err = svc.Resolve(ctx, token)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestService_LoginRejectsBadCredentials(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "ops@example.com", "Ops", "s3cret-pass")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "ops@example.com", "wrong-pass")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "ghost@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestService_RegisterValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "not-an-email", "x", "s3cret-pass")
	assert.True(t, domain.IsValidation(err))

	_, err = svc.Register(ctx, "ops@example.com", "x", "short")
	assert.ErrorIs(t, err, auth.ErrWeakPassword)

	_, err = svc.Register(ctx, "ops@example.com", "x", "s3cret-pass")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "OPS@example.com", "x", "s3cret-pass")
	assert.ErrorIs(t, err, domain.ErrUserExists)
}

func TestService_ResolveEmptyToken(t *testing.T) {
	_, err := newService(t).Resolve(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestContextIdentity(t *testing.T) {
	var identity auth.ContextIdentity

	_, ok := identity.CurrentUserID(context.Background())
	assert.False(t, ok)

	userID, ok := identity.CurrentUserID(auth.WithUserID(context.Background(), "user-1"))
	assert.True(t, ok)
	assert.Equal(t, "user-1", userID)
}
