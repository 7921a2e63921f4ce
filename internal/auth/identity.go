package auth

import (
	"context"

	"github.com/vladislavdragonenkov/parceltrack/internal/domain"
)

type userIDKey struct{}

// WithUserID кладёт идентификатор аутентифицированного пользователя в контекст.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext достаёт идентификатор пользователя из контекста.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey{}).(string)
	return userID, ok && userID != ""
}

// ContextIdentity реализует IdentityProvider поверх контекста запроса.
type ContextIdentity struct{}

// CurrentUserID возвращает пользователя, которого положил в контекст middleware.
func (ContextIdentity) CurrentUserID(ctx context.Context) (string, bool) {
	return UserIDFromContext(ctx)
}

var _ domain.IdentityProvider = ContextIdentity{}
