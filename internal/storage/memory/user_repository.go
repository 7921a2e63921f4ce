package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/parceltrack/internal/domain"
)

type userRepositoryInMemory struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string
}

// NewUserRepository создаёт in-memory реализацию UserRepository.
func NewUserRepository() domain.UserRepository {
	return &userRepositoryInMemory{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
}

func (r *userRepositoryInMemory) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.Email = domain.NormalizeEmail(user.Email)
	if _, exists := r.byEmail[user.Email]; exists {
		return domain.ErrUserExists
	}
	if _, exists := r.byID[user.ID]; exists {
		return domain.ErrUserExists
	}
	user.PasswordHash = append([]byte(nil), user.PasswordHash...)
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *userRepositoryInMemory) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	r.mu.RLock()
	id, ok := r.byEmail[domain.NormalizeEmail(email)]
	r.mu.RUnlock()
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return r.Get(ctx, id)
}

func (r *userRepositoryInMemory) Get(_ context.Context, id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	user.PasswordHash = append([]byte(nil), user.PasswordHash...)
	return user, nil
}

var _ domain.UserRepository = (*userRepositoryInMemory)(nil)
