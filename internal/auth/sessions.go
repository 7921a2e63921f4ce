package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "parceltrack:session:"

// ErrSessionNotFound — токен неизвестен или истёк.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore выдаёт и проверяет токены сессий.
type SessionStore interface {
	Create(ctx context.Context, userID string) (string, error)
	Resolve(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
}

// RedisSessionStore хранит сессии в Redis с TTL.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore подключается к Redis по URL вида redis://[:password@]host[:port][/db].
func NewRedisSessionStore(redisURL string, ttl time.Duration) (*RedisSessionStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	return &RedisSessionStore{client: redis.NewClient(opts), ttl: ttl}, nil
}

func (s *RedisSessionStore) Create(ctx context.Context, userID string) (string, error) {
	token := uuid.NewString()
	if err := s.client.Set(ctx, sessionKeyPrefix+token, userID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

func (s *RedisSessionStore) Resolve(ctx context.Context, token string) (string, error) {
	userID, err := s.client.Get(ctx, sessionKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolve session: %w", err)
	}
	return userID, nil
}

func (s *RedisSessionStore) Revoke(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// Ping проверяет доступность Redis (используется в readiness).
func (s *RedisSessionStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close закрывает подключение к Redis.
func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}

type memorySession struct {
	userID    string
	expiresAt time.Time
}

// MemorySessionStore — in-memory хранилище сессий для разработки и тестов.
type MemorySessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]memorySession
}

// NewMemorySessionStore создаёт in-memory хранилище; ttl<=0 означает бессрочные сессии.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{ttl: ttl, now: time.Now, sessions: make(map[string]memorySession)}
}

func (s *MemorySessionStore) Create(_ context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := uuid.NewString()
	session := memorySession{userID: userID}
	if s.ttl > 0 {
		session.expiresAt = s.now().Add(s.ttl)
	}
	s.sessions[token] = session
	return token, nil
}

func (s *MemorySessionStore) Resolve(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return "", ErrSessionNotFound
	}
	if !session.expiresAt.IsZero() && !s.now().Before(session.expiresAt) {
		delete(s.sessions, token)
		return "", ErrSessionNotFound
	}
	return session.userID, nil
}

func (s *MemorySessionStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, token)
	return nil
}

// DeleteExpired удаляет не более limit сессий, истёкших к моменту before.
func (s *MemorySessionStore) DeleteExpired(before time.Time, limit int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for token, session := range s.sessions {
		if limit > 0 && deleted >= limit {
			break
		}
		if session.expiresAt.IsZero() || session.expiresAt.After(before) {
			continue
		}
		delete(s.sessions, token)
		deleted++
	}
	return deleted, nil
}

// Len возвращает число хранимых сессий, включая ещё не удалённые просроченные.
func (s *MemorySessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

var (
	_ SessionStore = (*RedisSessionStore)(nil)
	_ SessionStore = (*MemorySessionStore)(nil)
)
