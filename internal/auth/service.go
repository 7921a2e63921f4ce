package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/vladislavdragonenkov/parceltrack/internal/domain"
)

const minPasswordLength = 8

// ErrWeakPassword — пароль короче minPasswordLength.
var ErrWeakPassword = fmt.Errorf("%w: password must have at least %d characters", domain.ErrValidation, minPasswordLength)

// Service отвечает за вход операторов и проверку их сессий.
type Service struct {
	users    domain.UserRepository
	sessions SessionStore
	logger   *log.Entry
}

// NewService создаёт сервис аутентификации.
func NewService(users domain.UserRepository, sessions SessionStore, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "auth")
	}
	return &Service{users: users, sessions: sessions, logger: logger}
}

// Register создаёт учётную запись с bcrypt-хешем пароля.
func (s *Service) Register(ctx context.Context, email, name, password string) (domain.User, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.User{}, fmt.Errorf("%w: email is invalid", domain.ErrValidation)
	}
	if len(password) < minPasswordLength {
		return domain.User{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Login проверяет пароль и открывает сессию.
// Неизвестный email и неверный пароль неразличимы для вызывающего.
func (s *Service) Login(ctx context.Context, email, password string) (string, domain.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.User{}, domain.ErrInvalidCredentials
		}
		return "", domain.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		s.logger.WithField("user_id", user.ID).Info("login rejected: password mismatch")
		return "", domain.User{}, domain.ErrInvalidCredentials
	}

	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return "", domain.User{}, err
	}

	s.logger.WithField("user_id", user.ID).Info("user logged in")
	return token, user, nil
}

// Logout закрывает сессию.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}

// Resolve возвращает пользователя по токену или ErrUnauthenticated.
func (s *Service) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", domain.ErrUnauthenticated
	}
	userID, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return "", domain.ErrUnauthenticated
		}
		return "", err
	}
	return userID, nil
}
