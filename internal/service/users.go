// users.go — пользователи: проверка пароля при входе и создание
// учётных записей (bcrypt).
package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bigkaa/expedientes/internal/domain/model"
	"github.com/bigkaa/expedientes/internal/repository"
)

// minPasswordLength — минимальная длина пароля при создании пользователя.
const minPasswordLength = 8

// UserService — сервис пользователей.
type UserService struct {
	repo   repository.UserRepository
	cost   int
	logger *slog.Logger
}

// NewUserService создаёт сервис пользователей.
func NewUserService(repo repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		cost:   bcrypt.DefaultCost,
		logger: logger.With(slog.String("component", "user_service")),
	}
}

// Authenticate проверяет email и пароль. Неизвестный email, неверный
// пароль и заблокированный пользователь дают одну ошибку
// ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.logger.Debug("Неверный пароль", slog.String("email", email))
		return nil, ErrInvalidCredentials
	}
	if !u.Active {
		s.logger.Info("Вход заблокированного пользователя", slog.String("email", email))
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// Create создаёт активного пользователя с bcrypt-хэшем пароля.
func (s *UserService) Create(ctx context.Context, email, fullName, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, newValidationError("Email inválido")
	}
	if len(password) < minPasswordLength {
		return nil, newValidationError("La contraseña debe tener al menos 8 caracteres")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		FullName:     strings.TrimSpace(fullName),
		PasswordHash: string(hash),
		Active:       true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, mapRepoErr(err)
	}

	s.logger.Info("Пользователь создан", slog.String("email", u.Email))
	return u, nil
}
