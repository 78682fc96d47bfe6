package service

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newUserService(s *store) *UserService {
	svc := NewUserService(s.repos().Users, testLogger())
	svc.cost = bcrypt.MinCost
	return svc
}

func TestUserCreateAndAuthenticate(t *testing.T) {
	s := newStore()
	ctx := context.Background()
	svc := newUserService(s)

	u, err := svc.Create(ctx, " ana@example.com ", "Ana", "secreto123")
	if err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	if u.PasswordHash == "secreto123" {
		t.Fatal("пароль сохранён в открытом виде")
	}

	got, err := svc.Authenticate(ctx, "ANA@example.com", "secreto123")
	if err != nil || got.ID != u.ID {
		t.Fatalf("Authenticate() = %+v, %v", got, err)
	}

	tests := []struct {
		name, email, password string
	}{
		{"неверный пароль", "ana@example.com", "otra-clave"},
		{"неизвестный email", "nadie@example.com", "secreto123"},
		{"пустой email", "", "secreto123"},
		{"пустой пароль", "ana@example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Authenticate(ctx, tt.email, tt.password); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("Authenticate() = %v, ожидается ErrInvalidCredentials", err)
			}
		})
	}

	s.users[u.ID].Active = false
	if _, err := svc.Authenticate(ctx, "ana@example.com", "secreto123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("заблокированный пользователь вошёл: %v", err)
	}
}

func TestUserCreate_Validation(t *testing.T) {
	s := newStore()
	ctx := context.Background()
	svc := newUserService(s)

	if _, err := svc.Create(ctx, "no-es-email", "X", "secreto123"); !errors.Is(err, ErrValidation) {
		t.Errorf("некорректный email: %v", err)
	}
	if _, err := svc.Create(ctx, "ana@example.com", "X", "corta"); !errors.Is(err, ErrValidation) {
		t.Errorf("короткий пароль: %v", err)
	}
	if _, err := svc.Create(ctx, "ana@example.com", "X", "secreto123"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, "Ana@Example.com", "X", "secreto123"); !errors.Is(err, ErrConflict) {
		t.Errorf("дубликат email: %v, ожидается ErrConflict", err)
	}
}
