// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/bigkaa/expedientes/internal/repository"
)

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrConflict — конфликт (дублирующийся ресурс).
	ErrConflict = errors.New("конфликт — ресурс уже существует")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrInvalidCredentials — неверный email или пароль.
	ErrInvalidCredentials = errors.New("Email o contraseña incorrecta")
)

// ValidationError — ошибка проверки формы. Пропущенные поля собираются
// в одно сообщение.
type ValidationError struct {
	// Missing — подписи незаполненных обязательных полей
	Missing []string
	// Message — текст для пользователя
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "Completá los campos obligatorios: " + strings.Join(e.Missing, ", ") + "."
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// newValidationError создаёт ошибку с готовым сообщением.
func newValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

// ConflictError — имя здания совпадает с активным зданием.
type ConflictError struct {
	// ExistingID — найденный дубликат
	ExistingID string
	Message    string
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) Unwrap() error { return ErrConflict }

// PartialFailureError — expediente сохранён, но последующий шаг
// (привязка зданий) не выполнен. Отката нет: expediente остаётся.
type PartialFailureError struct {
	CaseFileID string
	Err        error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("expediente %s creado, pero falló la vinculación de edificios: %v", e.CaseFileID, e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

// checkID отклоняет идентификатор, не являющийся UUID: такой записи
// нет, а PostgreSQL ответил бы ошибкой приведения типа.
func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: некорректный ID %q", ErrNotFound, id)
	}
	return nil
}

// mapRepoErr переводит ошибки репозиториев в ошибки сервисного слоя.
func mapRepoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err) //nolint:errorlint // намеренный двойной wrap
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%w: %w", ErrConflict, err) //nolint:errorlint // намеренный двойной wrap
	default:
		return err
	}
}
