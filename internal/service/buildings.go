// buildings.go — сервис справочника зданий: список, создание,
// переименование, включение/выключение. Уникальность имени среди
// активных проверяется здесь по загруженному списку, не в БД.
package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/bigkaa/expedientes/internal/domain/catalog"
	"github.com/bigkaa/expedientes/internal/domain/model"
	"github.com/bigkaa/expedientes/internal/repository"
)

// Сообщения справочника зданий.
const (
	msgBuildingNameRequired = "Completá el nombre."
	msgBuildingNameEmpty    = "El nombre no puede estar vacío."
	msgBuildingDuplicate    = "Ya existe un edificio activo con ese nombre."
)

// BuildingService — сервис справочника зданий.
type BuildingService struct {
	repo   repository.BuildingRepository
	cache  *BuildingOptionsCache
	logger *slog.Logger
}

// NewBuildingService создаёт сервис зданий. cache может быть nil.
func NewBuildingService(repo repository.BuildingRepository, cache *BuildingOptionsCache, logger *slog.Logger) *BuildingService {
	return &BuildingService{
		repo:   repo,
		cache:  cache,
		logger: logger.With(slog.String("component", "building_service")),
	}
}

// List возвращает здания по имени; неактивные — при includeInactive.
func (s *BuildingService) List(ctx context.Context, includeInactive bool) ([]model.Building, error) {
	return s.repo.List(ctx, includeInactive)
}

// ActiveOptions возвращает активные здания для выбора в формах.
// Результат кэшируется до ближайшего изменения справочника или TTL.
func (s *BuildingService) ActiveOptions(ctx context.Context) ([]model.Building, error) {
	if s.cache != nil {
		if rows, ok := s.cache.Get(); ok {
			return rows, nil
		}
	}
	rows, err := s.repo.List(ctx, false)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(rows)
	}
	return rows, nil
}

// Create создаёт активное здание. Пустое имя — ValidationError,
// совпадение с активным зданием — ConflictError.
func (s *BuildingService) Create(ctx context.Context, name string) (*model.Building, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newValidationError(msgBuildingNameRequired)
	}

	if err := s.checkDuplicate(ctx, name, ""); err != nil {
		return nil, err
	}

	b := &model.Building{
		ID:     uuid.New().String(),
		Name:   name,
		Active: true,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, mapRepoErr(err)
	}
	s.invalidate()

	s.logger.Info("Здание создано",
		slog.String("building_id", b.ID),
		slog.String("name", b.Name),
	)
	return b, nil
}

// Rename переименовывает здание с той же проверкой дубликата
// (без учёта самой строки).
func (s *BuildingService) Rename(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return newValidationError(msgBuildingNameEmpty)
	}
	if err := checkID(id); err != nil {
		return err
	}

	if err := s.checkDuplicate(ctx, name, id); err != nil {
		return err
	}

	if err := s.repo.Rename(ctx, id, name); err != nil {
		return mapRepoErr(err)
	}
	s.invalidate()

	s.logger.Info("Здание переименовано",
		slog.String("building_id", id),
		slog.String("name", name),
	)
	return nil
}

// SetActive включает или выключает здание напрямую.
func (s *BuildingService) SetActive(ctx context.Context, id string, active bool) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return mapRepoErr(err)
	}
	s.invalidate()

	s.logger.Info("Активность здания изменена",
		slog.String("building_id", id),
		slog.Bool("active", active),
	)
	return nil
}

// Delete — мягкое удаление (active = false), обратимо через SetActive.
func (s *BuildingService) Delete(ctx context.Context, id string) error {
	return s.SetActive(ctx, id, false)
}

// checkDuplicate сверяет имя с загруженным списком активных зданий.
func (s *BuildingService) checkDuplicate(ctx context.Context, name, excludeID string) error {
	active, err := s.repo.List(ctx, false)
	if err != nil {
		return err
	}
	if dup := catalog.FindActiveDuplicate(active, name, excludeID); dup != nil {
		return &ConflictError{ExistingID: dup.ID, Message: msgBuildingDuplicate}
	}
	return nil
}

func (s *BuildingService) invalidate() {
	if s.cache != nil {
		s.cache.Invalidate()
	}
}
