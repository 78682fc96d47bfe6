package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/expedientes/internal/domain/model"
)

// BuildingRepository — интерфейс для таблицы buildings.
type BuildingRepository interface {
	// Create создаёт здание.
	Create(ctx context.Context, b *model.Building) error
	// GetByID возвращает здание по UUID.
	GetByID(ctx context.Context, id string) (*model.Building, error)
	// List возвращает здания, отсортированные по имени.
	List(ctx context.Context, includeInactive bool) ([]model.Building, error)
	// Rename меняет имя здания.
	Rename(ctx context.Context, id, name string) error
	// SetActive включает или выключает здание.
	SetActive(ctx context.Context, id string, active bool) error
}

// buildingRepo — реализация BuildingRepository.
type buildingRepo struct {
	db DBTX
}

// NewBuildingRepository создаёт репозиторий зданий.
func NewBuildingRepository(db DBTX) BuildingRepository {
	return &buildingRepo{db: db}
}

func (r *buildingRepo) Create(ctx context.Context, b *model.Building) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO buildings (id, name, active) VALUES ($1, $2, $3) RETURNING created_at`,
		b.ID, b.Name, b.Active,
	).Scan(&b.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: здание %s уже существует", ErrConflict, b.ID)
		}
		return fmt.Errorf("ошибка создания здания: %w", err)
	}
	return nil
}

func (r *buildingRepo) GetByID(ctx context.Context, id string) (*model.Building, error) {
	b := &model.Building{}
	err := r.db.QueryRow(ctx,
		`SELECT id, name, active, created_at FROM buildings WHERE id = $1`, id,
	).Scan(&b.ID, &b.Name, &b.Active, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения здания: %w", err)
	}
	return b, nil
}

func (r *buildingRepo) List(ctx context.Context, includeInactive bool) ([]model.Building, error) {
	query := `
		SELECT id, name, active, created_at
		FROM buildings
		WHERE $1 OR active
		ORDER BY name, id`

	rows, err := r.db.Query(ctx, query, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка зданий: %w", err)
	}
	defer rows.Close()

	var result []model.Building
	for rows.Next() {
		var b model.Building
		if err := rows.Scan(&b.ID, &b.Name, &b.Active, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования здания: %w", err)
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

func (r *buildingRepo) Rename(ctx context.Context, id, name string) error {
	tag, err := r.db.Exec(ctx, `UPDATE buildings SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return fmt.Errorf("ошибка переименования здания: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *buildingRepo) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE buildings SET active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("ошибка изменения активности здания: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
