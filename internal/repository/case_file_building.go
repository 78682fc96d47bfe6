package repository

import (
	"context"
	"fmt"
)

// CaseFileBuildingRepository — интерфейс для таблицы связей case_file_buildings.
type CaseFileBuildingRepository interface {
	// Add добавляет связи expediente со зданиями.
	Add(ctx context.Context, caseFileID string, buildingIDs []string) error
	// Replace заменяет набор связей. Вызывать внутри транзакции.
	Replace(ctx context.Context, caseFileID string, buildingIDs []string) error
}

// caseFileBuildingRepo — реализация CaseFileBuildingRepository.
type caseFileBuildingRepo struct {
	db DBTX
}

// NewCaseFileBuildingRepository создаёт репозиторий связей expediente ↔ здание.
func NewCaseFileBuildingRepository(db DBTX) CaseFileBuildingRepository {
	return &caseFileBuildingRepo{db: db}
}

func (r *caseFileBuildingRepo) Add(ctx context.Context, caseFileID string, buildingIDs []string) error {
	if len(buildingIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO case_file_buildings (case_file_id, building_id)
		SELECT $1, unnest($2::uuid[])
		ON CONFLICT DO NOTHING`

	if _, err := r.db.Exec(ctx, query, caseFileID, buildingIDs); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: expediente или здание не существует", ErrNotFound)
		}
		return fmt.Errorf("ошибка привязки зданий: %w", err)
	}
	return nil
}

func (r *caseFileBuildingRepo) Replace(ctx context.Context, caseFileID string, buildingIDs []string) error {
	if _, err := r.db.Exec(ctx,
		`DELETE FROM case_file_buildings WHERE case_file_id = $1`, caseFileID); err != nil {
		return fmt.Errorf("ошибка удаления связей зданий: %w", err)
	}
	return r.Add(ctx, caseFileID, buildingIDs)
}
