package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/expedientes/internal/domain/model"
)

// CaseFileField — редактируемое одиночное поле expediente.
type CaseFileField string

// Поля, обновляемые независимо друг от друга.
const (
	FieldStatusTag     CaseFileField = "status_tag"
	FieldProcedureType CaseFileField = "procedure_type"
	FieldResolution    CaseFileField = "resolution"
	FieldBuilding      CaseFileField = "building"
)

// updatableFields — белый список колонок для UpdateField.
var updatableFields = map[CaseFileField]bool{
	FieldStatusTag:     true,
	FieldProcedureType: true,
	FieldResolution:    true,
	FieldBuilding:      true,
}

// CaseFileRepository — интерфейс для таблицы case_files.
type CaseFileRepository interface {
	// Create вставляет expediente (без связей со зданиями).
	Create(ctx context.Context, cf *model.CaseFile) error
	// GetByID возвращает expediente по UUID, включая неактивные.
	GetByID(ctx context.Context, id string) (*model.CaseFile, error)
	// ListWithLatest возвращает expedientes с последней gestión,
	// отсортированные по created_at (убывание).
	ListWithLatest(ctx context.Context, includeInactive bool) ([]model.CaseFileRow, error)
	// UpdateField обновляет одно поле и last_modified_by.
	UpdateField(ctx context.Context, id string, field CaseFileField, value *string, modifiedBy string) error
	// Touch обновляет last_modified_by и updated_at.
	Touch(ctx context.Context, id, modifiedBy string) error
	// SoftDelete выставляет active = false. Повтор — не ошибка.
	SoftDelete(ctx context.Context, id, modifiedBy string) error
}

// caseFileRepo — реализация CaseFileRepository.
type caseFileRepo struct {
	db DBTX
}

// NewCaseFileRepository создаёт репозиторий expedientes.
func NewCaseFileRepository(db DBTX) CaseFileRepository {
	return &caseFileRepo{db: db}
}

// caseFileColumns — колонки case_files в порядке scanCaseFile.
const caseFileColumns = `
	c.id, COALESCE(c.expte_code, ''), c.year, c.building, c.caption, c.intake_date,
	c.status_tag, c.last_action, c.sent_to, c.current_department, c.resolution,
	c.procedure_type, COALESCE(c.active, TRUE), c.last_modified_by, c.created_at, c.updated_at,
	COALESCE(lb.ids, '{}'::text[]), COALESCE(lb.names, '{}'::text[])`

// buildingsLateral — привязанные здания, отсортированные по имени.
const buildingsLateral = `
	LEFT JOIN LATERAL (
		SELECT array_agg(b.id::text ORDER BY b.name, b.id) AS ids,
			array_agg(b.name ORDER BY b.name, b.id) AS names
		FROM case_file_buildings l
		JOIN buildings b ON b.id = l.building_id
		WHERE l.case_file_id = c.id
	) lb ON TRUE`

func (r *caseFileRepo) Create(ctx context.Context, cf *model.CaseFile) error {
	query := `
		INSERT INTO case_files (id, expte_code, year, building, caption, intake_date,
			status_tag, last_action, sent_to, current_department, resolution,
			procedure_type, active, last_modified_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		cf.ID, cf.ExpteCode, cf.Year, cf.Building, cf.Caption, cf.IntakeDate,
		cf.StatusTag, cf.LastAction, cf.SentTo, cf.CurrentDepartment, cf.Resolution,
		cf.ProcedureType, cf.Active, cf.LastModifiedBy,
	).Scan(&cf.CreatedAt, &cf.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: expediente %s уже существует", ErrConflict, cf.ID)
		}
		return fmt.Errorf("ошибка создания expediente: %w", err)
	}
	return nil
}

func (r *caseFileRepo) GetByID(ctx context.Context, id string) (*model.CaseFile, error) {
	query := `SELECT ` + caseFileColumns + `
		FROM case_files c` + buildingsLateral + `
		WHERE c.id = $1`

	cf, err := scanCaseFile(r.db.QueryRow(ctx, query, id), nil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения expediente: %w", err)
	}
	return cf, nil
}

func (r *caseFileRepo) ListWithLatest(ctx context.Context, includeInactive bool) ([]model.CaseFileRow, error) {
	query := `SELECT ` + caseFileColumns + `,
			h.id, h.entry_date, h.description, h.sent_to, h.current_department,
			h.last_modified_by, h.created_at
		FROM case_files c` + buildingsLateral + `
		LEFT JOIN LATERAL (
			SELECT he.id, he.entry_date, he.description, he.sent_to,
				he.current_department, he.last_modified_by, he.created_at
			FROM history_entries he
			WHERE he.case_file_id = c.id
			ORDER BY he.created_at DESC, he.id DESC
			LIMIT 1
		) h ON TRUE
		WHERE $1 OR c.active IS NOT FALSE
		ORDER BY c.created_at DESC, c.id DESC`

	rows, err := r.db.Query(ctx, query, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка expedientes: %w", err)
	}
	defer rows.Close()

	var result []model.CaseFileRow
	for rows.Next() {
		var (
			hID, hDesc, hSentTo, hDept, hBy *string
			hDate, hCreated                  *time.Time
		)
		cf, err := scanCaseFile(rows, []any{&hID, &hDate, &hDesc, &hSentTo, &hDept, &hBy, &hCreated})
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования expediente: %w", err)
		}

		row := model.CaseFileRow{CaseFile: *cf}
		if hID != nil {
			row.Latest = &model.HistoryEntry{
				ID:                *hID,
				CaseFileID:        cf.ID,
				Date:              hDate,
				Description:       hDesc,
				SentTo:            hSentTo,
				CurrentDepartment: hDept,
				LastModifiedBy:    hBy,
			}
			if hCreated != nil {
				row.Latest.CreatedAt = *hCreated
			}
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *caseFileRepo) UpdateField(ctx context.Context, id string, field CaseFileField, value *string, modifiedBy string) error {
	if !updatableFields[field] {
		return fmt.Errorf("недопустимое поле expediente: %q", field)
	}

	query := fmt.Sprintf(`
		UPDATE case_files
		SET %s = $2, last_modified_by = $3, updated_at = now()
		WHERE id = $1`, field)

	tag, err := r.db.Exec(ctx, query, id, value, modifiedBy)
	if err != nil {
		return fmt.Errorf("ошибка обновления %s: %w", field, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *caseFileRepo) Touch(ctx context.Context, id, modifiedBy string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE case_files SET last_modified_by = $2, updated_at = now() WHERE id = $1`,
		id, modifiedBy)
	if err != nil {
		return fmt.Errorf("ошибка обновления last_modified_by: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *caseFileRepo) SoftDelete(ctx context.Context, id, modifiedBy string) error {
	query := `
		UPDATE case_files
		SET active = FALSE,
			last_modified_by = CASE WHEN active IS FALSE THEN last_modified_by ELSE $2 END,
			updated_at = CASE WHEN active IS FALSE THEN updated_at ELSE now() END
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, modifiedBy)
	if err != nil {
		return fmt.Errorf("ошибка удаления expediente: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanCaseFile сканирует колонки caseFileColumns и дополнительные приёмники.
func scanCaseFile(row pgx.Row, extra []any) (*model.CaseFile, error) {
	cf := &model.CaseFile{}
	var ids, names []string

	dest := []any{
		&cf.ID, &cf.ExpteCode, &cf.Year, &cf.Building, &cf.Caption, &cf.IntakeDate,
		&cf.StatusTag, &cf.LastAction, &cf.SentTo, &cf.CurrentDepartment, &cf.Resolution,
		&cf.ProcedureType, &cf.Active, &cf.LastModifiedBy, &cf.CreatedAt, &cf.UpdatedAt,
		&ids, &names,
	}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	for i := range ids {
		if i < len(names) {
			cf.Buildings = append(cf.Buildings, model.BuildingRef{ID: ids[i], Name: names[i]})
		}
	}
	return cf, nil
}
