package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/expedientes/internal/domain/model"
)

// HistoryRepository — интерфейс для таблицы history_entries.
// Gestiones только добавляются: операций изменения и удаления нет.
type HistoryRepository interface {
	// Append добавляет gestión.
	Append(ctx context.Context, e *model.HistoryEntry) error
	// ListByCaseFile возвращает все gestiones expediente по дате (убывание),
	// затем по времени вставки (убывание).
	ListByCaseFile(ctx context.Context, caseFileID string) ([]model.HistoryEntry, error)
	// Latest возвращает последнюю по вставке gestión или ErrNotFound.
	Latest(ctx context.Context, caseFileID string) (*model.HistoryEntry, error)
}

// historyRepo — реализация HistoryRepository.
type historyRepo struct {
	db DBTX
}

// NewHistoryRepository создаёт репозиторий gestiones.
func NewHistoryRepository(db DBTX) HistoryRepository {
	return &historyRepo{db: db}
}

const historyColumns = `id, case_file_id, entry_date, description, sent_to,
	current_department, last_modified_by, created_at`

func (r *historyRepo) Append(ctx context.Context, e *model.HistoryEntry) error {
	query := `
		INSERT INTO history_entries (id, case_file_id, entry_date, description,
			sent_to, current_department, last_modified_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		e.ID, e.CaseFileID, e.Date, e.Description,
		e.SentTo, e.CurrentDepartment, e.LastModifiedBy,
	).Scan(&e.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: expediente %s", ErrNotFound, e.CaseFileID)
		}
		return fmt.Errorf("ошибка добавления gestión: %w", err)
	}
	return nil
}

func (r *historyRepo) ListByCaseFile(ctx context.Context, caseFileID string) ([]model.HistoryEntry, error) {
	query := `SELECT ` + historyColumns + `
		FROM history_entries
		WHERE case_file_id = $1
		ORDER BY entry_date DESC NULLS LAST, created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, caseFileID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения истории: %w", err)
	}
	defer rows.Close()

	var result []model.HistoryEntry
	for rows.Next() {
		e, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования gestión: %w", err)
		}
		result = append(result, *e)
	}
	return result, rows.Err()
}

func (r *historyRepo) Latest(ctx context.Context, caseFileID string) (*model.HistoryEntry, error) {
	query := `SELECT ` + historyColumns + `
		FROM history_entries
		WHERE case_file_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	e, err := scanHistoryEntry(r.db.QueryRow(ctx, query, caseFileID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения последней gestión: %w", err)
	}
	return e, nil
}

func scanHistoryEntry(row pgx.Row) (*model.HistoryEntry, error) {
	e := &model.HistoryEntry{}
	if err := row.Scan(
		&e.ID, &e.CaseFileID, &e.Date, &e.Description, &e.SentTo,
		&e.CurrentDepartment, &e.LastModifiedBy, &e.CreatedAt,
	); err != nil {
		return nil, err
	}
	return e, nil
}
