// importer.go — чтение книги и запись expedientes в БД.
package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/bigkaa/expedientes/internal/domain/model"
	"github.com/bigkaa/expedientes/internal/repository"
)

// Workbook — результат чтения книги.
type Workbook struct {
	Records []Record
	// Skipped — служебные листы
	Skipped []string
}

// ReadWorkbook читает все листы книги из r. Значения берутся сырыми:
// даты приходят серийными номерами Excel.
func ReadWorkbook(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия книги: %w", err)
	}
	defer f.Close() //nolint:errcheck // только чтение

	wb := &Workbook{}
	for _, sheet := range f.GetSheetList() {
		if IsSkipped(sheet) {
			wb.Skipped = append(wb.Skipped, sheet)
			continue
		}
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения листа %q: %w", sheet, err)
		}
		wb.Records = append(wb.Records, ParseSheet(sheet, rows))
	}
	return wb, nil
}

// TxManager выполняет функцию с репозиториями одной транзакции.
// Реализуется repository.TxRunner.
type TxManager interface {
	InTx(ctx context.Context, fn func(repository.Repos) error) error
}

// Summary — итог импорта.
type Summary struct {
	CaseFiles      int
	HistoryEntries int
	Skipped        int
	Warnings       int
}

// Importer записывает прочитанные expedientes.
type Importer struct {
	tx     TxManager
	actor  string
	logger *slog.Logger
}

// New создаёт Importer. actor попадает в last_modified_by (пустой — NULL).
func New(tx TxManager, actor string, logger *slog.Logger) *Importer {
	return &Importer{
		tx:     tx,
		actor:  actor,
		logger: logger.With(slog.String("component", "importer")),
	}
}

// Run записывает expedientes книги: каждый expediente с историей — в
// своей транзакции. При dryRun только считает. Первая ошибка записи
// прерывает импорт; уже записанные expedientes остаются.
func (im *Importer) Run(ctx context.Context, wb *Workbook, dryRun bool) (Summary, error) {
	sum := Summary{Skipped: len(wb.Skipped)}

	for i := range wb.Records {
		rec := &wb.Records[i]
		for _, w := range rec.Warnings {
			im.logger.Warn("Значение пропущено",
				slog.String("sheet", rec.Sheet),
				slog.String("warning", w),
			)
		}
		sum.Warnings += len(rec.Warnings)

		if !dryRun {
			if err := im.write(ctx, rec); err != nil {
				return sum, fmt.Errorf("лист %q: %w", rec.Sheet, err)
			}
		}
		sum.CaseFiles++
		sum.HistoryEntries += len(rec.History)
	}

	im.logger.Info("Импорт завершён",
		slog.Bool("dry_run", dryRun),
		slog.Int("case_files", sum.CaseFiles),
		slog.Int("history_entries", sum.HistoryEntries),
		slog.Int("skipped_sheets", sum.Skipped),
		slog.Int("warnings", sum.Warnings),
	)
	return sum, nil
}

// write сохраняет expediente и его историю в одной транзакции.
// Записи истории получают UUIDv7 в порядке строк листа, поэтому
// последней по вставке остаётся нижняя строка.
func (im *Importer) write(ctx context.Context, rec *Record) error {
	cf, history := rec.toModel(model.NilIfBlank(im.actor))
	return im.tx.InTx(ctx, func(repos repository.Repos) error {
		if err := repos.CaseFiles.Create(ctx, cf); err != nil {
			return err
		}
		for i := range history {
			if err := repos.History.Append(ctx, &history[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// toModel переводит запись листа в expediente и gestiones.
func (rec *Record) toModel(actor *string) (*model.CaseFile, []model.HistoryEntry) {
	cf := &model.CaseFile{
		ID:                uuid.New().String(),
		ExpteCode:         rec.ExpteCode,
		Year:              rec.Year,
		Building:          rec.Building,
		Caption:           rec.Caption,
		IntakeDate:        rec.IntakeDate,
		StatusTag:         rec.StatusTag,
		LastAction:        rec.LastAction,
		SentTo:            rec.SentTo,
		CurrentDepartment: rec.CurrentDepartment,
		Resolution:        rec.Resolution,
		ProcedureType:     rec.ProcedureType,
		Active:            true,
		LastModifiedBy:    actor,
	}

	history := make([]model.HistoryEntry, 0, len(rec.History))
	for _, h := range rec.History {
		history = append(history, model.HistoryEntry{
			ID:                uuid.Must(uuid.NewV7()).String(),
			CaseFileID:        cf.ID,
			Date:              h.Date,
			Description:       h.Description,
			SentTo:            h.SentTo,
			CurrentDepartment: h.CurrentDepartment,
			LastModifiedBy:    actor,
		})
	}
	return cf, history
}
