// case_files.go — сервис expedientes: список, карточка, независимые
// правки полей, история gestiones, создание и мягкое удаление.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/expedientes/internal/domain/detail"
	"github.com/bigkaa/expedientes/internal/domain/listing"
	"github.com/bigkaa/expedientes/internal/domain/model"
	"github.com/bigkaa/expedientes/internal/repository"
)

// TxManager выполняет функцию с репозиториями одной транзакции.
// Реализуется repository.TxRunner.
type TxManager interface {
	InTx(ctx context.Context, fn func(repository.Repos) error) error
}

// CaseFileService — сервис expedientes.
type CaseFileService struct {
	caseFiles repository.CaseFileRepository
	links     repository.CaseFileBuildingRepository
	history   repository.HistoryRepository
	tx        TxManager
	logger    *slog.Logger
}

// NewCaseFileService создаёт сервис expedientes.
func NewCaseFileService(repos repository.Repos, tx TxManager, logger *slog.Logger) *CaseFileService {
	return &CaseFileService{
		caseFiles: repos.CaseFiles,
		links:     repos.Links,
		history:   repos.History,
		tx:        tx,
		logger:    logger.With(slog.String("component", "case_file_service")),
	}
}

// List возвращает строки списка с последней gestión.
func (s *CaseFileService) List(ctx context.Context, includeInactive bool) ([]model.CaseFileRow, error) {
	rows, err := s.caseFiles.ListWithLatest(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListView загружает строки и строит модель экрана списка.
func (s *CaseFileService) ListView(ctx context.Context, state listing.State, includeInactive bool) (listing.View, error) {
	rows, err := s.List(ctx, includeInactive)
	if err != nil {
		return listing.View{State: state}, err
	}
	return listing.Build(rows, state), nil
}

// Get возвращает expediente по ID, включая неактивные.
func (s *CaseFileService) Get(ctx context.Context, id string) (*model.CaseFile, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	cf, err := s.caseFiles.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return cf, nil
}

// Detail загружает expediente, всю историю (по дате) и отдельно
// последнюю по вставке gestión для отображаемых полей.
func (s *CaseFileService) Detail(ctx context.Context, id string) (detail.View, error) {
	cf, err := s.Get(ctx, id)
	if err != nil {
		return detail.View{}, err
	}

	history, err := s.history.ListByCaseFile(ctx, id)
	if err != nil {
		return detail.View{}, err
	}

	v := detail.Build(*cf, history)

	latest, err := s.history.Latest(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		v.Latest = nil
	case err != nil:
		return detail.View{}, err
	default:
		v.Latest = latest
	}
	v.Shown = cf.Effective(v.Latest)

	return v, nil
}

// SetStatusTag сохраняет etiqueta. Пустое значение снимает etiqueta.
func (s *CaseFileService) SetStatusTag(ctx context.Context, id, tag, actor string) error {
	tag = strings.TrimSpace(tag)
	if tag != "" && !model.IsValidStatusTag(tag) {
		return newValidationError(fmt.Sprintf("Etiqueta inválida: %q", tag))
	}
	return s.updateField(ctx, id, repository.FieldStatusTag, model.NilIfBlank(tag), actor)
}

// SetProcedureType сохраняет вид trámite (в верхнем регистре).
func (s *CaseFileService) SetProcedureType(ctx context.Context, id, procedure, actor string) error {
	procedure = strings.ToUpper(strings.TrimSpace(procedure))
	if procedure != "" && !model.IsValidProcedureType(procedure) {
		return newValidationError(fmt.Sprintf("Trámite inválido: %q", procedure))
	}
	return s.updateField(ctx, id, repository.FieldProcedureType, model.NilIfBlank(procedure), actor)
}

// SetResolution сохраняет текст resolución.
func (s *CaseFileService) SetResolution(ctx context.Context, id, text, actor string) error {
	return s.updateField(ctx, id, repository.FieldResolution, model.NilIfBlank(text), actor)
}

func (s *CaseFileService) updateField(ctx context.Context, id string, field repository.CaseFileField, value *string, actor string) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := s.caseFiles.UpdateField(ctx, id, field, value, actor); err != nil {
		return mapRepoErr(err)
	}
	s.logger.Info("Поле expediente обновлено",
		slog.String("case_file_id", id),
		slog.String("field", string(field)),
		slog.String("actor", actor),
	)
	return nil
}

// SetBuildings заменяет набор зданий expediente одной транзакцией.
func (s *CaseFileService) SetBuildings(ctx context.Context, id string, buildingIDs []string, actor string) error {
	if err := checkID(id); err != nil {
		return err
	}
	ids := uniqueIDs(buildingIDs)
	err := s.tx.InTx(ctx, func(r repository.Repos) error {
		if err := r.CaseFiles.Touch(ctx, id, actor); err != nil {
			return err
		}
		return r.Links.Replace(ctx, id, ids)
	})
	if err != nil {
		return mapRepoErr(err)
	}
	s.logger.Info("Здания expediente обновлены",
		slog.String("case_file_id", id),
		slog.Int("buildings", len(ids)),
		slog.String("actor", actor),
	)
	return nil
}

// SoftDelete скрывает expediente (active = false). Повторное удаление —
// не ошибка.
func (s *CaseFileService) SoftDelete(ctx context.Context, id, actor string) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := s.caseFiles.SoftDelete(ctx, id, actor); err != nil {
		return mapRepoErr(err)
	}
	s.logger.Info("Expediente скрыт",
		slog.String("case_file_id", id),
		slog.String("actor", actor),
	)
	return nil
}

// AppendHistory проверяет и добавляет gestión, затем отмечает автора
// изменения в expediente.
func (s *CaseFileService) AppendHistory(ctx context.Context, id string, in detail.HistoryInput, actor string) (*model.HistoryEntry, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	entry, err := in.Validate()
	if err != nil {
		return nil, newValidationError(err.Error())
	}

	date := entry.Date
	e := &model.HistoryEntry{
		ID:                uuid.New().String(),
		CaseFileID:        id,
		Date:              &date,
		Description:       &entry.Description,
		SentTo:            entry.SentTo,
		CurrentDepartment: entry.CurrentDepartment,
		LastModifiedBy:    model.NilIfBlank(actor),
	}
	if err := s.history.Append(ctx, e); err != nil {
		return nil, mapRepoErr(err)
	}

	if err := s.caseFiles.Touch(ctx, id, actor); err != nil {
		return e, mapRepoErr(err)
	}

	s.logger.Info("Gestión добавлена",
		slog.String("case_file_id", id),
		slog.String("entry_id", e.ID),
		slog.String("actor", actor),
	)
	return e, nil
}

// NewCaseFileInput — поля формы нового expediente.
type NewCaseFileInput struct {
	ExpteCode         string
	Year              string
	IntakeDate        string // yyyy-mm-dd
	BuildingIDs       []string
	Caption           string
	StatusTag         string
	Resolution        string
	ProcedureType     string
	SentTo            string
	CurrentDepartment string
	LastAction        string
}

// Подписи обязательных полей формы (в порядке формы).
const (
	LabelExpteCode         = "N° Expediente"
	LabelYear              = "Año"
	LabelIntakeDate        = "Fecha de ingreso"
	LabelBuilding          = "Edificio"
	LabelStatusTag         = "Etiqueta"
	LabelResolution        = "N° Resolución"
	LabelCaption           = "Carátula / Referencia"
	LabelProcedureType     = "Trámite"
	LabelSentTo            = "Se giró a"
	LabelCurrentDepartment = "Dependencia actual"
	LabelLastAction        = "Última gestión"
)

// Validate собирает все незаполненные обязательные поля в одну ошибку,
// затем проверяет формат года и даты.
func (in NewCaseFileInput) Validate() (*model.CaseFile, error) {
	var missing []string
	require := func(value, label string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, label)
		}
	}

	require(in.ExpteCode, LabelExpteCode)
	require(in.Year, LabelYear)
	require(in.IntakeDate, LabelIntakeDate)
	if len(uniqueIDs(in.BuildingIDs)) == 0 {
		missing = append(missing, LabelBuilding)
	}
	require(in.StatusTag, LabelStatusTag)
	require(in.Resolution, LabelResolution)
	require(in.Caption, LabelCaption)
	require(in.ProcedureType, LabelProcedureType)
	require(in.SentTo, LabelSentTo)
	require(in.CurrentDepartment, LabelCurrentDepartment)
	require(in.LastAction, LabelLastAction)

	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	year, err := strconv.Atoi(strings.TrimSpace(in.Year))
	if err != nil {
		return nil, newValidationError("Año inválido")
	}

	intake, err := time.Parse(detail.InputDateLayout, strings.TrimSpace(in.IntakeDate))
	if err != nil {
		return nil, newValidationError("Fecha de ingreso inválida")
	}

	tag := strings.TrimSpace(in.StatusTag)
	if !model.IsValidStatusTag(tag) {
		return nil, newValidationError(fmt.Sprintf("Etiqueta inválida: %q", tag))
	}

	procedure := strings.ToUpper(strings.TrimSpace(in.ProcedureType))
	if !model.IsValidProcedureType(procedure) {
		return nil, newValidationError(fmt.Sprintf("Trámite inválido: %q", procedure))
	}

	return &model.CaseFile{
		ExpteCode:         strings.TrimSpace(in.ExpteCode),
		Year:              &year,
		IntakeDate:        &intake,
		Caption:           model.NilIfBlank(in.Caption),
		StatusTag:         &tag,
		Resolution:        model.NilIfBlank(in.Resolution),
		ProcedureType:     &procedure,
		SentTo:            model.NilIfBlank(in.SentTo),
		CurrentDepartment: model.NilIfBlank(in.CurrentDepartment),
		LastAction:        model.NilIfBlank(in.LastAction),
		Active:            true,
	}, nil
}

// Create проверяет форму, вставляет expediente и затем связи со зданиями.
// Ошибка на втором шаге возвращается как *PartialFailureError: expediente
// остаётся без связей.
func (s *CaseFileService) Create(ctx context.Context, in NewCaseFileInput, actor string) (*model.CaseFile, error) {
	cf, err := in.Validate()
	if err != nil {
		return nil, err
	}

	cf.ID = uuid.New().String()
	cf.LastModifiedBy = model.NilIfBlank(actor)

	if err := s.caseFiles.Create(ctx, cf); err != nil {
		return nil, mapRepoErr(err)
	}

	ids := uniqueIDs(in.BuildingIDs)
	if err := s.links.Add(ctx, cf.ID, ids); err != nil {
		s.logger.Error("Expediente создан без связей со зданиями",
			slog.String("case_file_id", cf.ID),
			slog.String("error", err.Error()),
		)
		return cf, &PartialFailureError{CaseFileID: cf.ID, Err: mapRepoErr(err)}
	}
	for _, id := range ids {
		cf.Buildings = append(cf.Buildings, model.BuildingRef{ID: id})
	}

	s.logger.Info("Expediente создан",
		slog.String("case_file_id", cf.ID),
		slog.String("expte_code", cf.ExpteCode),
		slog.String("actor", actor),
	)
	return cf, nil
}

// uniqueIDs убирает пустые и повторяющиеся идентификаторы, сохраняя порядок.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
