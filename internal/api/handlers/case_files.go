// case_files.go — обработчики /api/v1/case-files endpoints.
// Список с фильтрами и страницами, карточка с историей, добавление
// gestión, смена etiqueta и мягкое удаление.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/expedientes/internal/api/errors"
	"github.com/bigkaa/expedientes/internal/api/middleware"
	"github.com/bigkaa/expedientes/internal/domain/detail"
	"github.com/bigkaa/expedientes/internal/domain/listing"
	"github.com/bigkaa/expedientes/internal/domain/model"
)

// --- DTO ---

type buildingRefDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type shownDTO struct {
	LastAction        string  `json:"last_action"`
	SentTo            string  `json:"sent_to"`
	CurrentDepartment string  `json:"current_department"`
	ForwardDate       *string `json:"forward_date"`
}

type caseFileDTO struct {
	ID             string           `json:"id"`
	ExpteCode      string           `json:"expte_code"`
	Year           *int             `json:"year"`
	Building       string           `json:"building"`
	Buildings      []buildingRefDTO `json:"buildings"`
	Caption        *string          `json:"caption"`
	IntakeDate     *string          `json:"intake_date"`
	StatusTag      *string          `json:"status_tag"`
	Resolution     *string          `json:"resolution"`
	ProcedureType  *string          `json:"procedure_type"`
	Active         bool             `json:"active"`
	LastModifiedBy *string          `json:"last_modified_by"`
	Shown          shownDTO         `json:"shown"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

type historyDTO struct {
	ID                string    `json:"id"`
	Date              *string   `json:"date"`
	Description       *string   `json:"description"`
	SentTo            *string   `json:"sent_to"`
	CurrentDepartment *string   `json:"current_department"`
	LastModifiedBy    *string   `json:"last_modified_by"`
	CreatedAt         time.Time `json:"created_at"`
}

type caseFileListResponse struct {
	Items     []caseFileDTO `json:"items"`
	Page      int           `json:"page"`
	PageCount int           `json:"page_count"`
	PageSize  int           `json:"page_size"`
	Total     int           `json:"total"`
	Filtered  int           `json:"filtered"`
	Buildings int           `json:"buildings"`
}

type caseFileDetailResponse struct {
	CaseFile caseFileDTO  `json:"case_file"`
	History  []historyDTO `json:"history"`
}

type historyRequest struct {
	Date              string `json:"date"`
	Description       string `json:"description"`
	SentTo            string `json:"sent_to"`
	CurrentDepartment string `json:"current_department"`
}

type statusTagRequest struct {
	StatusTag *string `json:"status_tag"`
}

// isoDate форматирует календарную дату как yyyy-mm-dd.
func isoDate(d *time.Time) *string {
	if d == nil {
		return nil
	}
	s := d.Format(detail.InputDateLayout)
	return &s
}

func mapCaseFile(cf *model.CaseFile, shown model.EffectiveFields) caseFileDTO {
	refs := make([]buildingRefDTO, 0, len(cf.Buildings))
	for _, b := range cf.Buildings {
		refs = append(refs, buildingRefDTO{ID: b.ID, Name: b.Name})
	}
	return caseFileDTO{
		ID:             cf.ID,
		ExpteCode:      cf.ExpteCode,
		Year:           cf.Year,
		Building:       cf.BuildingLabel(),
		Buildings:      refs,
		Caption:        cf.Caption,
		IntakeDate:     isoDate(cf.IntakeDate),
		StatusTag:      cf.StatusTag,
		Resolution:     cf.Resolution,
		ProcedureType:  cf.ProcedureType,
		Active:         cf.Active,
		LastModifiedBy: cf.LastModifiedBy,
		Shown: shownDTO{
			LastAction:        shown.LastAction,
			SentTo:            shown.SentTo,
			CurrentDepartment: shown.CurrentDepartment,
			ForwardDate:       isoDate(shown.ForwardDate),
		},
		CreatedAt: cf.CreatedAt,
		UpdatedAt: cf.UpdatedAt,
	}
}

func mapHistory(e *model.HistoryEntry) historyDTO {
	return historyDTO{
		ID:                e.ID,
		Date:              isoDate(e.Date),
		Description:       e.Description,
		SentTo:            e.SentTo,
		CurrentDepartment: e.CurrentDepartment,
		LastModifiedBy:    e.LastModifiedBy,
		CreatedAt:         e.CreatedAt,
	}
}

// --- Обработчики ---

// ListCaseFiles — GET /api/v1/case-files.
// Параметры: q, year, tag, procedure, page, include_inactive.
func (h *APIHandler) ListCaseFiles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page := 1
	if p := query.Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			apierrors.ValidationError(w, "page: número inválido")
			return
		}
		page = n
	}
	includeInactive, _ := strconv.ParseBool(query.Get("include_inactive"))

	state := listing.State{
		Filter: listing.Filter{
			Text:          query.Get("q"),
			Year:          query.Get("year"),
			StatusTag:     query.Get("tag"),
			ProcedureType: query.Get("procedure"),
		},
		Page: page,
	}
	view, err := h.caseFiles.ListView(r.Context(), state, includeInactive)
	if err != nil {
		h.logger.Error("Ошибка получения списка expedientes", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Error al cargar los expedientes")
		return
	}

	items := make([]caseFileDTO, 0, len(view.Rows))
	for i := range view.Rows {
		items = append(items, mapCaseFile(&view.Rows[i].CaseFile, view.Rows[i].Shown))
	}

	writeJSON(w, http.StatusOK, caseFileListResponse{
		Items:     items,
		Page:      view.Window.Page,
		PageCount: view.Window.PageCount,
		PageSize:  listing.PageSize,
		Total:     view.Summary.Total,
		Filtered:  view.Summary.Filtered,
		Buildings: view.Summary.Buildings,
	})
}

// GetCaseFile — GET /api/v1/case-files/{id}.
// История — по дате, отображаемые поля — по последней вставленной gestión.
func (h *APIHandler) GetCaseFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	view, err := h.caseFiles.Detail(r.Context(), id)
	if err != nil {
		if apierrors.FromService(w, err) {
			h.logger.Error("Ошибка получения expediente",
				slog.String("case_file_id", id),
				slog.String("error", err.Error()),
			)
		}
		return
	}

	history := make([]historyDTO, 0, len(view.History))
	for i := range view.History {
		history = append(history, mapHistory(&view.History[i]))
	}

	writeJSON(w, http.StatusOK, caseFileDetailResponse{
		CaseFile: mapCaseFile(&view.CaseFile, view.Shown),
		History:  history,
	})
}

// AppendHistory — POST /api/v1/case-files/{id}/history.
func (h *APIHandler) AppendHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req historyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "JSON inválido: "+err.Error())
		return
	}

	entry, err := h.caseFiles.AppendHistory(r.Context(), id, detail.HistoryInput{
		Date:              req.Date,
		Description:       req.Description,
		SentTo:            req.SentTo,
		CurrentDepartment: req.CurrentDepartment,
	}, middleware.ActorFromContext(r.Context()))
	if err != nil {
		if apierrors.FromService(w, err) {
			h.logger.Error("Ошибка добавления gestión",
				slog.String("case_file_id", id),
				slog.String("error", err.Error()),
			)
		}
		return
	}

	writeJSON(w, http.StatusCreated, mapHistory(entry))
}

// SetStatusTag — PATCH /api/v1/case-files/{id}/status-tag.
// null или пустая строка снимают etiqueta.
func (h *APIHandler) SetStatusTag(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req statusTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "JSON inválido: "+err.Error())
		return
	}

	if err := h.caseFiles.SetStatusTag(r.Context(), id, model.Deref(req.StatusTag), middleware.ActorFromContext(r.Context())); err != nil {
		if apierrors.FromService(w, err) {
			h.logger.Error("Ошибка сохранения etiqueta",
				slog.String("case_file_id", id),
				slog.String("error", err.Error()),
			)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteCaseFile — DELETE /api/v1/case-files/{id}.
// Мягкое удаление; повторный вызов — тоже 204.
func (h *APIHandler) DeleteCaseFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.caseFiles.SoftDelete(r.Context(), id, middleware.ActorFromContext(r.Context())); err != nil {
		if apierrors.FromService(w, err) {
			h.logger.Error("Ошибка удаления expediente",
				slog.String("case_file_id", id),
				slog.String("error", err.Error()),
			)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
