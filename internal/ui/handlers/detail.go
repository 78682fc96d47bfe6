// detail.go — экран expediente: независимые правки полей, история
// gestiones и печатная форма.
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/expedientes/internal/domain/detail"
	"github.com/bigkaa/expedientes/internal/domain/model"
	"github.com/bigkaa/expedientes/internal/ui/i18n"
	"github.com/bigkaa/expedientes/internal/ui/pages"
	"github.com/bigkaa/expedientes/internal/ui/widgets"
)

// Ключи ошибок полей экрана expediente.
const (
	fieldBuildings  = "edificios"
	fieldProcedure  = "tramite"
	fieldTag        = "etiqueta"
	fieldResolution = "resolucion"
	fieldHistory    = "gestion"
)

// DetailHandler — экран expediente.
type DetailHandler struct {
	caseFiles CaseFiles
	buildings Buildings
	logger    *slog.Logger
	now       func() time.Time
}

// NewDetailHandler создаёт новый DetailHandler.
func NewDetailHandler(caseFiles CaseFiles, buildings Buildings, logger *slog.Logger) *DetailHandler {
	return &DetailHandler{
		caseFiles: caseFiles,
		buildings: buildings,
		logger:    logger.With(slog.String("component", "ui.detail")),
		now:       time.Now,
	}
}

// HandleDetail — GET /expedientes/{id}.
func (h *DetailHandler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	h.show(w, r, http.StatusOK, nil)
}

// HandlePrint — GET /expedientes/{id}/imprimir: expediente с полной
// историей в печатной форме.
func (h *DetailHandler) HandlePrint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	view, err := h.caseFiles.Detail(r.Context(), id)
	if err != nil {
		h.fail(w, r, id, err)
		return
	}

	lang := i18n.LangFromContext(r.Context())
	render(w, r, h.logger, http.StatusOK, pages.PrintDetail(pages.PrintDetailData{
		Lang:          lang,
		Title:         i18n.Translatef(lang, "detail.title", view.CaseFile.ExpteCode),
		Printed:       h.now().Format(model.DateLayout + " 15:04"),
		View:          view,
		BuildingLabel: view.CaseFile.BuildingLabel(),
	}))
}

// HandleSetBuildings — POST /expedientes/{id}/edificios.
func (h *DetailHandler) HandleSetBuildings(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	err := h.caseFiles.SetBuildings(r.Context(), id, r.Form[fieldBuildings], actor(r))
	h.afterSave(w, r, id, fieldBuildings, err, nil)
}

// HandleSetTag — POST /expedientes/{id}/estado.
func (h *DetailHandler) HandleSetTag(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.caseFiles.SetStatusTag(r.Context(), id, r.FormValue(fieldTag), actor(r))
	h.afterSave(w, r, id, fieldTag, err, nil)
}

// HandleSetProcedure — POST /expedientes/{id}/tramite.
func (h *DetailHandler) HandleSetProcedure(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.caseFiles.SetProcedureType(r.Context(), id, r.FormValue(fieldProcedure), actor(r))
	h.afterSave(w, r, id, fieldProcedure, err, nil)
}

// HandleSetResolution — POST /expedientes/{id}/resolucion. Неизменённый
// текст не сохраняется.
func (h *DetailHandler) HandleSetResolution(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	view, err := h.caseFiles.Detail(r.Context(), id)
	if err != nil {
		h.fail(w, r, id, err)
		return
	}

	draft := view.Resolution.Edit(r.FormValue(fieldResolution))
	if !draft.Dirty() {
		http.Redirect(w, r, "/expedientes/"+id, http.StatusSeeOther)
		return
	}

	err = h.caseFiles.SetResolution(r.Context(), id, draft.Draft, actor(r))
	h.afterSave(w, r, id, fieldResolution, err, func(d *pages.DetailData) {
		d.View.Resolution = draft
	})
}

// HandleAppendHistory — POST /expedientes/{id}/gestiones.
func (h *DetailHandler) HandleAppendHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	in := detail.HistoryInput{
		Date:              r.FormValue("fecha"),
		Description:       r.FormValue("descripcion"),
		SentTo:            r.FormValue("se_giro_a"),
		CurrentDepartment: r.FormValue("dependencia"),
	}
	_, err := h.caseFiles.AppendHistory(r.Context(), id, in, actor(r))
	h.afterSave(w, r, id, fieldHistory, err, func(d *pages.DetailData) {
		d.HistoryInput = in
	})
}

// afterSave завершает правку поля: редирект при успехе, иначе экран
// с ошибкой у поля field. keep сохраняет введённые значения.
func (h *DetailHandler) afterSave(w http.ResponseWriter, r *http.Request, id, field string, err error, keep func(*pages.DetailData)) {
	if err == nil {
		http.Redirect(w, r, "/expedientes/"+id, http.StatusSeeOther)
		return
	}

	status, msg := errorStatus(r, err)
	switch status {
	case http.StatusNotFound:
		notFound(w, r, h.logger)
		return
	case http.StatusInternalServerError:
		h.logger.Error("Ошибка сохранения expediente",
			slog.String("case_file_id", id),
			slog.String("field", field),
			slog.String("error", err.Error()),
		)
	}

	h.show(w, r, status, func(d *pages.DetailData) {
		d.Errors[field] = msg
		if keep != nil {
			keep(d)
		}
	})
}

// show загружает expediente и рендерит экран.
func (h *DetailHandler) show(w http.ResponseWriter, r *http.Request, status int, decorate func(*pages.DetailData)) {
	id := chi.URLParam(r, "id")
	view, err := h.caseFiles.Detail(r.Context(), id)
	if err != nil {
		h.fail(w, r, id, err)
		return
	}

	options, err := h.buildings.ActiveOptions(r.Context())
	if err != nil {
		h.logger.Error("Ошибка загрузки зданий", slog.String("error", err.Error()))
		http.Error(w, i18n.T(r.Context(), "error.load"), http.StatusInternalServerError)
		return
	}

	d := pages.DetailData{
		Base:          base(r, "list"),
		View:          view,
		BuildingLabel: view.CaseFile.BuildingLabel(),
		Buildings:     widgets.NewLookupSelector(fieldBuildings, withLinked(options, view.CaseFile.Buildings), view.CaseFile.BuildingIDs(), ""),
		Tag:           widgets.NewTagSelector(fieldTag, model.StatusTags, model.Deref(view.CaseFile.StatusTag)),
		Procedures:    model.ProcedureTypes,
		Errors:        map[string]string{},
		HistoryInput:  detail.HistoryInput{Date: h.now().Format(detail.InputDateLayout)},
	}
	if decorate != nil {
		decorate(&d)
	}
	render(w, r, h.logger, status, pages.Detail(d))
}

// withLinked добавляет к вариантам выбора привязанные здания, даже
// выключенные в справочнике, чтобы сохранение не снимало их молча.
func withLinked(options []model.Building, linked []model.BuildingRef) []model.Building {
	out := make([]model.Building, len(options), len(options)+len(linked))
	copy(out, options)
	known := make(map[string]struct{}, len(options))
	for _, b := range options {
		known[b.ID] = struct{}{}
	}
	for _, ref := range linked {
		if _, ok := known[ref.ID]; ok {
			continue
		}
		out = append(out, model.Building{ID: ref.ID, Name: ref.Name, Active: true})
	}
	return out
}

// fail отдаёт «не найдено» или внутреннюю ошибку загрузки.
func (h *DetailHandler) fail(w http.ResponseWriter, r *http.Request, id string, err error) {
	status, _ := errorStatus(r, err)
	if status == http.StatusNotFound {
		notFound(w, r, h.logger)
		return
	}
	h.logger.Error("Ошибка загрузки expediente",
		slog.String("case_file_id", id),
		slog.String("error", err.Error()),
	)
	http.Error(w, i18n.T(r.Context(), "error.load"), http.StatusInternalServerError)
}
