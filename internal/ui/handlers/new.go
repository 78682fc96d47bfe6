// new.go — форма нового expediente с выбором зданий и созданием
// здания прямо из формы.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/bigkaa/expedientes/internal/domain/model"
	"github.com/bigkaa/expedientes/internal/service"
	"github.com/bigkaa/expedientes/internal/ui/i18n"
	"github.com/bigkaa/expedientes/internal/ui/pages"
	"github.com/bigkaa/expedientes/internal/ui/widgets"
)

// Действия формы (кнопка name="accion").
const (
	actionSearch         = "buscar"
	actionCreateBuilding = "crear_edificio"
	actionSave           = "guardar"
)

// NewCaseFileHandler — форма нового expediente.
type NewCaseFileHandler struct {
	caseFiles CaseFiles
	buildings Buildings
	logger    *slog.Logger
}

// NewNewCaseFileHandler создаёт новый NewCaseFileHandler.
func NewNewCaseFileHandler(caseFiles CaseFiles, buildings Buildings, logger *slog.Logger) *NewCaseFileHandler {
	return &NewCaseFileHandler{
		caseFiles: caseFiles,
		buildings: buildings,
		logger:    logger.With(slog.String("component", "ui.new_case_file")),
	}
}

// HandleForm — GET /expedientes/nuevo.
func (h *NewCaseFileHandler) HandleForm(w http.ResponseWriter, r *http.Request) {
	options, err := h.buildings.ActiveOptions(r.Context())
	if err != nil {
		h.logger.Error("Ошибка загрузки зданий", slog.String("error", err.Error()))
		http.Error(w, i18n.T(r.Context(), "error.load"), http.StatusInternalServerError)
		return
	}
	h.renderForm(w, r, http.StatusOK, pages.NewData{
		Selector: widgets.NewLookupSelector(fieldBuildings, options, nil, ""),
	})
}

// HandleSubmit — POST /expedientes/nuevo. Кнопки формы: поиск здания,
// переключение выбора (alternar), создание здания и сохранение.
func (h *NewCaseFileHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	options, err := h.buildings.ActiveOptions(r.Context())
	if err != nil {
		h.logger.Error("Ошибка загрузки зданий", slog.String("error", err.Error()))
		http.Error(w, i18n.T(r.Context(), "error.load"), http.StatusInternalServerError)
		return
	}

	in := inputFromForm(r)
	selector := widgets.NewLookupSelector(fieldBuildings, options, r.Form[fieldBuildings], r.FormValue("buscar_edificio"))
	d := pages.NewData{Input: in, Selector: selector}

	if id := r.FormValue("alternar"); id != "" {
		selector.Toggle(id)
		h.renderForm(w, r, http.StatusOK, d)
		return
	}

	switch r.FormValue("accion") {
	case actionCreateBuilding:
		b, err := h.buildings.Create(r.Context(), selector.Query)
		if err != nil {
			status, msg := errorStatus(r, err)
			if status == http.StatusInternalServerError {
				h.logger.Error("Ошибка создания здания", slog.String("error", err.Error()))
			}
			d.Errors = map[string]string{fieldBuildings: msg}
			h.renderForm(w, r, status, d)
			return
		}
		selector.AddCreated(*b)
		d.Flash = i18n.T(r.Context(), "flash.building_created")
		h.renderForm(w, r, http.StatusOK, d)

	case actionSave:
		h.save(w, r, d)

	default:
		h.renderForm(w, r, http.StatusOK, d)
	}
}

// save создаёт expediente из формы. Сохранение без связей со зданиями
// показывается как ошибка со ссылкой на созданный expediente.
func (h *NewCaseFileHandler) save(w http.ResponseWriter, r *http.Request, d pages.NewData) {
	d.Input.BuildingIDs = d.Selector.SelectedIDs()

	cf, err := h.caseFiles.Create(r.Context(), d.Input, actor(r))
	if err == nil {
		http.Redirect(w, r, "/expedientes/"+cf.ID, http.StatusSeeOther)
		return
	}

	status, msg := errorStatus(r, err)
	var pf *service.PartialFailureError
	if errors.As(err, &pf) {
		d.CreatedID = pf.CaseFileID
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("Ошибка создания expediente", slog.String("error", err.Error()))
	}
	d.Error = msg
	h.renderForm(w, r, status, d)
}

func (h *NewCaseFileHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, d pages.NewData) {
	flash, errMsg := d.Flash, d.Error
	d.Base = base(r, "new")
	d.Flash, d.Error = flash, errMsg
	d.Tags = model.StatusTags
	d.Procedures = model.ProcedureTypes
	if d.Errors == nil {
		d.Errors = map[string]string{}
	}
	render(w, r, h.logger, status, pages.New(d))
}

// inputFromForm читает поля формы. Здания берутся из селектора.
func inputFromForm(r *http.Request) service.NewCaseFileInput {
	return service.NewCaseFileInput{
		ExpteCode:         r.FormValue("expte"),
		Year:              r.FormValue("anio"),
		IntakeDate:        r.FormValue("fecha_ingreso"),
		Caption:           r.FormValue("caratula"),
		StatusTag:         r.FormValue("etiqueta"),
		Resolution:        r.FormValue("resolucion"),
		ProcedureType:     r.FormValue("tramite"),
		SentTo:            r.FormValue("se_giro_a"),
		CurrentDepartment: r.FormValue("dependencia"),
		LastAction:        r.FormValue("ultima_gestion"),
	}
}
