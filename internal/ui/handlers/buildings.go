// buildings.go — справочник зданий: добавление, переименование,
// включение и выключение.
package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/expedientes/internal/domain/catalog"
	"github.com/bigkaa/expedientes/internal/ui/i18n"
	"github.com/bigkaa/expedientes/internal/ui/pages"
)

const errKeyNew = "nuevo"

// BuildingsHandler — экран справочника зданий.
type BuildingsHandler struct {
	buildings Buildings
	logger    *slog.Logger
}

// NewBuildingsHandler создаёт новый BuildingsHandler.
func NewBuildingsHandler(buildings Buildings, logger *slog.Logger) *BuildingsHandler {
	return &BuildingsHandler{
		buildings: buildings,
		logger:    logger.With(slog.String("component", "ui.buildings")),
	}
}

// buildingsQuery — состояние экрана из адреса.
type buildingsQuery struct {
	query           string
	includeInactive bool
}

func parseBuildingsQuery(v url.Values) buildingsQuery {
	return buildingsQuery{query: v.Get("q"), includeInactive: v.Get("inactivos") != ""}
}

func (q buildingsQuery) link() string {
	v := url.Values{}
	if q.query != "" {
		v.Set("q", q.query)
	}
	if q.includeInactive {
		v.Set("inactivos", "1")
	}
	if len(v) == 0 {
		return "/edificios"
	}
	return "/edificios?" + v.Encode()
}

// HandleList — GET /edificios. editar=ID открывает переименование строки.
func (h *BuildingsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := parseBuildingsQuery(r.URL.Query())
	h.show(w, r, http.StatusOK, q, func(d *pages.BuildingsData) {
		d.EditID = r.URL.Query().Get("editar")
		for _, row := range d.Rows {
			if row.ID == d.EditID {
				d.EditName = row.Name
			}
		}
	})
}

// HandleCreate — POST /edificios.
func (h *BuildingsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	back := safeReturn(r.FormValue("volver"), "/edificios")
	name := r.FormValue("nombre")

	if _, err := h.buildings.Create(r.Context(), name); err != nil {
		h.fail(w, r, back, errKeyNew, err, func(d *pages.BuildingsData) {
			d.NewName = name
		})
		return
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// HandleRename — POST /edificios/{id}/renombrar.
func (h *BuildingsHandler) HandleRename(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	back := safeReturn(r.FormValue("volver"), "/edificios")
	name := r.FormValue("nombre")

	if err := h.buildings.Rename(r.Context(), id, name); err != nil {
		h.fail(w, r, back, id, err, func(d *pages.BuildingsData) {
			d.EditID = id
			d.EditName = name
		})
		return
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// HandleSetActive — POST /edificios/{id}/activo.
func (h *BuildingsHandler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	back := safeReturn(r.FormValue("volver"), "/edificios")

	active, err := strconv.ParseBool(r.FormValue("activo"))
	if err != nil {
		http.Error(w, "activo: valor inválido", http.StatusBadRequest)
		return
	}
	if err := h.buildings.SetActive(r.Context(), id, active); err != nil {
		h.fail(w, r, back, id, err, nil)
		return
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// HandleDelete — POST /edificios/{id}/eliminar: мягкое удаление.
func (h *BuildingsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	back := safeReturn(r.FormValue("volver"), "/edificios")

	if err := h.buildings.SetActive(r.Context(), id, false); err != nil {
		h.fail(w, r, back, id, err, nil)
		return
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// fail рендерит справочник с ошибкой у строки key.
func (h *BuildingsHandler) fail(w http.ResponseWriter, r *http.Request, back, key string, err error, keep func(*pages.BuildingsData)) {
	status, msg := errorStatus(r, err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Ошибка изменения справочника",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}

	q := parseBuildingsQuery(url.Values{})
	if u, perr := url.Parse(back); perr == nil {
		q = parseBuildingsQuery(u.Query())
	}
	h.show(w, r, status, q, func(d *pages.BuildingsData) {
		d.Errors[key] = msg
		if keep != nil {
			keep(d)
		}
	})
}

func (h *BuildingsHandler) show(w http.ResponseWriter, r *http.Request, status int, q buildingsQuery, decorate func(*pages.BuildingsData)) {
	all, err := h.buildings.List(r.Context(), true)
	if err != nil {
		h.logger.Error("Ошибка загрузки зданий", slog.String("error", err.Error()))
		http.Error(w, i18n.T(r.Context(), "error.load"), http.StatusInternalServerError)
		return
	}

	returnTo := q.link()
	sep := "?"
	if len(returnTo) > len("/edificios") {
		sep = "&"
	}

	filtered := catalog.Filter(all, q.query, q.includeInactive)
	d := pages.BuildingsData{
		Base:            base(r, "settings"),
		Rows:            make([]pages.BuildingRow, 0, len(filtered)),
		Counts:          catalog.Count(all),
		Query:           q.query,
		IncludeInactive: q.includeInactive,
		ReturnTo:        returnTo,
		Errors:          map[string]string{},
	}
	for _, b := range filtered {
		d.Rows = append(d.Rows, pages.BuildingRow{
			Building: b,
			EditLink: returnTo + sep + "editar=" + url.QueryEscape(b.ID),
		})
	}
	if decorate != nil {
		decorate(&d)
	}
	render(w, r, h.logger, status, pages.Buildings(d))
}
