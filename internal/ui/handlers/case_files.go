// case_files.go — экран списка expedientes: фильтры, пагинация,
// смена etiqueta в строке, двухшаговое удаление и печать страницы.
package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/expedientes/internal/domain/listing"
	"github.com/bigkaa/expedientes/internal/domain/model"
	"github.com/bigkaa/expedientes/internal/ui/i18n"
	"github.com/bigkaa/expedientes/internal/ui/pages"
	"github.com/bigkaa/expedientes/internal/ui/widgets"
)

// Параметры адреса списка.
const (
	paramQuery     = "q"
	paramYear      = "anio"
	paramTag       = "etiqueta"
	paramProcedure = "tramite"
	paramInactive  = "inactivos"
	paramPage      = "pagina"
	paramDelete    = "eliminar"
	prevPrefix     = "prev_"
)

// listQuery — разобранное состояние экрана списка из адреса.
type listQuery struct {
	state           listing.State
	includeInactive bool
	deleteID        string
}

// parseListQuery восстанавливает состояние: фильтр из prev_* с номером
// страницы, затем применяет текущий фильтр. Изменение фильтра
// сбрасывает страницу на первую.
func parseListQuery(v url.Values) listQuery {
	page, _ := strconv.Atoi(v.Get(paramPage))
	prev := listing.State{Filter: filterFrom(v, prevPrefix)}.WithPage(page)
	return listQuery{
		state:           prev.WithFilter(filterFrom(v, "")),
		includeInactive: v.Get(paramInactive) != "",
		deleteID:        v.Get(paramDelete),
	}
}

func filterFrom(v url.Values, prefix string) listing.Filter {
	return listing.Filter{
		Text:          v.Get(prefix + paramQuery),
		Year:          v.Get(prefix + paramYear),
		StatusTag:     v.Get(prefix + paramTag),
		ProcedureType: v.Get(prefix + paramProcedure),
	}
}

// link строит адрес списка для состояния s на странице page.
// prev_* совпадают с текущим фильтром, чтобы страница сохранялась.
func (q listQuery) link(path string, page int) string {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
			v.Set(prevPrefix+key, value)
		}
	}
	f := q.state.Filter
	set(paramQuery, f.Text)
	set(paramYear, f.Year)
	set(paramTag, f.StatusTag)
	set(paramProcedure, f.ProcedureType)
	if q.includeInactive {
		v.Set(paramInactive, "1")
	}
	if page > 1 {
		v.Set(paramPage, strconv.Itoa(page))
	}
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}

// CaseFilesHandler — экран списка expedientes.
type CaseFilesHandler struct {
	caseFiles CaseFiles
	logger    *slog.Logger
	now       func() time.Time
}

// NewCaseFilesHandler создаёт новый CaseFilesHandler.
func NewCaseFilesHandler(caseFiles CaseFiles, logger *slog.Logger) *CaseFilesHandler {
	return &CaseFilesHandler{
		caseFiles: caseFiles,
		logger:    logger.With(slog.String("component", "ui.case_files")),
		now:       time.Now,
	}
}

// HandleList — GET /expedientes.
func (h *CaseFilesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := parseListQuery(r.URL.Query())

	rows, err := h.caseFiles.List(r.Context(), q.includeInactive)
	if err != nil {
		h.logger.Error("Ошибка загрузки списка", slog.String("error", err.Error()))
		h.renderList(w, r, http.StatusInternalServerError, q, nil, listing.DeleteFlow{}, func(d *pages.ListData) {
			d.Error = i18n.T(r.Context(), "error.load")
		})
		return
	}

	h.renderList(w, r, http.StatusOK, q, rows, listing.DeleteFlow{}.Request(q.deleteID), nil)
}

// HandlePrint — GET /expedientes/imprimir: текущая страница списка
// в печатной форме.
func (h *CaseFilesHandler) HandlePrint(w http.ResponseWriter, r *http.Request) {
	q := parseListQuery(r.URL.Query())

	rows, err := h.caseFiles.List(r.Context(), q.includeInactive)
	if err != nil {
		h.logger.Error("Ошибка загрузки списка для печати", slog.String("error", err.Error()))
		http.Error(w, i18n.T(r.Context(), "error.load"), http.StatusInternalServerError)
		return
	}

	view := listing.Build(rows, q.state)
	lang := i18n.LangFromContext(r.Context())
	render(w, r, h.logger, http.StatusOK, pages.PrintList(pages.PrintListData{
		Lang:    lang,
		Title:   i18n.Translate(lang, "print.list_title"),
		Printed: h.now().Format(model.DateLayout + " 15:04"),
		Window:  view.Window,
		Rows:    view.Rows,
	}))
}

// HandleSetTag — POST /expedientes/{id}/etiqueta из строки списка.
// volver — адрес текущего состояния списка.
func (h *CaseFilesHandler) HandleSetTag(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	back := safeReturn(r.FormValue("volver"), "/expedientes")

	err := h.caseFiles.SetStatusTag(r.Context(), id, r.FormValue(paramTag), actor(r))
	if err == nil {
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	status, msg := errorStatus(r, err)
	if status == http.StatusNotFound {
		notFound(w, r, h.logger)
		return
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("Ошибка сохранения etiqueta",
			slog.String("case_file_id", id),
			slog.String("error", err.Error()),
		)
	}

	q := queryOf(back)
	rows, lerr := h.caseFiles.List(r.Context(), q.includeInactive)
	if lerr != nil {
		http.Error(w, msg, status)
		return
	}
	h.renderList(w, r, status, q, rows, listing.DeleteFlow{}, func(d *pages.ListData) {
		for i := range d.Rows {
			if d.Rows[i].ID == id {
				d.Rows[i].Error = msg
				return
			}
		}
		d.Error = msg
	})
}

// HandleDelete — POST /expedientes/{id}/eliminar. Подтверждается только
// тот expediente, удаление которого было запрошено.
func (h *CaseFilesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	q := queryOf(safeReturn(r.FormValue("volver"), "/expedientes"))

	flow := listing.DeleteFlow{PendingID: r.FormValue("pendiente")}
	if _, ok := flow.Confirm(id); !ok {
		rows, err := h.caseFiles.List(r.Context(), q.includeInactive)
		if err != nil {
			http.Error(w, i18n.T(r.Context(), "error.load"), http.StatusInternalServerError)
			return
		}
		h.renderList(w, r, http.StatusBadRequest, q, rows, listing.DeleteFlow{}, func(d *pages.ListData) {
			d.Error = i18n.T(r.Context(), "list.delete_expired")
		})
		return
	}

	if err := h.caseFiles.SoftDelete(r.Context(), id, actor(r)); err != nil {
		status, msg := errorStatus(r, err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Ошибка удаления expediente",
				slog.String("case_file_id", id),
				slog.String("error", err.Error()),
			)
		}
		rows, lerr := h.caseFiles.List(r.Context(), q.includeInactive)
		if lerr != nil {
			http.Error(w, msg, status)
			return
		}
		h.renderList(w, r, status, q, rows, listing.DeleteFlow{}, func(d *pages.ListData) {
			d.Error = msg
		})
		return
	}

	rows, err := h.caseFiles.List(r.Context(), q.includeInactive)
	if err != nil {
		h.logger.Error("Ошибка загрузки списка", slog.String("error", err.Error()))
		http.Redirect(w, r, q.link("/expedientes", q.state.Page), http.StatusSeeOther)
		return
	}
	h.renderList(w, r, http.StatusOK, q, listing.Remove(rows, id), listing.DeleteFlow{}, func(d *pages.ListData) {
		d.Flash = i18n.T(r.Context(), "flash.deleted")
	})
}

// queryOf разбирает сохранённый адрес списка.
func queryOf(target string) listQuery {
	u, err := url.Parse(target)
	if err != nil || !strings.HasPrefix(u.Path, "/expedientes") {
		return parseListQuery(url.Values{})
	}
	return parseListQuery(u.Query())
}

// renderList строит экран списка. flow отмечает строку, ожидающую
// подтверждения удаления; запрос на невидимую строку сбрасывается.
func (h *CaseFilesHandler) renderList(
	w http.ResponseWriter, r *http.Request, status int,
	q listQuery, rows []model.CaseFileRow, flow listing.DeleteFlow,
	decorate func(*pages.ListData),
) {
	view := listing.Build(rows, q.state)
	q.state = view.State

	visible := false
	for i := range view.Rows {
		if flow.Pending(view.Rows[i].ID) {
			visible = true
		}
	}
	if !visible {
		flow = flow.Cancel()
	}

	returnTo := q.link("/expedientes", view.Window.Page)
	sep := "?"
	if strings.Contains(returnTo, "?") {
		sep = "&"
	}

	d := pages.ListData{
		Base:            base(r, "list"),
		View:            view,
		Filter:          q.state.Filter,
		Tags:            model.StatusTags,
		Procedures:      model.ProcedureTypes,
		IncludeInactive: q.includeInactive,
		ReturnTo:        returnTo,
		PrintLink:       q.link("/expedientes/imprimir", view.Window.Page),
		CancelLink:      returnTo,
	}
	if view.Window.HasPrev() {
		d.PrevLink = q.link("/expedientes", view.Window.Page-1)
	}
	if view.Window.HasNext() {
		d.NextLink = q.link("/expedientes", view.Window.Page+1)
	}

	d.Rows = make([]pages.ListRow, 0, len(view.Rows))
	for _, row := range view.Rows {
		d.Rows = append(d.Rows, pages.ListRow{
			Row:        row,
			Tag:        widgets.NewTagSelector(paramTag, model.StatusTags, model.Deref(row.StatusTag)),
			DeleteLink: returnTo + sep + paramDelete + "=" + url.QueryEscape(row.ID),
			Pending:    flow.Pending(row.ID),
		})
	}

	if decorate != nil {
		decorate(&d)
	}
	render(w, r, h.logger, status, pages.List(d))
}
