// Пакет listing — построение списка expedientes: фильтрация, пагинация,
// сводные счётчики и двухшаговое удаление. Все функции чистые:
// (строки, фильтр, страница) → модель представления.
package listing

import (
	"sort"
	"strconv"
	"strings"

	"github.com/bigkaa/expedientes/internal/domain/model"
	"github.com/bigkaa/expedientes/internal/domain/textnorm"
)

// PageSize — фиксированный размер страницы списка.
const PageSize = 50

// Filter — состояние фильтров списка. Пустое поле не фильтрует.
type Filter struct {
	// Text — поиск по номеру, зданию, carátula и текущей dependencia
	Text string
	// Year — год, точное совпадение
	Year string
	// StatusTag — etiqueta без учёта регистра
	StatusTag string
	// ProcedureType — вид trámite без учёта регистра и краевых пробелов
	ProcedureType string
}

// IsZero сообщает, что ни один фильтр не задан.
func (f Filter) IsZero() bool {
	return strings.TrimSpace(f.Text) == "" &&
		strings.TrimSpace(f.Year) == "" &&
		f.StatusTag == "" &&
		strings.TrimSpace(f.ProcedureType) == ""
}

// matcher — фильтр с заранее нормализованными значениями.
type matcher struct {
	year      string
	tag       string
	procedure string
	query     string
}

func newMatcher(f Filter) matcher {
	return matcher{
		year:      strings.TrimSpace(f.Year),
		tag:       f.StatusTag,
		procedure: strings.TrimSpace(f.ProcedureType),
		query:     textnorm.Normalize(f.Text),
	}
}

func (m matcher) match(r *model.CaseFileRow) bool {
	if m.year != "" {
		if r.Year == nil || strconv.Itoa(*r.Year) != m.year {
			return false
		}
	}
	if m.tag != "" {
		if !strings.EqualFold(model.Deref(r.StatusTag), m.tag) {
			return false
		}
	}
	if m.procedure != "" {
		if !strings.EqualFold(strings.TrimSpace(model.Deref(r.ProcedureType)), m.procedure) {
			return false
		}
	}
	if m.query != "" {
		hay := textnorm.Normalize(strings.Join([]string{
			r.ExpteCode,
			r.BuildingLabel(),
			model.Deref(r.Caption),
			r.Effective().CurrentDepartment,
		}, " "))
		if !strings.Contains(hay, m.query) {
			return false
		}
	}
	return true
}

// Apply возвращает строки, прошедшие фильтр, в исходном порядке.
// Не совпавший фильтр даёт пустой срез, не ошибку.
func Apply(rows []model.CaseFileRow, f Filter) []model.CaseFileRow {
	m := newMatcher(f)
	out := make([]model.CaseFileRow, 0, len(rows))
	for i := range rows {
		if m.match(&rows[i]) {
			out = append(out, rows[i])
		}
	}
	return out
}

// Window — окно страницы над отфильтрованным списком.
type Window struct {
	// Page — номер страницы после ограничения, с 1
	Page int
	// PageCount — число страниц, минимум 1
	PageCount int
	// Total — число отфильтрованных строк
	Total int
	// Start, End — полуинтервал [Start, End) индексов строк страницы
	Start int
	End   int
}

// HasPrev сообщает, есть ли предыдущая страница.
func (w Window) HasPrev() bool { return w.Page > 1 }

// HasNext сообщает, есть ли следующая страница.
func (w Window) HasNext() bool { return w.Page < w.PageCount }

// Paginate вычисляет окно страницы; page ограничивается диапазоном
// [1, ceil(total/pageSize)].
func Paginate(total, page, pageSize int) Window {
	if pageSize <= 0 {
		pageSize = PageSize
	}
	if total < 0 {
		total = 0
	}
	pageCount := (total + pageSize - 1) / pageSize
	if pageCount < 1 {
		pageCount = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pageCount {
		page = pageCount
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}
	if start > end {
		start = end
	}
	return Window{Page: page, PageCount: pageCount, Total: total, Start: start, End: end}
}

// State — состояние экрана списка: фильтры и текущая страница.
type State struct {
	Filter Filter
	Page   int
}

// WithFilter применяет новый фильтр; при любом изменении фильтра
// страница сбрасывается на первую.
func (s State) WithFilter(f Filter) State {
	if f != s.Filter {
		return State{Filter: f, Page: 1}
	}
	return s
}

// WithPage переходит на страницу page (ограничение — в Paginate).
func (s State) WithPage(page int) State {
	s.Page = page
	return s
}

// Summary — сводные счётчики списка.
type Summary struct {
	// Total — все загруженные строки
	Total int
	// Filtered — строки после фильтра
	Filtered int
	// Buildings — число различных зданий в отфильтрованных строках
	Buildings int
}

// Summarize считает счётчики по всем и отфильтрованным строкам.
func Summarize(all, filtered []model.CaseFileRow) Summary {
	seen := make(map[string]struct{})
	for i := range filtered {
		label := filtered[i].BuildingLabel()
		if label == "" {
			continue
		}
		seen[label] = struct{}{}
	}
	return Summary{Total: len(all), Filtered: len(filtered), Buildings: len(seen)}
}

// Years возвращает различные годы загруженных строк по убыванию.
func Years(rows []model.CaseFileRow) []int {
	seen := make(map[int]struct{})
	var years []int
	for i := range rows {
		if rows[i].Year == nil {
			continue
		}
		y := *rows[i].Year
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

// Row — строка страницы с вычисленными отображаемыми полями.
type Row struct {
	model.CaseFileRow
	Shown         model.EffectiveFields
	BuildingLabel string
}

// View — модель представления экрана списка.
type View struct {
	State   State
	Window  Window
	Summary Summary
	Years   []int
	Rows    []Row
}

// Build строит модель представления: фильтрует строки, ограничивает
// страницу и вычисляет отображаемые поля только для видимых строк.
func Build(rows []model.CaseFileRow, s State) View {
	filtered := Apply(rows, s.Filter)
	w := Paginate(len(filtered), s.Page, PageSize)
	s.Page = w.Page

	page := filtered[w.Start:w.End]
	out := make([]Row, 0, len(page))
	for i := range page {
		out = append(out, Row{
			CaseFileRow:   page[i],
			Shown:         page[i].Effective(),
			BuildingLabel: page[i].BuildingLabel(),
		})
	}

	return View{
		State:   s,
		Window:  w,
		Summary: Summarize(rows, filtered),
		Years:   Years(rows),
		Rows:    out,
	}
}

// Remove убирает строку с идентификатором id из загруженного списка.
// Используется сразу после успешного мягкого удаления.
func Remove(rows []model.CaseFileRow, id string) []model.CaseFileRow {
	out := rows[:0:0]
	for i := range rows {
		if rows[i].ID != id {
			out = append(out, rows[i])
		}
	}
	return out
}
