// Пакет pages — страницы веб-интерфейса. Шаблоны html/template встроены
// в бинарник и отдаются как templ.Component.
package pages

import (
	"embed"
	"html/template"
	"strconv"

	"github.com/a-h/templ"

	"github.com/bigkaa/expedientes/internal/domain/catalog"
	"github.com/bigkaa/expedientes/internal/domain/detail"
	"github.com/bigkaa/expedientes/internal/domain/listing"
	"github.com/bigkaa/expedientes/internal/domain/model"
	"github.com/bigkaa/expedientes/internal/service"
	"github.com/bigkaa/expedientes/internal/ui/i18n"
	"github.com/bigkaa/expedientes/internal/ui/widgets"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"t":     i18n.Translate,
	"tf":    i18n.Translatef,
	"date":  model.FormatDate,
	"deref": model.Deref,
	"year": func(y *int) string {
		if y == nil {
			return ""
		}
		return strconv.Itoa(*y)
	},
}

var (
	loginTmpl       = parse("layout.html", "login.html")
	listTmpl        = parse("layout.html", "list.html")
	detailTmpl      = parse("layout.html", "detail.html")
	newTmpl         = parse("layout.html", "new.html")
	buildingsTmpl   = parse("layout.html", "buildings.html")
	settingsTmpl    = parse("layout.html", "settings.html")
	notFoundTmpl    = parse("layout.html", "notfound.html")
	printListTmpl   = parse("print.html", "print_list.html")
	printDetailTmpl = parse("print.html", "print_detail.html")
)

// parse собирает страницу: первый файл — каркас, остальные определяют
// блок "content".
func parse(files ...string) *template.Template {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, "templates/"+f)
	}
	return template.Must(template.New(files[0]).Funcs(funcs).ParseFS(templateFS, paths...))
}

// Base — общие данные каркаса страницы.
type Base struct {
	Lang string
	// User — отображаемое имя; пусто на странице входа
	User string
	// Nav — активный пункт меню: list, new, settings
	Nav   string
	Flash string
	Error string
}

// --- Вход ---

// LoginData — данные страницы входа.
type LoginData struct {
	Base
	Email string
}

// Login — страница входа.
func Login(d LoginData) templ.Component { return templ.FromGoHTML(loginTmpl, d) }

// --- Список ---

// ListRow — строка таблицы списка.
type ListRow struct {
	listing.Row
	Tag        widgets.TagSelector
	DeleteLink string
	// Pending — удаление ожидает подтверждения
	Pending bool
	// Error — ошибка правки etiqueta этой строки
	Error string
}

// ListData — данные экрана списка.
type ListData struct {
	Base
	View            listing.View
	Filter          listing.Filter
	Rows            []ListRow
	Tags            []string
	Procedures      []string
	IncludeInactive bool
	// ReturnTo — адрес текущего состояния списка
	ReturnTo   string
	PrevLink   string
	NextLink   string
	PrintLink  string
	CancelLink string
}

// List — экран списка expedientes.
func List(d ListData) templ.Component { return templ.FromGoHTML(listTmpl, d) }

// PrintListData — печатная форма текущей страницы списка.
type PrintListData struct {
	Lang    string
	Title   string
	Printed string
	Window  listing.Window
	Rows    []listing.Row
}

// PrintList — печатная форма списка.
func PrintList(d PrintListData) templ.Component { return templ.FromGoHTML(printListTmpl, d) }

// --- Карточка ---

// DetailData — данные экрана expediente.
type DetailData struct {
	Base
	View          detail.View
	BuildingLabel string
	Buildings     *widgets.LookupSelector
	Tag           widgets.TagSelector
	Procedures    []string
	// Errors — ошибки по полям: edificios, tramite, etiqueta, resolucion, gestion
	Errors       map[string]string
	HistoryInput detail.HistoryInput
}

// Detail — экран expediente.
func Detail(d DetailData) templ.Component { return templ.FromGoHTML(detailTmpl, d) }

// PrintDetailData — печатная форма expediente с полной историей.
type PrintDetailData struct {
	Lang          string
	Title         string
	Printed       string
	View          detail.View
	BuildingLabel string
}

// PrintDetail — печатная форма expediente.
func PrintDetail(d PrintDetailData) templ.Component {
	return templ.FromGoHTML(printDetailTmpl, d)
}

// --- Новый expediente ---

// NewData — данные формы нового expediente.
type NewData struct {
	Base
	Input      service.NewCaseFileInput
	Selector   *widgets.LookupSelector
	Tags       []string
	Procedures []string
	Errors     map[string]string
	// CreatedID — expediente сохранён без связей со зданиями
	CreatedID string
}

// New — форма нового expediente.
func New(d NewData) templ.Component { return templ.FromGoHTML(newTmpl, d) }

// --- Здания ---

// BuildingRow — строка справочника зданий.
type BuildingRow struct {
	model.Building
	EditLink string
}

// BuildingsData — данные экрана справочника.
type BuildingsData struct {
	Base
	Rows            []BuildingRow
	Counts          catalog.Counts
	Query           string
	IncludeInactive bool
	NewName         string
	EditID          string
	EditName        string
	ReturnTo        string
	// Errors — ключ "nuevo" или ID здания
	Errors map[string]string
}

// Buildings — экран справочника зданий.
func Buildings(d BuildingsData) templ.Component { return templ.FromGoHTML(buildingsTmpl, d) }

// --- Прочее ---

// Settings — экран настроек.
func Settings(b Base) templ.Component { return templ.FromGoHTML(settingsTmpl, b) }

// NotFound — терминальное состояние «не найдено».
func NotFound(b Base) templ.Component { return templ.FromGoHTML(notFoundTmpl, b) }
