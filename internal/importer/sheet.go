// Пакет importer — перенос expedientes из рабочей книги Excel:
// один лист — один expediente с блоком истории gestiones.
package importer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/bigkaa/expedientes/internal/domain/model"
	"github.com/bigkaa/expedientes/internal/domain/textnorm"
)

// Пределы сканирования листа.
const (
	headerScanRows   = 20
	headerScanCols   = 24
	mainRowScan      = 14
	registroScanRows = 119
	registroScanCols = 11
	historyHeaderGap = 12
	historyMaxRows   = 399
	historyBlankStop = 5
	maxCodeLength    = 30
)

// skippedSheets — служебные листы книги.
var skippedSheets = map[string]bool{
	"INGRESO":  true,
	"PLANILLA": true,
	"1":        true,
	"Hoja 3":   true,
	"Hoja 4":   true,
}

var nonDigits = regexp.MustCompile(`\D`)

// Record — expediente, прочитанный с одного листа.
type Record struct {
	Sheet             string
	ExpteCode         string
	Year              *int
	Building          *string
	Caption           *string
	IntakeDate        *time.Time
	LastAction        *string
	SentTo            *string
	ProcedureType     *string
	StatusTag         *string
	Resolution        *string
	CurrentDepartment *string
	History           []HistoryRow
	// Warnings — значения, отброшенные при чтении
	Warnings []string
}

// HistoryRow — строка блока REGISTRO.
type HistoryRow struct {
	Date              *time.Time
	Description       *string
	SentTo            *string
	CurrentDepartment *string
}

// grid — значения листа, адресуемые с 1.
type grid [][]string

// cell возвращает значение со схлопнутыми пробелами или nil для пустой ячейки.
func (g grid) cell(row, col int) *string {
	if row < 1 || row > len(g) || col < 1 || col > len(g[row-1]) {
		return nil
	}
	v := strings.Join(strings.Fields(g[row-1][col-1]), " ")
	if v == "" {
		return nil
	}
	return &v
}

// rowValues — значения строки в колонках 1..cols.
func (g grid) rowValues(row, cols int) []*string {
	out := make([]*string, cols)
	for c := 1; c <= cols; c++ {
		out[c-1] = g.cell(row, c)
	}
	return out
}

// IsSkipped сообщает, что лист служебный и не содержит expediente.
func IsSkipped(sheet string) bool {
	return skippedSheets[sheet]
}

// ParseSheet читает expediente с листа. Лист без заголовка основной
// таблицы даёт запись только с номером и историей.
func ParseSheet(sheet string, rows [][]string) Record {
	g := grid(rows)
	rec := Record{Sheet: sheet}

	mainRow, cols := 0, map[string]int(nil)
	if hr, header := findHeaderRow(g); hr > 0 {
		cols = mainColumns(header)
		if yc, ok := cols["anio"]; ok {
			for r := hr + 1; r <= hr+mainRowScan; r++ {
				if g.cell(r, yc) != nil {
					mainRow = r
					break
				}
			}
		}
	}

	var codeCell *string
	if mainRow > 0 {
		if c, ok := cols["expte"]; ok {
			codeCell = g.cell(mainRow, c)
		}
	}
	rec.ExpteCode = expteCode(sheet, codeCell)

	if mainRow > 0 {
		get := func(field string) *string {
			if c, ok := cols[field]; ok {
				return g.cell(mainRow, c)
			}
			return nil
		}
		rec.Year = parseYear(get("anio"))
		rec.Building = get("edificio")
		rec.Caption = get("caratula")
		rec.IntakeDate = parseDate(get("fecha_ingreso"))
		rec.LastAction = get("ultima_gestion")
		rec.SentTo = get("se_giro_a")
		rec.Resolution = get("resolucion")
		rec.CurrentDepartment = get("dependencia_actual")

		if v := get("tipo_tramite"); v != nil {
			if model.IsValidProcedureType(*v) {
				p := strings.ToUpper(strings.TrimSpace(*v))
				rec.ProcedureType = &p
			} else {
				rec.Warnings = append(rec.Warnings, "tipo de trámite desconocido: "+*v)
			}
		}
		if v := get("etiqueta"); v != nil {
			if tag, ok := matchStatusTag(*v); ok {
				rec.StatusTag = &tag
			} else {
				rec.Warnings = append(rec.Warnings, "etiqueta desconocida: "+*v)
			}
		}
	}

	rec.History = parseHistory(g)
	return rec
}

// findHeaderRow ищет строку заголовка основной таблицы: номер expediente
// и год в одной строке.
func findHeaderRow(g grid) (int, []*string) {
	for r := 1; r <= headerScanRows; r++ {
		row := g.rowValues(r, headerScanCols)
		var parts []string
		hasYear := false
		for _, v := range row {
			if v == nil {
				continue
			}
			parts = append(parts, *v)
			if strings.HasPrefix(strings.ToLower(*v), "año") {
				hasYear = true
			}
		}
		joined := strings.Join(parts, "|")
		hasCode := strings.Contains(joined, "Exp.") || strings.Contains(joined, "EXPTE") ||
			strings.Contains(joined, "Expte")
		if hasCode && (hasYear || strings.Contains(joined, "AÑO")) {
			return r, row
		}
	}
	return 0, nil
}

// mainColumns сопоставляет колонки основной таблицы по тексту заголовка.
func mainColumns(header []*string) map[string]int {
	m := make(map[string]int)
	for i, val := range header {
		if val == nil {
			continue
		}
		v := strings.ToLower(*val)
		n := textnorm.Normalize(*val)
		col := i + 1
		switch {
		case strings.HasPrefix(v, "exp") || strings.Contains(v, "expte"):
			m["expte"] = col
		case strings.HasPrefix(v, "año") || v == "anio":
			m["anio"] = col
		case strings.Contains(v, "edificio"):
			m["edificio"] = col
		case strings.Contains(n, "CARATULA") || strings.Contains(v, "referencia"):
			m["caratula"] = col
		case strings.Contains(v, "fecha de ingreso"):
			m["fecha_ingreso"] = col
		case strings.Contains(n, "ULTIMA GESTION"):
			m["ultima_gestion"] = col
		case strings.Contains(n, "SE GIRO A"):
			m["se_giro_a"] = col
		case strings.Contains(v, "tipo") && strings.Contains(n, "TRAMITE"):
			m["tipo_tramite"] = col
		case v == "fecha":
			m["fecha"] = col
		case strings.Contains(v, "etiqueta"):
			m["etiqueta"] = col
		case strings.Contains(v, "resol"):
			m["resolucion"] = col
		case strings.Contains(v, "dependencia") && strings.Contains(v, "actual"):
			m["dependencia_actual"] = col
		}
	}
	return m
}

// parseHistory читает блок REGISTRO: таблицу FECHA / ÚLTIMA GESTIÓN /
// SE GIRÓ A / DEPENDENCIA ACTUAL до пяти пустых строк подряд.
func parseHistory(g grid) []HistoryRow {
	regRow := 0
	for r := 1; r <= registroScanRows && regRow == 0; r++ {
		for c := 1; c <= registroScanCols; c++ {
			if v := g.cell(r, c); v != nil && strings.Contains(strings.ToUpper(*v), "REGISTRO") {
				regRow = r
				break
			}
		}
	}
	if regRow == 0 {
		return nil
	}

	headerRow := 0
	var header []*string
	for r := regRow; r < regRow+historyHeaderGap && headerRow == 0; r++ {
		row := g.rowValues(r, headerScanCols)
		for _, v := range row {
			if v != nil && strings.ToUpper(*v) == "FECHA" {
				headerRow, header = r, row
				break
			}
		}
	}
	if headerRow == 0 {
		return nil
	}

	dateCol, descCol, sentCol, deptCol := 1, 2, 0, 0
	for i, val := range header {
		if val == nil {
			continue
		}
		v := strings.ToLower(*val)
		n := textnorm.Normalize(*val)
		switch {
		case v == "fecha":
			dateCol = i + 1
		case strings.Contains(n, "ULTIMA GESTION"):
			descCol = i + 1
		case strings.Contains(n, "SE GIRO A"):
			sentCol = i + 1
		case strings.Contains(v, "dependencia") && strings.Contains(v, "actual"):
			deptCol = i + 1
		}
	}

	var out []HistoryRow
	blank := 0
	for r := headerRow + 1; r <= headerRow+historyMaxRows; r++ {
		date := g.cell(r, dateCol)
		desc := g.cell(r, descCol)
		if date == nil && desc == nil {
			blank++
			if blank >= historyBlankStop {
				break
			}
			continue
		}
		blank = 0

		row := HistoryRow{Date: parseDate(date), Description: desc}
		if sentCol > 0 {
			row.SentTo = g.cell(r, sentCol)
		}
		if deptCol > 0 {
			row.CurrentDepartment = g.cell(r, deptCol)
		}
		out = append(out, row)
	}
	return out
}

// isNoNumber — отметка "sin número".
func isNoNumber(s string) bool {
	switch strings.ToUpper(s) {
	case "S/N", "SN", "S. N.":
		return true
	}
	return false
}

// validCode проверяет значение ячейки номера expediente.
func validCode(v *string) bool {
	if v == nil {
		return false
	}
	if f, err := strconv.ParseFloat(*v, 64); err == nil {
		return f < 1e9 && f != 0
	}
	s := strings.TrimSpace(*v)
	if len(s) > maxCodeLength {
		return false
	}
	return isNoNumber(s) || nonDigits.ReplaceAllString(s, "") != ""
}

// expteCode выводит номер expediente из ячейки или из цифр имени листа.
func expteCode(sheet string, v *string) string {
	sheetDigits := nonDigits.ReplaceAllString(sheet, "")
	fallback := sheetDigits
	if fallback == "" {
		fallback = strings.TrimSpace(sheet)
	}
	if !validCode(v) {
		return fallback
	}
	if f, err := strconv.ParseFloat(*v, 64); err == nil {
		return strconv.FormatInt(int64(f), 10)
	}
	s := strings.TrimSpace(*v)
	if isNoNumber(s) {
		if sheetDigits != "" {
			return sheetDigits
		}
		return "SN"
	}
	if d := nonDigits.ReplaceAllString(s, ""); d != "" {
		return d
	}
	return fallback
}

// parseYear принимает "2023" и "2023.0".
func parseYear(v *string) *int {
	if v == nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(*v), 64)
	if err != nil || f != math.Trunc(f) || f < 1 || f > 9999 {
		return nil
	}
	y := int(f)
	return &y
}

// dateLayouts — текстовые форматы дат книги (день перед месяцем).
var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02/01/06",
	"2/1/06",
	"02-01-2006",
	"02.01.2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// parseDate разбирает серийный номер Excel или текстовую дату.
// Нераспознанное значение даёт nil.
func parseDate(v *string) *time.Time {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if f < 1 || f > 2958465 {
			return nil
		}
		t, err := excelize.ExcelDateToTime(f, false)
		if err != nil {
			return nil
		}
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return &d
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}

// matchStatusTag сопоставляет текст с etiqueta без учёта регистра и акцентов.
func matchStatusTag(v string) (string, bool) {
	for _, tag := range model.StatusTags {
		if textnorm.Equal(tag, v) {
			return tag, true
		}
	}
	return "", false
}
