package importer

import (
	"testing"
	"time"

	"github.com/bigkaa/expedientes/internal/domain/model"
)

func strPtr(s string) *string { return &s }

// sampleSheet — лист с основной таблицей и блоком REGISTRO.
func sampleSheet() [][]string {
	return [][]string{
		{"PLANILLA DE SEGUIMIENTO"},
		{},
		{"Expte.", "AÑO", "EDIFICIO", "CARÁTULA", "FECHA DE INGRESO", "Tipo de tramite", "ETIQUETA", "RESOLUCIÓN", "DEPENDENCIA ACTUAL"},
		{},
		{"  4521 / 23 ", "2023.0", "Escuela   N° 5", "Reparación  de techos", "15/03/2023", "cd", "pendiente resolver", "Res. 12", "Mesa de Entradas"},
		{},
		{"REGISTRO HISTÓRICO"},
		{"FECHA", "ÚLTIMA GESTIÓN", "SE GIRÓ A", "DEPENDENCIA ACTUAL"},
		{"45000", "Ingreso", "", "Mesa de Entradas"},
		{"no es fecha", "Pase a Legales", "Legales", "Legales"},
		{"", "", "solo destino"},
		{"01/06/2023", "Dictamen"},
	}
}

func TestParseSheet_MainRow(t *testing.T) {
	rec := ParseSheet("4521", sampleSheet())

	if rec.ExpteCode != "452123" {
		t.Errorf("ExpteCode = %q, ожидается 452123", rec.ExpteCode)
	}
	if rec.Year == nil || *rec.Year != 2023 {
		t.Errorf("Year = %v, ожидается 2023", rec.Year)
	}
	if model.Deref(rec.Building) != "Escuela N° 5" {
		t.Errorf("Building = %q, пробелы должны схлопываться", model.Deref(rec.Building))
	}
	if model.Deref(rec.Caption) != "Reparación de techos" {
		t.Errorf("Caption = %q", model.Deref(rec.Caption))
	}
	if rec.IntakeDate == nil || !rec.IntakeDate.Equal(time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("IntakeDate = %v, ожидается 2023-03-15", rec.IntakeDate)
	}
	if model.Deref(rec.ProcedureType) != model.ProcedureCD {
		t.Errorf("ProcedureType = %q, ожидается CD", model.Deref(rec.ProcedureType))
	}
	if model.Deref(rec.StatusTag) != model.StatusPending {
		t.Errorf("StatusTag = %q, ожидается %q", model.Deref(rec.StatusTag), model.StatusPending)
	}
	if model.Deref(rec.CurrentDepartment) != "Mesa de Entradas" {
		t.Errorf("CurrentDepartment = %q", model.Deref(rec.CurrentDepartment))
	}
	if len(rec.Warnings) != 0 {
		t.Errorf("Warnings = %v, ожидается пусто", rec.Warnings)
	}
}

func TestParseSheet_History(t *testing.T) {
	rec := ParseSheet("4521", sampleSheet())

	if len(rec.History) != 3 {
		t.Fatalf("History = %d строк, ожидается 3: %+v", len(rec.History), rec.History)
	}
	first := rec.History[0]
	if first.Date == nil || first.Date.Format("2006-01-02") != "2023-03-15" {
		t.Errorf("дата из серийного номера = %v, ожидается 2023-03-15", first.Date)
	}
	if first.SentTo != nil {
		t.Errorf("SentTo = %q, ожидается nil", *first.SentTo)
	}
	if rec.History[1].Date != nil {
		t.Errorf("нераспознанная дата должна стать nil, получено %v", rec.History[1].Date)
	}
	if model.Deref(rec.History[1].SentTo) != "Legales" {
		t.Errorf("SentTo = %q", model.Deref(rec.History[1].SentTo))
	}
	if model.Deref(rec.History[2].Description) != "Dictamen" {
		t.Errorf("Description = %q", model.Deref(rec.History[2].Description))
	}
}

func TestParseSheet_HistoryStopsAfterBlankRows(t *testing.T) {
	rows := [][]string{
		{"REGISTRO"},
		{"FECHA", "ÚLTIMA GESTIÓN"},
		{"01/02/2024", "Uno"},
		{}, {}, {}, {}, {},
		{"01/03/2024", "Después del corte"},
	}
	rec := ParseSheet("77", rows)

	if len(rec.History) != 1 {
		t.Errorf("History = %d, ожидается 1 (остановка после 5 пустых строк)", len(rec.History))
	}
	if rec.ExpteCode != "77" {
		t.Errorf("ExpteCode = %q, ожидается цифры листа", rec.ExpteCode)
	}
	if rec.Year != nil || rec.Caption != nil {
		t.Error("лист без заголовка не должен давать полей expediente")
	}
}

func TestParseSheet_HistoryWithoutDescription(t *testing.T) {
	rows := [][]string{
		{"REGISTRO"},
		{"FECHA", "ÚLTIMA GESTIÓN", "SE GIRÓ A"},
		{"01/02/2024", "", "Legales"},
	}
	rec := ParseSheet("77", rows)

	if len(rec.History) != 1 {
		t.Fatalf("History = %d, ожидается 1", len(rec.History))
	}
	if rec.History[0].Description != nil {
		t.Errorf("пустая gestión должна остаться NULL, получено %q", *rec.History[0].Description)
	}
}

func TestParseSheet_UnknownValuesWarn(t *testing.T) {
	rows := [][]string{
		{"EXPTE", "AÑO", "TIPO DE TRÁMITE", "ETIQUETA"},
		{"12", "2024", "licitación", "ARCHIVADO"},
	}
	rec := ParseSheet("Hoja12", rows)

	if rec.ProcedureType != nil || rec.StatusTag != nil {
		t.Errorf("неизвестные значения должны отбрасываться: %v %v", rec.ProcedureType, rec.StatusTag)
	}
	if len(rec.Warnings) != 2 {
		t.Errorf("Warnings = %v, ожидается 2", rec.Warnings)
	}
}

func TestExpteCode(t *testing.T) {
	tests := []struct {
		name  string
		sheet string
		cell  *string
		want  string
	}{
		{"число", "Hoja 9", strPtr("4521"), "4521"},
		{"число с дробью", "Hoja 9", strPtr("4521.0"), "4521"},
		{"текст с цифрами", "X", strPtr("EX-12/2023"), "122023"},
		{"S/N берёт цифры листа", "Exp 88", strPtr("S/N"), "88"},
		{"S/N без цифр", "Varios", strPtr("s/n"), "SN"},
		{"пустая ячейка", "Exp 88", nil, "88"},
		{"ноль", "Exp 88", strPtr("0"), "88"},
		{"слишком длинный", "Varios", strPtr("expediente sin numero asignado 2023"), "Varios"},
		{"текст без цифр", "Exp 5", strPtr("pendiente"), "5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := expteCode(tt.sheet, tt.cell); got != tt.want {
				t.Errorf("expteCode(%q, %v) = %q, ожидается %q", tt.sheet, tt.cell, got, tt.want)
			}
		})
	}
}

func TestParseYear(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"2023", 2023, true},
		{"2023.0", 2023, true},
		{" 2019 ", 2019, true},
		{"2023.5", 0, false},
		{"dos mil", 0, false},
	}
	for _, tt := range tests {
		got := parseYear(&tt.in)
		if (got != nil) != tt.ok || (got != nil && *got != tt.want) {
			t.Errorf("parseYear(%q) = %v, ожидается %d/%v", tt.in, got, tt.want, tt.ok)
		}
	}
	if parseYear(nil) != nil {
		t.Error("parseYear(nil) должен вернуть nil")
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"15/03/2023", "2023-03-15"},
		{"5/3/2023", "2023-03-05"},
		{"2023-03-15", "2023-03-15"},
		{"44927", "2023-01-01"},
		{"31/02/2023", ""},
		{"sin fecha", ""},
		{"-3", ""},
	}
	for _, tt := range tests {
		got := parseDate(&tt.in)
		switch {
		case tt.want == "" && got != nil:
			t.Errorf("parseDate(%q) = %v, ожидается nil", tt.in, got)
		case tt.want != "" && (got == nil || got.Format("2006-01-02") != tt.want):
			t.Errorf("parseDate(%q) = %v, ожидается %s", tt.in, got, tt.want)
		}
	}
}

func TestIsSkipped(t *testing.T) {
	for _, s := range []string{"INGRESO", "PLANILLA", "1", "Hoja 3", "Hoja 4"} {
		if !IsSkipped(s) {
			t.Errorf("IsSkipped(%q) = false, ожидается true", s)
		}
	}
	if IsSkipped("4521") {
		t.Error("IsSkipped(\"4521\") = true")
	}
}
