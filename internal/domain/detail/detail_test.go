package detail

import (
	"errors"
	"testing"
	"time"

	"github.com/bigkaa/expedientes/internal/domain/model"
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestBuild_HistoryOrderingDiverges(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	// Февральская gestión вставлена первой, январская — позже
	feb := model.HistoryEntry{ID: "a", Date: day(2024, 2, 1), Description: strPtr("feb"), CreatedAt: base}
	jan := model.HistoryEntry{ID: "b", Date: day(2024, 1, 1), Description: strPtr("jan"), CreatedAt: base.Add(time.Minute)}

	cf := model.CaseFile{ID: "cf", LastAction: strPtr("X")}
	v := Build(cf, []model.HistoryEntry{jan, feb})

	if len(v.History) != 2 || v.History[0].ID != "a" || v.History[1].ID != "b" {
		t.Fatalf("порядок истории = [%s %s], ожидается [a b]", v.History[0].ID, v.History[1].ID)
	}
	if v.Latest == nil || v.Latest.ID != "b" {
		t.Fatalf("Latest = %+v, ожидается b", v.Latest)
	}
	if v.Shown.LastAction != "jan" {
		t.Errorf("Shown.LastAction = %q, ожидается jan", v.Shown.LastAction)
	}
}

func TestBuild_NoHistoryUsesShadowFields(t *testing.T) {
	cf := model.CaseFile{
		LastAction:        strPtr("X"),
		SentTo:            strPtr("Legal"),
		CurrentDepartment: strPtr("Obras"),
		Resolution:        strPtr("RES-1"),
	}
	v := Build(cf, nil)
	if v.Latest != nil {
		t.Error("Latest должен быть nil без истории")
	}
	if v.Shown.LastAction != "X" || v.Shown.SentTo != "Legal" || v.Shown.CurrentDepartment != "Obras" {
		t.Errorf("Shown = %+v", v.Shown)
	}
	if v.Resolution.Dirty() {
		t.Error("новый черновик не должен быть изменён")
	}
}

func TestSortHistory_TieBreakAndNilDates(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := []model.HistoryEntry{
		{ID: "nil", CreatedAt: t0.Add(time.Hour)},
		{ID: "old", Date: day(2024, 3, 1), CreatedAt: t0},
		{ID: "new", Date: day(2024, 3, 1), CreatedAt: t0.Add(time.Minute)},
	}
	SortHistory(entries)
	got := []string{entries[0].ID, entries[1].ID, entries[2].ID}
	want := []string{"new", "old", "nil"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SortHistory = %v, ожидается %v", got, want)
		}
	}
}

func TestLatestByInsertion_TieBreakByID(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := []model.HistoryEntry{
		{ID: "1", CreatedAt: t0},
		{ID: "3", CreatedAt: t0},
		{ID: "2", CreatedAt: t0},
	}
	if got := LatestByInsertion(entries); got == nil || got.ID != "3" {
		t.Errorf("LatestByInsertion = %+v, ожидается 3", got)
	}
	if LatestByInsertion(nil) != nil {
		t.Error("LatestByInsertion(nil) должен вернуть nil")
	}
}

func TestResolutionDraft(t *testing.T) {
	d := NewResolutionDraft("A")
	if d.Dirty() {
		t.Error("черновик равен сохранённому — не должен быть изменён")
	}

	d = d.Edit("B")
	if !d.Dirty() {
		t.Error("черновик отличается — должен быть изменён")
	}

	// После сохранения экран перечитывает expediente
	d = NewResolutionDraft(d.Draft)
	if d.Dirty() {
		t.Error("после сохранения флаг должен сброситься")
	}
	if d.Persisted != "B" {
		t.Errorf("Persisted = %q, ожидается B", d.Persisted)
	}

	if d = d.Edit("A").Edit("B"); d.Dirty() {
		t.Error("возврат к сохранённому тексту не должен считаться изменением")
	}
}

func TestHistoryInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		in      HistoryInput
		wantErr error
	}{
		{"без даты", HistoryInput{Description: "x"}, ErrDateRequired},
		{"кривая дата", HistoryInput{Date: "01/02/2024", Description: "x"}, ErrDateInvalid},
		{"без описания", HistoryInput{Date: "2024-02-01", Description: "   "}, ErrDescriptionRequired},
		{"ок", HistoryInput{Date: "2024-02-01", Description: " Pase a Legal "}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.in.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, ожидается %v", err, tt.wantErr)
			}
		})
	}

	e, err := HistoryInput{Date: "2024-02-01", Description: "Pase", SentTo: "  ", CurrentDepartment: " Legal "}.Validate()
	if err != nil {
		t.Fatalf("Validate() вернул ошибку: %v", err)
	}
	if e.SentTo != nil {
		t.Errorf("пустой SentTo должен стать nil, получено %q", *e.SentTo)
	}
	if e.CurrentDepartment == nil || *e.CurrentDepartment != "Legal" {
		t.Errorf("CurrentDepartment = %v, ожидается Legal", e.CurrentDepartment)
	}
	if !e.Date.Equal(*day(2024, 2, 1)) {
		t.Errorf("Date = %v", e.Date)
	}
}

func strPtr(s string) *string { return &s }
