// Пакет detail — логика экрана expediente: порядок истории, отображаемые
// поля по последней вставленной gestión, черновик resolución и проверка
// новой gestión.
package detail

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/bigkaa/expedientes/internal/domain/model"
)

// Ошибки проверки новой gestión (текст показывается пользователю).
var (
	ErrDateRequired        = errors.New("Seleccioná una fecha.")
	ErrDateInvalid         = errors.New("Fecha inválida.")
	ErrDescriptionRequired = errors.New(`Completá "Última gestión".`)
)

// InputDateLayout — формат даты из <input type="date">.
const InputDateLayout = "2006-01-02"

// SortHistory упорядочивает gestiones по дате (убывание), затем по времени
// вставки (убывание). Записи без даты идут последними.
func SortHistory(entries []model.HistoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		switch {
		case a.Date != nil && b.Date == nil:
			return true
		case a.Date == nil && b.Date != nil:
			return false
		case a.Date != nil && b.Date != nil && !a.Date.Equal(*b.Date):
			return a.Date.After(*b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

// LatestByInsertion возвращает gestión с наибольшим временем вставки
// (при равенстве — с наибольшим ID), независимо от её даты.
func LatestByInsertion(entries []model.HistoryEntry) *model.HistoryEntry {
	var latest *model.HistoryEntry
	for i := range entries {
		e := &entries[i]
		if latest == nil ||
			e.CreatedAt.After(latest.CreatedAt) ||
			(e.CreatedAt.Equal(latest.CreatedAt) && e.ID > latest.ID) {
			latest = e
		}
	}
	if latest == nil {
		return nil
	}
	cp := *latest
	return &cp
}

// View — модель представления экрана expediente.
type View struct {
	CaseFile model.CaseFile
	// History — все gestiones по дате (убывание)
	History []model.HistoryEntry
	// Latest — последняя по вставке gestión (nil без истории)
	Latest *model.HistoryEntry
	// Shown — отображаемые поля по Latest
	Shown      model.EffectiveFields
	Resolution ResolutionDraft
}

// Build строит модель экрана. Список истории и отображаемые поля
// используют разные порядки и могут расходиться.
func Build(cf model.CaseFile, history []model.HistoryEntry) View {
	sorted := make([]model.HistoryEntry, len(history))
	copy(sorted, history)
	SortHistory(sorted)

	latest := LatestByInsertion(history)
	return View{
		CaseFile:   cf,
		History:    sorted,
		Latest:     latest,
		Shown:      cf.Effective(latest),
		Resolution: NewResolutionDraft(model.Deref(cf.Resolution)),
	}
}

// ResolutionDraft — локальный черновик resolución поверх сохранённого
// значения. Сохранение доступно только при Dirty.
type ResolutionDraft struct {
	Persisted string
	Draft     string
}

// NewResolutionDraft создаёт черновик, совпадающий с сохранённым значением.
func NewResolutionDraft(persisted string) ResolutionDraft {
	return ResolutionDraft{Persisted: persisted, Draft: persisted}
}

// Edit заменяет текст черновика.
func (d ResolutionDraft) Edit(text string) ResolutionDraft {
	d.Draft = text
	return d
}

// Dirty сообщает, отличается ли черновик от сохранённого значения.
func (d ResolutionDraft) Dirty() bool {
	return d.Draft != d.Persisted
}

// HistoryInput — поля формы новой gestión.
type HistoryInput struct {
	// Date — дата в формате yyyy-mm-dd
	Date              string
	Description       string
	SentTo            string
	CurrentDepartment string
}

// NewEntry — проверенная новая gestión.
type NewEntry struct {
	Date              time.Time
	Description       string
	SentTo            *string
	CurrentDepartment *string
}

// Validate проверяет обязательные дату и описание; пустые необязательные
// поля становятся nil.
func (in HistoryInput) Validate() (NewEntry, error) {
	dateStr := strings.TrimSpace(in.Date)
	if dateStr == "" {
		return NewEntry{}, ErrDateRequired
	}
	date, err := time.Parse(InputDateLayout, dateStr)
	if err != nil {
		return NewEntry{}, ErrDateInvalid
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return NewEntry{}, ErrDescriptionRequired
	}
	return NewEntry{
		Date:              date,
		Description:       desc,
		SentTo:            model.NilIfBlank(in.SentTo),
		CurrentDepartment: model.NilIfBlank(in.CurrentDepartment),
	}, nil
}
