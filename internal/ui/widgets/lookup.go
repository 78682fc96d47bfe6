package widgets

import (
	"sort"
	"strings"

	"github.com/bigkaa/expedientes/internal/domain/catalog"
	"github.com/bigkaa/expedientes/internal/domain/model"
)

// LookupOption — вариант выбора здания.
type LookupOption struct {
	ID       string
	Name     string
	Selected bool
}

// LookupSelector — множественный выбор зданий: фильтр по подстроке,
// переключение выбора и создание нового здания, когда совпадений нет.
type LookupSelector struct {
	// Name — имя поля формы с выбранными ID
	Name        string
	Query       string
	AllowCreate bool
	options     []model.Building
	selected    map[string]struct{}
}

// NewLookupSelector создаёт селектор над активными зданиями.
func NewLookupSelector(name string, options []model.Building, selectedIDs []string, query string) *LookupSelector {
	opts := make([]model.Building, 0, len(options))
	for _, b := range options {
		if b.Active {
			opts = append(opts, b)
		}
	}
	catalog.SortByName(opts)

	sel := make(map[string]struct{}, len(selectedIDs))
	for _, id := range selectedIDs {
		if id = strings.TrimSpace(id); id != "" {
			sel[id] = struct{}{}
		}
	}
	return &LookupSelector{
		Name:        name,
		Query:       query,
		AllowCreate: true,
		options:     opts,
		selected:    sel,
	}
}

// Filtered возвращает варианты, имя которых содержит запрос
// (без учёта регистра). Выбранные показываются всегда.
func (s *LookupSelector) Filtered() []LookupOption {
	q := strings.ToLower(strings.TrimSpace(s.Query))
	out := make([]LookupOption, 0, len(s.options))
	for _, b := range s.options {
		_, sel := s.selected[b.ID]
		if !sel && q != "" && !strings.Contains(strings.ToLower(b.Name), q) {
			continue
		}
		out = append(out, LookupOption{ID: b.ID, Name: b.Name, Selected: sel})
	}
	return out
}

// Toggle меняет выбор здания id.
func (s *LookupSelector) Toggle(id string) {
	if _, ok := s.selected[id]; ok {
		delete(s.selected, id)
		return
	}
	s.selected[id] = struct{}{}
}

// IsSelected сообщает, выбрано ли здание id.
func (s *LookupSelector) IsSelected(id string) bool {
	_, ok := s.selected[id]
	return ok
}

// SelectedIDs — выбранные ID в порядке сортировки.
func (s *LookupSelector) SelectedIDs() []string {
	ids := make([]string, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SelectedNames — имена выбранных зданий по алфавиту.
func (s *LookupSelector) SelectedNames() []string {
	var names []string
	for _, b := range s.options {
		if s.IsSelected(b.ID) {
			names = append(names, b.Name)
		}
	}
	return names
}

// CanCreate разрешает создание, если запрос непустой и среди активных
// нет здания с тем же нормализованным именем.
func (s *LookupSelector) CanCreate() bool {
	if !s.AllowCreate || strings.TrimSpace(s.Query) == "" {
		return false
	}
	return catalog.FindActiveDuplicate(s.options, s.Query, "") == nil
}

// AddCreated вставляет новое здание по имени, выбирает его
// и очищает запрос.
func (s *LookupSelector) AddCreated(b model.Building) {
	s.options = catalog.InsertSorted(s.options, b)
	s.selected[b.ID] = struct{}{}
	s.Query = ""
}
