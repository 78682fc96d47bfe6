// Пакет catalog — правила справочника зданий: поиск дубликата среди
// активных, фильтр экрана администрирования, счётчики и вставка в
// отсортированный список.
package catalog

import (
	"sort"

	"github.com/bigkaa/expedientes/internal/domain/model"
	"github.com/bigkaa/expedientes/internal/domain/textnorm"
)

// FindActiveDuplicate ищет активное здание с тем же нормализованным именем.
// Строка excludeID (редактируемая) не учитывается. nil — дубликата нет.
func FindActiveDuplicate(rows []model.Building, name, excludeID string) *model.Building {
	n := textnorm.Normalize(name)
	if n == "" {
		return nil
	}
	for i := range rows {
		b := &rows[i]
		if !b.Active || b.ID == excludeID {
			continue
		}
		if textnorm.Normalize(b.Name) == n {
			return b
		}
	}
	return nil
}

// Filter отбирает здания для таблицы администрирования: нормализованная
// подстрока имени, неактивные — только при includeInactive.
func Filter(rows []model.Building, query string, includeInactive bool) []model.Building {
	out := make([]model.Building, 0, len(rows))
	for _, b := range rows {
		if !includeInactive && !b.Active {
			continue
		}
		if !textnorm.Contains(b.Name, query) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Counts — сводка справочника.
type Counts struct {
	Total    int
	Active   int
	Inactive int
}

// Count считает здания по всему загруженному набору (не по фильтру).
func Count(rows []model.Building) Counts {
	c := Counts{Total: len(rows)}
	for _, b := range rows {
		if b.Active {
			c.Active++
		} else {
			c.Inactive++
		}
	}
	return c
}

// SortByName сортирует здания по имени (затем по ID).
func SortByName(rows []model.Building) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Name != rows[j].Name {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].ID < rows[j].ID
	})
}

// InsertSorted возвращает новый срез с b на позиции по имени.
func InsertSorted(rows []model.Building, b model.Building) []model.Building {
	i := sort.Search(len(rows), func(i int) bool {
		if rows[i].Name != b.Name {
			return rows[i].Name > b.Name
		}
		return rows[i].ID > b.ID
	})
	out := make([]model.Building, 0, len(rows)+1)
	out = append(out, rows[:i]...)
	out = append(out, b)
	return append(out, rows[i:]...)
}
