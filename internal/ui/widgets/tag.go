// Пакет widgets — модели элементов форм: выбор etiqueta и выбор
// зданий с поиском и созданием на месте.
package widgets

import (
	"strings"

	"github.com/bigkaa/expedientes/internal/domain/textnorm"
)

// CSS-классы бейджей etiqueta.
const (
	BadgePending  = "badge-pendiente"
	BadgeProgress = "badge-tramite"
	BadgeFinished = "badge-finalizado"
	BadgeNeutral  = "badge-neutral"
)

// BadgeClass выбирает стиль бейджа по подстроке нормализованного значения.
func BadgeClass(value string) string {
	v := textnorm.Normalize(value)
	switch {
	case v == "":
		return BadgeNeutral
	case strings.Contains(v, "PENDIENTE"):
		return BadgePending
	case strings.Contains(v, "TRAMITE"):
		return BadgeProgress
	case strings.Contains(v, "FINALIZO"):
		return BadgeFinished
	default:
		return BadgeNeutral
	}
}

// TagOption — вариант в выпадающем списке.
type TagOption struct {
	Value    string
	Class    string
	Selected bool
}

// TagSelector — выбор одного значения из фиксированного списка.
// Пустое значение снимает etiqueta.
type TagSelector struct {
	// Name — имя поля формы
	Name    string
	Current string
	Options []TagOption
}

// NewTagSelector строит селектор; первым идёт пустой вариант.
func NewTagSelector(name string, values []string, current string) TagSelector {
	opts := make([]TagOption, 0, len(values)+1)
	opts = append(opts, TagOption{Value: "", Class: BadgeNeutral, Selected: current == ""})
	for _, v := range values {
		opts = append(opts, TagOption{Value: v, Class: BadgeClass(v), Selected: v == current})
	}
	return TagSelector{Name: name, Current: current, Options: opts}
}

// CurrentClass — стиль бейджа текущего значения.
func (s TagSelector) CurrentClass() string {
	return BadgeClass(s.Current)
}
