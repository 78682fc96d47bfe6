// Пакет model — доменные модели сервиса expedientes.
package model

import (
	"strings"
	"time"
)

// Допустимые значения etiqueta (статус expediente).
const (
	StatusInProgress = "EN TRÁMITE PARA ESTA DIRECCIÓN"
	StatusFinished   = "FINALIZÓ PARA ESTA DIRECCIÓN"
	StatusPending    = "PENDIENTE RESOLVER"
)

// StatusTags — фиксированный список etiquetas в порядке отображения.
var StatusTags = []string{StatusInProgress, StatusFinished, StatusPending}

// Виды trámite.
const (
	ProcedurePE    = "PE"
	ProcedureCD    = "CD"
	ProcedureLP    = "LP"
	ProcedureOther = "OTROS"
)

// ProcedureTypes — фиксированный список видов trámite.
var ProcedureTypes = []string{ProcedurePE, ProcedureCD, ProcedureLP, ProcedureOther}

// IsValidStatusTag проверяет, входит ли значение в перечисление etiquetas.
func IsValidStatusTag(tag string) bool {
	for _, t := range StatusTags {
		if t == tag {
			return true
		}
	}
	return false
}

// IsValidProcedureType проверяет вид trámite (без учёта регистра и пробелов).
func IsValidProcedureType(p string) bool {
	p = strings.ToUpper(strings.TrimSpace(p))
	for _, t := range ProcedureTypes {
		if t == p {
			return true
		}
	}
	return false
}

// DateLayout — формат календарных дат в экранах и печатных формах.
const DateLayout = "02/01/2006"

// FormatDate форматирует календарную дату как dd/mm/yyyy, nil — пустая строка.
func FormatDate(d *time.Time) string {
	if d == nil {
		return ""
	}
	return d.Format(DateLayout)
}

// Deref возвращает значение строки или пустую строку для nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// NilIfBlank возвращает nil для пустой (после trim) строки, иначе указатель
// на обрезанное значение.
func NilIfBlank(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
