package model

import (
	"strings"
	"time"
)

// CaseFile — expediente.
// Хранится в таблице case_files, связи со зданиями — в case_file_buildings.
type CaseFile struct {
	// ID — UUID записи
	ID string
	// ExpteCode — номер expediente, присвоенный учреждением (не уникален в БД)
	ExpteCode string
	// Year — год (опционально)
	Year *int
	// Building — устаревшее текстовое поле здания
	Building *string
	// Buildings — привязанные здания (по имени)
	Buildings []BuildingRef
	// Caption — carátula
	Caption *string
	// IntakeDate — дата поступления
	IntakeDate *time.Time
	// StatusTag — etiqueta или nil
	StatusTag *string
	// LastAction, SentTo, CurrentDepartment — теневые поля,
	// перекрываемые последней gestión
	LastAction        *string
	SentTo            *string
	CurrentDepartment *string
	// Resolution — текст resolución
	Resolution *string
	// ProcedureType — вид trámite (PE, CD, LP, OTROS)
	ProcedureType *string
	// Active — false означает мягкое удаление
	Active bool
	// LastModifiedBy — email последнего редактора
	LastModifiedBy *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BuildingRef — здание, привязанное к expediente.
type BuildingRef struct {
	ID   string
	Name string
}

// BuildingLabel возвращает отображаемое здание: имена привязанных зданий
// через " / ", либо устаревшее текстовое поле.
func (c *CaseFile) BuildingLabel() string {
	if len(c.Buildings) > 0 {
		names := make([]string, 0, len(c.Buildings))
		for _, b := range c.Buildings {
			names = append(names, b.Name)
		}
		return strings.Join(names, " / ")
	}
	return strings.TrimSpace(Deref(c.Building))
}

// BuildingIDs возвращает идентификаторы привязанных зданий.
func (c *CaseFile) BuildingIDs() []string {
	ids := make([]string, 0, len(c.Buildings))
	for _, b := range c.Buildings {
		ids = append(ids, b.ID)
	}
	return ids
}

// EffectiveFields — отображаемые значения теневых полей.
type EffectiveFields struct {
	LastAction        string
	SentTo            string
	CurrentDepartment string
	// ForwardDate — дата последней gestión (nil без истории)
	ForwardDate *time.Time
}

// Effective вычисляет отображаемые поля: значение последней gestión,
// если оно не NULL (пустая строка тоже значение), иначе теневое поле.
func (c *CaseFile) Effective(latest *HistoryEntry) EffectiveFields {
	f := EffectiveFields{
		LastAction:        Deref(c.LastAction),
		SentTo:            Deref(c.SentTo),
		CurrentDepartment: Deref(c.CurrentDepartment),
	}
	if latest == nil {
		return f
	}
	if latest.Description != nil {
		f.LastAction = *latest.Description
	}
	if latest.SentTo != nil {
		f.SentTo = *latest.SentTo
	}
	if latest.CurrentDepartment != nil {
		f.CurrentDepartment = *latest.CurrentDepartment
	}
	f.ForwardDate = latest.Date
	return f
}

// CaseFileRow — строка списка: expediente и его последняя gestión
// (по времени вставки, при равенстве — по ID).
type CaseFileRow struct {
	CaseFile
	Latest *HistoryEntry
}

// Effective — отображаемые поля строки.
func (r *CaseFileRow) Effective() EffectiveFields {
	return r.CaseFile.Effective(r.Latest)
}
