package model

import "time"

// HistoryEntry — gestión, запись истории expediente.
// Хранится в таблице history_entries, только добавляется.
type HistoryEntry struct {
	// ID — UUID записи
	ID string
	// CaseFileID — expediente-владелец
	CaseFileID string
	// Date — дата gestión, выбранная пользователем
	Date *time.Time
	// Description — текст "última gestión" (nil — не задан)
	Description *string
	// SentTo — "se giró a" (опционально)
	SentTo *string
	// CurrentDepartment — текущая dependencia (опционально)
	CurrentDepartment *string
	// LastModifiedBy — email автора
	LastModifiedBy *string
	// CreatedAt — время вставки, определяет "последнюю" gestión
	CreatedAt time.Time
}
