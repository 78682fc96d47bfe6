package model

import "time"

// Building — edificio, справочник зданий.
// Хранится в таблице buildings; уникальность имени среди активных
// проверяется только на уровне приложения.
type Building struct {
	ID        string
	Name      string
	Active    bool
	CreatedAt time.Time
}
