package model

import "time"

// User — пользователь веб-интерфейса и API.
// Хранится в таблице users.
type User struct {
	// ID — UUID записи
	ID string
	// Email — логин, уникален без учёта регистра
	Email string
	// FullName — отображаемое имя
	FullName string
	// PasswordHash — bcrypt-хэш пароля
	PasswordHash string
	// Active — заблокированный пользователь не может войти
	Active    bool
	CreatedAt time.Time
}
