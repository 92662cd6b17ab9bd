package model

import "time"

// User — зарегистрированный пользователь сервера.
type User struct {
	ID       int64  `gorm:"primaryKey;autoIncrement"`
	Login    string `gorm:"uniqueIndex;not null"`
	Password string `gorm:"not null"` // bcrypt-хэш

	CreatedAt time.Time `gorm:"autoCreateTime"`
}
