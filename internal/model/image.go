package model

import "time"

// Image — метаданные загруженного изображения. Сами байты лежат в images.Store.
type Image struct {
	Key    string `gorm:"primaryKey"`
	UserID int64  `gorm:"not null;index"`

	URL         string `gorm:"not null"`
	ContentType string
	Size        int64

	CreatedAt time.Time `gorm:"autoCreateTime"`
}
