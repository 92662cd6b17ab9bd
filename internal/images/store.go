package images

import (
	"context"
	"strings"

	"github.com/oklog/ulid/v2"
)

// ContentTypeJPEG — тип всех сохраняемых изображений.
const ContentTypeJPEG = "image/jpeg"

// Store сохраняет байты изображения и возвращает URL для imageRef.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// NewKey строит ключ объекта shoes/{owner}/{ulid}.jpg. ULID сортируется по времени.
func NewKey(owner string) string {
	return "shoes/" + owner + "/" + ulid.Make().String() + ".jpg"
}

func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}
