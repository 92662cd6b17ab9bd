package images

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"ShoeKeeper/internal/common"
)

// LocalStore хранит изображения в каталоге и отдаёт их по BaseURL + /images/.
type LocalStore struct {
	Dir     string
	BaseURL string
}

var _ Store = (*LocalStore)(nil)

func NewLocalStore(dir, baseURL string) *LocalStore {
	return &LocalStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}
}

func (s *LocalStore) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	if !validKey(key) {
		return "", fmt.Errorf("%w: bad image key %q", common.ErrValidation, key)
	}
	p := filepath.Join(s.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", err
	}
	// запись через временный файл
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return s.BaseURL + "/images/" + key, nil
}

// Handler отдаёт сохранённые файлы; монтируется на /images/.
func (s *LocalStore) Handler() http.Handler {
	return http.StripPrefix("/images/", http.FileServer(http.Dir(s.Dir)))
}
