// Package images обрабатывает и хранит фотографии обуви.
package images

import (
	"bytes"
	"errors"
	"fmt"

	"ShoeKeeper/internal/common"

	"github.com/disintegration/imaging"
)

// DefaultMaxDim — максимальная сторона сохраняемого изображения.
const DefaultMaxDim = 1024

var (
	// ErrTooLarge — загрузка больше допустимого размера.
	ErrTooLarge = errors.New("image too large")
	// ErrNotImage — данные не декодируются как изображение.
	ErrNotImage = fmt.Errorf("%w: not an image", common.ErrValidation)
)

// Processor приводит загрузку к JPEG с ограниченной стороной.
type Processor struct {
	MaxBytes int64
	MaxDim   int
	Quality  int
}

func NewProcessor(maxBytes int64) *Processor {
	return &Processor{MaxBytes: maxBytes, MaxDim: DefaultMaxDim, Quality: 85}
}

// Process декодирует данные (с учётом EXIF-ориентации), уменьшает до MaxDim и кодирует в JPEG.
func (p *Processor) Process(data []byte) ([]byte, error) {
	if p.MaxBytes > 0 && int64(len(data)) > p.MaxBytes {
		return nil, ErrTooLarge
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}

	b := img.Bounds()
	if b.Dx() > p.MaxDim || b.Dy() > p.MaxDim {
		img = imaging.Fit(img, p.MaxDim, p.MaxDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.Quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
