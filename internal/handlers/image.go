package handlers

import (
	"errors"
	"io"
	"net/http"

	"ShoeKeeper/internal/common"
	"ShoeKeeper/internal/config"
	"ShoeKeeper/internal/images"
	"ShoeKeeper/internal/middleware"
	"ShoeKeeper/internal/service"

	"go.uber.org/zap"
)

// ImageHandler принимает загрузки изображений обуви.
type ImageHandler struct {
	ImageService *service.ImageService
	Logger       *zap.SugaredLogger
	Config       *config.Config
}

func NewImageHandler(imageService *service.ImageService, logger *zap.SugaredLogger, cfg *config.Config) *ImageHandler {
	return &ImageHandler{ImageService: imageService, Logger: logger, Config: cfg}
}

// ImageResponse — imageRef загруженного изображения.
type ImageResponse struct {
	ImageRef string `json:"image_ref"`
}

// Upload принимает multipart-поле "image"
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	// Лимит общего тела запроса: файл плюс запас на заголовки частей
	maxImage := h.Config.MaxImageBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxImage+1<<20)

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if !errors.As(err, &tooBig) {
			err = errors.Join(common.ErrValidation, err)
		}
		h.Logger.Warnw("Upload: invalid multipart form", "error", err)
		writeError(w, h.Logger, err)
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, h.Logger, errors.Join(common.ErrValidation, err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImage+1))
	if err != nil {
		writeError(w, h.Logger, errors.Join(common.ErrValidation, err))
		return
	}
	if int64(len(data)) > maxImage {
		writeError(w, h.Logger, images.ErrTooLarge)
		return
	}

	ref, err := h.ImageService.Upload(r.Context(), userID, data)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, ImageResponse{ImageRef: ref})
}
