package handlers

import (
	"context"
	"net"
	"net/http"

	"ShoeKeeper/internal/config"
	"ShoeKeeper/internal/live"
	"ShoeKeeper/internal/middleware"
	"ShoeKeeper/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Router chi.Router
}

// NewHandler разводящий для хендлеров. imageFiles может быть nil, если изображения
// отдаются не этим сервером (S3).
func NewHandler(
	userService *service.UserService,
	shoeService *service.ShoeService,
	imageService *service.ImageService,
	broker live.Broker,
	imageFiles http.Handler,
	logger *zap.SugaredLogger,
	config *config.Config,
) *Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)
	r.Use(middleware.WithAuth(config.AuthSecret))
	if config.RateLimitRPS > 0 {
		burst := int(config.RateLimitRPS * 2)
		r.Use(middleware.WithRateLimit(middleware.NewRateLimiter(config.RateLimitRPS, burst)))
	}

	// Handlers
	userHandler := NewUserHandler(userService, logger, config)
	shoeHandler := NewShoeHandler(shoeService, broker, logger)
	imageHandler := NewImageHandler(imageService, logger, config)

	// User routes
	r.Post("/api/user/register", userHandler.Register)
	r.Post("/api/user/login", userHandler.Login)
	r.Post("/api/user/test", userHandler.Status)

	// Shoe and image routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Get("/api/shoes", shoeHandler.List)
		r.Post("/api/shoes", shoeHandler.Create)
		r.Get("/api/shoes/live", shoeHandler.Live)
		r.Patch("/api/shoes/{id}", shoeHandler.Update)
		r.Delete("/api/shoes/{id}", shoeHandler.Delete)

		r.Post("/api/images", imageHandler.Upload)
	})

	if imageFiles != nil {
		r.Handle("/images/*", imageFiles)
	}

	return &Handler{Router: r}
}

// NewServer собирает http.Server, у которого контексты запросов отменяются вместе с ctx.
// Shutdown не закрывает захваченные websocket-соединения, live-ленты завершаются по ctx.
func (h *Handler) NewServer(ctx context.Context, addr string) *http.Server {
	return &http.Server{
		Addr:        addr,
		Handler:     h.Router,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
}
