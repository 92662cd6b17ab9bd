package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ShoeKeeper/internal/config"
	"ShoeKeeper/internal/handlers"
	"ShoeKeeper/internal/images"
	"ShoeKeeper/internal/live"
	"ShoeKeeper/internal/middleware"
	"ShoeKeeper/internal/repo"
	"ShoeKeeper/internal/service"

	"go.uber.org/zap"
)

func main() {
	cfg := config.NewConfig()

	// создаём предустановленный регистратор zap
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}

	// делаем регистратор SugaredLogger
	sugar := logger.Sugar()
	middleware.SetLogger(sugar) // передаём логгер в middleware
	//сброс буфера логгера
	defer func() {
		if err := logger.Sync(); err != nil {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := repo.InitDB(cfg.DatabaseDSN)
	if err != nil {
		sugar.Fatalw("failed to initialize database", "error", err)
	}

	broker, closeBroker := newBroker(ctx, cfg, sugar)
	defer closeBroker()

	store, imageFiles := newImageStore(ctx, cfg, sugar)

	userService := service.NewUserService(repo.NewUserRepository(gormDB))
	shoeService := service.NewShoeService(repo.NewShoeRepository(gormDB), broker, sugar)
	imageService := service.NewImageService(
		images.NewProcessor(cfg.MaxImageBytes()), store, repo.NewImageRepository(gormDB), sugar)

	h := handlers.NewHandler(userService, shoeService, imageService, broker, imageFiles, sugar, cfg)

	addr := cfg.BaseURL

	sugar.Infow(
		"Starting server",
		"addr", addr,
	)

	sugar.Infow("Config",
		"BaseURL", cfg.BaseURL,
		"DatabaseDSN", cfg.DatabaseDSN,
		"RedisAddr", cfg.RedisAddr,
		"S3Bucket", cfg.S3Bucket,
		"ImageDir", cfg.ImageDir,
		"RateLimitRPS", cfg.RateLimitRPS,
	)

	srv := h.NewServer(ctx, addr)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sugar.Errorw("Server shutdown failed", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		sugar.Fatalw("Server failed", "error", err)
	}
	sugar.Infow("Server stopped")
}

// newBroker выбирает Redis, если задан REDIS_ADDR, иначе рассылку внутри процесса.
func newBroker(ctx context.Context, cfg *config.Config, sugar *zap.SugaredLogger) (live.Broker, func()) {
	if cfg.RedisAddr == "" {
		return live.NewLocalBroker(), func() {}
	}
	b, err := live.NewRedisBroker(ctx, cfg.RedisAddr, sugar)
	if err != nil {
		sugar.Fatalw("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
	}
	return b, func() {
		if err := b.Close(); err != nil {
			sugar.Warnw("redis close", "error", err)
		}
	}
}

// newImageStore выбирает S3, если задан S3_BUCKET. Локальное хранилище отдаёт файлы само.
func newImageStore(ctx context.Context, cfg *config.Config, sugar *zap.SugaredLogger) (images.Store, http.Handler) {
	if cfg.S3Bucket == "" {
		local := images.NewLocalStore(cfg.ImageDir, cfg.ImageBaseURL)
		return local, local.Handler()
	}
	s3, err := images.NewS3Store(ctx, images.S3Options{
		Bucket:        cfg.S3Bucket,
		Region:        cfg.S3Region,
		Endpoint:      cfg.S3Endpoint,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		PublicBaseURL: cfg.S3PublicURL,
	})
	if err != nil {
		sugar.Fatalw("failed to init s3 image store", "bucket", cfg.S3Bucket, "error", err)
	}
	return s3, nil
}
