// Package bootstrap собирает зависимости CLI из конфигурации.
package bootstrap

import (
	"ShoeKeeper/internal/cli/api"
	"ShoeKeeper/internal/cli/collection"
	"ShoeKeeper/internal/cli/repo"
	fsrepo "ShoeKeeper/internal/cli/repo/fs"
	"ShoeKeeper/internal/cli/service"
	"ShoeKeeper/internal/cli/session"
	"ShoeKeeper/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// App — собранные зависимости одного запуска CLI.
type App struct {
	Config   *config.Config
	Logger   *zap.SugaredLogger
	Sessions *session.Store
	Client   *api.Client
}

// NewLogger — логгер CLI: stderr, уровень warn, без stacktrace.
func NewLogger() *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.OutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}

// New поднимает сессию из файла токена и клиента сервера.
func New(cfg *config.Config, logger *zap.SugaredLogger) *App {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	sessions := session.NewStore(fsrepo.AuthFSStore{TokenFile: cfg.TokenFile}, logger)
	client := api.NewClient(cfg.ServerURL, sessions, logger)
	return &App{Config: cfg, Logger: logger, Sessions: sessions, Client: client}
}

// Auth returns the authentication use cases.
func (a *App) Auth() *service.AuthService {
	return service.NewAuthService(a.Client, a.Sessions)
}

// Shoes собирает сервис записей: коллекция поверх клиента и кэш в ClientDBPath.
func (a *App) Shoes() *service.ShoeService {
	coll := collection.New(a.Client,
		collection.WithLogger(a.Logger),
		collection.WithTimeout(a.Config.RemoteTimeout),
	)
	open := func(owner string) (repo.SnapshotRepository, error) {
		return OpenSnapshotRepo(a.Config.ClientDBPath, owner)
	}
	return service.NewShoeService(coll, a.Sessions, a.Client, open, a.Logger)
}
