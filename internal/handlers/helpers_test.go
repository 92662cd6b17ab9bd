package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ShoeKeeper/internal/config"
	"ShoeKeeper/internal/handlers"
	"ShoeKeeper/internal/images"
	"ShoeKeeper/internal/live"
	"ShoeKeeper/internal/middleware"
	"ShoeKeeper/internal/model"
	"ShoeKeeper/internal/repo"
	"ShoeKeeper/internal/service"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

// Minimal mocks
type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	args := m.Called(ctx, user)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetUserByLogin(ctx context.Context, login string) (*model.User, error) {
	args := m.Called(ctx, login)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

var _ repo.UserRepository = (*mockUserRepo)(nil)

// testEnv — роутер поверх in-memory SQLite, локального брокера и каталога изображений.
type testEnv struct {
	router  http.Handler
	cfg     *config.Config
	users   *mockUserRepo
	shoes   repo.ShoeRepository
	broker  *live.LocalBroker
	handler *handlers.Handler
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dial := gormsqlite.Dialector{DriverName: "sqlite", DSN: "file:handlers_" + name + "?mode=memory&cache=shared"}
	db, err := gorm.Open(dial, &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite (modernc): %v", err)
	}
	if err := repo.Migrate(db); err != nil {
		t.Fatalf("failed to automigrate: %v", err)
	}
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := &config.Config{
		AuthSecret:   "test-secret",
		RateLimitRPS: 1000,
		ImageDir:     t.TempDir(),
		ImageBaseURL: "http://img.test",
		ImageMaxMB:   1,
	}
	logger := zap.NewNop().Sugar()
	db := newTestDB(t)

	users := &mockUserRepo{}
	shoes := repo.NewShoeRepository(db)
	broker := live.NewLocalBroker()
	store := images.NewLocalStore(cfg.ImageDir, cfg.ImageBaseURL)

	userSvc := service.NewUserService(users)
	shoeSvc := service.NewShoeService(shoes, broker, logger)
	imageSvc := service.NewImageService(images.NewProcessor(cfg.MaxImageBytes()), store, repo.NewImageRepository(db), logger)

	h := handlers.NewHandler(userSvc, shoeSvc, imageSvc, broker, store.Handler(), logger, cfg)
	return &testEnv{router: h.Router, cfg: cfg, users: users, shoes: shoes, broker: broker, handler: h}
}

func (e *testEnv) do(t *testing.T, req *http.Request, userID int64) *httptest.ResponseRecorder {
	t.Helper()
	if userID != 0 {
		addAuthCookie(t, req, userID, e.cfg.AuthSecret)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func addAuthCookie(t *testing.T, req *http.Request, userID int64, secret string) {
	t.Helper()
	rr := httptest.NewRecorder()
	_ = middleware.SetLoginCookie(rr, userID, secret)
	for _, c := range rr.Result().Cookies() {
		req.AddCookie(c)
	}
}
