package api_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ShoeKeeper/internal/cli/api"
	"ShoeKeeper/internal/cli/collection"
	"ShoeKeeper/internal/cli/session"
	"ShoeKeeper/internal/common"
	"ShoeKeeper/internal/config"
	"ShoeKeeper/internal/handlers"
	"ShoeKeeper/internal/images"
	"ShoeKeeper/internal/live"
	"ShoeKeeper/internal/repo"
	"ShoeKeeper/internal/service"
	"ShoeKeeper/internal/shoe"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

// newServer поднимает настоящий роутер поверх in-memory SQLite.
func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(gormsqlite.Dialector{DriverName: "sqlite", DSN: "file:e2e_" + name + "?mode=memory&cache=shared"}, &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(db))

	cfg := &config.Config{AuthSecret: "e2e", ImageDir: t.TempDir(), ImageBaseURL: "http://img", ImageMaxMB: 1}
	logger := zap.NewNop().Sugar()
	broker := live.NewLocalBroker()
	store := images.NewLocalStore(cfg.ImageDir, cfg.ImageBaseURL)

	h := handlers.NewHandler(
		service.NewUserService(repo.NewUserRepository(db)),
		service.NewShoeService(repo.NewShoeRepository(db), broker, logger),
		service.NewImageService(images.NewProcessor(cfg.MaxImageBytes()), store, repo.NewImageRepository(db), logger),
		broker, store.Handler(), logger, cfg,
	)
	srv := httptest.NewServer(h.Router)
	t.Cleanup(srv.Close)
	return srv
}

func waitRecords(t *testing.T, c *collection.Collection, cond func([]shoe.Record) bool) []shoe.Record {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		if rs := c.CurrentRecords(); cond(rs) {
			return rs
		}
		select {
		case <-c.Changes():
		case <-time.After(50 * time.Millisecond):
		case <-deadline:
			t.Fatalf("condition not reached, records: %+v", c.CurrentRecords())
		}
	}
}

func TestCollectionOverServer(t *testing.T) {
	srv := newServer(t)
	sessions := session.NewStore(nil, nil)
	client := api.NewClient(srv.URL, sessions, nil)
	ctx := context.Background()

	sess, err := client.Register(ctx, "alice", "pw")
	require.NoError(t, err)
	require.NoError(t, sessions.SignIn(sess))

	coll := collection.New(client, collection.WithTimeout(5*time.Second))
	stop := coll.Bind(sessions)
	defer stop()

	h := coll.Handle()
	require.NotNil(t, h)
	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, h.Wait(waitCtx))
	assert.Equal(t, sess.UserID, coll.Identity())

	_, err = coll.Add(ctx, shoe.Draft{Title: " Air Max ", Price: decimal.RequireFromString("99.90"), Category: shoe.Running})
	require.NoError(t, err)
	_, err = coll.Add(ctx, shoe.Draft{Title: "Chelsea", Price: decimal.NewFromInt(150), Category: shoe.Boots})
	require.NoError(t, err)

	rs := waitRecords(t, coll, func(rs []shoe.Record) bool { return len(rs) == 2 })
	assert.Equal(t, "Air Max", rs[0].Title)
	assert.Equal(t, sess.UserID, rs[0].OwnerID)
	assert.Len(t, shoe.Project(rs, shoe.Filter(shoe.Boots)), 1)

	require.NoError(t, coll.ToggleFavorite(rs[1].ID))
	require.NoError(t, coll.Remove(rs[0].ID))
	require.NoError(t, coll.Flush(waitCtx))

	rs = waitRecords(t, coll, func(rs []shoe.Record) bool { return len(rs) == 1 && rs[0].IsFavorite })
	assert.Equal(t, "Chelsea", rs[0].Title)

	// изменения видны другому клиенту того же пользователя
	other := api.NewClient(srv.URL, sessions, nil)
	listed, err := other.List(ctx, shoe.All)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.True(t, listed[0].IsFavorite)

	// выход очищает снимок
	require.NoError(t, sessions.SignOut())
	assert.Empty(t, coll.CurrentRecords())
	assert.Equal(t, "", coll.Identity())
}

func TestCollectionOverServer_RemoteFailureRollsBack(t *testing.T) {
	srv := newServer(t)
	sessions := session.NewStore(nil, nil)
	client := api.NewClient(srv.URL, sessions, nil)
	ctx := context.Background()

	sess, err := client.Register(ctx, "bob", "pw")
	require.NoError(t, err)
	require.NoError(t, sessions.SignIn(sess))

	coll := collection.New(client)
	defer coll.Bind(sessions)()
	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, coll.Handle().Wait(waitCtx))

	_, err = coll.Add(ctx, shoe.Draft{Title: "Oxford", Price: decimal.NewFromInt(10), Category: shoe.Formal})
	require.NoError(t, err)
	rs := waitRecords(t, coll, func(rs []shoe.Record) bool { return len(rs) == 1 })

	// сервер перестал принимать запросы: правка откатывается
	srv.Close()
	require.NoError(t, coll.ToggleFavorite(rs[0].ID))
	require.NoError(t, coll.Flush(waitCtx))

	select {
	case err := <-coll.Errors():
		var merr *collection.MutationError
		require.ErrorAs(t, err, &merr)
		assert.True(t, merr.RolledBack)
		assert.ErrorIs(t, err, common.ErrRemoteUnavailable)
	case <-waitCtx.Done():
		t.Fatal("no mutation error reported")
	}
	assert.False(t, coll.CurrentRecords()[0].IsFavorite)
}
