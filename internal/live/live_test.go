package live

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ShoeKeeper/internal/shoe"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalBroker_PublishAndUnsubscribe(t *testing.T) {
	b := NewLocalBroker()
	ctx, cancel := context.WithCancel(context.Background())

	var hits atomic.Int32
	require.NoError(t, b.Subscribe(ctx, "1", func() { hits.Add(1) }))
	require.NoError(t, b.Subscribe(context.Background(), "2", func() { t.Error("foreign owner notified") }))

	require.NoError(t, b.Publish(context.Background(), "1"))
	require.NoError(t, b.Publish(context.Background(), "1"))
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, 1, b.Subscribers("1"))

	cancel()
	require.Eventually(t, func() bool { return b.Subscribers("1") == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, b.Publish(context.Background(), "1"))
	assert.Equal(t, int32(2), hits.Load())
}

func TestChannelName(t *testing.T) {
	assert.Equal(t, "shoes:{42}", channelName("42"))
}

// TestRedisBroker выполняется только при наличии REDIS_ADDR.
func TestRedisBroker(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b, err := NewRedisBroker(ctx, addr, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer b.Close()

	got := make(chan struct{}, 1)
	require.NoError(t, b.Subscribe(ctx, "7", func() { got <- struct{}{} }))
	require.NoError(t, b.Publish(ctx, "7"))
	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("no notification from redis")
	}
}

type fakeLoader struct {
	mu      sync.Mutex
	records []shoe.Record
	err     error
}

func (l *fakeLoader) set(rs []shoe.Record, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records, l.err = rs, err
}

func (l *fakeLoader) load(context.Context) ([]shoe.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.records, l.err
}

func startFeed(t *testing.T, b Broker, l *fakeLoader) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewFeed(conn, b, "1", l.load, zap.NewNop().Sugar()).Run(r.Context())
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) shoe.FeedMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg shoe.FeedMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestFeed_SnapshotOnConnectAndOnChange(t *testing.T) {
	b := NewLocalBroker()
	l := &fakeLoader{}
	conn := startFeed(t, b, l)

	msg := readMessage(t, conn)
	assert.Equal(t, shoe.MessageSnapshot, msg.Type)
	assert.NotNil(t, msg.Records)
	assert.Empty(t, msg.Records)

	require.Eventually(t, func() bool { return b.Subscribers("1") == 1 }, time.Second, 5*time.Millisecond)
	l.set([]shoe.Record{{ID: "a", OwnerID: "1", Title: "A", Category: shoe.Boots}}, nil)
	require.NoError(t, b.Publish(context.Background(), "1"))

	msg = readMessage(t, conn)
	assert.Equal(t, shoe.MessageSnapshot, msg.Type)
	if assert.Len(t, msg.Records, 1) {
		assert.Equal(t, "a", msg.Records[0].ID)
	}
}

func TestFeed_LoadErrorSendsErrorAndCloses(t *testing.T) {
	b := NewLocalBroker()
	l := &fakeLoader{}
	l.set(nil, errors.New("db down"))
	conn := startFeed(t, b, l)

	msg := readMessage(t, conn)
	assert.Equal(t, shoe.MessageError, msg.Type)
	assert.Equal(t, shoe.CodeUnavailable, msg.Code)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestFeed_ClientCloseUnsubscribes(t *testing.T) {
	b := NewLocalBroker()
	conn := startFeed(t, b, &fakeLoader{})
	_ = readMessage(t, conn)
	require.Eventually(t, func() bool { return b.Subscribers("1") == 1 }, time.Second, 5*time.Millisecond)

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()
	require.Eventually(t, func() bool { return b.Subscribers("1") == 0 }, 2*time.Second, 5*time.Millisecond)
}
