package live

import (
	"context"
	"encoding/json"
	"time"

	"ShoeKeeper/internal/shoe"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Клиент ничего не шлёт, кроме control-фреймов.
	maxMessageSize = 512
)

// Loader загружает текущий снимок записей владельца.
type Loader func(ctx context.Context) ([]shoe.Record, error)

// Feed обслуживает одно WebSocket-соединение: отправляет снимок при подключении
// и после каждого уведомления брокера.
type Feed struct {
	conn   *websocket.Conn
	broker Broker
	owner  string
	load   Loader
	logger *zap.SugaredLogger
}

func NewFeed(conn *websocket.Conn, broker Broker, owner string, load Loader, logger *zap.SugaredLogger) *Feed {
	return &Feed{conn: conn, broker: broker, owner: owner, load: load, logger: logger}
}

// Run блокируется до закрытия соединения клиентом, ошибки или отмены ctx.
// Соединение закрывается при выходе.
func (f *Feed) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		_ = f.conn.Close()
	}()

	// сигналы схлопываются: каждый снимок полный, промежуточные не нужны
	changed := make(chan struct{}, 1)
	signal := func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}
	if err := f.broker.Subscribe(ctx, f.owner, signal); err != nil {
		f.logger.Errorw("live subscribe failed", "owner", f.owner, "error", err)
		f.writeError(err)
		return
	}

	go f.readPump(cancel)

	if !f.sendSnapshot(ctx) {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-changed:
			if !f.sendSnapshot(ctx) {
				return
			}
		case <-ticker.C:
			_ = f.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := f.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			_ = f.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = f.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
	}
}

// readPump читает только control-фреймы и отменяет ctx, когда клиент уходит.
func (f *Feed) readPump(cancel context.CancelFunc) {
	defer cancel()
	f.conn.SetReadLimit(maxMessageSize)
	_ = f.conn.SetReadDeadline(time.Now().Add(pongWait))
	f.conn.SetPongHandler(func(string) error {
		return f.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := f.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				f.logger.Debugw("live connection closed", "owner", f.owner, "error", err)
			}
			return
		}
	}
}

func (f *Feed) sendSnapshot(ctx context.Context) bool {
	records, err := f.load(ctx)
	if err != nil {
		if ctx.Err() == nil {
			f.logger.Errorw("load snapshot", "owner", f.owner, "error", err)
			f.writeError(err)
		}
		return false
	}
	if records == nil {
		records = []shoe.Record{}
	}
	return f.write(shoe.FeedMessage{Type: shoe.MessageSnapshot, Records: records}) == nil
}

func (f *Feed) writeError(err error) {
	_ = f.write(shoe.FeedMessage{Type: shoe.MessageError, Code: shoe.CodeFor(err), Message: err.Error()})
	_ = f.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = f.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseInternalServerErr, shoe.CodeFor(err)))
}

func (f *Feed) write(msg shoe.FeedMessage) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_ = f.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := f.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		f.logger.Debugw("live write failed", "owner", f.owner, "error", err)
		return err
	}
	return nil
}
