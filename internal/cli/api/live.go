package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ShoeKeeper/internal/cli/collection"
	"ShoeKeeper/internal/common"
	"ShoeKeeper/internal/shoe"

	"github.com/gorilla/websocket"
)

// Subscribe открывает live-канал. Сервер отдаёт записи владельца токена,
// поэтому подписка на чужой ownerID отклоняется сразу.
func (c *Client) Subscribe(ctx context.Context, ownerID string) (<-chan collection.Event, error) {
	cur := c.current()
	if cur.Token == "" {
		return nil, fmt.Errorf("%w: not signed in", common.ErrUnauthorized)
	}
	if cur.UserID != ownerID {
		return nil, fmt.Errorf("%w: cannot watch records of %s", common.ErrPermissionDenied, ownerID)
	}

	header := http.Header{}
	header.Set("Cookie", authCookie+"="+cur.Token)
	conn, resp, err := c.Dialer.DialContext(ctx, c.wsURL("/api/shoes/live"), header)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return nil, errorFromStatus(resp.StatusCode, nil)
		}
		return nil, transportError(err)
	}

	events := make(chan collection.Event)
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()
	go c.readFeed(ctx, conn, ownerID, events)
	return events, nil
}

func (c *Client) readFeed(ctx context.Context, conn *websocket.Conn, ownerID string, events chan<- collection.Event) {
	defer close(events)
	defer conn.Close()

	send := func(ev collection.Event) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Debugw("live feed closed", "owner", ownerID, "error", err)
			send(collection.Event{Err: feedError(err)})
			return
		}
		var msg shoe.FeedMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warnw("bad live message", "owner", ownerID, "error", err)
			continue
		}
		switch msg.Type {
		case shoe.MessageSnapshot:
			if !send(collection.Event{Records: msg.Records}) {
				return
			}
		case shoe.MessageError:
			send(collection.Event{Err: fmt.Errorf("%w: %s", shoe.ErrorForCode(msg.Code), msg.Message)})
			return
		default:
			c.logger.Debugw("unknown live message", "type", msg.Type)
		}
	}
}

func feedError(err error) error {
	var ce *websocket.CloseError
	if errors.As(err, &ce) && ce.Code == websocket.CloseInternalServerErr {
		return fmt.Errorf("%w: %s", shoe.ErrorForCode(ce.Text), ce.Text)
	}
	return transportError(err)
}
