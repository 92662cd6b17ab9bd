package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ShoeKeeper/internal/cli/session"
	"ShoeKeeper/internal/common"
	"ShoeKeeper/internal/shoe"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCreds session.Session

func (s staticCreds) Current() session.Session { return session.Session(s) }

var alice = staticCreds{UserID: "7", Login: "alice", Token: "tok123"}

func newTestClient(t *testing.T, h http.Handler, creds Credentials) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return NewClient(ts.URL, creds, nil)
}

func requireCookie(t *testing.T, r *http.Request, token string) {
	t.Helper()
	c, err := r.Cookie(authCookie)
	if err != nil || c.Value != token {
		t.Errorf("auth cookie mismatch: %v %v", c, err)
	}
}

func TestErrorFromStatus(t *testing.T) {
	cases := map[int]error{
		http.StatusBadRequest:            common.ErrValidation,
		http.StatusUnauthorized:          common.ErrUnauthorized,
		http.StatusForbidden:             common.ErrPermissionDenied,
		http.StatusNotFound:              common.ErrNotFound,
		http.StatusConflict:              ErrLoginTaken,
		http.StatusRequestEntityTooLarge: common.ErrValidation,
		http.StatusTooManyRequests:       common.ErrRemoteUnavailable,
		http.StatusInternalServerError:   common.ErrRemoteUnavailable,
		http.StatusBadGateway:            common.ErrRemoteUnavailable,
	}
	for status, want := range cases {
		assert.ErrorIs(t, errorFromStatus(status, nil), want, "status %d", status)
	}

	err := errorFromStatus(http.StatusBadRequest, []byte(`{"error":"title is required"}`))
	assert.Contains(t, err.Error(), "title is required")
}

func TestRegisterAndLogin(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		switch {
		case r.URL.Path == "/api/user/register" && req["login"] == "taken":
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"login already taken"}`))
		case r.URL.Path == "/api/user/login" && req["password"] != "secret":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			// токен только в cookie: клиент должен его подобрать
			http.SetCookie(w, &http.Cookie{Name: authCookie, Value: "jwt-" + req["login"]})
			_, _ = w.Write([]byte(`{"user_id":5,"login":"` + req["login"] + `"}`))
		}
	}), nil)
	ctx := context.Background()

	sess, err := c.Register(ctx, "bob", "pw")
	require.NoError(t, err)
	assert.Equal(t, session.Session{UserID: "5", Login: "bob", Token: "jwt-bob"}, sess)

	_, err = c.Register(ctx, "taken", "pw")
	assert.ErrorIs(t, err, ErrLoginTaken)

	_, err = c.Login(ctx, "bob", "bad")
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	sess, err = c.Login(ctx, "bob", "secret")
	require.NoError(t, err)
	assert.True(t, sess.Authenticated())
}

func TestSessionFromResponse_NoToken(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Add("Set-Cookie", (&http.Cookie{Name: "other", Value: "x"}).String())
	_, err := SessionFromResponse(resp, []byte(`{"user_id":1,"login":"a"}`))
	assert.Error(t, err)
}

func TestStatus(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requireCookie(t, r, "tok123")
		_, _ = w.Write([]byte(`{"result":"User ID = 7"}`))
	}), alice)
	got, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "User ID = 7", got)
}

func TestMutations(t *testing.T) {
	var gotPatch map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requireCookie(t, r, "tok123")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/shoes":
			var f shoe.Fields
			_ = json.NewDecoder(r.Body).Decode(&f)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(shoe.Record{ID: "new-id", OwnerID: "7", Title: f.Title, Price: f.Price, Category: f.Category})
		case r.Method == http.MethodPatch && r.URL.Path == "/api/shoes/s1":
			_ = json.NewDecoder(r.Body).Decode(&gotPatch)
			_, _ = w.Write([]byte(`{}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/api/shoes/s1":
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	}), alice)
	ctx := context.Background()

	id, err := c.Create(ctx, "7", shoe.Fields{Draft: shoe.Draft{Title: "Air", Price: decimal.NewFromInt(5), Category: shoe.Running}})
	require.NoError(t, err)
	assert.Equal(t, "new-id", id)

	_, err = c.Create(ctx, "8", shoe.Fields{})
	assert.ErrorIs(t, err, common.ErrPermissionDenied)

	fav := true
	require.NoError(t, c.Update(ctx, "s1", shoe.Patch{IsFavorite: &fav}))
	assert.Equal(t, map[string]any{"is_favorite": true}, gotPatch)

	require.NoError(t, c.Delete(ctx, "s1"))
	assert.ErrorIs(t, c.Delete(ctx, "s2"), common.ErrNotFound)
}

func TestList_SendsCategory(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Boots", r.URL.Query().Get("category"))
		_, _ = w.Write([]byte(`[{"id":"1","owner_id":"7","title":"Chelsea","price":"90","category":"Boots"}]`))
	}), alice)
	got, err := c.List(context.Background(), shoe.Filter(shoe.Boots))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Chelsea", got[0].Title)
}

func TestTransportErrors(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", alice, nil)
	_, err := c.List(context.Background(), shoe.All)
	assert.ErrorIs(t, err, common.ErrRemoteUnavailable)

	block := make(chan struct{})
	slow := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}), alice)
	defer close(block)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = slow.Delete(ctx, "x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUploadImage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requireCookie(t, r, "tok123")
		f, hdr, err := r.FormFile("image")
		if !assert.NoError(t, err) {
			return
		}
		data, _ := io.ReadAll(f)
		assert.Equal(t, "pic.png", hdr.Filename)
		assert.Equal(t, "PNGDATA", string(data))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"image_ref":"http://img/images/shoes/7/x.jpg"}`))
	}), alice)

	path := filepath.Join(t.TempDir(), "pic.png")
	require.NoError(t, os.WriteFile(path, []byte("PNGDATA"), 0o600))
	ref, err := c.UploadImage(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "http://img/images/shoes/7/x.jpg", ref)

	_, err = c.UploadImage(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func feedServer(t *testing.T, serve func(conn *websocket.Conn)) http.Handler {
	t.Helper()
	up := websocket.Upgrader{}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/shoes/live" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if c, err := r.Cookie(authCookie); err != nil || c.Value == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		serve(conn)
	})
}

func TestSubscribe_SnapshotsThenError(t *testing.T) {
	c := newTestClient(t, feedServer(t, func(conn *websocket.Conn) {
		_ = conn.WriteJSON(shoe.FeedMessage{Type: shoe.MessageSnapshot, Records: []shoe.Record{}})
		_ = conn.WriteJSON(shoe.FeedMessage{Type: shoe.MessageSnapshot, Records: []shoe.Record{{ID: "1", OwnerID: "7"}}})
		_ = conn.WriteJSON(shoe.FeedMessage{Type: shoe.MessageError, Code: shoe.CodePermissionDenied, Message: "nope"})
	}), alice)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := c.Subscribe(ctx, "7")
	require.NoError(t, err)

	ev := <-events
	require.NoError(t, ev.Err)
	assert.Empty(t, ev.Records)

	ev = <-events
	require.NoError(t, ev.Err)
	require.Len(t, ev.Records, 1)

	ev = <-events
	assert.ErrorIs(t, ev.Err, common.ErrPermissionDenied)

	_, open := <-events
	assert.False(t, open)
}

func TestSubscribe_DroppedConnection(t *testing.T) {
	c := newTestClient(t, feedServer(t, func(conn *websocket.Conn) {
		_ = conn.WriteJSON(shoe.FeedMessage{Type: shoe.MessageSnapshot, Records: []shoe.Record{}})
	}), alice)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := c.Subscribe(ctx, "7")
	require.NoError(t, err)
	<-events
	ev := <-events
	assert.ErrorIs(t, ev.Err, common.ErrRemoteUnavailable)
}

func TestSubscribe_CancelClosesStream(t *testing.T) {
	c := newTestClient(t, feedServer(t, func(conn *websocket.Conn) {
		_ = conn.WriteJSON(shoe.FeedMessage{Type: shoe.MessageSnapshot, Records: []shoe.Record{}})
		_, _, _ = conn.ReadMessage()
	}), alice)

	ctx, cancel := context.WithCancel(context.Background())
	events, err := c.Subscribe(ctx, "7")
	require.NoError(t, err)
	<-events
	cancel()

	select {
	case _, open := <-events:
		assert.False(t, open)
	case <-time.After(5 * time.Second):
		t.Fatal("stream not closed after cancel")
	}
}

func TestSubscribe_Rejects(t *testing.T) {
	h := feedServer(t, func(conn *websocket.Conn) {})

	_, err := newTestClient(t, h, staticCreds{}).Subscribe(context.Background(), "7")
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = newTestClient(t, h, alice).Subscribe(context.Background(), "8")
	assert.ErrorIs(t, err, common.ErrPermissionDenied)

	// сервер отверг рукопожатие
	expired := staticCreds{UserID: "7", Token: "x"}
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}), expired)
	_, err = c.Subscribe(context.Background(), "7")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestWSURL(t *testing.T) {
	assert.Equal(t, "ws://h:1/x", NewClient("http://h:1/", nil, nil).wsURL("/x"))
	assert.Equal(t, "wss://h/x", NewClient("https://h", nil, nil).wsURL("/x"))
	assert.True(t, strings.HasPrefix(NewClient("h:1", nil, nil).wsURL("/x"), "h:1"))
}
