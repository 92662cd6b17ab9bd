// Package api — HTTP/WebSocket клиент сервера ShoeKeeper.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"ShoeKeeper/internal/cli/collection"
	"ShoeKeeper/internal/cli/session"
	"ShoeKeeper/internal/common"
	"ShoeKeeper/internal/shoe"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const authCookie = "auth_token"

// Credentials отдаёт текущую сессию, токен которой подставляется в запросы.
type Credentials interface {
	Current() session.Session
}

// Client реализует collection.Remote поверх REST и live-канала сервера.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Dialer  *websocket.Dialer
	creds   Credentials
	logger  *zap.SugaredLogger
}

var _ collection.Remote = (*Client)(nil)

// NewClient создаёт клиента. baseURL — адрес сервера со схемой (http://host:port).
func NewClient(baseURL string, creds Credentials, logger *zap.SugaredLogger) *Client {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{},
		Dialer:  websocket.DefaultDialer,
		creds:   creds,
		logger:  logger,
	}
}

// AuthResponse — ответ сервера на регистрацию и вход.
type AuthResponse struct {
	UserID int64  `json:"user_id"`
	Login  string `json:"login"`
	Token  string `json:"token"`
}

// Register регистрирует пользователя и возвращает сессию для него.
func (c *Client) Register(ctx context.Context, login, password string) (session.Session, error) {
	return c.authenticate(ctx, "/api/user/register", login, password)
}

// Login выполняет вход и возвращает сессию.
func (c *Client) Login(ctx context.Context, login, password string) (session.Session, error) {
	return c.authenticate(ctx, "/api/user/login", login, password)
}

func (c *Client) authenticate(ctx context.Context, path, login, password string) (session.Session, error) {
	payload := map[string]string{"login": login, "password": password}
	resp, body, err := c.PostJSON(ctx, path, payload, "")
	if err != nil {
		return session.Session{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return session.Session{}, errorFromStatus(resp.StatusCode, body)
	}
	return SessionFromResponse(resp, body)
}

// SessionFromResponse собирает сессию из тела ответа. Если токена в теле нет,
// берётся cookie auth_token.
func SessionFromResponse(resp *http.Response, body []byte) (session.Session, error) {
	var ar AuthResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		return session.Session{}, fmt.Errorf("decode auth response: %w", err)
	}
	token := ar.Token
	if token == "" {
		for _, ck := range resp.Cookies() {
			if ck.Name == authCookie && ck.Value != "" {
				token = ck.Value
			}
		}
	}
	if token == "" || ar.UserID == 0 {
		return session.Session{}, fmt.Errorf("no auth token in response")
	}
	return session.Session{UserID: strconv.FormatInt(ar.UserID, 10), Login: ar.Login, Token: token}, nil
}

// Status возвращает строку статуса сервера для текущего токена.
func (c *Client) Status(ctx context.Context) (string, error) {
	resp, body, err := c.PostJSON(ctx, "/api/user/test", nil, c.token())
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", errorFromStatus(resp.StatusCode, body)
	}
	var out struct {
		Result string `json:"result"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode status: %w", err)
	}
	return out.Result, nil
}

// List запрашивает снимок записей одним запросом, без подписки.
func (c *Client) List(ctx context.Context, f shoe.Filter) ([]shoe.Record, error) {
	path := "/api/shoes"
	if f != "" && f != shoe.All {
		path += "?category=" + url.QueryEscape(string(f))
	}
	resp, body, err := c.do(ctx, http.MethodGet, path, nil, "", c.token())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errorFromStatus(resp.StatusCode, body)
	}
	var out []shoe.Record
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode shoes: %w", err)
	}
	return out, nil
}

// Create сохраняет запись. Сервер определяет владельца по токену, поэтому чужой
// ownerID отклоняется до запроса.
func (c *Client) Create(ctx context.Context, ownerID string, fields shoe.Fields) (string, error) {
	if cur := c.current(); cur.UserID != "" && cur.UserID != ownerID {
		return "", fmt.Errorf("%w: owner %s is not the signed-in user", common.ErrPermissionDenied, ownerID)
	}
	resp, body, err := c.PostJSON(ctx, "/api/shoes", fields, c.token())
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusCreated {
		return "", errorFromStatus(resp.StatusCode, body)
	}
	var rec shoe.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return "", fmt.Errorf("decode created shoe: %w", err)
	}
	return rec.ID, nil
}

func (c *Client) Update(ctx context.Context, id string, patch shoe.Patch) error {
	b, err := json.Marshal(patch)
	if err != nil {
		return err
	}
	resp, body, err := c.do(ctx, http.MethodPatch, "/api/shoes/"+url.PathEscape(id), bytes.NewReader(b), "application/json", c.token())
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return errorFromStatus(resp.StatusCode, body)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	resp, body, err := c.do(ctx, http.MethodDelete, "/api/shoes/"+url.PathEscape(id), nil, "", c.token())
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return errorFromStatus(resp.StatusCode, body)
	}
	return nil
}

// UploadImage загружает файл изображения и возвращает его imageRef.
func (c *Client) UploadImage(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	resp, body, err := c.do(ctx, http.MethodPost, "/api/images", &buf, mw.FormDataContentType(), c.token())
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", errorFromStatus(resp.StatusCode, body)
	}
	var out struct {
		ImageRef string `json:"image_ref"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	return out.ImageRef, nil
}

// PostJSON sends a JSON POST request. If token is non-empty, it is passed as auth cookie.
func (c *Client) PostJSON(ctx context.Context, path string, payload any, token string) (*http.Response, []byte, error) {
	var r io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, err
		}
		r = bytes.NewReader(b)
	}
	return c.do(ctx, http.MethodPost, path, r, "application/json", token)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType, token string) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, nil, err
	}
	if contentType != "" && body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Cookie", authCookie+"="+token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, nil, transportError(err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, transportError(err)
	}
	return resp, bytes.TrimSpace(b), nil
}

func (c *Client) current() session.Session {
	if c.creds == nil {
		return session.Session{}
	}
	return c.creds.Current()
}

func (c *Client) token() string { return c.current().Token }

// wsURL переводит http(s)-адрес сервера в ws(s).
func (c *Client) wsURL(path string) string {
	switch {
	case strings.HasPrefix(c.BaseURL, "https://"):
		return "wss://" + strings.TrimPrefix(c.BaseURL, "https://") + path
	case strings.HasPrefix(c.BaseURL, "http://"):
		return "ws://" + strings.TrimPrefix(c.BaseURL, "http://") + path
	}
	return c.BaseURL + path
}
