package handlers

import (
	"fmt"
	"net/http"

	"ShoeKeeper/internal/config"
	"ShoeKeeper/internal/middleware"
	"ShoeKeeper/internal/model"
	"ShoeKeeper/internal/service"

	"go.uber.org/zap"
)

// UserHandler обрабатывает регистрацию, вход и проверку статуса.
type UserHandler struct {
	UserService *service.UserService
	Logger      *zap.SugaredLogger
	Config      *config.Config
}

func NewUserHandler(userService *service.UserService, logger *zap.SugaredLogger, cfg *config.Config) *UserHandler {
	return &UserHandler{UserService: userService, Logger: logger, Config: cfg}
}

type credentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// AuthResponse — ответ на регистрацию и вход.
type AuthResponse struct {
	UserID int64  `json:"user_id"`
	Login  string `json:"login"`
	Token  string `json:"token"`
}

// Register регистрирует пользователя и сразу авторизует его
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	user, err := h.UserService.Register(r.Context(), req.Login, req.Password)
	if err != nil {
		h.Logger.Infow("register rejected", "login", req.Login, "error", err)
		writeError(w, h.Logger, err)
		return
	}
	h.authorize(w, user)
}

// Login авторизация пользователя
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	user, err := h.UserService.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	h.authorize(w, user)
}

func (h *UserHandler) authorize(w http.ResponseWriter, user *model.User) {
	token, err := middleware.BuildJWT(user.ID, h.Config.AuthSecret)
	if err != nil {
		writeError(w, h.Logger, fmt.Errorf("sign token: %w", err))
		return
	}
	middleware.SetAuthCookie(w, token)
	writeJSON(w, http.StatusOK, AuthResponse{UserID: user.ID, Login: user.Login, Token: token})
}

// Status отвечает, под каким пользователем пришёл запрос
func (h *UserHandler) Status(w http.ResponseWriter, r *http.Request) {
	result := "anonymous"
	if uid, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		result = fmt.Sprintf("User ID = %d", uid)
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": result})
}
