package handlers

import (
	"context"
	"net/http"

	"ShoeKeeper/internal/live"
	"ShoeKeeper/internal/middleware"
	"ShoeKeeper/internal/model"
	"ShoeKeeper/internal/service"
	"ShoeKeeper/internal/shoe"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ShoeHandler обслуживает CRUD записей и live-канал.
type ShoeHandler struct {
	ShoeService *service.ShoeService
	Broker      live.Broker
	Logger      *zap.SugaredLogger
	upgrader    websocket.Upgrader
}

func NewShoeHandler(shoeService *service.ShoeService, broker live.Broker, logger *zap.SugaredLogger) *ShoeHandler {
	return &ShoeHandler{
		ShoeService: shoeService,
		Broker:      broker,
		Logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// List возвращает снимок записей пользователя, ?category= сужает выборку
func (h *ShoeHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	f, err := shoe.ParseFilter(r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	records, err := h.ShoeService.List(r.Context(), userID, f)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *ShoeHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	var fields shoe.Fields
	if err := decodeJSON(r, &fields); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	rec, err := h.ShoeService.Create(r.Context(), userID, fields)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *ShoeHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	var patch shoe.Patch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	rec, err := h.ShoeService.Update(r.Context(), userID, chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *ShoeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	if err := h.ShoeService.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Live переводит соединение на WebSocket и держит его, пока клиент не уйдёт
func (h *ShoeHandler) Live(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		h.Logger.Warnw("live upgrade failed", "user_id", userID, "error", err)
		return
	}
	load := func(ctx context.Context) ([]shoe.Record, error) {
		return h.ShoeService.List(ctx, userID, shoe.All)
	}
	h.Logger.Infow("live connected", "user_id", userID)
	live.NewFeed(conn, h.Broker, model.OwnerID(userID), load, h.Logger).Run(r.Context())
	h.Logger.Infow("live disconnected", "user_id", userID)
}
