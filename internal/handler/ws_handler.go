package handler

import (
	"log/slog"
	"net/http"

	"finance-dashboard/internal/websocket"
)

type WSHandler struct {
	hub *websocket.Hub
}

func NewWSHandler(hub *websocket.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// Serve upgrades to the toast stream. The upgrader writes its own error
// response when the handshake is invalid.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	if err := h.hub.Serve(w, r, actor); err != nil {
		slog.Warn("websocket upgrade failed", "user_id", actor.ID, "error", err)
	}
}
