package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"finance-dashboard/internal/model"
	"finance-dashboard/pkg/apierror"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
	actionTimeout  = 10 * time.Second
)

// Client is one websocket connection of an authenticated user.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	actor  model.AuthUser
	send   chan []byte
	logger *slog.Logger
}

// Serve upgrades the request and attaches the connection to the hub.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, actor model.AuthUser) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		actor:  actor,
		send:   make(chan []byte, sendBuffer),
		logger: h.logger.With("user_id", actor.ID),
	}
	if !h.enqueue(h.register, client) {
		_ = conn.Close()
		return errors.New("websocket hub stopped")
	}

	go client.writePump()
	go client.readPump()
	return nil
}

func (c *Client) closeSend() {
	close(c.send)
}

// readPump handles toast actions sent by the browser.
func (c *Client) readPump() {
	defer func() {
		c.hub.enqueue(c.hub.unregister, c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var req model.DeletionActionRequest
		if err := c.conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read failed", "error", err)
			}
			return
		}

		message, err := json.Marshal(c.dispatch(req))
		if err != nil {
			c.logger.Error("failed to marshal reply", "error", err)
			continue
		}
		if !c.hub.replyTo(c, message) {
			return
		}
	}
}

func (c *Client) dispatch(req model.DeletionActionRequest) Message {
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	var (
		session model.DeletionSession
		err     error
	)
	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case "undo":
		session, err = c.hub.actions.Undo(ctx, c.actor, req.Kind, req.ID)
	case "commit":
		session, err = c.hub.actions.Commit(ctx, c.actor, req.Kind, req.ID)
	default:
		err = apierror.BadRequest("unknown action", req.Action)
	}

	if err != nil {
		return Message{Type: MessageError, Error: actionError(err)}
	}
	return Message{Type: MessageAck, Session: &session}
}

func actionError(err error) *model.APIError {
	if apiErr, ok := apierror.As(err); ok {
		return &model.APIError{Code: apiErr.Code, Message: apiErr.Message, Details: apiErr.Details}
	}
	switch {
	case errors.Is(err, model.ErrNoPendingSession):
		return &model.APIError{Code: "NO_PENDING_DELETION", Message: "Nothing to undo or commit"}
	case errors.Is(err, model.ErrMissingIdentifier):
		return &model.APIError{Code: "BAD_REQUEST", Message: "id is required"}
	}
	return &model.APIError{Code: "ACTION_FAILED", Message: err.Error()}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
