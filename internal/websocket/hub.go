package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/gorilla/websocket"

	"finance-dashboard/internal/event"
	"finance-dashboard/internal/model"
	"finance-dashboard/internal/toast"
)

const streamBuffer = 256

// Message is every frame the server sends.
type Message struct {
	Type    string                 `json:"type"`
	Toast   *toast.View            `json:"toast,omitempty"`
	Change  *Change                `json:"change,omitempty"`
	Session *model.DeletionSession `json:"session,omitempty"`
	Error   *model.APIError        `json:"error,omitempty"`
}

// Change tells the user's other tabs that a record or their settings changed.
type Change struct {
	Event event.Type `json:"event"`
	Data  any        `json:"data"`
}

const (
	MessageReady  = "ready"
	MessageToast  = "toast"
	MessageChange = "change"
	MessageAck    = "ack"
	MessageError  = "error"
)

// Actions is what a toast button does on the server.
type Actions interface {
	Undo(ctx context.Context, actor model.AuthUser, kind model.DeletionKind, id string) (model.DeletionSession, error)
	Commit(ctx context.Context, actor model.AuthUser, kind model.DeletionKind, id string) (model.DeletionSession, error)
}

// reply is addressed to a single client.
type reply struct {
	client  *Client
	message []byte
}

// Hub fans deletion toasts and record changes out to the websocket clients
// of the user they belong to.
type Hub struct {
	// Registered clients. Only touched by Run.
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	direct     chan reply
	done       chan struct{}

	bus      event.Bus
	actions  Actions
	logger   *slog.Logger
	origins  []string
	upgrader websocket.Upgrader
}

func NewHub(bus event.Bus, actions Actions, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		direct:     make(chan reply),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		bus:        bus,
		actions:    actions,
		logger:     logger.With("component", "websocket"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// AllowOrigins sets the browser origins that may open a socket, in the same
// form as CORS_ORIGINS. "*" allows any origin. Without it only same-host
// pages and clients that send no Origin header can connect.
func (h *Hub) AllowOrigins(origins []string) *Hub {
	h.origins = origins
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	if slices.Contains(h.origins, "*") {
		return true
	}

	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, allowed := range h.origins {
		if strings.EqualFold(strings.TrimRight(allowed, "/"), origin) {
			return true
		}
	}

	h.logger.Warn("websocket origin rejected", "origin", origin)
	return false
}

// Run delivers toasts until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) error {
	topics := append(slices.Clone(event.DeletionTypes), event.RecordTypes...)
	events, cancel := h.bus.Stream(streamBuffer, topics...)
	defer cancel()
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return nil

		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("client connected", "user_id", client.actor.ID, "clients", len(h.clients))
			ready, _ := json.Marshal(Message{Type: MessageReady})
			h.send(client, ready)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				h.logger.Debug("client disconnected", "user_id", client.actor.ID, "clients", len(h.clients))
			}

		case r := <-h.direct:
			if h.clients[r.client] {
				h.send(r.client, r.message)
			}

		case e, ok := <-events:
			if !ok {
				return nil
			}
			h.broadcast(e)
		}
	}
}

func (h *Hub) broadcast(e event.Event) {
	var frame Message
	if view, ok := toast.Render(e); ok {
		frame = Message{Type: MessageToast, Toast: &view}
	} else if slices.Contains(event.RecordTypes, e.Type) {
		frame = Message{Type: MessageChange, Change: &Change{Event: e.Type, Data: e.Payload}}
	} else {
		return
	}

	message, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("failed to marshal frame", "type", frame.Type, "error", err)
		return
	}

	for client := range h.clients {
		if client.actor.ID != e.ActorID {
			continue
		}
		h.send(client, message)
	}
}

// send drops a client whose buffer is full rather than blocking the hub.
func (h *Hub) send(client *Client, message []byte) {
	select {
	case client.send <- message:
	default:
		h.logger.Warn("client too slow, disconnecting", "user_id", client.actor.ID)
		h.drop(client)
	}
}

// Only Run writes to a client's send channel; other goroutines go through
// these helpers, which give up once the hub has stopped.
func (h *Hub) enqueue(ch chan<- *Client, client *Client) bool {
	select {
	case ch <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) replyTo(client *Client, message []byte) bool {
	select {
	case h.direct <- reply{client: client, message: message}:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	client.closeSend()
}
