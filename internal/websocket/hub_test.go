package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-dashboard/internal/event"
	"finance-dashboard/internal/model"
	"finance-dashboard/internal/toast"
)

type fakeActions struct {
	mu     sync.Mutex
	undone []string
}

func (f *fakeActions) Undone() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.undone...)
}

func (f *fakeActions) Undo(_ context.Context, actor model.AuthUser, kind model.DeletionKind, id string) (model.DeletionSession, error) {
	f.mu.Lock()
	f.undone = append(f.undone, actor.ID+"/"+string(kind)+":"+id)
	f.mu.Unlock()
	return model.DeletionSession{
		Target:  model.DeletionTarget{Kind: kind, ID: id},
		State:   model.DeletionUndone,
		Outcome: model.OutcomeUndone,
	}, nil
}

func (f *fakeActions) Commit(context.Context, model.AuthUser, model.DeletionKind, string) (model.DeletionSession, error) {
	return model.DeletionSession{}, model.ErrNoPendingSession
}

func newHubServer(t *testing.T, actor model.AuthUser, origins []string) (*event.InMemoryBus, *fakeActions, string) {
	t.Helper()

	bus := event.NewBus()
	actions := &fakeActions{}
	hub := NewHub(bus, actions, nil).AllowOrigins(origins)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = hub.Run(ctx) }()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, actor)
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})

	return bus, actions, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func startHub(t *testing.T, actor model.AuthUser) (*event.InMemoryBus, *fakeActions, *websocket.Conn) {
	t.Helper()

	bus, actions, url := newHubServer(t, actor, nil)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	var ready Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&ready))
	require.Equal(t, MessageReady, ready.Type)

	return bus, actions, conn
}

func pendingNotice(actorID string, name string) model.DeletionNotice {
	return model.DeletionNotice{
		SessionID:        "s-" + name,
		Target:           model.DeletionTarget{Kind: model.KindAsset, ID: name, Name: name},
		State:            model.DeletionPending,
		RemainingMS:      5000,
		RemainingSeconds: 5,
		ActorID:          actorID,
	}
}

func TestHub_DeliversToastsToTheOwnerOnly(t *testing.T) {
	bus, _, conn := startHub(t, model.AuthUser{ID: "u1"})
	ctx := context.Background()

	bus.Emit(ctx, event.TypeDeletionPending, pendingNotice("u2", "someone-elses"), "u2")
	bus.Emit(ctx, event.TypeDeletionPending, pendingNotice("u1", "mine"), "u1")

	var msg Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))

	assert.Equal(t, MessageToast, msg.Type)
	require.NotNil(t, msg.Toast)
	assert.Equal(t, "asset:mine", msg.Toast.ID)
	assert.Equal(t, toast.VariantPending, msg.Toast.Variant)
	assert.Equal(t, 5, msg.Toast.RemainingSeconds)
}

func TestHub_ClientActions(t *testing.T) {
	_, actions, conn := startHub(t, model.AuthUser{ID: "u1"})

	t.Run("undo is acknowledged", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(model.DeletionActionRequest{Action: "undo", Kind: model.KindAsset, ID: "a1"}))

		var msg Message
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		require.NoError(t, conn.ReadJSON(&msg))

		assert.Equal(t, MessageAck, msg.Type)
		require.NotNil(t, msg.Session)
		assert.Equal(t, model.OutcomeUndone, msg.Session.Outcome)
		assert.Equal(t, []string{"u1/asset:a1"}, actions.Undone())
	})

	t.Run("commit without a session", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(model.DeletionActionRequest{Action: "commit", Kind: model.KindAsset, ID: "a1"}))

		var msg Message
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		require.NoError(t, conn.ReadJSON(&msg))

		assert.Equal(t, MessageError, msg.Type)
		require.NotNil(t, msg.Error)
		assert.Equal(t, "NO_PENDING_DELETION", msg.Error.Code)
	})

	t.Run("unknown action", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(map[string]string{"action": "shred"}))

		var msg Message
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		require.NoError(t, conn.ReadJSON(&msg))

		assert.Equal(t, MessageError, msg.Type)
		assert.Equal(t, "BAD_REQUEST", msg.Error.Code)
	})
}

func TestHub_PushesRecordChangesToTheOwner(t *testing.T) {
	bus, _, conn := startHub(t, model.AuthUser{ID: "u1"})
	ctx := context.Background()

	bus.Emit(ctx, event.TypeAssetUpdated, model.Asset{ID: "a2", UserID: "u2"}, "u2")
	bus.Emit(ctx, event.TypeAssetUpdated, model.Asset{ID: "a1", UserID: "u1", Name: "Savings"}, "u1")
	bus.Emit(ctx, event.TypePreferencesUpdated, model.Preferences{UserID: "u1", Currency: "EUR"}, "u1")

	var first, second Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))

	assert.Equal(t, MessageChange, first.Type)
	require.NotNil(t, first.Change)
	assert.Equal(t, event.TypeAssetUpdated, first.Change.Event)
	assert.Equal(t, "a1", first.Change.Data.(map[string]any)["id"])

	require.NotNil(t, second.Change)
	assert.Equal(t, event.TypePreferencesUpdated, second.Change.Event)
	assert.Equal(t, "EUR", second.Change.Data.(map[string]any)["currency"])
}

func TestHub_CheckOrigin(t *testing.T) {
	dial := func(t *testing.T, origins []string, origin string) (*http.Response, error) {
		t.Helper()

		_, _, url := newHubServer(t, model.AuthUser{ID: "u1"}, origins)
		header := http.Header{}
		if origin != "" {
			header.Set("Origin", origin)
		}
		conn, resp, err := websocket.DefaultDialer.Dial(url, header)
		if conn != nil {
			t.Cleanup(func() { _ = conn.Close() })
		}
		return resp, err
	}

	t.Run("listed origin", func(t *testing.T) {
		_, err := dial(t, []string{"https://app.example"}, "https://app.example")
		assert.NoError(t, err)
	})

	t.Run("unlisted origin is forbidden", func(t *testing.T) {
		resp, err := dial(t, []string{"https://app.example"}, "https://evil.example")
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("wildcard", func(t *testing.T) {
		_, err := dial(t, []string{"*"}, "https://anything.example")
		assert.NoError(t, err)
	})

	t.Run("no origin header", func(t *testing.T) {
		_, err := dial(t, []string{"https://app.example"}, "")
		assert.NoError(t, err)
	})
}
