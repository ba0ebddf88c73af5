package toast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-dashboard/internal/event"
	"finance-dashboard/internal/model"
)

func notice(remaining int) model.DeletionNotice {
	return model.DeletionNotice{
		SessionID:        "s-1",
		Target:           model.DeletionTarget{Kind: model.KindAsset, ID: "a-1", Name: "Brokerage"},
		State:            model.DeletionPending,
		RemainingSeconds: remaining,
		Progress:         0.4,
	}
}

func TestRender(t *testing.T) {
	t.Run("pending offers undo and commit", func(t *testing.T) {
		view, ok := Render(event.Event{Type: event.TypeDeletionProgress, Payload: notice(3)})
		require.True(t, ok)

		assert.Equal(t, "asset:a-1", view.ID)
		assert.Equal(t, VariantPending, view.Variant)
		assert.Equal(t, "Deleting asset", view.Title)
		assert.Equal(t, `"Brokerage" will be deleted in 3 seconds.`, view.Message)
		assert.Equal(t, []Action{ActionUndo, ActionCommit}, view.Actions)
		assert.Equal(t, 0.4, view.Progress)
		assert.False(t, view.Dismiss)
	})

	t.Run("singular second", func(t *testing.T) {
		view, ok := Render(event.Event{Type: event.TypeDeletionPending, Payload: notice(1)})
		require.True(t, ok)
		assert.Equal(t, `"Brokerage" will be deleted in 1 second.`, view.Message)
	})

	t.Run("terminal notices carry no actions", func(t *testing.T) {
		cases := map[event.Type]Variant{
			event.TypeDeletionRestored:  VariantSuccess,
			event.TypeDeletionCommitted: VariantSuccess,
			event.TypeDeletionInfo:      VariantInfo,
			event.TypeDeletionFailed:    VariantError,
		}
		for topic, variant := range cases {
			view, ok := Render(event.Event{Type: topic, Payload: notice(0)})
			require.True(t, ok, topic)
			assert.Equal(t, variant, view.Variant, topic)
			assert.Empty(t, view.Actions, topic)
			assert.True(t, view.Dismiss, topic)
		}
	})

	t.Run("failure includes the reason", func(t *testing.T) {
		n := notice(0)
		n.Message = "connection reset"
		view, ok := Render(event.Event{Type: event.TypeDeletionFailed, Payload: n})
		require.True(t, ok)
		assert.Equal(t, `"Brokerage" could not be deleted: connection reset.`, view.Message)
	})

	t.Run("falls back to the id when the name is empty", func(t *testing.T) {
		n := notice(0)
		n.Target.Name = ""
		view, ok := Render(event.Event{Type: event.TypeDeletionRestored, Payload: n})
		require.True(t, ok)
		assert.Equal(t, `"a-1" was restored.`, view.Message)
	})

	t.Run("superseded and foreign events are not shown", func(t *testing.T) {
		_, ok := Render(event.Event{Type: event.TypeDeletionSuperseded, Payload: notice(0)})
		assert.False(t, ok)

		_, ok = Render(event.Event{Type: event.TypeAssetCreated, Payload: "x"})
		assert.False(t, ok)
	})
}
