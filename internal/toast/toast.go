// Package toast turns deletion notices into the transient notification shown
// to the user. Rendering is pure: a View is derived from a single notice and
// nothing is retained between calls.
package toast

import (
	"fmt"

	"finance-dashboard/internal/event"
	"finance-dashboard/internal/model"
)

type Variant string

const (
	VariantPending Variant = "pending"
	VariantSuccess Variant = "success"
	VariantInfo    Variant = "info"
	VariantError   Variant = "error"
)

type Action string

const (
	ActionUndo   Action = "undo"
	ActionCommit Action = "commit"
)

type View struct {
	// ID is stable for a target so clients replace the previous toast.
	ID               string               `json:"id"`
	SessionID        string               `json:"session_id"`
	Variant          Variant              `json:"variant"`
	Title            string               `json:"title"`
	Message          string               `json:"message"`
	Target           model.DeletionTarget `json:"target"`
	RemainingSeconds int                  `json:"remaining_seconds"`
	Progress         float64              `json:"progress"`
	Actions          []Action             `json:"actions,omitempty"`
	Dismiss          bool                 `json:"dismiss"`
}

// Render maps a deletion event to its toast. ok is false for events that have
// no visible representation.
func Render(e event.Event) (View, bool) {
	notice, ok := e.Payload.(model.DeletionNotice)
	if !ok {
		return View{}, false
	}

	name := notice.Target.Name
	if name == "" {
		name = notice.Target.ID
	}

	view := View{
		ID:               notice.Target.Key(),
		SessionID:        notice.SessionID,
		Target:           notice.Target,
		RemainingSeconds: notice.RemainingSeconds,
		Progress:         notice.Progress,
	}

	switch e.Type {
	case event.TypeDeletionPending, event.TypeDeletionProgress:
		view.Variant = VariantPending
		view.Title = "Deleting " + kindLabel(notice.Target.Kind)
		view.Message = fmt.Sprintf("%q will be deleted in %s.", name, seconds(notice.RemainingSeconds))
		view.Actions = []Action{ActionUndo, ActionCommit}
	case event.TypeDeletionRestored:
		view.Variant = VariantSuccess
		view.Title = "Restored"
		view.Message = fmt.Sprintf("%q was restored.", name)
		view.Dismiss = true
	case event.TypeDeletionCommitted:
		view.Variant = VariantSuccess
		view.Title = "Deleted"
		view.Message = fmt.Sprintf("%q was permanently deleted.", name)
		view.Dismiss = true
	case event.TypeDeletionInfo:
		view.Variant = VariantInfo
		view.Title = "Already deleted"
		view.Message = fmt.Sprintf("%q had already been removed.", name)
		view.Dismiss = true
	case event.TypeDeletionFailed:
		view.Variant = VariantError
		view.Title = "Deletion failed"
		view.Message = fmt.Sprintf("%q could not be deleted.", name)
		if notice.Message != "" {
			view.Message = fmt.Sprintf("%q could not be deleted: %s.", name, notice.Message)
		}
		view.Dismiss = true
	default:
		// Superseded sessions are replaced by the pending toast that follows.
		return View{}, false
	}

	return view, true
}

func kindLabel(kind model.DeletionKind) string {
	switch kind {
	case model.KindAsset:
		return "asset"
	case model.KindTransaction:
		return "transaction"
	}
	return "item"
}

func seconds(n int) string {
	if n == 1 {
		return "1 second"
	}
	return fmt.Sprintf("%d seconds", n)
}
