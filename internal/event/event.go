package event

import "context"

type Type string

const (
	TypeDeletionPending    Type = "deletion.pending"
	TypeDeletionProgress   Type = "deletion.progress"
	TypeDeletionRestored   Type = "deletion.restored"
	TypeDeletionCommitted  Type = "deletion.committed"
	TypeDeletionInfo       Type = "deletion.info"
	TypeDeletionFailed     Type = "deletion.failed"
	TypeDeletionSuperseded Type = "deletion.superseded"

	TypeAssetCreated       Type = "asset.created"
	TypeAssetUpdated       Type = "asset.updated"
	TypeTransactionCreated Type = "transaction.created"
	TypeTransactionUpdated Type = "transaction.updated"
	TypePreferencesUpdated Type = "preferences.updated"
)

// DeletionTypes lists every topic the deletion controller emits on.
var DeletionTypes = []Type{
	TypeDeletionPending,
	TypeDeletionProgress,
	TypeDeletionRestored,
	TypeDeletionCommitted,
	TypeDeletionInfo,
	TypeDeletionFailed,
	TypeDeletionSuperseded,
}

// RecordTypes are emitted after a user's records or settings change.
var RecordTypes = []Type{
	TypeAssetCreated,
	TypeAssetUpdated,
	TypeTransactionCreated,
	TypeTransactionUpdated,
	TypePreferencesUpdated,
}

type Event struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
	ActorID   string `json:"actor_id,omitempty"` // Who triggered the event
}

// Handler receives an event. A returned error is logged by the bus and does
// not stop delivery to later handlers.
type Handler func(ctx context.Context, e Event) error

type Publisher interface {
	Publish(ctx context.Context, e Event)
	Emit(ctx context.Context, topic Type, payload any, actorID string)
}

type Bus interface {
	Publisher
	Subscribe(topic Type, handler Handler) *Subscription
	Unsubscribe(topic Type, id string)
	Stream(buffer int, topics ...Type) (<-chan Event, func())
}
