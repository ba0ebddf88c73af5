package model

import "time"

// DeletionKind names the store a deletion target lives in.
type DeletionKind string

const (
	KindAsset       DeletionKind = "asset"
	KindTransaction DeletionKind = "transaction"
)

// DeletionTarget is the record a user asked to delete.
type DeletionTarget struct {
	Kind DeletionKind `json:"kind"`
	ID   string       `json:"id"`
	Name string       `json:"name"`
}

// Key identifies the target across kinds.
func (t DeletionTarget) Key() string {
	return string(t.Kind) + ":" + t.ID
}

type DeletionState string

const (
	DeletionIdle      DeletionState = "idle"
	DeletionPending   DeletionState = "pending"
	DeletionCommitted DeletionState = "committed"
	DeletionUndone    DeletionState = "undone"
)

type DeletionOutcome string

const (
	OutcomeNone       DeletionOutcome = ""
	OutcomeCommitted  DeletionOutcome = "committed"
	OutcomeUndone     DeletionOutcome = "undone"
	OutcomeSuperseded DeletionOutcome = "superseded"
	OutcomeFailed     DeletionOutcome = "failed"
)

// DeletionSession is a snapshot of one countdown.
type DeletionSession struct {
	ID             string          `json:"id"`
	Target         DeletionTarget  `json:"target"`
	State          DeletionState   `json:"state"`
	Outcome        DeletionOutcome `json:"outcome,omitempty"`
	StartedAt      time.Time       `json:"started_at"`
	Window         time.Duration   `json:"-"`
	WindowMS       int64           `json:"window_ms"`
	ElapsedMS      int64           `json:"elapsed_ms"`
	RemainingMS    int64           `json:"remaining_ms"`
	AlreadyRemoved bool            `json:"already_removed,omitempty"`
	ActorID        string          `json:"actor_id,omitempty"`
}

// RemainingSeconds rounds up so a countdown shows 1 until it actually ends.
func (s DeletionSession) RemainingSeconds() int {
	if s.RemainingMS <= 0 {
		return 0
	}
	return int((s.RemainingMS + 999) / 1000)
}

// DeletionNotice is the payload of every deletion.* event.
type DeletionNotice struct {
	SessionID        string          `json:"session_id"`
	Target           DeletionTarget  `json:"target"`
	State            DeletionState   `json:"state"`
	Outcome          DeletionOutcome `json:"outcome,omitempty"`
	RemainingMS      int64           `json:"remaining_ms"`
	RemainingSeconds int             `json:"remaining_seconds"`
	Progress         float64         `json:"progress"`
	AlreadyRemoved   bool            `json:"already_removed,omitempty"`
	Message          string          `json:"message,omitempty"`
	ActorID          string          `json:"actor_id,omitempty"`
}

// DeletionLogEntry is the persisted history of a finished session.
type DeletionLogEntry struct {
	ID         string          `json:"id"`
	SessionID  string          `json:"session_id"`
	Kind       DeletionKind    `json:"kind"`
	TargetID   string          `json:"target_id"`
	TargetName string          `json:"target_name"`
	Outcome    DeletionOutcome `json:"outcome"`
	Detail     string          `json:"detail,omitempty"`
	ActorID    string          `json:"actor_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

type DeletionLogQuery struct {
	ActorID string
	Kind    DeletionKind
	Outcome DeletionOutcome
	Page    int
	Limit   int
}
