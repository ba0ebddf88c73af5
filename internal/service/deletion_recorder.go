package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"finance-dashboard/internal/event"
	"finance-dashboard/internal/model"
)

type deletionLogWriter interface {
	Create(ctx context.Context, entry model.DeletionLogEntry) error
}

// DeletionRecorder writes every finished deletion session to the history log.
type DeletionRecorder struct {
	log    deletionLogWriter
	logger *slog.Logger
}

func NewDeletionRecorder(log deletionLogWriter, logger *slog.Logger) *DeletionRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeletionRecorder{log: log, logger: logger}
}

var recordedTypes = []event.Type{
	event.TypeDeletionRestored,
	event.TypeDeletionCommitted,
	event.TypeDeletionInfo,
	event.TypeDeletionFailed,
	event.TypeDeletionSuperseded,
}

// Attach subscribes the recorder to the terminal deletion topics.
func (r *DeletionRecorder) Attach(bus event.Bus) []*event.Subscription {
	subs := make([]*event.Subscription, 0, len(recordedTypes))
	for _, topic := range recordedTypes {
		subs = append(subs, bus.Subscribe(topic, r.Handle))
	}
	return subs
}

func (r *DeletionRecorder) Handle(ctx context.Context, e event.Event) error {
	notice, ok := e.Payload.(model.DeletionNotice)
	if !ok {
		return fmt.Errorf("unexpected payload %T on %s", e.Payload, e.Type)
	}

	occurredAt, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		occurredAt = time.Now().UTC()
	}

	detail := notice.Message
	if notice.AlreadyRemoved && detail == "" {
		detail = "already removed"
	}

	entry := model.DeletionLogEntry{
		ID:         uuid.NewString(),
		SessionID:  notice.SessionID,
		Kind:       notice.Target.Kind,
		TargetID:   notice.Target.ID,
		TargetName: notice.Target.Name,
		Outcome:    notice.Outcome,
		Detail:     detail,
		ActorID:    notice.ActorID,
		OccurredAt: occurredAt,
	}
	if err := r.log.Create(ctx, entry); err != nil {
		return fmt.Errorf("record deletion %s: %w", notice.Target.Key(), err)
	}

	r.logger.Debug("deletion recorded", "target", notice.Target.Key(), "outcome", entry.Outcome)
	return nil
}
