package service

import (
	"context"
	"fmt"
	"strings"

	"finance-dashboard/internal/model"
	"finance-dashboard/pkg/apierror"
)

type deletionController interface {
	Start(ctx context.Context, target model.DeletionTarget, actorID string) (model.DeletionSession, error)
	Undo(ctx context.Context, kind model.DeletionKind, id string) (model.DeletionSession, error)
	ForceCommit(ctx context.Context, kind model.DeletionKind, id string) (model.DeletionSession, error)
	Active() []model.DeletionSession
	Get(kind model.DeletionKind, id string) (model.DeletionSession, bool)
}

// targetResolver checks ownership and names the record being deleted.
type targetResolver interface {
	Target(ctx context.Context, userID string, id string) (model.DeletionTarget, error)
}

type deletionLogReader interface {
	List(ctx context.Context, query model.DeletionLogQuery) ([]model.DeletionLogEntry, int, error)
}

// DeletionService exposes the deletion controller to users: it resolves and
// authorizes targets and scopes sessions to their owner.
type DeletionService struct {
	controller deletionController
	resolvers  map[model.DeletionKind]targetResolver
	history    deletionLogReader
}

func NewDeletionService(controller deletionController, history deletionLogReader) *DeletionService {
	return &DeletionService{
		controller: controller,
		resolvers:  map[model.DeletionKind]targetResolver{},
		history:    history,
	}
}

func (s *DeletionService) Resolve(kind model.DeletionKind, resolver targetResolver) {
	s.resolvers[kind] = resolver
}

func ParseKind(raw string) (model.DeletionKind, error) {
	kind := model.DeletionKind(strings.ToLower(strings.TrimSpace(raw)))
	switch kind {
	case model.KindAsset, model.KindTransaction:
		return kind, nil
	}
	return "", apierror.BadRequest("unknown deletion kind", raw)
}

func (s *DeletionService) Start(ctx context.Context, actor model.AuthUser, kind model.DeletionKind, id string) (model.DeletionSession, error) {
	if strings.TrimSpace(id) == "" {
		return model.DeletionSession{}, model.ErrMissingIdentifier
	}

	resolver, ok := s.resolvers[kind]
	if !ok {
		return model.DeletionSession{}, fmt.Errorf("%w: %q", model.ErrStoreUnavailable, kind)
	}

	target, err := resolver.Target(ctx, actor.ID, id)
	if err != nil {
		return model.DeletionSession{}, err
	}

	return s.controller.Start(ctx, target, actor.ID)
}

func (s *DeletionService) Undo(ctx context.Context, actor model.AuthUser, kind model.DeletionKind, id string) (model.DeletionSession, error) {
	if err := s.authorize(actor, kind, id); err != nil {
		return model.DeletionSession{}, err
	}
	return s.controller.Undo(ctx, kind, id)
}

func (s *DeletionService) Commit(ctx context.Context, actor model.AuthUser, kind model.DeletionKind, id string) (model.DeletionSession, error) {
	if err := s.authorize(actor, kind, id); err != nil {
		return model.DeletionSession{}, err
	}
	return s.controller.ForceCommit(ctx, kind, id)
}

// Active lists the actor's pending sessions. Admins see everyone's.
func (s *DeletionService) Active(actor model.AuthUser) []model.DeletionSession {
	all := s.controller.Active()
	if actor.Role == model.RoleAdmin {
		return all
	}

	own := make([]model.DeletionSession, 0, len(all))
	for _, session := range all {
		if session.ActorID == actor.ID {
			own = append(own, session)
		}
	}
	return own
}

// History returns finished sessions. Members only see their own; admins may
// filter by actor or see all.
func (s *DeletionService) History(ctx context.Context, actor model.AuthUser, query model.DeletionLogQuery) ([]model.DeletionLogEntry, int, error) {
	if actor.Role != model.RoleAdmin {
		query.ActorID = actor.ID
	}
	return s.history.List(ctx, query)
}

// authorize hides sessions owned by other users behind ErrNoPendingSession.
func (s *DeletionService) authorize(actor model.AuthUser, kind model.DeletionKind, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.ErrMissingIdentifier
	}

	session, ok := s.controller.Get(kind, id)
	if !ok {
		return fmt.Errorf("%w: %s:%s", model.ErrNoPendingSession, kind, id)
	}
	if session.ActorID != actor.ID && actor.Role != model.RoleAdmin {
		return fmt.Errorf("%w: %s:%s", model.ErrNoPendingSession, kind, id)
	}
	return nil
}
