// Package deletion runs the soft-delete confirmation flow: a record is hidden
// immediately, a countdown gives the user a window to undo, and the record is
// permanently removed when the window closes or the user commits early.
package deletion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"finance-dashboard/internal/event"
	"finance-dashboard/internal/model"
)

const (
	DefaultWindow        = 5 * time.Second
	DefaultTick          = 100 * time.Millisecond
	DefaultCommitTimeout = 10 * time.Second
)

// Store is the domain store a target lives in.
type Store interface {
	// SoftDelete toggles the hidden flag on the record.
	SoftDelete(ctx context.Context, id string, deleted bool) error
	// PermanentlyDelete removes the record. It returns an error wrapping
	// model.ErrNotFound when the record is already gone.
	PermanentlyDelete(ctx context.Context, id string) error
}

type Options struct {
	Window        time.Duration
	Tick          time.Duration
	CommitTimeout time.Duration
	Clock         Clock
	Logger        *slog.Logger
}

type session struct {
	id        string
	target    model.DeletionTarget
	actorID   string
	store     Store
	startedAt time.Time

	// guarded by Controller.mu
	countdown Timer
	ticker    Timer
}

// Controller owns every pending deletion. At most one session exists per
// target; timer callbacks check that their session is still the current one
// under the lock before doing anything, so a stopped or superseded timer that
// already fired is inert.
type Controller struct {
	mu       sync.Mutex
	stores   map[model.DeletionKind]Store
	sessions map[string]*session
	closed   bool
	outbox   []notice

	// held while draining outbox so notices leave in the order they were
	// queued under mu
	emitMu sync.Mutex

	window        time.Duration
	tick          time.Duration
	commitTimeout time.Duration
	clock         Clock
	bus           event.Publisher
	logger        *slog.Logger
}

func NewController(bus event.Publisher, opts Options) *Controller {
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	if opts.CommitTimeout <= 0 {
		opts.CommitTimeout = DefaultCommitTimeout
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Controller{
		stores:        map[model.DeletionKind]Store{},
		sessions:      map[string]*session{},
		window:        opts.Window,
		tick:          opts.Tick,
		commitTimeout: opts.CommitTimeout,
		clock:         opts.Clock,
		bus:           bus,
		logger:        opts.Logger.With("component", "deletion"),
	}
}

// Register binds the store used for targets of kind. A nil store unregisters.
func (c *Controller) Register(kind model.DeletionKind, store Store) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if store == nil {
		delete(c.stores, kind)
		return
	}
	c.stores[kind] = store
}

func (c *Controller) Window() time.Duration { return c.window }

// Start hides the target and begins its countdown. A pending session for the
// same target is cancelled first and reported as superseded.
//
// The store's SoftDelete runs under the controller lock so that cancelling the
// old session and applying the flag for the new one cannot interleave with
// another Start or an Undo for the same target.
func (c *Controller) Start(ctx context.Context, target model.DeletionTarget, actorID string) (model.DeletionSession, error) {
	target.ID = strings.TrimSpace(target.ID)
	target.Name = strings.TrimSpace(target.Name)
	if target.ID == "" {
		return model.DeletionSession{}, model.ErrMissingIdentifier
	}
	if target.Name == "" {
		target.Name = target.ID
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return model.DeletionSession{}, model.ErrControllerClosed
	}

	store, ok := c.stores[target.Kind]
	if !ok {
		c.mu.Unlock()
		return model.DeletionSession{}, fmt.Errorf("%w: %q", model.ErrStoreUnavailable, target.Kind)
	}

	now := c.clock.Now()
	if prev, exists := c.sessions[target.Key()]; exists {
		c.stopLocked(prev)
		prevSnap := c.snapshot(prev, now, model.DeletionIdle, model.OutcomeSuperseded)
		c.queueLocked(ctx, c.noticeFor(event.TypeDeletionSuperseded, prevSnap, ""))
		c.logger.Info("deletion superseded", "target", target.Key(), "session_id", prev.id)
	}

	s := &session{
		id:        uuid.NewString(),
		target:    target,
		actorID:   actorID,
		store:     store,
		startedAt: now,
	}

	if err := store.SoftDelete(ctx, target.ID, true); err != nil {
		snap := c.snapshot(s, now, model.DeletionIdle, model.OutcomeFailed)
		c.queueLocked(ctx, c.noticeFor(event.TypeDeletionFailed, snap, "delete failed: "+err.Error()))
		c.mu.Unlock()
		c.flush()
		c.logger.Error("soft delete failed", "target", target.Key(), "error", err)
		return model.DeletionSession{}, fmt.Errorf("soft delete %s: %w", target.Key(), err)
	}

	s.countdown = c.clock.AfterFunc(c.window, func() { c.expire(s) })
	s.ticker = c.clock.AfterFunc(c.tick, func() { c.onTick(s) })
	c.sessions[target.Key()] = s

	snap := c.snapshot(s, now, model.DeletionPending, model.OutcomeNone)
	c.queueLocked(ctx, c.noticeFor(event.TypeDeletionPending, snap, ""))
	c.mu.Unlock()

	c.logger.Info("deletion pending", "target", target.Key(), "session_id", s.id, "window", c.window)
	c.flush()
	return snap, nil
}

// Undo restores a pending target. No permanent delete is issued. The flag is
// cleared under the controller lock, so a Start for the same target lands
// either before the undo (and is the session undone) or after the restore.
func (c *Controller) Undo(ctx context.Context, kind model.DeletionKind, id string) (model.DeletionSession, error) {
	c.mu.Lock()
	s, err := c.takeLocked(kind, id)
	if err != nil {
		c.mu.Unlock()
		return model.DeletionSession{}, err
	}

	now := c.clock.Now()
	if err := s.store.SoftDelete(ctx, s.target.ID, false); err != nil {
		snap := c.snapshot(s, now, model.DeletionIdle, model.OutcomeFailed)
		c.queueLocked(ctx, c.noticeFor(event.TypeDeletionFailed, snap, "restore failed: "+err.Error()))
		c.mu.Unlock()
		c.flush()
		c.logger.Error("undo failed", "target", s.target.Key(), "session_id", s.id, "error", err)
		return snap, fmt.Errorf("restore %s: %w", s.target.Key(), err)
	}

	snap := c.snapshot(s, now, model.DeletionUndone, model.OutcomeUndone)
	c.queueLocked(ctx, c.noticeFor(event.TypeDeletionRestored, snap, ""))
	c.mu.Unlock()

	c.flush()
	c.logger.Info("deletion undone", "target", s.target.Key(), "session_id", s.id)
	return snap, nil
}

// ForceCommit ends the countdown early and permanently deletes the target.
func (c *Controller) ForceCommit(ctx context.Context, kind model.DeletionKind, id string) (model.DeletionSession, error) {
	c.mu.Lock()
	s, err := c.takeLocked(kind, id)
	c.mu.Unlock()
	if err != nil {
		return model.DeletionSession{}, err
	}

	return c.commit(ctx, s, "forced")
}

// Active returns snapshots of all pending sessions, oldest first.
func (c *Controller) Active() []model.DeletionSession {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	out := make([]model.DeletionSession, 0, len(c.sessions))
	for _, s := range c.sessions {
		out = append(out, c.snapshot(s, now, model.DeletionPending, model.OutcomeNone))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].Target.Key() < out[j].Target.Key()
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

func (c *Controller) Get(kind model.DeletionKind, id string) (model.DeletionSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[model.DeletionTarget{Kind: kind, ID: strings.TrimSpace(id)}.Key()]
	if !ok {
		return model.DeletionSession{}, false
	}
	return c.snapshot(s, c.clock.Now(), model.DeletionPending, model.OutcomeNone), true
}

// Close cancels every countdown without committing. Targets that were pending
// stay soft-deleted. Start fails with ErrControllerClosed afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true

	for _, s := range c.sessions {
		c.stopLocked(s)
	}
	if pending := len(c.sessions); pending > 0 {
		c.logger.Warn("deletion controller closed with pending sessions", "pending", pending)
	}
	clear(c.sessions)
}

// takeLocked removes the pending session for (kind, id) and stops its timers.
func (c *Controller) takeLocked(kind model.DeletionKind, id string) (*session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, model.ErrMissingIdentifier
	}

	s, ok := c.sessions[model.DeletionTarget{Kind: kind, ID: id}.Key()]
	if !ok {
		return nil, fmt.Errorf("%w: %s:%s", model.ErrNoPendingSession, kind, id)
	}
	c.stopLocked(s)
	return s, nil
}

func (c *Controller) onTick(s *session) {
	c.mu.Lock()
	if !c.currentLocked(s) {
		c.mu.Unlock()
		return
	}

	now := c.clock.Now()
	if c.window-now.Sub(s.startedAt) <= 0 {
		c.stopLocked(s)
		c.mu.Unlock()
		_, _ = c.commit(context.Background(), s, "expired")
		return
	}

	s.ticker = c.clock.AfterFunc(c.tick, func() { c.onTick(s) })
	snap := c.snapshot(s, now, model.DeletionPending, model.OutcomeNone)
	c.queueLocked(context.Background(), c.noticeFor(event.TypeDeletionProgress, snap, ""))
	c.mu.Unlock()

	c.flush()
}

func (c *Controller) expire(s *session) {
	c.mu.Lock()
	if !c.currentLocked(s) {
		c.mu.Unlock()
		return
	}
	c.stopLocked(s)
	c.mu.Unlock()

	_, _ = c.commit(context.Background(), s, "expired")
}

// commit runs the permanent delete for a session that has already been
// removed from the table.
func (c *Controller) commit(ctx context.Context, s *session, reason string) (model.DeletionSession, error) {
	deleteCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.commitTimeout)
	defer cancel()

	err := s.store.PermanentlyDelete(deleteCtx, s.target.ID)
	now := c.clock.Now()

	switch {
	case err == nil:
		snap := c.snapshot(s, now, model.DeletionCommitted, model.OutcomeCommitted)
		c.emit(ctx, c.noticeFor(event.TypeDeletionCommitted, snap, ""))
		c.logger.Info("deletion committed", "target", s.target.Key(), "session_id", s.id, "reason", reason)
		return snap, nil

	case errors.Is(err, model.ErrNotFound):
		snap := c.snapshot(s, now, model.DeletionCommitted, model.OutcomeCommitted)
		snap.AlreadyRemoved = true
		c.emit(ctx, c.noticeFor(event.TypeDeletionInfo, snap, "already removed"))
		c.logger.Info("deletion target already removed", "target", s.target.Key(), "session_id", s.id)
		return snap, nil

	default:
		snap := c.snapshot(s, now, model.DeletionIdle, model.OutcomeFailed)
		c.emit(ctx, c.noticeFor(event.TypeDeletionFailed, snap, err.Error()))
		c.logger.Error("permanent delete failed", "target", s.target.Key(), "session_id", s.id, "reason", reason, "error", err)
		return snap, fmt.Errorf("permanently delete %s: %w", s.target.Key(), err)
	}
}

func (c *Controller) currentLocked(s *session) bool {
	return c.sessions[s.target.Key()] == s
}

func (c *Controller) stopLocked(s *session) {
	if s.countdown != nil {
		s.countdown.Stop()
	}
	if s.ticker != nil {
		s.ticker.Stop()
	}
	if c.currentLocked(s) {
		delete(c.sessions, s.target.Key())
	}
}

func (c *Controller) snapshot(s *session, now time.Time, state model.DeletionState, outcome model.DeletionOutcome) model.DeletionSession {
	elapsed := now.Sub(s.startedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := c.window - elapsed
	if remaining < 0 || state != model.DeletionPending {
		remaining = 0
	}

	return model.DeletionSession{
		ID:          s.id,
		Target:      s.target,
		State:       state,
		Outcome:     outcome,
		StartedAt:   s.startedAt,
		Window:      c.window,
		WindowMS:    c.window.Milliseconds(),
		ElapsedMS:   elapsed.Milliseconds(),
		RemainingMS: remaining.Milliseconds(),
		ActorID:     s.actorID,
	}
}

type notice struct {
	ctx     context.Context
	topic   event.Type
	payload model.DeletionNotice
	actorID string
}

func (c *Controller) noticeFor(topic event.Type, snap model.DeletionSession, message string) notice {
	progress := 1.0
	if snap.State == model.DeletionPending && snap.WindowMS > 0 {
		progress = float64(snap.ElapsedMS) / float64(snap.WindowMS)
		progress = min(max(progress, 0), 1)
	}

	return notice{
		topic:   topic,
		actorID: snap.ActorID,
		payload: model.DeletionNotice{
			SessionID:        snap.ID,
			Target:           snap.Target,
			State:            snap.State,
			Outcome:          snap.Outcome,
			RemainingMS:      snap.RemainingMS,
			RemainingSeconds: snap.RemainingSeconds(),
			Progress:         progress,
			AlreadyRemoved:   snap.AlreadyRemoved,
			Message:          message,
			ActorID:          snap.ActorID,
		},
	}
}

func (c *Controller) queueLocked(ctx context.Context, n notice) {
	n.ctx = context.WithoutCancel(ctx)
	c.outbox = append(c.outbox, n)
}

func (c *Controller) emit(ctx context.Context, n notice) {
	c.mu.Lock()
	c.queueLocked(ctx, n)
	c.mu.Unlock()
	c.flush()
}

// flush drains the outbox onto the bus. It must be called without c.mu held:
// handlers may call back into the controller. A caller that finds another
// flush running leaves its notices to it; that flush rechecks the outbox
// after releasing emitMu, so nothing queued before the recheck is stranded.
func (c *Controller) flush() {
	for {
		if !c.emitMu.TryLock() {
			return
		}
		c.drain()
		c.emitMu.Unlock()

		c.mu.Lock()
		idle := len(c.outbox) == 0
		c.mu.Unlock()
		if idle {
			return
		}
	}
}

func (c *Controller) drain() {
	for {
		c.mu.Lock()
		batch := c.outbox
		c.outbox = nil
		c.mu.Unlock()

		if len(batch) == 0 {
			return
		}
		if c.bus == nil {
			continue
		}
		for _, n := range batch {
			c.bus.Emit(n.ctx, n.topic, n.payload, n.actorID)
		}
	}
}
