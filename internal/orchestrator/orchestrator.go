package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/aura-core/internal/composer"
	"github.com/seu-repo/aura-core/internal/dialogue"
	"github.com/seu-repo/aura-core/internal/domain"
	"github.com/seu-repo/aura-core/internal/observability/telemetry"
	"github.com/seu-repo/aura-core/internal/ports"
	"github.com/seu-repo/aura-core/internal/skill"
)

var (
	ErrSessionNotFound = errors.New("orchestrator: session not found")
	ErrEmptyEvent      = errors.New("orchestrator: event needs a session id and text")
)

// Config holds the orchestrator's operational tuning. Everything here comes
// from the config file; the defaults live in pkg/config.
type Config struct {
	Dialogue      dialogue.Config
	SessionTTL    time.Duration
	SweepInterval time.Duration
	QueueCapacity int
	// TurnTimeout bounds one full orchestration cycle including model
	// calls; it is wider than the skill handler timeout inside it.
	TurnTimeout time.Duration
}

// Orchestrator owns one dialogue state machine per active session and routes
// inbound transcript events to it. The workers map is the only shared
// mutable structure; everything per-session is touched solely by that
// session's worker goroutine.
type Orchestrator struct {
	registry   *skill.Registry
	classifier ports.IntentClassifier
	extractor  ports.SlotExtractor
	confirmer  ports.ConfirmationClassifier
	fallback   ports.FallbackGenerator
	store      ports.SessionStore
	turns      ports.TurnRepository
	composer   *composer.Composer
	cfg        Config
	log        *zap.Logger
	now        func() time.Time

	mu      sync.RWMutex
	workers map[string]*sessionWorker
}

func New(
	registry *skill.Registry,
	classifier ports.IntentClassifier,
	extractor ports.SlotExtractor,
	confirmer ports.ConfirmationClassifier,
	fallback ports.FallbackGenerator,
	store ports.SessionStore,
	turns ports.TurnRepository,
	comp *composer.Composer,
	cfg Config,
	log *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		registry:   registry,
		classifier: classifier,
		extractor:  extractor,
		confirmer:  confirmer,
		fallback:   fallback,
		store:      store,
		turns:      turns,
		composer:   comp,
		cfg:        cfg,
		log:        log,
		now:        time.Now,
		workers:    make(map[string]*sessionWorker),
	}
}

// WithClock overrides the orchestrator's clock. Test hook.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Dispatch routes one transcript event to its session's worker, creating the
// worker on first sight of the session id, and waits for the turn outcome.
func (o *Orchestrator) Dispatch(ctx context.Context, evt domain.TranscriptEvent) (domain.TurnOutcome, error) {
	if evt.SessionID == "" || evt.Text == "" {
		return domain.TurnOutcome{}, ErrEmptyEvent
	}
	if evt.EventID == "" {
		evt.EventID = uuid.NewString()
	}

	w := o.worker(evt)
	return w.dispatch(ctx, evt)
}

// worker returns the session's worker, creating it under the registry lock
// so concurrent first events yield exactly one instance.
func (o *Orchestrator) worker(evt domain.TranscriptEvent) *sessionWorker {
	o.mu.RLock()
	w, ok := o.workers[evt.SessionID]
	o.mu.RUnlock()
	if ok {
		return w
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if w, ok = o.workers[evt.SessionID]; ok {
		return w
	}
	w = newSessionWorker(o, evt)
	o.workers[evt.SessionID] = w
	telemetry.ActiveSessions.Set(float64(len(o.workers)))
	o.log.Info("Session created",
		zap.String("session_id", evt.SessionID),
		zap.String("room", evt.RoomName),
	)
	return w
}

// materialize restores a snapshotted session or starts a fresh Idle one.
// Runs on the worker goroutine.
func (o *Orchestrator) materialize(ctx context.Context, evt domain.TranscriptEvent) *domain.Session {
	if session, err := o.store.Load(ctx, evt.SessionID); err == nil && session != nil {
		o.log.Info("Session restored from snapshot",
			zap.String("session_id", session.ID),
			zap.String("state", string(session.State)),
		)
		return session
	}
	return domain.NewSession(evt.SessionID, evt.RoomName, evt.UserID, evt.Language, o.now(), o.cfg.SessionTTL)
}

// HandleRoomEvent terminates the session for a room lifecycle signal,
// whatever dialogue state it is in.
func (o *Orchestrator) HandleRoomEvent(ctx context.Context, evt domain.RoomEvent) {
	if evt.SessionID == "" {
		return
	}
	o.EndSession(ctx, evt.SessionID, string(evt.Type))
}

// EndSession stops the session's worker and discards its snapshot.
func (o *Orchestrator) EndSession(ctx context.Context, sessionID, reason string) {
	o.mu.Lock()
	w, ok := o.workers[sessionID]
	if ok {
		delete(o.workers, sessionID)
		telemetry.ActiveSessions.Set(float64(len(o.workers)))
	}
	o.mu.Unlock()
	if !ok {
		return
	}

	w.stop()
	if err := o.store.Delete(ctx, sessionID); err != nil {
		o.log.Error("Failed to delete session snapshot", zap.String("session_id", sessionID), zap.Error(err))
	}
	telemetry.SessionsEvictedTotal.WithLabelValues(reason).Inc()
	o.log.Info("Session ended",
		zap.String("session_id", sessionID),
		zap.String("reason", reason),
	)
}

// Run drives the periodic TTL sweep until ctx is done. Sessions inactive
// beyond their TTL are evicted regardless of dialogue state; a confirmation
// prompt that went silent must not leak forever.
func (o *Orchestrator) Run(ctx context.Context) {
	ticker := time.NewTicker(o.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.sweep(ctx)
		}
	}
}

func (o *Orchestrator) sweep(ctx context.Context) {
	cutoff := o.now().Add(-o.cfg.SessionTTL)

	o.mu.RLock()
	var stale []string
	for id, w := range o.workers {
		if w.lastActiveAt().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	o.mu.RUnlock()

	for _, id := range stale {
		o.EndSession(ctx, id, "ttl")
	}
	if len(stale) > 0 {
		o.log.Info("Idle session sweep completed", zap.Int("evicted", len(stale)))
	}
}

// SessionSnapshot exposes the last persisted state of a session for the
// inspection API. Reads the store, never the live machine, to stay off the
// worker's single-writer path.
func (o *Orchestrator) SessionSnapshot(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := o.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// ActiveSessionCount reports the number of live workers.
func (o *Orchestrator) ActiveSessionCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.workers)
}

// Shutdown stops every worker, persisting nothing beyond what each turn
// already wrote.
func (o *Orchestrator) Shutdown() {
	o.mu.Lock()
	workers := o.workers
	o.workers = make(map[string]*sessionWorker)
	o.mu.Unlock()

	for _, w := range workers {
		w.stop()
	}
	telemetry.ActiveSessions.Set(0)
}
