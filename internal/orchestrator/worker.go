package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/aura-core/internal/dialogue"
	"github.com/seu-repo/aura-core/internal/domain"
	"github.com/seu-repo/aura-core/internal/observability/telemetry"
)

// ErrQueueFull is returned when a session's FIFO queue is at capacity. The
// caller may retry; ordering for accepted events is unaffected.
var ErrQueueFull = errors.New("orchestrator: session event queue full")

type job struct {
	evt      domain.TranscriptEvent
	resultCh chan jobResult
}

type jobResult struct {
	outcome domain.TurnOutcome
	err     error
}

// sessionWorker serializes all events for one session: a bounded FIFO
// channel drained by a single goroutine. Events for different sessions run
// fully in parallel; within a session, arrival order is processing order.
// Model-backed calls happen on this goroutine without any shared lock held,
// so they only delay this session's queue.
type sessionWorker struct {
	sessionID string
	orch      *Orchestrator
	machine   *dialogue.Machine

	jobs       chan *job
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	lastActive atomic.Int64

	log *zap.Logger
}

func newSessionWorker(orch *Orchestrator, evt domain.TranscriptEvent) *sessionWorker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &sessionWorker{
		sessionID: evt.SessionID,
		orch:      orch,
		jobs:      make(chan *job, orch.cfg.QueueCapacity),
		ctx:       ctx,
		cancel:    cancel,
		log:       orch.log.With(zap.String("session_id", evt.SessionID)),
	}
	w.lastActive.Store(orch.now().UnixNano())

	w.wg.Add(1)
	go w.run(evt)
	return w
}

// dispatch enqueues one event and waits for its outcome. FIFO is guaranteed
// by the channel; a full queue rejects rather than blocks so one stuck
// session cannot back-pressure its producers forever.
func (w *sessionWorker) dispatch(ctx context.Context, evt domain.TranscriptEvent) (domain.TurnOutcome, error) {
	j := &job{evt: evt, resultCh: make(chan jobResult, 1)}

	select {
	case w.jobs <- j:
	case <-w.ctx.Done():
		return domain.TurnOutcome{}, errors.New("orchestrator: session closed")
	default:
		telemetry.DroppedEventsTotal.Inc()
		return domain.TurnOutcome{}, ErrQueueFull
	}

	select {
	case res := <-j.resultCh:
		return res.outcome, res.err
	case <-ctx.Done():
		return domain.TurnOutcome{}, ctx.Err()
	case <-w.ctx.Done():
		return domain.TurnOutcome{}, errors.New("orchestrator: session closed")
	}
}

func (w *sessionWorker) run(first domain.TranscriptEvent) {
	defer w.wg.Done()

	// Session materialization happens on the worker goroutine so that two
	// concurrent first events cannot race on the snapshot load.
	session := w.orch.materialize(w.ctx, first)
	w.machine = dialogue.NewMachine(
		session,
		w.orch.registry,
		w.orch.classifier,
		w.orch.extractor,
		w.orch.confirmer,
		w.orch.fallback,
		w.orch.cfg.Dialogue,
		w.log,
	).WithClock(w.orch.now)

	for {
		select {
		case <-w.ctx.Done():
			return
		case j := <-w.jobs:
			res := w.handle(j.evt)
			j.resultCh <- res
		}
	}
}

func (w *sessionWorker) handle(evt domain.TranscriptEvent) jobResult {
	start := w.orch.now()
	w.lastActive.Store(start.UnixNano())

	ctx, cancel := context.WithTimeout(w.ctx, w.orch.cfg.TurnTimeout)
	defer cancel()

	// Redelivery of an already-processed event id is a no-op: replay the
	// recorded outcome without touching dialogue state.
	if evt.EventID != "" {
		if outcome, err := w.orch.store.LookupOutcome(ctx, evt.EventID); err == nil && outcome != nil {
			telemetry.DuplicateEventsTotal.Inc()
			w.log.Debug("Replaying outcome for duplicate event", zap.String("event_id", evt.EventID))
			return jobResult{outcome: *outcome}
		}
	}

	session := w.machine.Session()
	session.Touch(start, w.orch.cfg.SessionTTL)

	if w.machine.ExpireIfStale(start) {
		telemetry.StateTimeoutsTotal.Inc()
	}

	res, err := w.machine.HandleUtterance(ctx, evt.Text)
	if err != nil {
		w.log.Error("Turn failed", zap.String("event_id", evt.EventID), zap.Error(err))
		return jobResult{err: err}
	}

	elapsed := w.orch.now().Sub(start)
	w.record(ctx, evt, res, elapsed)

	return jobResult{outcome: res.Outcome}
}

// record persists the snapshot, dedup marker and audit row, then hands the
// outcome to the composer. None of these may fail the already-decided turn.
func (w *sessionWorker) record(ctx context.Context, evt domain.TranscriptEvent, res dialogue.Result, elapsed time.Duration) {
	session := w.machine.Session()

	if err := w.orch.store.Save(ctx, session); err != nil {
		w.log.Error("Failed to persist session snapshot", zap.Error(err))
	}
	if evt.EventID != "" {
		if err := w.orch.store.MarkProcessed(ctx, evt.EventID, res.Outcome); err != nil {
			w.log.Error("Failed to mark event processed", zap.String("event_id", evt.EventID), zap.Error(err))
		}
	}

	if w.orch.turns != nil {
		rec := &domain.TurnRecord{
			ID:           uuid.NewString(),
			SessionID:    session.ID,
			EventID:      evt.EventID,
			RoomName:     session.RoomName,
			UserID:       session.UserID,
			Utterance:    evt.Text,
			Outcome:      res.Outcome.Kind,
			ResponseText: res.Outcome.Text,
			LatencyMs:    elapsed.Milliseconds(),
			CreatedAt:    w.orch.now(),
		}
		if res.Intent != nil {
			rec.Intent = res.Intent.Name
			rec.Confidence = res.Intent.Confidence
		}
		if err := w.orch.turns.Save(ctx, rec); err != nil {
			w.log.Error("Failed to persist turn record", zap.Error(err))
		}
	}

	if w.orch.composer != nil {
		w.orch.composer.Compose(session, res.Outcome)
	}

	intentLabel := "none"
	if res.Intent != nil {
		intentLabel = res.Intent.Name
	}
	telemetry.TurnsTotal.WithLabelValues(intentLabel, string(res.Outcome.Kind)).Inc()
	telemetry.DispatchLatency.Observe(elapsed.Seconds())
	switch res.Reason {
	case dialogue.ReasonLowConfidence:
		telemetry.FallbacksTotal.WithLabelValues("low_confidence").Inc()
	case dialogue.ReasonClassifierDown:
		telemetry.FallbacksTotal.WithLabelValues("classifier_unavailable").Inc()
	case dialogue.ReasonUnresolvableIntent:
		telemetry.FallbacksTotal.WithLabelValues("unresolvable_intent").Inc()
		telemetry.UnresolvableIntentsTotal.WithLabelValues(intentLabel).Inc()
	}
}

func (w *sessionWorker) lastActiveAt() time.Time {
	return time.Unix(0, w.lastActive.Load())
}

func (w *sessionWorker) stop() {
	w.cancel()
	w.wg.Wait()
}
