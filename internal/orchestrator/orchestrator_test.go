package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/aura-core/internal/dialogue"
	"github.com/seu-repo/aura-core/internal/domain"
	"github.com/seu-repo/aura-core/internal/mocks"
	"github.com/seu-repo/aura-core/internal/skill"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func testConfig() Config {
	return Config{
		Dialogue: dialogue.Config{
			IntentThreshold:      0.70,
			StateTimeout:         30 * time.Second,
			HandlerTimeout:       5 * time.Second,
			ClassifyRetryBackoff: time.Millisecond,
			HistoryLimit:         20,
		},
		SessionTTL:    15 * time.Minute,
		SweepInterval: time.Minute,
		QueueCapacity: 16,
		TurnTimeout:   10 * time.Second,
	}
}

type fixture struct {
	engine *Orchestrator
	store  *mocks.MockSessionStore
	turns  *mocks.MockTurnRepository
}

func newFixture(t *testing.T, handler skill.HandlerFunc, cfg Config) *fixture {
	t.Helper()
	if handler == nil {
		handler = func(ctx context.Context, inv skill.Invocation) (string, error) {
			return "done", nil
		}
	}

	registry, err := skill.NewRegistry(newTestLogger(), skill.Descriptor{
		Name:        "lights_on",
		Description: "Turn on the lights",
		Examples:    []string{"turn on the lights"},
		Keywords:    []string{"lights"},
		Handler:     handler,
	})
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}

	classifier := &mocks.MockClassifier{
		ClassifyFunc: func(ctx context.Context, utterance string, history []domain.TurnEntry) (*domain.Intent, error) {
			return &domain.Intent{Name: "lights_on", Confidence: 0.9}, nil
		},
	}

	store := mocks.NewMockSessionStore()
	turns := mocks.NewMockTurnRepository()

	engine := New(registry, classifier, &mocks.MockExtractor{}, &mocks.MockConfirmer{}, &mocks.MockFallback{}, store, turns, nil, cfg, newTestLogger())
	return &fixture{engine: engine, store: store, turns: turns}
}

func event(sessionID, eventID, text string) domain.TranscriptEvent {
	return domain.TranscriptEvent{
		EventID:    eventID,
		SessionID:  sessionID,
		RoomName:   "room-1",
		UserID:     "user-1",
		Text:       text,
		Language:   "en-US",
		Confidence: 0.95,
	}
}

func TestDispatch_ExecutesAndPersists(t *testing.T) {
	// Arrange
	f := newFixture(t, nil, testConfig())
	defer f.engine.Shutdown()

	// Act
	outcome, err := f.engine.Dispatch(context.Background(), event("sess-1", "evt-1", "turn on the lights"))

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if outcome.Kind != domain.OutcomeExecute {
		t.Errorf("expected execute outcome, got %s", outcome.Kind)
	}

	snapshot, ok := f.store.StoredSession("sess-1")
	if !ok {
		t.Fatal("expected session snapshot persisted")
	}
	if snapshot.State != domain.StateIdle {
		t.Errorf("expected Idle snapshot, got %s", snapshot.State)
	}
	if len(f.turns.Records) != 1 {
		t.Fatalf("expected one turn record, got %d", len(f.turns.Records))
	}
	if f.turns.Records[0].Intent != "lights_on" {
		t.Errorf("expected intent recorded, got %q", f.turns.Records[0].Intent)
	}
}

func TestDispatch_RejectsEmptyEvent(t *testing.T) {
	// Arrange
	f := newFixture(t, nil, testConfig())
	defer f.engine.Shutdown()

	// Act / Assert
	if _, err := f.engine.Dispatch(context.Background(), event("", "evt-1", "hello")); err != ErrEmptyEvent {
		t.Errorf("expected ErrEmptyEvent for missing session id, got %v", err)
	}
	if _, err := f.engine.Dispatch(context.Background(), event("sess-1", "evt-1", "")); err != ErrEmptyEvent {
		t.Errorf("expected ErrEmptyEvent for missing text, got %v", err)
	}
}

func TestDispatch_DuplicateEventReplaysOutcome(t *testing.T) {
	// Arrange: count handler invocations; a redelivered event id must not
	// trigger a second execution.
	var invocations int
	var mu sync.Mutex
	f := newFixture(t, func(ctx context.Context, inv skill.Invocation) (string, error) {
		mu.Lock()
		invocations++
		mu.Unlock()
		return "done", nil
	}, testConfig())
	defer f.engine.Shutdown()

	first, err := f.engine.Dispatch(context.Background(), event("sess-1", "evt-dup", "turn on the lights"))
	if err != nil {
		t.Fatalf("first dispatch: %v", err)
	}

	// Act
	second, err := f.engine.Dispatch(context.Background(), event("sess-1", "evt-dup", "turn on the lights"))

	// Assert
	if err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if invocations != 1 {
		t.Errorf("expected exactly one handler invocation, got %d", invocations)
	}
	if second.Kind != first.Kind || second.Text != first.Text {
		t.Errorf("expected recorded outcome replayed, got %+v vs %+v", second, first)
	}
}

func TestDispatch_SerializesWithinSession(t *testing.T) {
	// Arrange: a slow handler plus concurrent senders. All events for one
	// session must run one at a time, never overlapping.
	var mu sync.Mutex
	var inFlight, maxInFlight int
	f := newFixture(t, func(ctx context.Context, inv skill.Invocation) (string, error) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()

		time.Sleep(10 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return "done", nil
	}, testConfig())
	defer f.engine.Shutdown()

	// Act
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := f.engine.Dispatch(context.Background(), event("sess-1", fmt.Sprintf("evt-%d", n), "turn on the lights"))
			if err != nil {
				t.Errorf("dispatch %d: %v", n, err)
			}
		}(i)
	}
	wg.Wait()

	// Assert
	if maxInFlight != 1 {
		t.Errorf("expected single-file execution per session, saw %d concurrent handlers", maxInFlight)
	}
	if len(f.turns.Records) != 8 {
		t.Errorf("expected 8 turn records, got %d", len(f.turns.Records))
	}
}

func TestDispatch_SessionsRunIndependently(t *testing.T) {
	// Arrange: one session's slow handler must not delay another session.
	release := make(chan struct{})
	f := newFixture(t, func(ctx context.Context, inv skill.Invocation) (string, error) {
		if inv.SessionID == "slow" {
			<-release
		}
		return "done", nil
	}, testConfig())
	defer f.engine.Shutdown()
	defer close(release)

	slowDone := make(chan struct{})
	go func() {
		f.engine.Dispatch(context.Background(), event("slow", "evt-slow", "turn on the lights"))
		close(slowDone)
	}()

	// Act: the fast session completes while the slow one is still blocked.
	done := make(chan struct{})
	go func() {
		f.engine.Dispatch(context.Background(), event("fast", "evt-fast", "turn on the lights"))
		close(done)
	}()

	// Assert
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("independent session was blocked by another session's handler")
	}
	select {
	case <-slowDone:
		t.Fatal("slow session should still be blocked")
	default:
	}
}

func TestDispatch_QueueFullRejects(t *testing.T) {
	// Arrange: capacity 1 and a handler that blocks until released. One
	// event occupies the worker, one fills the queue, the next is rejected.
	cfg := testConfig()
	cfg.QueueCapacity = 1

	started := make(chan struct{}, 4)
	release := make(chan struct{})
	f := newFixture(t, func(ctx context.Context, inv skill.Invocation) (string, error) {
		started <- struct{}{}
		<-release
		return "done", nil
	}, cfg)
	defer f.engine.Shutdown()

	go f.engine.Dispatch(context.Background(), event("sess-1", "evt-1", "turn on the lights"))
	<-started

	queued := make(chan struct{})
	go func() {
		close(queued)
		f.engine.Dispatch(context.Background(), event("sess-1", "evt-2", "turn on the lights"))
	}()
	<-queued
	time.Sleep(20 * time.Millisecond)

	// Act
	_, err := f.engine.Dispatch(context.Background(), event("sess-1", "evt-3", "turn on the lights"))

	// Assert
	if err != ErrQueueFull {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}

	close(release)
}

func TestHandleRoomEvent_EndsSession(t *testing.T) {
	// Arrange
	f := newFixture(t, nil, testConfig())
	defer f.engine.Shutdown()

	if _, err := f.engine.Dispatch(context.Background(), event("sess-1", "evt-1", "turn on the lights")); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if f.engine.ActiveSessionCount() != 1 {
		t.Fatalf("expected one active session, got %d", f.engine.ActiveSessionCount())
	}

	// Act
	f.engine.HandleRoomEvent(context.Background(), domain.RoomEvent{
		Type:      domain.RoomEventRoomEnded,
		SessionID: "sess-1",
		RoomName:  "room-1",
	})

	// Assert
	if f.engine.ActiveSessionCount() != 0 {
		t.Errorf("expected session removed, got %d active", f.engine.ActiveSessionCount())
	}
	if _, ok := f.store.StoredSession("sess-1"); ok {
		t.Error("expected snapshot deleted on room end")
	}
}

func TestSweep_EvictsIdleSessions(t *testing.T) {
	// Arrange
	f := newFixture(t, nil, testConfig())
	defer f.engine.Shutdown()

	base := time.Now()
	clock := base
	f.engine.WithClock(func() time.Time { return clock })

	if _, err := f.engine.Dispatch(context.Background(), event("sess-1", "evt-1", "turn on the lights")); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	// Act: advance past the TTL and sweep.
	clock = base.Add(16 * time.Minute)
	f.engine.sweep(context.Background())

	// Assert
	if f.engine.ActiveSessionCount() != 0 {
		t.Errorf("expected idle session evicted, got %d active", f.engine.ActiveSessionCount())
	}
}

func TestSweep_KeepsActiveSessions(t *testing.T) {
	// Arrange
	f := newFixture(t, nil, testConfig())
	defer f.engine.Shutdown()

	base := time.Now()
	clock := base
	f.engine.WithClock(func() time.Time { return clock })

	if _, err := f.engine.Dispatch(context.Background(), event("sess-1", "evt-1", "turn on the lights")); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	// Act: only a minute has passed.
	clock = base.Add(time.Minute)
	f.engine.sweep(context.Background())

	// Assert
	if f.engine.ActiveSessionCount() != 1 {
		t.Errorf("expected session kept, got %d active", f.engine.ActiveSessionCount())
	}
}

func TestSessionSnapshot_NotFound(t *testing.T) {
	// Arrange
	f := newFixture(t, nil, testConfig())
	defer f.engine.Shutdown()

	// Act
	_, err := f.engine.SessionSnapshot(context.Background(), "nope")

	// Assert
	if err != ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestDispatch_RestoresSnapshotAcrossWorkers(t *testing.T) {
	// Arrange: run a turn, end the session worker but keep the snapshot,
	// then dispatch again. The restored session must carry its history.
	f := newFixture(t, nil, testConfig())
	defer f.engine.Shutdown()

	if _, err := f.engine.Dispatch(context.Background(), event("sess-1", "evt-1", "turn on the lights")); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	// Drop the worker without deleting the snapshot.
	f.engine.mu.Lock()
	w := f.engine.workers["sess-1"]
	delete(f.engine.workers, "sess-1")
	f.engine.mu.Unlock()
	w.stop()

	// Act
	if _, err := f.engine.Dispatch(context.Background(), event("sess-1", "evt-2", "turn on the lights")); err != nil {
		t.Fatalf("dispatch after restore: %v", err)
	}

	// Assert
	snapshot, ok := f.store.StoredSession("sess-1")
	if !ok {
		t.Fatal("expected snapshot")
	}
	if len(snapshot.History) < 4 {
		t.Errorf("expected history carried across workers, got %d entries", len(snapshot.History))
	}
}
