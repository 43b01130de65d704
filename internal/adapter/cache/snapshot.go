package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/aura-core/internal/domain"
	"github.com/seu-repo/aura-core/internal/ports"
)

const (
	sessionKeyPrefix = "session:"
	eventKeyPrefix   = "event:"
)

// SnapshotStore persists session snapshots and processed-event outcomes on
// top of the generic cache adapter (Redis in production). Snapshots let a
// restarted orchestrator resume mid-flow conversations; event outcomes make
// transcript redelivery a no-op.
type SnapshotStore struct {
	cache      ports.Cache
	sessionTTL time.Duration
	eventTTL   time.Duration
	log        *zap.Logger
}

func NewSnapshotStore(cache ports.Cache, sessionTTL, eventTTL time.Duration, log *zap.Logger) *SnapshotStore {
	return &SnapshotStore{
		cache:      cache,
		sessionTTL: sessionTTL,
		eventTTL:   eventTTL,
		log:        log,
	}
}

func (s *SnapshotStore) Save(ctx context.Context, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("snapshot: marshal session: %w", err)
	}
	return s.cache.Set(ctx, sessionKeyPrefix+session.ID, string(data), s.sessionTTL)
}

func (s *SnapshotStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	raw, err := s.cache.Get(ctx, sessionKeyPrefix+sessionID)
	if err != nil || raw == "" {
		// Cache misses are expected; the caller creates a fresh session.
		return nil, nil
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		s.log.Warn("Discarding unreadable session snapshot",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return nil, nil
	}
	if session.PendingSlots == nil {
		session.PendingSlots = make(map[string]domain.SlotValue)
	}
	return &session, nil
}

func (s *SnapshotStore) Delete(ctx context.Context, sessionID string) error {
	return s.cache.Delete(ctx, sessionKeyPrefix+sessionID)
}

func (s *SnapshotStore) MarkProcessed(ctx context.Context, eventID string, outcome domain.TurnOutcome) error {
	data, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("snapshot: marshal outcome: %w", err)
	}
	return s.cache.Set(ctx, eventKeyPrefix+eventID, string(data), s.eventTTL)
}

func (s *SnapshotStore) LookupOutcome(ctx context.Context, eventID string) (*domain.TurnOutcome, error) {
	raw, err := s.cache.Get(ctx, eventKeyPrefix+eventID)
	if err != nil || raw == "" {
		return nil, nil
	}

	var outcome domain.TurnOutcome
	if err := json.Unmarshal([]byte(raw), &outcome); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal outcome: %w", err)
	}
	return &outcome, nil
}
