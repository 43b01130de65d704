package ports

import (
	"context"
	"time"

	"github.com/seu-repo/aura-core/internal/domain"
)

// Cache is the generic key/value adapter (Redis in production, in-memory as
// fallback). Values are strings; callers marshal as needed.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping() error
	Close() error
}

// SessionStore persists session snapshots between turns so a restarted
// orchestrator can resume mid-flow conversations.
type SessionStore interface {
	Save(ctx context.Context, s *domain.Session) error
	Load(ctx context.Context, sessionID string) (*domain.Session, error)
	Delete(ctx context.Context, sessionID string) error

	// MarkProcessed records the outcome for an event id; LookupOutcome
	// returns it for redelivered events so duplicates stay no-ops.
	MarkProcessed(ctx context.Context, eventID string, outcome domain.TurnOutcome) error
	LookupOutcome(ctx context.Context, eventID string) (*domain.TurnOutcome, error)
}

// TurnRepository is the audit log of orchestration cycles.
type TurnRepository interface {
	Save(ctx context.Context, rec *domain.TurnRecord) error
	FindBySessionID(ctx context.Context, sessionID string, limit int) ([]domain.TurnRecord, error)
}
