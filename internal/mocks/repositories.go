package mocks

import (
	"context"
	"sync"

	"github.com/seu-repo/aura-core/internal/domain"
)

// MockSessionStore is an in-memory mock of the SessionStore interface
type MockSessionStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	outcomes map[string]domain.TurnOutcome

	SaveFunc          func(ctx context.Context, s *domain.Session) error
	LoadFunc          func(ctx context.Context, sessionID string) (*domain.Session, error)
	DeleteFunc        func(ctx context.Context, sessionID string) error
	MarkProcessedFunc func(ctx context.Context, eventID string, outcome domain.TurnOutcome) error
	LookupOutcomeFunc func(ctx context.Context, eventID string) (*domain.TurnOutcome, error)
}

func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{
		sessions: make(map[string]domain.Session),
		outcomes: make(map[string]domain.TurnOutcome),
	}
}

func (m *MockSessionStore) Save(ctx context.Context, s *domain.Session) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = *s
	return nil
}

func (m *MockSessionStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, sessionID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[sessionID]; ok {
		copy := s
		return &copy, nil
	}
	return nil, nil
}

func (m *MockSessionStore) Delete(ctx context.Context, sessionID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, sessionID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

func (m *MockSessionStore) MarkProcessed(ctx context.Context, eventID string, outcome domain.TurnOutcome) error {
	if m.MarkProcessedFunc != nil {
		return m.MarkProcessedFunc(ctx, eventID, outcome)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[eventID] = outcome
	return nil
}

func (m *MockSessionStore) LookupOutcome(ctx context.Context, eventID string) (*domain.TurnOutcome, error) {
	if m.LookupOutcomeFunc != nil {
		return m.LookupOutcomeFunc(ctx, eventID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.outcomes[eventID]; ok {
		copy := o
		return &copy, nil
	}
	return nil, nil
}

// StoredSession returns the saved snapshot for assertions.
func (m *MockSessionStore) StoredSession(sessionID string) (domain.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	return s, ok
}

// MockTurnRepository is an in-memory mock of the TurnRepository interface
type MockTurnRepository struct {
	mu      sync.Mutex
	Records []domain.TurnRecord

	SaveFunc func(ctx context.Context, rec *domain.TurnRecord) error
	FindFunc func(ctx context.Context, sessionID string, limit int) ([]domain.TurnRecord, error)
}

func NewMockTurnRepository() *MockTurnRepository {
	return &MockTurnRepository{}
}

func (m *MockTurnRepository) Save(ctx context.Context, rec *domain.TurnRecord) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Records = append(m.Records, *rec)
	return nil
}

func (m *MockTurnRepository) FindBySessionID(ctx context.Context, sessionID string, limit int) ([]domain.TurnRecord, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, sessionID, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.TurnRecord
	for i := len(m.Records) - 1; i >= 0 && len(out) < limit; i-- {
		if m.Records[i].SessionID == sessionID {
			out = append(out, m.Records[i])
		}
	}
	return out, nil
}
