package fallback

import (
	"context"
	"errors"
	"testing"

	"github.com/seu-repo/aura-core/internal/domain"
	"github.com/seu-repo/aura-core/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/aura-core/internal/mocks"
)

func TestGuardedBackend_PassesThroughReplies(t *testing.T) {
	// Arrange
	inner := &mocks.MockChatBackend{
		CompleteFunc: func(ctx context.Context, messages []domain.ChatMessage) (string, error) {
			return "hello", nil
		},
	}
	g := NewGuardedBackend(inner, circuitbreaker.New("test", newTestLogger()))

	// Act
	reply, err := g.Complete(context.Background(), nil)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if reply != "hello" {
		t.Errorf("expected inner reply, got %q", reply)
	}
}

func TestGuardedBackend_OpensAfterRepeatedFailures(t *testing.T) {
	// Arrange
	calls := 0
	inner := &mocks.MockChatBackend{
		CompleteFunc: func(ctx context.Context, messages []domain.ChatMessage) (string, error) {
			calls++
			return "", errors.New("provider down")
		},
	}
	g := NewGuardedBackend(inner, circuitbreaker.New("test", newTestLogger()))

	// Act: drive the breaker past its failure threshold.
	for i := 0; i < 10; i++ {
		g.Complete(context.Background(), nil)
	}
	innerCalls := calls
	_, err := g.Complete(context.Background(), nil)

	// Assert: the open breaker fails fast without reaching the provider.
	if err == nil {
		t.Fatal("expected an error with the circuit open")
	}
	if calls != innerCalls {
		t.Errorf("expected no provider call while open, got %d extra", calls-innerCalls)
	}
}
