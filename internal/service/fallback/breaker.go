package fallback

import (
	"context"
	"fmt"

	"github.com/sony/gobreaker"

	"github.com/seu-repo/aura-core/internal/domain"
	"github.com/seu-repo/aura-core/internal/ports"
)

// GuardedBackend wraps a chat backend with a circuit breaker. When the
// provider trips the breaker, Complete fails fast and the generator's own
// degradation takes over with the static apology.
type GuardedBackend struct {
	inner ports.ChatBackend
	cb    *gobreaker.CircuitBreaker
}

func NewGuardedBackend(inner ports.ChatBackend, cb *gobreaker.CircuitBreaker) *GuardedBackend {
	return &GuardedBackend{inner: inner, cb: cb}
}

func (g *GuardedBackend) Complete(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	out, err := g.cb.Execute(func() (interface{}, error) {
		return g.inner.Complete(ctx, messages)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return "", fmt.Errorf("fallback: chat provider circuit open")
		}
		return "", err
	}
	return out.(string), nil
}
