package nlu

import (
	"context"
	"fmt"

	"github.com/sony/gobreaker"

	"github.com/seu-repo/aura-core/internal/ports"
)

// GuardedEmbedder wraps an Embedder with a circuit breaker so a failing
// embedding provider stops receiving calls instead of stalling every turn.
type GuardedEmbedder struct {
	inner Embedder
	cb    *gobreaker.CircuitBreaker
}

func NewGuardedEmbedder(inner Embedder, cb *gobreaker.CircuitBreaker) *GuardedEmbedder {
	return &GuardedEmbedder{inner: inner, cb: cb}
}

func (g *GuardedEmbedder) GetEmbeddings(ctx context.Context, texts []string) ([][]float64, error) {
	out, err := g.cb.Execute(func() (interface{}, error) {
		return g.inner.GetEmbeddings(ctx, texts)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, fmt.Errorf("%w: embedding provider circuit open", ports.ErrClassifierUnavailable)
		}
		return nil, err
	}
	return out.([][]float64), nil
}
