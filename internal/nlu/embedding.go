package nlu

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/seu-repo/aura-core/internal/domain"
	"github.com/seu-repo/aura-core/internal/ports"
	"github.com/seu-repo/aura-core/internal/skill"
)

// Embedder is the vector backend behind the embedding classifier.
type Embedder interface {
	GetEmbeddings(ctx context.Context, texts []string) ([][]float64, error)
}

// EmbeddingClassifier scores an utterance by cosine similarity against the
// example utterances each skill declares. Example vectors are computed once
// at startup (Prime); each Classify costs one embedding call.
type EmbeddingClassifier struct {
	embedder Embedder
	examples map[string][]string
	vectors  map[string][][]float64
	log      *zap.Logger
}

func NewEmbeddingClassifier(embedder Embedder, registry *skill.Registry, log *zap.Logger) *EmbeddingClassifier {
	examples := make(map[string][]string)
	for _, d := range registry.All() {
		if len(d.Examples) > 0 {
			examples[d.Name] = d.Examples
		}
	}
	return &EmbeddingClassifier{
		embedder: embedder,
		examples: examples,
		vectors:  make(map[string][][]float64),
		log:      log,
	}
}

// Prime embeds every registered example utterance. Must be called before
// Classify; the registry is closed by then so one pass suffices.
func (c *EmbeddingClassifier) Prime(ctx context.Context) error {
	var texts []string
	var owners []string
	for intent, examples := range c.examples {
		for _, ex := range examples {
			texts = append(texts, ex)
			owners = append(owners, intent)
		}
	}
	if len(texts) == 0 {
		return fmt.Errorf("embedding classifier: no example utterances registered")
	}

	vectors, err := c.embedder.GetEmbeddings(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding classifier: prime: %w", err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("embedding classifier: got %d vectors for %d texts", len(vectors), len(texts))
	}

	for i, vec := range vectors {
		intent := owners[i]
		c.vectors[intent] = append(c.vectors[intent], vec)
	}

	c.log.Info("Embedding classifier primed",
		zap.Int("intents", len(c.vectors)),
		zap.Int("examples", len(texts)),
	)
	return nil
}

// recentTurnWeight blends the previous user turn into the score so short
// follow-ups ("and tomorrow?") lean toward the intent of the ongoing topic.
const recentTurnWeight = 0.15

func (c *EmbeddingClassifier) Classify(ctx context.Context, utterance string, history []domain.TurnEntry) (*domain.Intent, error) {
	texts := []string{utterance}
	if last := lastUserTurn(history, utterance); last != "" {
		texts = append(texts, last)
	}

	vectors, err := c.embedder.GetEmbeddings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrClassifierUnavailable, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ports.ErrClassifierUnavailable, len(vectors), len(texts))
	}
	query := vectors[0]
	var recent []float64
	if len(vectors) == 2 {
		recent = vectors[1]
	}

	var best *domain.Intent
	for intent, examples := range c.vectors {
		for _, example := range examples {
			score := cosine(query, example)
			if recent != nil {
				score = (1-recentTurnWeight)*score + recentTurnWeight*cosine(recent, example)
			}
			if best == nil || score > best.Confidence {
				best = &domain.Intent{Name: intent, Confidence: score}
			}
		}
	}
	if best == nil || best.Confidence <= 0 {
		return nil, nil
	}
	return best, nil
}

// lastUserTurn returns the most recent user entry, skipping the utterance
// being classified in case the caller already appended it to the history.
func lastUserTurn(history []domain.TurnEntry, utterance string) string {
	for i := len(history) - 1; i >= 0; i-- {
		entry := history[i]
		if entry.Speaker != domain.SpeakerUser || entry.Text == utterance {
			continue
		}
		return entry.Text
	}
	return ""
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
