package nlu

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/aura-core/internal/domain"
	"github.com/seu-repo/aura-core/internal/mocks"
	"github.com/seu-repo/aura-core/internal/ports"
	"github.com/seu-repo/aura-core/internal/skill"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func nluTestRegistry(t *testing.T) *skill.Registry {
	t.Helper()
	noop := func(ctx context.Context, inv skill.Invocation) (string, error) {
		return "ok", nil
	}
	registry, err := skill.NewRegistry(newTestLogger(),
		skill.Descriptor{
			Name:     "weather_query",
			Examples: []string{"what's the weather", "is it raining"},
			Keywords: []string{"weather", "rain", "forecast"},
			Handler:  noop,
		},
		skill.Descriptor{
			Name:     "device_power",
			Examples: []string{"turn on the lights"},
			Keywords: []string{"lights", "turn on", "turn off"},
			Handler:  noop,
		},
	)
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}
	return registry
}

func TestKeywordClassifier_SingleHit(t *testing.T) {
	// Arrange
	c := NewKeywordClassifier(nluTestRegistry(t), newTestLogger())

	// Act
	intent, err := c.Classify(context.Background(), "will it rain tomorrow", nil)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if intent == nil || intent.Name != "weather_query" {
		t.Fatalf("expected weather_query, got %+v", intent)
	}
	if intent.Confidence != 0.72 {
		t.Errorf("expected base confidence 0.72 for one hit, got %g", intent.Confidence)
	}
}

func TestKeywordClassifier_MultipleHitsRaiseConfidence(t *testing.T) {
	// Arrange
	c := NewKeywordClassifier(nluTestRegistry(t), newTestLogger())

	// Act
	intent, err := c.Classify(context.Background(), "weather forecast, any rain?", nil)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if intent == nil || intent.Name != "weather_query" {
		t.Fatalf("expected weather_query, got %+v", intent)
	}
	if intent.Confidence <= 0.72 || intent.Confidence > 0.95 {
		t.Errorf("expected confidence in (0.72, 0.95], got %g", intent.Confidence)
	}
}

func TestKeywordClassifier_ExamplePhraseCountsAsHit(t *testing.T) {
	// Arrange
	c := NewKeywordClassifier(nluTestRegistry(t), newTestLogger())

	// Act: the utterance repeats a registered example verbatim, which counts
	// on top of the "weather" keyword hit.
	intent, err := c.Classify(context.Background(), "what's the weather", nil)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if intent == nil || intent.Name != "weather_query" {
		t.Fatalf("expected weather_query, got %+v", intent)
	}
	if intent.Confidence <= 0.72 {
		t.Errorf("expected a canonical phrasing to score above one keyword hit, got %g", intent.Confidence)
	}
}

func TestKeywordClassifier_RecentUserTurnsReinforceMatch(t *testing.T) {
	// Arrange
	c := NewKeywordClassifier(nluTestRegistry(t), newTestLogger())
	now := time.Now()
	history := []domain.TurnEntry{
		{Speaker: domain.SpeakerUser, Text: "what's the weather like today", Timestamp: now.Add(-time.Minute)},
		{Speaker: domain.SpeakerAssistant, Text: "Sunny and 22 degrees.", Timestamp: now.Add(-50 * time.Second)},
	}

	// Act
	withContext, err := c.Classify(context.Background(), "and the rain?", history)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	withoutContext, err := c.Classify(context.Background(), "and the rain?", nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Assert
	if withContext == nil || withContext.Name != "weather_query" {
		t.Fatalf("expected weather_query, got %+v", withContext)
	}
	if withoutContext == nil {
		t.Fatal("expected a bare match without history")
	}
	if withContext.Confidence <= withoutContext.Confidence {
		t.Errorf("expected history on the same topic to raise confidence: %g vs %g",
			withContext.Confidence, withoutContext.Confidence)
	}
}

func TestKeywordClassifier_HistoryAloneDoesNotCreateMatch(t *testing.T) {
	// Arrange
	c := NewKeywordClassifier(nluTestRegistry(t), newTestLogger())
	history := []domain.TurnEntry{
		{Speaker: domain.SpeakerUser, Text: "what's the weather like today", Timestamp: time.Now()},
	}

	// Act: nothing in the utterance itself matches any skill.
	intent, err := c.Classify(context.Background(), "sing me a song", history)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if intent != nil {
		t.Errorf("expected nil intent when only history matches, got %+v", intent)
	}
}

func TestKeywordClassifier_NoMatchReturnsNil(t *testing.T) {
	// Arrange
	c := NewKeywordClassifier(nluTestRegistry(t), newTestLogger())

	// Act
	intent, err := c.Classify(context.Background(), "sing me a song", nil)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if intent != nil {
		t.Errorf("expected nil intent, got %+v", intent)
	}
}

func TestEmbeddingClassifier_PicksNearestExample(t *testing.T) {
	// Arrange: orthogonal unit vectors per intent; the query matches the
	// weather axis exactly.
	vectors := map[string][]float64{
		"what's the weather":  {1, 0},
		"is it raining":       {0.9, 0.1},
		"turn on the lights":  {0, 1},
		"query":               {1, 0},
	}
	embedder := &mocks.MockEmbedder{
		GetEmbeddingsFunc: func(ctx context.Context, texts []string) ([][]float64, error) {
			out := make([][]float64, len(texts))
			for i, text := range texts {
				if v, ok := vectors[text]; ok {
					out[i] = v
				} else {
					out[i] = vectors["query"]
				}
			}
			return out, nil
		},
	}
	c := NewEmbeddingClassifier(embedder, nluTestRegistry(t), newTestLogger())
	if err := c.Prime(context.Background()); err != nil {
		t.Fatalf("prime: %v", err)
	}

	// Act
	intent, err := c.Classify(context.Background(), "how's the sky looking", nil)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if intent == nil || intent.Name != "weather_query" {
		t.Fatalf("expected weather_query, got %+v", intent)
	}
	if intent.Confidence < 0.99 {
		t.Errorf("expected near-perfect cosine score, got %g", intent.Confidence)
	}
}

func TestEmbeddingClassifier_RecentUserTurnBreaksTies(t *testing.T) {
	// Arrange: the follow-up sits exactly between the weather and lights
	// axes; the previous user turn sits on the weather axis.
	vectors := map[string][]float64{
		"what's the weather": {1, 0},
		"is it raining":      {1, 0},
		"turn on the lights": {0, 1},
		"and tomorrow?":      {0.7071, 0.7071},
	}
	embedder := &mocks.MockEmbedder{
		GetEmbeddingsFunc: func(ctx context.Context, texts []string) ([][]float64, error) {
			out := make([][]float64, len(texts))
			for i, text := range texts {
				v, ok := vectors[text]
				if !ok {
					return nil, errors.New("unexpected text: " + text)
				}
				out[i] = v
			}
			return out, nil
		},
	}
	c := NewEmbeddingClassifier(embedder, nluTestRegistry(t), newTestLogger())
	if err := c.Prime(context.Background()); err != nil {
		t.Fatalf("prime: %v", err)
	}
	history := []domain.TurnEntry{
		{Speaker: domain.SpeakerUser, Text: "what's the weather", Timestamp: time.Now()},
	}

	// Act
	intent, err := c.Classify(context.Background(), "and tomorrow?", history)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if intent == nil || intent.Name != "weather_query" {
		t.Fatalf("expected the ongoing topic to win the tie, got %+v", intent)
	}
}

func TestEmbeddingClassifier_BackendFailureIsUnavailable(t *testing.T) {
	// Arrange
	embedder := &mocks.MockEmbedder{}
	c := NewEmbeddingClassifier(embedder, nluTestRegistry(t), newTestLogger())
	if err := c.Prime(context.Background()); err != nil {
		t.Fatalf("prime: %v", err)
	}
	embedder.GetEmbeddingsFunc = func(ctx context.Context, texts []string) ([][]float64, error) {
		return nil, errors.New("connection refused")
	}

	// Act
	_, err := c.Classify(context.Background(), "what's the weather", nil)

	// Assert
	if !errors.Is(err, ports.ErrClassifierUnavailable) {
		t.Errorf("expected unavailability sentinel, got %v", err)
	}
}

func TestEmbeddingClassifier_PrimeHappensOnce(t *testing.T) {
	// Arrange
	embedder := &mocks.MockEmbedder{}
	c := NewEmbeddingClassifier(embedder, nluTestRegistry(t), newTestLogger())
	if err := c.Prime(context.Background()); err != nil {
		t.Fatalf("prime: %v", err)
	}
	primeCalls := embedder.Calls

	// Act: each classify costs exactly one embedding call.
	if _, err := c.Classify(context.Background(), "what's the weather", nil); err != nil {
		t.Fatalf("classify: %v", err)
	}
	if _, err := c.Classify(context.Background(), "is it raining", nil); err != nil {
		t.Fatalf("classify: %v", err)
	}

	// Assert
	if got := embedder.Calls - primeCalls; got != 2 {
		t.Errorf("expected 2 embedding calls for 2 classifications, got %d", got)
	}
}

func TestCosine(t *testing.T) {
	cases := []struct {
		a, b []float64
		want float64
	}{
		{[]float64{1, 0}, []float64{1, 0}, 1},
		{[]float64{1, 0}, []float64{0, 1}, 0},
		{[]float64{1, 0}, []float64{-1, 0}, -1},
		{[]float64{1, 2}, []float64{1, 2, 3}, 0},
		{nil, nil, 0},
	}
	for _, tc := range cases {
		if got := cosine(tc.a, tc.b); got != tc.want {
			t.Errorf("cosine(%v, %v) = %g, want %g", tc.a, tc.b, got, tc.want)
		}
	}
}

var _ ports.IntentClassifier = (*KeywordClassifier)(nil)
var _ ports.IntentClassifier = (*EmbeddingClassifier)(nil)
