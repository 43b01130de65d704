package mocks

import (
	"context"

	"github.com/seu-repo/aura-core/internal/domain"
)

// MockClassifier is a mock implementation of the IntentClassifier interface
type MockClassifier struct {
	ClassifyFunc func(ctx context.Context, utterance string, history []domain.TurnEntry) (*domain.Intent, error)
	Calls        int
}

func (m *MockClassifier) Classify(ctx context.Context, utterance string, history []domain.TurnEntry) (*domain.Intent, error) {
	m.Calls++
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, utterance, history)
	}
	return nil, nil
}

// MockExtractor is a mock implementation of the SlotExtractor interface
type MockExtractor struct {
	ExtractFunc func(ctx context.Context, utterance, intentName string, filled map[string]domain.SlotValue) (domain.ExtractionResult, error)
}

func (m *MockExtractor) ExtractSlots(ctx context.Context, utterance, intentName string, filled map[string]domain.SlotValue) (domain.ExtractionResult, error) {
	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, utterance, intentName, filled)
	}
	return domain.ExtractionResult{}, nil
}

// MockConfirmer is a mock implementation of the ConfirmationClassifier interface
type MockConfirmer struct {
	InterpretFunc func(utterance string) domain.ConfirmationVerdict
}

func (m *MockConfirmer) Interpret(utterance string) domain.ConfirmationVerdict {
	if m.InterpretFunc != nil {
		return m.InterpretFunc(utterance)
	}
	return domain.VerdictUnclear
}

// MockFallback is a mock implementation of the FallbackGenerator interface
type MockFallback struct {
	GenerateFunc func(ctx context.Context, utterance string, history []domain.TurnEntry) string
	Calls        int
}

func (m *MockFallback) Generate(ctx context.Context, utterance string, history []domain.TurnEntry) string {
	m.Calls++
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, utterance, history)
	}
	return "I am sorry, I did not catch that."
}

// MockChatBackend is a mock implementation of the ChatBackend interface
type MockChatBackend struct {
	CompleteFunc func(ctx context.Context, messages []domain.ChatMessage) (string, error)
}

func (m *MockChatBackend) Complete(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, messages)
	}
	return "", nil
}

// MockEmbedder is a mock implementation of the nlu Embedder interface
type MockEmbedder struct {
	GetEmbeddingsFunc func(ctx context.Context, texts []string) ([][]float64, error)
	Calls             int
}

func (m *MockEmbedder) GetEmbeddings(ctx context.Context, texts []string) ([][]float64, error) {
	m.Calls++
	if m.GetEmbeddingsFunc != nil {
		return m.GetEmbeddingsFunc(ctx, texts)
	}
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{1, 0, 0}
	}
	return out, nil
}
