package ports

import (
	"context"
	"errors"

	"github.com/seu-repo/aura-core/internal/domain"
)

// ErrClassifierUnavailable distinguishes a backend outage from a confident
// "no intent" result. Callers retry once, then degrade to fallback text.
var ErrClassifierUnavailable = errors.New("intent classifier backend unavailable")

// IntentClassifier maps an utterance plus recent history to an intent label
// and confidence. A nil intent means nothing matched at all; low-confidence
// matches are returned as-is and thresholded by the dialogue.
type IntentClassifier interface {
	Classify(ctx context.Context, utterance string, history []domain.TurnEntry) (*domain.Intent, error)
}

// SlotExtractor fills declared, not-yet-filled slots for the named intent.
// Best effort: it may fill nothing. Values failing their validation rule are
// reported in Invalid, never silently dropped.
type SlotExtractor interface {
	ExtractSlots(ctx context.Context, utterance, intentName string, filled map[string]domain.SlotValue) (domain.ExtractionResult, error)
}

// ConfirmationClassifier is the fixed affirmation/negation intent set used
// while a session awaits confirmation. Separate from the general classifier.
type ConfirmationClassifier interface {
	Interpret(utterance string) domain.ConfirmationVerdict
}

// FallbackGenerator produces an open-ended response when no confident,
// resolvable intent exists. Implementations degrade to a static apology on
// backend failure rather than returning an error to the turn.
type FallbackGenerator interface {
	Generate(ctx context.Context, utterance string, history []domain.TurnEntry) string
}

// ChatBackend is the generative collaborator behind the fallback generator.
type ChatBackend interface {
	Complete(ctx context.Context, messages []domain.ChatMessage) (string, error)
}

type AuthService interface {
	ValidateToken(ctx context.Context, token string) (*domain.Principal, error)
}
