package fallback

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/seu-repo/aura-core/internal/domain"
	"github.com/seu-repo/aura-core/internal/ports"
)

const staticApology = "Sorry, I didn't quite get that. Could you say it another way?"

const systemPrompt = "You are AURA, the voice assistant inside a live conversation room. " +
	"Answer the user's last utterance briefly and conversationally, in one or two short " +
	"spoken sentences. You have no access to skills here, so never promise actions."

// Generator produces the open-ended reply used when no confident, resolvable
// intent exists. The only component touching a generative backend; its
// failure degrades to a fixed apology and is never fatal to the session.
type Generator struct {
	backend ports.ChatBackend
	log     *zap.Logger
}

func NewGenerator(backend ports.ChatBackend, log *zap.Logger) *Generator {
	return &Generator{backend: backend, log: log}
}

func (g *Generator) Generate(ctx context.Context, utterance string, history []domain.TurnEntry) string {
	if g.backend == nil {
		return staticApology
	}

	messages := make([]domain.ChatMessage, 0, len(history)+2)
	messages = append(messages, domain.ChatMessage{Role: "system", Content: systemPrompt})
	for _, turn := range history {
		role := "user"
		if turn.Speaker == domain.SpeakerAssistant {
			role = "assistant"
		}
		messages = append(messages, domain.ChatMessage{Role: role, Content: turn.Text})
	}
	// History already ends with the current utterance when the dialogue
	// appended it; only add it when it is not there.
	if len(history) == 0 || history[len(history)-1].Text != utterance {
		messages = append(messages, domain.ChatMessage{Role: "user", Content: utterance})
	}

	reply, err := g.backend.Complete(ctx, messages)
	if err != nil || strings.TrimSpace(reply) == "" {
		g.log.Warn("Fallback backend failed, using static apology", zap.Error(err))
		return staticApology
	}
	return strings.TrimSpace(reply)
}

// StaticApology is the degraded reply, exported for tests.
func StaticApology() string {
	return staticApology
}
