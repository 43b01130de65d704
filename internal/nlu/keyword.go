package nlu

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/seu-repo/aura-core/internal/domain"
	"github.com/seu-repo/aura-core/internal/skill"
)

// KeywordClassifier matches utterances against per-skill keyword tables.
// It is the offline classifier: always available, modest confidence. Used
// standalone in deployments without an embeddings backend and as the
// last-resort path when that backend is down.
type KeywordClassifier struct {
	keywords map[string][]string
	log      *zap.Logger
}

func NewKeywordClassifier(registry *skill.Registry, log *zap.Logger) *KeywordClassifier {
	table := make(map[string][]string)
	for _, d := range registry.All() {
		terms := make([]string, 0, len(d.Keywords)+len(d.Examples))
		for _, k := range d.Keywords {
			terms = append(terms, strings.ToLower(k))
		}
		// Example utterances double as long phrase matches, so a verbatim
		// repeat of a canonical phrasing counts as a hit.
		for _, ex := range d.Examples {
			terms = append(terms, strings.ToLower(ex))
		}
		table[d.Name] = terms
	}
	return &KeywordClassifier{keywords: table, log: log}
}

func (c *KeywordClassifier) Classify(ctx context.Context, utterance string, history []domain.TurnEntry) (*domain.Intent, error) {
	lowered := strings.ToLower(utterance)
	recent := recentUserText(history, utterance, 3)

	var best *domain.Intent
	for name, terms := range c.keywords {
		hits := countHits(lowered, terms)
		if hits == 0 {
			continue
		}
		// A single keyword hit only clears a conservative bar; extra hits
		// raise confidence toward but never past 0.95.
		confidence := 0.72 + 0.08*float64(hits-1)
		// Recent user turns mentioning the same skill reinforce the match.
		// Context can tip the scale but never create a match on its own.
		if recent != "" && countHits(recent, terms) > 0 {
			confidence += 0.04
		}
		if confidence > 0.95 {
			confidence = 0.95
		}
		if best == nil || confidence > best.Confidence {
			best = &domain.Intent{Name: name, Confidence: confidence}
		}
	}

	if best == nil {
		return nil, nil
	}
	c.log.Debug("Keyword intent match",
		zap.String("intent", best.Name),
		zap.Float64("confidence", best.Confidence),
	)
	return best, nil
}

func countHits(text string, terms []string) int {
	hits := 0
	for _, term := range terms {
		if strings.Contains(text, term) {
			hits++
		}
	}
	return hits
}

// recentUserText joins the latest user turns, newest first, skipping the
// utterance being classified in case the caller already appended it.
func recentUserText(history []domain.TurnEntry, utterance string, limit int) string {
	var parts []string
	for i := len(history) - 1; i >= 0 && len(parts) < limit; i-- {
		entry := history[i]
		if entry.Speaker != domain.SpeakerUser || entry.Text == utterance {
			continue
		}
		parts = append(parts, strings.ToLower(entry.Text))
	}
	return strings.Join(parts, " ")
}
