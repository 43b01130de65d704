package nlu

import (
	"strings"

	"github.com/seu-repo/aura-core/internal/domain"
)

// ConfirmationInterpreter answers the one question asked while a session
// awaits confirmation: yes, no, cancel, or unclear. Deliberately a fixed word
// list rather than the general classifier, so crafted input cannot widen it.
type ConfirmationInterpreter struct {
	affirm []string
	negate []string
	cancel []string
}

func NewConfirmationInterpreter() *ConfirmationInterpreter {
	return &ConfirmationInterpreter{
		affirm: []string{"yes", "yeah", "yep", "sure", "confirm", "go ahead", "do it", "correct", "please do", "affirmative"},
		negate: []string{"no", "nope", "don't", "do not", "negative", "stop"},
		cancel: []string{"cancel", "never mind", "nevermind", "forget it", "abort"},
	}
}

func (i *ConfirmationInterpreter) Interpret(utterance string) domain.ConfirmationVerdict {
	text := strings.ToLower(strings.TrimSpace(utterance))
	if text == "" {
		return domain.VerdictUnclear
	}

	// Cancellation wins over everything: "no, cancel that" is a cancel.
	for _, w := range i.cancel {
		if containsPhrase(text, w) {
			return domain.VerdictCancel
		}
	}
	for _, w := range i.negate {
		if containsPhrase(text, w) {
			return domain.VerdictNegate
		}
	}
	for _, w := range i.affirm {
		if containsPhrase(text, w) {
			return domain.VerdictAffirm
		}
	}
	return domain.VerdictUnclear
}

// containsPhrase matches whole words so "no" does not fire inside "know".
func containsPhrase(text, phrase string) bool {
	idx := strings.Index(text, phrase)
	for idx >= 0 {
		before := idx == 0 || !isWordChar(text[idx-1])
		afterIdx := idx + len(phrase)
		after := afterIdx >= len(text) || !isWordChar(text[afterIdx])
		if before && after {
			return true
		}
		next := strings.Index(text[idx+1:], phrase)
		if next < 0 {
			return false
		}
		idx = idx + 1 + next
	}
	return false
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '\''
}
