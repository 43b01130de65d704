package nlu

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/seu-repo/aura-core/internal/domain"
	"github.com/seu-repo/aura-core/internal/skill"
)

var numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// RuleSlotExtractor fills slots from the rules each SlotSpec declares: enum
// membership, numeric capture with range checks, and capture-group patterns.
// Best effort: a pass may fill nothing. Candidates that fail validation are
// reported, not dropped, so the dialogue can reprompt with the exact problem.
type RuleSlotExtractor struct {
	registry *skill.Registry
	log      *zap.Logger
}

func NewRuleSlotExtractor(registry *skill.Registry, log *zap.Logger) *RuleSlotExtractor {
	return &RuleSlotExtractor{registry: registry, log: log}
}

func (e *RuleSlotExtractor) ExtractSlots(ctx context.Context, utterance, intentName string, filled map[string]domain.SlotValue) (domain.ExtractionResult, error) {
	desc, ok := e.registry.Resolve(intentName)
	if !ok {
		return domain.ExtractionResult{}, fmt.Errorf("slot extractor: unknown intent %q", intentName)
	}

	var result domain.ExtractionResult
	for _, spec := range desc.SlotSpecs() {
		if _, done := filled[spec.Name]; done {
			continue
		}

		raw, confidence, found := e.capture(utterance, spec)
		if !found {
			continue
		}
		if err := spec.Check(raw); err != nil {
			result.Invalid = append(result.Invalid, domain.InvalidSlot{
				Name:   spec.Name,
				Raw:    raw,
				Reason: err.Error(),
			})
			continue
		}
		result.Filled = append(result.Filled, domain.SlotValue{
			Name:       spec.Name,
			Value:      raw,
			Confidence: confidence,
		})
	}

	if len(result.Filled) > 0 || len(result.Invalid) > 0 {
		e.log.Debug("Slot extraction pass",
			zap.String("intent", intentName),
			zap.Int("filled", len(result.Filled)),
			zap.Int("invalid", len(result.Invalid)),
		)
	}
	return result, nil
}

func (e *RuleSlotExtractor) capture(utterance string, spec skill.SlotSpec) (string, float64, bool) {
	switch spec.Type {
	case skill.SlotEnum:
		lowered := strings.ToLower(utterance)
		for _, value := range spec.Enum {
			if containsPhrase(lowered, strings.ToLower(value)) {
				return value, 0.9, true
			}
		}
	case skill.SlotNumber:
		if match := numberPattern.FindString(utterance); match != "" {
			return match, 0.85, true
		}
	case skill.SlotString:
		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return "", 0, false
		}
		if m := re.FindStringSubmatch(utterance); len(m) > 1 {
			return strings.TrimSpace(m[1]), 0.8, true
		}
	}
	return "", 0, false
}
