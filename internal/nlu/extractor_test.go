package nlu

import (
	"context"
	"testing"

	"github.com/seu-repo/aura-core/internal/domain"
	"github.com/seu-repo/aura-core/internal/skill"
)

func extractorRegistry(t *testing.T) *skill.Registry {
	t.Helper()
	min, max := 16.0, 30.0
	registry, err := skill.NewRegistry(newTestLogger(),
		skill.Descriptor{
			Name: "set_thermostat",
			RequiredSlots: []skill.SlotSpec{
				{
					Name:   "mode",
					Type:   skill.SlotEnum,
					Prompt: "Heating or cooling?",
					Enum:   []string{"heat", "cool"},
				},
				{
					Name:   "temperature",
					Type:   skill.SlotNumber,
					Prompt: "What temperature?",
					Min:    &min,
					Max:    &max,
				},
			},
			OptionalSlots: []skill.SlotSpec{
				{
					Name:    "room",
					Type:    skill.SlotString,
					Prompt:  "Which room?",
					Pattern: `(?i)in the ([a-z ]+?)(?:\s*$|,)`,
				},
			},
			Handler: func(ctx context.Context, inv skill.Invocation) (string, error) {
				return "done", nil
			},
		},
	)
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}
	return registry
}

func TestExtractSlots_FillsEnumNumberAndString(t *testing.T) {
	// Arrange
	e := NewRuleSlotExtractor(extractorRegistry(t), newTestLogger())

	// Act
	result, err := e.ExtractSlots(context.Background(), "set heat to 22 in the living room", "set_thermostat", nil)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(result.Invalid) != 0 {
		t.Fatalf("expected no invalid slots, got %+v", result.Invalid)
	}
	got := make(map[string]string)
	for _, s := range result.Filled {
		got[s.Name] = s.Value
	}
	if got["mode"] != "heat" {
		t.Errorf("expected mode=heat, got %q", got["mode"])
	}
	if got["temperature"] != "22" {
		t.Errorf("expected temperature=22, got %q", got["temperature"])
	}
	if got["room"] != "living room" {
		t.Errorf("expected room=living room, got %q", got["room"])
	}
}

func TestExtractSlots_OutOfRangeNumberIsInvalid(t *testing.T) {
	// Arrange
	e := NewRuleSlotExtractor(extractorRegistry(t), newTestLogger())

	// Act
	result, err := e.ExtractSlots(context.Background(), "cool it down to 55", "set_thermostat", nil)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(result.Invalid) != 1 {
		t.Fatalf("expected one invalid slot, got %+v", result.Invalid)
	}
	bad := result.Invalid[0]
	if bad.Name != "temperature" || bad.Raw != "55" {
		t.Errorf("expected temperature=55 rejected, got %+v", bad)
	}
	if bad.Reason == "" {
		t.Error("expected a reprompt reason on the invalid slot")
	}
	// The enum slot still fills on the same pass.
	if len(result.Filled) != 1 || result.Filled[0].Value != "cool" {
		t.Errorf("expected mode=cool filled, got %+v", result.Filled)
	}
}

func TestExtractSlots_SkipsAlreadyFilled(t *testing.T) {
	// Arrange
	e := NewRuleSlotExtractor(extractorRegistry(t), newTestLogger())
	filled := map[string]domain.SlotValue{
		"mode": {Name: "mode", Value: "heat"},
	}

	// Act
	result, err := e.ExtractSlots(context.Background(), "make it cool, 21 degrees", "set_thermostat", filled)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, s := range result.Filled {
		if s.Name == "mode" {
			t.Fatalf("filled slot was re-extracted: %+v", s)
		}
	}
	if len(result.Filled) != 1 || result.Filled[0].Name != "temperature" {
		t.Errorf("expected only temperature to fill, got %+v", result.Filled)
	}
}

func TestExtractSlots_NothingFoundIsEmptyNotError(t *testing.T) {
	// Arrange
	e := NewRuleSlotExtractor(extractorRegistry(t), newTestLogger())

	// Act
	result, err := e.ExtractSlots(context.Background(), "please adjust it", "set_thermostat", nil)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(result.Filled) != 0 || len(result.Invalid) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func TestExtractSlots_UnknownIntentFails(t *testing.T) {
	// Arrange
	e := NewRuleSlotExtractor(extractorRegistry(t), newTestLogger())

	// Act
	_, err := e.ExtractSlots(context.Background(), "anything", "no_such_skill", nil)

	// Assert
	if err == nil {
		t.Fatal("expected an error for an unregistered intent")
	}
}

func TestExtractSlots_EnumMatchesWholeWordsOnly(t *testing.T) {
	// Arrange
	e := NewRuleSlotExtractor(extractorRegistry(t), newTestLogger())

	// Act: "heater" must not satisfy the "heat" enum value.
	result, err := e.ExtractSlots(context.Background(), "the heater is broken", "set_thermostat", nil)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, s := range result.Filled {
		if s.Name == "mode" {
			t.Errorf("enum matched inside a longer word: %+v", s)
		}
	}
}
