package skill

import (
	"context"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/seu-repo/aura-core/internal/domain"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func noopHandler(ctx context.Context, inv Invocation) (string, error) {
	return "ok", nil
}

func TestNewRegistry_RejectsDuplicateSkill(t *testing.T) {
	// Arrange
	a := Descriptor{Name: "lights_on", Handler: noopHandler}
	b := Descriptor{Name: "lights_on", Handler: noopHandler}

	// Act
	_, err := NewRegistry(newTestLogger(), a, b)

	// Assert
	if err == nil {
		t.Fatal("expected duplicate skill name to be rejected")
	}
}

func TestDescriptorValidation(t *testing.T) {
	min, max := 10.0, 5.0
	cases := []struct {
		name string
		desc Descriptor
	}{
		{
			name: "missing name",
			desc: Descriptor{Handler: noopHandler},
		},
		{
			name: "missing handler",
			desc: Descriptor{Name: "broken"},
		},
		{
			name: "confirmation without prompt",
			desc: Descriptor{Name: "risky", Handler: noopHandler, ConfirmationRequired: true},
		},
		{
			name: "duplicate slot across required and optional",
			desc: Descriptor{
				Name:    "dup",
				Handler: noopHandler,
				RequiredSlots: []SlotSpec{
					{Name: "city", Type: SlotString, Prompt: "Which city?", Pattern: `in ([a-z]+)`},
				},
				OptionalSlots: []SlotSpec{
					{Name: "city", Type: SlotString, Prompt: "Which city?", Pattern: `in ([a-z]+)`},
				},
			},
		},
		{
			name: "slot without prompt",
			desc: Descriptor{
				Name:          "silent",
				Handler:       noopHandler,
				RequiredSlots: []SlotSpec{{Name: "city", Type: SlotString, Pattern: `in ([a-z]+)`}},
			},
		},
		{
			name: "enum slot without values",
			desc: Descriptor{
				Name:          "empty_enum",
				Handler:       noopHandler,
				RequiredSlots: []SlotSpec{{Name: "mode", Type: SlotEnum, Prompt: "Which mode?"}},
			},
		},
		{
			name: "string slot without capture group",
			desc: Descriptor{
				Name:          "no_group",
				Handler:       noopHandler,
				RequiredSlots: []SlotSpec{{Name: "city", Type: SlotString, Prompt: "Which city?", Pattern: `in [a-z]+`}},
			},
		},
		{
			name: "number slot with inverted bounds",
			desc: Descriptor{
				Name:          "bad_range",
				Handler:       noopHandler,
				RequiredSlots: []SlotSpec{{Name: "n", Type: SlotNumber, Prompt: "How many?", Min: &min, Max: &max}},
			},
		},
		{
			name: "unknown slot type",
			desc: Descriptor{
				Name:          "odd",
				Handler:       noopHandler,
				RequiredSlots: []SlotSpec{{Name: "x", Type: SlotType("blob"), Prompt: "?"}},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewRegistry(newTestLogger(), tc.desc); err == nil {
				t.Errorf("expected %s to fail validation", tc.name)
			}
		})
	}
}

func TestRegistry_ResolveAndNames(t *testing.T) {
	// Arrange
	registry, err := NewRegistry(newTestLogger(),
		Descriptor{Name: "weather_query", Handler: noopHandler},
		Descriptor{Name: "lights_on", Handler: noopHandler},
		Descriptor{Name: "set_timer", Handler: noopHandler},
	)
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}

	// Act / Assert
	if _, ok := registry.Resolve("lights_on"); !ok {
		t.Error("expected lights_on to resolve")
	}
	if _, ok := registry.Resolve("lights_off"); ok {
		t.Error("expected unknown skill to miss")
	}

	want := []string{"lights_on", "set_timer", "weather_query"}
	if got := registry.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected sorted names %v, got %v", want, got)
	}

	all := registry.All()
	for i, d := range all {
		if d.Name != want[i] {
			t.Errorf("All() out of order at %d: got %q, want %q", i, d.Name, want[i])
		}
	}
}

func TestMissingRequired_KeepsDeclarationOrder(t *testing.T) {
	// Arrange
	desc := Descriptor{
		Name:    "book_ride",
		Handler: noopHandler,
		RequiredSlots: []SlotSpec{
			{Name: "pickup", Type: SlotString, Prompt: "Where from?", Pattern: `from ([a-z ]+)`},
			{Name: "dropoff", Type: SlotString, Prompt: "Where to?", Pattern: `to ([a-z ]+)`},
			{Name: "when", Type: SlotString, Prompt: "When?", Pattern: `at ([a-z0-9 ]+)`},
		},
	}
	filled := map[string]domain.SlotValue{
		"dropoff": {Name: "dropoff", Value: "airport"},
	}

	// Act
	missing := desc.MissingRequired(filled)

	// Assert: the first entry drives the next reprompt.
	if len(missing) != 2 {
		t.Fatalf("expected 2 missing slots, got %d", len(missing))
	}
	if missing[0].Name != "pickup" || missing[1].Name != "when" {
		t.Errorf("expected [pickup when], got [%s %s]", missing[0].Name, missing[1].Name)
	}
}

func TestSlotSpecCheck(t *testing.T) {
	min, max := 1.0, 10.0
	enum := SlotSpec{Name: "mode", Type: SlotEnum, Enum: []string{"heat", "cool"}}
	number := SlotSpec{Name: "count", Type: SlotNumber, Min: &min, Max: &max}
	free := SlotSpec{Name: "note", Type: SlotString}

	cases := []struct {
		name    string
		spec    SlotSpec
		value   string
		wantErr bool
	}{
		{"enum member", enum, "heat", false},
		{"enum outsider", enum, "eco", true},
		{"number in range", number, "5", false},
		{"number below min", number, "0", true},
		{"number above max", number, "11", true},
		{"number garbage", number, "five", true},
		{"string accepts anything", free, "whatever", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.spec.Check(tc.value)
			if tc.wantErr && err == nil {
				t.Errorf("expected %q to be rejected", tc.value)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("expected %q to pass, got %v", tc.value, err)
			}
		})
	}
}

func TestSlotSpecs_RequiredBeforeOptional(t *testing.T) {
	// Arrange
	desc := Descriptor{
		Name:          "ordered",
		Handler:       noopHandler,
		RequiredSlots: []SlotSpec{{Name: "a", Type: SlotNumber, Prompt: "a?"}},
		OptionalSlots: []SlotSpec{{Name: "b", Type: SlotNumber, Prompt: "b?"}},
	}

	// Act
	specs := desc.SlotSpecs()

	// Assert
	if len(specs) != 2 || specs[0].Name != "a" || specs[1].Name != "b" {
		t.Errorf("expected [a b], got %+v", specs)
	}
}
