package skill

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/seu-repo/aura-core/internal/domain"
)

type SlotType string

const (
	SlotString SlotType = "string"
	SlotNumber SlotType = "number"
	SlotEnum   SlotType = "enum"
)

// SlotSpec declares one skill argument and its validation rule.
type SlotSpec struct {
	Name   string   `json:"name"`
	Type   SlotType `json:"type"`
	Prompt string   `json:"prompt"`
	// Enum lists the accepted values for SlotEnum.
	Enum []string `json:"enum,omitempty"`
	// Min/Max bound SlotNumber values when set.
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
	// Pattern is a capture regex for SlotString; group 1 is the value.
	Pattern string `json:"pattern,omitempty"`
}

// validate checks the spec is satisfiable by the rule extractor.
func (s SlotSpec) validate() error {
	if s.Name == "" {
		return fmt.Errorf("slot name is required")
	}
	if s.Prompt == "" {
		return fmt.Errorf("slot %q: prompt is required", s.Name)
	}
	switch s.Type {
	case SlotEnum:
		if len(s.Enum) == 0 {
			return fmt.Errorf("slot %q: enum type needs at least one value", s.Name)
		}
	case SlotString:
		if s.Pattern == "" {
			return fmt.Errorf("slot %q: string type needs a capture pattern", s.Name)
		}
		re, err := regexp.Compile(s.Pattern)
		if err != nil {
			return fmt.Errorf("slot %q: invalid pattern: %w", s.Name, err)
		}
		if re.NumSubexp() < 1 {
			return fmt.Errorf("slot %q: pattern needs a capture group", s.Name)
		}
	case SlotNumber:
		if s.Min != nil && s.Max != nil && *s.Min > *s.Max {
			return fmt.Errorf("slot %q: min exceeds max", s.Name)
		}
	default:
		return fmt.Errorf("slot %q: unknown type %q", s.Name, s.Type)
	}
	return nil
}

// Check applies the declared validation rule to a candidate value.
func (s SlotSpec) Check(value string) error {
	switch s.Type {
	case SlotEnum:
		for _, v := range s.Enum {
			if v == value {
				return nil
			}
		}
		return fmt.Errorf("must be one of %v", s.Enum)
	case SlotNumber:
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("must be a number")
		}
		if s.Min != nil && n < *s.Min {
			return fmt.Errorf("must be at least %g", *s.Min)
		}
		if s.Max != nil && n > *s.Max {
			return fmt.Errorf("must be at most %g", *s.Max)
		}
	}
	return nil
}

// Invocation is the context a handler receives alongside its filled slots.
type Invocation struct {
	SessionID string
	RoomName  string
	UserID    string
	Language  string
	Slots     map[string]string
}

// HandlerFunc executes the skill's side effect and returns the text to speak.
// Handlers honor ctx cancellation; the orchestrator never retries them.
type HandlerFunc func(ctx context.Context, inv Invocation) (string, error)

// Descriptor is one registered capability. Examples feed the embedding
// classifier; Keywords feed the offline keyword classifier.
type Descriptor struct {
	Name                 string
	Description          string
	RequiredSlots        []SlotSpec
	OptionalSlots        []SlotSpec
	ConfirmationRequired bool
	ConfirmationPrompt   string
	Examples             []string
	Keywords             []string
	Handler              HandlerFunc
}

func (d *Descriptor) validate() error {
	if d.Name == "" {
		return fmt.Errorf("skill name is required")
	}
	if d.Handler == nil {
		return fmt.Errorf("skill %q: handler is required", d.Name)
	}
	if d.ConfirmationRequired && d.ConfirmationPrompt == "" {
		return fmt.Errorf("skill %q: confirmation prompt is required", d.Name)
	}
	seen := make(map[string]bool)
	for _, s := range append(append([]SlotSpec{}, d.RequiredSlots...), d.OptionalSlots...) {
		if seen[s.Name] {
			return fmt.Errorf("skill %q: duplicate slot %q", d.Name, s.Name)
		}
		seen[s.Name] = true
		if err := s.validate(); err != nil {
			return fmt.Errorf("skill %q: %w", d.Name, err)
		}
	}
	return nil
}

// SlotSpecs returns required then optional specs, declaration order kept.
func (d *Descriptor) SlotSpecs() []SlotSpec {
	return append(append([]SlotSpec{}, d.RequiredSlots...), d.OptionalSlots...)
}

// MissingRequired returns unfilled required slots in declaration order; the
// first entry is the next reprompt target.
func (d *Descriptor) MissingRequired(filled map[string]domain.SlotValue) []SlotSpec {
	var missing []SlotSpec
	for _, s := range d.RequiredSlots {
		if _, ok := filled[s.Name]; !ok {
			missing = append(missing, s)
		}
	}
	return missing
}

// Registry is the closed set of skills, indexed by intent name. It is built
// once at startup and never mutated afterwards, so reads need no locking.
type Registry struct {
	byName map[string]*Descriptor
	log    *zap.Logger
}

func NewRegistry(log *zap.Logger, descriptors ...Descriptor) (*Registry, error) {
	r := &Registry{
		byName: make(map[string]*Descriptor, len(descriptors)),
		log:    log,
	}
	for i := range descriptors {
		d := descriptors[i]
		if err := d.validate(); err != nil {
			return nil, fmt.Errorf("skill registry: %w", err)
		}
		if _, exists := r.byName[d.Name]; exists {
			return nil, fmt.Errorf("skill registry: duplicate skill %q", d.Name)
		}
		r.byName[d.Name] = &d
	}
	log.Info("Skill registry initialized", zap.Int("skills", len(r.byName)))
	return r, nil
}

func (r *Registry) Resolve(intentName string) (*Descriptor, bool) {
	d, ok := r.byName[intentName]
	return d, ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) All() []*Descriptor {
	descs := make([]*Descriptor, 0, len(r.byName))
	for _, name := range r.Names() {
		descs = append(descs, r.byName[name])
	}
	return descs
}
