package domain

type Intent struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// SlotValue is a filled skill argument with its extraction confidence.
type SlotValue struct {
	Name       string  `json:"name"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// InvalidSlot reports a slot whose candidate value failed its declared
// validation rule. Surfaced so the dialogue can reprompt with a specific
// correction instead of a generic retry.
type InvalidSlot struct {
	Name   string `json:"name"`
	Raw    string `json:"raw"`
	Reason string `json:"reason"`
}

// ExtractionResult is the outcome of one slot-extraction pass.
type ExtractionResult struct {
	Filled  []SlotValue   `json:"filled"`
	Invalid []InvalidSlot `json:"invalid"`
}

// ConfirmationVerdict is the result of the fixed affirmation/negation
// classifier used while a session awaits confirmation.
type ConfirmationVerdict string

const (
	VerdictAffirm  ConfirmationVerdict = "affirm"
	VerdictNegate  ConfirmationVerdict = "negate"
	VerdictCancel  ConfirmationVerdict = "cancel"
	VerdictUnclear ConfirmationVerdict = "unclear"
)

// ChatMessage is the neutral message shape sent to generative backends.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
