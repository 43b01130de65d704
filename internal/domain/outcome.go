package domain

type OutcomeKind string

const (
	OutcomeSpeak             OutcomeKind = "speak"
	OutcomeReprompt          OutcomeKind = "reprompt"
	OutcomeAwaitConfirmation OutcomeKind = "await_confirmation"
	OutcomeExecute           OutcomeKind = "execute"
	OutcomeFallback          OutcomeKind = "fallback"
)

// TurnOutcome is the value produced by one orchestration cycle. Text carries
// whatever should be spoken back to the user; for OutcomeExecute it is the
// handler's follow-up response.
type TurnOutcome struct {
	Kind  OutcomeKind       `json:"kind"`
	Text  string            `json:"text,omitempty"`
	Slot  string            `json:"slot,omitempty"`
	Skill string            `json:"skill,omitempty"`
	Slots map[string]string `json:"slots,omitempty"`
}

func Speak(text string) TurnOutcome {
	return TurnOutcome{Kind: OutcomeSpeak, Text: text}
}

func Reprompt(slot, prompt string) TurnOutcome {
	return TurnOutcome{Kind: OutcomeReprompt, Slot: slot, Text: prompt}
}

func AwaitConfirmation(prompt string) TurnOutcome {
	return TurnOutcome{Kind: OutcomeAwaitConfirmation, Text: prompt}
}

func Execute(skill string, slots map[string]string, resultText string) TurnOutcome {
	return TurnOutcome{Kind: OutcomeExecute, Skill: skill, Slots: slots, Text: resultText}
}

func Fallback(text string) TurnOutcome {
	return TurnOutcome{Kind: OutcomeFallback, Text: text}
}
