package dialogue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/aura-core/internal/domain"
	"github.com/seu-repo/aura-core/internal/observability/telemetry"
	"github.com/seu-repo/aura-core/internal/ports"
	"github.com/seu-repo/aura-core/internal/skill"
)

// Config carries the dialogue tuning parameters. All of these are
// operational knobs surfaced through the config file, not structural
// constants.
type Config struct {
	// IntentThreshold is the minimum classifier confidence for an intent
	// to be acted on; below it the turn routes to fallback.
	IntentThreshold float64
	// StateTimeout is the deadline applied to every non-Idle state.
	StateTimeout time.Duration
	// HandlerTimeout bounds a single skill handler invocation. Distinct
	// from StateTimeout: expiry here is a handler error, not a dialogue
	// timeout.
	HandlerTimeout time.Duration
	// ClassifyRetryBackoff is the pause before the single retry after a
	// classifier backend failure.
	ClassifyRetryBackoff time.Duration
	// HistoryLimit bounds the per-session history window.
	HistoryLimit int
}

const (
	classifierDownReply = "I'm having trouble understanding you right now. Give me a moment and try again."
	handlerFailedReply  = "Sorry, something went wrong and I couldn't finish that."
	cancelledReply      = "Okay, I've cancelled that."
	declinedReply       = "Alright, I won't do that."
)

// Reason tags why a turn fell back, so the configuration-gap signal stays
// separate from ordinary low-confidence fallbacks in the metrics.
type Reason string

const (
	ReasonLowConfidence      Reason = "low_confidence"
	ReasonClassifierDown     Reason = "classifier_unavailable"
	ReasonUnresolvableIntent Reason = "unresolvable_intent"
)

// Result is what one orchestration cycle produced, alongside the
// classification that drove it (nil when none was used).
type Result struct {
	Outcome domain.TurnOutcome
	Intent  *domain.Intent
	Reason  Reason
}

// Machine is the per-session dialogue state machine. It is not safe for
// concurrent use: the orchestrator serializes events per session, so exactly
// one goroutine drives a given machine.
type Machine struct {
	session    *domain.Session
	registry   *skill.Registry
	classifier ports.IntentClassifier
	extractor  ports.SlotExtractor
	confirmer  ports.ConfirmationClassifier
	fallback   ports.FallbackGenerator
	cfg        Config
	log        *zap.Logger
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration)
}

func NewMachine(
	session *domain.Session,
	registry *skill.Registry,
	classifier ports.IntentClassifier,
	extractor ports.SlotExtractor,
	confirmer ports.ConfirmationClassifier,
	fallback ports.FallbackGenerator,
	cfg Config,
	log *zap.Logger,
) *Machine {
	return &Machine{
		session:    session,
		registry:   registry,
		classifier: classifier,
		extractor:  extractor,
		confirmer:  confirmer,
		fallback:   fallback,
		cfg:        cfg,
		log:        log,
		now:        time.Now,
		sleep:      sleepCtx,
	}
}

// WithClock overrides the machine's clock. Test hook.
func (m *Machine) WithClock(now func() time.Time) *Machine {
	m.now = now
	return m
}

// WithSleep overrides the retry backoff sleep. Test hook.
func (m *Machine) WithSleep(sleep func(ctx context.Context, d time.Duration)) *Machine {
	m.sleep = sleep
	return m
}

func (m *Machine) Session() *domain.Session {
	return m.session
}

// ExpireIfStale applies the per-state timeout: a non-Idle session past its
// deadline moves through TimedOut back to Idle with pending work discarded.
// Returns true when a transition happened.
func (m *Machine) ExpireIfStale(now time.Time) bool {
	if !m.session.StateExpired(now) {
		return false
	}
	m.log.Info("Dialogue state timed out",
		zap.String("session_id", m.session.ID),
		zap.String("state", string(m.session.State)),
		zap.String("pending_intent", m.session.PendingIntent),
	)
	m.session.State = domain.StateTimedOut
	m.toIdle()
	return true
}

// HandleUtterance runs one full orchestration cycle for an inbound
// transcript. Every (state, utterance) pair has a defined outcome; nothing
// is silently dropped.
func (m *Machine) HandleUtterance(ctx context.Context, utterance string) (Result, error) {
	now := m.now()
	m.ExpireIfStale(now)

	m.session.AppendTurn(domain.SpeakerUser, utterance, now, m.cfg.HistoryLimit)

	var res Result
	var err error
	switch m.session.State {
	case domain.StateAwaitingSlots:
		res, err = m.handleAwaitingSlots(ctx, utterance)
	case domain.StateAwaitingConfirmation:
		res, err = m.handleAwaitingConfirmation(ctx, utterance)
	default:
		res, err = m.handleIdle(ctx, utterance)
	}
	if err != nil {
		return res, err
	}

	if res.Outcome.Text != "" {
		m.session.AppendTurn(domain.SpeakerAssistant, res.Outcome.Text, m.now(), m.cfg.HistoryLimit)
	}
	return res, nil
}

func (m *Machine) handleIdle(ctx context.Context, utterance string) (Result, error) {
	m.session.State = domain.StateClassifyingIntent

	intent, err := m.classifyWithRetry(ctx, utterance)
	if err != nil {
		// Backend outage, already retried once. Resolve the turn with a
		// fixed apology rather than dropping it.
		m.log.Error("Intent classification unavailable",
			zap.String("session_id", m.session.ID),
			zap.Error(err),
		)
		m.session.State = domain.StateIdle
		return Result{Outcome: domain.Fallback(classifierDownReply), Reason: ReasonClassifierDown}, nil
	}

	if intent == nil || intent.Confidence < m.cfg.IntentThreshold {
		m.session.State = domain.StateIdle
		text := m.fallback.Generate(ctx, utterance, m.session.History)
		return Result{Outcome: domain.Fallback(text), Intent: intent, Reason: ReasonLowConfidence}, nil
	}

	desc, ok := m.registry.Resolve(intent.Name)
	if !ok {
		// Confident intent with no registered skill is a configuration
		// gap, not a user problem. Logged distinctly from low-confidence
		// fallbacks so the two signals stay separable.
		m.log.Warn("No skill registered for confident intent",
			zap.String("session_id", m.session.ID),
			zap.String("intent", intent.Name),
			zap.Float64("confidence", intent.Confidence),
		)
		m.session.State = domain.StateIdle
		text := m.fallback.Generate(ctx, utterance, m.session.History)
		return Result{Outcome: domain.Fallback(text), Intent: intent, Reason: ReasonUnresolvableIntent}, nil
	}

	// The first utterance often carries arguments already ("turn the
	// lights off"); harvest them before deciding whether to prompt.
	extraction, err := m.extractor.ExtractSlots(ctx, utterance, intent.Name, m.session.PendingSlots)
	if err != nil {
		return Result{}, fmt.Errorf("dialogue: initial slot extraction: %w", err)
	}
	m.applyFilled(extraction.Filled)

	return m.advancePending(ctx, desc, intent, extraction.Invalid)
}

func (m *Machine) handleAwaitingSlots(ctx context.Context, utterance string) (Result, error) {
	desc, ok := m.registry.Resolve(m.session.PendingIntent)
	if !ok {
		// Registry is closed at start, so this means the snapshot came
		// from an older skill set. Resolve the flow rather than wedge it.
		m.log.Error("Pending intent vanished from registry",
			zap.String("session_id", m.session.ID),
			zap.String("intent", m.session.PendingIntent),
		)
		m.toIdle()
		return Result{Outcome: domain.Speak(handlerFailedReply)}, nil
	}

	extraction, err := m.extractor.ExtractSlots(ctx, utterance, desc.Name, m.session.PendingSlots)
	if err != nil {
		return Result{}, fmt.Errorf("dialogue: slot extraction: %w", err)
	}
	m.applyFilled(extraction.Filled)

	// An utterance that contributes nothing to the pending flow may be the
	// user bailing out instead.
	if len(extraction.Filled) == 0 && len(extraction.Invalid) == 0 {
		if m.confirmer.Interpret(utterance) == domain.VerdictCancel {
			m.session.State = domain.StateCancelled
			m.toIdle()
			return Result{Outcome: domain.Speak(cancelledReply)}, nil
		}
	}

	return m.advancePending(ctx, desc, &domain.Intent{Name: desc.Name, Confidence: 1}, extraction.Invalid)
}

// advancePending moves a flow with a resolved descriptor to its next state:
// reprompt for the first missing required slot, ask for confirmation, or
// execute.
func (m *Machine) advancePending(ctx context.Context, desc *skill.Descriptor, intent *domain.Intent, invalid []domain.InvalidSlot) (Result, error) {
	if len(invalid) > 0 {
		// Validation failures outrank missing slots: the user just tried
		// to fill this one, so correct it first.
		bad := invalid[0]
		m.enterPending(domain.StateAwaitingSlots, desc.Name)
		prompt := fmt.Sprintf("Sorry, %q won't work for %s: it %s. %s", bad.Raw, bad.Name, bad.Reason, m.promptFor(desc, bad.Name))
		return Result{Outcome: domain.Reprompt(bad.Name, prompt), Intent: intent}, nil
	}

	if missing := desc.MissingRequired(m.session.PendingSlots); len(missing) > 0 {
		next := missing[0]
		m.enterPending(domain.StateAwaitingSlots, desc.Name)
		return Result{Outcome: domain.Reprompt(next.Name, next.Prompt), Intent: intent}, nil
	}

	if desc.ConfirmationRequired && m.session.State != domain.StateAwaitingConfirmation {
		m.enterPending(domain.StateAwaitingConfirmation, desc.Name)
		return Result{Outcome: domain.AwaitConfirmation(desc.ConfirmationPrompt), Intent: intent}, nil
	}

	return m.execute(ctx, desc, intent)
}

func (m *Machine) handleAwaitingConfirmation(ctx context.Context, utterance string) (Result, error) {
	desc, ok := m.registry.Resolve(m.session.PendingIntent)
	if !ok {
		m.log.Error("Pending intent vanished from registry",
			zap.String("session_id", m.session.ID),
			zap.String("intent", m.session.PendingIntent),
		)
		m.toIdle()
		return Result{Outcome: domain.Speak(handlerFailedReply)}, nil
	}

	switch m.confirmer.Interpret(utterance) {
	case domain.VerdictAffirm:
		return m.execute(ctx, desc, &domain.Intent{Name: desc.Name, Confidence: 1})
	case domain.VerdictNegate, domain.VerdictCancel:
		m.session.State = domain.StateCancelled
		m.toIdle()
		return Result{Outcome: domain.Speak(declinedReply)}, nil
	default:
		if !m.session.ConfirmRetried {
			// One clarification round; a second unclear answer counts as
			// a no, so a confused user can never loop here forever.
			m.session.ConfirmRetried = true
			m.session.StateDeadline = m.now().Add(m.cfg.StateTimeout)
			return Result{Outcome: domain.AwaitConfirmation(desc.ConfirmationPrompt)}, nil
		}
		m.session.State = domain.StateCancelled
		m.toIdle()
		return Result{Outcome: domain.Speak(declinedReply)}, nil
	}
}

func (m *Machine) execute(ctx context.Context, desc *skill.Descriptor, intent *domain.Intent) (Result, error) {
	m.session.State = domain.StateExecuting

	slots := make(map[string]string, len(m.session.PendingSlots))
	for name, v := range m.session.PendingSlots {
		slots[name] = v.Value
	}

	handlerCtx, cancel := context.WithTimeout(ctx, m.cfg.HandlerTimeout)
	defer cancel()

	text, err := desc.Handler(handlerCtx, skill.Invocation{
		SessionID: m.session.ID,
		RoomName:  m.session.RoomName,
		UserID:    m.session.UserID,
		Language:  m.session.Language,
		Slots:     slots,
	})
	m.toIdle()
	if err != nil {
		// Skills may have non-idempotent side effects; never retried here.
		m.log.Error("Skill handler failed",
			zap.String("session_id", m.session.ID),
			zap.String("skill", desc.Name),
			zap.Error(err),
		)
		return Result{Outcome: domain.Speak(handlerFailedReply), Intent: intent}, nil
	}

	return Result{Outcome: domain.Execute(desc.Name, slots, text), Intent: intent}, nil
}

func (m *Machine) classifyWithRetry(ctx context.Context, utterance string) (*domain.Intent, error) {
	started := m.now()
	intent, err := m.classifier.Classify(ctx, utterance, m.session.History)
	telemetry.ClassifierLatency.Observe(m.now().Sub(started).Seconds())
	if err == nil {
		return intent, nil
	}
	if !errors.Is(err, ports.ErrClassifierUnavailable) {
		return nil, err
	}

	m.sleep(ctx, m.cfg.ClassifyRetryBackoff)
	return m.classifier.Classify(ctx, utterance, m.session.History)
}

func (m *Machine) applyFilled(filled []domain.SlotValue) {
	for _, v := range filled {
		m.session.PendingSlots[v.Name] = v
	}
}

// enterPending is the only place PendingIntent is set; both target states
// carry a fresh per-state deadline.
func (m *Machine) enterPending(state domain.DialogueState, intentName string) {
	m.session.State = state
	m.session.PendingIntent = intentName
	m.session.StateDeadline = m.now().Add(m.cfg.StateTimeout)
}

func (m *Machine) toIdle() {
	m.session.State = domain.StateIdle
	m.session.ClearPending()
}

func (m *Machine) promptFor(desc *skill.Descriptor, slotName string) string {
	for _, s := range desc.SlotSpecs() {
		if s.Name == slotName {
			return s.Prompt
		}
	}
	return "Could you try again?"
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
