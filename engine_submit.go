package goJourney

import (
	"context"
	"encoding/json"
	"time"
)

// Submit sends the completed step back to the server and returns the next
// outcome. The step should be the one obtained from Start, Submit, or
// CurrentStep, with its Callbacks and Payload filled in by the caller.
//
// A transport-level failure does not end the journey. The engine resubmits
// the same payload once; if the retry produces a step on the same stage,
// the caller's in-progress input is carried over onto it so the form can
// be corrected rather than retyped. The first failure's message is
// surfaced as a form error either way. A failure of the retry itself is
// swallowed: the journey stalls at the prior step with only the first
// message shown. That drop is long-standing observable behavior and must
// not be "fixed" into a second error.
//
// Returns [ErrSubmitInFlight] when a previous Submit has not returned.
func (e *Engine) Submit(ctx context.Context, step *Step) (Outcome, error) {
	if e == nil || e.transport == nil {
		return Outcome{}, ErrEngineNotReady
	}
	if step == nil {
		return Outcome{}, ErrStepMalformed
	}

	e.mu.Lock()
	switch {
	case !e.st.started:
		e.mu.Unlock()
		return Outcome{}, ErrJourneyNotStarted
	case e.st.terminal:
		e.mu.Unlock()
		return Outcome{}, ErrJourneyComplete
	case e.st.submitting:
		e.mu.Unlock()
		return Outcome{}, ErrSubmitInFlight
	}
	e.st.submitting = true
	journeyID := e.st.journeyID
	intent := e.st.intent
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.st.submitting = false
		e.mu.Unlock()
	}()

	wire, err := json.Marshal(step)
	if err != nil {
		return Outcome{}, ErrStepMalformed
	}

	started := time.Now()
	raw, err := e.transport.Submit(ctx, wire)
	e.metricObserve(MetricSubmitLatency, time.Since(started))

	if err != nil {
		return e.recover(ctx, journeyID, intent, step, wire, err), nil
	}

	next, err := ParseStep(raw)
	if err != nil {
		return e.recover(ctx, journeyID, intent, step, wire, err), nil
	}

	return e.advance(ctx, journeyID, intent, next, ""), nil
}

// advance installs a successfully received step, or closes the journey
// when the step is the success signal. formMessage carries a recovery
// failure message through to the outcome; "" means a clean advance.
func (e *Engine) advance(ctx context.Context, journeyID string, intent Intent, next *Step, formMessage string) Outcome {
	if e.isComplete(next) {
		return e.finishAuthenticated(ctx, journeyID, intent, next, true)
	}

	e.mu.Lock()
	e.st.current = next
	e.st.formMessage = formMessage
	e.mu.Unlock()

	e.metricInc(MetricStepAdvanced)
	e.emitAudit(ctx, auditEventStepAdvanced, true, journeyID, intent, next.Stage, nil, func() map[string]string {
		return map[string]string{"step_type": next.Type}
	})

	if formMessage != "" {
		return Outcome{Kind: OutcomeFormError, Step: next.Clone(), Message: formMessage}
	}
	return Outcome{Kind: OutcomeNeedsStep, Step: next.Clone()}
}

// recover runs the single-retry protocol after a failed submit. previous
// is the step whose submission failed; wire is its already-encoded body,
// resubmitted unchanged.
func (e *Engine) recover(ctx context.Context, journeyID string, intent Intent, previous *Step, wire []byte, cause error) Outcome {
	message := failureMessage(cause)

	e.metricInc(MetricSubmitFailure)
	e.emitAudit(ctx, auditEventSubmitFailure, false, journeyID, intent, previous.Stage, cause, nil)

	raw, err := e.transport.Submit(ctx, wire)
	if err != nil {
		return e.swallowRetryFailure(ctx, journeyID, intent, previous.Stage, message, err)
	}

	retried, err := ParseStep(raw)
	if err != nil {
		return e.swallowRetryFailure(ctx, journeyID, intent, previous.Stage, message, err)
	}

	if e.isComplete(retried) {
		// The retry succeeded outright. The first failure's message has
		// nothing left to attach to.
		return e.finishAuthenticated(ctx, journeyID, intent, retried, true)
	}

	if retried.Stage == previous.Stage {
		merged := mergeSteps(previous, retried)
		e.metricInc(MetricStepMerged)
		e.emitAudit(ctx, auditEventRetryMerged, true, journeyID, intent, retried.Stage, nil, nil)
		return e.advance(ctx, journeyID, intent, merged, message)
	}

	e.metricInc(MetricStepReplaced)
	e.emitAudit(ctx, auditEventRetryReplaced, true, journeyID, intent, retried.Stage, nil, func() map[string]string {
		return map[string]string{"previous_stage": previous.Stage}
	})
	return e.advance(ctx, journeyID, intent, retried, message)
}

// swallowRetryFailure is the double-failure path: the retry's own error is
// dropped and only the first failure's message reaches the caller. The
// journey stays alive at the step it was already rendering.
func (e *Engine) swallowRetryFailure(ctx context.Context, journeyID string, intent Intent, stage, message string, retryErr error) Outcome {
	e.mu.Lock()
	e.st.formMessage = message
	e.mu.Unlock()

	e.metricInc(MetricRetrySwallowed)
	e.emitAudit(ctx, auditEventRetrySwallowed, false, journeyID, intent, stage, retryErr, nil)

	return Outcome{Kind: OutcomeFormError, Message: message}
}
