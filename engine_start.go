package goJourney

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Start opens a journey for the given intent by running the initiating
// exchange and returning the first outcome.
//
// A failed initiating exchange is not always fatal: for a login intent the
// engine first asks the transport for an existing session token, and a
// non-empty answer resolves the journey as already authenticated. Register
// intents get no such fallback, because an existing session says nothing
// about whether registration can proceed.
//
// Returns [ErrJourneyAlreadyStarted] when a non-terminal journey is active.
func (e *Engine) Start(ctx context.Context, intent Intent) (Outcome, error) {
	if e == nil || e.transport == nil {
		return Outcome{}, ErrEngineNotReady
	}

	e.mu.Lock()
	if e.st.started && !e.st.terminal {
		e.mu.Unlock()
		return Outcome{}, ErrJourneyAlreadyStarted
	}
	journeyID := uuid.NewString()
	e.st = journeyState{
		journeyID: journeyID,
		intent:    intent,
		started:   true,
	}
	e.mu.Unlock()

	raw, err := e.transport.Start(ctx, intent)
	if err != nil {
		return e.startFailed(ctx, journeyID, intent, err), nil
	}

	step, err := ParseStep(raw)
	if err != nil {
		return e.startFailed(ctx, journeyID, intent, err), nil
	}

	e.metricInc(MetricJourneyStarted)
	e.emitAudit(ctx, auditEventJourneyStarted, true, journeyID, intent, step.Stage, nil, nil)

	if e.isComplete(step) {
		return e.finishAuthenticated(ctx, journeyID, intent, step, true), nil
	}

	e.mu.Lock()
	e.st.current = step
	e.mu.Unlock()

	e.metricInc(MetricStepAdvanced)
	e.emitAudit(ctx, auditEventStepAdvanced, true, journeyID, intent, step.Stage, nil, func() map[string]string {
		return map[string]string{"step_type": step.Type}
	})

	return Outcome{Kind: OutcomeNeedsStep, Step: step.Clone()}, nil
}

// startFailed handles a failed initiating exchange: token fallback for
// login, terminal failure otherwise.
func (e *Engine) startFailed(ctx context.Context, journeyID string, intent Intent, cause error) Outcome {
	if intent == IntentLogin {
		token, tokenErr := e.transport.Token(ctx)
		if tokenErr == nil && token != "" {
			// An existing session makes the failed exchange moot. The
			// session flag is not written here: nothing authenticated on
			// this path, something already was.
			e.setTerminal()
			e.metricInc(MetricSessionRecovered)
			e.emitAudit(ctx, auditEventSessionRecovered, true, journeyID, intent, "", nil, nil)
			return Outcome{Kind: OutcomeAuthenticated}
		}
	}

	e.setTerminal()
	err := fmt.Errorf("%w: %w", ErrJourneyStartFailed, cause)
	e.metricInc(MetricJourneyStartFailed)
	e.metricInc(MetricFatalError)
	e.emitAudit(ctx, auditEventJourneyStartFailed, false, journeyID, intent, "", err, nil)
	return Outcome{Kind: OutcomeFatalError, Err: err}
}

func (e *Engine) isComplete(step *Step) bool {
	successType := e.cfg.Journey.SuccessType
	if successType == "" {
		successType = stepTypeLoginSuccess
	}
	return step.Type == successType
}

func (e *Engine) setTerminal() {
	e.mu.Lock()
	e.st.terminal = true
	e.st.current = nil
	e.st.submitting = false
	e.mu.Unlock()
}

// finishAuthenticated closes the journey as a success. writeFlag controls
// whether the session flag is written; the session-recovery path skips it.
func (e *Engine) finishAuthenticated(ctx context.Context, journeyID string, intent Intent, step *Step, writeFlag bool) Outcome {
	e.setTerminal()

	if writeFlag {
		e.setAuthenticatedFlag(ctx, journeyID, intent, true)
	}

	e.metricInc(MetricAuthenticated)
	e.emitAudit(ctx, auditEventJourneyAuthenticated, true, journeyID, intent, step.Stage, nil, nil)

	if e.cfg.PostAuth.Enabled {
		e.startPostAuth(journeyID, intent, step.SessionToken)
	}

	return Outcome{Kind: OutcomeAuthenticated, Step: step.Clone()}
}
