package goJourney

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestSubmitAdvancesToNextStep(t *testing.T) {
	transport := &mockTransport{
		submitFn: func(context.Context, []byte) (json.RawMessage, error) {
			return json.RawMessage(`{"stage":"OTP","payload":{"authId":"a2"}}`), nil
		},
	}
	engine, _ := newTestEngine(t, transport)
	step := startJourney(t, engine, IntentLogin)

	outcome, err := engine.Submit(context.Background(), step)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if outcome.Kind != OutcomeNeedsStep {
		t.Fatalf("Kind = %v, want NeedsStep", outcome.Kind)
	}
	if outcome.Step.Stage != "OTP" {
		t.Errorf("Stage = %q, want OTP", outcome.Step.Stage)
	}
	if engine.FormMessage() != "" {
		t.Errorf("FormMessage = %q, want empty on clean advance", engine.FormMessage())
	}
}

func TestSubmitSendsStepWireShape(t *testing.T) {
	transport := &mockTransport{}
	engine, _ := newTestEngine(t, transport)
	step := startJourney(t, engine, IntentLogin)
	step.Payload["username"] = "alice"

	if _, err := engine.Submit(context.Background(), step); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	transport.mu.Lock()
	body := transport.submitBodies[0]
	transport.mu.Unlock()

	var sent Step
	if err := json.Unmarshal(body, &sent); err != nil {
		t.Fatalf("submitted body is not a step: %v", err)
	}
	if sent.Stage != "UsernamePassword" || sent.Payload["username"] != "alice" {
		t.Errorf("unexpected wire body: %s", body)
	}
}

func TestSubmitLoginSuccessAuthenticatesAndWritesFlag(t *testing.T) {
	transport := &mockTransport{
		submitFn: func(context.Context, []byte) (json.RawMessage, error) {
			return json.RawMessage(`{"type":"LoginSuccess","sessionToken":"st-1"}`), nil
		},
	}
	engine, store := newTestEngine(t, transport)
	step := startJourney(t, engine, IntentLogin)

	outcome, err := engine.Submit(context.Background(), step)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if outcome.Kind != OutcomeAuthenticated {
		t.Fatalf("Kind = %v, want Authenticated", outcome.Kind)
	}
	if outcome.Step.SessionToken != "st-1" {
		t.Errorf("SessionToken = %q", outcome.Step.SessionToken)
	}
	if history := store.history(); len(history) != 1 || !history[0] {
		t.Errorf("session store writes = %v, want [true]", history)
	}
	if engine.CurrentStep() != nil {
		t.Error("terminal journey must have no current step")
	}
}

func TestSubmitRetryMergesSameStage(t *testing.T) {
	failures := 0
	transport := &mockTransport{
		submitFn: func(context.Context, []byte) (json.RawMessage, error) {
			failures++
			if failures == 1 {
				return nil, &TransportError{Op: "submit", Message: "Invalid password"}
			}
			return json.RawMessage(`{"stage":"UsernamePassword","callbacks":[{"fresh":true}],"payload":{"authId":"fresh"}}`), nil
		},
	}
	engine, _ := newTestEngine(t, transport)
	step := startJourney(t, engine, IntentLogin)
	step.Payload["username"] = "alice"
	step.Payload["authId"] = "stale"

	outcome, err := engine.Submit(context.Background(), step)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if outcome.Kind != OutcomeFormError {
		t.Fatalf("Kind = %v, want FormError", outcome.Kind)
	}
	if outcome.Message != "Invalid password" {
		t.Errorf("Message = %q, want first failure's text", outcome.Message)
	}
	if outcome.Step == nil {
		t.Fatal("expected a merged step alongside the form error")
	}
	if outcome.Step.Payload["username"] != "alice" {
		t.Error("expected user input preserved across the retry")
	}
	if outcome.Step.Payload["authId"] != "fresh" {
		t.Errorf("authId = %v, want retried step's token", outcome.Step.Payload["authId"])
	}
	if engine.FormMessage() != "Invalid password" {
		t.Errorf("FormMessage = %q", engine.FormMessage())
	}
	if snap := engine.MetricsSnapshot(); snap.Counters[MetricStepMerged] != 1 {
		t.Error("expected merged counter")
	}
}

func TestSubmitRetryDifferentStageReplaces(t *testing.T) {
	failures := 0
	transport := &mockTransport{
		submitFn: func(context.Context, []byte) (json.RawMessage, error) {
			failures++
			if failures == 1 {
				return nil, &TransportError{Op: "submit", Message: "Session expired"}
			}
			return json.RawMessage(`{"stage":"Fresh","payload":{"authId":"fresh"}}`), nil
		},
	}
	engine, _ := newTestEngine(t, transport)
	step := startJourney(t, engine, IntentLogin)
	step.Payload["username"] = "alice"

	outcome, err := engine.Submit(context.Background(), step)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if outcome.Kind != OutcomeFormError {
		t.Fatalf("Kind = %v, want FormError", outcome.Kind)
	}
	if outcome.Step.Stage != "Fresh" {
		t.Errorf("Stage = %q, want Fresh", outcome.Step.Stage)
	}
	if _, ok := outcome.Step.Payload["username"]; ok {
		t.Error("different stage must not merge prior input")
	}
	if outcome.Message != "Session expired" {
		t.Errorf("Message = %q", outcome.Message)
	}
}

func TestSubmitDoubleFailureStallsAndSwallowsSecond(t *testing.T) {
	transport := &mockTransport{
		submitFn: func(context.Context, []byte) (json.RawMessage, error) {
			return nil, &TransportError{Op: "submit", Message: "first failure"}
		},
	}
	engine, _ := newTestEngine(t, transport)
	step := startJourney(t, engine, IntentLogin)

	outcome, err := engine.Submit(context.Background(), step)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if outcome.Kind != OutcomeFormError {
		t.Fatalf("Kind = %v, want FormError", outcome.Kind)
	}
	if outcome.Message != "first failure" {
		t.Errorf("Message = %q, want the first failure only", outcome.Message)
	}
	if outcome.Step != nil {
		t.Error("stalled journey must not produce a step transition")
	}

	current := engine.CurrentStep()
	if current == nil || current.Stage != "UsernamePassword" {
		t.Error("journey should stall at the previously rendered step")
	}

	_, submitCalls, _, _, _ := transport.counts()
	if submitCalls != 2 {
		t.Errorf("submit calls = %d, want exactly one retry", submitCalls)
	}
	if snap := engine.MetricsSnapshot(); snap.Counters[MetricRetrySwallowed] != 1 {
		t.Error("expected swallowed retry counter")
	}
}

func TestSubmitRetryMalformedResponseStalls(t *testing.T) {
	failures := 0
	transport := &mockTransport{
		submitFn: func(context.Context, []byte) (json.RawMessage, error) {
			failures++
			if failures == 1 {
				return nil, &TransportError{Op: "submit", Message: "first failure"}
			}
			return json.RawMessage(`garbage`), nil
		},
	}
	engine, _ := newTestEngine(t, transport)
	step := startJourney(t, engine, IntentLogin)

	outcome, err := engine.Submit(context.Background(), step)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if outcome.Kind != OutcomeFormError || outcome.Step != nil {
		t.Fatalf("expected stalled form error, got %+v", outcome)
	}
}

func TestSubmitRetrySuccessCompletesJourney(t *testing.T) {
	failures := 0
	transport := &mockTransport{
		submitFn: func(context.Context, []byte) (json.RawMessage, error) {
			failures++
			if failures == 1 {
				return nil, &TransportError{Op: "submit", Message: "flaky network"}
			}
			return json.RawMessage(`{"type":"LoginSuccess"}`), nil
		},
	}
	engine, _ := newTestEngine(t, transport)
	step := startJourney(t, engine, IntentLogin)

	outcome, err := engine.Submit(context.Background(), step)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if outcome.Kind != OutcomeAuthenticated {
		t.Fatalf("Kind = %v, want Authenticated from successful retry", outcome.Kind)
	}
}

func TestSubmitRetryResendsIdenticalPayload(t *testing.T) {
	transport := &mockTransport{
		submitFn: func(context.Context, []byte) (json.RawMessage, error) {
			return nil, &TransportError{Op: "submit", Message: "fail"}
		},
	}
	engine, _ := newTestEngine(t, transport)
	step := startJourney(t, engine, IntentLogin)

	if _, err := engine.Submit(context.Background(), step); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	transport.mu.Lock()
	defer transport.mu.Unlock()
	if len(transport.submitBodies) != 2 {
		t.Fatalf("submit bodies = %d, want 2", len(transport.submitBodies))
	}
	if string(transport.submitBodies[0]) != string(transport.submitBodies[1]) {
		t.Error("retry must resubmit the same payload byte for byte")
	}
}

func TestSubmitGuards(t *testing.T) {
	engine, _ := newTestEngine(t, &mockTransport{})
	ctx := context.Background()

	if _, err := engine.Submit(ctx, &Step{}); !errors.Is(err, ErrJourneyNotStarted) {
		t.Fatalf("expected ErrJourneyNotStarted, got %v", err)
	}

	step := startJourney(t, engine, IntentLogin)

	if _, err := engine.Submit(ctx, nil); !errors.Is(err, ErrStepMalformed) {
		t.Fatalf("expected ErrStepMalformed for nil step, got %v", err)
	}

	if _, err := engine.Submit(ctx, step); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	// Default mock completes the journey; further submits are misuse.
	if _, err := engine.Submit(ctx, step); !errors.Is(err, ErrJourneyComplete) {
		t.Fatalf("expected ErrJourneyComplete, got %v", err)
	}
}

func TestSubmitRejectsConcurrentCall(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	transport := &mockTransport{
		submitFn: func(context.Context, []byte) (json.RawMessage, error) {
			close(entered)
			<-release
			return json.RawMessage(`{"type":"LoginSuccess"}`), nil
		},
	}
	engine, _ := newTestEngine(t, transport)
	step := startJourney(t, engine, IntentLogin)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = engine.Submit(context.Background(), step)
	}()

	<-entered
	if _, err := engine.Submit(context.Background(), step); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight, got %v", err)
	}

	close(release)
	<-done
}

func TestSetSubmittingBlocksAndSubmitClears(t *testing.T) {
	engine, _ := newTestEngine(t, &mockTransport{})
	step := startJourney(t, engine, IntentLogin)

	engine.SetSubmitting(true)
	if !engine.Submitting() {
		t.Fatal("expected Submitting true after SetSubmitting(true)")
	}
	if _, err := engine.Submit(context.Background(), step); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight, got %v", err)
	}

	engine.SetSubmitting(false)
	if _, err := engine.Submit(context.Background(), step); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if engine.Submitting() {
		t.Fatal("expected Submitting false after round-trip")
	}
}
