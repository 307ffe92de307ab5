package goJourney

import (
	"context"
	"log"
	"sync"
	"time"
)

// Engine drives a single authentication journey against a Transport.
//
// One Engine owns one journey at a time. Start opens it, Submit advances
// it, and a terminal [Outcome] closes it. Concurrent Submit calls are
// rejected with [ErrSubmitInFlight] rather than serialized, because the
// server holds journey state and out-of-order submissions would corrupt it.
//
//	Docs: docs/engine.md
type Engine struct {
	cfg       Config
	transport Transport
	sessions  SessionStore
	audit     *auditDispatcher
	metrics   *Metrics

	notices       chan Notice
	noticeDropped uint64 // atomic; see noticeDrop
	postAuthWG    sync.WaitGroup

	mu sync.Mutex
	st journeyState

	closeOnce sync.Once
}

// journeyState is the engine's view of the in-progress journey.
// Guarded by Engine.mu.
type journeyState struct {
	journeyID string
	intent    Intent
	started   bool
	terminal  bool

	// current is the last step successfully rendered to the caller. It is
	// what a stalled journey falls back to after a swallowed retry
	// failure.
	current *Step

	submitting  bool
	formMessage string
}

// ──────────────────────────────────────────────
// Caller surface
// ──────────────────────────────────────────────

// CurrentStep returns a deep copy of the step awaiting caller input,
// or nil when no journey is active or the journey is terminal.
func (e *Engine) CurrentStep() *Step {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.st.current == nil || e.st.terminal {
		return nil
	}
	return e.st.current.Clone()
}

// FormMessage returns the user-facing message from the most recent
// recoverable failure, or "" when the current step is clean.
func (e *Engine) FormMessage() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.formMessage
}

// Submitting reports whether a Submit round-trip is in flight.
func (e *Engine) Submitting() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.submitting
}

// SetSubmitting forces the in-flight flag. UI layers that debounce a
// form ahead of calling Submit can mark the journey busy early; while
// the flag is set, Submit returns ErrSubmitInFlight. Submit clears the
// flag when its round-trip finishes regardless of who set it.
func (e *Engine) SetSubmitting(v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.st.submitting = v
}

// JourneyID returns the identifier assigned when the journey started,
// or "" when no journey is active.
func (e *Engine) JourneyID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.journeyID
}

// Notices returns the channel carrying asynchronous post-authentication
// failures. The channel is closed by Close. Callers that never drain it
// lose notices under backpressure; the loss is counted, not blocked on.
func (e *Engine) Notices() <-chan Notice {
	return e.notices
}

// Close drains the post-authentication worker and the audit pipeline,
// then closes the notice channel. Safe to call more than once.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.postAuthWG.Wait()
		close(e.notices)
		if e.audit != nil {
			e.audit.Close()
		}
	})
}

// AuditDropped reports audit events discarded under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the engine's metrics.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	return e.metrics.Snapshot()
}

// ──────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────

func (e *Engine) metricInc(id MetricID) {
	e.metrics.Inc(id)
}

func (e *Engine) metricObserve(id MetricID, d time.Duration) {
	e.metrics.Observe(id, d)
}

// deliverNotice hands a post-authentication failure to the caller without
// ever blocking the worker. A full channel drops the notice and counts it.
func (e *Engine) deliverNotice(n Notice) {
	select {
	case e.notices <- n:
	default:
		e.noticeDrop()
		log.Printf("goJourney: notice channel full, dropped notice for journey %s", n.JourneyID)
	}
}

func (e *Engine) noticeDrop() {
	e.mu.Lock()
	e.noticeDropped++
	e.mu.Unlock()
	e.metricInc(MetricNoticeDropped)
}

// NoticeDropped reports notices discarded because the channel was full.
func (e *Engine) NoticeDropped() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.noticeDropped
}

// setAuthenticatedFlag best-effort writes the session flag. Failure is
// logged and audited but never changes the journey outcome.
func (e *Engine) setAuthenticatedFlag(ctx context.Context, journeyID string, intent Intent, v bool) {
	if e.sessions == nil {
		return
	}
	if err := e.sessions.SetAuthenticated(ctx, v); err != nil {
		log.Printf("goJourney: session flag write failed: %v", err)
		e.emitAudit(ctx, auditEventSessionFlagFailed, false, journeyID, intent, "", err, nil)
	}
}
