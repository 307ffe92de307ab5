package goJourney

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Intent selects the journey entry point on the authentication server.
type Intent uint8

const (
	// IntentLogin starts an authentication journey.
	IntentLogin Intent = iota
	// IntentRegister starts a registration journey.
	IntentRegister
)

// String returns the service name used for the intent on the wire.
func (i Intent) String() string {
	switch i {
	case IntentLogin:
		return "login"
	case IntentRegister:
		return "register"
	default:
		return "unknown"
	}
}

// Callback is one prompt/field the server wants the client to complete.
// Callbacks are opaque to the engine and pass through byte-for-byte.
type Callback = json.RawMessage

// OutcomeKind tags the result of one drive cycle of a journey.
type OutcomeKind uint8

const (
	// OutcomeNeedsStep means the server handed back a step to render. When
	// Message is non-empty the step was recovered after a failed submission
	// and the message should be displayed alongside it.
	OutcomeNeedsStep OutcomeKind = iota
	// OutcomeAuthenticated means the journey completed successfully. The
	// post-authentication sequence runs in the background; late failures
	// arrive on [Engine.Notices].
	OutcomeAuthenticated
	// OutcomeFormError means a recoverable failure. The journey stays
	// alive: Step carries the recovered form when the retry produced one,
	// otherwise the previously rendered step remains current.
	OutcomeFormError
	// OutcomeFatalError means the journey cannot proceed.
	OutcomeFatalError
)

// Outcome is the tagged result of [Engine.Start] and [Engine.Submit].
//
//	Docs: docs/journey.md
type Outcome struct {
	Kind OutcomeKind

	// Step is the step to render for OutcomeNeedsStep, the recovered step
	// for a merge-producing OutcomeFormError, and the completion signal for
	// OutcomeAuthenticated. Nil on a stalled form error.
	Step *Step

	// Message carries the failure text for OutcomeFormError and
	// OutcomeFatalError, and the recovered failure annotation on an
	// OutcomeNeedsStep produced by the retry protocol.
	Message string

	// Err is the underlying cause for OutcomeFatalError.
	Err error
}

// Notice is an asynchronous form-level error delivered after the journey
// already reported a result, typically from the post-authentication
// sequence. Callers must tolerate a Notice arriving after Authenticated.
type Notice struct {
	JourneyID string
	Message   string
	Err       error
}

// Transport is the network boundary of the engine. Implementations own all
// serialization of requests and deserialization is left to the engine via
// [ParseStep]. Every method may fail with a [*TransportError].
//
//	Docs: docs/transport.md
type Transport interface {
	// Start opens a journey at the login- or register-specific entry point
	// and returns the raw first step.
	Start(ctx context.Context, intent Intent) (json.RawMessage, error)

	// Submit round-trips a completed step payload and returns the raw next
	// step or completion signal.
	Submit(ctx context.Context, payload []byte) (json.RawMessage, error)

	// Token returns the current access credential, or "" when no session
	// exists. A missing token is not an error.
	Token(ctx context.Context) (string, error)

	// UserInfo fetches the authenticated user's profile.
	UserInfo(ctx context.Context) (json.RawMessage, error)

	// Logout tears down the server-side session.
	Logout(ctx context.Context) error
}

// SessionStore records whether an authenticated session exists. The engine
// mutates it exclusively through SetAuthenticated and never reads it back
// implicitly.
//
//	Docs: docs/session.md
type SessionStore interface {
	SetAuthenticated(ctx context.Context, authenticated bool) error
}

// ExpiryAwareSessionStore is optionally implemented by stores that can bound
// the authenticated flag's lifetime. When the post-authentication sequence
// learns the access token expiry, it upgrades to this interface.
type ExpiryAwareSessionStore interface {
	SessionStore
	SetAuthenticatedUntil(ctx context.Context, until int64) error
}

// TransportError wraps a failure raised by a [Transport] implementation.
// Message is the server-supplied failure text surfaced to users as a form
// error; Err is the underlying cause.
type TransportError struct {
	Op      string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e == nil {
		return "transport error"
	}
	if e.Message != "" {
		return fmt.Sprintf("transport %s: %s", e.Op, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("transport %s failed", e.Op)
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// failureMessage extracts the user-facing text from a transport failure.
func failureMessage(err error) string {
	if err == nil {
		return ""
	}
	var te *TransportError
	if errors.As(err, &te) && te.Message != "" {
		return te.Message
	}
	return err.Error()
}
