package goJourney

import "errors"

var (
	// ErrEngineNotReady is returned when the engine is used before Build
	// wired its collaborators.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrJourneyAlreadyStarted is returned by Start when a journey was
	// already opened on this engine instance.
	ErrJourneyAlreadyStarted = errors.New("journey already started")
	// ErrJourneyNotStarted is returned by Submit when no prior Start or
	// Submit produced a step awaiting input.
	ErrJourneyNotStarted = errors.New("journey not started")
	// ErrJourneyComplete is returned when the journey already reached a
	// terminal outcome.
	ErrJourneyComplete = errors.New("journey already complete")
	// ErrSubmitInFlight is returned when a submit is issued while a previous
	// exchange is still pending.
	ErrSubmitInFlight = errors.New("submit already in flight")
	// ErrJourneyStartFailed is the cause attached to a fatal outcome when the
	// initiating exchange fails with no recoverable session.
	ErrJourneyStartFailed = errors.New("journey start failed")
	// ErrStepMalformed is returned when a transport response cannot be
	// parsed into a step.
	ErrStepMalformed = errors.New("malformed step response")
	// ErrUserInfoUnavailable is the cause carried by the post-authentication
	// notice when the user profile cannot be retrieved.
	ErrUserInfoUnavailable = errors.New("error retrieving user")
	// ErrSessionBackend is returned when the session store cannot record the
	// authenticated flag.
	ErrSessionBackend = errors.New("session backend unavailable")
)
