package goJourney

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventJourneyStarted       = "journey_started"
	auditEventJourneyStartFailed   = "journey_start_failed"
	auditEventSessionRecovered     = "session_recovered"
	auditEventStepAdvanced         = "step_advanced"
	auditEventSubmitFailure        = "submit_failure"
	auditEventRetryMerged          = "retry_merged"
	auditEventRetryReplaced        = "retry_replaced"
	auditEventRetrySwallowed       = "retry_swallowed"
	auditEventJourneyAuthenticated = "journey_authenticated"
	auditEventJourneyFatal         = "journey_fatal"
	auditEventSessionFlagFailed    = "session_flag_failed"
	auditEventPostAuthToken        = "postauth_token_failure"
	auditEventPostAuthUserInfo     = "postauth_userinfo_failure"
	auditEventPostAuthLogout       = "postauth_logout_forced"
	auditEventPostAuthCompleted    = "postauth_completed"
)

// AuditErrorCode is the stable error vocabulary recorded on audit events.
type AuditErrorCode string

const (
	auditErrStartFailed         AuditErrorCode = "start_failed"
	auditErrStepMalformed       AuditErrorCode = "step_malformed"
	auditErrSubmitFailed        AuditErrorCode = "submit_failed"
	auditErrUserInfo            AuditErrorCode = "userinfo_unavailable"
	auditErrSessionBackend      AuditErrorCode = "session_backend"
	auditErrJourneyMisuse       AuditErrorCode = "journey_misuse"
	auditErrTransportUnderlying AuditErrorCode = "transport_error"
	auditErrInternal            AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	journeyID string,
	intent Intent,
	stage string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		JourneyID: journeyID,
		Intent:    intent.String(),
		Realm:     RealmFromContext(ctx),
		Stage:     stage,
		DeviceID:  deviceIDFromContext(ctx),
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrJourneyStartFailed):
		return auditErrStartFailed
	case errors.Is(err, ErrStepMalformed):
		return auditErrStepMalformed
	case errors.Is(err, ErrUserInfoUnavailable):
		return auditErrUserInfo
	case errors.Is(err, ErrSessionBackend):
		return auditErrSessionBackend
	case errors.Is(err, ErrJourneyNotStarted),
		errors.Is(err, ErrJourneyAlreadyStarted),
		errors.Is(err, ErrJourneyComplete),
		errors.Is(err, ErrSubmitInFlight):
		return auditErrJourneyMisuse
	default:
		var te *TransportError
		if errors.As(err, &te) {
			if te.Op == "submit" {
				return auditErrSubmitFailed
			}
			return auditErrTransportUnderlying
		}
		return auditErrInternal
	}
}
