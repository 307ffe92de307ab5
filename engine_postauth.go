package goJourney

import (
	"context"
	"log"

	"github.com/MrEthical07/goJourney/token"
)

// startPostAuth launches the post-authentication sequence in the
// background. The journey has already reported its terminal outcome; the
// caller observes this sequence only through the Notices channel.
func (e *Engine) startPostAuth(journeyID string, intent Intent, sessionToken string) {
	e.postAuthWG.Add(1)
	go func() {
		defer e.postAuthWG.Done()
		e.runPostAuth(context.Background(), journeyID, intent, sessionToken)
	}()
}

// runPostAuth exchanges the finished journey for credentials and user
// info. Any failure forces a logout and delivers a late form error; it
// never reverses the Authenticated outcome already delivered.
func (e *Engine) runPostAuth(ctx context.Context, journeyID string, intent Intent, sessionToken string) {
	accessToken, err := e.transport.Token(ctx)
	if err != nil {
		e.metricInc(MetricPostAuthFailure)
		e.emitAudit(ctx, auditEventPostAuthToken, false, journeyID, intent, "", err, nil)
		e.forceLogout(ctx, journeyID, intent)
		return
	}

	if e.cfg.PostAuth.InspectToken && accessToken != "" {
		e.upgradeSessionExpiry(ctx, journeyID, intent, accessToken)
	}

	if _, err := e.transport.UserInfo(ctx); err != nil {
		e.metricInc(MetricPostAuthFailure)
		e.emitAudit(ctx, auditEventPostAuthUserInfo, false, journeyID, intent, "", err, nil)
		e.forceLogout(ctx, journeyID, intent)
		return
	}

	e.metricInc(MetricPostAuthSuccess)
	e.emitAudit(ctx, auditEventPostAuthCompleted, true, journeyID, intent, "", nil, func() map[string]string {
		return map[string]string{"session_token_present": boolString(sessionToken != "")}
	})
}

// forceLogout tears the server session down after a post-auth failure and
// surfaces the late error. Logout itself is best effort.
func (e *Engine) forceLogout(ctx context.Context, journeyID string, intent Intent) {
	if err := e.transport.Logout(ctx); err != nil {
		log.Printf("goJourney: forced logout failed for journey %s: %v", journeyID, err)
	}
	e.setAuthenticatedFlag(ctx, journeyID, intent, false)

	e.metricInc(MetricLogoutForced)
	e.emitAudit(ctx, auditEventPostAuthLogout, false, journeyID, intent, "", ErrUserInfoUnavailable, nil)

	e.deliverNotice(Notice{
		JourneyID: journeyID,
		Message:   ErrUserInfoUnavailable.Error(),
		Err:       ErrUserInfoUnavailable,
	})
}

// upgradeSessionExpiry aligns the session flag's lifetime with the access
// token's expiry, when both the token and the store can express one.
func (e *Engine) upgradeSessionExpiry(ctx context.Context, journeyID string, intent Intent, accessToken string) {
	expiring, ok := e.sessions.(ExpiryAwareSessionStore)
	if !ok {
		return
	}

	claims, err := token.Inspect(accessToken)
	if err != nil || claims.ExpiresAt == 0 {
		return
	}

	if err := expiring.SetAuthenticatedUntil(ctx, claims.ExpiresAt); err != nil {
		log.Printf("goJourney: session expiry upgrade failed: %v", err)
		e.emitAudit(ctx, auditEventSessionFlagFailed, false, journeyID, intent, "", err, nil)
	}
}

func boolString(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
