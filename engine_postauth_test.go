package goJourney

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func authenticate(t *testing.T, engine *Engine) {
	t.Helper()

	step := startJourney(t, engine, IntentLogin)
	outcome, err := engine.Submit(context.Background(), step)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if outcome.Kind != OutcomeAuthenticated {
		t.Fatalf("Kind = %v, want Authenticated", outcome.Kind)
	}
}

func TestPostAuthSuccessEmitsNoNotice(t *testing.T) {
	transport := &mockTransport{
		tokenFn: func(context.Context) (string, error) {
			return "access-token", nil
		},
	}
	engine, _ := newPostAuthEngine(t, transport)

	authenticate(t, engine)
	engine.Close()

	if _, ok := <-engine.Notices(); ok {
		t.Fatal("expected no notice on successful post-auth")
	}

	_, _, tokenCalls, userInfoCalls, logoutCalls := transport.counts()
	if tokenCalls != 1 || userInfoCalls != 1 {
		t.Errorf("token=%d userinfo=%d, want 1 each", tokenCalls, userInfoCalls)
	}
	if logoutCalls != 0 {
		t.Error("successful post-auth must not log out")
	}
	if snap := engine.MetricsSnapshot(); snap.Counters[MetricPostAuthSuccess] != 1 {
		t.Error("expected post-auth success counter")
	}
}

func TestPostAuthUserInfoFailureForcesLogoutAndLateError(t *testing.T) {
	transport := &mockTransport{
		userInfoFn: func(context.Context) (json.RawMessage, error) {
			return nil, &TransportError{Op: "getUserInfo", Err: errors.New("500")}
		},
	}
	engine, store := newPostAuthEngine(t, transport)

	authenticate(t, engine)
	engine.Close()

	notice, ok := <-engine.Notices()
	if !ok {
		t.Fatal("expected a late notice after user-info failure")
	}
	if notice.Message != "error retrieving user" {
		t.Errorf("Message = %q, want %q", notice.Message, "error retrieving user")
	}
	if !errors.Is(notice.Err, ErrUserInfoUnavailable) {
		t.Errorf("Err = %v, want ErrUserInfoUnavailable", notice.Err)
	}

	_, _, _, _, logoutCalls := transport.counts()
	if logoutCalls != 1 {
		t.Errorf("logout calls = %d, want 1", logoutCalls)
	}

	// Authenticated was written first, then reversed by the forced logout.
	if history := store.history(); len(history) != 2 || !history[0] || history[1] {
		t.Errorf("session writes = %v, want [true false]", history)
	}
}

func TestPostAuthTokenFailureForcesLogout(t *testing.T) {
	transport := &mockTransport{
		tokenFn: func(context.Context) (string, error) {
			return "", errors.New("token endpoint down")
		},
	}
	engine, _ := newPostAuthEngine(t, transport)

	authenticate(t, engine)
	engine.Close()

	if _, ok := <-engine.Notices(); !ok {
		t.Fatal("expected a late notice after token failure")
	}

	_, _, _, userInfoCalls, logoutCalls := transport.counts()
	if userInfoCalls != 0 {
		t.Error("user info must not be fetched after a token failure")
	}
	if logoutCalls != 1 {
		t.Errorf("logout calls = %d, want 1", logoutCalls)
	}
}

func TestPostAuthFailureDoesNotReverseAuthenticatedOutcome(t *testing.T) {
	transport := &mockTransport{
		userInfoFn: func(context.Context) (json.RawMessage, error) {
			return nil, errors.New("boom")
		},
	}
	engine, _ := newPostAuthEngine(t, transport)

	step := startJourney(t, engine, IntentLogin)
	outcome, err := engine.Submit(context.Background(), step)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if outcome.Kind != OutcomeAuthenticated {
		t.Fatalf("Kind = %v, post-auth failure must not reverse the result", outcome.Kind)
	}
	engine.Close()
}

func TestPostAuthLogoutErrorStillDeliversNotice(t *testing.T) {
	transport := &mockTransport{
		userInfoFn: func(context.Context) (json.RawMessage, error) {
			return nil, errors.New("boom")
		},
		logoutFn: func(context.Context) error {
			return errors.New("logout also failed")
		},
	}
	engine, _ := newPostAuthEngine(t, transport)

	authenticate(t, engine)
	engine.Close()

	if _, ok := <-engine.Notices(); !ok {
		t.Fatal("expected notice despite logout failure")
	}
}

func TestPostAuthExpiryUpgradeUsesTokenClaims(t *testing.T) {
	// HS256 token with exp in 2031; signature never checked.
	transport := &mockTransport{
		tokenFn: func(context.Context) (string, error) {
			return signedExpiringToken, nil
		},
	}

	store := &expiryRecordingStore{}
	cfg := defaultConfig()
	cfg.Audit.Enabled = false
	cfg.PostAuth.Enabled = true
	cfg.PostAuth.InspectToken = true

	engine, err := New().
		WithConfig(cfg).
		WithTransport(transport).
		WithSessionStore(store).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	authenticate(t, engine)
	engine.Close()

	store.mu.Lock()
	defer store.mu.Unlock()
	if store.until == 0 {
		t.Fatal("expected an expiry-aware write from token inspection")
	}
}

// signedExpiringToken carries {"exp": 1925000000} (late 2030), HS256-signed
// with a throwaway key.
const signedExpiringToken = "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9." +
	"eyJleHAiOjE5MjUwMDAwMDB9." +
	"4yN4eVGHhNvuzYEIkLLYskMIJ3pdkPRnBT9wr0WxLsU"

type expiryRecordingStore struct {
	mockSessionStore
	until int64
}

func (s *expiryRecordingStore) SetAuthenticatedUntil(_ context.Context, until int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.until = until
	return nil
}
