package goJourney

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
)

// mockTransport scripts each Transport method with a function field.
// Unset fields succeed with zero values.
type mockTransport struct {
	mu sync.Mutex

	startFn    func(ctx context.Context, intent Intent) (json.RawMessage, error)
	submitFn   func(ctx context.Context, payload []byte) (json.RawMessage, error)
	tokenFn    func(ctx context.Context) (string, error)
	userInfoFn func(ctx context.Context) (json.RawMessage, error)
	logoutFn   func(ctx context.Context) error

	startCalls    int
	submitCalls   int
	submitBodies  [][]byte
	tokenCalls    int
	userInfoCalls int
	logoutCalls   int
}

func (m *mockTransport) Start(ctx context.Context, intent Intent) (json.RawMessage, error) {
	m.mu.Lock()
	m.startCalls++
	fn := m.startFn
	m.mu.Unlock()

	if fn == nil {
		return json.RawMessage(`{"stage":"UsernamePassword","callbacks":[]}`), nil
	}
	return fn(ctx, intent)
}

func (m *mockTransport) Submit(ctx context.Context, payload []byte) (json.RawMessage, error) {
	m.mu.Lock()
	m.submitCalls++
	body := make([]byte, len(payload))
	copy(body, payload)
	m.submitBodies = append(m.submitBodies, body)
	fn := m.submitFn
	m.mu.Unlock()

	if fn == nil {
		return json.RawMessage(`{"type":"LoginSuccess"}`), nil
	}
	return fn(ctx, payload)
}

func (m *mockTransport) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	m.tokenCalls++
	fn := m.tokenFn
	m.mu.Unlock()

	if fn == nil {
		return "", nil
	}
	return fn(ctx)
}

func (m *mockTransport) UserInfo(ctx context.Context) (json.RawMessage, error) {
	m.mu.Lock()
	m.userInfoCalls++
	fn := m.userInfoFn
	m.mu.Unlock()

	if fn == nil {
		return json.RawMessage(`{"sub":"user-1"}`), nil
	}
	return fn(ctx)
}

func (m *mockTransport) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.logoutCalls++
	fn := m.logoutFn
	m.mu.Unlock()

	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (m *mockTransport) counts() (start, submit, token, userInfo, logout int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startCalls, m.submitCalls, m.tokenCalls, m.userInfoCalls, m.logoutCalls
}

// mockSessionStore records SetAuthenticated calls.
type mockSessionStore struct {
	mu     sync.Mutex
	writes []bool
	err    error
}

func (m *mockSessionStore) SetAuthenticated(_ context.Context, authenticated bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = append(m.writes, authenticated)
	return m.err
}

func (m *mockSessionStore) history() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]bool, len(m.writes))
	copy(out, m.writes)
	return out
}

func newTestEngine(t *testing.T, transport *mockTransport) (*Engine, *mockSessionStore) {
	t.Helper()

	store := &mockSessionStore{}
	cfg := defaultConfig()
	cfg.Audit.Enabled = false
	cfg.Metrics.Enabled = true
	cfg.PostAuth.Enabled = false

	engine, err := New().
		WithConfig(cfg).
		WithTransport(transport).
		WithSessionStore(store).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, store
}

func newPostAuthEngine(t *testing.T, transport *mockTransport) (*Engine, *mockSessionStore) {
	t.Helper()

	store := &mockSessionStore{}
	cfg := defaultConfig()
	cfg.Audit.Enabled = false
	cfg.Metrics.Enabled = true
	cfg.PostAuth.Enabled = true
	cfg.PostAuth.InspectToken = false

	engine, err := New().
		WithConfig(cfg).
		WithTransport(transport).
		WithSessionStore(store).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	return engine, store
}

func stepJSON(t *testing.T, step Step) json.RawMessage {
	t.Helper()

	raw, err := json.Marshal(step)
	if err != nil {
		t.Fatalf("marshaling step: %v", err)
	}
	return raw
}

func startJourney(t *testing.T, engine *Engine, intent Intent) *Step {
	t.Helper()

	outcome, err := engine.Start(context.Background(), intent)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if outcome.Kind != OutcomeNeedsStep {
		t.Fatalf("expected NeedsStep from Start, got %v", outcome.Kind)
	}
	return outcome.Step
}
