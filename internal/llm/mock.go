package llm

import (
	"context"
	"sync"
	"sync/atomic"
)

// MockCall records a single Chat invocation.
type MockCall struct {
	System string
	User   string
}

// MockBackend is a scripted Backend for tests. Reply decides the
// response per call; when nil every call returns an empty response.
type MockBackend struct {
	// Reply receives the 0-based call index and the prompts.
	Reply func(call int, system, user string) (Response, error)

	mu    sync.Mutex
	calls []MockCall

	down  atomic.Bool
	cause error
}

func (m *MockBackend) Chat(_ context.Context, system, user string) (Response, error) {
	if m.down.Load() {
		return Response{}, ErrShutdown
	}
	m.mu.Lock()
	idx := len(m.calls)
	m.calls = append(m.calls, MockCall{System: system, User: user})
	m.mu.Unlock()
	if m.Reply == nil {
		return Response{}, nil
	}
	return m.Reply(idx, system, user)
}

func (m *MockBackend) SignalShutdown(cause error) {
	m.mu.Lock()
	if m.cause == nil {
		m.cause = cause
	}
	m.mu.Unlock()
	m.down.Store(true)
}

func (m *MockBackend) Model() string { return "mock" }

// Calls returns a copy of all recorded invocations.
func (m *MockBackend) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// ShutdownCause returns the cause recorded by SignalShutdown, nil if
// the backend is still up.
func (m *MockBackend) ShutdownCause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cause
}
