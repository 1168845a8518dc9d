package llm

import (
	"context"
	"testing"
	"time"
)

func TestNewManagerRegistersBothProviders(t *testing.T) {
	m := NewManager(BackendConfig{Provider: ProviderGitHubModels, Model: "gpt-4o"})

	infos := m.List()
	if len(infos) != 2 {
		t.Fatalf("registered %d backends, want 2", len(infos))
	}
	if infos[0].Provider != ProviderOpenAICompat || infos[1].Provider != ProviderGitHubModels {
		t.Fatalf("unexpected registration order: %+v", infos)
	}

	current, ok := m.Current()
	if !ok {
		t.Fatalf("manager has no current backend")
	}
	if current.Provider() != ProviderGitHubModels {
		t.Fatalf("current provider = %v, want github", current.Provider())
	}
}

func TestNewManagerWithoutCredentialsStillConstructs(t *testing.T) {
	// Construction is eager and infallible; the missing token surfaces only
	// when the backend is actually called.
	m := NewManager(BackendConfig{Provider: ProviderGitHubModels})

	sink := NewResponseChannel()
	err := m.Send(context.Background(), "hi", "", sink)
	sink.CloseSend()

	if !IsKind(err, ErrMissingCredential) {
		t.Fatalf("Send error = %v, want MissingCredential", err)
	}
	_, finals := drainChunks(sink)
	if finals != 1 {
		t.Fatalf("delivered %d final chunks, want exactly 1", finals)
	}
}

func TestSetCurrentRejectsOutOfRange(t *testing.T) {
	m := &Manager{current: -1, logger: discardLogger()}
	m.Add(NewMockBackend(ProviderOpenAICompat, "mock-a"))
	m.Add(NewMockBackend(ProviderGitHubModels, "mock-b"))

	if err := m.SetCurrent(1); err != nil {
		t.Fatalf("SetCurrent(1) returned error: %v", err)
	}
	for _, index := range []int{-1, 2, 99} {
		if err := m.SetCurrent(index); err == nil {
			t.Fatalf("SetCurrent(%d) succeeded, want error", index)
		}
	}

	current, _ := m.Current()
	if current.ModelName() != "mock-b" {
		t.Fatalf("failed SetCurrent changed selection to %q", current.ModelName())
	}
}

func TestSendWithNoBackends(t *testing.T) {
	m := &Manager{current: -1, logger: discardLogger()}

	sink := NewResponseChannel()
	err := m.Send(context.Background(), "hi", "", sink)
	sink.CloseSend()

	if !IsKind(err, ErrNoBackend) {
		t.Fatalf("Send error = %v, want NoBackend", err)
	}
	chunks, finals := drainChunks(sink)
	if finals != 1 || len(chunks) != 1 {
		t.Fatalf("expected a single terminal chunk, got %d chunks (%d final)", len(chunks), finals)
	}

	if _, err := m.TestCurrent(context.Background()); !IsKind(err, ErrNoBackend) {
		t.Fatalf("TestCurrent error = %v, want NoBackend", err)
	}
}

func TestSendSnapshotsBackendBeforeDispatch(t *testing.T) {
	slow := NewMockBackend(ProviderOpenAICompat, "mock-slow")
	slow.AddTurn(MockTurn{Final: "slow answer", Delay: 50 * time.Millisecond})
	fast := NewMockBackend(ProviderGitHubModels, "mock-fast")
	fast.AddTextResponse("fast answer")

	m := &Manager{current: -1, logger: discardLogger()}
	m.Add(slow)
	m.Add(fast)

	sink := NewResponseChannel()
	errc := make(chan error, 1)
	go func() {
		errc <- m.Send(context.Background(), "question", "", sink)
	}()

	// Flip the selection while the first request is still in flight.
	time.Sleep(10 * time.Millisecond)
	if err := m.SetCurrent(1); err != nil {
		t.Fatalf("SetCurrent returned error: %v", err)
	}

	if err := <-errc; err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	sink.CloseSend()

	chunks, _ := drainChunks(sink)
	if got := chunks[len(chunks)-1].Content; got != "slow answer" {
		t.Fatalf("final content = %q, want the snapshotted backend's answer", got)
	}
	if len(slow.Sends) != 1 || len(fast.Sends) != 0 {
		t.Fatalf("request landed on wrong backend: slow=%d fast=%d", len(slow.Sends), len(fast.Sends))
	}
}
