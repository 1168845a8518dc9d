package llm

import (
	"context"
	"sync"
	"time"
)

// MockTurn scripts one Send or TestAvailability invocation on a MockBackend.
type MockTurn struct {
	Deltas      []string      // cumulative non-final chunk contents
	Final       string        // content of the final chunk on success
	StreamErr   error         // streaming attempt fails with this error
	FallbackErr error         // non-streaming fallback fails with this error
	Delay       time.Duration // optional delay before responding
}

// SendRecord captures the arguments of one Send invocation.
type SendRecord struct {
	Text      string
	ImagePath string
}

// MockBackend is a configurable backend for testing. It returns scripted
// turns and records every request for verification, honoring the same
// terminal-chunk and fallback contract as the real backends.
type MockBackend struct {
	provider  ProviderID
	model     string
	mu        sync.Mutex
	turns     []MockTurn
	turnIndex int
	Sends     []SendRecord
}

func NewMockBackend(provider ProviderID, model string) *MockBackend {
	return &MockBackend{provider: provider, model: model}
}

// AddTurn appends a scripted turn and returns the backend for chaining.
func (m *MockBackend) AddTurn(t MockTurn) *MockBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, t)
	return m
}

// AddTextResponse scripts a plain streaming success.
func (m *MockBackend) AddTextResponse(text string) *MockBackend {
	return m.AddTurn(MockTurn{Final: text})
}

func (m *MockBackend) Provider() ProviderID {
	return m.provider
}

func (m *MockBackend) ModelName() string {
	return m.model
}

func (m *MockBackend) nextTurn() MockTurn {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.turnIndex >= len(m.turns) {
		return MockTurn{Final: "(no turn scripted)"}
	}
	turn := m.turns[m.turnIndex]
	m.turnIndex++
	return turn
}

func (m *MockBackend) run(ctx context.Context, turn MockTurn, sink *ResponseChannel) (string, error) {
	if turn.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", transportError("mock call cancelled", ctx.Err())
		case <-time.After(turn.Delay):
		}
	}

	if turn.StreamErr == nil {
		for _, delta := range turn.Deltas {
			if sink != nil {
				sink.Send(ResponseChunk{Content: delta})
			}
		}
		return turn.Final, nil
	}

	// Streaming failed: fall back once, exactly like the real backends.
	if turn.FallbackErr != nil {
		return "", bothFailed(turn.StreamErr, turn.FallbackErr)
	}
	return turn.Final, nil
}

func (m *MockBackend) Send(ctx context.Context, text, imagePath string, sink *ResponseChannel) error {
	m.mu.Lock()
	m.Sends = append(m.Sends, SendRecord{Text: text, ImagePath: imagePath})
	m.mu.Unlock()

	content, err := m.run(ctx, m.nextTurn(), sink)
	deliverResult(sink, content, err)
	return err
}

func (m *MockBackend) TestAvailability(ctx context.Context) (string, error) {
	return m.run(ctx, m.nextTurn(), nil)
}
