package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// Manager owns the set of configured backends and tracks which one is
// current. Both built-in backends are constructed eagerly from a single
// config so a provider switch is a pure index flip; credential validation
// happens lazily at call time.
//
// The current index is guarded by a mutex because both the settings UI and
// the dispatcher may touch it concurrently. The lock is never held across a
// network call: Send snapshots the current backend and releases the lock
// before dispatching, so flipping providers mid-flight cannot affect an
// already-running request.
type Manager struct {
	mu       sync.Mutex
	backends []Backend
	current  int // -1 when empty
	logger   *log.Logger
}

// BackendInfo describes one registered backend for display purposes.
type BackendInfo struct {
	Index    int
	Provider ProviderID
	Model    string
}

// NewManager constructs both backend variants from cfg and selects the
// current one from cfg.Provider. Construction never fails; an unusable
// backend reports its missing credential when called.
func NewManager(cfg BackendConfig) *Manager {
	m := &Manager{current: -1, logger: log.With("component", "manager")}
	openaiIdx := m.Add(NewOpenAICompatBackend(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.EnableStreaming))
	githubIdx := m.Add(NewGitHubModelsBackend(cfg.GitHubToken, cfg.Model, cfg.EnableStreaming))

	switch cfg.Provider {
	case ProviderGitHubModels:
		m.SetCurrent(githubIdx)
	default:
		m.SetCurrent(openaiIdx)
	}
	return m
}

// Add registers a backend and returns its index. The first backend added
// becomes current.
func (m *Manager) Add(b Backend) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	index := len(m.backends)
	m.backends = append(m.backends, b)
	if m.current < 0 {
		m.current = index
	}
	return index
}

// SetCurrent switches the current backend. Out-of-range indices return an
// error and leave the selection unchanged.
func (m *Manager) SetCurrent(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.backends) {
		return fmt.Errorf("backend index %d out of range (have %d)", index, len(m.backends))
	}
	m.current = index
	return nil
}

// Current returns the current backend, or false if none is registered.
func (m *Manager) Current() (Backend, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current < 0 || m.current >= len(m.backends) {
		return nil, false
	}
	return m.backends[m.current], true
}

// List enumerates the registered backends.
func (m *Manager) List() []BackendInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	infos := make([]BackendInfo, 0, len(m.backends))
	for i, b := range m.backends {
		infos = append(infos, BackendInfo{Index: i, Provider: b.Provider(), Model: b.ModelName()})
	}
	return infos
}

// Send delegates to the current backend. The backend is snapshotted before
// the call so concurrent SetCurrent calls cannot redirect an in-flight
// request.
func (m *Manager) Send(ctx context.Context, text, imagePath string, sink *ResponseChannel) error {
	backend, ok := m.Current()
	if !ok {
		err := &BackendError{Kind: ErrNoBackend, Message: "no backend available"}
		deliverResult(sink, "", err)
		return err
	}
	m.logger.Info("sending message", "provider", backend.Provider(), "model", backend.ModelName(), "has_image", imagePath != "")
	return backend.Send(ctx, text, imagePath, sink)
}

// TestCurrent runs the availability probe against the current backend.
func (m *Manager) TestCurrent(ctx context.Context) (string, error) {
	backend, ok := m.Current()
	if !ok {
		return "", &BackendError{Kind: ErrNoBackend, Message: "no backend available"}
	}
	return backend.TestAvailability(ctx)
}
