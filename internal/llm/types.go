package llm

import "context"

// ProviderID identifies a built-in backend variant.
type ProviderID int

const (
	ProviderOpenAICompat ProviderID = iota
	ProviderGitHubModels
)

func (p ProviderID) String() string {
	switch p {
	case ProviderOpenAICompat:
		return "openai"
	case ProviderGitHubModels:
		return "github"
	default:
		return "unknown"
	}
}

// ParseProviderID maps a config tag to a provider. Unrecognized tags fall
// back to the OpenAI-compatible backend.
func ParseProviderID(s string) ProviderID {
	switch s {
	case "github", "github-models":
		return ProviderGitHubModels
	default:
		return ProviderOpenAICompat
	}
}

// ResponseChunk is one unit of text content delivered to a consumer.
// Content is cumulative: each chunk carries the full text produced so far.
// Exactly one chunk with Final=true is delivered per Send invocation,
// on success and on failure alike (failure content carries the error text).
type ResponseChunk struct {
	Content string
	Final   bool
}

// BackendConfig is the immutable snapshot a Manager is constructed from.
// Backends copy the fields they need; the caller owns the value and the
// core never mutates it.
type BackendConfig struct {
	Provider        ProviderID
	Model           string
	APIKey          string
	BaseURL         string
	GitHubToken     string
	EnableStreaming bool
}

// Backend is one concrete integration with a specific LLM chat API.
//
// Send attempts a streaming call first and falls back once to a single
// non-streaming call on streaming failure. Every incremental delta is
// pushed to sink as a cumulative non-final chunk; completion or terminal
// failure is always signalled with a single final chunk.
type Backend interface {
	Provider() ProviderID
	ModelName() string
	Send(ctx context.Context, text, imagePath string, sink *ResponseChannel) error
	TestAvailability(ctx context.Context) (string, error)
}

// probeMessage is the canned request used by TestAvailability.
const probeMessage = "Please respond with a short confirmation that you are available."
