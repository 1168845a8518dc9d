package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const githubDefaultModel = "gpt-4o"

// githubModelsBaseURL is the fixed GitHub Models inference endpoint.
const githubModelsBaseURL = "https://models.inference.ai.azure.com"

const githubSystemPrompt = "You are a helpful assistant for analyzing questions and images."

// githubHTTPClient is shared across backend instances.
var githubHTTPClient = &http.Client{
	Timeout: 60 * time.Second,
}

// GitHubModelsBackend talks to the GitHub Models inference API, an
// OpenAI-compatible chat-completions endpoint authenticated with a GitHub
// token. The token is an explicit field copied from config at construction;
// process environment is never consulted or mutated here.
type GitHubModelsBackend struct {
	token     string
	model     string
	baseURL   string
	streaming bool
	client    *http.Client
	logger    *log.Logger
}

func NewGitHubModelsBackend(token, model string, streaming bool) *GitHubModelsBackend {
	if model == "" {
		model = githubDefaultModel
	}
	return &GitHubModelsBackend{
		token:     token,
		model:     model,
		baseURL:   githubModelsBaseURL,
		streaming: streaming,
		client:    githubHTTPClient,
		logger:    log.With("backend", "github"),
	}
}

// WithBaseURL overrides the inference endpoint. Used by tests.
func (b *GitHubModelsBackend) WithBaseURL(baseURL string) *GitHubModelsBackend {
	b.baseURL = baseURL
	return b
}

func (b *GitHubModelsBackend) Provider() ProviderID {
	return ProviderGitHubModels
}

func (b *GitHubModelsBackend) ModelName() string {
	return b.model
}

// Wire types for the OpenAI-compatible chat-completions schema.
type ghChatRequest struct {
	Model    string          `json:"model"`
	Messages []ghChatMessage `json:"messages"`
	Stream   bool            `json:"stream,omitempty"`
}

type ghChatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string or []ghContentPart
}

type ghContentPart struct {
	Type     string      `json:"type"`
	Text     string      `json:"text,omitempty"`
	ImageURL *ghImageURL `json:"image_url,omitempty"`
}

type ghImageURL struct {
	URL string `json:"url"`
}

type ghChatResponse struct {
	Choices []struct {
		Delta *struct {
			Content string `json:"content"`
		} `json:"delta,omitempty"`
		Message *struct {
			Content string `json:"content"`
		} `json:"message,omitempty"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (b *GitHubModelsBackend) buildMessages(text, imagePath string) []ghChatMessage {
	messages := []ghChatMessage{
		{Role: "system", Content: githubSystemPrompt},
	}
	if imagePath != "" {
		dataURL, err := EncodeImageDataURL(imagePath)
		if err != nil {
			b.logger.Warn("failed to encode image, sending text only", "path", imagePath, "error", err)
			return append(messages, ghChatMessage{Role: "user", Content: text})
		}
		b.logger.Debug("attached image", "path", imagePath, "data_url_len", len(dataURL))
		return append(messages, ghChatMessage{
			Role: "user",
			Content: []ghContentPart{
				{Type: "text", Text: text},
				{Type: "image_url", ImageURL: &ghImageURL{URL: dataURL}},
			},
		})
	}
	return append(messages, ghChatMessage{Role: "user", Content: text})
}

func (b *GitHubModelsBackend) Send(ctx context.Context, text, imagePath string, sink *ResponseChannel) error {
	if b.token == "" {
		err := missingCredential("no GitHub token configured for the GitHub Models backend")
		b.logger.Error("send failed", "error", err)
		deliverResult(sink, "", err)
		return err
	}

	messages := b.buildMessages(text, imagePath)
	content, err := runWithFallback(ctx, b.logger, b.streaming,
		func(ctx context.Context) (string, error) { return b.streamCompletion(ctx, messages, sink) },
		func(ctx context.Context) (string, error) { return b.completion(ctx, messages) },
	)
	deliverResult(sink, content, err)
	return err
}

func (b *GitHubModelsBackend) TestAvailability(ctx context.Context) (string, error) {
	if b.token == "" {
		return "", missingCredential("no GitHub token configured for the GitHub Models backend")
	}
	messages := []ghChatMessage{
		{Role: "system", Content: githubSystemPrompt},
		{Role: "user", Content: probeMessage},
	}
	return runWithFallback(ctx, b.logger, b.streaming,
		func(ctx context.Context) (string, error) { return b.streamCompletion(ctx, messages, nil) },
		func(ctx context.Context) (string, error) { return b.completion(ctx, messages) },
	)
}

// newRequest builds an authenticated chat-completions request.
func (b *GitHubModelsBackend) newRequest(ctx context.Context, chatReq ghChatRequest) (*http.Request, error) {
	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", b.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.token)
	return req, nil
}

// streamCompletion performs the SSE streaming attempt, pushing cumulative
// non-final chunks into sink as deltas arrive.
func (b *GitHubModelsBackend) streamCompletion(ctx context.Context, messages []ghChatMessage, sink *ResponseChannel) (string, error) {
	req, err := b.newRequest(ctx, ghChatRequest{Model: b.model, Messages: messages, Stream: true})
	if err != nil {
		return "", transportError("github models streaming request failed", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", transportError("github models streaming request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", b.statusError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var content strings.Builder
	unmarshalErrors := 0

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			break
		}

		var chunk ghChatResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// Tolerate keepalives and partial lines, but not a broken stream.
			unmarshalErrors++
			if unmarshalErrors > 10 {
				return "", protocolError(fmt.Sprintf("too many SSE parse errors, last: %v", err))
			}
			continue
		}
		if chunk.Error != nil {
			return "", protocolError("github models API error: " + chunk.Error.Message)
		}

		for _, choice := range chunk.Choices {
			if choice.Delta == nil || choice.Delta.Content == "" {
				continue
			}
			content.WriteString(choice.Delta.Content)
			if sink != nil {
				sink.Send(ResponseChunk{Content: content.String()})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return "", transportError("github models streaming error", err)
	}

	b.logger.Debug("streaming response complete", "length", content.Len())
	return content.String(), nil
}

// completion performs a single non-streaming attempt.
func (b *GitHubModelsBackend) completion(ctx context.Context, messages []ghChatMessage) (string, error) {
	req, err := b.newRequest(ctx, ghChatRequest{Model: b.model, Messages: messages})
	if err != nil {
		return "", transportError("github models request failed", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return "", transportError("github models request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", b.statusError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError("failed to read github models response", err)
	}

	var chatResp ghChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", protocolError(fmt.Sprintf("failed to decode github models response: %v", err))
	}
	if chatResp.Error != nil {
		return "", protocolError("github models API error: " + chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message == nil {
		return "", protocolError("github models response contained no choices")
	}
	content := chatResp.Choices[0].Message.Content
	if content == "" {
		return "", protocolError("github models response contained no content")
	}

	b.logger.Debug("non-streaming response complete", "length", len(content))
	return content, nil
}

func (b *GitHubModelsBackend) statusError(resp *http.Response) *BackendError {
	body, _ := io.ReadAll(resp.Body)
	msg := fmt.Sprintf("github models API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		msg = fmt.Sprintf("github models authentication failed (status %d): token may be invalid or expired", resp.StatusCode)
	}
	return transportError(msg, nil)
}
