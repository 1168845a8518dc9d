package llm

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const openaiDefaultModel = "gpt-4o"

// openaiRequestTimeout bounds a single attempt (streaming or not).
const openaiRequestTimeout = 60 * time.Second

const openaiSystemPrompt = "You are a helpful assistant for analyzing questions and images."

// OpenAICompatBackend talks to the OpenAI API or any OpenAI-compatible
// gateway through the official SDK. Credentials and endpoint are copied at
// construction time; the backend is immutable afterwards.
type OpenAICompatBackend struct {
	client    *openai.Client
	model     string
	apiKey    string
	baseURL   string
	streaming bool
	logger    *log.Logger
}

func NewOpenAICompatBackend(apiKey, baseURL, model string, streaming bool) *OpenAICompatBackend {
	if model == "" {
		model = openaiDefaultModel
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(openaiRequestTimeout),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAICompatBackend{
		client:    &client,
		model:     model,
		apiKey:    apiKey,
		baseURL:   baseURL,
		streaming: streaming,
		logger:    log.With("backend", "openai"),
	}
}

func (b *OpenAICompatBackend) Provider() ProviderID {
	return ProviderOpenAICompat
}

func (b *OpenAICompatBackend) ModelName() string {
	return b.model
}

// buildMessages assembles the outgoing message list. When an image path is
// supplied the image is inlined as a PNG data URL next to the text; if the
// image cannot be read the request degrades to text-only rather than
// aborting.
func (b *OpenAICompatBackend) buildMessages(text, imagePath string) []openai.ChatCompletionMessageParamUnion {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(openaiSystemPrompt),
	}
	if imagePath != "" {
		dataURL, err := EncodeImageDataURL(imagePath)
		if err != nil {
			b.logger.Warn("failed to encode image, sending text only", "path", imagePath, "error", err)
			return append(messages, openai.UserMessage(text))
		}
		b.logger.Debug("attached image", "path", imagePath, "data_url_len", len(dataURL))
		return append(messages, openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
			openai.TextContentPart(text),
			openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
		}))
	}
	return append(messages, openai.UserMessage(text))
}

func (b *OpenAICompatBackend) Send(ctx context.Context, text, imagePath string, sink *ResponseChannel) error {
	if b.apiKey == "" {
		err := missingCredential("no API key configured for the OpenAI-compatible backend")
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

func (b *OpenAICompatBackend) TestAvailability(ctx context.Context) (string, error) {
	if b.apiKey == "" {
		return "", missingCredential("no API key configured for the OpenAI-compatible backend")
	}
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(openaiSystemPrompt),
		openai.UserMessage(probeMessage),
	}
	return runWithFallback(ctx, b.logger, b.streaming,
		func(ctx context.Context) (string, error) { return b.streamCompletion(ctx, messages, nil) },
		func(ctx context.Context) (string, error) { return b.completion(ctx, messages) },
	)
}

// streamCompletion runs the streaming attempt, pushing cumulative non-final
// chunks into sink as deltas arrive. Returns the accumulated content.
func (b *OpenAICompatBackend) streamCompletion(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, sink *ResponseChannel) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(b.model),
		Messages: messages,
	}

	stream := b.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	var content strings.Builder
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		content.WriteString(delta)
		if sink != nil {
			sink.Send(ResponseChunk{Content: content.String()})
		}
	}
	if err := stream.Err(); err != nil {
		return "", transportError("openai streaming request failed", err)
	}
	b.logger.Debug("streaming response complete", "length", content.Len())
	return content.String(), nil
}

// completion runs a single non-streaming attempt.
func (b *OpenAICompatBackend) completion(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(b.model),
		Messages: messages,
	}

	resp, err := b.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", transportError("openai request failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", protocolError("openai response contained no choices")
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", protocolError("openai response contained no content")
	}
	b.logger.Debug("non-streaming response complete", "length", len(content))
	return content, nil
}
