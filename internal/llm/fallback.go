package llm

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
)

// runWithFallback executes the streaming-then-fallback policy shared by all
// backends and returns the full response content.
//
// The streaming attempt runs first unless streaming is disabled by config.
// Transport failures during streaming trigger exactly one non-streaming
// retry; missing credentials and protocol failures are terminal immediately
// (retrying a non-transient failure is pointless). A failure of both
// attempts yields a composite error carrying both messages.
func runWithFallback(
	ctx context.Context,
	logger *log.Logger,
	streaming bool,
	stream func(context.Context) (string, error),
	complete func(context.Context) (string, error),
) (string, error) {
	var streamErr error
	if streaming {
		content, err := stream(ctx)
		if err == nil {
			return content, nil
		}
		if IsKind(err, ErrMissingCredential) || IsKind(err, ErrProtocol) {
			return "", err
		}
		logger.Warn("streaming request failed, retrying non-streaming", "error", err)
		streamErr = err
	}

	content, err := complete(ctx)
	if err != nil {
		if streamErr != nil {
			composite := bothFailed(streamErr, err)
			logger.Error("both streaming and non-streaming requests failed",
				"stream_error", streamErr, "fallback_error", err)
			return "", composite
		}
		return "", err
	}
	return content, nil
}

// deliverResult pushes the single terminal chunk for a completed call.
// On error the chunk content is a human-readable message so the UI never
// sees silence.
func deliverResult(sink *ResponseChannel, content string, err error) {
	if sink == nil {
		return
	}
	if err != nil {
		sink.Send(ResponseChunk{Content: fmt.Sprintf("Error: %v", err), Final: true})
		return
	}
	sink.Send(ResponseChunk{Content: content, Final: true})
}
