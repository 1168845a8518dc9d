// Package dispatch runs LLM requests on background goroutines so the UI
// thread is never blocked on the network. Each dispatched call owns a
// response channel the UI drains; abandoning the call detaches the producer
// without waiting for it.
package dispatch

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/clipask/clipask/internal/llm"
)

// ChatRequest is one user question handed to the backend manager.
type ChatRequest struct {
	Text      string
	ImagePath string // optional screenshot path, "" for text-only
}

// Dispatcher fans requests out to the backend manager. It holds no request
// state of its own; each Dispatch returns a self-contained Call.
type Dispatcher struct {
	manager *llm.Manager
	logger  *log.Logger
}

func New(manager *llm.Manager) *Dispatcher {
	return &Dispatcher{
		manager: manager,
		logger:  log.With("component", "dispatch"),
	}
}

// Call is one in-flight request. Chunks delivers incremental content until
// the terminal chunk; Err blocks until the request finishes and reports the
// backend's verdict.
type Call struct {
	sink *llm.ResponseChannel
	done chan struct{}
	err  error
}

// Dispatch starts req on a background goroutine against whichever backend is
// current at dispatch time and returns immediately.
func (d *Dispatcher) Dispatch(ctx context.Context, req ChatRequest) *Call {
	call := &Call{
		sink: llm.NewResponseChannel(),
		done: make(chan struct{}),
	}
	d.logger.Debug("dispatching request", "has_image", req.ImagePath != "", "chars", len(req.Text))

	go func() {
		defer close(call.done)
		defer call.sink.CloseSend()
		call.err = d.manager.Send(ctx, req.Text, req.ImagePath, call.sink)
	}()
	return call
}

// Chunks is the stream of response chunks. It is closed once the terminal
// chunk has been delivered.
func (c *Call) Chunks() <-chan llm.ResponseChunk {
	return c.sink.Chunks()
}

// Err blocks until the request has finished and returns its error, if any.
func (c *Call) Err() error {
	<-c.done
	return c.err
}

// Abandon detaches the consumer. The producing goroutine keeps running until
// its own context expires, but every further chunk it sends is discarded
// instead of blocking it.
func (c *Call) Abandon() {
	c.sink.Close()
}
