package llm

import "sync"

// ResponseChannel is a single-producer conduit of ResponseChunks bridging a
// backend call running in the background to a consumer on another execution
// context (typically a UI event loop).
//
// The producer side never blocks indefinitely and never panics once the
// consumer has abandoned the channel: sends after Close are swallowed.
type ResponseChannel struct {
	ch   chan ResponseChunk
	done chan struct{}
	once sync.Once
}

func NewResponseChannel() *ResponseChannel {
	return &ResponseChannel{
		ch:   make(chan ResponseChunk, 16),
		done: make(chan struct{}),
	}
}

// Send delivers a chunk to the consumer. It returns false if the consumer
// has closed the channel; the chunk is dropped in that case.
func (c *ResponseChannel) Send(chunk ResponseChunk) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.ch <- chunk:
		return true
	case <-c.done:
		return false
	}
}

// CloseSend signals that no more chunks will be produced. Producer side only;
// the chunk channel is closed so consumer range loops terminate.
func (c *ResponseChannel) CloseSend() {
	close(c.ch)
}

// Chunks returns the ordered chunk stream. It is closed by CloseSend.
func (c *ResponseChannel) Chunks() <-chan ResponseChunk {
	return c.ch
}

// Close abandons consumer interest. The in-flight call runs to completion in
// the background; subsequent sends are dropped. Safe to call more than once.
func (c *ResponseChannel) Close() {
	c.once.Do(func() { close(c.done) })
}
