package tui

import (
	"testing"

	"github.com/clipask/clipask/internal/llm"
)

func TestChunkMsgReplacesContent(t *testing.T) {
	m := newAskModel(nil)

	updated, _ := m.Update(chunkMsg{Content: "Hel"})
	m = updated.(askModel)
	updated, _ = m.Update(chunkMsg{Content: "Hello world"})
	m = updated.(askModel)

	// Cumulative chunks replace the buffer; appending would double text.
	if m.content != "Hello world" {
		t.Fatalf("content = %q, want %q", m.content, "Hello world")
	}
	if !m.hasContent {
		t.Fatalf("hasContent = false after chunks")
	}
}

func TestDoneMsgRendersFinalView(t *testing.T) {
	m := newAskModel(nil)
	updated, _ := m.Update(chunkMsg{Content: "# Title"})
	m = updated.(askModel)

	updated, cmd := m.Update(doneMsg{})
	m = updated.(askModel)

	if !m.done {
		t.Fatalf("done = false after doneMsg")
	}
	if m.finalView == "" {
		t.Fatalf("final view is empty")
	}
	if cmd == nil {
		t.Fatalf("doneMsg should quit the program")
	}
	if m.View() != m.finalView {
		t.Fatalf("View() after done should be the final view")
	}
}

func TestWaitForChunkSignalsDrainedChannel(t *testing.T) {
	ch := make(chan llm.ResponseChunk, 1)
	ch <- llm.ResponseChunk{Content: "hi"}
	close(ch)

	if msg := waitForChunk(ch)(); msg != (chunkMsg{Content: "hi"}) {
		t.Fatalf("first message = %#v, want the chunk", msg)
	}
	if _, ok := waitForChunk(ch)().(doneMsg); !ok {
		t.Fatalf("closed channel should yield doneMsg")
	}
}

func TestViewShowsSpinnerBeforeContent(t *testing.T) {
	m := newAskModel(nil)
	if view := m.View(); view == "" {
		t.Fatalf("initial view is empty, want spinner line")
	}
}
