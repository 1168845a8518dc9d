package llm

import (
	"testing"
	"time"
)

func TestResponseChannelDeliversInOrder(t *testing.T) {
	ch := NewResponseChannel()
	want := []ResponseChunk{
		{Content: "Hel"},
		{Content: "Hello"},
		{Content: "Hello world", Final: true},
	}
	for _, c := range want {
		if !ch.Send(c) {
			t.Fatalf("Send(%q) returned false on open channel", c.Content)
		}
	}
	ch.CloseSend()

	var got []ResponseChunk
	for c := range ch.Chunks() {
		got = append(got, c)
	}
	if len(got) != len(want) {
		t.Fatalf("received %d chunks, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("chunk %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestResponseChannelSwallowsSendsAfterClose(t *testing.T) {
	ch := NewResponseChannel()
	ch.Close()

	done := make(chan bool, 1)
	go func() {
		done <- ch.Send(ResponseChunk{Content: "dropped"})
	}()

	select {
	case ok := <-done:
		if ok {
			t.Fatalf("Send after Close returned true, want false")
		}
	case <-time.After(time.Second):
		t.Fatalf("Send blocked after consumer closed the channel")
	}
}

func TestResponseChannelCloseUnblocksProducer(t *testing.T) {
	ch := NewResponseChannel()

	// Saturate the buffer so the next send must block.
	for i := 0; i < cap(ch.ch); i++ {
		ch.Send(ResponseChunk{Content: "fill"})
	}

	done := make(chan bool, 1)
	go func() {
		done <- ch.Send(ResponseChunk{Content: "blocked"})
	}()

	time.Sleep(10 * time.Millisecond)
	ch.Close()

	select {
	case ok := <-done:
		if ok {
			t.Fatalf("blocked Send returned true after Close, want false")
		}
	case <-time.After(time.Second):
		t.Fatalf("blocked Send was not released by Close")
	}
}

func TestResponseChannelCloseIsIdempotent(t *testing.T) {
	ch := NewResponseChannel()
	ch.Close()
	ch.Close()
}
