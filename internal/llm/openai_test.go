package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newOpenAITestBackend(t *testing.T, streaming bool, stream, complete http.HandlerFunc) (*OpenAICompatBackend, *ghTestServer) {
	t.Helper()
	srv := newGHTestServer(t, stream, complete)
	return NewOpenAICompatBackend("sk-test", srv.URL, "gpt-4o", streaming), srv
}

func TestOpenAIBackendStreamingSuccess(t *testing.T) {
	b, srv := newOpenAITestBackend(t, true,
		func(w http.ResponseWriter, r *http.Request) {
			writeSSE(w, sseDelta("Hel"), sseDelta("lo"), sseDelta(" world"), "[DONE]")
		},
		func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("non-streaming endpoint hit after streaming success")
		},
	)

	sink := NewResponseChannel()
	err := b.Send(context.Background(), "greet me", "", sink)
	sink.CloseSend()
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	chunks, finals := drainChunks(sink)
	if finals != 1 {
		t.Fatalf("delivered %d final chunks, want exactly 1", finals)
	}
	want := []string{"Hel", "Hello", "Hello world", "Hello world"}
	if len(chunks) != len(want) {
		t.Fatalf("received %d chunks, want %d", len(chunks), len(want))
	}
	for i, c := range chunks {
		if c.Content != want[i] {
			t.Fatalf("chunk %d content = %q, want cumulative %q", i, c.Content, want[i])
		}
	}
	if srv.completeCalls.Load() != 0 {
		t.Fatalf("non-streaming endpoint was called %d times", srv.completeCalls.Load())
	}
}

func TestOpenAIBackendStreamDropFallsBackToComplete(t *testing.T) {
	b, srv := newOpenAITestBackend(t, true,
		func(w http.ResponseWriter, r *http.Request) {
			writeSSE(w, sseDelta("Hel"))
			panic(http.ErrAbortHandler)
		},
		completeJSON("Hello world"),
	)

	sink := NewResponseChannel()
	err := b.Send(context.Background(), "greet me", "", sink)
	sink.CloseSend()
	if err != nil {
		t.Fatalf("fallback recovered, want nil error, got: %v", err)
	}

	chunks, finals := drainChunks(sink)
	if finals != 1 {
		t.Fatalf("delivered %d final chunks, want exactly 1", finals)
	}
	last := chunks[len(chunks)-1]
	if !last.Final || last.Content != "Hello world" {
		t.Fatalf("terminal chunk = %+v, want final %q", last, "Hello world")
	}
	if srv.completeCalls.Load() != 1 {
		t.Fatalf("non-streaming endpoint called %d times, want 1", srv.completeCalls.Load())
	}
}

func TestOpenAIBackendImageMessageCarriesDataURL(t *testing.T) {
	path := writeTestImage(t, "capture.png", func(f *os.File, img image.Image) error {
		return png.Encode(f, img)
	})

	b, srv := newOpenAITestBackend(t, false, nil, completeJSON("answered"))

	sink := NewResponseChannel()
	if err := b.Send(context.Background(), "what is in this image?", path, sink); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	sink.CloseSend()
	drainChunks(sink)

	req := srv.lastRequest.Load().(ghWireRequest)
	user := req.Messages[len(req.Messages)-1]
	if user.Role != "user" {
		t.Fatalf("last message role = %q, want user", user.Role)
	}

	var parts []struct {
		Type     string `json:"type"`
		Text     string `json:"text"`
		ImageURL struct {
			URL string `json:"url"`
		} `json:"image_url"`
	}
	if err := json.Unmarshal(user.Content, &parts); err != nil {
		t.Fatalf("user content is not a part array: %v", err)
	}
	if len(parts) != 2 {
		t.Fatalf("user content has %d parts, want text + image", len(parts))
	}
	if parts[0].Type != "text" || parts[0].Text != "what is in this image?" {
		t.Fatalf("text part = %+v", parts[0])
	}
	if parts[1].Type != "image_url" {
		t.Fatalf("second part type = %q, want image_url", parts[1].Type)
	}

	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(parts[1].ImageURL.URL, prefix) {
		t.Fatalf("image URL is not a PNG data URL: %.40s", parts[1].ImageURL.URL)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(parts[1].ImageURL.URL, prefix))
	if err != nil {
		t.Fatalf("image payload is not valid base64: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("image payload is not a valid PNG: %v", err)
	}
	if got := decoded.Bounds(); got.Dx() != 3 || got.Dy() != 2 {
		t.Fatalf("decoded dimensions = %dx%d, want 3x2", got.Dx(), got.Dy())
	}
}

func TestOpenAIBackendTextOnlyMessageIsPlainString(t *testing.T) {
	b, srv := newOpenAITestBackend(t, false, nil, completeJSON("answered"))

	sink := NewResponseChannel()
	if err := b.Send(context.Background(), "just text", "", sink); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	sink.CloseSend()
	drainChunks(sink)

	req := srv.lastRequest.Load().(ghWireRequest)
	user := req.Messages[len(req.Messages)-1]
	var content string
	if err := json.Unmarshal(user.Content, &content); err != nil {
		t.Fatalf("text-only content should be a plain string: %v (%s)", err, user.Content)
	}
	if content != "just text" {
		t.Fatalf("content = %q, want %q", content, "just text")
	}
}

func TestOpenAIBackendUnreadableImageDegradesToText(t *testing.T) {
	b, srv := newOpenAITestBackend(t, false, nil, completeJSON("answered"))

	missing := filepath.Join(t.TempDir(), "missing.png")
	sink := NewResponseChannel()
	err := b.Send(context.Background(), "describe it", missing, sink)
	sink.CloseSend()
	if err != nil {
		t.Fatalf("unreadable image must degrade, not fail: %v", err)
	}

	chunks, finals := drainChunks(sink)
	if finals != 1 || chunks[len(chunks)-1].Content != "answered" {
		t.Fatalf("terminal chunk = %+v (finals=%d)", chunks[len(chunks)-1], finals)
	}

	req := srv.lastRequest.Load().(ghWireRequest)
	if bytes.Contains(req.Messages[len(req.Messages)-1].Content, []byte("image_url")) {
		t.Fatalf("degraded request still carries an image part: %s", req.Messages[len(req.Messages)-1].Content)
	}
}

func TestOpenAIBackendMissingAPIKey(t *testing.T) {
	b := NewOpenAICompatBackend("", "", "gpt-4o", true)

	sink := NewResponseChannel()
	err := b.Send(context.Background(), "hi", "", sink)
	sink.CloseSend()

	if !IsKind(err, ErrMissingCredential) {
		t.Fatalf("error kind = %v, want MissingCredential", err)
	}
	chunks, finals := drainChunks(sink)
	if finals != 1 {
		t.Fatalf("delivered %d final chunks, want exactly 1", finals)
	}
	if !chunks[len(chunks)-1].Final {
		t.Fatalf("last chunk is not final")
	}

	if _, err := b.TestAvailability(context.Background()); !IsKind(err, ErrMissingCredential) {
		t.Fatalf("TestAvailability error = %v, want MissingCredential", err)
	}
}

func TestOpenAIBackendDefaults(t *testing.T) {
	b := NewOpenAICompatBackend("sk-test", "", "", true)
	if b.Provider() != ProviderOpenAICompat {
		t.Fatalf("provider = %v, want openai", b.Provider())
	}
	if b.ModelName() != openaiDefaultModel {
		t.Fatalf("model = %q, want default %q", b.ModelName(), openaiDefaultModel)
	}
}
