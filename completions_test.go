package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cortexapis/anthropic-go/testutil"
)

func TestCompletionsNew(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/complete" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		var sent map[string]any
		if err := json.Unmarshal(body, &sent); err != nil {
			t.Fatalf("unmarshal body: %v", err)
		}
		if sent["prompt"] != "\n\nHuman: hi\n\nAssistant:" {
			t.Errorf("prompt = %v", sent["prompt"])
		}
		if sent["temperature"] != 0.2 {
			t.Errorf("temperature = %v", sent["temperature"])
		}
		w.Header().Set("Request-Id", "req_c")
		w.Write([]byte(`{"id":"compl_1","type":"completion","completion":" Hello!","model":"claude-2.1","stop_reason":"stop_sequence"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	completion, err := client.Completions.New(context.Background(), CompletionCreateParams{
		Model:             "claude-2.1",
		Prompt:            "\n\nHuman: hi\n\nAssistant:",
		MaxTokensToSample: 64,
		Temperature:       Float64Ptr(0.2),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if completion.Completion != " Hello!" || completion.RequestID != "req_c" {
		t.Errorf("completion = %+v", completion)
	}
}

func TestCompletionsNewRejectsStreamFlag(t *testing.T) {
	client, err := NewClient(Config{APIKey: "k"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = client.Completions.New(context.Background(), CompletionCreateParams{
		Model:             "claude-2.1",
		Prompt:            "p",
		MaxTokensToSample: 8,
		Stream:            true,
	})
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("err = %v, want ErrInternal", err)
	}
}

func TestCompletionsStreaming(t *testing.T) {
	server := testutil.NewSSEServer([]testutil.SSEStep{
		testutil.Event("completion", `{"id":"compl_1","type":"completion","completion":"Hel","model":"claude-2.1","stop_reason":null}`),
		testutil.Event("ping", `{}`),
		testutil.Event("completion", `{"id":"compl_1","type":"completion","completion":"lo","model":"claude-2.1","stop_reason":"stop_sequence"}`),
	}, testutil.SSEServerConfig{})
	defer server.Close()

	client := newTestClient(t, server.URL)
	stream, err := client.Completions.NewStreaming(context.Background(), CompletionCreateParams{
		Model:             "claude-2.1",
		Prompt:            "p",
		MaxTokensToSample: 8,
	})
	if err != nil {
		t.Fatalf("NewStreaming: %v", err)
	}
	defer stream.Close()

	var text string
	for {
		chunk, ok, err := stream.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		text += chunk.Completion
	}
	if text != "Hello" {
		t.Errorf("text = %q", text)
	}
}
