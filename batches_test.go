package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBatchesNewAndGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/messages/batches":
			body, _ := io.ReadAll(r.Body)
			var params BatchCreateParams
			if err := json.Unmarshal(body, &params); err != nil {
				t.Errorf("unmarshal request: %v", err)
			}
			if len(params.Requests) != 1 || params.Requests[0].CustomID != "r1" {
				t.Errorf("params = %+v", params)
			}
			w.Write([]byte(`{"id":"batch_1","type":"message_batch","processing_status":"in_progress","request_counts":{"processing":1},"results_url":null,"created_at":"2025-06-01T00:00:00Z","expires_at":"2025-06-02T00:00:00Z"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/v1/messages/batches/batch_1":
			w.Write([]byte(`{"id":"batch_1","type":"message_batch","processing_status":"ended","request_counts":{"succeeded":1},"results_url":"https://files.example.com/results","created_at":"2025-06-01T00:00:00Z","expires_at":"2025-06-02T00:00:00Z"}`))
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	batch, err := client.Messages.Batches.New(context.Background(), BatchCreateParams{
		Requests: []BatchRequest{{
			CustomID: "r1",
			Params: MessageCreateParams{
				Model:     "claude-sonnet-4-0",
				MaxTokens: 64,
				Messages:  []MessageParam{UserMessage("hi")},
			},
		}},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if batch.ID != "batch_1" || batch.ProcessingStatus != "in_progress" {
		t.Errorf("batch = %+v", batch)
	}
	if batch.RequestCounts.Processing != 1 {
		t.Errorf("counts = %+v", batch.RequestCounts)
	}

	batch, err = client.Messages.Batches.Get(context.Background(), "batch_1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if batch.ProcessingStatus != "ended" || batch.ResultsURL == nil {
		t.Errorf("batch = %+v", batch)
	}
}

func TestBatchesResults(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/results", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "application/binary" {
			t.Errorf("Accept = %q", got)
		}
		w.Write([]byte(`{"custom_id":"r1","result":{"type":"succeeded","message":{"id":"msg_1","content":[{"type":"text","text":"ok"}]}}}` + "\n"))
		w.Write([]byte(`{"custom_id":"r2","result":{"type":"errored","error":{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}}}` + "\n"))
		w.Write([]byte(`{"custom_id":"r3","result":{"type":"expired"}}`))
	})
	mux.HandleFunc("/v1/messages/batches/batch_1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"batch_1","processing_status":"ended","request_counts":{},"results_url":"` + server.URL + `/results","created_at":"2025-06-01T00:00:00Z","expires_at":"2025-06-02T00:00:00Z"}`))
	})

	client := newTestClient(t, server.URL)
	results, err := client.Messages.Batches.Results(context.Background(), "batch_1")
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	defer results.Close()

	var entries []BatchIndividualResponse
	for {
		entry, ok, err := results.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		entries = append(entries, entry)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d", len(entries))
	}
	if entries[0].Result.Type != "succeeded" || entries[0].Result.Message.Text() != "ok" {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[1].Result.Type != "errored" || entries[1].Result.Error.Error.Message != "bad" {
		t.Errorf("entry 1 = %+v", entries[1])
	}
	if entries[2].CustomID != "r3" || entries[2].Result.Type != "expired" {
		t.Errorf("entry 2 = %+v", entries[2])
	}
}

func TestBatchesResultsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"batch_1","processing_status":"in_progress","request_counts":{},"results_url":null,"created_at":"2025-06-01T00:00:00Z","expires_at":"2025-06-02T00:00:00Z"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Messages.Batches.Results(context.Background(), "batch_1")
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("err = %v, want ErrInternal", err)
	}
}

func TestBatchesCancelAndDelete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/messages/batches/batch_1/cancel":
			w.Write([]byte(`{"id":"batch_1","processing_status":"canceling","request_counts":{},"results_url":null,"created_at":"2025-06-01T00:00:00Z","expires_at":"2025-06-02T00:00:00Z"}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/v1/messages/batches/batch_1":
			w.Write([]byte(`{"id":"batch_1","type":"message_batch_deleted"}`))
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	batch, err := client.Messages.Batches.Cancel(context.Background(), "batch_1")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if batch.ProcessingStatus != "canceling" {
		t.Errorf("status = %q", batch.ProcessingStatus)
	}

	deleted, err := client.Messages.Batches.Delete(context.Background(), "batch_1")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted.Type != "message_batch_deleted" {
		t.Errorf("deleted = %+v", deleted)
	}
}
