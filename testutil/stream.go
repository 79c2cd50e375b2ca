// Package testutil provides httptest servers for SDK tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/google/uuid"
)

// SSEStep describes one chunk of an event-stream body with an optional delay.
// Chunks are written verbatim, so a step may carry a partial frame.
type SSEStep struct {
	Delay time.Duration
	Chunk string
}

// Event renders a complete SSE frame for the given event name and data line.
func Event(name, data string) SSEStep {
	return SSEStep{Chunk: "event: " + name + "\ndata: " + data + "\n\n"}
}

// SSEServerConfig configures the event-stream test server.
type SSEServerConfig struct {
	Status     int
	Headers    map[string]string
	FinalDelay time.Duration
}

// NewSSEServer returns an httptest server that streams SSE chunks with
// delays. Every response carries a generated Request-Id unless the config
// overrides it.
func NewSSEServer(steps []SSEStep, cfg SSEServerConfig) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		status := cfg.Status
		if status == 0 {
			status = http.StatusOK
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Request-Id", uuid.NewString())
		for k, v := range cfg.Headers {
			w.Header().Set(k, v)
		}
		w.WriteHeader(status)
		flusher, _ := w.(http.Flusher)
		for _, step := range steps {
			if step.Delay > 0 {
				time.Sleep(step.Delay)
			}
			_, _ = w.Write([]byte(step.Chunk))
			if flusher != nil {
				flusher.Flush()
			}
		}
		if cfg.FinalDelay > 0 {
			time.Sleep(cfg.FinalDelay)
		}
	}))
}

// JSONLStep describes a line to emit with an optional delay.
type JSONLStep struct {
	Delay time.Duration
	Line  string
}

// JSONLServerConfig configures the JSON Lines test server.
type JSONLServerConfig struct {
	Status     int
	Headers    map[string]string
	FinalDelay time.Duration
}

// NewJSONLServer returns an httptest server that streams JSON lines with delays.
func NewJSONLServer(steps []JSONLStep, cfg JSONLServerConfig) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		status := cfg.Status
		if status == 0 {
			status = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.Header().Set("Request-Id", uuid.NewString())
		for k, v := range cfg.Headers {
			w.Header().Set(k, v)
		}
		w.WriteHeader(status)
		flusher, _ := w.(http.Flusher)
		for _, step := range steps {
			if step.Delay > 0 {
				time.Sleep(step.Delay)
			}
			_, _ = w.Write([]byte(step.Line + "\n"))
			if flusher != nil {
				flusher.Flush()
			}
		}
		if cfg.FinalDelay > 0 {
			time.Sleep(cfg.FinalDelay)
		}
	}))
}
