package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/cortexapis/anthropic-go/headers"
)

const streamReadChunk = 4096

// Stream is a single-consumer pull sequence of decoded items from a live SSE
// or JSONL response. Next is pull-based: no internal buffering beyond the
// current frame, so slow consumers backpressure the server naturally.
//
// Abort is idempotent and may be called from any goroutine; once observed,
// Next yields end-of-sequence silently even if undecoded bytes remain.
type Stream[T any] struct {
	body       io.ReadCloser
	cancel     context.CancelFunc
	requestID  string
	respHeader http.Header
	telemetry  TelemetryHooks
	ctx        context.Context

	decode func(data []byte) (T, error)

	// Exactly one of sse/lines is set, selecting the wire format.
	sse     *SSEParser
	allowed map[string]struct{}
	lines   *jsonlFramer

	pendingEvents []SSEEvent
	pendingLines  [][]byte
	readBuf       []byte
	eof           bool
	done          bool
	aborted       atomic.Bool
	closeOnce     sync.Once
}

func jsonDecode[T any](data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}

// newSSEStream wraps an open event-stream response. Only events named in
// allowed are surfaced; "ping" events and unlisted names are dropped, and an
// "error" event terminates the stream with a typed API error.
func newSSEStream[T any](ctx context.Context, resp *http.Response, cancel context.CancelFunc, allowed []string, telemetry TelemetryHooks) *Stream[T] {
	allowSet := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		allowSet[name] = struct{}{}
	}
	return &Stream[T]{
		body:       resp.Body,
		cancel:     cancel,
		requestID:  resp.Header.Get(headers.RequestID),
		respHeader: resp.Header.Clone(),
		telemetry:  telemetry,
		ctx:        ctx,
		decode:     jsonDecode[T],
		sse:        &SSEParser{},
		allowed:    allowSet,
		readBuf:    make([]byte, streamReadChunk),
	}
}

// newJSONLStream wraps an open newline-delimited JSON response.
func newJSONLStream[T any](ctx context.Context, resp *http.Response, cancel context.CancelFunc, telemetry TelemetryHooks) *Stream[T] {
	return &Stream[T]{
		body:       resp.Body,
		cancel:     cancel,
		requestID:  resp.Header.Get(headers.RequestID),
		respHeader: resp.Header.Clone(),
		telemetry:  telemetry,
		ctx:        ctx,
		decode:     jsonDecode[T],
		lines:      &jsonlFramer{},
		readBuf:    make([]byte, streamReadChunk),
	}
}

// RequestID echoes the Request-Id header captured at stream open.
func (s *Stream[T]) RequestID() string {
	return s.requestID
}

// Abort terminates the stream from any goroutine. The next pull returns
// end-of-sequence with no error.
func (s *Stream[T]) Abort() {
	if s.aborted.CompareAndSwap(false, true) {
		s.release()
	}
}

// Close terminates the underlying stream. Equivalent to Abort.
func (s *Stream[T]) Close() error {
	s.Abort()
	return nil
}

func (s *Stream[T]) release() {
	s.closeOnce.Do(func() {
		_ = s.body.Close()
		if s.cancel != nil {
			s.cancel()
		}
	})
}

// Next advances the stream, returning false when it is complete. Once an
// error is returned or the stream ends, subsequent calls return false.
func (s *Stream[T]) Next() (T, bool, error) {
	var zero T
	if s.done || s.aborted.Load() {
		return zero, false, nil
	}
	for {
		if s.aborted.Load() {
			return zero, false, nil
		}

		item, ok, terminal, err := s.nextPending()
		if err != nil {
			s.done = true
			s.release()
			return zero, false, err
		}
		if terminal {
			s.done = true
			s.release()
			return zero, false, nil
		}
		if ok {
			return item, true, nil
		}

		if err := s.fill(); err != nil {
			if s.aborted.Load() {
				return zero, false, nil
			}
			s.done = true
			s.release()
			return zero, false, err
		}
	}
}

// nextPending drains buffered frames. terminal is true for a clean in-band
// end (nothing pending and input exhausted).
func (s *Stream[T]) nextPending() (item T, ok, terminal bool, err error) {
	var zero T
	for {
		if s.sse != nil {
			if len(s.pendingEvents) == 0 {
				break
			}
			ev := s.pendingEvents[0]
			s.pendingEvents = s.pendingEvents[1:]

			if s.telemetry.OnStreamEvent != nil {
				s.telemetry.OnStreamEvent(s.ctx, ev)
			}
			switch ev.Event {
			case "ping":
				continue
			case "error":
				return zero, false, false, newAPIError(0, s.respHeader, []byte(ev.Data))
			}
			if _, allowed := s.allowed[ev.Event]; !allowed {
				continue
			}
			item, derr := s.decode([]byte(ev.Data))
			if derr != nil {
				return zero, false, false, fmt.Errorf("anthropic: decode stream event %q: %w", ev.Event, derr)
			}
			return item, true, false, nil
		}

		if len(s.pendingLines) == 0 {
			break
		}
		line := s.pendingLines[0]
		s.pendingLines = s.pendingLines[1:]
		item, derr := s.decode(line)
		if derr != nil {
			return zero, false, false, invalidJSONLf("decode record: %v", derr)
		}
		return item, true, false, nil
	}
	if s.eof {
		return zero, false, true, nil
	}
	return zero, false, false, nil
}

// fill reads one chunk from the body into the framer. At end of input it
// flushes any trailing unterminated frame.
func (s *Stream[T]) fill() error {
	n, err := s.body.Read(s.readBuf)
	if n > 0 {
		chunk := s.readBuf[:n]
		if s.sse != nil {
			events, perr := s.sse.Push(chunk)
			s.pendingEvents = append(s.pendingEvents, events...)
			if perr != nil {
				return perr
			}
		} else {
			s.pendingLines = append(s.pendingLines, s.lines.Push(chunk)...)
		}
	}
	if err != nil {
		if err != io.EOF {
			return fmt.Errorf("anthropic: read stream: %w", err)
		}
		s.eof = true
		if s.sse != nil {
			ev, ok, perr := s.sse.Finish()
			if perr != nil {
				return perr
			}
			if ok {
				s.pendingEvents = append(s.pendingEvents, ev)
			}
		} else if line, ok := s.lines.Finish(); ok {
			s.pendingLines = append(s.pendingLines, line)
		}
	}
	return nil
}
