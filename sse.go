package anthropic

import (
	"strings"
	"unicode/utf8"
)

// SSEEvent is one parsed server-sent event frame. Event is empty for unnamed
// events; Data joins multiple data lines with a newline.
type SSEEvent struct {
	Event string
	Data  string
}

// SSEParser incrementally splits a byte stream into server-sent event frames.
// Feed it chunks in arrival order with Push and flush the trailing frame with
// Finish; chunk boundaries never affect the parsed result.
type SSEParser struct {
	buf []byte
	// scan is where the next boundary search resumes; everything before it
	// was already checked on an earlier Push.
	scan int
}

// Push appends a chunk and returns all events completed by it.
func (p *SSEParser) Push(chunk []byte) ([]SSEEvent, error) {
	p.buf = append(p.buf, chunk...)
	var out []SSEEvent
	for {
		frameEnd, consumeEnd := findFrameBoundary(p.buf, p.scan)
		if frameEnd < 0 {
			// A delimiter is at most 4 bytes, so back up 3 to catch one
			// split across the next chunk.
			if p.scan = len(p.buf) - 3; p.scan < 0 {
				p.scan = 0
			}
			return out, nil
		}
		frame := p.buf[:frameEnd]
		event, ok, err := parseFrame(frame)
		p.buf = p.buf[consumeEnd:]
		p.scan = 0
		if err != nil {
			return out, err
		}
		if ok {
			out = append(out, event)
		}
	}
}

// Finish parses any leftover buffer as one final unterminated frame.
func (p *SSEParser) Finish() (SSEEvent, bool, error) {
	if len(p.buf) == 0 {
		return SSEEvent{}, false, nil
	}
	frame := p.buf
	p.buf = nil
	p.scan = 0
	return parseFrame(frame)
}

// findFrameBoundary returns the end of the next frame and the end of its
// boundary delimiter ("\n\n" or "\r\n\r\n"), or (-1, -1) when incomplete.
// The search starts at from; earlier bytes are known boundary-free.
func findFrameBoundary(buf []byte, from int) (frameEnd, consumeEnd int) {
	for i := from; i+1 < len(buf); i++ {
		if buf[i] == '\n' && buf[i+1] == '\n' {
			return i, i + 2
		}
		if i+3 < len(buf) && buf[i] == '\r' && buf[i+1] == '\n' && buf[i+2] == '\r' && buf[i+3] == '\n' {
			return i, i + 4
		}
	}
	return -1, -1
}

// parseFrame splits a frame into fields. Comment lines and unknown fields are
// ignored; a frame with no event name and no data yields nothing.
func parseFrame(frame []byte) (SSEEvent, bool, error) {
	if !utf8.Valid(frame) {
		return SSEEvent{}, false, invalidSSEf("frame is not valid UTF-8")
	}

	var event string
	var dataLines []string

	for _, line := range strings.Split(string(frame), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}

		field, value, found := strings.Cut(line, ":")
		if !found {
			field, value = line, ""
		}
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			event = strings.TrimSpace(value)
		case "data":
			dataLines = append(dataLines, value)
		}
	}

	data := strings.Join(dataLines, "\n")
	if event == "" && data == "" {
		return SSEEvent{}, false, nil
	}
	return SSEEvent{Event: event, Data: data}, true, nil
}
