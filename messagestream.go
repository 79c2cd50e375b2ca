package anthropic

import (
	"encoding/json"
)

// MessageStream layers incremental snapshot reconstruction over a raw message
// event stream. Events pass through Next unchanged while the running snapshot
// is updated; after a message_stop the frozen result is available from
// FinalMessage. Not safe for concurrent consumption; Abort may be called from
// any goroutine.
type MessageStream struct {
	raw          *Stream[MessageStreamEvent]
	snapshot     *Message
	finalMessage *Message
}

// NewMessageStream wraps a raw message event stream.
func NewMessageStream(raw *Stream[MessageStreamEvent]) *MessageStream {
	return &MessageStream{raw: raw}
}

// Abort terminates the underlying stream; the next pull ends the sequence.
func (s *MessageStream) Abort() {
	s.raw.Abort()
}

// Close terminates the underlying stream. Equivalent to Abort.
func (s *MessageStream) Close() error {
	return s.raw.Close()
}

// RequestID echoes the Request-Id header captured at stream open.
func (s *MessageStream) RequestID() string {
	return s.raw.RequestID()
}

// Snapshot returns the in-progress message, nil before message_start. The
// returned value is owned by the stream and mutated by subsequent events.
func (s *MessageStream) Snapshot() *Message {
	return s.snapshot
}

// FinalMessage returns the message frozen at message_stop, nil before then.
func (s *MessageStream) FinalMessage() *Message {
	return s.finalMessage
}

// Next advances the stream, folding each event into the snapshot before
// returning it. A malformed event sequence terminates the stream.
func (s *MessageStream) Next() (MessageStreamEvent, bool, error) {
	event, ok, err := s.raw.Next()
	if err != nil || !ok {
		return MessageStreamEvent{}, ok, err
	}
	if err := s.handleEvent(event); err != nil {
		s.raw.Abort()
		return MessageStreamEvent{}, false, err
	}
	return event, true, nil
}

// Wait drains the remaining events and returns the final message. It fails if
// the stream ends without ever observing message_stop.
func (s *MessageStream) Wait() (*Message, error) {
	for {
		_, ok, err := s.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
	}
	if s.finalMessage == nil {
		return nil, invalidSSEf("stream ended without a final message")
	}
	return s.finalMessage, nil
}

func (s *MessageStream) handleEvent(event MessageStreamEvent) error {
	switch event.Type {
	case EventMessageStart:
		// A repeated message_start restarts the snapshot.
		if event.Message == nil {
			return invalidSSEf("message_start without a message")
		}
		msg := cloneMessage(event.Message)
		msg.RequestID = s.raw.RequestID()
		s.snapshot = msg
		s.finalMessage = nil

	case EventContentBlockStart:
		snapshot, err := s.snapshotForEvent()
		if err != nil {
			return err
		}
		switch {
		case event.Index == len(snapshot.Content):
			snapshot.Content = append(snapshot.Content, event.ContentBlock)
		case event.Index < len(snapshot.Content) && event.Index >= 0:
			snapshot.Content[event.Index] = event.ContentBlock
		default:
			return invalidSSEf("content_block_start index out of bounds: %d", event.Index)
		}

	case EventContentBlockDelta:
		snapshot, err := s.snapshotForEvent()
		if err != nil {
			return err
		}
		if event.Index < 0 || event.Index >= len(snapshot.Content) {
			return invalidSSEf("content block index out of bounds: %d", event.Index)
		}
		block := snapshot.Content[event.Index]
		if block == nil {
			block = ContentBlock{}
			snapshot.Content[event.Index] = block
		}
		var delta ContentBlockDelta
		if err := json.Unmarshal(event.Delta, &delta); err != nil {
			return invalidSSEf("content_block_delta payload: %v", err)
		}
		if err := applyBlockDelta(block, delta); err != nil {
			return err
		}

	case EventContentBlockStop:
		// Index validity is deliberately not enforced here.

	case EventMessageDelta:
		snapshot, err := s.snapshotForEvent()
		if err != nil {
			return err
		}
		var delta MessageDeltaBody
		if len(event.Delta) > 0 {
			if err := json.Unmarshal(event.Delta, &delta); err != nil {
				return invalidSSEf("message_delta payload: %v", err)
			}
		}
		if delta.StopReason != nil {
			snapshot.StopReason = delta.StopReason
		}
		if delta.StopSequence != nil {
			snapshot.StopSequence = delta.StopSequence
		}
		if snapshot.Extra == nil {
			snapshot.Extra = make(map[string]json.RawMessage)
		}
		container := delta.Container
		if len(container) == 0 {
			container = json.RawMessage("null")
		}
		snapshot.Extra["container"] = container
		snapshot.Usage = append(json.RawMessage(nil), event.Usage...)

	case EventMessageStop:
		if s.snapshot != nil {
			s.finalMessage = cloneMessage(s.snapshot)
		}
	}
	return nil
}

func (s *MessageStream) snapshotForEvent() (*Message, error) {
	if s.snapshot == nil {
		return nil, invalidSSEf("expected message_start before other events")
	}
	return s.snapshot, nil
}

// applyBlockDelta folds one content block delta into a block document.
// Unknown delta kinds are no-ops so new server-side kinds do not break
// existing consumers.
func applyBlockDelta(block ContentBlock, delta ContentBlockDelta) error {
	switch delta.Type {
	case "text_delta":
		return appendStringField(block, "text", delta.Text)
	case "thinking_delta":
		return appendStringField(block, "thinking", delta.Thinking)
	case "signature_delta":
		return appendStringField(block, "signature", delta.Signature)
	case "input_json_delta":
		// Only the latest fragment is kept; consumers needing the full
		// document read it from the final block after content_block_stop.
		block["_partial_json"] = delta.PartialJSON
		return nil
	case "citations_delta":
		return appendCitation(block, delta.Citation)
	}
	return nil
}

func appendStringField(block ContentBlock, key, delta string) error {
	existing, present := block[key]
	if !present {
		block[key] = delta
		return nil
	}
	str, ok := existing.(string)
	if !ok {
		return invalidSSEf("expected %q to be a string", key)
	}
	block[key] = str + delta
	return nil
}

func appendCitation(block ContentBlock, citation json.RawMessage) error {
	var decoded any
	if err := json.Unmarshal(citation, &decoded); err != nil {
		return invalidSSEf("citations_delta payload: %v", err)
	}
	existing, present := block["citations"]
	if !present || existing == nil {
		block["citations"] = []any{decoded}
		return nil
	}
	arr, ok := existing.([]any)
	if !ok {
		return invalidSSEf("expected 'citations' to be null or array")
	}
	block["citations"] = append(arr, decoded)
	return nil
}

// cloneMessage deep-copies a message so frozen results do not alias the
// still-mutating snapshot.
func cloneMessage(m *Message) *Message {
	out := &Message{
		ID:        m.ID,
		Type:      m.Type,
		Role:      m.Role,
		Model:     m.Model,
		RequestID: m.RequestID,
	}
	if m.StopReason != nil {
		v := *m.StopReason
		out.StopReason = &v
	}
	if m.StopSequence != nil {
		v := *m.StopSequence
		out.StopSequence = &v
	}
	out.Usage = append(json.RawMessage(nil), m.Usage...)
	if m.Content != nil {
		out.Content = make([]ContentBlock, len(m.Content))
		for i, block := range m.Content {
			cloned, ok := cloneValue(block).(map[string]any)
			if !ok {
				cloned = ContentBlock{}
			}
			out.Content[i] = cloned
		}
	}
	if m.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(m.Extra))
		for key, value := range m.Extra {
			out.Extra[key] = append(json.RawMessage(nil), value...)
		}
	}
	return out
}

func cloneValue(v any) any {
	switch value := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(value))
		for key, entry := range value {
			out[key] = cloneValue(entry)
		}
		return out
	case []any:
		out := make([]any, len(value))
		for i, entry := range value {
			out[i] = cloneValue(entry)
		}
		return out
	default:
		return value
	}
}
