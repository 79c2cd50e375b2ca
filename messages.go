package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// ContentBlock is one entry of a message's content array. The upstream
// protocol adds block kinds over time, so blocks stay open key-value
// documents rather than a sealed set of types.
type ContentBlock = map[string]any

// Message is a complete (or, during streaming, partially reconstructed)
// assistant message. Unknown top-level fields round-trip through Extra.
type Message struct {
	ID           string
	Type         string
	Role         string
	Model        string
	Content      []ContentBlock
	StopReason   *string
	StopSequence *string
	Usage        json.RawMessage
	Extra        map[string]json.RawMessage

	// RequestID echoes the Request-Id response header.
	RequestID string
}

type messageKnown struct {
	ID           string          `json:"id"`
	Type         string          `json:"type,omitempty"`
	Role         string          `json:"role,omitempty"`
	Model        string          `json:"model,omitempty"`
	Content      []ContentBlock  `json:"content,omitempty"`
	StopReason   *string         `json:"stop_reason,omitempty"`
	StopSequence *string         `json:"stop_sequence,omitempty"`
	Usage        json.RawMessage `json:"usage,omitempty"`
}

// UnmarshalJSON keeps unknown fields in Extra.
func (m *Message) UnmarshalJSON(data []byte) error {
	var known messageKnown
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, key := range []string{"id", "type", "role", "model", "content", "stop_reason", "stop_sequence", "usage"} {
		delete(all, key)
	}
	m.ID = known.ID
	m.Type = known.Type
	m.Role = known.Role
	m.Model = known.Model
	m.Content = known.Content
	m.StopReason = known.StopReason
	m.StopSequence = known.StopSequence
	m.Usage = known.Usage
	if len(all) > 0 {
		m.Extra = all
	} else {
		m.Extra = nil
	}
	return nil
}

// MarshalJSON re-merges Extra with the known fields.
func (m Message) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(messageKnown{
		ID:           m.ID,
		Type:         m.Type,
		Role:         m.Role,
		Model:        m.Model,
		Content:      m.Content,
		StopReason:   m.StopReason,
		StopSequence: m.StopSequence,
		Usage:        m.Usage,
	})
	if err != nil {
		return nil, err
	}
	if len(m.Extra) == 0 {
		return known, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, err
	}
	for key, value := range m.Extra {
		merged[key] = value
	}
	return json.Marshal(merged)
}

// Text concatenates the text of all text content blocks.
func (m *Message) Text() string {
	var out string
	for _, block := range m.Content {
		if block["type"] == "text" {
			if text, ok := block["text"].(string); ok {
				out += text
			}
		}
	}
	return out
}

// MessageParam is one input message. Content is either a plain string or a
// slice of content block documents.
type MessageParam struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// UserMessage builds a plain-text user message.
func UserMessage(text string) MessageParam {
	return MessageParam{Role: "user", Content: text}
}

// AssistantMessage builds a plain-text assistant message.
func AssistantMessage(text string) MessageParam {
	return MessageParam{Role: "assistant", Content: text}
}

// MessageCreateParams is the request body for POST /v1/messages. Fields not
// modeled here (system, temperature, tools, ...) go through Extra and are
// serialized inline.
type MessageCreateParams struct {
	Model     string         `json:"model"`
	MaxTokens int64          `json:"max_tokens"`
	Messages  []MessageParam `json:"messages"`
	Stream    bool           `json:"stream,omitempty"`

	Extra map[string]any `json:"-"`
}

// MarshalJSON serializes Extra inline with the declared fields.
func (p MessageCreateParams) MarshalJSON() ([]byte, error) {
	type plain MessageCreateParams
	return marshalWithExtra(plain(p), p.Extra)
}

// MessageCountTokensParams is the request body for POST /v1/messages/count_tokens.
type MessageCountTokensParams struct {
	Model    string         `json:"model"`
	Messages []MessageParam `json:"messages"`

	Extra map[string]any `json:"-"`
}

// MarshalJSON serializes Extra inline with the declared fields.
func (p MessageCountTokensParams) MarshalJSON() ([]byte, error) {
	type plain MessageCountTokensParams
	return marshalWithExtra(plain(p), p.Extra)
}

// MessageTokensCount is the response of the token counting endpoint.
type MessageTokensCount struct {
	InputTokens int64 `json:"input_tokens"`

	RequestID string `json:"-"`
}

// Stream event names emitted on /v1/messages SSE streams.
const (
	EventMessageStart      = "message_start"
	EventMessageDelta      = "message_delta"
	EventMessageStop       = "message_stop"
	EventContentBlockStart = "content_block_start"
	EventContentBlockDelta = "content_block_delta"
	EventContentBlockStop  = "content_block_stop"
)

// messageStreamEvents is the allow-list for message streams; anything else
// the server sends is dropped rather than failing the stream.
var messageStreamEvents = []string{
	EventMessageStart,
	EventMessageDelta,
	EventMessageStop,
	EventContentBlockStart,
	EventContentBlockDelta,
	EventContentBlockStop,
}

// MessageStreamEvent is one raw event from a message stream. Delta and Usage
// stay raw; their shape depends on Type.
type MessageStreamEvent struct {
	Type         string          `json:"type"`
	Message      *Message        `json:"message,omitempty"`
	Index        int             `json:"index,omitempty"`
	ContentBlock ContentBlock    `json:"content_block,omitempty"`
	Delta        json.RawMessage `json:"delta,omitempty"`
	Usage        json.RawMessage `json:"usage,omitempty"`
}

// ContentBlockDelta is the decoded delta of a content_block_delta event.
type ContentBlockDelta struct {
	Type        string          `json:"type"`
	Text        string          `json:"text,omitempty"`
	Thinking    string          `json:"thinking,omitempty"`
	Signature   string          `json:"signature,omitempty"`
	PartialJSON string          `json:"partial_json,omitempty"`
	Citation    json.RawMessage `json:"citation,omitempty"`
}

// MessageDeltaBody is the decoded delta of a message_delta event.
type MessageDeltaBody struct {
	StopReason   *string         `json:"stop_reason,omitempty"`
	StopSequence *string         `json:"stop_sequence,omitempty"`
	Container    json.RawMessage `json:"container,omitempty"`
}

// MessagesService calls the /v1/messages endpoints.
type MessagesService struct {
	client *Client

	// Batches manages message batches under /v1/messages/batches.
	Batches *BatchesService
}

// New performs a blocking message creation and returns the complete message.
func (s *MessagesService) New(ctx context.Context, params MessageCreateParams, options ...RequestOption) (*Message, error) {
	if params.Stream {
		return nil, internalErrorf("use Messages.NewStreaming for stream=true")
	}

	opts := buildRequestOptions(options)
	if s.client.timeoutIsDefault && opts.timeout == nil {
		if err := checkNonStreamingTokens(params.Model, params.MaxTokens); err != nil {
			return nil, err
		}
	}

	var message Message
	meta, err := s.client.requestJSON(ctx, http.MethodPost, "/v1/messages", nil, params, &message, opts)
	if err != nil {
		return nil, err
	}
	message.RequestID = meta.RequestID
	return &message, nil
}

// NewStreaming opens the raw event stream for a message creation. The six
// message stream event names are surfaced; use Stream for an aggregated view.
func (s *MessagesService) NewStreaming(ctx context.Context, params MessageCreateParams, options ...RequestOption) (*Stream[MessageStreamEvent], error) {
	params.Stream = true
	opts := buildRequestOptions(options)
	opts.setHeader("Accept", "text/event-stream")

	body, err := jsonBody(params)
	if err != nil {
		return nil, err
	}
	resp, cancel, err := s.client.do(ctx, http.MethodPost, "/v1/messages", nil, body, opts)
	if err != nil {
		return nil, err
	}
	return newSSEStream[MessageStreamEvent](ctx, resp, cancel, messageStreamEvents, s.client.telemetry), nil
}

// Stream opens a message stream with incremental snapshot aggregation.
func (s *MessagesService) Stream(ctx context.Context, params MessageCreateParams, options ...RequestOption) (*MessageStream, error) {
	raw, err := s.NewStreaming(ctx, params, options...)
	if err != nil {
		return nil, err
	}
	return NewMessageStream(raw), nil
}

// CountTokens reports the input token count for a prospective request.
func (s *MessagesService) CountTokens(ctx context.Context, params MessageCountTokensParams, options ...RequestOption) (*MessageTokensCount, error) {
	var count MessageTokensCount
	meta, err := s.client.requestJSON(ctx, http.MethodPost, "/v1/messages/count_tokens", nil, params, &count, buildRequestOptions(options))
	if err != nil {
		return nil, err
	}
	count.RequestID = meta.RequestID
	return &count, nil
}

// maxNonStreamingTokens caps max_tokens for blocking calls on models whose
// full-length generations exceed what a single request can safely wait for.
func maxNonStreamingTokens(model string) (int64, bool) {
	switch model {
	case "claude-opus-4-20250514",
		"claude-opus-4-0",
		"claude-4-opus-20250514",
		"anthropic.claude-opus-4-20250514-v1:0",
		"claude-opus-4@20250514",
		"claude-opus-4-1-20250805",
		"anthropic.claude-opus-4-1-20250805-v1:0",
		"claude-opus-4-1@20250805":
		return 8192, true
	}
	return 0, false
}

// checkNonStreamingTokens rejects blocking calls expected to outlive the
// default ten minute timeout; those must use streaming instead.
func checkNonStreamingTokens(model string, maxTokens int64) error {
	const maxTime = time.Hour
	const defaultTime = 10 * time.Minute

	expected := time.Duration(int64(maxTime) / 128_000 * maxTokens)
	limit, limited := maxNonStreamingTokens(model)
	if expected > defaultTime || (limited && maxTokens > limit) {
		return internalErrorf("streaming is required for operations that may take longer than 10 minutes")
	}
	return nil
}

// marshalWithExtra serializes known fields and merges extra keys inline.
func marshalWithExtra(known any, extra map[string]any) ([]byte, error) {
	base, err := json.Marshal(known)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return base, nil
	}
	var merged map[string]any
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for key, value := range extra {
		merged[key] = value
	}
	return json.Marshal(merged)
}
