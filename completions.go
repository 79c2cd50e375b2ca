package anthropic

import (
	"context"
	"net/http"
)

// Completion is a legacy /v1/complete result.
type Completion struct {
	ID         string  `json:"id"`
	Type       string  `json:"type"`
	Completion string  `json:"completion"`
	Model      string  `json:"model"`
	StopReason *string `json:"stop_reason"`

	RequestID string `json:"-"`
}

// CompletionCreateParams is the request body for the legacy text completions
// endpoint.
type CompletionCreateParams struct {
	Model             string   `json:"model"`
	Prompt            string   `json:"prompt"`
	MaxTokensToSample int64    `json:"max_tokens_to_sample"`
	Stream            bool     `json:"stream,omitempty"`
	Temperature       *float64 `json:"temperature,omitempty"`
	TopK              *int64   `json:"top_k,omitempty"`
	TopP              *float64 `json:"top_p,omitempty"`
	StopSequences     []string `json:"stop_sequences,omitempty"`
	Metadata          any      `json:"metadata,omitempty"`

	Extra map[string]any `json:"-"`
}

// MarshalJSON serializes Extra inline with the declared fields.
func (p CompletionCreateParams) MarshalJSON() ([]byte, error) {
	type plain CompletionCreateParams
	return marshalWithExtra(plain(p), p.Extra)
}

// CompletionsService calls the legacy /v1/complete endpoint.
type CompletionsService struct {
	client *Client
}

// New performs a blocking text completion.
func (s *CompletionsService) New(ctx context.Context, params CompletionCreateParams, options ...RequestOption) (*Completion, error) {
	if params.Stream {
		return nil, internalErrorf("use Completions.NewStreaming for stream=true")
	}
	var completion Completion
	meta, err := s.client.requestJSON(ctx, http.MethodPost, "/v1/complete", nil, params, &completion, buildRequestOptions(options))
	if err != nil {
		return nil, err
	}
	completion.RequestID = meta.RequestID
	return &completion, nil
}

// NewStreaming opens an SSE stream of incremental completions.
func (s *CompletionsService) NewStreaming(ctx context.Context, params CompletionCreateParams, options ...RequestOption) (*Stream[Completion], error) {
	params.Stream = true
	opts := buildRequestOptions(options)
	opts.setHeader("Accept", "text/event-stream")

	body, err := jsonBody(params)
	if err != nil {
		return nil, err
	}
	resp, cancel, err := s.client.do(ctx, http.MethodPost, "/v1/complete", nil, body, opts)
	if err != nil {
		return nil, err
	}
	return newSSEStream[Completion](ctx, resp, cancel, []string{"completion"}, s.client.telemetry), nil
}
