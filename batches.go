package anthropic

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// MessageBatch describes a batch of message requests processed asynchronously.
type MessageBatch struct {
	ID                string             `json:"id"`
	Type              string             `json:"type"`
	ProcessingStatus  string             `json:"processing_status"`
	RequestCounts     BatchRequestCounts `json:"request_counts"`
	ResultsURL        *string            `json:"results_url"`
	CreatedAt         time.Time          `json:"created_at"`
	ExpiresAt         time.Time          `json:"expires_at"`
	ArchivedAt        *time.Time         `json:"archived_at"`
	CancelInitiatedAt *time.Time         `json:"cancel_initiated_at"`
	EndedAt           *time.Time         `json:"ended_at"`

	RequestID string `json:"-"`
}

// BatchRequestCounts tallies requests by terminal and in-flight state.
type BatchRequestCounts struct {
	Canceled   int64 `json:"canceled"`
	Errored    int64 `json:"errored"`
	Expired    int64 `json:"expired"`
	Processing int64 `json:"processing"`
	Succeeded  int64 `json:"succeeded"`
}

// BatchRequest pairs a caller-chosen id with the message params to run.
type BatchRequest struct {
	CustomID string              `json:"custom_id"`
	Params   MessageCreateParams `json:"params"`
}

// BatchCreateParams is the request body for creating a batch.
type BatchCreateParams struct {
	Requests []BatchRequest `json:"requests"`
}

// BatchListParams pages through batches newest first.
type BatchListParams struct {
	PageParams
}

// DeletedMessageBatch confirms a batch deletion.
type DeletedMessageBatch struct {
	ID   string `json:"id"`
	Type string `json:"type"`

	RequestID string `json:"-"`
}

// BatchIndividualResponse is one line of a batch results file. Result.Type
// is one of succeeded, errored, canceled, or expired.
type BatchIndividualResponse struct {
	CustomID string      `json:"custom_id"`
	Result   BatchResult `json:"result"`
}

// BatchResult is the outcome of a single request within a batch.
type BatchResult struct {
	Type    string         `json:"type"`
	Message *Message       `json:"message,omitempty"`
	Error   *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse is the error envelope used inside batch results.
type ErrorResponse struct {
	Type  string      `json:"type"`
	Error ErrorObject `json:"error"`
}

// ErrorObject carries the machine-readable error type and human message.
type ErrorObject struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// BatchesService manages message batches.
type BatchesService struct {
	client *Client
}

// New submits a batch of message requests.
func (s *BatchesService) New(ctx context.Context, params BatchCreateParams, options ...RequestOption) (*MessageBatch, error) {
	var batch MessageBatch
	meta, err := s.client.requestJSON(ctx, http.MethodPost, "/v1/messages/batches", nil, params, &batch, buildRequestOptions(options))
	if err != nil {
		return nil, err
	}
	batch.RequestID = meta.RequestID
	return &batch, nil
}

// Get fetches a batch by id.
func (s *BatchesService) Get(ctx context.Context, batchID string, options ...RequestOption) (*MessageBatch, error) {
	var batch MessageBatch
	meta, err := s.client.requestJSON(ctx, http.MethodGet, "/v1/messages/batches/"+url.PathEscape(batchID), nil, nil, &batch, buildRequestOptions(options))
	if err != nil {
		return nil, err
	}
	batch.RequestID = meta.RequestID
	return &batch, nil
}

// List pages through batches.
func (s *BatchesService) List(ctx context.Context, params BatchListParams, options ...RequestOption) (*Page[MessageBatch], error) {
	var page Page[MessageBatch]
	meta, err := s.client.requestJSON(ctx, http.MethodGet, "/v1/messages/batches", params.query(), nil, &page, buildRequestOptions(options))
	if err != nil {
		return nil, err
	}
	page.RequestID = meta.RequestID
	return &page, nil
}

// Cancel requests cancellation of an in-flight batch. Requests already
// dispatched may still complete.
func (s *BatchesService) Cancel(ctx context.Context, batchID string, options ...RequestOption) (*MessageBatch, error) {
	var batch MessageBatch
	meta, err := s.client.requestJSON(ctx, http.MethodPost, "/v1/messages/batches/"+url.PathEscape(batchID)+"/cancel", nil, nil, &batch, buildRequestOptions(options))
	if err != nil {
		return nil, err
	}
	batch.RequestID = meta.RequestID
	return &batch, nil
}

// Delete removes an ended batch.
func (s *BatchesService) Delete(ctx context.Context, batchID string, options ...RequestOption) (*DeletedMessageBatch, error) {
	var deleted DeletedMessageBatch
	meta, err := s.client.requestJSON(ctx, http.MethodDelete, "/v1/messages/batches/"+url.PathEscape(batchID), nil, nil, &deleted, buildRequestOptions(options))
	if err != nil {
		return nil, err
	}
	deleted.RequestID = meta.RequestID
	return &deleted, nil
}

// Results streams the per-request outcomes of an ended batch as JSON lines.
// The batch must have finished processing and published a results file.
func (s *BatchesService) Results(ctx context.Context, batchID string, options ...RequestOption) (*Stream[BatchIndividualResponse], error) {
	batch, err := s.Get(ctx, batchID, options...)
	if err != nil {
		return nil, err
	}
	if batch.ResultsURL == nil {
		return nil, internalErrorf("batch %s has no results; poll until processing_status is ended", batchID)
	}

	opts := buildRequestOptions(options)
	opts.setHeader("Accept", "application/binary")

	resp, cancel, err := s.client.do(ctx, http.MethodGet, *batch.ResultsURL, nil, nil, opts)
	if err != nil {
		return nil, err
	}
	return newJSONLStream[BatchIndividualResponse](ctx, resp, cancel, s.client.telemetry), nil
}
