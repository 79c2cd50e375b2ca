package anthropic

import (
	"context"
	"net/http"
)

// ModelInfo describes one model available through the API.
type ModelInfo struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	DisplayName string `json:"display_name"`
	CreatedAt   string `json:"created_at"`
	RequestID   string `json:"-"`
}

// ModelListParams configures GET /v1/models.
type ModelListParams struct {
	PageParams
}

// ModelsService calls the /v1/models endpoints.
type ModelsService struct {
	client *Client
}

// Get retrieves a single model by id.
func (s *ModelsService) Get(ctx context.Context, modelID string, options ...RequestOption) (*ModelInfo, error) {
	var info ModelInfo
	meta, err := s.client.requestJSON(ctx, http.MethodGet, "/v1/models/"+modelID, nil, nil, &info, buildRequestOptions(options))
	if err != nil {
		return nil, err
	}
	info.RequestID = meta.RequestID
	return &info, nil
}

// List returns a page of available models, most recently released first.
func (s *ModelsService) List(ctx context.Context, params ModelListParams, options ...RequestOption) (*Page[ModelInfo], error) {
	var page Page[ModelInfo]
	meta, err := s.client.requestJSON(ctx, http.MethodGet, "/v1/models", params.query(), nil, &page, buildRequestOptions(options))
	if err != nil {
		return nil, err
	}
	page.RequestID = meta.RequestID
	return &page, nil
}
