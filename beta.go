package anthropic

import (
	"context"
	"net/http"
)

// Beta feature flags sent via the Anthropic-Beta header.
const (
	BetaFilesAPI      = "files-api-2025-04-14"
	BetaTokenCounting = "token-counting-2024-11-01"
)

// BetaService groups endpoints gated behind beta flags. Calls made through it
// attach the relevant Anthropic-Beta value automatically.
type BetaService struct {
	Messages *BetaMessagesService
	Files    *FilesService
}

func newBetaService(client *Client) *BetaService {
	return &BetaService{
		Messages: &BetaMessagesService{client: client},
		Files:    &FilesService{client: client},
	}
}

// BetaMessagesService exposes message endpoints that require beta opt-in.
type BetaMessagesService struct {
	client *Client
}

// CountTokens counts input tokens under the token counting beta.
func (s *BetaMessagesService) CountTokens(ctx context.Context, params MessageCountTokensParams, options ...RequestOption) (*MessageTokensCount, error) {
	opts := buildRequestOptions(options)
	opts.ensureBeta(BetaTokenCounting)

	var count MessageTokensCount
	meta, err := s.client.requestJSON(ctx, http.MethodPost, "/v1/messages/count_tokens?beta=true", nil, params, &count, opts)
	if err != nil {
		return nil, err
	}
	count.RequestID = meta.RequestID
	return &count, nil
}
