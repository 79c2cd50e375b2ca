package anthropic

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// FileMetadata describes an uploaded file.
type FileMetadata struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Filename     string    `json:"filename"`
	MimeType     string    `json:"mime_type"`
	SizeBytes    int64     `json:"size_bytes"`
	CreatedAt    time.Time `json:"created_at"`
	Downloadable *bool     `json:"downloadable,omitempty"`

	RequestID string `json:"-"`
}

// DeletedFile confirms a file deletion.
type DeletedFile struct {
	ID   string `json:"id"`
	Type string `json:"type"`

	RequestID string `json:"-"`
}

// FileListParams pages through uploaded files.
type FileListParams struct {
	PageParams
}

// FileUploadParams describes a file to upload. Content is held in memory so
// retried attempts can resend it.
type FileUploadParams struct {
	Filename string
	MimeType string
	Content  []byte
}

// FilesService manages uploaded files. All calls require the files API beta.
type FilesService struct {
	client *Client
}

// Upload stores a new file.
func (s *FilesService) Upload(ctx context.Context, params FileUploadParams, options ...RequestOption) (*FileMetadata, error) {
	opts := buildRequestOptions(options)
	opts.ensureBeta(BetaFilesAPI)

	body := multipartBody("file", params.Filename, params.MimeType, params.Content)
	resp, cancel, err := s.client.do(ctx, http.MethodPost, "/v1/files", nil, body, opts)
	if err != nil {
		return nil, err
	}
	var file FileMetadata
	meta, err := decodeResponse(resp, cancel, &file)
	if err != nil {
		return nil, err
	}
	file.RequestID = meta.RequestID
	return &file, nil
}

// List pages through files.
func (s *FilesService) List(ctx context.Context, params FileListParams, options ...RequestOption) (*Page[FileMetadata], error) {
	opts := buildRequestOptions(options)
	opts.ensureBeta(BetaFilesAPI)

	var page Page[FileMetadata]
	meta, err := s.client.requestJSON(ctx, http.MethodGet, "/v1/files", params.query(), nil, &page, opts)
	if err != nil {
		return nil, err
	}
	page.RequestID = meta.RequestID
	return &page, nil
}

// Metadata fetches a file's metadata by id.
func (s *FilesService) Metadata(ctx context.Context, fileID string, options ...RequestOption) (*FileMetadata, error) {
	opts := buildRequestOptions(options)
	opts.ensureBeta(BetaFilesAPI)

	var file FileMetadata
	meta, err := s.client.requestJSON(ctx, http.MethodGet, "/v1/files/"+url.PathEscape(fileID), nil, nil, &file, opts)
	if err != nil {
		return nil, err
	}
	file.RequestID = meta.RequestID
	return &file, nil
}

// Download returns the raw bytes of a downloadable file.
func (s *FilesService) Download(ctx context.Context, fileID string, options ...RequestOption) ([]byte, error) {
	opts := buildRequestOptions(options)
	opts.ensureBeta(BetaFilesAPI)
	opts.setHeader("Accept", "application/binary")

	data, _, err := s.client.requestBytes(ctx, http.MethodGet, "/v1/files/"+url.PathEscape(fileID)+"/content", nil, opts)
	return data, err
}

// Delete removes a file.
func (s *FilesService) Delete(ctx context.Context, fileID string, options ...RequestOption) (*DeletedFile, error) {
	opts := buildRequestOptions(options)
	opts.ensureBeta(BetaFilesAPI)

	var deleted DeletedFile
	meta, err := s.client.requestJSON(ctx, http.MethodDelete, "/v1/files/"+url.PathEscape(fileID), nil, nil, &deleted, opts)
	if err != nil {
		return nil, err
	}
	deleted.RequestID = meta.RequestID
	return &deleted, nil
}
