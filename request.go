package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"time"

	"github.com/cortexapis/anthropic-go/headers"
)

// APIResponse carries response metadata alongside decoded results.
type APIResponse struct {
	StatusCode int
	Header     http.Header
	RequestID  string
}

func newAPIResponseMeta(resp *http.Response) *APIResponse {
	return &APIResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		RequestID:  resp.Header.Get(headers.RequestID),
	}
}

// bodyFunc rebuilds the request body for each attempt. A nil bodyFunc means
// no body. The returned content type is set as Content-Type when non-empty.
type bodyFunc func() (io.Reader, string, error)

func jsonBody(payload any) (bodyFunc, error) {
	if payload == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return func() (io.Reader, string, error) {
		return bytes.NewReader(encoded), "application/json", nil
	}, nil
}

// multipartBody renders a multipart form with a single file part. The form is
// rebuilt on every attempt so retries never reuse a drained reader, which
// means content must be an in-memory copy of the upload.
func multipartBody(fieldName, filename, mimeType string, content []byte) bodyFunc {
	return func() (io.Reader, string, error) {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fieldName, filename))
		if mimeType != "" {
			hdr.Set("Content-Type", mimeType)
		}
		part, err := w.CreatePart(hdr)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(content); err != nil {
			return nil, "", err
		}
		if err := w.Close(); err != nil {
			return nil, "", err
		}
		return &buf, w.FormDataContentType(), nil
	}
}

// makeHeaders assembles the header set for one attempt. Override order, later
// wins: fixed SDK headers, credentials, client default headers, per-call
// removals, per-call additions. Missing both credentials after layering is an
// ErrAuthMissing before any network I/O.
func (c *Client) makeHeaders(attempt int, timeout time.Duration, opts requestOptions) (http.Header, error) {
	h := make(http.Header)
	h.Set("Accept", "application/json")
	h.Set("User-Agent", c.userAgent)
	h.Set(headers.AnthropicVersion, anthropicVersion)
	h.Set(headers.RetryCount, strconv.Itoa(attempt))
	h.Set(headers.TimeoutSecs, strconv.Itoa(int(timeout/time.Second)))

	if c.apiKey != "" {
		h.Set(headers.APIKey, c.apiKey)
	}
	if c.authToken != "" {
		h.Set("Authorization", "Bearer "+c.authToken)
	}
	for key, values := range c.defaultHeaders {
		h.Del(key)
		for _, v := range values {
			h.Add(key, v)
		}
	}
	for _, key := range opts.removeHeaders {
		h.Del(key)
	}
	for key, values := range opts.headers {
		h.Del(key)
		for _, v := range values {
			h.Add(key, v)
		}
	}

	if h.Get(headers.APIKey) == "" && h.Get("Authorization") == "" {
		return nil, ErrAuthMissing
	}
	return h, nil
}

// do performs one logical call with bounded retry and returns an open
// response. The attempt timeout bounds request issuance up to response
// headers; body consumption is bounded by the returned cancel, which the
// caller must invoke once done with the body.
func (c *Client) do(ctx context.Context, method, pathOrURL string, query url.Values, body bodyFunc, opts requestOptions) (*http.Response, context.CancelFunc, error) {
	timeout := c.timeout
	if opts.timeout != nil {
		timeout = *opts.timeout
	}
	maxRetries := c.maxRetries
	if opts.maxRetries != nil {
		maxRetries = *opts.maxRetries
	}

	target := c.buildURL(pathOrURL, query)

	for attempt := 0; ; attempt++ {
		hdr, err := c.makeHeaders(attempt, timeout, opts)
		if err != nil {
			return nil, nil, err
		}

		var reader io.Reader
		var contentType string
		if body != nil {
			reader, contentType, err = body()
			if err != nil {
				return nil, nil, err
			}
		}

		attemptCtx, cancel := context.WithCancel(ctx)
		req, err := http.NewRequestWithContext(attemptCtx, method, target, reader)
		if err != nil {
			cancel()
			return nil, nil, err
		}
		req.Header = hdr
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		injectTraceparent(ctx, req)

		if c.telemetry.OnHTTPRequest != nil {
			c.telemetry.OnHTTPRequest(ctx, req)
		}
		c.telemetry.log(ctx, LogLevelInfo, "http_request", map[string]any{
			"method":  method,
			"url":     target,
			"attempt": attempt,
		})

		timer := time.AfterFunc(timeout, cancel)
		start := time.Now()
		resp, err := c.httpClient.Do(req)
		timedOut := !timer.Stop()

		if c.telemetry.OnHTTPResponse != nil {
			c.telemetry.OnHTTPResponse(ctx, req, resp, err, time.Since(start))
		}
		c.telemetry.metric(ctx, "sdk_http_request_latency_ms", float64(time.Since(start).Milliseconds()), map[string]string{
			"path": req.URL.Path,
		})

		if err != nil {
			cancel()
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			if attempt < maxRetries {
				if werr := sleepBackoff(ctx, defaultRetryDelay(attempt)); werr != nil {
					return nil, nil, werr
				}
				continue
			}
			if timedOut {
				return nil, nil, ErrTimeout
			}
			return nil, nil, fmt.Errorf("anthropic: transport: %w", err)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, cancel, nil
		}

		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		cancel()

		if attempt < maxRetries && shouldRetryResponse(resp.StatusCode, resp.Header) {
			delay := retryDelay(resp.Header, attempt, time.Now())
			c.telemetry.log(ctx, LogLevelInfo, "http_retry", map[string]any{
				"status":   resp.StatusCode,
				"delay_ms": delay.Milliseconds(),
			})
			if werr := sleepBackoff(ctx, delay); werr != nil {
				return nil, nil, werr
			}
			continue
		}

		return nil, nil, newAPIError(resp.StatusCode, resp.Header, respBody)
	}
}

// requestJSON performs a call, buffers the response, and decodes it into out
// (which may be nil to discard the body).
func (c *Client) requestJSON(ctx context.Context, method, pathOrURL string, query url.Values, payload any, out any, opts requestOptions) (*APIResponse, error) {
	body, err := jsonBody(payload)
	if err != nil {
		return nil, err
	}
	resp, cancel, err := c.do(ctx, method, pathOrURL, query, body, opts)
	if err != nil {
		return nil, err
	}
	return decodeResponse(resp, cancel, out)
}

// decodeResponse buffers an open response into out (nil discards the body)
// and releases the response.
func decodeResponse(resp *http.Response, cancel context.CancelFunc, out any) (*APIResponse, error) {
	defer cancel()
	defer resp.Body.Close()

	meta := newAPIResponseMeta(resp)
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return meta, fmt.Errorf("anthropic: read response: %w", err)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return meta, fmt.Errorf("anthropic: decode response: %w", err)
		}
	}
	return meta, nil
}

// requestBytes performs a call and returns the raw response body.
func (c *Client) requestBytes(ctx context.Context, method, pathOrURL string, query url.Values, opts requestOptions) ([]byte, *APIResponse, error) {
	resp, cancel, err := c.do(ctx, method, pathOrURL, query, nil, opts)
	if err != nil {
		return nil, nil, err
	}
	defer cancel()
	defer resp.Body.Close()

	meta := newAPIResponseMeta(resp)
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, meta, fmt.Errorf("anthropic: read response: %w", err)
	}
	return raw, meta, nil
}

func sleepBackoff(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
