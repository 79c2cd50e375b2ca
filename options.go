package anthropic

import (
	"net/http"
	"strings"
	"time"

	"github.com/cortexapis/anthropic-go/headers"
)

// RequestOption customizes a single API call (timeout, retries, headers).
type RequestOption func(*requestOptions)

type requestOptions struct {
	timeout       *time.Duration
	maxRetries    *int
	headers       http.Header
	removeHeaders []string
}

// WithTimeout overrides the per-attempt timeout for this call.
func WithTimeout(timeout time.Duration) RequestOption {
	return func(opts *requestOptions) {
		opts.timeout = &timeout
	}
}

// WithMaxRetries overrides the retry count for this call.
func WithMaxRetries(n int) RequestOption {
	return func(opts *requestOptions) {
		if n < 0 {
			n = 0
		}
		opts.maxRetries = &n
	}
}

// DisableRetry forces a single attempt for this call.
func DisableRetry() RequestOption {
	return WithMaxRetries(0)
}

// WithHeader attaches a header to the underlying HTTP request. Per-call
// headers win over the client's default headers and the SDK's own headers.
func WithHeader(key, value string) RequestOption {
	return func(opts *requestOptions) {
		key = strings.TrimSpace(key)
		if key == "" {
			return
		}
		if opts.headers == nil {
			opts.headers = make(http.Header)
		}
		opts.headers.Set(key, value)
	}
}

// WithHeaders attaches multiple headers to the underlying HTTP request.
func WithHeaders(h map[string]string) RequestOption {
	return func(opts *requestOptions) {
		for key, value := range h {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			if opts.headers == nil {
				opts.headers = make(http.Header)
			}
			opts.headers.Set(key, value)
		}
	}
}

// WithoutHeader removes a header (including SDK defaults) from this call.
func WithoutHeader(key string) RequestOption {
	return func(opts *requestOptions) {
		key = strings.TrimSpace(key)
		if key == "" {
			return
		}
		opts.removeHeaders = append(opts.removeHeaders, key)
	}
}

// WithBetas opts the call into one or more beta features via the
// Anthropic-Beta header.
func WithBetas(betas ...string) RequestOption {
	return func(opts *requestOptions) {
		for _, beta := range betas {
			opts.ensureBeta(beta)
		}
	}
}

func buildRequestOptions(options []RequestOption) requestOptions {
	var opts requestOptions
	for _, opt := range options {
		if opt != nil {
			opt(&opts)
		}
	}
	return opts
}

// setHeader is used by services that need to force a header (accept
// overrides) on top of caller-supplied options.
func (o *requestOptions) setHeader(key, value string) {
	if o.headers == nil {
		o.headers = make(http.Header)
	}
	o.headers.Set(key, value)
}

// ensureBeta appends a beta flag to the Anthropic-Beta header unless already
// present.
func (o *requestOptions) ensureBeta(beta string) {
	if beta == "" {
		return
	}
	current := ""
	if o.headers != nil {
		current = o.headers.Get(headers.AnthropicBeta)
	}
	if current == "" {
		o.setHeader(headers.AnthropicBeta, beta)
		return
	}
	for _, existing := range strings.Split(current, ",") {
		if strings.TrimSpace(existing) == beta {
			return
		}
	}
	o.setHeader(headers.AnthropicBeta, current+","+beta)
}
