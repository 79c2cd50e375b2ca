package anthropic

import (
	"testing"
	"time"

	"github.com/cortexapis/anthropic-go/headers"
)

func TestBuildRequestOptions(t *testing.T) {
	opts := buildRequestOptions([]RequestOption{
		WithTimeout(5 * time.Second),
		WithMaxRetries(-3),
		WithHeader("X-One", "1"),
		WithHeaders(map[string]string{"X-Two": "2", "": "dropped"}),
		WithoutHeader("User-Agent"),
		nil,
	})

	if opts.timeout == nil || *opts.timeout != 5*time.Second {
		t.Errorf("timeout = %v", opts.timeout)
	}
	// Negative retry counts clamp to zero rather than re-enabling defaults.
	if opts.maxRetries == nil || *opts.maxRetries != 0 {
		t.Errorf("maxRetries = %v", opts.maxRetries)
	}
	if opts.headers.Get("X-One") != "1" || opts.headers.Get("X-Two") != "2" {
		t.Errorf("headers = %v", opts.headers)
	}
	if len(opts.removeHeaders) != 1 || opts.removeHeaders[0] != "User-Agent" {
		t.Errorf("removeHeaders = %v", opts.removeHeaders)
	}
}

func TestEnsureBeta(t *testing.T) {
	var opts requestOptions
	opts.ensureBeta(BetaFilesAPI)
	opts.ensureBeta(BetaFilesAPI)
	if got := opts.headers.Get(headers.AnthropicBeta); got != BetaFilesAPI {
		t.Errorf("beta header = %q", got)
	}

	opts.ensureBeta(BetaTokenCounting)
	want := BetaFilesAPI + "," + BetaTokenCounting
	if got := opts.headers.Get(headers.AnthropicBeta); got != want {
		t.Errorf("beta header = %q, want %q", got, want)
	}
}
