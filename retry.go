package anthropic

import (
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/cortexapis/anthropic-go/headers"
)

const (
	defaultTimeout    = 10 * time.Minute
	defaultMaxRetries = 2

	// Header-provided delays at or above this are treated as absent so a
	// hostile or buggy upstream value cannot stall the caller indefinitely.
	maxHeaderRetryDelay = 60 * time.Second
)

// shouldRetryResponse decides retry eligibility for a non-success response.
// An explicit X-Should-Retry header overrides the status heuristics.
func shouldRetryResponse(status int, hdr http.Header) bool {
	switch hdr.Get(headers.ShouldRetry) {
	case "true":
		return true
	case "false":
		return false
	}
	switch status {
	case http.StatusRequestTimeout, http.StatusConflict, http.StatusTooManyRequests:
		return true
	}
	return status >= 500
}

// retryDelayFromHeaders extracts a server-provided backoff delay. Preference
// order: Retry-After-Ms (fractional milliseconds), Retry-After as fractional
// seconds, Retry-After as an HTTP date (clamped to zero if in the past).
// Returns false when no usable value is present.
func retryDelayFromHeaders(hdr http.Header, now time.Time) (time.Duration, bool) {
	if raw := hdr.Get(headers.RetryAfterMS); raw != "" {
		if ms, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsInf(ms, 0) && !math.IsNaN(ms) && ms >= 0 {
			return time.Duration(ms * float64(time.Millisecond)), true
		}
	}
	raw := hdr.Get(headers.RetryAfter)
	if raw == "" {
		return 0, false
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		if math.IsInf(secs, 0) || math.IsNaN(secs) || secs < 0 {
			return 0, false
		}
		return time.Duration(secs * float64(time.Second)), true
	}
	at, err := http.ParseTime(raw)
	if err != nil {
		return 0, false
	}
	wait := at.Sub(now)
	if wait < 0 {
		wait = 0
	}
	return wait, true
}

// defaultRetryDelay is the fallback schedule: min(0.5 * 2^attempt, 8) seconds,
// jittered by a uniform factor in [0.75, 1.0].
func defaultRetryDelay(attempt int) time.Duration {
	sleepSeconds := math.Min(0.5*math.Pow(2, float64(attempt)), 8.0)
	jitter := 1 - rand.Float64()*0.25
	return time.Duration(sleepSeconds * jitter * float64(time.Second))
}

// retryDelay resolves the wait before the next attempt, preferring usable
// header values under the safety cap and falling back to the default schedule.
func retryDelay(hdr http.Header, attempt int, now time.Time) time.Duration {
	if d, ok := retryDelayFromHeaders(hdr, now); ok && d < maxHeaderRetryDelay {
		return d
	}
	return defaultRetryDelay(attempt)
}
