package anthropic

import (
	"net/http"
	"testing"
	"time"

	"github.com/cortexapis/anthropic-go/headers"
)

func TestShouldRetryResponse(t *testing.T) {
	cases := []struct {
		name   string
		status int
		header http.Header
		want   bool
	}{
		{"RequestTimeout", 408, nil, true},
		{"Conflict", 409, nil, true},
		{"RateLimit", 429, nil, true},
		{"ServerError", 500, nil, true},
		{"BadGateway", 502, nil, true},
		{"BadRequest", 400, nil, false},
		{"Unauthorized", 401, nil, false},
		{"NotFound", 404, nil, false},
		{"Unprocessable", 422, nil, false},
		{"HeaderForcesRetry", 400, http.Header{headers.ShouldRetry: []string{"true"}}, true},
		{"HeaderForbidsRetry", 500, http.Header{headers.ShouldRetry: []string{"false"}}, false},
		{"HeaderGarbageIgnored", 429, http.Header{headers.ShouldRetry: []string{"maybe"}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hdr := tc.header
			if hdr == nil {
				hdr = http.Header{}
			}
			if got := shouldRetryResponse(tc.status, hdr); got != tc.want {
				t.Errorf("shouldRetryResponse(%d) = %v, want %v", tc.status, got, tc.want)
			}
		})
	}
}

func TestRetryDelayFromHeaders(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("RetryAfterMsWins", func(t *testing.T) {
		hdr := http.Header{}
		hdr.Set(headers.RetryAfterMS, "1500.5")
		hdr.Set(headers.RetryAfter, "30")
		d, ok := retryDelayFromHeaders(hdr, now)
		if !ok || d != 1500500*time.Microsecond {
			t.Errorf("delay = (%v, %v)", d, ok)
		}
	})

	t.Run("RetryAfterSeconds", func(t *testing.T) {
		hdr := http.Header{}
		hdr.Set(headers.RetryAfter, "2.5")
		d, ok := retryDelayFromHeaders(hdr, now)
		if !ok || d != 2500*time.Millisecond {
			t.Errorf("delay = (%v, %v)", d, ok)
		}
	})

	t.Run("RetryAfterDate", func(t *testing.T) {
		hdr := http.Header{}
		hdr.Set(headers.RetryAfter, now.Add(5*time.Second).Format(http.TimeFormat))
		d, ok := retryDelayFromHeaders(hdr, now)
		if !ok || d != 5*time.Second {
			t.Errorf("delay = (%v, %v)", d, ok)
		}
	})

	t.Run("PastDateClampsToZero", func(t *testing.T) {
		hdr := http.Header{}
		hdr.Set(headers.RetryAfter, now.Add(-time.Minute).Format(http.TimeFormat))
		d, ok := retryDelayFromHeaders(hdr, now)
		if !ok || d != 0 {
			t.Errorf("delay = (%v, %v)", d, ok)
		}
	})

	t.Run("NegativeRejected", func(t *testing.T) {
		hdr := http.Header{}
		hdr.Set(headers.RetryAfter, "-3")
		if _, ok := retryDelayFromHeaders(hdr, now); ok {
			t.Error("negative Retry-After should be unusable")
		}
	})

	t.Run("Absent", func(t *testing.T) {
		if _, ok := retryDelayFromHeaders(http.Header{}, now); ok {
			t.Error("empty headers should be unusable")
		}
	})
}

func TestRetryDelayCapsHeaderValues(t *testing.T) {
	now := time.Now()
	hdr := http.Header{}
	hdr.Set(headers.RetryAfter, "3600")

	// A huge header delay falls back to the default schedule instead of
	// stalling the caller for an hour.
	d := retryDelay(hdr, 0, now)
	if d >= maxHeaderRetryDelay {
		t.Errorf("delay %v should fall back below the header cap", d)
	}

	hdr.Set(headers.RetryAfter, "1")
	if d := retryDelay(hdr, 0, now); d != time.Second {
		t.Errorf("delay = %v, want 1s", d)
	}
}

func TestDefaultRetryDelayBounds(t *testing.T) {
	for attempt, maxSeconds := range map[int]float64{0: 0.5, 1: 1, 2: 2, 3: 4, 4: 8, 10: 8} {
		for i := 0; i < 50; i++ {
			d := defaultRetryDelay(attempt)
			upper := time.Duration(maxSeconds * float64(time.Second))
			lower := time.Duration(maxSeconds * 0.75 * float64(time.Second))
			if d < lower || d > upper {
				t.Fatalf("attempt %d: delay %v outside [%v, %v]", attempt, d, lower, upper)
			}
		}
	}
}
