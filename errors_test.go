package anthropic

import (
	"net/http"
	"strings"
	"testing"
)

func TestExtractErrorMessage(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"NestedError", `{"type":"error","error":{"type":"invalid_request_error","message":"bad field"}}`, "bad field"},
		{"TopLevelMessage", `{"message":"plain message"}`, "plain message"},
		{"NestedWinsOverTopLevel", `{"error":{"message":"nested"},"message":"top"}`, "nested"},
		{"RawText", `upstream exploded`, "upstream exploded"},
		{"Empty", ``, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractErrorMessage([]byte(tc.body)); got != tc.want {
				t.Errorf("extractErrorMessage = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestAPIErrorFormatting(t *testing.T) {
	cases := []struct {
		status int
		want   string
	}{
		{400, "400 Bad Request"},
		{401, "401 Authentication Error"},
		{403, "403 Permission Denied"},
		{404, "404 Not Found"},
		{409, "409 Conflict"},
		{422, "422 Unprocessable Entity"},
		{429, "429 Rate Limit"},
		{500, "5xx Internal Server Error"},
		{503, "5xx Internal Server Error"},
		{0, "API Error"},
	}
	for _, tc := range cases {
		err := &APIError{Status: tc.status, Message: "boom"}
		if got := err.Error(); !strings.HasPrefix(got, tc.want) || !strings.Contains(got, "boom") {
			t.Errorf("Error() for %d = %q", tc.status, got)
		}
	}

	err := &APIError{Status: 500}
	if !strings.Contains(err.Error(), "unknown error") {
		t.Errorf("Error() without message = %q", err.Error())
	}
}

func TestNewAPIError(t *testing.T) {
	hdr := http.Header{}
	hdr.Set("Request-Id", "req_e")
	err := newAPIError(429, hdr, []byte(`{"error":{"message":"slow down"}}`))
	if err.RequestID != "req_e" || err.Message != "slow down" {
		t.Errorf("err = %+v", err)
	}
	if !err.RateLimited() {
		t.Error("429 should report RateLimited")
	}
	if len(err.Body) == 0 {
		t.Error("raw body should be retained")
	}
}
