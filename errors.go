package anthropic

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cortexapis/anthropic-go/headers"
)

// Sentinel errors for classification with errors.Is.
var (
	// ErrAuthMissing is returned before any network I/O when neither an API
	// key nor an auth token is resolvable after header layering.
	ErrAuthMissing = errors.New("anthropic: authentication missing; set APIKey/AuthToken or pass X-Api-Key/Authorization headers")

	// ErrTimeout is returned when no response arrived within the effective
	// deadline across all attempts.
	ErrTimeout = errors.New("anthropic: request timed out")

	// ErrInvalidSSE marks malformed server-sent event framing.
	ErrInvalidSSE = errors.New("anthropic: invalid server-sent event stream")

	// ErrInvalidJSONL marks malformed newline-delimited JSON framing.
	ErrInvalidJSONL = errors.New("anthropic: invalid jsonl stream")

	// ErrInternal marks programmer-facing misuse of the SDK.
	ErrInternal = errors.New("anthropic: internal error")
)

// APIError captures an application-level API failure with enough detail to
// log or report: status, request id, extracted message, and the raw body.
// Status is zero for errors delivered in-band on a stream.
type APIError struct {
	Status    int
	RequestID string
	Message   string
	Body      json.RawMessage
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" && len(e.Body) > 0 {
		msg = string(e.Body)
	}
	if msg == "" {
		msg = "unknown error"
	}
	return fmt.Sprintf("%s: %s", statusLabel(e.Status), msg)
}

// RateLimited reports whether the error is a 429.
func (e *APIError) RateLimited() bool { return e.Status == http.StatusTooManyRequests }

func statusLabel(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "400 Bad Request"
	case http.StatusUnauthorized:
		return "401 Authentication Error"
	case http.StatusForbidden:
		return "403 Permission Denied"
	case http.StatusNotFound:
		return "404 Not Found"
	case http.StatusConflict:
		return "409 Conflict"
	case http.StatusUnprocessableEntity:
		return "422 Unprocessable Entity"
	case http.StatusTooManyRequests:
		return "429 Rate Limit"
	default:
		if status >= 500 {
			return "5xx Internal Server Error"
		}
		return "API Error"
	}
}

// newAPIError builds an APIError from a response's status, headers, and body.
func newAPIError(status int, hdr http.Header, body []byte) *APIError {
	e := &APIError{
		Status:  status,
		Message: extractErrorMessage(body),
	}
	if hdr != nil {
		e.RequestID = hdr.Get(headers.RequestID)
	}
	if len(body) > 0 {
		e.Body = append(json.RawMessage(nil), body...)
	}
	return e
}

// extractErrorMessage prefers body.error.message, then body.message, then the
// raw response text. Empty when nothing is available.
func extractErrorMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error.Message != "" {
			return envelope.Error.Message
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	return strings.TrimSpace(string(body))
}

func internalErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInternal, fmt.Sprintf(format, args...))
}

func invalidSSEf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSSE, fmt.Sprintf(format, args...))
}

func invalidJSONLf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidJSONL, fmt.Sprintf(format, args...))
}
