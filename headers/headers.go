// Package headers defines HTTP header constants used by the Anthropic API.
// This is the single source of truth for header names used in requests/responses.
package headers

const (
	// RequestID is the correlation identifier the API attaches to every response.
	RequestID = "Request-Id"

	// APIKey carries the workspace API key credential.
	APIKey = "X-Api-Key" //nolint:gosec // This is a header name, not a credential

	// AnthropicVersion pins the wire protocol revision for a request.
	AnthropicVersion = "Anthropic-Version"

	// AnthropicBeta opts a request into one or more beta features.
	AnthropicBeta = "Anthropic-Beta"

	// RetryCount reports the zero-based attempt index of the outgoing request.
	RetryCount = "X-Stainless-Retry-Count"

	// TimeoutSecs reports the effective per-attempt timeout in whole seconds.
	TimeoutSecs = "X-Stainless-Timeout"

	// ShouldRetry is a server override for client retry eligibility. The
	// literal values "true" and "false" win over status-based heuristics.
	ShouldRetry = "X-Should-Retry"

	// RetryAfter is the standard backoff hint: fractional seconds or an HTTP date.
	RetryAfter = "Retry-After"

	// RetryAfterMS is the millisecond-precision backoff hint, preferred over RetryAfter.
	RetryAfterMS = "Retry-After-Ms"
)
