package anthropic

// Version is the published SDK version.
// 0.3.0: Breaking - Batches moved under Messages.Batches, add Delete and Results.
// 0.2.1: Honor Retry-After-Ms over Retry-After and ignore header delays over 60s.
// 0.2.0: Add Files under Beta, multipart uploads resend content on retry.
// 0.1.0: Initial release: messages, streaming, models, legacy completions.
const Version = "0.3.0"
