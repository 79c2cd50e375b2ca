package anthropic

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const defaultBaseURL = "https://api.anthropic.com"

// anthropicVersion is the wire protocol revision sent with every request.
const anthropicVersion = "2023-06-01"

// Config wires authentication, base URL, timeouts, and telemetry for the API
// client. Zero-valued fields fall back to environment variables
// (ANTHROPIC_API_KEY, ANTHROPIC_AUTH_TOKEN, ANTHROPIC_BASE_URL,
// ANTHROPIC_TIMEOUT, ANTHROPIC_MAX_RETRIES) and then to built-in defaults.
type Config struct {
	BaseURL   string
	APIKey    string
	AuthToken string

	// Timeout bounds each attempt. Zero means the 10 minute default.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt. Nil means
	// the default of 2; use IntPtr(0) to disable retries.
	MaxRetries *int

	// DefaultHeaders are applied to every request after the SDK's own headers
	// and before per-call overrides.
	DefaultHeaders http.Header

	HTTPClient *http.Client
	Telemetry  TelemetryHooks
	UserAgent  string
}

type envConfig struct {
	APIKey     string        `env:"ANTHROPIC_API_KEY"`
	AuthToken  string        `env:"ANTHROPIC_AUTH_TOKEN"`
	BaseURL    string        `env:"ANTHROPIC_BASE_URL"`
	Timeout    time.Duration `env:"ANTHROPIC_TIMEOUT"`
	MaxRetries int           `env:"ANTHROPIC_MAX_RETRIES" envDefault:"-1"`
}

// ConfigFromEnv builds a Config from the ANTHROPIC_* environment variables.
func ConfigFromEnv() (Config, error) {
	parsed, err := env.ParseAs[envConfig]()
	if err != nil {
		return Config{}, fmt.Errorf("anthropic: parse environment: %w", err)
	}
	cfg := Config{
		APIKey:    parsed.APIKey,
		AuthToken: parsed.AuthToken,
		BaseURL:   parsed.BaseURL,
		Timeout:   parsed.Timeout,
	}
	if parsed.MaxRetries >= 0 {
		cfg.MaxRetries = IntPtr(parsed.MaxRetries)
	}
	return cfg, nil
}

// Client provides access to the Anthropic REST API. It is safe for concurrent
// use; each call owns its own buffers and decoder state, and the only shared
// resource is the pooled HTTP transport.
type Client struct {
	baseURL          string
	httpClient       *http.Client
	apiKey           string
	authToken        string
	defaultHeaders   http.Header
	timeout          time.Duration
	timeoutIsDefault bool
	maxRetries       int
	telemetry        TelemetryHooks
	userAgent        string

	// Grouped service clients.
	Messages    *MessagesService
	Models      *ModelsService
	Completions *CompletionsService
	Beta        *BetaService
}

// NewClient validates the configuration and returns a ready-to-use Client.
// Credentials may be absent at construction; requests fail with ErrAuthMissing
// only when neither credential is resolvable at send time.
func NewClient(cfg Config) (*Client, error) {
	if envCfg, err := ConfigFromEnv(); err == nil {
		if cfg.APIKey == "" {
			cfg.APIKey = envCfg.APIKey
		}
		if cfg.AuthToken == "" {
			cfg.AuthToken = envCfg.AuthToken
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = envCfg.BaseURL
		}
		if cfg.Timeout == 0 {
			cfg.Timeout = envCfg.Timeout
		}
		if cfg.MaxRetries == nil {
			cfg.MaxRetries = envCfg.MaxRetries
		}
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	normalized, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	timeout := cfg.Timeout
	timeoutIsDefault := timeout == 0
	if timeoutIsDefault {
		timeout = defaultTimeout
	}
	maxRetries := defaultMaxRetries
	if cfg.MaxRetries != nil && *cfg.MaxRetries >= 0 {
		maxRetries = *cfg.MaxRetries
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = "anthropic-go/" + Version
	}

	client := &Client{
		baseURL:          normalized,
		httpClient:       httpClient,
		apiKey:           strings.TrimSpace(cfg.APIKey),
		authToken:        trimBearer(cfg.AuthToken),
		defaultHeaders:   cfg.DefaultHeaders.Clone(),
		timeout:          timeout,
		timeoutIsDefault: timeoutIsDefault,
		maxRetries:       maxRetries,
		telemetry:        cfg.Telemetry,
		userAgent:        ua,
	}
	client.Messages = &MessagesService{client: client}
	client.Messages.Batches = &BatchesService{client: client}
	client.Models = &ModelsService{client: client}
	client.Completions = &CompletionsService{client: client}
	client.Beta = newBetaService(client)
	return client, nil
}

// NewClientWithKey is shorthand for NewClient with only an API key.
func NewClientWithKey(apiKey string) (*Client, error) {
	return NewClient(Config{APIKey: apiKey})
}

func normalizeBaseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("anthropic: base URL required")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("anthropic: invalid base URL: %w", err)
	}
	if u.Scheme == "" {
		return "", errors.New("anthropic: base URL missing scheme (http/https)")
	}
	if u.Host == "" {
		return "", errors.New("anthropic: base URL missing host")
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return strings.TrimSuffix(u.String(), "/"), nil
}

func trimBearer(token string) string {
	token = strings.TrimSpace(token)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}

func (c *Client) buildURL(pathOrURL string, query url.Values) string {
	target := pathOrURL
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		if !strings.HasPrefix(target, "/") {
			target = "/" + target
		}
		target = c.baseURL + target
	}
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target = target + sep + query.Encode()
	}
	return target
}
