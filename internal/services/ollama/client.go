package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"docsort/internal/services"
)

const (
	defaultBaseURL     = "http://localhost:11434"
	defaultHTTPTimeout = 30 * time.Second
)

// Config captures the runtime settings required to talk to Ollama.
type Config struct {
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// Client wraps the Ollama generate and tags endpoints.
type Client struct {
	cfg            Config
	httpClient     *http.Client
	requestTimeout time.Duration
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs an Ollama client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:          strings.TrimSpace(cfg.Model),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient:     &http.Client{},
		requestTimeout: timeout,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{}
	}
	return client
}

// requestContext applies the configured timeout only when the caller's
// context has no deadline. A caller deadline always wins: classification and
// taxonomy synthesis run under different budgets against the same client.
func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeoutDuration())
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.cfg.Model
}

// GenerateOptions carries per-request sampling knobs.
type GenerateOptions struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature"`
}

// GenerateRequest describes a single non-streaming completion.
type GenerateRequest struct {
	Prompt  string
	Format  string
	Options GenerateOptions
}

type generatePayload struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Format  string          `json:"format,omitempty"`
	Options GenerateOptions `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("ollama request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Generate issues one completion request and returns the raw response text.
// Requests are not retried; callers decide how to degrade on failure.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", services.Wrap(services.ErrConfiguration, "ollama", "generate", "prompt required", nil)
	}
	if c.cfg.Model == "" {
		return "", services.Wrap(services.ErrConfiguration, "ollama", "generate", "model required", nil)
	}
	payload := generatePayload{
		Model:   c.cfg.Model,
		Prompt:  req.Prompt,
		Stream:  false,
		Format:  req.Format,
		Options: req.Options,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", services.Wrap(services.ErrMalformedResponse, "ollama", "generate", "encode body", err)
	}
	ctx, cancel := c.requestContext(ctx)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/generate", bytes.NewReader(encoded))
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "ollama", "generate", "build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", c.classifyTransportError("generate", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", c.classifyTransportError("generate", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		statusErr := &httpStatusError{StatusCode: resp.StatusCode, Body: string(body)}
		return "", services.Wrap(services.ErrServiceUnavailable, "ollama", "generate", "unexpected status", statusErr)
	}

	var decoded generateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", services.Wrap(services.ErrMalformedResponse, "ollama", "generate", "decode response", err)
	}
	if decoded.Error != "" {
		return "", services.Wrap(services.ErrServiceUnavailable, "ollama", "generate", "api error", errors.New(decoded.Error))
	}
	return decoded.Response, nil
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// ListModels returns the model names available on the Ollama host.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := c.requestContext(ctx)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/api/tags", nil)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "ollama", "list models", "build request", err)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.classifyTransportError("list models", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.classifyTransportError("list models", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		statusErr := &httpStatusError{StatusCode: resp.StatusCode, Body: string(body)}
		return nil, services.Wrap(services.ErrServiceUnavailable, "ollama", "list models", "unexpected status", statusErr)
	}

	var decoded tagsResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, services.Wrap(services.ErrMalformedResponse, "ollama", "list models", "decode response", err)
	}
	names := make([]string, 0, len(decoded.Models))
	for _, model := range decoded.Models {
		if name := strings.TrimSpace(model.Name); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// Health verifies the Ollama host is reachable and the configured model exists.
func (c *Client) Health(ctx context.Context) error {
	models, err := c.ListModels(ctx)
	if err != nil {
		return err
	}
	if c.cfg.Model == "" {
		return nil
	}
	for _, name := range models {
		if name == c.cfg.Model || strings.SplitN(name, ":", 2)[0] == c.cfg.Model {
			return nil
		}
	}
	return services.Wrap(services.ErrConfiguration, "ollama", "health", fmt.Sprintf("model %q not available", c.cfg.Model), nil)
}

func (c *Client) classifyTransportError(operation string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "ollama", operation, "deadline exceeded", err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return services.Wrap(services.ErrTimeout, "ollama", operation, "deadline exceeded", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return services.Wrap(services.ErrTimeout, "ollama", operation, "deadline exceeded", err)
	}
	return services.Wrap(services.ErrServiceUnavailable, "ollama", operation, "request failed", err)
}

func (c *Client) timeoutDuration() time.Duration {
	if c == nil || c.requestTimeout <= 0 {
		return defaultHTTPTimeout
	}
	return c.requestTimeout
}

// DecodeObjectJSON decodes a JSON object from a model response, tolerating the
// markdown code fences and prose wrappers local models like to emit.
func DecodeObjectJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}

	directErr := json.Unmarshal([]byte(trimmed), target)
	if directErr == nil {
		return nil
	}

	sanitized := sanitizeJSONPayload(trimmed)
	if sanitized == "" || sanitized == trimmed {
		return fmt.Errorf("%w (payload snippet: %s)", directErr, summarizePayloadSnippet(trimmed))
	}

	sanitizedErr := json.Unmarshal([]byte(sanitized), target)
	if sanitizedErr == nil {
		return nil
	}
	return fmt.Errorf("%w (sanitized payload snippet: %s)", sanitizedErr, summarizePayloadSnippet(sanitized))
}

func sanitizeJSONPayload(content string) string {
	trimmed := strings.TrimSpace(stripCodeFenceBlock(content))
	if trimmed == "" {
		return ""
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return trimmed
	}
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	if start := strings.Index(trimmed, "["); start >= 0 {
		if end := strings.LastIndex(trimmed, "]"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	return trimmed
}

func stripCodeFenceBlock(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := trimmed[3:]
	body = strings.TrimLeft(body, " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
		body = strings.TrimLeft(body, " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

func summarizePayloadSnippet(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	replacer := strings.NewReplacer("\r", " ", "\n", " ", "\t", " ")
	clean := replacer.Replace(trimmed)
	clean = strings.Join(strings.Fields(clean), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
