package mlflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// maxBodySize limits HTTP response body size (1 MB); registry payloads are small.
const maxBodySize = 1 << 20

// defaultUserAgent is the User-Agent header value for HTTP requests.
const defaultUserAgent = "centralprompt-mlflow/1.0"

// Environment variables read by NewFromEnv.
const (
	EnvTrackingURI    = "MLFLOW_TRACKING_URI"
	EnvExperimentName = "MLFLOW_EXPERIMENT_NAME"
)

// Client talks to the prompt registry of a single tracking server.
// The zero value is not usable; construct with New or NewFromEnv.
type Client struct {
	trackingURI string
	experiment  string
	httpClient  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client. Default has 30s timeout. If c is nil, the default client is left unchanged.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Client) {
		if c != nil {
			m.httpClient = c
		}
	}
}

// WithExperiment sets the experiment name attached to registered prompts.
func WithExperiment(name string) Option {
	return func(m *Client) {
		m.experiment = name
	}
}

// New creates a Client for the given tracking server URI
// (e.g. https://mlflow.example.com). Returns ErrNoTrackingURI when the URI
// is empty or not a valid URL.
func New(trackingURI string, opts ...Option) (*Client, error) {
	trackingURI = strings.TrimSuffix(strings.TrimSpace(trackingURI), "/")
	if trackingURI == "" {
		return nil, ErrNoTrackingURI
	}
	parsed, err := url.Parse(trackingURI)
	if err != nil || parsed.Scheme == "" {
		return nil, fmt.Errorf("%w: invalid URI %q", ErrNoTrackingURI, trackingURI)
	}
	c := &Client{
		trackingURI: trackingURI,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewFromEnv creates a Client from MLFLOW_TRACKING_URI and MLFLOW_EXPERIMENT_NAME.
// Explicit options take precedence over the environment.
func NewFromEnv(opts ...Option) (*Client, error) {
	envOpts := []Option{WithExperiment(os.Getenv(EnvExperimentName))}
	return New(os.Getenv(EnvTrackingURI), append(envOpts, opts...)...)
}

// TrackingURI returns the tracking server URI the client was configured with.
func (c *Client) TrackingURI() string { return c.trackingURI }

// Experiment returns the configured experiment name, if any.
func (c *Client) Experiment() string { return c.experiment }

// RegisterPromptRequest is the payload for RegisterPrompt. Exactly one of
// Template (text) or Messages (chat) should be set.
type RegisterPromptRequest struct {
	Name           string            `json:"name"`
	Template       string            `json:"template,omitempty"`
	Messages       []ChatMessage     `json:"messages,omitempty"`
	CommitMessage  string            `json:"commit_message,omitempty"`
	Tags           map[string]string `json:"tags,omitempty"`
	ResponseFormat any               `json:"response_format,omitempty"`
	Experiment     string            `json:"experiment,omitempty"`
}

type promptResponse struct {
	Prompt *Prompt `json:"prompt"`
}

// RegisterPrompt creates a new version of a prompt in the registry and
// returns the version the server recorded.
func (c *Client) RegisterPrompt(ctx context.Context, req RegisterPromptRequest) (*Prompt, error) {
	if req.Experiment == "" {
		req.Experiment = c.experiment
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %w", ErrRequestFailed, err)
	}
	u := c.trackingURI + "/api/2.0/mlflow/prompts/register"
	data, err := c.do(ctx, http.MethodPost, u, body)
	if err != nil {
		return nil, err
	}
	var resp promptResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrRequestFailed, err)
	}
	return resp.Prompt, nil
}

// LoadPrompt fetches one prompt version by registry URI
// (e.g. "prompts:/greeting/3"). Returns ErrNotFound when the server has no
// such version.
func (c *Client) LoadPrompt(ctx context.Context, uri string) (*Prompt, error) {
	u := c.trackingURI + "/api/2.0/mlflow/prompts/get?uri=" + url.QueryEscape(uri)
	data, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	var resp promptResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrRequestFailed, err)
	}
	if resp.Prompt == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, uri)
	}
	return resp.Prompt, nil
}

func (c *Client) do(ctx context.Context, method, u string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, u)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s %s", ErrHTTPStatus, resp.Status, u)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrRequestFailed, err)
	}
	return data, nil
}
