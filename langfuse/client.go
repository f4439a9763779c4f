package langfuse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// maxBodySize limits HTTP response body size (1 MB); prompt payloads are small.
const maxBodySize = 1 << 20

// defaultUserAgent is the User-Agent header value for HTTP requests.
const defaultUserAgent = "centralprompt-langfuse/1.0"

// defaultHost is used when no host is configured explicitly or via LANGFUSE_HOST.
const defaultHost = "https://cloud.langfuse.com"

// Environment variables read by NewFromEnv.
const (
	EnvHost      = "LANGFUSE_HOST"
	EnvPublicKey = "LANGFUSE_PUBLIC_KEY"
	EnvSecretKey = "LANGFUSE_SECRET_KEY"
)

// Client talks to one Langfuse project, authenticated with a public/secret
// key pair over HTTP basic auth. The zero value is not usable; construct
// with New or NewFromEnv.
type Client struct {
	host       string
	publicKey  string
	secretKey  string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client. Default has 30s timeout. If c is nil, the default client is left unchanged.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Client) {
		if c != nil {
			l.httpClient = c
		}
	}
}

// New creates a Client for the given host and key pair. An empty host falls
// back to the Langfuse cloud endpoint. Returns ErrNoCredentials when either
// key is empty.
func New(host, publicKey, secretKey string, opts ...Option) (*Client, error) {
	host = strings.TrimSuffix(strings.TrimSpace(host), "/")
	if host == "" {
		host = defaultHost
	}
	parsed, err := url.Parse(host)
	if err != nil || parsed.Scheme == "" {
		return nil, fmt.Errorf("langfuse: invalid host %q", host)
	}
	if publicKey == "" || secretKey == "" {
		return nil, ErrNoCredentials
	}
	c := &Client{
		host:       host,
		publicKey:  publicKey,
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewFromEnv creates a Client from LANGFUSE_HOST, LANGFUSE_PUBLIC_KEY, and
// LANGFUSE_SECRET_KEY.
func NewFromEnv(opts ...Option) (*Client, error) {
	return New(os.Getenv(EnvHost), os.Getenv(EnvPublicKey), os.Getenv(EnvSecretKey), opts...)
}

// Host returns the API host the client was configured with.
func (c *Client) Host() string { return c.host }

// CreatePromptRequest is the payload for CreatePrompt. Type selects which
// template field is sent: Text for "text" prompts, Messages for "chat".
type CreatePromptRequest struct {
	Name     string
	Type     string
	Text     string
	Messages []ChatMessage
	Labels   []string
}

// CreatePrompt registers a new version of a prompt and returns the version
// the server recorded.
func (c *Client) CreatePrompt(ctx context.Context, req CreatePromptRequest) (*Prompt, error) {
	payload := map[string]any{
		"name": req.Name,
		"type": req.Type,
	}
	if req.Type == "chat" {
		payload["prompt"] = req.Messages
	} else {
		payload["prompt"] = req.Text
	}
	if req.Labels != nil {
		payload["labels"] = req.Labels
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %w", ErrRequestFailed, err)
	}
	u := c.host + "/api/public/v2/prompts"
	data, err := c.do(ctx, http.MethodPost, u, body)
	if err != nil {
		return nil, err
	}
	var prompt Prompt
	if err := json.Unmarshal(data, &prompt); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrRequestFailed, err)
	}
	return &prompt, nil
}

// GetPromptOptions narrows which version of a prompt GetPrompt fetches.
// Zero values mean "latest production version".
type GetPromptOptions struct {
	Version int
	Label   string
}

// GetPrompt fetches one prompt by name. Returns ErrNotFound when the server
// has no matching prompt.
func (c *Client) GetPrompt(ctx context.Context, name string, opts GetPromptOptions) (*Prompt, error) {
	u := c.host + "/api/public/v2/prompts/" + url.PathEscape(name)
	query := url.Values{}
	if opts.Version != 0 {
		query.Set("version", strconv.Itoa(opts.Version))
	}
	if opts.Label != "" {
		query.Set("label", opts.Label)
	}
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	data, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	var prompt Prompt
	if err := json.Unmarshal(data, &prompt); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrRequestFailed, err)
	}
	return &prompt, nil
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
	req.SetBasicAuth(c.publicKey, c.secretKey)
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
