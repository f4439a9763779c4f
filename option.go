package centralprompt

import (
	"context"
	"net/http"

	"github.com/ka-us-tubh/centralprompt/langfuse"
	"github.com/ka-us-tubh/centralprompt/mlflow"
)

// MLflowBackend is the subset of *mlflow.Client the facade uses.
// Satisfied by the real client; swap it out in tests.
type MLflowBackend interface {
	RegisterPrompt(ctx context.Context, req mlflow.RegisterPromptRequest) (*mlflow.Prompt, error)
	LoadPrompt(ctx context.Context, uri string) (*mlflow.Prompt, error)
}

// LangfuseBackend is the subset of *langfuse.Client the facade uses.
// Satisfied by the real client; swap it out in tests.
type LangfuseBackend interface {
	CreatePrompt(ctx context.Context, req langfuse.CreatePromptRequest) (*langfuse.Prompt, error)
	GetPrompt(ctx context.Context, name string, opts langfuse.GetPromptOptions) (*langfuse.Prompt, error)
}

// Compile-time checks that the real clients satisfy the backend interfaces.
var (
	_ MLflowBackend   = (*mlflow.Client)(nil)
	_ LangfuseBackend = (*langfuse.Client)(nil)
)

// Option configures CentralPrompt construction (functional options pattern).
type Option func(*config)

type config struct {
	experiment    string
	experimentSet bool
	loadEnv       bool
	httpClient    *http.Client
	mlflow        MLflowBackend
	langfuse      LangfuseBackend
}

// WithExperiment sets the experiment name used by the mlflow backend.
// When unset, MLFLOW_EXPERIMENT_NAME is used.
func WithExperiment(name string) Option {
	return func(c *config) {
		c.experiment = name
		c.experimentSet = true
	}
}

// WithoutEnvFile disables the best-effort .env file load during construction.
func WithoutEnvFile() Option {
	return func(c *config) {
		c.loadEnv = false
	}
}

// WithHTTPClient sets the HTTP client passed to the backend client.
// Ignored when a backend is injected directly.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) {
		c.httpClient = hc
	}
}

// WithMLflowBackend injects an mlflow backend instead of building one from
// the environment. Only consulted when the provider is mlflow.
func WithMLflowBackend(b MLflowBackend) Option {
	return func(c *config) {
		c.mlflow = b
	}
}

// WithLangfuseBackend injects a langfuse backend instead of building one from
// the environment. Only consulted when the provider is langfuse.
func WithLangfuseBackend(b LangfuseBackend) Option {
	return func(c *config) {
		c.langfuse = b
	}
}
