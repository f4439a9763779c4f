package centralprompt

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/ka-us-tubh/centralprompt/langfuse"
	"github.com/ka-us-tubh/centralprompt/mlflow"
)

// CentralPrompt dispatches prompt operations to one backend provider,
// fixed at construction. Create one per provider session with New.
type CentralPrompt struct {
	provider   Provider
	experiment string
	loadEnv    bool
	ml         MLflowBackend
	lf         LangfuseBackend
}

// New creates a CentralPrompt for the given provider name. Unless disabled
// with WithoutEnvFile, a local .env file is loaded best-effort before the
// backend reads its environment; a missing or malformed file is ignored.
//
// The mlflow backend needs a tracking server URI (MLFLOW_TRACKING_URI); the
// langfuse backend needs an API key pair (LANGFUSE_PUBLIC_KEY,
// LANGFUSE_SECRET_KEY). A backend that cannot be built is reported as
// ErrBackendUnavailable.
func New(provider string, opts ...Option) (*CentralPrompt, error) {
	p, err := ParseProvider(provider)
	if err != nil {
		return nil, err
	}
	cfg := config{loadEnv: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.experimentSet && !isNonBlank(cfg.experiment) {
		return nil, ErrInvalidExperiment
	}
	if cfg.loadEnv {
		// Best effort: construction must not fail on a missing .env file.
		_ = godotenv.Load()
	}
	c := &CentralPrompt{
		provider:   p,
		experiment: cfg.experiment,
		loadEnv:    cfg.loadEnv,
		ml:         cfg.mlflow,
		lf:         cfg.langfuse,
	}
	switch p {
	case ProviderMLflow:
		if c.ml == nil {
			var mlOpts []mlflow.Option
			if cfg.experiment != "" {
				mlOpts = append(mlOpts, mlflow.WithExperiment(cfg.experiment))
			}
			if cfg.httpClient != nil {
				mlOpts = append(mlOpts, mlflow.WithHTTPClient(cfg.httpClient))
			}
			client, err := mlflow.NewFromEnv(mlOpts...)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
			}
			c.ml = client
		}
	case ProviderLangfuse:
		if c.lf == nil {
			client, err := c.newLangfuseClient(cfg.httpClient)
			if err != nil {
				return nil, err
			}
			c.lf = client
		}
	}
	return c, nil
}

func (c *CentralPrompt) newLangfuseClient(hc *http.Client) (LangfuseBackend, error) {
	var lfOpts []langfuse.Option
	if hc != nil {
		lfOpts = append(lfOpts, langfuse.WithHTTPClient(hc))
	}
	client, err := langfuse.NewFromEnv(lfOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	return client, nil
}

// Provider returns the canonical provider this instance dispatches to.
func (c *CentralPrompt) Provider() Provider { return c.provider }

// PromptInfo is the result of SetPrompt. Version is 0 when the backend did
// not report one.
type PromptInfo struct {
	Provider Provider
	Name     string
	Version  int
}

// SetPromptOption configures a SetPrompt call.
type SetPromptOption func(*setPromptConfig)

type setPromptConfig struct {
	promptType     PromptType
	labels         []string
	tags           map[string]string
	responseFormat any
	commitMessage  string
}

// WithPromptType forces the prompt type instead of inferring it from the
// template shape. Langfuse only. A type that contradicts the template shape
// is rejected, not coerced.
func WithPromptType(t PromptType) SetPromptOption {
	return func(c *setPromptConfig) {
		c.promptType = t
	}
}

// WithLabels attaches deployment labels to the new prompt version. Langfuse only.
func WithLabels(labels []string) SetPromptOption {
	return func(c *setPromptConfig) {
		c.labels = labels
	}
}

// WithTags attaches key/value tags to the new prompt version. MLflow only.
func WithTags(tags map[string]string) SetPromptOption {
	return func(c *setPromptConfig) {
		c.tags = tags
	}
}

// WithResponseFormat attaches a structured-output schema to the new prompt
// version. MLflow only. The value is sent as JSON.
func WithResponseFormat(format any) SetPromptOption {
	return func(c *setPromptConfig) {
		c.responseFormat = format
	}
}

// WithCommitMessage records a commit message on the new prompt version. MLflow only.
func WithCommitMessage(msg string) SetPromptOption {
	return func(c *setPromptConfig) {
		c.commitMessage = msg
	}
}

// SetPrompt registers a new version of a prompt with the backend. All inputs
// are validated before any backend call; backend failures are wrapped in
// ErrCreateFailed with the original error in the chain.
func (c *CentralPrompt) SetPrompt(ctx context.Context, name string, template Template, opts ...SetPromptOption) (*PromptInfo, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := ValidateTemplate(template); err != nil {
		return nil, err
	}
	var cfg setPromptConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := validateLabels(cfg.labels); err != nil {
		return nil, err
	}
	if err := validateTags(cfg.tags); err != nil {
		return nil, err
	}
	switch c.provider {
	case ProviderMLflow:
		return c.setMLflowPrompt(ctx, name, template, &cfg)
	case ProviderLangfuse:
		return c.setLangfusePrompt(ctx, name, template, &cfg)
	}
	return nil, ErrUnsupportedProvider
}

func (c *CentralPrompt) setMLflowPrompt(ctx context.Context, name string, template Template, cfg *setPromptConfig) (*PromptInfo, error) {
	if c.ml == nil {
		return nil, fmt.Errorf("%w: mlflow backend is not initialized", ErrBackendUnavailable)
	}
	req := mlflow.RegisterPromptRequest{Name: name}
	switch tpl := template.(type) {
	case TextTemplate:
		req.Template = string(tpl)
	case ChatTemplate:
		req.Messages = toMLflowMessages(tpl)
	}
	if cfg.responseFormat != nil {
		req.ResponseFormat = cfg.responseFormat
	}
	if cfg.commitMessage != "" {
		req.CommitMessage = cfg.commitMessage
	}
	if cfg.tags != nil {
		req.Tags = cfg.tags
	}
	prompt, err := c.ml.RegisterPrompt(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: mlflow registration of %q: %w", ErrCreateFailed, name, err)
	}
	info := &PromptInfo{Provider: c.provider, Name: name}
	if prompt != nil {
		if prompt.Name != "" {
			info.Name = prompt.Name
		}
		info.Version = prompt.Version
	}
	return info, nil
}

func (c *CentralPrompt) setLangfusePrompt(ctx context.Context, name string, template Template, cfg *setPromptConfig) (*PromptInfo, error) {
	promptType := cfg.promptType
	if promptType == "" {
		promptType = PromptTypeText
		if IsChatTemplate(template) {
			promptType = PromptTypeChat
		}
	}
	switch promptType {
	case PromptTypeText, PromptTypeChat:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidPromptType, promptType)
	}
	if promptType == PromptTypeChat && !IsChatTemplate(template) {
		return nil, fmt.Errorf("%w: chat prompts need a list of role/content messages", ErrInvalidPromptType)
	}
	if promptType == PromptTypeText && IsChatTemplate(template) {
		return nil, fmt.Errorf("%w: text prompts need a plain text template", ErrInvalidPromptType)
	}
	client, err := c.langfuseClient()
	if err != nil {
		return nil, err
	}
	req := langfuse.CreatePromptRequest{Name: name, Type: string(promptType)}
	switch tpl := template.(type) {
	case TextTemplate:
		req.Text = string(tpl)
	case ChatTemplate:
		req.Messages = toLangfuseMessages(tpl)
	}
	if cfg.labels != nil {
		req.Labels = cfg.labels
	}
	if _, err := client.CreatePrompt(ctx, req); err != nil {
		return nil, fmt.Errorf("%w: langfuse creation of %q: %w (check LANGFUSE credentials)", ErrCreateFailed, name, err)
	}
	return &PromptInfo{Provider: c.provider, Name: name}, nil
}

// GetPromptOption configures a GetPrompt call.
type GetPromptOption func(*getPromptConfig)

type getPromptConfig struct {
	version int
	label   string
	path    string
}

// WithVersion fetches one specific prompt version.
func WithVersion(v int) GetPromptOption {
	return func(c *getPromptConfig) {
		c.version = v
	}
}

// WithLabel fetches the prompt version carrying a deployment label
// (e.g. "production"). Langfuse only; mutually exclusive with WithVersion.
func WithLabel(label string) GetPromptOption {
	return func(c *getPromptConfig) {
		c.label = label
	}
}

// WithPath fetches by full registry path "prompts:/<name>/<version>" instead
// of name and version. MLflow only; the name argument is ignored when set.
func WithPath(path string) GetPromptOption {
	return func(c *getPromptConfig) {
		c.path = path
	}
}

// promptPathPattern is the exact shape of an mlflow prompt registry path.
var promptPathPattern = regexp.MustCompile(`^prompts:/([^/]+)/([0-9]+)$`)

// GetPrompt fetches a prompt from the backend and wraps it in a PromptHandle.
// Backend failures and absent results are wrapped in ErrFetchFailed naming
// the requested identity.
func (c *CentralPrompt) GetPrompt(ctx context.Context, name string, opts ...GetPromptOption) (*PromptHandle, error) {
	var cfg getPromptConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	switch c.provider {
	case ProviderMLflow:
		return c.getMLflowPrompt(ctx, name, &cfg)
	case ProviderLangfuse:
		return c.getLangfusePrompt(ctx, name, &cfg)
	}
	return nil, ErrUnsupportedProvider
}

func (c *CentralPrompt) getMLflowPrompt(ctx context.Context, name string, cfg *getPromptConfig) (*PromptHandle, error) {
	if c.ml == nil {
		return nil, fmt.Errorf("%w: mlflow backend is not initialized", ErrBackendUnavailable)
	}
	target := cfg.path
	if target == "" {
		if name == "" || cfg.version == 0 {
			return nil, fmt.Errorf("%w: provide either a path or both a name and a version", ErrInvalidPath)
		}
		if cfg.version < 1 {
			return nil, ErrInvalidVersion
		}
		target = fmt.Sprintf("prompts:/%s/%d", name, cfg.version)
	}
	m := promptPathPattern.FindStringSubmatch(target)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, target)
	}
	// Identity comes from the path itself, not from caller arguments.
	version, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidPath, target, err)
	}
	prompt, err := c.ml.LoadPrompt(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("%w: mlflow load of %q: %w", ErrFetchFailed, target, err)
	}
	if prompt == nil {
		return nil, fmt.Errorf("%w: mlflow prompt %q not found", ErrFetchFailed, target)
	}
	return newHandle(c.provider, prompt, m[1], version), nil
}

func (c *CentralPrompt) getLangfusePrompt(ctx context.Context, name string, cfg *getPromptConfig) (*PromptHandle, error) {
	if !isNonBlank(name) {
		return nil, fmt.Errorf("%w: langfuse prompts are fetched by name", ErrInvalidName)
	}
	if cfg.version < 0 {
		return nil, ErrInvalidVersion
	}
	if cfg.version != 0 && cfg.label != "" {
		return nil, ErrVersionLabelConflict
	}
	client, err := c.langfuseClient()
	if err != nil {
		return nil, err
	}
	prompt, err := client.GetPrompt(ctx, name, langfuse.GetPromptOptions{Version: cfg.version, Label: cfg.label})
	if err != nil {
		return nil, fmt.Errorf("%w: langfuse get of %q: %w", ErrFetchFailed, name, err)
	}
	if prompt == nil {
		return nil, fmt.Errorf("%w: langfuse prompt %q not found", ErrFetchFailed, name)
	}
	return newHandle(c.provider, prompt, name, cfg.version), nil
}

// langfuseClient returns the client acquired at construction, acquiring a
// fresh one from the environment if it is absent.
func (c *CentralPrompt) langfuseClient() (LangfuseBackend, error) {
	if c.lf != nil {
		return c.lf, nil
	}
	if c.loadEnv {
		_ = godotenv.Load()
	}
	client, err := langfuse.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	c.lf = client
	return c.lf, nil
}

func toMLflowMessages(tpl ChatTemplate) []mlflow.ChatMessage {
	out := make([]mlflow.ChatMessage, len(tpl))
	for i, m := range tpl {
		out[i] = mlflow.ChatMessage{Role: m.Role, Content: m.Content}
	}
	return out
}

func toLangfuseMessages(tpl ChatTemplate) []langfuse.ChatMessage {
	out := make([]langfuse.ChatMessage, len(tpl))
	for i, m := range tpl {
		out[i] = langfuse.ChatMessage{Role: m.Role, Content: m.Content}
	}
	return out
}
