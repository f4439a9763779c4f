package centralprompt_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ka-us-tubh/centralprompt"
	"github.com/ka-us-tubh/centralprompt/langfuse"
	"github.com/ka-us-tubh/centralprompt/mlflow"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeMLflow records calls and plays back a canned prompt or error.
type fakeMLflow struct {
	registerCalls int
	loadCalls     int
	lastRegister  mlflow.RegisterPromptRequest
	lastURI       string
	prompt        *mlflow.Prompt
	err           error
}

func (f *fakeMLflow) RegisterPrompt(_ context.Context, req mlflow.RegisterPromptRequest) (*mlflow.Prompt, error) {
	f.registerCalls++
	f.lastRegister = req
	if f.err != nil {
		return nil, f.err
	}
	return f.prompt, nil
}

func (f *fakeMLflow) LoadPrompt(_ context.Context, uri string) (*mlflow.Prompt, error) {
	f.loadCalls++
	f.lastURI = uri
	if f.err != nil {
		return nil, f.err
	}
	return f.prompt, nil
}

// fakeLangfuse records calls and plays back a canned prompt or error.
type fakeLangfuse struct {
	createCalls int
	getCalls    int
	lastCreate  langfuse.CreatePromptRequest
	lastName    string
	lastOpts    langfuse.GetPromptOptions
	prompt      *langfuse.Prompt
	err         error
}

func (f *fakeLangfuse) CreatePrompt(_ context.Context, req langfuse.CreatePromptRequest) (*langfuse.Prompt, error) {
	f.createCalls++
	f.lastCreate = req
	if f.err != nil {
		return nil, f.err
	}
	return f.prompt, nil
}

func (f *fakeLangfuse) GetPrompt(_ context.Context, name string, opts langfuse.GetPromptOptions) (*langfuse.Prompt, error) {
	f.getCalls++
	f.lastName = name
	f.lastOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return f.prompt, nil
}

func newMLflowFacade(t *testing.T, fake *fakeMLflow) *centralprompt.CentralPrompt {
	t.Helper()
	c, err := centralprompt.New("mlflow",
		centralprompt.WithoutEnvFile(),
		centralprompt.WithMLflowBackend(fake),
	)
	require.NoError(t, err)
	return c
}

func newLangfuseFacade(t *testing.T, fake *fakeLangfuse) *centralprompt.CentralPrompt {
	t.Helper()
	c, err := centralprompt.New("langfuse",
		centralprompt.WithoutEnvFile(),
		centralprompt.WithLangfuseBackend(fake),
	)
	require.NoError(t, err)
	return c
}

func TestNew_UnsupportedProvider(t *testing.T) {
	t.Parallel()
	_, err := centralprompt.New("openai", centralprompt.WithoutEnvFile())
	require.ErrorIs(t, err, centralprompt.ErrUnsupportedProvider)
}

func TestNew_BlankExperiment(t *testing.T) {
	t.Parallel()
	_, err := centralprompt.New("mlflow",
		centralprompt.WithoutEnvFile(),
		centralprompt.WithExperiment("   "),
		centralprompt.WithMLflowBackend(&fakeMLflow{}),
	)
	require.ErrorIs(t, err, centralprompt.ErrInvalidExperiment)
}

func TestNew_MLflowWithoutTrackingURI(t *testing.T) {
	t.Setenv(mlflow.EnvTrackingURI, "")
	_, err := centralprompt.New("mlflow", centralprompt.WithoutEnvFile())
	require.ErrorIs(t, err, centralprompt.ErrBackendUnavailable)
	require.ErrorIs(t, err, mlflow.ErrNoTrackingURI)
}

func TestNew_LangfuseWithoutCredentials(t *testing.T) {
	t.Setenv(langfuse.EnvPublicKey, "")
	t.Setenv(langfuse.EnvSecretKey, "")
	_, err := centralprompt.New("langfuse", centralprompt.WithoutEnvFile())
	require.ErrorIs(t, err, centralprompt.ErrBackendUnavailable)
	require.ErrorIs(t, err, langfuse.ErrNoCredentials)
}

func TestSetPrompt_ValidatesBeforeBackendCall(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		promptN  string
		template centralprompt.Template
		opts     []centralprompt.SetPromptOption
		wantErr  error
	}{
		{"blank name", "   ", centralprompt.TextTemplate("hi"), nil, centralprompt.ErrInvalidName},
		{"nil template", "greeting", nil, nil, centralprompt.ErrInvalidTemplate},
		{"bad chat message", "greeting", centralprompt.ChatTemplate{{Role: "user"}}, nil, centralprompt.ErrInvalidTemplate},
		{"empty label", "greeting", centralprompt.TextTemplate("hi"),
			[]centralprompt.SetPromptOption{centralprompt.WithLabels([]string{"prod", ""})},
			centralprompt.ErrInvalidLabels},
		{"empty tag key", "greeting", centralprompt.TextTemplate("hi"),
			[]centralprompt.SetPromptOption{centralprompt.WithTags(map[string]string{"": "x"})},
			centralprompt.ErrInvalidTags},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fake := &fakeMLflow{}
			c := newMLflowFacade(t, fake)
			_, err := c.SetPrompt(context.Background(), tt.promptN, tt.template, tt.opts...)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, fake.registerCalls, "backend must not be called on validation failure")
		})
	}
}

func TestSetPrompt_MLflow(t *testing.T) {
	t.Parallel()
	fake := &fakeMLflow{prompt: &mlflow.Prompt{Name: "greeting", Version: 3}}
	c := newMLflowFacade(t, fake)

	info, err := c.SetPrompt(context.Background(), "greeting",
		centralprompt.TextTemplate("Hello, {{ name }}!"),
		centralprompt.WithTags(map[string]string{"team": "ml"}),
		centralprompt.WithCommitMessage("initial version"),
	)
	require.NoError(t, err)
	assert.Equal(t, centralprompt.ProviderMLflow, info.Provider)
	assert.Equal(t, "greeting", info.Name)
	assert.Equal(t, 3, info.Version)

	assert.Equal(t, 1, fake.registerCalls)
	assert.Equal(t, "Hello, {{ name }}!", fake.lastRegister.Template)
	assert.Equal(t, map[string]string{"team": "ml"}, fake.lastRegister.Tags)
	assert.Equal(t, "initial version", fake.lastRegister.CommitMessage)
}

func TestSetPrompt_MLflow_VersionMayBeAbsent(t *testing.T) {
	t.Parallel()
	fake := &fakeMLflow{prompt: &mlflow.Prompt{}}
	c := newMLflowFacade(t, fake)
	info, err := c.SetPrompt(context.Background(), "greeting", centralprompt.TextTemplate("hi"))
	require.NoError(t, err)
	// Name falls back to the input; version stays unknown.
	assert.Equal(t, "greeting", info.Name)
	assert.Zero(t, info.Version)
}

func TestSetPrompt_MLflow_BackendError(t *testing.T) {
	t.Parallel()
	backendErr := errors.New("registry exploded")
	fake := &fakeMLflow{err: backendErr}
	c := newMLflowFacade(t, fake)
	_, err := c.SetPrompt(context.Background(), "greeting", centralprompt.TextTemplate("hi"))
	require.ErrorIs(t, err, centralprompt.ErrCreateFailed)
	require.ErrorIs(t, err, backendErr)
	assert.Contains(t, err.Error(), "greeting")
}

func TestSetPrompt_Langfuse_TypeInference(t *testing.T) {
	t.Parallel()
	fake := &fakeLangfuse{prompt: &langfuse.Prompt{Name: "support", Version: 1}}
	c := newLangfuseFacade(t, fake)

	_, err := c.SetPrompt(context.Background(), "support", centralprompt.ChatTemplate{
		{Role: "system", Content: "You are helpful."},
	})
	require.NoError(t, err)
	assert.Equal(t, "chat", fake.lastCreate.Type)

	_, err = c.SetPrompt(context.Background(), "support", centralprompt.TextTemplate("hi"))
	require.NoError(t, err)
	assert.Equal(t, "text", fake.lastCreate.Type)
}

func TestSetPrompt_Langfuse_TypeShapeMismatch(t *testing.T) {
	t.Parallel()
	fake := &fakeLangfuse{}
	c := newLangfuseFacade(t, fake)

	// Forcing chat on a text template fails before any backend call.
	_, err := c.SetPrompt(context.Background(), "greeting",
		centralprompt.TextTemplate("hi"),
		centralprompt.WithPromptType(centralprompt.PromptTypeChat),
	)
	require.ErrorIs(t, err, centralprompt.ErrInvalidPromptType)

	_, err = c.SetPrompt(context.Background(), "greeting",
		centralprompt.ChatTemplate{{Role: "user", Content: "hi"}},
		centralprompt.WithPromptType(centralprompt.PromptTypeText),
	)
	require.ErrorIs(t, err, centralprompt.ErrInvalidPromptType)

	_, err = c.SetPrompt(context.Background(), "greeting",
		centralprompt.TextTemplate("hi"),
		centralprompt.WithPromptType(centralprompt.PromptType("completion")),
	)
	require.ErrorIs(t, err, centralprompt.ErrInvalidPromptType)

	assert.Zero(t, fake.createCalls)
}

func TestSetPrompt_Langfuse_PassesLabels(t *testing.T) {
	t.Parallel()
	fake := &fakeLangfuse{prompt: &langfuse.Prompt{}}
	c := newLangfuseFacade(t, fake)
	info, err := c.SetPrompt(context.Background(), "greeting",
		centralprompt.TextTemplate("hi"),
		centralprompt.WithLabels([]string{"staging", "latest"}),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"staging", "latest"}, fake.lastCreate.Labels)
	assert.Equal(t, centralprompt.ProviderLangfuse, info.Provider)
	assert.Equal(t, "greeting", info.Name)
	assert.Zero(t, info.Version)
}

func TestSetPrompt_Langfuse_BackendErrorMentionsCredentials(t *testing.T) {
	t.Parallel()
	backendErr := errors.New("401 unauthorized")
	fake := &fakeLangfuse{err: backendErr}
	c := newLangfuseFacade(t, fake)
	_, err := c.SetPrompt(context.Background(), "greeting", centralprompt.TextTemplate("hi"))
	require.ErrorIs(t, err, centralprompt.ErrCreateFailed)
	require.ErrorIs(t, err, backendErr)
	assert.Contains(t, err.Error(), "LANGFUSE")
}

func TestGetPrompt_MLflow_ByPath(t *testing.T) {
	t.Parallel()
	fake := &fakeMLflow{prompt: &mlflow.Prompt{Name: "greeting", Version: 3, Template: "hi"}}
	c := newMLflowFacade(t, fake)
	h, err := c.GetPrompt(context.Background(), "", centralprompt.WithPath("prompts:/greeting/3"))
	require.NoError(t, err)
	assert.Equal(t, "prompts:/greeting/3", fake.lastURI)
	assert.Equal(t, "greeting", h.Name)
	assert.Equal(t, 3, h.Version)
}

func TestGetPrompt_MLflow_ByNameAndVersion(t *testing.T) {
	t.Parallel()
	fake := &fakeMLflow{prompt: &mlflow.Prompt{}}
	c := newMLflowFacade(t, fake)
	h, err := c.GetPrompt(context.Background(), "greeting", centralprompt.WithVersion(2))
	require.NoError(t, err)
	assert.Equal(t, "prompts:/greeting/2", fake.lastURI)
	assert.Equal(t, "greeting", h.Name)
	assert.Equal(t, 2, h.Version)
}

func TestGetPrompt_MLflow_IdentityFromPathNotCaller(t *testing.T) {
	t.Parallel()
	fake := &fakeMLflow{prompt: &mlflow.Prompt{}}
	c := newMLflowFacade(t, fake)
	// The caller-supplied name is ignored when a path is given.
	h, err := c.GetPrompt(context.Background(), "something-else",
		centralprompt.WithPath("prompts:/greeting/5"))
	require.NoError(t, err)
	assert.Equal(t, "greeting", h.Name)
	assert.Equal(t, 5, h.Version)
}

func TestGetPrompt_MLflow_Validation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		argName string
		opts    []centralprompt.GetPromptOption
		wantErr error
	}{
		{"no args", "", nil, centralprompt.ErrInvalidPath},
		{"name without version", "greeting", nil, centralprompt.ErrInvalidPath},
		{"version without name", "", []centralprompt.GetPromptOption{centralprompt.WithVersion(1)}, centralprompt.ErrInvalidPath},
		{"negative version", "greeting", []centralprompt.GetPromptOption{centralprompt.WithVersion(-1)}, centralprompt.ErrInvalidVersion},
		{"non-digit version segment", "", []centralprompt.GetPromptOption{centralprompt.WithPath("prompts:/greeting/abc")}, centralprompt.ErrInvalidPath},
		{"missing prefix", "", []centralprompt.GetPromptOption{centralprompt.WithPath("greeting/3")}, centralprompt.ErrInvalidPath},
		{"extra segment", "", []centralprompt.GetPromptOption{centralprompt.WithPath("prompts:/a/b/3")}, centralprompt.ErrInvalidPath},
		{"version overflows int", "", []centralprompt.GetPromptOption{centralprompt.WithPath("prompts:/greeting/99999999999999999999")}, centralprompt.ErrInvalidPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fake := &fakeMLflow{}
			c := newMLflowFacade(t, fake)
			_, err := c.GetPrompt(context.Background(), tt.argName, tt.opts...)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, fake.loadCalls)
		})
	}
}

func TestGetPrompt_MLflow_BackendError(t *testing.T) {
	t.Parallel()
	backendErr := errors.New("registry down")
	fake := &fakeMLflow{err: backendErr}
	c := newMLflowFacade(t, fake)
	_, err := c.GetPrompt(context.Background(), "", centralprompt.WithPath("prompts:/greeting/3"))
	require.ErrorIs(t, err, centralprompt.ErrFetchFailed)
	require.ErrorIs(t, err, backendErr)
	assert.Contains(t, err.Error(), "prompts:/greeting/3")
}

func TestGetPrompt_MLflow_NilResult(t *testing.T) {
	t.Parallel()
	// A backend that reports neither a prompt nor an error yields a fetch
	// failure, not a handle around nothing.
	fake := &fakeMLflow{}
	c := newMLflowFacade(t, fake)
	_, err := c.GetPrompt(context.Background(), "", centralprompt.WithPath("prompts:/greeting/0"))
	require.ErrorIs(t, err, centralprompt.ErrFetchFailed)
	assert.Contains(t, err.Error(), "prompts:/greeting/0")
}

func TestGetPrompt_Langfuse(t *testing.T) {
	t.Parallel()
	fake := &fakeLangfuse{prompt: &langfuse.Prompt{Name: "greeting", Version: 2, Type: langfuse.TypeText, Text: "hi"}}
	c := newLangfuseFacade(t, fake)
	h, err := c.GetPrompt(context.Background(), "greeting", centralprompt.WithVersion(2))
	require.NoError(t, err)
	assert.Equal(t, "greeting", fake.lastName)
	assert.Equal(t, 2, fake.lastOpts.Version)
	assert.Equal(t, "greeting", h.Name)
	assert.Equal(t, 2, h.Version)
}

func TestGetPrompt_Langfuse_Validation(t *testing.T) {
	t.Parallel()
	fake := &fakeLangfuse{}
	c := newLangfuseFacade(t, fake)

	_, err := c.GetPrompt(context.Background(), "  ")
	require.ErrorIs(t, err, centralprompt.ErrInvalidName)

	_, err = c.GetPrompt(context.Background(), "greeting",
		centralprompt.WithVersion(2), centralprompt.WithLabel("prod"))
	require.ErrorIs(t, err, centralprompt.ErrVersionLabelConflict)

	_, err = c.GetPrompt(context.Background(), "greeting", centralprompt.WithVersion(-3))
	require.ErrorIs(t, err, centralprompt.ErrInvalidVersion)

	assert.Zero(t, fake.getCalls)
}

func TestGetPrompt_Langfuse_NilResult(t *testing.T) {
	t.Parallel()
	fake := &fakeLangfuse{} // returns nil prompt, nil error
	c := newLangfuseFacade(t, fake)
	_, err := c.GetPrompt(context.Background(), "greeting")
	require.ErrorIs(t, err, centralprompt.ErrFetchFailed)
	assert.Contains(t, err.Error(), "greeting")
}

func TestGetPrompt_Langfuse_BackendError(t *testing.T) {
	t.Parallel()
	backendErr := errors.New("api down")
	fake := &fakeLangfuse{err: backendErr}
	c := newLangfuseFacade(t, fake)
	_, err := c.GetPrompt(context.Background(), "greeting", centralprompt.WithLabel("prod"))
	require.ErrorIs(t, err, centralprompt.ErrFetchFailed)
	require.ErrorIs(t, err, backendErr)
	assert.Equal(t, "prod", fake.lastOpts.Label)
}
