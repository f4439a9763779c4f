package centralprompt

import (
	"fmt"
	"strings"

	"github.com/ka-us-tubh/centralprompt/langfuse"
	"github.com/ka-us-tubh/centralprompt/mlflow"
)

// PromptHandle wraps whatever prompt object a backend returned behind one
// rendering call. Name and Version are a snapshot taken at construction:
// caller-supplied values win, with fallback to the underlying object
// (0 means the version is unknown). The handle never mutates the underlying
// object.
type PromptHandle struct {
	provider   Provider
	underlying any

	Name    string
	Version int
}

// NewPromptHandle wraps a backend prompt object. The provider name is
// normalized through ParseProvider; GetPrompt constructs handles this way,
// so the check only fires for hand-built handles.
func NewPromptHandle(provider string, underlying any, name string, version int) (*PromptHandle, error) {
	p, err := ParseProvider(provider)
	if err != nil {
		return nil, err
	}
	return newHandle(p, underlying, name, version), nil
}

func newHandle(p Provider, underlying any, name string, version int) *PromptHandle {
	h := &PromptHandle{provider: p, underlying: underlying, Name: name, Version: version}
	if h.Name == "" || h.Version == 0 {
		switch u := underlying.(type) {
		case *mlflow.Prompt:
			if u == nil {
				break
			}
			if h.Name == "" {
				h.Name = u.Name
			}
			if h.Version == 0 {
				h.Version = u.Version
			}
		case *langfuse.Prompt:
			if u == nil {
				break
			}
			if h.Name == "" {
				h.Name = u.Name
			}
			if h.Version == 0 {
				h.Version = u.Version
			}
		}
	}
	return h
}

// Provider returns the canonical provider the handle belongs to.
func (h *PromptHandle) Provider() Provider { return h.provider }

// Underlying returns the raw backend prompt object.
func (h *PromptHandle) Underlying() any { return h.underlying }

// Compile renders the underlying template with the given variables, passing
// them through to the backend's rendering call unaltered. Text prompts
// render to a string; chat prompts render to the backend's message slice
// type. Render failures are wrapped in ErrCompileFailed naming the provider.
func (h *PromptHandle) Compile(vars map[string]any) (any, error) {
	switch h.provider {
	case ProviderMLflow:
		p, ok := h.underlying.(*mlflow.Prompt)
		if !ok {
			return nil, fmt.Errorf("%w: provider %q: handle wraps %T, not *mlflow.Prompt", ErrCompileFailed, h.provider, h.underlying)
		}
		if p == nil {
			return nil, fmt.Errorf("%w: provider %q: handle wraps a nil prompt", ErrCompileFailed, h.provider)
		}
		out, err := p.Format(vars)
		if err != nil {
			return nil, fmt.Errorf("%w: provider %q: %w", ErrCompileFailed, h.provider, err)
		}
		return out, nil
	case ProviderLangfuse:
		p, ok := h.underlying.(*langfuse.Prompt)
		if !ok {
			return nil, fmt.Errorf("%w: provider %q: handle wraps %T, not *langfuse.Prompt", ErrCompileFailed, h.provider, h.underlying)
		}
		if p == nil {
			return nil, fmt.Errorf("%w: provider %q: handle wraps a nil prompt", ErrCompileFailed, h.provider)
		}
		out, err := p.Compile(vars)
		if err != nil {
			return nil, fmt.Errorf("%w: provider %q: %w", ErrCompileFailed, h.provider, err)
		}
		return out, nil
	}
	return nil, ErrUnsupportedProvider
}

// String returns a diagnostic description of the handle. It is not parsed
// by anything.
func (h *PromptHandle) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "PromptHandle(provider=%q", string(h.provider))
	if h.Name != "" {
		fmt.Fprintf(&b, ", name=%q", h.Name)
	}
	if h.Version != 0 {
		fmt.Fprintf(&b, ", version=%d", h.Version)
	}
	fmt.Fprintf(&b, ", underlying=%T)", h.underlying)
	return b.String()
}
