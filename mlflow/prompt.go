package mlflow

import (
	"fmt"
	"regexp"
)

// ChatMessage is one role/content pair of a chat prompt.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Prompt is a prompt version held by the registry.
// Template holds the text template; Messages holds the chat template.
// Exactly one of the two is populated.
type Prompt struct {
	Name     string            `json:"name"`
	Version  int               `json:"version"`
	Template string            `json:"template,omitempty"`
	Messages []ChatMessage     `json:"messages,omitempty"`
	Tags     map[string]string `json:"tags,omitempty"`
}

// IsChat reports whether the prompt holds a chat template.
func (p *Prompt) IsChat() bool { return p.Messages != nil }

// variablePattern matches {{ var }} placeholders, with or without inner spaces.
var variablePattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// Format substitutes {{ var }} placeholders with the given variables.
// Text prompts render to a string; chat prompts render to []ChatMessage with
// each message content substituted. Every referenced variable must be
// provided; otherwise Format returns ErrMissingVariable.
func (p *Prompt) Format(vars map[string]any) (any, error) {
	if p.IsChat() {
		out := make([]ChatMessage, len(p.Messages))
		for i, m := range p.Messages {
			content, err := substitute(m.Content, vars)
			if err != nil {
				return nil, err
			}
			out[i] = ChatMessage{Role: m.Role, Content: content}
		}
		return out, nil
	}
	return substitute(p.Template, vars)
}

func substitute(template string, vars map[string]any) (string, error) {
	var missing string
	out := variablePattern.ReplaceAllStringFunc(template, func(match string) string {
		name := variablePattern.FindStringSubmatch(match)[1]
		v, ok := vars[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return match
		}
		return fmt.Sprint(v)
	})
	if missing != "" {
		return "", fmt.Errorf("%w: %q", ErrMissingVariable, missing)
	}
	return out, nil
}
