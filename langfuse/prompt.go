package langfuse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
)

// Prompt types as reported by the API.
const (
	TypeText = "text"
	TypeChat = "chat"
)

// ChatMessage is one role/content pair of a chat prompt.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Prompt is one prompt version. Text holds the template of "text" prompts;
// Messages holds the template of "chat" prompts.
type Prompt struct {
	Name     string
	Version  int
	Type     string
	Text     string
	Messages []ChatMessage
	Labels   []string
	Tags     []string
}

// promptEnvelope is the wire shape; the "prompt" field is a string for text
// prompts and a message array for chat prompts.
type promptEnvelope struct {
	Name    string          `json:"name"`
	Version int             `json:"version"`
	Type    string          `json:"type"`
	Prompt  json.RawMessage `json:"prompt"`
	Labels  []string        `json:"labels"`
	Tags    []string        `json:"tags"`
}

// UnmarshalJSON decodes the API representation, resolving the polymorphic
// "prompt" field by shape.
func (p *Prompt) UnmarshalJSON(data []byte) error {
	var env promptEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	p.Name = env.Name
	p.Version = env.Version
	p.Type = env.Type
	p.Labels = env.Labels
	p.Tags = env.Tags
	raw := bytes.TrimSpace(env.Prompt)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &p.Messages); err != nil {
			return fmt.Errorf("langfuse: decode chat prompt: %w", err)
		}
		if p.Type == "" {
			p.Type = TypeChat
		}
		return nil
	}
	if err := json.Unmarshal(raw, &p.Text); err != nil {
		return fmt.Errorf("langfuse: decode text prompt: %w", err)
	}
	if p.Type == "" {
		p.Type = TypeText
	}
	return nil
}

// IsChat reports whether the prompt holds a chat template.
func (p *Prompt) IsChat() bool { return p.Type == TypeChat || p.Messages != nil }

// variablePattern matches {{var}} placeholders, with or without inner spaces.
var variablePattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// Compile substitutes {{var}} placeholders with the given variables.
// Text prompts render to a string; chat prompts render to []ChatMessage.
// Placeholders without a matching variable are left as-is.
func (p *Prompt) Compile(vars map[string]any) (any, error) {
	if p.IsChat() {
		out := make([]ChatMessage, len(p.Messages))
		for i, m := range p.Messages {
			out[i] = ChatMessage{Role: m.Role, Content: substitute(m.Content, vars)}
		}
		return out, nil
	}
	return substitute(p.Text, vars), nil
}

func substitute(template string, vars map[string]any) string {
	return variablePattern.ReplaceAllStringFunc(template, func(match string) string {
		name := variablePattern.FindStringSubmatch(match)[1]
		v, ok := vars[name]
		if !ok {
			return match
		}
		return fmt.Sprint(v)
	})
}
