package centralprompt

import (
	"fmt"
	"strings"
)

// Template is a prompt template: either plain text or an ordered list of
// role/content messages. It is a sealed interface; TextTemplate and
// ChatTemplate are the only implementations.
type Template interface {
	isTemplate()
}

// TextTemplate is a plain text prompt template.
type TextTemplate string

func (TextTemplate) isTemplate() {}

// ChatTemplate is an ordered list of role/content messages.
type ChatTemplate []Message

func (ChatTemplate) isTemplate() {}

// Message is one role/content pair of a chat template.
type Message struct {
	Role    string
	Content string
}

// PromptType tags a template as text or chat.
type PromptType string

// Prompt types accepted by SetPrompt.
const (
	PromptTypeText PromptType = "text"
	PromptTypeChat PromptType = "chat"
)

// IsChatTemplate reports whether t is a chat template.
func IsChatTemplate(t Template) bool {
	_, ok := t.(ChatTemplate)
	return ok
}

// ValidateTemplate checks that t is a well-formed template. Text templates
// are always valid; chat templates require a non-empty role and content on
// every message. A nil template is invalid.
func ValidateTemplate(t Template) error {
	switch tpl := t.(type) {
	case TextTemplate:
		return nil
	case ChatTemplate:
		for i, m := range tpl {
			if m.Role == "" || m.Content == "" {
				return fmt.Errorf("%w: message %d is missing a role or content", ErrInvalidTemplate, i)
			}
		}
		return nil
	}
	return ErrInvalidTemplate
}

func isNonBlank(s string) bool {
	return strings.TrimSpace(s) != ""
}

func validateName(name string) error {
	if !isNonBlank(name) {
		return ErrInvalidName
	}
	return nil
}

func validateLabels(labels []string) error {
	for _, l := range labels {
		if l == "" {
			return ErrInvalidLabels
		}
	}
	return nil
}

func validateTags(tags map[string]string) error {
	for k := range tags {
		if k == "" {
			return ErrInvalidTags
		}
	}
	return nil
}
