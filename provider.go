package centralprompt

import (
	"fmt"
	"strings"
)

// Provider identifies which backend a CentralPrompt talks to.
type Provider string

// Canonical backend providers.
const (
	ProviderMLflow   Provider = "mlflow"
	ProviderLangfuse Provider = "langfuse"
)

// ParseProvider maps a free-form provider name to its canonical Provider.
// Matching is case-insensitive and ignores surrounding whitespace; the
// hyphenated spellings "ml-flow" and "lang-fuse" are accepted aliases.
// Anything else returns ErrUnsupportedProvider.
func ParseProvider(s string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mlflow", "ml-flow":
		return ProviderMLflow, nil
	case "langfuse", "lang-fuse":
		return ProviderLangfuse, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, s)
}
