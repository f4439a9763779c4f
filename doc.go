// Package centralprompt provides one facade over two prompt-registry
// backends: an MLflow-style registry that addresses prompts by
// "prompts:/<name>/<version>" URIs, and a Langfuse-style API that addresses
// them by name plus an optional version or label. It normalizes both into
// three operations: SetPrompt registers a template, GetPrompt returns a
// uniform PromptHandle, and PromptHandle.Compile substitutes variables into
// the retrieved template.
package centralprompt
