// Package langfuse is a minimal client for the prompt management surface of a
// Langfuse-style API. Prompts are addressed by name plus an optional version
// or label. Use New (or NewFromEnv, which reads LANGFUSE_HOST,
// LANGFUSE_PUBLIC_KEY, and LANGFUSE_SECRET_KEY) to create a Client;
// CreatePrompt registers a new prompt version and GetPrompt fetches one.
package langfuse
