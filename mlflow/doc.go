// Package mlflow is a minimal client for the prompt registry of an MLflow-style
// tracking server. Prompts are addressed by registry URIs of the form
// "prompts:/<name>/<version>". Use New (or NewFromEnv, which reads
// MLFLOW_TRACKING_URI and MLFLOW_EXPERIMENT_NAME) to create a Client;
// RegisterPrompt creates a new prompt version and LoadPrompt fetches one.
package mlflow
