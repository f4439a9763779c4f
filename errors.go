package centralprompt

import "errors"

// Sentinel errors for facade operations.
// All use prefix "centralprompt:" for identification. Callers should use errors.Is.
// Backend failures are wrapped under ErrCreateFailed, ErrFetchFailed, or
// ErrCompileFailed with the original error in the chain.
var (
	// Configuration errors, raised at construction.
	ErrUnsupportedProvider = errors.New(`centralprompt: unsupported provider (use "mlflow" or "langfuse")`)
	ErrInvalidExperiment   = errors.New("centralprompt: experiment must be a non-empty string")
	ErrBackendUnavailable  = errors.New("centralprompt: backend is not available")

	// Validation errors, raised before any backend call.
	ErrInvalidName          = errors.New("centralprompt: name must be a non-empty string")
	ErrInvalidTemplate      = errors.New("centralprompt: template must be text or a list of role/content messages")
	ErrInvalidLabels        = errors.New("centralprompt: labels must be a list of non-empty strings")
	ErrInvalidTags          = errors.New("centralprompt: tag keys must be non-empty strings")
	ErrInvalidPromptType    = errors.New(`centralprompt: prompt type must be "text" or "chat"`)
	ErrInvalidVersion       = errors.New("centralprompt: version must be a positive integer")
	ErrInvalidPath          = errors.New(`centralprompt: path must be of the form "prompts:/<name>/<version>"`)
	ErrVersionLabelConflict = errors.New("centralprompt: provide either a version or a label, not both")

	// Backend operation errors, raised after a backend call was attempted.
	ErrCreateFailed  = errors.New("centralprompt: prompt creation failed")
	ErrFetchFailed   = errors.New("centralprompt: prompt fetch failed")
	ErrCompileFailed = errors.New("centralprompt: prompt compilation failed")
)
