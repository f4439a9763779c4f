package langfuse

import "errors"

// Sentinel errors for prompt operations. Callers should use errors.Is.
var (
	// ErrNoCredentials indicates the client was built without an API key pair.
	ErrNoCredentials = errors.New("langfuse: public and secret keys are not configured")
	// ErrRequestFailed indicates the request could not be sent or its response not read.
	ErrRequestFailed = errors.New("langfuse: request failed")
	// ErrHTTPStatus indicates an unexpected HTTP status (e.g. 500) from the API.
	ErrHTTPStatus = errors.New("langfuse: unexpected HTTP status")
	// ErrNotFound indicates no prompt exists for the given name/version/label.
	ErrNotFound = errors.New("langfuse: prompt not found")
)
