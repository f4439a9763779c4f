package mlflow

import "errors"

// Sentinel errors for registry operations. Callers should use errors.Is.
var (
	// ErrNoTrackingURI indicates the client was built without a tracking server URI.
	ErrNoTrackingURI = errors.New("mlflow: tracking URI is not configured")
	// ErrRequestFailed indicates the request could not be sent or its response not read.
	ErrRequestFailed = errors.New("mlflow: request failed")
	// ErrHTTPStatus indicates an unexpected HTTP status (e.g. 500) from the tracking server.
	ErrHTTPStatus = errors.New("mlflow: unexpected HTTP status")
	// ErrNotFound indicates no prompt version exists for the given registry URI.
	ErrNotFound = errors.New("mlflow: prompt not found")
	// ErrMissingVariable indicates Format was called without a variable the template references.
	ErrMissingVariable = errors.New("mlflow: required template variable not provided")
)
