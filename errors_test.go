package centralprompt

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelErrors_Is(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"unsupported provider", ErrUnsupportedProvider, ErrUnsupportedProvider, true},
		{"invalid name", ErrInvalidName, ErrInvalidName, true},
		{"invalid template", ErrInvalidTemplate, ErrInvalidTemplate, true},
		{"invalid path", ErrInvalidPath, ErrInvalidPath, true},
		{"version label conflict", ErrVersionLabelConflict, ErrVersionLabelConflict, true},
		{"create failed", ErrCreateFailed, ErrCreateFailed, true},
		{"wrapped fetch", fmt.Errorf("wrap: %w", ErrFetchFailed), ErrFetchFailed, true},
		{"double wrapped compile", fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", ErrCompileFailed)), ErrCompileFailed, true},
		{"wrong target", ErrCreateFailed, ErrFetchFailed, false},
		{"validation is not operation", ErrInvalidName, ErrCreateFailed, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestSentinelErrors_Prefix(t *testing.T) {
	t.Parallel()
	for _, err := range []error{
		ErrUnsupportedProvider, ErrInvalidExperiment, ErrBackendUnavailable,
		ErrInvalidName, ErrInvalidTemplate, ErrInvalidLabels, ErrInvalidTags,
		ErrInvalidPromptType, ErrInvalidVersion, ErrInvalidPath,
		ErrVersionLabelConflict, ErrCreateFailed, ErrFetchFailed, ErrCompileFailed,
	} {
		assert.Contains(t, err.Error(), "centralprompt:")
	}
}
