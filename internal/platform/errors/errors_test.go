package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "error with cause",
			err: Wrap(KindStorage, "kv.set", "failed to persist key",
				errors.New("disk full")),
			contains: []string{"[storage:kv.set]", "failed to persist key", "disk full"},
		},
		{
			name:     "error without cause",
			err:      New(KindContent, "import", "invalid JSON"),
			contains: []string{"[content:import]", "invalid JSON"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()
			for _, substr := range tt.contains {
				if !strings.Contains(errStr, substr) {
					t.Errorf("error string %q does not contain %q", errStr, substr)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	wrappedErr := Wrap(KindConfig, "load", "wrapped", originalErr)

	if !errors.Is(wrappedErr, originalErr) {
		t.Error("Unwrap should return the original error")
	}
}

func TestIsKind(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		kind     Kind
		expected bool
	}{
		{
			name:     "direct error kind match",
			err:      New(KindAuth, "authenticate", "message"),
			kind:     KindAuth,
			expected: true,
		},
		{
			name:     "wrapped error kind match",
			err:      Wrap(KindStorage, "save", "message", errors.New("cause")),
			kind:     KindStorage,
			expected: true,
		},
		{
			name:     "error kind mismatch",
			err:      New(KindContent, "validate", "message"),
			kind:     KindStorage,
			expected: false,
		},
		{
			name:     "non-typed error",
			err:      errors.New("plain error"),
			kind:     KindContent,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsKind(tt.err, tt.kind)
			if result != tt.expected {
				t.Errorf("IsKind() = %v, expected %v", result, tt.expected)
			}
		})
	}
}
