package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeNodeNotFound, "node %q does not exist", "acme")

	if err.Code != ErrCodeNodeNotFound {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeNodeNotFound)
	}

	if err.Message != `node "acme" does not exist` {
		t.Errorf("Message = %v, want %v", err.Message, `node "acme" does not exist`)
	}

	expected := `NODE_NOT_FOUND: node "acme" does not exist`
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrCodeStorage, cause, "save snapshot")

	if err.Code != ErrCodeStorage {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeStorage)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	validation := &ValidationError{}
	validation.Add("nodes[0].id", "required")

	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeOwnershipCycle, "test"),
			code:     ErrCodeOwnershipCycle,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeInvalidInput, "test"),
			code:     ErrCodeStorage,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeStorage, New(ErrCodeInvalidInput, "inner"), "outer"),
			code:     ErrCodeStorage,
			expected: true,
		},
		{
			name:     "validation error",
			err:      validation,
			code:     ErrCodeInvalidPayload,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeSnapshotNotFound, "test"),
			expected: ErrCodeSnapshotNotFound,
		},
		{
			name:     "validation error",
			err:      &ValidationError{Fields: []FieldError{{Path: "x", Message: "y"}}},
			expected: ErrCodeInvalidPayload,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	v := &ValidationError{}
	v.Add("edges[1].source", "required")

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidInput, "friendly message"),
			expected: "friendly message",
		},
		{
			name:     "plain error",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
		{
			name:     "validation error",
			err:      v,
			expected: "payload rejected: 1 invalid field\n  - edges[1].source: required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidPayload,
		ErrCodeInvalidFormat,
		ErrCodeInvalidID,
		ErrCodeDuplicateID,
		ErrCodeNotFound,
		ErrCodeNodeNotFound,
		ErrCodeEdgeNotFound,
		ErrCodeSnapshotNotFound,
		ErrCodeFileNotFound,
		ErrCodeOwnershipCycle,
		ErrCodeStorage,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
		if strings.TrimSpace(string(code)) == "" {
			t.Errorf("empty error code")
		}
	}
}
