package errors

import (
	"fmt"
	"strings"
	"unicode"
)

// FieldError describes a single violated field in a rejected payload.
type FieldError struct {
	Path    string `json:"path"`    // Field path, e.g. "nodes[2].label"
	Message string `json:"message"` // What is wrong with the field
}

// String formats the field error as "path: message".
func (f FieldError) String() string {
	if f.Path == "" {
		return f.Message
	}
	return f.Path + ": " + f.Message
}

// ValidationError collects every violated field of a payload rather than
// stopping at the first one. The zero value is ready to use.
type ValidationError struct {
	Fields []FieldError
}

// Add records a violation at path.
func (e *ValidationError) Add(path, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Path: path, Message: fmt.Sprintf(format, args...)})
}

// Len returns the number of recorded violations.
func (e *ValidationError) Len() int { return len(e.Fields) }

// Err returns e if any violation was recorded, or nil otherwise.
// Use it as the return value of validation functions.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Code returns ErrCodeInvalidPayload.
func (e *ValidationError) Code() Code { return ErrCodeInvalidPayload }

// Error implements the error interface.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return fmt.Sprintf("%s: %s: %s", ErrCodeInvalidPayload, e.headline(), strings.Join(parts, "; "))
}

// Summary returns a human-readable, multi-line report naming every invalid field.
func (e *ValidationError) Summary() string {
	var b strings.Builder
	b.WriteString(e.headline())
	for _, f := range e.Fields {
		b.WriteString("\n  - ")
		b.WriteString(f.String())
	}
	return b.String()
}

func (e *ValidationError) headline() string {
	if len(e.Fields) == 1 {
		return "payload rejected: 1 invalid field"
	}
	return fmt.Sprintf("payload rejected: %d invalid fields", len(e.Fields))
}

// MaxIDLength bounds node, edge and snapshot identifiers.
const MaxIDLength = 256

// ValidateID validates an entity or edge identifier.
//
// The rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters
//   - Maximum length of 256 characters
func ValidateID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "identifier cannot be empty")
	}
	if len(id) > MaxIDLength {
		return New(ErrCodeInvalidID, "identifier too long (max %d characters)", MaxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidID, "identifier contains invalid control characters")
		}
	}
	return nil
}

// ValidateSnapshotID validates a snapshot identifier for use as a storage key
// or file name. On top of [ValidateID] it rejects path separators and
// traversal sequences.
func ValidateSnapshotID(id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	for _, pattern := range []string{"..", "/", "\\", "\x00"} {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidID, "snapshot id contains invalid characters: %q", pattern)
		}
	}
	return nil
}
