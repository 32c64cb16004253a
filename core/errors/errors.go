// Package errors provides standardized error types and helpers for the versemark codebase.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrStructuralDefect indicates a token that does not fit the marker vocabulary
	ErrStructuralDefect = errors.New("structural defect")
	// ErrAlignmentNotFound indicates a quote could not be resolved against an alignment tree
	ErrAlignmentNotFound = errors.New("alignment not found")
	// ErrHighlightNotFound indicates matched words could not be located in rendered HTML
	ErrHighlightNotFound = errors.New("highlight not found")
)

// StructuralDefect describes a token the renderer could not apply as given.
// The renderer drops the offending value and keeps going.
type StructuralDefect struct {
	Marker  string // Marker kind of the offending token
	Value   string // Value that was dropped, if any
	Chapter string // Chapter at the time of the defect (zero-padded)
	Verse   string // Verse at the time of the defect (zero-padded)
	Reason  string // What was wrong
}

func (e *StructuralDefect) Error() string {
	loc := ""
	if e.Chapter != "" {
		loc = fmt.Sprintf(" at %s:%s", e.Chapter, e.Verse)
	}
	if e.Value != "" {
		return fmt.Sprintf("structural defect%s: \\%s %s (dropped %q)", loc, e.Marker, e.Reason, e.Value)
	}
	return fmt.Sprintf("structural defect%s: \\%s %s", loc, e.Marker, e.Reason)
}

func (e *StructuralDefect) Unwrap() error {
	return ErrStructuralDefect
}

// AlignmentNotFoundError reports a quote that has no match in a verse's alignment.
type AlignmentNotFoundError struct {
	Chapter    int
	Verse      int
	Quote      string
	Occurrence int
	Bible      string // Identifier of the aligned translation, if known
}

func (e *AlignmentNotFoundError) Error() string {
	if e.Bible != "" {
		return fmt.Sprintf("quote %q (occurrence %d) not found in %s %d:%d alignment", e.Quote, e.Occurrence, e.Bible, e.Chapter, e.Verse)
	}
	return fmt.Sprintf("quote %q (occurrence %d) not found in %d:%d alignment", e.Quote, e.Occurrence, e.Chapter, e.Verse)
}

func (e *AlignmentNotFoundError) Unwrap() error {
	return ErrAlignmentNotFound
}

// HighlightNotFoundError reports an aligned word that could not be found in rendered HTML.
type HighlightNotFoundError struct {
	Group      int    // 1-based group index
	Word       string // Word text that was missing
	Occurrence int    // Occurrence of the word within the verse
}

func (e *HighlightNotFoundError) Error() string {
	return fmt.Sprintf("phrase %d: word %q (occurrence %d) not found in verse HTML", e.Group, e.Word, e.Occurrence)
}

func (e *HighlightNotFoundError) Unwrap() error {
	return ErrHighlightNotFound
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Value   string // Value that failed validation (may be redacted)
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// ParseError represents a parsing or deserialization error
type ParseError struct {
	Format  string // Format being parsed (e.g., "JSON", "quote", "reference")
	Path    string // File path, if applicable
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// NewStructuralDefect creates a StructuralDefect
func NewStructuralDefect(marker, value, reason string) *StructuralDefect {
	return &StructuralDefect{
		Marker: marker,
		Value:  value,
		Reason: reason,
	}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewParse creates a ParseError
func NewParse(format, path, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Path:    path,
		Message: message,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
