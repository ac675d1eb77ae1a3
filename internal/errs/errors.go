// Package errs defines the error taxonomy shared by every bongo component.
//
// All failures surface as *Error values carrying a Code. Callers match on
// the category with errors.Is against the exported sentinels, or with the
// IsXxx helpers, which see through wrapping:
//
//	if errs.IsNotFound(err) { ... }
//	if errors.Is(err, errs.ErrTooManyResults) { ... }
//
// Nothing in bongo retries on error. Retry policy belongs to the caller.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Code categorizes errors.
type Code string

const (
	// CodeValidation indicates a document does not satisfy its schema.
	CodeValidation Code = "VALIDATION"

	// CodeNotFound indicates a lookup by identity matched nothing.
	CodeNotFound Code = "NOT_FOUND"

	// CodeConsistency indicates an unexpected affected-row count.
	// Fatal: the (id, type) pair is unique, so the store is in a state bongo
	// did not put it in.
	CodeConsistency Code = "CONSISTENCY"

	// CodeTooManyResults indicates a single-result query matched several rows.
	CodeTooManyResults Code = "TOO_MANY_RESULTS"

	// CodeRegistration indicates a document type cannot be registered.
	CodeRegistration Code = "REGISTRATION"

	// CodeCompile indicates a malformed query.
	CodeCompile Code = "COMPILE"

	// CodeMigration indicates a revision failed to apply or revert.
	CodeMigration Code = "MIGRATION"
)

// Error is the structured error returned by bongo.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Type is the document type name involved, if any.
	Type string

	// ID is the document identifier involved, if any.
	ID string

	// Value is the offending value rendered as JSON, if any.
	Value string

	// Revision is the migration revision involved, if any.
	Revision int

	// Err is the underlying cause.
	Err error
}

// Sentinels for errors.Is matching. They carry only a Code.
var (
	ErrValidation     = &Error{Code: CodeValidation}
	ErrNotFound       = &Error{Code: CodeNotFound}
	ErrConsistency    = &Error{Code: CodeConsistency}
	ErrTooManyResults = &Error{Code: CodeTooManyResults}
	ErrRegistration   = &Error{Code: CodeRegistration}
	ErrCompile        = &Error{Code: CodeCompile}
	ErrMigration      = &Error{Code: CodeMigration}
)

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}

	var attrs []string
	if e.Type != "" {
		attrs = append(attrs, "type="+e.Type)
	}
	if e.ID != "" {
		attrs = append(attrs, "id="+e.ID)
	}
	if e.Revision != 0 {
		attrs = append(attrs, fmt.Sprintf("revision=%d", e.Revision))
	}
	if e.Value != "" {
		attrs = append(attrs, "value="+e.Value)
	}
	if len(attrs) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(attrs, ", "))
		b.WriteString(")")
	}

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel of the same category.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Code == e.Code
}

// CodeOf returns the Code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return CodeOf(err) == CodeValidation }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return CodeOf(err) == CodeNotFound }

// IsConsistency reports whether err is a consistency error.
func IsConsistency(err error) bool { return CodeOf(err) == CodeConsistency }

// IsTooManyResults reports whether err is a too-many-results error.
func IsTooManyResults(err error) bool { return CodeOf(err) == CodeTooManyResults }

// IsRegistration reports whether err is a registration error.
func IsRegistration(err error) bool { return CodeOf(err) == CodeRegistration }

// IsCompile reports whether err is a query compile error.
func IsCompile(err error) bool { return CodeOf(err) == CodeCompile }

// IsMigration reports whether err is a migration error.
func IsMigration(err error) bool { return CodeOf(err) == CodeMigration }

// Validation creates a validation error for a document of the given type.
func Validation(typeName, value string, cause error) *Error {
	return &Error{
		Code:    CodeValidation,
		Message: "document does not match schema",
		Type:    typeName,
		Value:   value,
		Err:     cause,
	}
}

// NotFound creates a not-found error for an identifier.
func NotFound(typeName, id string) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: "document not found",
		Type:    typeName,
		ID:      id,
	}
}

// Consistency creates a consistency error for an unexpected row count.
func Consistency(typeName, id string, op string, want, got int64) *Error {
	return &Error{
		Code:    CodeConsistency,
		Message: fmt.Sprintf("%s affected %d rows, expected %d", op, got, want),
		Type:    typeName,
		ID:      id,
	}
}

// TooManyResults creates an error for a single-result query matching several rows.
func TooManyResults(typeName string, got int) *Error {
	return &Error{
		Code:    CodeTooManyResults,
		Message: fmt.Sprintf("expected at most one document, found %d", got),
		Type:    typeName,
	}
}

// Registration creates a registration error.
func Registration(typeName, format string, args ...any) *Error {
	return &Error{
		Code:    CodeRegistration,
		Message: fmt.Sprintf(format, args...),
		Type:    typeName,
	}
}

// Compile creates a query compile error.
func Compile(format string, args ...any) *Error {
	return &Error{
		Code:    CodeCompile,
		Message: fmt.Sprintf(format, args...),
	}
}

// InType attaches a document type name to err when err is an *Error that
// names none. Anything else is returned unchanged.
func InType(err error, typeName string) error {
	e, ok := err.(*Error)
	if !ok || e.Type != "" {
		return err
	}
	named := *e
	named.Type = typeName
	return &named
}

// Migration creates a migration error for a revision.
func Migration(revision int, op string, cause error) *Error {
	return &Error{
		Code:     CodeMigration,
		Message:  op + " failed",
		Revision: revision,
		Err:      cause,
	}
}
