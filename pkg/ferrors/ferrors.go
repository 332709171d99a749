// Package ferrors defines the stable error taxonomy every fallible core
// operation surfaces, per the error handling design.
package ferrors

import (
	"errors"
	"fmt"
)

// Kind is one of the stable error categories the CLI layer renders.
type Kind string

const (
	NotFound          Kind = "not_found"
	AlreadyExists     Kind = "already_exists"
	NameTaken         Kind = "name_taken"
	InvalidTransition Kind = "invalid_transition"
	MissingFields     Kind = "missing_fields"
	Blocked           Kind = "blocked"
	SelfDependency    Kind = "self_dependency"
	CycleDetected     Kind = "cycle_detected"
	CodebaseHasNoPath Kind = "codebase_has_no_path"
	MergeConflict     Kind = "merge_conflict"
	BudgetExceeded    Kind = "budget_exceeded"
	NotInWorkspace    Kind = "not_in_workspace"
	ToolFailure       Kind = "tool_failure"
	Timeout           Kind = "timeout"
	StorageError      Kind = "storage_error"
)

// Error pairs a stable Kind with a free-form detail and optional cause.
type Error struct {
	Kind   Kind
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Detail
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether err (or something it wraps) has the given Kind.
func Is(err error, kind Kind) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind == kind
	}
	return false
}

// KindOf extracts the Kind of err, or "" if err isn't a *Error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

func Wrap(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Detail: cause.Error(), Cause: cause}
}

func Wrapf(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...), Cause: cause}
}

// Helper constructors for the most common kinds.

func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: NotFound, Detail: fmt.Sprintf(format, args...)}
}

func InvalidTransitionf(format string, args ...any) *Error {
	return &Error{Kind: InvalidTransition, Detail: fmt.Sprintf(format, args...)}
}

func MissingFieldsf(names ...string) *Error {
	detail := ""
	for i, n := range names {
		if i > 0 {
			detail += ","
		}
		detail += n
	}
	return &Error{Kind: MissingFields, Detail: detail}
}
