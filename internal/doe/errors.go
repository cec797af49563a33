package doe

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes generation and dispatch errors.
type ErrorCode string

const (
	// CodeMalformedInput indicates a missing or unparsable factor/seed source.
	// Fatal: aborts before any generation.
	CodeMalformedInput ErrorCode = "MALFORMED_INPUT"

	// CodeEmptySpace indicates an empty excursion or vignette set.
	// Fatal: the product would produce zero runs.
	CodeEmptySpace ErrorCode = "EMPTY_SPACE"

	// CodeWriteFailed indicates a single artifact could not be written.
	// Per-run: the run is skipped and the batch continues.
	CodeWriteFailed ErrorCode = "WRITE_FAILED"

	// CodeDispatchFailed indicates a single simulator invocation failed.
	// Per-run: the dispatcher continues with the next run.
	CodeDispatchFailed ErrorCode = "DISPATCH_FAILED"

	// CodePermissionDenied indicates the output tree is not writable.
	CodePermissionDenied ErrorCode = "PERMISSION_DENIED"
)

// Error is the structured error type for doerun.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// RunNumber identifies the affected run (0 for batch-level errors).
	RunNumber int

	// Path is the file or directory involved, if any.
	Path string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.RunNumber > 0 {
		msg += fmt.Sprintf(" (run=%d)", e.RunNumber)
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fatal reports whether the error must abort the batch.
func (e *Error) Fatal() bool {
	switch e.Code {
	case CodeWriteFailed, CodeDispatchFailed:
		return false
	default:
		return true
	}
}

// CodeOf returns the error code of err, or "" if err is not an *Error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsMalformedInput returns true if err is a MALFORMED_INPUT error.
func IsMalformedInput(err error) bool { return CodeOf(err) == CodeMalformedInput }

// IsEmptySpace returns true if err is an EMPTY_SPACE error.
func IsEmptySpace(err error) bool { return CodeOf(err) == CodeEmptySpace }

// IsWriteFailed returns true if err is a WRITE_FAILED error.
func IsWriteFailed(err error) bool { return CodeOf(err) == CodeWriteFailed }

// IsDispatchFailed returns true if err is a DISPATCH_FAILED error.
func IsDispatchFailed(err error) bool { return CodeOf(err) == CodeDispatchFailed }

// IsPermissionDenied returns true if err is a PERMISSION_DENIED error.
func IsPermissionDenied(err error) bool { return CodeOf(err) == CodePermissionDenied }

// NewMalformedInputError creates an error for a bad factor or seed source.
func NewMalformedInputError(path, message string, err error) *Error {
	return &Error{Code: CodeMalformedInput, Message: message, Path: path, Err: err}
}

// NewEmptySpaceError creates an error for an empty excursion or vignette set.
func NewEmptySpaceError(excursions, vignettes int) *Error {
	return &Error{
		Code:    CodeEmptySpace,
		Message: fmt.Sprintf("experiment space is empty (%d excursion(s) × %d vignette(s))", excursions, vignettes),
	}
}

// NewWriteError creates a per-run artifact write error.
func NewWriteError(runNumber int, path string, err error) *Error {
	return &Error{Code: CodeWriteFailed, Message: "artifact write failed", RunNumber: runNumber, Path: path, Err: err}
}

// NewDispatchError creates a per-run dispatch error.
func NewDispatchError(runNumber int, path string, err error) *Error {
	return &Error{Code: CodeDispatchFailed, Message: "simulator dispatch failed", RunNumber: runNumber, Path: path, Err: err}
}

// NewPermissionError creates an error for an unwritable output tree.
func NewPermissionError(path string, err error) *Error {
	return &Error{Code: CodePermissionDenied, Message: "output directory is not writable", Path: path, Err: err}
}
