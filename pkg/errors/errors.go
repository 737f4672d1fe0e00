// Package errors defines molgrid's coded errors.
//
// Every failure that crosses a package boundary carries a [Code]. Failures
// tied to one structure of a batch are [StructureError]s, which name the
// structure in their message:
//
//	err := errors.Structure(errors.ErrCodeRender, title, cause, "coordinate generation unsuccessful").At(3)
//	errors.UserMessage(err) // "structure 3 (caffeine): coordinate generation unsuccessful"
//
// [Is] and [GetCode] look at the outermost coded error in a chain, so a
// wrapper's code wins over its cause's.
package errors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error category. The HTTP API and the CLI exit
// status are derived from it.
type Code string

const (
	ErrCodeInvalidInput  Code = "INVALID_INPUT"  // a record is not a drawable structure
	ErrCodeInvalidOption Code = "INVALID_OPTION" // bad write option or config value
	ErrCodeInvalidFormat Code = "INVALID_FORMAT" // unknown image or config format
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	ErrCodeConfiguration Code = "CONFIGURATION" // a required collaborator is missing
	ErrCodeRender        Code = "RENDER"        // one structure could not be drawn

	ErrCodeNotFound    Code = "NOT_FOUND"
	ErrCodeUnsupported Code = "UNSUPPORTED"
	ErrCodeInternal    Code = "INTERNAL_ERROR"
)

// coded is implemented by every error type of this package.
type coded interface {
	error
	code() Code
	message() string
}

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// New creates an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *Error) Error() string   { return errorString(e.Code, e.Message, e.Cause) }
func (e *Error) Unwrap() error   { return e.Cause }
func (e *Error) code() Code      { return e.Code }
func (e *Error) message() string { return e.Message }

// StructureError is a failure tied to one structure of a batch.
type StructureError struct {
	Code    Code
	Title   string // display name, may be empty
	Index   int    // 1-based cell index, 0 if unknown
	Message string
	Cause   error
}

// Structure creates a StructureError for the structure named title.
func Structure(code Code, title string, cause error, format string, args ...any) *StructureError {
	return &StructureError{Code: code, Title: title, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// At records the structure's position in its batch and returns e.
func (e *StructureError) At(index int) *StructureError {
	e.Index = index
	return e
}

func (e *StructureError) Error() string { return errorString(e.Code, e.message(), e.Cause) }
func (e *StructureError) Unwrap() error { return e.Cause }
func (e *StructureError) code() Code    { return e.Code }

func (e *StructureError) message() string {
	switch {
	case e.Title != "" && e.Index > 0:
		return fmt.Sprintf("structure %d (%s): %s", e.Index, e.Title, e.Message)
	case e.Title != "":
		return fmt.Sprintf("structure %s: %s", e.Title, e.Message)
	case e.Index > 0:
		return fmt.Sprintf("structure %d: %s", e.Index, e.Message)
	}
	return e.Message
}

func errorString(code Code, msg string, cause error) string {
	if cause == nil {
		return fmt.Sprintf("%s: %s", code, msg)
	}
	return fmt.Sprintf("%s: %s: %v", code, msg, cause)
}

// outermost returns the first coded error in err's chain.
func outermost(err error) (coded, bool) {
	var c coded
	if err == nil || !errors.As(err, &c) {
		return nil, false
	}
	return c, true
}

// GetCode returns the code of the outermost coded error in err's chain, or
// "" if there is none.
func GetCode(err error) Code {
	if c, ok := outermost(err); ok {
		return c.code()
	}
	return ""
}

// Is reports whether err's outermost code is code.
func Is(err error, code Code) bool {
	c := GetCode(err)
	return c != "" && c == code
}

// UserMessage returns the outermost message without its code prefix, or
// err.Error() for uncoded errors.
func UserMessage(err error) string {
	if c, ok := outermost(err); ok {
		return c.message()
	}
	return err.Error()
}
