package types

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code. It is returned to HTTP clients in the
// "code" field of error responses.
type Code string

const (
	// CodeInternal marks dependency faults and any error without a code.
	CodeInternal Code = "INTERNAL"

	// CodeValidation marks missing or invalid input.
	CodeValidation Code = "VALIDATION_FAILED"

	// CodeNotFound marks an unknown event or route.
	CodeNotFound Code = "NOT_FOUND"

	// CodeDuplicateRSVP marks a second RSVP for the same event and email.
	CodeDuplicateRSVP Code = "DUPLICATE_RSVP"

	// CodePayloadTooLarge marks a request body over the size limit.
	CodePayloadTooLarge Code = "PAYLOAD_TOO_LARGE"
)

// ErrDuplicateRSVP is returned (wrapped) by an AttendanceStore when the
// respondent record for the event and email already exists.
var ErrDuplicateRSVP = &Error{
	Code:    CodeDuplicateRSVP,
	Message: "You have already RSVP'd for this event with this email!",
}

// Error is a coded domain error. Message is safe to show to clients; Err is
// the underlying cause and is only ever logged.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a coded error with a client-facing message.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Validationf creates a [CodeValidation] error with a formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// GetCode extracts the code from err. Errors that carry no code are
// reported as [CodeInternal].
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return CodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}

// Message returns the client-facing message of a coded error, or fallback if
// err carries no code.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}

	return fallback
}
