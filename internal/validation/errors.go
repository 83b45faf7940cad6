package validation

import (
	"errors"
	"fmt"
)

// Code identifies a client-caused failure in a machine-readable way.
type Code string

const (
	CodeInvalidType        Code = "INVALID_TYPE"
	CodeEmptyFile          Code = "EMPTY_FILE"
	CodeFileTooLarge       Code = "FILE_TOO_LARGE"
	CodeNotAValidPDF       Code = "NOT_A_VALID_PDF"
	CodeCorruptImage       Code = "CORRUPT_OR_UNREADABLE_IMAGE"
	CodeUnsupportedFormat  Code = "UNSUPPORTED_FORMAT"
	CodeNoDocuments        Code = "NO_DOCUMENTS_PROVIDED"
	CodeTooManyFiles       Code = "TOO_MANY_FILES"
	CodeInvalidPayload     Code = "INVALID_PAYLOAD"
	CodeMissingField       Code = "MISSING_FIELD"
	CodeUndecodableContent Code = "UNDECODABLE_CONTENT"
)

// Error is returned for any input that violates an upload rule.
// Message is safe to show to the client.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf builds an *Error with a formatted client message.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error that keeps cause reachable through errors.Unwrap.
func Wrap(code Code, cause error, message string) *Error {
	return &Error{Code: code, Message: message, Err: cause}
}

// AsError extracts the *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// HasCode reports whether err is a validation error carrying code.
func HasCode(err error, code Code) bool {
	ve, ok := AsError(err)
	return ok && ve.Code == code
}
