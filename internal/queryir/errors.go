package queryir

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes query errors.
type ErrorCode string

const (
	// ErrCodeSchema indicates a reference the entity model cannot resolve:
	// unknown relation, disallowed one-to-many include, unknown template tag
	// argument or parameter.
	ErrCodeSchema ErrorCode = "SCHEMA"

	// ErrCodeInvalidQuery indicates a malformed query construction, such as
	// a wrong number of arguments to Where or a negative limit.
	ErrCodeInvalidQuery ErrorCode = "INVALID_QUERY"

	// ErrCodeUnsupportedOperator indicates an operator no engine understands.
	ErrCodeUnsupportedOperator ErrorCode = "UNSUPPORTED_OPERATOR"

	// ErrCodeUnsupportedValue indicates a value the engine cannot evaluate
	// or encode (for example a sub-select given to the collection engine).
	ErrCodeUnsupportedValue ErrorCode = "UNSUPPORTED_VALUE"
)

// Error is the error type returned by query construction and compilation.
//
// All failures are local to one query and reported synchronously. Use the
// Is* helpers to classify wrapped errors.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op names the operation that failed (e.g. "where", "resolve relations").
	Op string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Op, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Errorf creates an Error with a formatted message.
func Errorf(code ErrorCode, op, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Code
	}
	return ""
}

// IsSchemaError returns true if err is a schema error.
// Uses errors.As to handle wrapped errors.
func IsSchemaError(err error) bool {
	return CodeOf(err) == ErrCodeSchema
}

// IsInvalidQuery returns true if err reports a malformed query.
func IsInvalidQuery(err error) bool {
	return CodeOf(err) == ErrCodeInvalidQuery
}

// IsUnsupportedOperator returns true if err reports an unknown operator.
func IsUnsupportedOperator(err error) bool {
	return CodeOf(err) == ErrCodeUnsupportedOperator
}

// IsUnsupportedValue returns true if err reports a value that cannot be
// evaluated or encoded.
func IsUnsupportedValue(err error) bool {
	return CodeOf(err) == ErrCodeUnsupportedValue
}
