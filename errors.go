package sqlite

import "fmt"

// ErrorType represents the different categories of binding errors.
type ErrorType int

const (
	// ErrorTypeUnknown represents an unknown error
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeOpen represents a failure to open or create a database
	ErrorTypeOpen
	// ErrorTypeExec represents a direct execution failure
	ErrorTypeExec
	// ErrorTypePrepare represents a statement compilation failure
	ErrorTypePrepare
	// ErrorTypeEmptyQuery indicates the input contained no SQL statement
	ErrorTypeEmptyQuery
	// ErrorTypeBind represents a parameter binding failure
	ErrorTypeBind
	// ErrorTypeStep represents an engine status from step that is not one
	// of row/done/busy
	ErrorTypeStep
	// ErrorTypeBusy indicates the engine could not acquire a required lock;
	// the operation may be retried by the caller
	ErrorTypeBusy
	// ErrorTypeDecode represents a row-to-struct decoding failure
	ErrorTypeDecode
	// ErrorTypeMisuse indicates an operation on a closed or finalized handle
	ErrorTypeMisuse
)

// Error represents a structured error with type information and, when the
// failure originated in the engine, the engine's result code and diagnostic
// message.
type Error struct {
	Type    ErrorType
	Code    int // engine result code, 0 when the error is binding-local
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("sqlite: %s (code %d)", e.Message, e.Code)
	}
	return "sqlite: " + e.Message
}

// IsType checks if the error is of a specific type.
func (e *Error) IsType(errorType ErrorType) bool {
	return e.Type == errorType
}

// NewError creates a new Error with the specified type and message.
func NewError(errorType ErrorType, message string) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
	}
}

func isType(err error, errorType ErrorType) bool {
	if sErr, ok := err.(*Error); ok {
		return sErr.IsType(errorType)
	}
	return false
}

// IsBusy checks if an error reports lock contention and may be retried.
func IsBusy(err error) bool {
	return isType(err, ErrorTypeBusy)
}

// IsEmptyQuery checks if an error reports that no statement was found in the
// input.
func IsEmptyQuery(err error) bool {
	return isType(err, ErrorTypeEmptyQuery)
}

// IsPrepareError checks if an error is a statement compilation failure.
func IsPrepareError(err error) bool {
	return isType(err, ErrorTypePrepare)
}

// IsBindError checks if an error is a parameter binding failure.
func IsBindError(err error) bool {
	return isType(err, ErrorTypeBind)
}

// IsDecodeError checks if an error is a row decoding failure.
func IsDecodeError(err error) bool {
	return isType(err, ErrorTypeDecode)
}

// IsMisuse checks if an error reports use of a closed or finalized handle.
func IsMisuse(err error) bool {
	return isType(err, ErrorTypeMisuse)
}
