package usecase

import "fmt"

type ErrorCode string

const (
	ErrorInvalidInput ErrorCode = "INVALID_INPUT"
	ErrorUpstream     ErrorCode = "UPSTREAM_ERROR"
	ErrorInternal     ErrorCode = "INTERNAL_ERROR"
)

// InvalidJSONMessage is returned to callers whose request body is not a JSON object.
const InvalidJSONMessage = "Invalid JSON format in request body."

type Error struct {
	Code    ErrorCode
	Reason  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// newError builds an Error whose client-facing message is the underlying
// failure description, or the reason when there is none.
func newError(code ErrorCode, reason string, err error) *Error {
	msg := reason
	if err != nil {
		msg = err.Error()
	}
	return &Error{Code: code, Reason: reason, Message: msg, Err: err}
}
