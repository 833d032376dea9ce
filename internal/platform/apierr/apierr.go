package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a failure that maps onto an HTTP response. Message is what the
// client sees; Err is the cause and only reaches the logs when Message is set.
type Error struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	case e.Code != "":
		return e.Code
	}
	return fmt.Sprintf("api error (%d)", e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

// Public is the client-facing message.
func (e *Error) Public() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if txt := http.StatusText(e.Status); txt != "" {
		return txt
	}
	return "unknown error"
}

// New exposes err's text to the client.
func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// Wrap shows msg to the client and keeps cause for logs and errors.Is.
func Wrap(status int, code, msg string, cause error) *Error {
	return &Error{Status: status, Code: code, Message: msg, Err: cause}
}

func BadRequest(code, msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: code, Message: msg}
}

func NotFound(code, msg string) *Error {
	return &Error{Status: http.StatusNotFound, Code: code, Message: msg}
}

func Conflict(code, msg string, cause error) *Error {
	return Wrap(http.StatusConflict, code, msg, cause)
}

// Upstream reports a dependency failure (vector store, completion API).
func Upstream(code, msg string, cause error) *Error {
	return Wrap(http.StatusBadGateway, code, msg, cause)
}

func Unavailable(code, msg string, cause error) *Error {
	return Wrap(http.StatusServiceUnavailable, code, msg, cause)
}

// From returns the *Error inside err, if any.
func From(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// StatusOf is 500 for anything that is not an *Error.
func StatusOf(err error) int {
	if ae, ok := From(err); ok && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}
