package taperr

import (
	"errors"
	"fmt"
)

// Stable error codes surfaced to SDK callers.
const (
	CodeUndefined         = 80000
	CodeInvalidLoginState = 80001
	CodeLoginCancel       = 80002
)

// Error is the typed failure every interactive flow resolves with. It is
// returned, never panicked, and carries the code the tracking events use.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"error_description"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("taplogin error %d: %s", e.Code, e.Message)
}

// Is matches errors by code so sentinel comparisons with errors.Is work.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// New creates an error with an explicit code.
func New(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Undefined is the catch-all failure for faults the flow cannot classify.
func Undefined() *Error {
	return &Error{Code: CodeUndefined, Message: "unknown error"}
}

// InvalidLoginState reports a login attempted while another one is pending.
func InvalidLoginState() *Error {
	return &Error{Code: CodeInvalidLoginState, Message: "currently logging in"}
}

// LoginCancel reports that the user dismissed the presenter.
func LoginCancel() *Error {
	return &Error{Code: CodeLoginCancel, Message: "login cancelled"}
}

// Code extracts the error code, or CodeUndefined when err carries none.
func Code(err error) int {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Code
	}
	return CodeUndefined
}
