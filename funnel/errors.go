/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package funnel

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// StatusClientClosedRequest is a special HTTP status code used by Nginx to show that the client
// closed the request before the server could send a response.
const StatusClientClosedRequest = 499

// Error codes.
const (
	ErrCodeConnectionDropped  = "connectionDropped"
	ErrCodeShuttingDown       = "shuttingDown"
	ErrCodeOverloaded         = "overloaded"
	ErrCodeTooManyRequests    = "tooManyRequests"
	ErrCodeMissingArgument    = "missingArgument"
	ErrCodeBatchSizeExceeded  = "batchSizeExceeded"
	ErrCodeRateLimiterFailure = "rateLimiterFailure"
	ErrCodeInternal           = "internalError"
	ErrCodePartialError       = "partialError"
)

// Error is an admission or execution error delivered through the request callback.
// Errors are compared by code, so errors.Is(err, ErrOverloaded) holds for every
// buffer-full rejection regardless of its message and context.
type Error struct {
	Status  int
	Code    string
	Message string
	Context map[string]interface{}

	cause error
}

// Sentinel errors. Use errors.Is to check an error against them.
var (
	ErrConnectionDropped = &Error{
		Status: StatusClientClosedRequest, Code: ErrCodeConnectionDropped, Message: "Client connection dropped."}
	ErrShuttingDown = &Error{
		Status: http.StatusServiceUnavailable, Code: ErrCodeShuttingDown, Message: "Server is shutting down."}
	ErrOverloaded = &Error{
		Status: http.StatusServiceUnavailable, Code: ErrCodeOverloaded, Message: "Request discarded: server overloaded."}
	ErrTooManyRequests = &Error{
		Status: http.StatusTooManyRequests, Code: ErrCodeTooManyRequests, Message: "Rate limit exceeded."}
	ErrMissingArgument = &Error{
		Status: http.StatusBadRequest, Code: ErrCodeMissingArgument, Message: "Missing argument."}
	ErrBatchSizeExceeded = &Error{
		Status: http.StatusRequestEntityTooLarge, Code: ErrCodeBatchSizeExceeded, Message: "Batch size limit exceeded."}
	ErrRateLimiterFailure = &Error{
		Status: http.StatusInternalServerError, Code: ErrCodeRateLimiterFailure, Message: "Rate limiter failure."}
	ErrInternal = &Error{
		Status: http.StatusInternalServerError, Code: ErrCodeInternal, Message: "Internal error."}
)

// NewError creates a new error with the status and code of the given sentinel and a custom message.
// An empty message keeps the sentinel's one.
func NewError(sentinel *Error, message string) *Error {
	if message == "" {
		message = sentinel.Message
	}
	return &Error{Status: sentinel.Status, Code: sentinel.Code, Message: message}
}

// WrapError creates a new error with the status and code of the given sentinel that wraps the cause.
func WrapError(sentinel *Error, cause error) *Error {
	e := NewError(sentinel, "")
	e.cause = cause
	return e
}

// Error returns a string representation of the error.
func (e *Error) Error() string {
	if e.cause != nil {
		return strings.TrimSuffix(e.Message, ".") + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether the target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// AddContext adds value to error context.
func (e *Error) AddContext(field string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[field] = value
	return e
}

func newMissingArgumentError(argument string) *Error {
	return NewError(ErrMissingArgument, fmt.Sprintf("Missing argument %q.", argument)).
		AddContext("argument", argument)
}

// ItemError is a failure of a single item of a batch operation.
type ItemError struct {
	ID  string
	Err error
}

// PartialError is the aggregate error of a batch operation where some items failed.
// It is a result, not a failure of the whole operation: successful items are reported alongside it.
type PartialError struct {
	Message string
	Errors  []ItemError
}

// Error returns a string representation of the partial error.
func (e *PartialError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, itemErr := range e.Errors {
		msgs = append(msgs, itemErr.ID+": "+itemErr.Err.Error())
	}
	return e.Message + " (" + strings.Join(msgs, "; ") + ")"
}

// Unwrap returns errors of the failed items.
func (e *PartialError) Unwrap() []error {
	errs := make([]error, 0, len(e.Errors))
	for _, itemErr := range e.Errors {
		errs = append(errs, itemErr.Err)
	}
	return errs
}

// StatusOf returns the status that corresponds to the error.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var partialErr *PartialError
	if errors.As(err, &partialErr) {
		return http.StatusPartialContent
	}
	var funnelErr *Error
	if errors.As(err, &funnelErr) {
		return funnelErr.Status
	}
	return http.StatusInternalServerError
}
