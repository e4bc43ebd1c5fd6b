package main

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is returned by stores when no row matches an id lookup.
var ErrNotFound = errors.New("not found")

// RequestError is a caller-correctable failure with a fixed HTTP status.
// Anything else that reaches a handler is treated as a server fault.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string { return e.Message }

func errValidation(format string, args ...interface{}) error {
	return &RequestError{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

func errUnauthorized(format string, args ...interface{}) error {
	return &RequestError{Status: http.StatusUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func errForbidden(format string, args ...interface{}) error {
	return &RequestError{Status: http.StatusForbidden, Message: fmt.Sprintf(format, args...)}
}

func errNotFound(format string, args ...interface{}) error {
	return &RequestError{Status: http.StatusNotFound, Message: fmt.Sprintf(format, args...)}
}

func errConflict(format string, args ...interface{}) error {
	return &RequestError{Status: http.StatusConflict, Message: fmt.Sprintf(format, args...)}
}
