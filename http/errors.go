package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTransport matches every non-cancellation failure returned by a Transport
	ErrTransport = errors.New("transport error")

	// ErrCancelled matches failures caused by a cancelled request context
	ErrCancelled = errors.New("request cancelled")
)

// TransportError describes a network, read or decoding failure.
type TransportError struct {
	Op         string
	Method     string
	URL        string
	StatusCode int
	Cause      error
}

// Error implements error interface.
func (e *TransportError) Error() string {
	msg := fmt.Sprintf("%s %s: %s failed", e.Method, e.URL, e.Op)
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap exposes both ErrTransport and the underlying cause.
func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Cause}
}

// CancelledError is returned when the request context was cancelled
// before the exchange completed.
type CancelledError struct {
	Method string
	URL    string
	Cause  error
}

// Error implements error interface.
func (e *CancelledError) Error() string {
	return fmt.Sprintf("%s %s: %v: %v", e.Method, e.URL, ErrCancelled, e.Cause)
}

// Unwrap exposes both ErrCancelled and the cancellation cause.
func (e *CancelledError) Unwrap() []error {
	return []error{ErrCancelled, e.Cause}
}

// IsCancelled reports whether err stems from a cancelled request.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// classify turns an error from net/http into a *CancelledError when the
// request context is done, and a *TransportError otherwise.
func classify(ctx context.Context, op string, req *http.Request, err error) error {
	if ctx.Err() != nil {
		return &CancelledError{Method: req.Method, URL: req.URL.String(), Cause: context.Cause(ctx)}
	}
	return &TransportError{Op: op, Method: req.Method, URL: req.URL.String(), Cause: err}
}
