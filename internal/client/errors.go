package client

import (
	"errors"
	"fmt"
)

// Errors returned by the client. An empty result is never an error.
var (
	// ErrTransport indicates the request could not complete.
	ErrTransport = errors.New("transport error communicating with depviz server")

	// ErrServer indicates the server answered with an error status.
	ErrServer = errors.New("depviz server error")

	// ErrInvalidResponse indicates a response body that could not be decoded.
	ErrInvalidResponse = errors.New("invalid response from depviz server")
)

// APIError is an error status returned by the server.
type APIError struct {
	StatusCode int
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("depviz server error (status %d, %s): %s", e.StatusCode, e.Path, e.Message)
	}
	return fmt.Sprintf("depviz server error (status %d, %s)", e.StatusCode, e.Path)
}

// Unwrap lets errors.Is match ErrServer.
func (e *APIError) Unwrap() error {
	return ErrServer
}

// IsTransport reports whether err is a failure to complete the request,
// either at the network level or as a server error status.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport) || errors.Is(err, ErrServer) || errors.Is(err, ErrInvalidResponse)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}
