package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/matsen/depviz/internal/client"
	"github.com/matsen/depviz/internal/ui"
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		ui.Errorf(os.Stderr, "%s", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// exitCodeFor maps a client error to an exit code.
func exitCodeFor(err error) int {
	switch {
	case client.IsNotFound(err):
		return ExitNotFound
	case client.IsTransport(err):
		return ExitServerError
	case errors.Is(err, os.ErrNotExist):
		return ExitDataError
	default:
		return ExitError
	}
}

// exitOnError exits with the mapped code when err is non-nil.
func exitOnError(err error, format string, args ...any) {
	if err == nil {
		return
	}
	exitWithError(exitCodeFor(err), "%s: %v", fmt.Sprintf(format, args...), err)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
	Bytes  int64  `json:"bytes,omitempty"`
}

// UpdateResponse is the response for config set commands.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
