package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (unreadable or invalid config)
	ExitDataError   = 3 // Data error (unreadable descriptor, rejected upload)
	ExitServerError = 4 // Server unreachable or answered with an error
	ExitNotFound    = 5 // Requested artifact or table does not exist
)
