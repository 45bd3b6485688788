package cli

import "strconv"

// Process exit codes.
const (
	ExitOK             = 0
	ExitFatal          = 1
	ExitUsage          = 2
	ExitBadCommandFile = 64
)

// ExitError carries the exit code a command failed with.
type ExitError struct {
	Code int
	Err  error
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return "exit status " + strconv.Itoa(e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}
