package console

import (
	"errors"
	"fmt"
)

// ExitError carries a positive exit code out of a command without an error
// message. Execute exits with Code and prints nothing.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// ExitCode converts a loop result into a command error: nil for code 0 and
// below, *ExitError otherwise. Negative codes would wrap to a high exit
// status, so they count as success.
func ExitCode(code int) error {
	if code <= 0 {
		return nil
	}
	return &ExitError{Code: code}
}

// CodeOf returns the exit code for err: 0 for nil, the carried code for an
// *ExitError, and 1 for anything else.
func CodeOf(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}
