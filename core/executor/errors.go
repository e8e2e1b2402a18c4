package executor

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCommandNode is returned when a command is built from a node
	// that isn't a simple command.
	ErrInvalidCommandNode = errors.New("invalid command node")

	// ErrExit is returned by Run when the exit built-in was invoked. The rest
	// of the line is abandoned.
	ErrExit = errors.New("exit requested")
)

// Op names the step of realizing a command that failed.
type Op string

const (
	OpStart    Op = "start"
	OpLookup   Op = "lookup"
	OpRedirect Op = "redirect"
)

// ProcessError describes a command that could not be run. The shell reports
// it and carries on with the rest of the line.
type ProcessError struct {
	Op   Op
	Name string
	Err  error

	// Suggestion is a similarly named command, set for lookup failures.
	Suggestion string
}

func (e *ProcessError) Error() string {
	if e.Op == OpLookup && errors.Is(e.Err, ErrNotFound) {
		if e.Suggestion != "" {
			return fmt.Sprintf("%s: command not found, did you mean %q?", e.Name, e.Suggestion)
		}
		return fmt.Sprintf("%s: command not found", e.Name)
	}
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// status is the exit status a shell reports for the failure.
func (e *ProcessError) status() int {
	if e.Op == OpLookup {
		return 127
	}
	return 1
}
