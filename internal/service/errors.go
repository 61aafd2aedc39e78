package service

import "fmt"

// ToolError is the error every tool returns. It labels the failed action
// so the rendered text reads "Error <action>: <cause>".
type ToolError struct {
	// Action is the gerund phrase naming the attempt, e.g. "listing cases".
	Action string
	Err    error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("Error %s: %v", e.Action, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// ValidationError reports input that cannot produce a meaningful remote
// call. It is raised before anything is sent.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
