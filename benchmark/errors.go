package benchmark

import "fmt"

// SetupError is returned when an engine cannot be initialized. No operation
// ran.
type SetupError struct {
	Backend string
	Err     error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("%s: initialize: %v", e.Backend, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// OperationError is returned when a benchmarked operation fails
type OperationError struct {
	Backend   string
	Operation string
	Err       error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Backend, e.Operation, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}
