package strux

import "fmt"

// Result is the outcome of a SafeParse: either a value or issues, never
// both.
type Result struct {
	OK    bool
	Value any
	Err   Issues
}

// Unwrap converts the result back into the (value, error) shape.
func (r Result) Unwrap() (any, error) {
	if !r.OK {
		return nil, r.Err
	}
	return r.Value, nil
}

// UsageError flags API misuse, such as running an async-only effect through
// a sync parse. It is raised by panic and is never part of a validation
// result.
type UsageError struct {
	Op  string
	Msg string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("strux: %s: %s", e.Op, e.Msg)
}

// NewUsageError builds a UsageError for the given operation.
func NewUsageError(op, format string, args ...any) *UsageError {
	return &UsageError{Op: op, Msg: fmt.Sprintf(format, args...)}
}
