package application

import "fmt"

// ValidationError rejects malformed caller input. It is a client error and is
// never retried internally.
type ValidationError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}
