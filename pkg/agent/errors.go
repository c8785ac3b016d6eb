package agent

import "fmt"

// ModelUnavailableError reports a failed model call. It ends the current user
// turn only; conversation memory is left as it was before the turn.
type ModelUnavailableError struct {
	Err error
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("model unavailable: %v", e.Err)
}

func (e *ModelUnavailableError) Unwrap() error { return e.Err }
