package pipeline

import (
	"errors"
	"fmt"
)

// Input validation failures are terminal: the same message will fail the same
// way on every redelivery, so they never enter the retry path.
var (
	ErrMissingInput = errors.New("missing required job inputs")
	ErrInvalidLink  = errors.New("could not derive video id from link")
)

// StageError wraps a failure with the stage it came from. Stages never retry
// internally; the error crosses the orchestrator boundary and the retry
// controller decides what happens to the job.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage string, err error) error {
	return &StageError{Stage: stage, Err: err}
}

// IsTerminal reports whether an error must bypass the retry budget entirely.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrMissingInput) || errors.Is(err, ErrInvalidLink)
}
