package pipeline

import (
	"errors"
	"fmt"
)

// StageError identifies which stage of an analysis failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedStage returns the stage name carried by err, or "" if err did not come
// from a stage.
func FailedStage(err error) string {
	var serr *StageError
	if errors.As(err, &serr) {
		return serr.Stage
	}
	return ""
}
