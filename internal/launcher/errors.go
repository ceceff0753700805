package launcher

import (
	"errors"
	"fmt"
)

// ErrLaunch matches every *LaunchError via errors.Is.
var ErrLaunch = errors.New("launch failed")

// LaunchError means the child never started: the script is missing, not
// executable, or its working directory is unusable. It is never retried.
type LaunchError struct {
	Path  string
	Cause error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %v", e.Path, e.Cause)
}

func (e *LaunchError) Unwrap() error {
	return e.Cause
}

func (e *LaunchError) Is(target error) bool {
	return target == ErrLaunch
}
