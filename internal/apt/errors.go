package apt

import "errors"

// ErrProcessingFailed is returned when the compiler ran but reported failure
var ErrProcessingFailed = errors.New("error during annotation processing")

// BuildError is returned by Execute when a failure must fail the build
type BuildError struct {
	Err error
}

func (e *BuildError) Error() string {
	return "annotation processing failed: " + e.Err.Error()
}

func (e *BuildError) Unwrap() error {
	return e.Err
}
