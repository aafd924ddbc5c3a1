package pipeline

import "fmt"

// ConfigurationError reports a pipeline assembled without a required
// dependency. It is returned at construction time, never per request.
type ConfigurationError struct {
	Missing string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("pipeline: missing dependency: %s", e.Missing)
}

// TimeoutError marks a stage that exceeded its deadline. Stage is one of
// "generation", "execution" or "insights".
type TimeoutError struct {
	Stage string
	Err   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("pipeline: stage %s timed out: %v", e.Stage, e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}
