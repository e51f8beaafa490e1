package analytics

import "fmt"

// InsufficientDataError means too few observations for a statistical
// fit. Offline only; scoring always has a fallback.
type InsufficientDataError struct {
	Op     string
	Needed int
	Got    int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: need at least %d observations, got %d", e.Op, e.Needed, e.Got)
}

// ConstantFeatureError means a feature has zero variance, leaving its
// correlation undefined.
type ConstantFeatureError struct {
	Feature string
}

func (e *ConstantFeatureError) Error() string {
	return fmt.Sprintf("feature %q is constant; correlation undefined", e.Feature)
}

// ModelFitError means the maximum-likelihood optimizer failed to
// converge within its bounded iteration count or deadline.
type ModelFitError struct {
	Iterations int
	Reason     string
	Err        error
}

func (e *ModelFitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model fit failed after %d iterations: %s: %v", e.Iterations, e.Reason, e.Err)
	}
	return fmt.Sprintf("model fit failed after %d iterations: %s", e.Iterations, e.Reason)
}

func (e *ModelFitError) Unwrap() error { return e.Err }
