package jobs

import (
	"errors"
	"fmt"
)

// Setup errors abort the run before any job is dispatched. Mid-run job
// failures are recorded in the Summary and never returned as errors.
// These can be checked with errors.Is().
var (
	ErrBadParallelism = errors.New("parallelism must be at least 1")
)

// badParallelismError returns a wrapped error for an invalid worker count.
func badParallelismError(n int) error {
	return fmt.Errorf("%w: got %d", ErrBadParallelism, n)
}
