package universe

import (
	"errors"
	"fmt"
)

// Failure taxonomy for engine operations.
var (
	// ErrBadConfig indicates an invalid run configuration.
	ErrBadConfig = errors.New("universe: invalid configuration")

	// ErrDegenerateGeometry indicates two atoms closer than the engine can
	// evaluate (overlapping positions).
	ErrDegenerateGeometry = errors.New("universe: degenerate geometry")

	// ErrNotFinite indicates a NaN or Inf crept into the particle state.
	ErrNotFinite = errors.New("universe: non-finite state")

	// ErrZeroMass indicates an element with no usable mass.
	ErrZeroMass = errors.New("universe: zero or unknown atomic mass")
)

// SimulationError wraps a failure with the step and simulated time it
// occurred at. Errors propagate unchanged through the call chain; the first
// failure aborts the run.
type SimulationError struct {
	Step    uint64
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.6e s): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
