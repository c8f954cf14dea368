package pipeline

import "fmt"

// Stage names the step of a network sweep that failed
type Stage string

const (
	StageLoad       Stage = "load"
	StageThreshold  Stage = "threshold"
	StageSchedule   Stage = "schedule"
	StageSimulation Stage = "simulation"
	StagePersist    Stage = "persist"
)

// StageError reports a failed network sweep
type StageError struct {
	Stage   Stage
	Network string
	Beta    float64 // set for simulation and persist failures
	Err     error
}

func (e *StageError) Error() string {
	if e.Stage == StageSimulation || (e.Stage == StagePersist && e.Beta != 0) {
		return fmt.Sprintf("network %s: %s failed at beta=%v: %v", e.Network, e.Stage, e.Beta, e.Err)
	}
	return fmt.Sprintf("network %s: %s failed: %v", e.Network, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
