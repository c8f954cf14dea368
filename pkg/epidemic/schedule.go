package epidemic

import (
	"errors"
	"fmt"
)

var (
	// ErrUndefinedThreshold is returned when a schedule is requested for a
	// graph whose threshold is undefined (no nodes or no edges)
	ErrUndefinedThreshold = errors.New("epidemic threshold is undefined")

	// ErrNoMultipliers is returned when no beta multipliers are configured
	ErrNoMultipliers = errors.New("no beta multipliers configured")

	// ErrInvalidSchedule is returned when a derived schedule holds a rate
	// outside (0, 1] or the same rate twice
	ErrInvalidSchedule = errors.New("invalid beta schedule")
)

// Schedule is an ordered list of infection rates to evaluate
type Schedule []float64

// ScheduleFor derives the beta schedule for a threshold. An undefined
// threshold is reported as ErrUndefinedThreshold. Every rate of the result
// lies in (0, 1] and appears once, otherwise ErrInvalidSchedule is returned.
func ScheduleFor(th Threshold, multipliers []float64) (Schedule, error) {
	crit, ok := th.Value()
	if !ok {
		return nil, ErrUndefinedThreshold
	}
	if len(multipliers) == 0 {
		return nil, ErrNoMultipliers
	}
	for _, m := range multipliers {
		if m <= 0 {
			return nil, fmt.Errorf("beta multiplier must be positive: %v", m)
		}
	}
	schedule := BuildSchedule(crit, multipliers)
	if err := schedule.Validate(); err != nil {
		return nil, fmt.Errorf("threshold %g: %w", crit, err)
	}
	return schedule, nil
}

// Validate checks that every rate is a probability in (0, 1] and that no
// rate repeats, since each one names its own ranking file.
func (s Schedule) Validate() error {
	seen := make(map[float64]int, len(s))
	for i, beta := range s {
		if !(beta > 0 && beta <= 1) {
			return fmt.Errorf("%w: beta[%d]=%g outside (0, 1]", ErrInvalidSchedule, i, beta)
		}
		if j, ok := seen[beta]; ok {
			return fmt.Errorf("%w: beta[%d]=%g repeats beta[%d]", ErrInvalidSchedule, i, beta, j)
		}
		seen[beta] = i
	}
	return nil
}

// BuildSchedule anchors the multipliers to the critical value crit.
//
// When crit*10 > 1 the sub-critical multipliers (m < 1) are scaled by crit
// and the remaining ones are replaced by points spaced evenly from crit to
// 1.0; only their count matters, and a single one collapses to crit. For a
// very small crit every multiplier is simply scaled.
func BuildSchedule(crit float64, multipliers []float64) Schedule {
	if crit*10 <= 1 {
		schedule := make(Schedule, 0, len(multipliers))
		for _, m := range multipliers {
			schedule = append(schedule, m*crit)
		}
		return schedule
	}

	schedule := make(Schedule, 0, len(multipliers))
	tail := 0
	for _, m := range multipliers {
		if m < 1 {
			schedule = append(schedule, m*crit)
		} else {
			tail++
		}
	}

	if tail <= 1 {
		return append(schedule, crit)
	}

	step := (1 - crit) / float64(tail-1)
	for i := 0; i < tail; i++ {
		schedule = append(schedule, crit+float64(i)*step)
	}
	// Pin the endpoint so rounding never leaves it just below 1.0
	schedule[len(schedule)-1] = 1.0
	return schedule
}
