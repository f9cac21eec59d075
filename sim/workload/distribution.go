package workload

import (
	"fmt"
	"math/rand"

	"github.com/inference-sim/servsim/sim"
)

// DurationSpec configures one activity of the pipeline and the bounds of its
// duration in minutes. Min == Max gives a constant duration.
type DurationSpec struct {
	Name string `yaml:"name"`
	Min  int64  `yaml:"min"`
	Max  int64  `yaml:"max"`
}

// UniformDuration draws whole minutes uniformly from [min, max], both inclusive.
type UniformDuration struct {
	min, max int64
}

// NewUniformDuration validates the bounds.
func NewUniformDuration(lo, hi int64) (*UniformDuration, error) {
	if lo < 0 {
		return nil, fmt.Errorf("min must be non-negative, got %d", lo)
	}
	if hi < lo {
		return nil, fmt.Errorf("max %d is below min %d", hi, lo)
	}
	return &UniformDuration{min: lo, max: hi}, nil
}

// Sample implements sim.DurationSampler.
func (d *UniformDuration) Sample(rng *rand.Rand) int64 {
	if d.min == d.max {
		return d.min
	}
	return d.min + rng.Int63n(d.max-d.min+1)
}

// Bounds returns the inclusive bounds.
func (d *UniformDuration) Bounds() (int64, int64) {
	return d.min, d.max
}

var _ sim.BoundedSampler = (*UniformDuration)(nil)

// BuildActivities turns duration specs into the engine's activity list,
// preserving their order.
func BuildActivities(specs []DurationSpec) ([]sim.Activity, error) {
	activities := make([]sim.Activity, 0, len(specs))
	seen := make(map[string]bool, len(specs))
	for i, s := range specs {
		field := fmt.Sprintf("activity_durations[%d]", i)
		if s.Name == "" {
			return nil, &sim.ConfigurationError{Field: field, Reason: "name is required"}
		}
		if seen[s.Name] {
			return nil, &sim.ConfigurationError{Field: field, Reason: fmt.Sprintf("duplicate activity %q", s.Name)}
		}
		seen[s.Name] = true
		d, err := NewUniformDuration(s.Min, s.Max)
		if err != nil {
			return nil, &sim.ConfigurationError{Field: field + "." + s.Name, Reason: err.Error()}
		}
		activities = append(activities, sim.Activity{Name: s.Name, Duration: d})
	}
	return activities, nil
}
