package sim

import "sort"

// Config holds the parameters of one run.
type Config struct {
	// NumEntities is the number of orders seeded by the default arrival policy.
	NumEntities int
	// Horizon is the last minute at which events are processed.
	Horizon int64
	// Resources maps pool name to capacity.
	Resources map[string]int
	// Activities is the pipeline every granted order runs, in order.
	Activities []Activity
	// Seed is the master seed of the partitioned RNG.
	Seed int64
}

// Validate reports the first invalid field as a *ConfigurationError.
func (c Config) Validate() error {
	if c.NumEntities < 0 {
		return configErrorf("num_entities", "must be non-negative, got %d", c.NumEntities)
	}
	if c.Horizon <= 0 {
		return configErrorf("horizon", "must be positive, got %d", c.Horizon)
	}
	if len(c.Resources) == 0 {
		return configErrorf("resource_capacities", "at least one pool is required")
	}
	for _, name := range c.PoolNames() {
		if _, err := NewResourcePool(name, c.Resources[name]); err != nil {
			return err
		}
	}
	if len(c.Activities) == 0 {
		return configErrorf("activity_durations", "at least one activity is required")
	}
	seen := make(map[string]bool, len(c.Activities))
	for i, a := range c.Activities {
		if a.Name == "" {
			return configErrorf("activity_durations", "activity %d has no name", i)
		}
		if seen[a.Name] {
			return configErrorf("activity_durations."+a.Name, "duplicate activity name")
		}
		seen[a.Name] = true
		if a.Duration == nil {
			return configErrorf("activity_durations."+a.Name, "duration sampler is required")
		}
		if err := validateDuration(a); err != nil {
			return err
		}
	}
	return nil
}

// BoundedSampler is a DurationSampler whose draws lie within known inclusive
// bounds, so they can be checked before the run starts.
type BoundedSampler interface {
	DurationSampler
	Bounds() (lo, hi int64)
}

// validateDuration rejects samplers that can produce negative durations.
// Opaque samplers such as DurationFunc are only checked when they are drawn.
func validateDuration(a Activity) error {
	switch d := a.Duration.(type) {
	case FixedDuration:
		if d < 0 {
			return configErrorf("activity_durations."+a.Name, "duration must be non-negative, got %d", int64(d))
		}
	case BoundedSampler:
		lo, hi := d.Bounds()
		if lo < 0 || hi < lo {
			return configErrorf("activity_durations."+a.Name, "bounds must satisfy 0 <= min <= max, got [%d, %d]", lo, hi)
		}
	}
	return nil
}

// PoolNames returns the pool names in sorted order.
func (c Config) PoolNames() []string {
	names := make([]string, 0, len(c.Resources))
	for name := range c.Resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
