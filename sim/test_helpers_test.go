package sim

import "math/rand"

// uniform draws integer durations from [lo, hi], like the workload package's
// uniform sampler, without importing it.
func uniform(lo, hi int64) DurationSampler {
	return DurationFunc(func(rng *rand.Rand) int64 {
		return lo + rng.Int63n(hi-lo+1)
	})
}

// randomProfiles mixes rushed and relaxed customers with small thresholds so
// that balking and reneging both happen in busy runs.
func randomProfiles(seed int64) ProfileSource {
	rng := rand.New(rand.NewSource(seed))
	return ProfileFunc(func(int) CaseProfile {
		if rng.Intn(2) == 0 {
			return CaseProfile{CaseType: Rushed, QMax: 2 + rng.Intn(3), WMax: int64(2 + rng.Intn(6))}
		}
		return CaseProfile{CaseType: Relaxed, QMax: 4 + rng.Intn(6), WMax: int64(5 + rng.Intn(15))}
	})
}
