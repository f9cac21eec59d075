package workload

import (
	"bytes"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/servsim/sim"
	"github.com/inference-sim/servsim/sim/trace"
)

// Arrival processes.
const (
	ProcessAllAtOnce = "all-at-once"
	ProcessStaggered = "staggered"
	ProcessPoisson   = "poisson"
	ProcessGamma     = "gamma"
	ProcessWeibull   = "weibull"
	ProcessConstant  = "constant"
)

// StartTimeLayout is the layout of the start_time field.
const StartTimeLayout = "2006-01-02 15:04"

// ScenarioSpec is the top-level scenario configuration.
// Loaded from YAML via LoadScenarioSpec(path).
type ScenarioSpec struct {
	Name               string         `yaml:"name,omitempty"`
	NumEntities        int            `yaml:"num_entities"`
	Horizon            int64          `yaml:"horizon"`
	ResourceCapacities map[string]int `yaml:"resource_capacities"`
	ActivityDurations  []DurationSpec `yaml:"activity_durations"`
	PRushed            float64        `yaml:"p_rushed"`
	MeanServiceTime    float64        `yaml:"mean_service_time"`
	RandomSeed         int64          `yaml:"random_seed"`
	ProfileSeed        *int64         `yaml:"profile_seed,omitempty"` // nil = derive from random_seed
	Patience           bool           `yaml:"patience"`
	Arrivals           ArrivalSpec    `yaml:"arrivals,omitempty"`
	StartTime          string         `yaml:"start_time,omitempty"` // wall-clock anchor of minute 0
}

// ArrivalSpec configures how orders arrive.
type ArrivalSpec struct {
	Process          string   `yaml:"process,omitempty"` // empty = all-at-once
	MeanInterarrival float64  `yaml:"mean_interarrival,omitempty"`
	CV               *float64 `yaml:"cv,omitempty"`
	Window           int64    `yaml:"window,omitempty"` // staggered only
}

// Valid value registries.
var (
	validArrivalProcesses = map[string]bool{
		"": true, ProcessAllAtOnce: true, ProcessStaggered: true,
		ProcessPoisson: true, ProcessGamma: true, ProcessWeibull: true, ProcessConstant: true,
	}
	generatedProcesses = map[string]bool{
		ProcessPoisson: true, ProcessGamma: true, ProcessWeibull: true, ProcessConstant: true,
	}
)

// LoadScenarioSpec reads and parses a YAML scenario file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadScenarioSpec(path string) (*ScenarioSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario spec: %w", err)
	}
	return ParseScenarioSpec(data)
}

// ParseScenarioSpec parses YAML scenario data strictly.
func ParseScenarioSpec(data []byte) (*ScenarioSpec, error) {
	var spec ScenarioSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing scenario spec: %w", err)
	}
	return &spec, nil
}

// Marshal renders the scenario as YAML.
func (s *ScenarioSpec) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// Validate checks every field and returns a *sim.ConfigurationError for the
// first invalid one.
func (s *ScenarioSpec) Validate() error {
	if s.NumEntities < 0 {
		return configError("num_entities", "must be non-negative, got %d", s.NumEntities)
	}
	if s.Horizon <= 0 {
		return configError("horizon", "must be positive, got %d", s.Horizon)
	}
	if len(s.ResourceCapacities) == 0 {
		return configError("resource_capacities", "at least one resource is required")
	}
	for _, name := range (sim.Config{Resources: s.ResourceCapacities}).PoolNames() {
		if capacity := s.ResourceCapacities[name]; capacity <= 0 {
			return configError("resource_capacities."+name, "capacity must be positive, got %d", capacity)
		}
	}
	if len(s.ActivityDurations) == 0 {
		return configError("activity_durations", "at least one activity is required")
	}
	if _, err := BuildActivities(s.ActivityDurations); err != nil {
		return err
	}
	if math.IsNaN(s.PRushed) || s.PRushed < 0 || s.PRushed > 1 {
		return configError("p_rushed", "must be within [0, 1], got %v", s.PRushed)
	}
	if math.IsNaN(s.MeanServiceTime) || math.IsInf(s.MeanServiceTime, 0) || s.MeanServiceTime < 0 {
		return configError("mean_service_time", "must be a non-negative number, got %v", s.MeanServiceTime)
	}
	if s.Patience && s.MeanServiceTime == 0 {
		return configError("mean_service_time", "must be positive when patience is enabled")
	}
	if err := s.Arrivals.validate(); err != nil {
		return err
	}
	if _, err := s.startTime(); err != nil {
		return configError("start_time", "%v", err)
	}
	return nil
}

func (a *ArrivalSpec) validate() error {
	if !validArrivalProcesses[a.Process] {
		return configError("arrivals.process",
			"unknown arrival process %q; valid: all-at-once, staggered, poisson, gamma, weibull, constant", a.Process)
	}
	if a.Process == ProcessStaggered && a.Window < 0 {
		return configError("arrivals.window", "must be non-negative, got %d", a.Window)
	}
	if generatedProcesses[a.Process] {
		if math.IsNaN(a.MeanInterarrival) || math.IsInf(a.MeanInterarrival, 0) || a.MeanInterarrival <= 0 {
			return configError("arrivals.mean_interarrival", "must be positive, got %v", a.MeanInterarrival)
		}
	}
	if a.CV != nil {
		cv := *a.CV
		if math.IsNaN(cv) || math.IsInf(cv, 0) || cv <= 0 {
			return configError("arrivals.cv", "must be positive, got %v", cv)
		}
		if a.Process == ProcessWeibull && (cv < 0.01 || cv > 10.4) {
			return configError("arrivals.cv", "weibull CV must be in [0.01, 10.4], got %v", cv)
		}
	}
	return nil
}

func (s *ScenarioSpec) startTime() (time.Time, error) {
	if s.StartTime == "" {
		return trace.DefaultStartTime, nil
	}
	return time.ParseInLocation(StartTimeLayout, s.StartTime, time.UTC)
}

// Scenario is a validated spec turned into engine inputs.
type Scenario struct {
	Config    sim.Config
	Arrivals  sim.ArrivalPolicy
	Profiles  sim.ProfileSource
	StartTime time.Time
}

// Options returns the simulator options of the scenario.
func (sc *Scenario) Options() []sim.Option {
	return []sim.Option{sim.WithArrivals(sc.Arrivals), sim.WithProfiles(sc.Profiles)}
}

// Build validates the scenario and assembles the engine configuration.
func (s *ScenarioSpec) Build() (*Scenario, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	activities, err := BuildActivities(s.ActivityDurations)
	if err != nil {
		return nil, err
	}
	start, err := s.startTime()
	if err != nil {
		return nil, err
	}
	profiles, err := s.NewProfileSource()
	if err != nil {
		return nil, err
	}
	return &Scenario{
		Config: sim.Config{
			NumEntities: s.NumEntities,
			Horizon:     s.Horizon,
			Resources:   s.ResourceCapacities,
			Activities:  activities,
			Seed:        s.RandomSeed,
		},
		Arrivals:  s.arrivalPolicy(),
		Profiles:  profiles,
		StartTime: start,
	}, nil
}

// NewProfileSource returns the case profile source of the scenario. Without
// patience every order waits forever. The generator uses profile_seed when
// set; otherwise the simulator binds it to the profiles stream of its RNG.
func (s *ScenarioSpec) NewProfileSource() (sim.ProfileSource, error) {
	if !s.Patience {
		return sim.UnlimitedPatience{}, nil
	}
	return s.newProfileGenerator()
}

// NewProfileGenerator builds a generator usable without a simulator,
// regardless of the patience switch. Without profile_seed it draws from the
// same stream a simulator seeded with random_seed would bind.
func (s *ScenarioSpec) NewProfileGenerator() (*ProfileGenerator, error) {
	g, err := s.newProfileGenerator()
	if err != nil {
		return nil, err
	}
	g.BindRNG(sim.NewPartitionedRNG(sim.NewSimulationKey(s.RandomSeed)))
	return g, nil
}

func (s *ScenarioSpec) newProfileGenerator() (*ProfileGenerator, error) {
	var rng *rand.Rand
	if s.ProfileSeed != nil {
		rng = rand.New(rand.NewSource(*s.ProfileSeed))
	}
	return NewProfileGenerator(s.PRushed, s.MeanServiceTime, rng)
}

func (s *ScenarioSpec) arrivalPolicy() sim.ArrivalPolicy {
	switch s.Arrivals.Process {
	case ProcessStaggered:
		return sim.StaggeredArrivals(s.NumEntities, s.Arrivals.Window)
	case ProcessPoisson, ProcessGamma, ProcessWeibull, ProcessConstant:
		return sim.GeneratedArrivals(s.NumEntities, NewArrivalSampler(s.Arrivals))
	default:
		return sim.AllAtOnce(s.NumEntities)
	}
}

func configError(field, format string, args ...any) error {
	return &sim.ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
