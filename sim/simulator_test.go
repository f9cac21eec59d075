package sim

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/servsim/sim/trace"
)

func singlePoolConfig(capacity int, horizon int64, durations ...int64) Config {
	cfg := Config{
		Horizon:   horizon,
		Resources: map[string]int{"Waitstaff A": capacity},
		Seed:      42,
	}
	for i, d := range durations {
		cfg.Activities = append(cfg.Activities, Activity{
			Name:     []string{"Seated", "Visit Table", "Order Posted", "Order Delivered", "Bill Paid"}[i],
			Duration: FixedDuration(d),
		})
	}
	return cfg
}

func mustRun(t *testing.T, cfg Config, opts ...Option) *Simulator {
	t.Helper()
	s, err := NewSimulator(cfg, opts...)
	require.NoError(t, err)
	require.NoError(t, s.Run())
	require.Equal(t, RunDrained, s.State())
	return s
}

func TestSimulator_TwoOrdersOneServer_SecondWaitsForFirst(t *testing.T) {
	// GIVEN one slot, two orders at t=0 and a single 5-minute activity
	cfg := singlePoolConfig(1, 100, 5)
	cfg.NumEntities = 2

	// WHEN the run drains
	s := mustRun(t, cfg)

	// THEN order 0 is served immediately and order 1 right after it
	assert.Equal(t, []trace.ActivityRecord{
		{Time: 5, EntityID: 0, Activity: "Seated", Server: "Waitstaff A", Kind: trace.KindActivity},
		{Time: 10, EntityID: 1, Activity: "Seated", Server: "Waitstaff A", Kind: trace.KindActivity},
	}, s.Records())
	p1 := s.Processes()[1]
	assert.Equal(t, int64(5), p1.GrantTime)
	assert.Equal(t, int64(5), p1.Wait(s.Clock()))
	assert.Equal(t, StateCompleted, p1.State)
	assert.Equal(t, 2, s.Metrics().Completed)
	assert.Equal(t, 2.5, s.Metrics().MeanWait())
}

func TestSimulator_QMaxZeroBusyServer_Balks(t *testing.T) {
	// GIVEN an occupied server and an order with qmax=0 arriving at t=2
	cfg := singlePoolConfig(1, 100, 5)
	profiles := ProfileFunc(func(id int) CaseProfile {
		if id == 1 {
			return CaseProfile{CaseType: Rushed, QMax: 0, WMax: 3}
		}
		return Unlimited
	})

	// WHEN the run drains
	s := mustRun(t, cfg, WithArrivals(FixedArrivals(0, 2)), WithProfiles(profiles))

	// THEN the order balks at its arrival time and never queues
	records := s.Records()
	require.Len(t, records, 2)
	assert.Equal(t, trace.ActivityRecord{
		Time: 2, EntityID: 1, Activity: trace.ActivityBalked, Server: "Waitstaff A", Kind: trace.KindBalk,
	}, records[0])
	assert.Equal(t, StateBalked, s.Processes()[1].State)
	assert.Equal(t, 0, s.Pool("Waitstaff A").PeakQueueLen())
	assert.Equal(t, 1, s.Metrics().Balked)
}

func TestSimulator_QMaxZeroIdleServer_Served(t *testing.T) {
	cfg := singlePoolConfig(1, 100, 5)
	cfg.NumEntities = 1

	s := mustRun(t, cfg, WithProfiles(FixedProfile(CaseProfile{CaseType: Rushed, QMax: 0, WMax: 0})))

	assert.Equal(t, StateCompleted, s.Processes()[0].State)
}

func TestSimulator_WMaxThree_RenegesBeforeGrant(t *testing.T) {
	// GIVEN a server busy until t=10 and a waiter with wmax=3
	cfg := singlePoolConfig(1, 100, 10)
	cfg.NumEntities = 2
	profiles := ProfileFunc(func(id int) CaseProfile {
		if id == 1 {
			return CaseProfile{CaseType: Rushed, QMax: 10, WMax: 3}
		}
		return Unlimited
	})

	// WHEN the run drains
	s := mustRun(t, cfg, WithProfiles(profiles))

	// THEN the waiter reneges at t=3 and is never granted
	assert.Equal(t, []trace.ActivityRecord{
		{Time: 3, EntityID: 1, Activity: trace.ActivityReneged, Server: "Waitstaff A", Kind: trace.KindRenege},
		{Time: 10, EntityID: 0, Activity: "Seated", Server: "Waitstaff A", Kind: trace.KindActivity},
	}, s.Records())
	p1 := s.Processes()[1]
	assert.Equal(t, StateReneged, p1.State)
	assert.False(t, p1.Granted())
	assert.Equal(t, int64(3), p1.Wait(s.Clock()))
	assert.Equal(t, 1, s.Pool("Waitstaff A").Grants())
}

func TestSimulator_SlotFreedAtDeadline_GrantWins(t *testing.T) {
	// GIVEN a waiter whose patience ends exactly when the slot frees
	cfg := singlePoolConfig(1, 100, 10)
	cfg.NumEntities = 2

	// WHEN the run drains
	s := mustRun(t, cfg, WithProfiles(FixedProfile(CaseProfile{CaseType: Relaxed, QMax: 10, WMax: 10})))

	// THEN the waiter is granted since its wait does not exceed wmax
	p1 := s.Processes()[1]
	assert.Equal(t, StateCompleted, p1.State)
	assert.Equal(t, int64(10), p1.GrantTime)
	assert.Equal(t, 0, s.Metrics().Reneged)
}

func TestSimulator_ActivitiesRunInOrder(t *testing.T) {
	cfg := singlePoolConfig(1, 100, 1, 2, 3)
	cfg.NumEntities = 1

	s := mustRun(t, cfg)

	assert.Equal(t, []string{"Seated", "Visit Table", "Order Posted"}, s.ActivityNames())
	times := []int64{}
	for _, r := range s.Records() {
		times = append(times, r.Time)
	}
	assert.Equal(t, []int64{1, 3, 6}, times)
	assert.Equal(t, 3, s.Processes()[0].ActivityIndex)
}

func TestSimulator_Horizon_EventsAtHorizonRunLaterDiscarded(t *testing.T) {
	// GIVEN three orders on one slot with 5-minute service and horizon 10
	cfg := singlePoolConfig(1, 10, 5)
	cfg.NumEntities = 3

	// WHEN the run stops
	s := mustRun(t, cfg)

	// THEN completions at 5 and 10 are recorded, the one at 15 is discarded
	require.Len(t, s.Records(), 2)
	assert.Equal(t, int64(10), s.Records()[1].Time)
	assert.Equal(t, StateInService, s.Processes()[2].State)
	m := s.Metrics()
	assert.Equal(t, 1, m.Unfinished)
	assert.Equal(t, 1, m.EventsDiscarded)
	assert.Equal(t, int64(10), m.SimEndedTime)
}

type pastEventArrivals struct{}

func (pastEventArrivals) Seed(s *Simulator) error {
	s.Events().ScheduleAt(5, PriorityDefault, EventFunc(func(s *Simulator) error {
		s.Events().ScheduleAt(s.Clock()-1, PriorityDefault, EventFunc(func(*Simulator) error { return nil }))
		return nil
	}))
	return nil
}

func TestSimulator_EventInThePast_AbortsWithCausalityViolation(t *testing.T) {
	s, err := NewSimulator(singlePoolConfig(1, 100, 1), WithArrivals(pastEventArrivals{}))
	require.NoError(t, err)

	err = s.Run()

	assert.ErrorIs(t, err, ErrCausalityViolation)
	assert.Equal(t, RunAborted, s.State())
}

type failingSink struct{}

func (failingSink) Append(trace.ActivityRecord) error { return errors.New("disk full") }

func TestSimulator_SinkError_AbortsRun(t *testing.T) {
	cfg := singlePoolConfig(1, 100, 1)
	cfg.NumEntities = 1
	s, err := NewSimulator(cfg, WithSink(failingSink{}))
	require.NoError(t, err)

	err = s.Run()

	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, RunAborted, s.State())
}

// boundedDuration is a sampler with declared bounds that always draws lo.
type boundedDuration struct{ lo, hi int64 }

func (d boundedDuration) Sample(*rand.Rand) int64 { return d.lo }
func (d boundedDuration) Bounds() (int64, int64) { return d.lo, d.hi }

func TestNewSimulator_NonNegativeBoundedDuration_Accepted(t *testing.T) {
	cfg := singlePoolConfig(1, 100)
	cfg.NumEntities = 1
	cfg.Activities = []Activity{{Name: "Seated", Duration: boundedDuration{lo: 0, hi: 4}}}

	s := mustRun(t, cfg)

	assert.Equal(t, 1, s.Metrics().Completed)
}

func TestSimulator_OpaqueSamplerNegativeDuration_AbortsRun(t *testing.T) {
	// GIVEN a sampler without declared bounds that draws a negative duration
	cfg := singlePoolConfig(1, 100)
	cfg.NumEntities = 1
	cfg.Activities = []Activity{{Name: "Seated", Duration: DurationFunc(func(*rand.Rand) int64 { return -1 })}}
	s, err := NewSimulator(cfg)
	require.NoError(t, err)

	// THEN the draw aborts the run

	assert.ErrorContains(t, s.Run(), "negative duration")
	assert.Equal(t, RunAborted, s.State())
}

func TestSimulator_RunTwice_Panics(t *testing.T) {
	s := mustRun(t, singlePoolConfig(1, 100, 1))
	assert.Panics(t, func() { _ = s.Run() })
}

func TestSimulator_GrantAfterRenegeFired_IsInvariantError(t *testing.T) {
	// GIVEN a waiting process whose renege timer was already dispatched
	s, err := NewSimulator(singlePoolConfig(1, 100, 1))
	require.NoError(t, err)
	p := s.newProcess()
	p.renege = s.queue.Schedule(0, &renegeEvent{proc: p})
	_, _, err = s.queue.Next()
	require.NoError(t, err)

	// THEN granting it is reported instead of honoured
	assert.ErrorContains(t, s.grant(p), "after its renege timer fired")
}

func TestSimulator_RenegeForNonWaitingProcess_IsInvariantError(t *testing.T) {
	s, err := NewSimulator(singlePoolConfig(1, 100, 1))
	require.NoError(t, err)
	p := s.newProcess()
	p.Pool = "Waitstaff A"

	assert.Error(t, (&renegeEvent{proc: p}).Execute(s))
}

func TestNewSimulator_InvalidConfig(t *testing.T) {
	valid := singlePoolConfig(1, 100, 1)
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero capacity", func(c *Config) { c.Resources = map[string]int{"A": 0} }, "resources.A"},
		{"no pools", func(c *Config) { c.Resources = nil }, "resource_capacities"},
		{"no activities", func(c *Config) { c.Activities = nil }, "activity_durations"},
		{"nil sampler", func(c *Config) { c.Activities = []Activity{{Name: "Seated"}} }, "activity_durations.Seated"},
		{"unnamed activity", func(c *Config) { c.Activities = []Activity{{Duration: FixedDuration(1)}} }, "activity_durations"},
		{"zero horizon", func(c *Config) { c.Horizon = 0 }, "horizon"},
		{"negative entities", func(c *Config) { c.NumEntities = -1 }, "num_entities"},
		{"negative fixed duration", func(c *Config) {
			c.Activities = []Activity{{Name: "Seated", Duration: FixedDuration(-1)}}
		}, "activity_durations.Seated"},
		{"negative lower bound", func(c *Config) {
			c.Activities = []Activity{{Name: "Seated", Duration: boundedDuration{lo: -2, hi: 3}}}
		}, "activity_durations.Seated"},
		{"inverted bounds", func(c *Config) {
			c.Activities = []Activity{{Name: "Seated", Duration: boundedDuration{lo: 5, hi: 3}}}
		}, "activity_durations.Seated"},
		{"duplicate activity", func(c *Config) {
			c.Activities = []Activity{
				{Name: "Seated", Duration: FixedDuration(1)},
				{Name: "Seated", Duration: FixedDuration(2)},
			}
		}, "activity_durations.Seated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			_, err := NewSimulator(cfg)
			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}

	_, err := NewSimulator(valid, WithProfiles(nil))
	assert.Error(t, err)
}

func TestSimulator_MultiplePools_OrderKeepsItsServer(t *testing.T) {
	// GIVEN six single-slot baristas and sixty orders
	cfg := Config{
		NumEntities: 60,
		Horizon:     5000,
		Resources: map[string]int{
			"Barista A": 1, "Barista B": 1, "Barista C": 1,
			"Barista D": 1, "Barista E": 1, "Barista F": 1,
		},
		Activities: []Activity{
			{Name: "Seated", Duration: uniform(1, 3)},
			{Name: "Order Taken", Duration: uniform(2, 5)},
		},
		Seed: 7,
	}

	// WHEN the run drains
	s := mustRun(t, cfg)

	// THEN every order used a single server and all servers were used
	servers := map[int]string{}
	used := map[string]bool{}
	for _, r := range s.Records() {
		if prev, ok := servers[r.EntityID]; ok {
			assert.Equal(t, prev, r.Server, "order %d changed server", r.EntityID)
		}
		servers[r.EntityID] = r.Server
		used[r.Server] = true
	}
	assert.Len(t, used, 6)
	assert.Equal(t, 60, s.Metrics().Completed)
	assert.Len(t, s.Pools(), 6)
	assert.Equal(t, "Barista A", s.Pools()[0].Name())
}

type everyMinutes int64

func (e everyMinutes) SampleIAT(*rand.Rand) int64 { return int64(e) }

func TestSimulator_GeneratedArrivals_SelfReschedule(t *testing.T) {
	cfg := singlePoolConfig(1, 100, 1)

	s := mustRun(t, cfg, WithArrivals(GeneratedArrivals(3, everyMinutes(4))))

	require.Len(t, s.Processes(), 3)
	for i, p := range s.Processes() {
		assert.Equal(t, int64(4*i), p.ArrivalTime)
		assert.Equal(t, StateCompleted, p.State)
	}
}

func TestSimulator_GeneratedArrivals_StopAtHorizon(t *testing.T) {
	cfg := singlePoolConfig(1, 10, 1)

	s := mustRun(t, cfg, WithArrivals(GeneratedArrivals(100, everyMinutes(5))))

	// arrivals at 0, 5 and 10 only
	assert.Len(t, s.Processes(), 3)
}

func TestSimulator_StaggeredArrivals_WithinWindow(t *testing.T) {
	cfg := singlePoolConfig(2, 1000, 3)

	s := mustRun(t, cfg, WithArrivals(StaggeredArrivals(20, 30)))

	require.Len(t, s.Processes(), 20)
	for _, p := range s.Processes() {
		assert.GreaterOrEqual(t, p.ArrivalTime, int64(0))
		assert.LessOrEqual(t, p.ArrivalTime, int64(30))
	}
}

func TestSimulator_FixedArrivals_NegativeTime_Aborts(t *testing.T) {
	s, err := NewSimulator(singlePoolConfig(1, 10, 1), WithArrivals(FixedArrivals(3, -1)))
	require.NoError(t, err)

	var cfgErr *ConfigurationError
	assert.ErrorAs(t, s.Run(), &cfgErr)
	assert.Empty(t, s.Processes())
}

func runToCSV(t *testing.T, seed int64) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := trace.NewCSVWriter(&buf, trace.DefaultStartTime)
	require.NoError(t, err)
	cfg := Config{
		NumEntities: 200,
		Horizon:     400,
		Resources:   map[string]int{"Barista A": 1, "Barista B": 2, "Barista C": 1},
		Activities: []Activity{
			{Name: "Seated", Duration: uniform(1, 3)},
			{Name: "Order Taken", Duration: uniform(2, 5)},
			{Name: "Bill Paid", Duration: uniform(1, 3)},
		},
		Seed: seed,
	}
	mustRun(t, cfg, WithSink(w), WithArrivals(StaggeredArrivals(200, 300)), WithProfiles(randomProfiles(seed)))
	require.NoError(t, w.Flush())
	return buf.Bytes()
}

func TestSimulator_SameSeed_ByteIdenticalTrace(t *testing.T) {
	a := runToCSV(t, 11)
	b := runToCSV(t, 11)
	c := runToCSV(t, 12)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestSimulator_RunID_UniqueUnlessGiven(t *testing.T) {
	cfg := singlePoolConfig(1, 10, 1)
	a, err := NewSimulator(cfg)
	require.NoError(t, err)
	b, err := NewSimulator(cfg)
	require.NoError(t, err)
	assert.NotEqual(t, a.RunID(), b.RunID())

	id := xid.New()
	c, err := NewSimulator(cfg, WithRunID(id))
	require.NoError(t, err)
	assert.Equal(t, id.String(), c.RunID())
}

func TestSimulator_ArrivalAfterHorizon_NotCountedUnfinished(t *testing.T) {
	// GIVEN a second order scheduled to arrive after the horizon
	cfg := singlePoolConfig(1, 10, 1)

	// WHEN the run drains
	s := mustRun(t, cfg, WithArrivals(FixedArrivals(0, 50)))

	// THEN the late order never arrived and is not unfinished
	m := s.Metrics()
	assert.Equal(t, 1, m.Arrived)
	assert.Equal(t, 1, m.Completed)
	assert.Equal(t, 0, m.Unfinished)
	assert.Equal(t, 1, m.EventsDiscarded)
	assert.Equal(t, StatePending, s.Processes()[1].State)
}

func TestSimulator_QueuedAndServedAtHorizon_CountedUnfinished(t *testing.T) {
	// GIVEN one slot busy past the horizon and a second order waiting for it
	cfg := singlePoolConfig(1, 10, 20)
	cfg.NumEntities = 2

	s := mustRun(t, cfg)

	// THEN both are left mid-pipeline
	assert.Equal(t, StateInService, s.Processes()[0].State)
	assert.Equal(t, StateWaiting, s.Processes()[1].State)
	assert.Equal(t, 2, s.Metrics().Unfinished)
}

func TestSimulator_InvalidProfile_AbortsWithConfigurationError(t *testing.T) {
	tests := []struct {
		name    string
		profile CaseProfile
	}{
		{"unknown case type", CaseProfile{CaseType: "bogus", QMax: 3, WMax: 5}},
		{"wmax below NoLimit", CaseProfile{CaseType: Rushed, QMax: 3, WMax: -5}},
		{"qmax below NoLimit", CaseProfile{CaseType: Relaxed, QMax: -2, WMax: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN a profile source handing out an invalid profile
			cfg := singlePoolConfig(1, 100, 5)
			cfg.NumEntities = 2
			s, err := NewSimulator(cfg, WithProfiles(FixedProfile(tt.profile)))
			require.NoError(t, err)

			// WHEN the first order arrives
			err = s.Run()

			// THEN the run aborts naming the order, before any timer is scheduled
			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, "profiles", cfgErr.Field)
			assert.Contains(t, cfgErr.Reason, "order 0")
			assert.False(t, errors.Is(err, ErrCausalityViolation))
			assert.Equal(t, RunAborted, s.State())
			assert.Empty(t, s.Records())
		})
	}
}
