// sim/simulator.go
package sim

import (
	"fmt"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/servsim/sim/trace"
)

// RunState is the lifecycle state of a Simulator.
type RunState string

const (
	RunIdle    RunState = "idle"
	RunRunning RunState = "running"
	RunDrained RunState = "drained"
	// RunAborted means an invariant violation stopped the run.
	RunAborted RunState = "aborted"
)

// Option customizes a Simulator.
type Option func(*Simulator)

// WithSink forwards every trace record to sink in addition to the in-memory trace.
func WithSink(sink trace.Sink) Option {
	return func(s *Simulator) { s.extraSink = sink }
}

// WithProfiles sets the source of case profiles. The default gives every
// order unlimited patience.
func WithProfiles(src ProfileSource) Option {
	return func(s *Simulator) { s.profiles = src }
}

// WithArrivals sets the arrival policy. The default is AllAtOnce(NumEntities).
func WithArrivals(policy ArrivalPolicy) Option {
	return func(s *Simulator) { s.arrivals = policy }
}

// WithRNG replaces the partitioned RNG derived from Config.Seed.
func WithRNG(rng *PartitionedRNG) Option {
	return func(s *Simulator) { s.rng = rng }
}

// WithRunID sets the run id, so that sinks created before the simulator can
// tag their records with it.
func WithRunID(id xid.ID) Option {
	return func(s *Simulator) { s.runID = id }
}

// Simulator is the core object that holds simulation time, the pools, the
// processes and the event loop.
type Simulator struct {
	cfg        Config
	queue      *EventQueue
	pools      map[string]*ResourcePool
	poolNames  []string
	activities []Activity
	processes  []*Process

	profiles  ProfileSource
	arrivals  ArrivalPolicy
	rng       *PartitionedRNG
	records   *trace.MemorySink
	extraSink trace.Sink
	sink      trace.Sink

	metrics *Metrics
	state   RunState
	runID   xid.ID
}

// NewSimulator validates cfg and builds the pools.
// Invalid configurations return a *ConfigurationError.
func NewSimulator(cfg Config, opts ...Option) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Simulator{
		cfg:        cfg,
		queue:      NewEventQueue(),
		pools:      make(map[string]*ResourcePool, len(cfg.Resources)),
		poolNames:  cfg.PoolNames(),
		activities: append([]Activity(nil), cfg.Activities...),
		processes:  make([]*Process, 0, cfg.NumEntities),
		profiles:   UnlimitedPatience{},
		arrivals:   AllAtOnce(cfg.NumEntities),
		rng:        NewPartitionedRNG(NewSimulationKey(cfg.Seed)),
		records:    trace.NewMemorySink(),
		metrics:    NewMetrics(),
		state:      RunIdle,
		runID:      xid.New(),
	}
	for _, name := range s.poolNames {
		pool, err := NewResourcePool(name, cfg.Resources[name])
		if err != nil {
			return nil, err
		}
		s.pools[name] = pool
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.profiles == nil {
		return nil, configErrorf("profiles", "profile source must not be nil")
	}
	if s.arrivals == nil {
		return nil, configErrorf("arrivals", "arrival policy must not be nil")
	}
	if s.rng == nil {
		return nil, configErrorf("random_seed", "rng must not be nil")
	}
	if src, ok := s.profiles.(SeededProfileSource); ok {
		src.BindRNG(s.rng)
	}
	s.sink = s.records
	if s.extraSink != nil {
		s.sink = trace.NewMultiSink(s.records, s.extraSink)
	}
	return s, nil
}

// Run seeds the arrivals and dispatches events until the queue drains or the
// next event lies beyond the horizon. Events exactly at the horizon still run.
// An invariant violation aborts the run and is returned. Run may be called
// only once per Simulator.
func (sim *Simulator) Run() error {
	if sim.state != RunIdle {
		panic(fmt.Sprintf("Run called on a simulator in state %s", sim.state))
	}
	sim.state = RunRunning
	logrus.Infof("[run %s] starting: %d pools, %d activities, horizon %d",
		sim.runID, len(sim.pools), len(sim.activities), sim.cfg.Horizon)

	if err := sim.arrivals.Seed(sim); err != nil {
		return sim.abort(fmt.Errorf("seeding arrivals: %w", err))
	}

	for sim.queue.Len() > 0 {
		at, _ := sim.queue.PeekTime()
		if at > sim.cfg.Horizon {
			sim.metrics.EventsDiscarded = sim.queue.discard()
			logrus.Warnf("[tick %07d] horizon %d reached, discarding %d events",
				sim.queue.Now(), sim.cfg.Horizon, sim.metrics.EventsDiscarded)
			break
		}
		at, ev, err := sim.queue.Next()
		if err != nil {
			return sim.abort(err)
		}
		if err := sim.queue.advance(at); err != nil {
			return sim.abort(err)
		}
		logrus.Debugf("[tick %07d] Executing %T", at, ev)
		if err := ev.Execute(sim); err != nil {
			return sim.abort(fmt.Errorf("executing %T at %d: %w", ev, at, err))
		}
		sim.metrics.EventsProcessed++
	}

	sim.finish()
	sim.state = RunDrained
	logrus.Infof("[tick %07d] Simulation ended: %d completed, %d balked, %d reneged, %d unfinished",
		sim.queue.Now(), sim.metrics.Completed, sim.metrics.Balked, sim.metrics.Reneged, sim.metrics.Unfinished)
	return nil
}

func (sim *Simulator) abort(err error) error {
	sim.finish()
	sim.state = RunAborted
	logrus.Errorf("[tick %07d] Simulation aborted: %v", sim.queue.Now(), err)
	return err
}

func (sim *Simulator) finish() {
	sim.metrics.SimEndedTime = min(sim.queue.Now(), sim.cfg.Horizon)
	sim.metrics.Unfinished = 0
	for _, p := range sim.processes {
		if p.State.InSystem() {
			sim.metrics.Unfinished++
		}
	}
	if sim.metrics.Unfinished > 0 {
		logrus.Warnf("%d orders did not finish before the horizon", sim.metrics.Unfinished)
	}
	sim.metrics.Pools = sim.PoolStatuses()
}

// newProcess registers a process with the next id.
func (sim *Simulator) newProcess() *Process {
	p := &Process{ID: ProcessID(len(sim.processes)), State: StatePending}
	sim.processes = append(sim.processes, p)
	return p
}

// scheduleArrival creates a process arriving at the absolute time at.
func (sim *Simulator) scheduleArrival(at int64) *Process {
	p := sim.newProcess()
	p.ArrivalTime = at
	sim.queue.ScheduleAt(at, PriorityDefault, &arrivalEvent{proc: p})
	return p
}

// choosePool picks the pool of an arriving order uniformly at random. With a
// single pool no random number is drawn.
func (sim *Simulator) choosePool() *ResourcePool {
	if len(sim.poolNames) == 1 {
		return sim.pools[sim.poolNames[0]]
	}
	i := sim.rng.ForSubsystem(SubsystemRouter).Intn(len(sim.poolNames))
	return sim.pools[sim.poolNames[i]]
}

// Events returns the event queue, for events that schedule follow-ups.
func (sim *Simulator) Events() *EventQueue { return sim.queue }

// Clock returns the current simulated time.
func (sim *Simulator) Clock() int64 { return sim.queue.Now() }

// Horizon returns the configured horizon.
func (sim *Simulator) Horizon() int64 { return sim.cfg.Horizon }

// State returns the run state.
func (sim *Simulator) State() RunState { return sim.state }

// RunID returns the unique id of this run.
func (sim *Simulator) RunID() string { return sim.runID.String() }

// Processes returns every process created so far, indexed by id.
func (sim *Simulator) Processes() []*Process { return sim.processes }

// Pool returns the named pool, or nil.
func (sim *Simulator) Pool(name string) *ResourcePool { return sim.pools[name] }

// Pools returns the pools in name order.
func (sim *Simulator) Pools() []*ResourcePool {
	out := make([]*ResourcePool, len(sim.poolNames))
	for i, name := range sim.poolNames {
		out[i] = sim.pools[name]
	}
	return out
}

// PoolStatuses returns a snapshot of every pool in name order.
func (sim *Simulator) PoolStatuses() []PoolStatus {
	out := make([]PoolStatus, len(sim.poolNames))
	for i, name := range sim.poolNames {
		out[i] = sim.pools[name].Status()
	}
	return out
}

// Records returns the trace emitted so far.
func (sim *Simulator) Records() []trace.ActivityRecord { return sim.records.Records() }

// ActivityNames returns the activity names of the trace in first-seen order.
func (sim *Simulator) ActivityNames() []string { return sim.records.ActivityNames() }

// Metrics returns the run metrics.
func (sim *Simulator) Metrics() *Metrics { return sim.metrics }
