package sim

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// ArrivalPolicy seeds the arrivals of a run. Seed is called once, before the
// first event is dispatched.
type ArrivalPolicy interface {
	Seed(sim *Simulator) error
}

// IATSampler draws inter-arrival times in minutes.
type IATSampler interface {
	SampleIAT(rng *rand.Rand) int64
}

type allAtOnce struct {
	n int
}

// AllAtOnce creates n orders that all arrive at time 0, in id order.
func AllAtOnce(n int) ArrivalPolicy {
	return allAtOnce{n: n}
}

func (a allAtOnce) Seed(sim *Simulator) error {
	for i := 0; i < a.n; i++ {
		sim.scheduleArrival(0)
	}
	return nil
}

type fixedArrivals struct {
	times []int64
}

// FixedArrivals creates one order per entry, arriving at the given time.
// Order ids follow the slice order.
func FixedArrivals(times ...int64) ArrivalPolicy {
	return fixedArrivals{times: times}
}

func (f fixedArrivals) Seed(sim *Simulator) error {
	for i, t := range f.times {
		if t < 0 {
			return configErrorf("arrivals", "arrival %d at negative time %d", i, t)
		}
	}
	for _, t := range f.times {
		sim.scheduleArrival(t)
	}
	return nil
}

type staggeredArrivals struct {
	n      int
	window int64
}

// StaggeredArrivals creates n orders with start times drawn uniformly from
// [0, window].
func StaggeredArrivals(n int, window int64) ArrivalPolicy {
	return staggeredArrivals{n: n, window: window}
}

func (s staggeredArrivals) Seed(sim *Simulator) error {
	if s.window < 0 {
		return configErrorf("arrivals.window", "must be non-negative, got %d", s.window)
	}
	rng := sim.rng.ForSubsystem(SubsystemArrivals)
	for i := 0; i < s.n; i++ {
		sim.scheduleArrival(rng.Int63n(s.window + 1))
	}
	return nil
}

type generatedArrivals struct {
	n       int
	sampler IATSampler
}

// GeneratedArrivals creates n orders, the first at time 0 and each following
// one an inter-arrival time after the previous. Arrivals are generated lazily
// by an event that reschedules itself, so orders beyond the horizon are never
// created.
func GeneratedArrivals(n int, sampler IATSampler) ArrivalPolicy {
	return generatedArrivals{n: n, sampler: sampler}
}

func (g generatedArrivals) Seed(sim *Simulator) error {
	if g.sampler == nil {
		return configErrorf("arrivals.process", "inter-arrival sampler is required")
	}
	if g.n > 0 {
		sim.queue.ScheduleAt(0, PriorityDefault, &generatorEvent{remaining: g.n, sampler: g.sampler})
	}
	return nil
}

// generatorEvent creates one order at the current time and schedules the next.
type generatorEvent struct {
	remaining int
	sampler   IATSampler
}

func (e *generatorEvent) Execute(sim *Simulator) error {
	p := sim.newProcess()
	if err := sim.arrive(p); err != nil {
		return err
	}
	e.remaining--
	if e.remaining == 0 {
		return nil
	}
	iat := e.sampler.SampleIAT(sim.rng.ForSubsystem(SubsystemArrivals))
	if iat < 0 {
		return fmt.Errorf("inter-arrival sampler %T returned negative time %d", e.sampler, iat)
	}
	logrus.Debugf("next arrival in %d minutes", iat)
	sim.queue.Schedule(iat, e)
	return nil
}
