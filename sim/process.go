package sim

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/servsim/sim/trace"
)

// ProcessID identifies an order. IDs are assigned in arrival-scheduling order
// starting at 0 and double as the "Order Number" of the trace.
type ProcessID int

// ProcessState is the lifecycle state of a process.
type ProcessState string

const (
	// StatePending is an order whose arrival is scheduled but has not happened.
	StatePending   ProcessState = "pending"
	StateArrived   ProcessState = "arrived"
	StateBalked    ProcessState = "balked"
	StateWaiting   ProcessState = "waiting"
	StateInService ProcessState = "in_service"
	StateReneged   ProcessState = "reneged"
	StateCompleted ProcessState = "completed"
)

// Terminal reports whether no further transition can happen.
func (s ProcessState) Terminal() bool {
	return s == StateBalked || s == StateReneged || s == StateCompleted
}

// InSystem reports whether the order has arrived and is queued or in service.
func (s ProcessState) InSystem() bool {
	return s == StateWaiting || s == StateInService
}

// DurationSampler draws the duration of one activity, in minutes.
type DurationSampler interface {
	Sample(rng *rand.Rand) int64
}

// DurationFunc adapts a function to DurationSampler.
type DurationFunc func(rng *rand.Rand) int64

// Sample calls f.
func (f DurationFunc) Sample(rng *rand.Rand) int64 { return f(rng) }

// FixedDuration always lasts the same number of minutes.
type FixedDuration int64

// Sample returns d.
func (d FixedDuration) Sample(*rand.Rand) int64 { return int64(d) }

// Activity is one named, timed step of the pipeline.
type Activity struct {
	Name     string
	Duration DurationSampler
}

// Process is one order travelling through the activity pipeline.
// It is only mutated by events dispatched by the Simulator.
type Process struct {
	ID      ProcessID
	Profile CaseProfile
	State   ProcessState
	// ActivityIndex is the activity in progress, or the number of activities
	// once the pipeline finished.
	ActivityIndex int
	// Pool is the name of the pool chosen at arrival. Empty until arrival.
	Pool        string
	ArrivalTime int64
	GrantTime   int64 // valid once the process was granted
	EndTime     int64 // valid once State is terminal

	renege *EventHandle
}

func (p *Process) String() string {
	return fmt.Sprintf("process %d (%s, %s)", p.ID, p.State, p.Pool)
}

// Granted reports whether the process ever obtained a slot.
func (p *Process) Granted() bool {
	return p.State == StateInService || p.State == StateCompleted
}

// Wait returns the time spent in the wait queue. For processes still waiting
// it is measured up to now.
func (p *Process) Wait(now int64) int64 {
	switch p.State {
	case StateInService, StateCompleted:
		return p.GrantTime - p.ArrivalTime
	case StateReneged:
		return p.EndTime - p.ArrivalTime
	case StateWaiting:
		return now - p.ArrivalTime
	default:
		return 0
	}
}

// arrivalEvent brings a new process into the system.
type arrivalEvent struct {
	proc *Process
}

func (e *arrivalEvent) Execute(sim *Simulator) error {
	return sim.arrive(e.proc)
}

// activityDoneEvent fires when the current activity of a process completes.
type activityDoneEvent struct {
	proc *Process
}

func (e *activityDoneEvent) Execute(sim *Simulator) error {
	return sim.finishActivity(e.proc)
}

// renegeEvent fires when a waiting process runs out of patience. It is
// cancelled when the process is granted, so executing it proves no grant happened.
type renegeEvent struct {
	proc *Process
}

func (e *renegeEvent) Execute(sim *Simulator) error {
	return sim.renege(e.proc)
}

// arrive assigns the profile and pool, then either balks, starts service or
// joins the wait queue with a renege timer.
func (sim *Simulator) arrive(p *Process) error {
	now := sim.queue.Now()
	p.ArrivalTime = now
	p.State = StateArrived
	p.Profile = sim.profiles.Profile(int(p.ID))
	if err := p.Profile.Validate(); err != nil {
		return configErrorf("profiles", "order %d: %v", p.ID, err)
	}
	pool := sim.choosePool()
	p.Pool = pool.Name()
	sim.metrics.Arrived++
	logrus.Debugf("<< Arrival: order %d at %d (%s, qmax=%d, wmax=%d) -> %s",
		p.ID, now, p.Profile.CaseType, p.Profile.QMax, p.Profile.WMax, p.Pool)

	if p.Profile.Balks(pool.QueueLen(), pool.HasFreeSlot()) {
		p.State = StateBalked
		p.EndTime = now
		sim.metrics.Balked++
		return sim.emit(p, trace.ActivityBalked, trace.KindBalk)
	}

	switch pool.Request(p.ID, func() error { return sim.grant(p) }) {
	case Granted:
		return sim.grant(p)
	default:
		p.State = StateWaiting
		if wmax, ok := p.Profile.RenegeAfter(); ok {
			p.renege = sim.queue.ScheduleAt(now+wmax, PriorityRenege, &renegeEvent{proc: p})
		}
		return nil
	}
}

// grant moves a process into service. A pending renege timer must still be in
// the queue; failing to cancel it means the process already reneged.
func (sim *Simulator) grant(p *Process) error {
	if p.renege != nil && !sim.queue.Cancel(p.renege) {
		return fmt.Errorf("order %d granted a slot of %s after its renege timer fired", p.ID, p.Pool)
	}
	p.State = StateInService
	p.GrantTime = sim.queue.Now()
	sim.metrics.recordWait(p.GrantTime - p.ArrivalTime)
	return sim.startActivity(p)
}

// startActivity schedules the completion of the current activity, or ends the
// pipeline when every activity is done.
func (sim *Simulator) startActivity(p *Process) error {
	if p.ActivityIndex >= len(sim.activities) {
		return sim.complete(p)
	}
	a := sim.activities[p.ActivityIndex]
	d := a.Duration.Sample(sim.rng.ForSubsystem(SubsystemDurations))
	if d < 0 {
		return fmt.Errorf("activity %q of order %d sampled negative duration %d", a.Name, p.ID, d)
	}
	sim.queue.Schedule(d, &activityDoneEvent{proc: p})
	return nil
}

func (sim *Simulator) finishActivity(p *Process) error {
	if err := sim.emit(p, sim.activities[p.ActivityIndex].Name, trace.KindActivity); err != nil {
		return err
	}
	p.ActivityIndex++
	return sim.startActivity(p)
}

// complete releases the slot, which may synchronously grant the next waiter.
func (sim *Simulator) complete(p *Process) error {
	p.State = StateCompleted
	p.EndTime = sim.queue.Now()
	sim.metrics.Completed++
	logrus.Debugf("order %d completed at %d on %s", p.ID, p.EndTime, p.Pool)
	return sim.pools[p.Pool].Release(p.ID)
}

func (sim *Simulator) renege(p *Process) error {
	if !sim.pools[p.Pool].Withdraw(p.ID) {
		return fmt.Errorf("renege timer fired for order %d which is not waiting on %s", p.ID, p.Pool)
	}
	p.State = StateReneged
	p.EndTime = sim.queue.Now()
	sim.metrics.Reneged++
	return sim.emit(p, trace.ActivityReneged, trace.KindRenege)
}

func (sim *Simulator) emit(p *Process, activity string, kind trace.RecordKind) error {
	record := trace.ActivityRecord{
		Time:     sim.queue.Now(),
		EntityID: int(p.ID),
		Activity: activity,
		Server:   p.Pool,
		Kind:     kind,
	}
	if err := sim.sink.Append(record); err != nil {
		return fmt.Errorf("trace sink: %w", err)
	}
	return nil
}
