package sim

import (
	"container/heap"
	"fmt"
)

// Event is a continuation executed by the driver when its time comes.
// Execute may schedule further events. A returned error aborts the run.
type Event interface {
	Execute(*Simulator) error
}

// EventFunc adapts a plain function to the Event interface.
type EventFunc func(*Simulator) error

// Execute calls f.
func (f EventFunc) Execute(sim *Simulator) error { return f(sim) }

// Event priorities break ties between events scheduled for the same minute.
// Lower values run first.
const (
	PriorityDefault = 0
	// PriorityRenege runs renege timers after every other event of the same
	// minute, so a slot freed at the deadline is still granted.
	PriorityRenege = 1
)

// EventHandle identifies a scheduled event. It is returned by Schedule and
// ScheduleAt and can be passed to Cancel.
type EventHandle struct {
	at       int64
	priority int
	seq      uint64
	event    Event
	index    int // position in the heap, -1 once popped or cancelled
}

// Time returns the time the event is scheduled for.
func (h *EventHandle) Time() int64 { return h.at }

// Pending reports whether the event is still queued.
func (h *EventHandle) Pending() bool { return h != nil && h.index >= 0 }

// eventHeap implements heap.Interface.
// Ordering: time → priority → sequence.
type eventHeap []*EventHandle

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *eventHeap) Push(x any) {
	e := x.(*EventHandle)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// EventQueue holds the clock and every pending event.
type EventQueue struct {
	now    int64
	seq    uint64
	events eventHeap
}

// NewEventQueue creates an empty queue with the clock at 0.
func NewEventQueue() *EventQueue {
	return &EventQueue{events: make(eventHeap, 0)}
}

// Now returns the current simulated time.
func (q *EventQueue) Now() int64 { return q.now }

// Len returns the number of pending events.
func (q *EventQueue) Len() int { return len(q.events) }

// Schedule registers ev at Now()+delay with the default priority.
// A negative delay is a programming error and panics.
func (q *EventQueue) Schedule(delay int64, ev Event) *EventHandle {
	if delay < 0 {
		panic(fmt.Sprintf("Schedule: negative delay %d", delay))
	}
	return q.ScheduleAt(q.now+delay, PriorityDefault, ev)
}

// ScheduleAt registers ev at an absolute time. The time is not checked against
// the clock; the driver reports events in the past when they are dispatched.
func (q *EventQueue) ScheduleAt(at int64, priority int, ev Event) *EventHandle {
	if ev == nil {
		panic("ScheduleAt: ev must not be nil")
	}
	h := &EventHandle{at: at, priority: priority, seq: q.seq, event: ev}
	q.seq++
	heap.Push(&q.events, h)
	return h
}

// PeekTime returns the time of the next event without removing it.
func (q *EventQueue) PeekTime() (int64, bool) {
	if len(q.events) == 0 {
		return 0, false
	}
	return q.events[0].at, true
}

// Next removes and returns the lowest (time, priority, sequence) event.
// It does not move the clock. Returns ErrEmpty when nothing is queued.
func (q *EventQueue) Next() (int64, Event, error) {
	if len(q.events) == 0 {
		return 0, nil, ErrEmpty
	}
	h := heap.Pop(&q.events).(*EventHandle)
	return h.at, h.event, nil
}

// Cancel removes a pending event. It returns true only if this call removed
// it; cancelling a fired or already cancelled event is a no-op returning false.
func (q *EventQueue) Cancel(h *EventHandle) bool {
	if !h.Pending() || h.index >= len(q.events) || q.events[h.index] != h {
		return false
	}
	heap.Remove(&q.events, h.index)
	return true
}

// advance moves the clock to t.
func (q *EventQueue) advance(t int64) error {
	if t < q.now {
		return fmt.Errorf("%w: event at %d, clock at %d", ErrCausalityViolation, t, q.now)
	}
	q.now = t
	return nil
}

// discard drops every pending event and returns how many were dropped.
func (q *EventQueue) discard() int {
	n := len(q.events)
	for _, h := range q.events {
		h.index = -1
	}
	q.events = q.events[:0]
	return n
}
