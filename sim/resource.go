package sim

import (
	"fmt"
	"sort"
)

// GrantFunc is the continuation of a waiting process. The pool calls it from
// Release when the process is handed the freed slot.
type GrantFunc func() error

// RequestResult is the outcome of ResourcePool.Request.
type RequestResult int

const (
	// Granted means the process holds a slot as of the call.
	Granted RequestResult = iota
	// Pending means the process joined the wait queue; its GrantFunc runs later.
	Pending
)

func (r RequestResult) String() string {
	switch r {
	case Granted:
		return "granted"
	case Pending:
		return "pending"
	default:
		return fmt.Sprintf("RequestResult(%d)", int(r))
	}
}

// PoolStatus is a point-in-time view of a pool.
type PoolStatus struct {
	Name         string `json:"name"`
	Capacity     int    `json:"capacity"`
	Busy         int    `json:"busy"`
	Queued       int    `json:"queued"`
	Grants       int    `json:"grants"`
	PeakBusy     int    `json:"peak_busy"`
	PeakQueueLen int    `json:"peak_queue_len"`
}

// ResourcePool is a set of identical slots (a barista, a waiter) with a FIFO
// wait queue. A process is in at most one of the busy set and the wait queue,
// and a free slot always implies an empty wait queue.
type ResourcePool struct {
	name      string
	capacity  int
	busy      map[ProcessID]struct{}
	waitQ     *WaitQueue
	grants    int
	peakBusy  int
	peakQueue int
}

// NewResourcePool creates a pool with capacity slots.
func NewResourcePool(name string, capacity int) (*ResourcePool, error) {
	if name == "" {
		return nil, configErrorf("resources", "pool name must not be empty")
	}
	if capacity <= 0 {
		return nil, configErrorf("resources."+name, "capacity must be positive, got %d", capacity)
	}
	return &ResourcePool{
		name:     name,
		capacity: capacity,
		busy:     make(map[ProcessID]struct{}, capacity),
		waitQ:    &WaitQueue{},
	}, nil
}

// Request asks for a slot. With a free slot the process is granted at once and
// onGrant is not called. Otherwise the process joins the back of the wait queue
// and onGrant runs when a Release hands it a slot.
// Requesting twice for the same process panics.
func (p *ResourcePool) Request(pid ProcessID, onGrant GrantFunc) RequestResult {
	if p.IsBusy(pid) || p.IsWaiting(pid) {
		panic(fmt.Sprintf("Request: process %d already holds or awaits a slot of %s", pid, p.name))
	}
	if len(p.busy) < p.capacity {
		p.occupy(pid)
		return Granted
	}
	if onGrant == nil {
		panic("Request: onGrant must not be nil")
	}
	p.waitQ.Enqueue(pid, onGrant)
	p.peakQueue = max(p.peakQueue, p.waitQ.Len())
	return Pending
}

// Release frees the slot held by pid. If processes are waiting, the head of
// the queue is granted the slot and its GrantFunc is called; its error is returned.
func (p *ResourcePool) Release(pid ProcessID) error {
	if !p.IsBusy(pid) {
		return fmt.Errorf("pool %s, process %d: %w", p.name, pid, ErrInvalidRelease)
	}
	delete(p.busy, pid)

	next, ok := p.waitQ.dequeue()
	if !ok {
		return nil
	}
	p.occupy(next.pid)
	return next.onGrant()
}

// Withdraw removes a waiting process from the queue. Returns false if pid was
// not waiting.
func (p *ResourcePool) Withdraw(pid ProcessID) bool {
	return p.waitQ.Remove(pid)
}

func (p *ResourcePool) occupy(pid ProcessID) {
	p.busy[pid] = struct{}{}
	p.grants++
	p.peakBusy = max(p.peakBusy, len(p.busy))
}

// Name returns the pool name, which doubles as the server id in the trace.
func (p *ResourcePool) Name() string { return p.name }

// Capacity returns the number of slots.
func (p *ResourcePool) Capacity() int { return p.capacity }

// BusyCount returns the number of occupied slots.
func (p *ResourcePool) BusyCount() int { return len(p.busy) }

// QueueLen returns the number of waiting processes.
func (p *ResourcePool) QueueLen() int { return p.waitQ.Len() }

// HasFreeSlot reports whether a request would be granted immediately.
func (p *ResourcePool) HasFreeSlot() bool { return len(p.busy) < p.capacity }

// IsBusy reports whether pid holds a slot.
func (p *ResourcePool) IsBusy(pid ProcessID) bool {
	_, ok := p.busy[pid]
	return ok
}

// IsWaiting reports whether pid is in the wait queue.
func (p *ResourcePool) IsWaiting(pid ProcessID) bool { return p.waitQ.Contains(pid) }

// Waiting returns the waiting processes in grant order.
func (p *ResourcePool) Waiting() []ProcessID { return p.waitQ.IDs() }

// Holders returns the processes holding a slot, in ascending id order.
func (p *ResourcePool) Holders() []ProcessID {
	ids := make([]ProcessID, 0, len(p.busy))
	for pid := range p.busy {
		ids = append(ids, pid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Grants returns the number of slots handed out so far.
func (p *ResourcePool) Grants() int { return p.grants }

// PeakBusy returns the highest number of simultaneously occupied slots.
func (p *ResourcePool) PeakBusy() int { return p.peakBusy }

// PeakQueueLen returns the longest the wait queue has been.
func (p *ResourcePool) PeakQueueLen() int { return p.peakQueue }

// Status returns a snapshot of the pool.
func (p *ResourcePool) Status() PoolStatus {
	return PoolStatus{
		Name:         p.name,
		Capacity:     p.capacity,
		Busy:         len(p.busy),
		Queued:       p.waitQ.Len(),
		Grants:       p.grants,
		PeakBusy:     p.peakBusy,
		PeakQueueLen: p.peakQueue,
	}
}
