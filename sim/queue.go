// Implements the WaitQueue, which holds the processes waiting for a pool slot.
// Processes are enqueued when they arrive at a busy pool.

package sim

import (
	"fmt"
	"strings"
)

// waiter is a process parked in a wait queue together with its grant continuation.
type waiter struct {
	pid     ProcessID
	onGrant GrantFunc
}

// WaitQueue is a FIFO queue of processes waiting for a slot.
// Grants are strictly in enqueue order; there is no priority by case type.
type WaitQueue struct {
	queue []waiter
}

// Enqueue adds a process to the back of the wait queue.
func (wq *WaitQueue) Enqueue(pid ProcessID, onGrant GrantFunc) {
	wq.queue = append(wq.queue, waiter{pid: pid, onGrant: onGrant})
}

func (wq *WaitQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, w := range wq.queue {
		sb.WriteString(fmt.Sprint(w.pid))
		if i < len(wq.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// Len returns the number of waiting processes.
func (wq *WaitQueue) Len() int {
	return len(wq.queue)
}

// Peek returns the process at the front of the queue.
// The boolean is false if the queue is empty.
func (wq *WaitQueue) Peek() (ProcessID, bool) {
	if len(wq.queue) == 0 {
		return 0, false
	}
	return wq.queue[0].pid, true
}

// Contains reports whether pid is waiting.
func (wq *WaitQueue) Contains(pid ProcessID) bool {
	return wq.indexOf(pid) >= 0
}

// IDs returns the waiting processes in queue order.
func (wq *WaitQueue) IDs() []ProcessID {
	ids := make([]ProcessID, len(wq.queue))
	for i, w := range wq.queue {
		ids[i] = w.pid
	}
	return ids
}

// Remove takes pid out of the queue, keeping the order of the others.
// Returns false if pid was not waiting.
func (wq *WaitQueue) Remove(pid ProcessID) bool {
	i := wq.indexOf(pid)
	if i < 0 {
		return false
	}
	wq.queue = append(wq.queue[:i], wq.queue[i+1:]...)
	return true
}

// dequeue removes the waiter at the front of the queue.
func (wq *WaitQueue) dequeue() (waiter, bool) {
	if len(wq.queue) == 0 {
		return waiter{}, false
	}
	w := wq.queue[0]
	wq.queue = wq.queue[1:]
	return w, true
}

func (wq *WaitQueue) indexOf(pid ProcessID) int {
	for i, w := range wq.queue {
		if w.pid == pid {
			return i
		}
	}
	return -1
}
