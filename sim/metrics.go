// Tracks run-wide outcome counts and queueing statistics.

package sim

import (
	"fmt"
	"io"
)

// Metrics aggregates statistics about the run for final reporting.
type Metrics struct {
	Arrived    int // orders that reached arrival
	Balked     int // orders that refused to queue
	Reneged    int // orders that left the queue
	Completed  int // orders that finished every activity
	Unfinished int // orders still queued or in service at the horizon

	GrantedCount int   // orders that obtained a slot
	TotalWait    int64 // sum of arrival-to-grant waits of granted orders
	MaxWait      int64 // longest arrival-to-grant wait

	EventsProcessed int
	EventsDiscarded int   // events scheduled after the horizon
	SimEndedTime    int64 // clock value when the run stopped

	Pools []PoolStatus // per-pool snapshot taken when the run stopped
}

// NewMetrics creates an empty Metrics.
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) recordWait(wait int64) {
	m.GrantedCount++
	m.TotalWait += wait
	m.MaxWait = max(m.MaxWait, wait)
}

// MeanWait returns the mean arrival-to-grant wait of granted orders.
func (m *Metrics) MeanWait() float64 {
	if m.GrantedCount == 0 {
		return 0
	}
	return float64(m.TotalWait) / float64(m.GrantedCount)
}

// Print writes the aggregated metrics to w.
func (m *Metrics) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Arrived Orders       : %d\n", m.Arrived)
	fmt.Fprintf(w, "Completed Orders     : %d\n", m.Completed)
	fmt.Fprintf(w, "Balked Orders        : %d\n", m.Balked)
	fmt.Fprintf(w, "Reneged Orders       : %d\n", m.Reneged)
	fmt.Fprintf(w, "Unfinished Orders    : %d\n", m.Unfinished)
	if m.GrantedCount > 0 {
		fmt.Fprintf(w, "Average Wait         : %.2f min\n", m.MeanWait())
		fmt.Fprintf(w, "Max Wait             : %d min\n", m.MaxWait)
	}
	fmt.Fprintf(w, "Events Processed     : %d\n", m.EventsProcessed)
	if m.EventsDiscarded > 0 {
		fmt.Fprintf(w, "Events After Horizon : %d\n", m.EventsDiscarded)
	}
	fmt.Fprintf(w, "Simulation Ended At  : %d min\n", m.SimEndedTime)
	for _, p := range m.Pools {
		fmt.Fprintf(w, "Pool %-16s: capacity %d, grants %d, peak busy %d, peak queue %d\n",
			p.Name, p.Capacity, p.Grants, p.PeakBusy, p.PeakQueueLen)
	}
}
