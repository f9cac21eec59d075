// Package trace provides the activity trace emitted by a simulation run and the
// collaborators that consume it (exporters, statistics, flow graph).
// This package has no dependencies on sim/ and stores pure data types.
package trace

import "fmt"

// RecordKind distinguishes ordinary activity completions from terminal
// abandonment records.
type RecordKind string

const (
	// KindActivity marks the completion of a timed activity.
	KindActivity RecordKind = "activity"
	// KindBalk marks a customer that refused to join the wait queue.
	KindBalk RecordKind = "balk"
	// KindRenege marks a customer that left the wait queue before service.
	KindRenege RecordKind = "renege"
)

// Activity names used for terminal abandonment records.
const (
	ActivityBalked  = "Balked"
	ActivityReneged = "Reneged"
)

// ActivityRecord captures one entry of the trace.
// Records are produced in non-decreasing Time order.
type ActivityRecord struct {
	Time     int64      `json:"time"` // simulated minutes since the start of the run
	EntityID int        `json:"entity_id"`
	Activity string     `json:"activity"`
	Server   string     `json:"server"`
	Kind     RecordKind `json:"kind"`
}

func (r ActivityRecord) String() string {
	return fmt.Sprintf("[%d] order %d: %s (%s)", r.Time, r.EntityID, r.Activity, r.Server)
}

// Terminal reports whether the record ends the entity's life without service.
func (r ActivityRecord) Terminal() bool {
	return r.Kind == KindBalk || r.Kind == KindRenege
}

// Sink is an append-only consumer of activity records.
type Sink interface {
	Append(record ActivityRecord) error
}
