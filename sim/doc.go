// Package sim provides the discrete-event simulation engine for servsim.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - event.go: the clock and the (time, priority, sequence) event queue with cancellable handles
//   - resource.go: capacity-bounded server pools with a FIFO wait queue
//   - process.go: the per-order state machine (arrived → waiting → in service → completed)
//   - simulator.go: the driver loop, horizon handling and run state
//
// # Patience
//
// A CaseProfile (patience.go) decides whether an arriving order balks because the
// queue is too long, and how long it is willing to wait before reneging. The renege
// timer is an ordinary cancellable event: a grant cancels it, and the timer firing
// is proof that no grant happened.
//
// # Architecture
//
// The sim package defines interfaces and the engine; collaborators live in
// sub-packages:
//   - sim/workload/: inter-arrival and duration samplers, case profiles, scenario files
//   - sim/trace/: activity records, sinks, exporters and summary statistics
//   - sim/monitoring/: HTTP view of a finished run
//
// The engine is single-threaded. Nothing in this package is safe for concurrent use.
package sim
