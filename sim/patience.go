package sim

import "fmt"

// CaseType classifies how patient a customer is.
type CaseType string

const (
	Relaxed CaseType = "relaxed"
	Rushed  CaseType = "rushed"
)

// NoLimit disables a patience threshold.
const NoLimit = -1

// CaseProfile holds the patience thresholds of one customer. It is assigned
// at arrival and never changes afterwards.
type CaseProfile struct {
	CaseType CaseType `json:"casetype" yaml:"casetype"`
	// QMax is the queue length at which the customer refuses to wait.
	QMax int `json:"qmax" yaml:"qmax"`
	// WMax is the longest wait, in minutes, the customer accepts.
	WMax int64 `json:"wmax" yaml:"wmax"`
}

// Unlimited is the profile of a customer who never balks and never reneges.
var Unlimited = CaseProfile{CaseType: Relaxed, QMax: NoLimit, WMax: NoLimit}

// Balks reports whether a customer arriving at a pool walks away instead of
// joining its queue. A customer only balks when no slot is free and the queue
// already holds at least QMax processes.
func (p CaseProfile) Balks(queueLen int, slotFree bool) bool {
	if slotFree || p.QMax == NoLimit {
		return false
	}
	return queueLen >= p.QMax
}

// RenegeAfter returns how long the customer waits in the queue before leaving.
// The boolean is false when the customer waits forever.
func (p CaseProfile) RenegeAfter() (int64, bool) {
	if p.WMax == NoLimit {
		return 0, false
	}
	return p.WMax, true
}

// Validate checks the thresholds are NoLimit or non-negative.
func (p CaseProfile) Validate() error {
	if p.CaseType != Relaxed && p.CaseType != Rushed {
		return fmt.Errorf("unknown case type %q", p.CaseType)
	}
	if p.QMax < NoLimit {
		return fmt.Errorf("qmax must be non-negative or %d, got %d", NoLimit, p.QMax)
	}
	if p.WMax < NoLimit {
		return fmt.Errorf("wmax must be non-negative or %d, got %d", NoLimit, p.WMax)
	}
	return nil
}

// ProfileSource hands out the profile of each arriving entity.
type ProfileSource interface {
	Profile(entityID int) CaseProfile
}

// SeededProfileSource is a ProfileSource that draws from the run's random
// streams. NewSimulator binds it to the profiles subsystem of its RNG.
type SeededProfileSource interface {
	ProfileSource
	BindRNG(rng *PartitionedRNG)
}

// ProfileFunc adapts a function to ProfileSource.
type ProfileFunc func(entityID int) CaseProfile

// Profile calls f.
func (f ProfileFunc) Profile(entityID int) CaseProfile { return f(entityID) }

// UnlimitedPatience gives every entity the Unlimited profile.
type UnlimitedPatience struct{}

// Profile returns Unlimited.
func (UnlimitedPatience) Profile(int) CaseProfile { return Unlimited }

// FixedProfile gives every entity the same profile.
func FixedProfile(p CaseProfile) ProfileSource {
	return ProfileFunc(func(int) CaseProfile { return p })
}
