package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcessState_Terminal(t *testing.T) {
	for _, s := range []ProcessState{StateBalked, StateReneged, StateCompleted} {
		assert.True(t, s.Terminal(), s)
	}
	for _, s := range []ProcessState{StatePending, StateArrived, StateWaiting, StateInService} {
		assert.False(t, s.Terminal(), s)
	}
}

func TestProcessState_InSystem(t *testing.T) {
	for _, s := range []ProcessState{StateWaiting, StateInService} {
		assert.True(t, s.InSystem(), s)
	}
	for _, s := range []ProcessState{StatePending, StateArrived, StateBalked, StateReneged, StateCompleted} {
		assert.False(t, s.InSystem(), s)
	}
}

func TestProcess_Wait(t *testing.T) {
	tests := []struct {
		name string
		p    Process
		now  int64
		want int64
	}{
		{"in service", Process{State: StateInService, ArrivalTime: 2, GrantTime: 9}, 20, 7},
		{"still waiting", Process{State: StateWaiting, ArrivalTime: 2}, 20, 18},
		{"reneged", Process{State: StateReneged, ArrivalTime: 2, EndTime: 5}, 20, 3},
		{"balked", Process{State: StateBalked, ArrivalTime: 2, EndTime: 2}, 20, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.Wait(tt.now))
		})
	}
}

func TestDurationSamplers(t *testing.T) {
	assert.Equal(t, int64(4), FixedDuration(4).Sample(nil))
	assert.Equal(t, int64(9), DurationFunc(func(_ *rand.Rand) int64 { return 9 }).Sample(nil))
}
