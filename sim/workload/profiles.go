package workload

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"

	"github.com/inference-sim/servsim/sim"
)

// Patience thresholds per case type. Waits scale with the mean service time.
const (
	RushedQMax        = 5
	RushedWaitFactor  = 5
	RelaxedQMax       = 10
	RelaxedWaitFactor = 10
)

// ProfileGenerator assigns each entity a case type by a Bernoulli draw with
// probability PRushed, then derives qmax and wmax from the case type.
//
// Profiles are generated in entity id order and cached, so the profile of an
// entity depends only on its id and the generator seed, not on the order in
// which the engine asks for them.
type ProfileGenerator struct {
	PRushed         float64
	MeanServiceTime float64 // minutes

	rng      *rand.Rand
	profiles []sim.CaseProfile
}

// NewProfileGenerator validates the parameters. A nil rng leaves the generator
// unbound until BindRNG, which the simulator calls with its own RNG. A given
// rng must not be shared with other consumers if profiles are to be
// reproducible on their own.
func NewProfileGenerator(pRushed, meanServiceTime float64, rng *rand.Rand) (*ProfileGenerator, error) {
	if math.IsNaN(pRushed) || pRushed < 0 || pRushed > 1 {
		return nil, &sim.ConfigurationError{Field: "p_rushed", Reason: fmt.Sprintf("must be within [0, 1], got %v", pRushed)}
	}
	if math.IsNaN(meanServiceTime) || math.IsInf(meanServiceTime, 0) || meanServiceTime < 0 {
		return nil, &sim.ConfigurationError{Field: "mean_service_time", Reason: fmt.Sprintf("must be a non-negative number, got %v", meanServiceTime)}
	}
	return &ProfileGenerator{PRushed: pRushed, MeanServiceTime: meanServiceTime, rng: rng}, nil
}

// BindRNG implements sim.SeededProfileSource. A generator created with its own
// rng keeps it.
func (g *ProfileGenerator) BindRNG(rng *sim.PartitionedRNG) {
	if g.rng == nil {
		g.rng = rng.ForSubsystem(sim.SubsystemProfiles)
	}
}

// Profile implements sim.ProfileSource.
func (g *ProfileGenerator) Profile(entityID int) sim.CaseProfile {
	for len(g.profiles) <= entityID {
		g.profiles = append(g.profiles, g.next())
	}
	return g.profiles[entityID]
}

// Profiles returns the profiles of entities 0..n-1.
func (g *ProfileGenerator) Profiles(n int) []sim.CaseProfile {
	if n <= 0 {
		return nil
	}
	g.Profile(n - 1)
	return append([]sim.CaseProfile(nil), g.profiles[:n]...)
}

func (g *ProfileGenerator) next() sim.CaseProfile {
	if g.rng == nil {
		panic("profile generator used before BindRNG")
	}
	if g.rng.Float64() < g.PRushed {
		return sim.CaseProfile{
			CaseType: sim.Rushed,
			QMax:     RushedQMax,
			WMax:     int64(math.Round(RushedWaitFactor * g.MeanServiceTime)),
		}
	}
	return sim.CaseProfile{
		CaseType: sim.Relaxed,
		QMax:     RelaxedQMax,
		WMax:     int64(math.Round(RelaxedWaitFactor * g.MeanServiceTime)),
	}
}

// WriteProfilesCSV writes profiles as caseid,casetype,qmax,wmax rows; the case
// id is the slice index.
func WriteProfilesCSV(out io.Writer, profiles []sim.CaseProfile) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"caseid", "casetype", "qmax", "wmax"}); err != nil {
		return err
	}
	for i, p := range profiles {
		row := []string{
			strconv.Itoa(i),
			string(p.CaseType),
			strconv.Itoa(p.QMax),
			strconv.FormatInt(p.WMax, 10),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
