package workload

import (
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// ArrivalSampler generates inter-arrival times between orders.
// It satisfies sim.IATSampler.
type ArrivalSampler interface {
	// SampleIAT returns the next inter-arrival time in minutes.
	// Always returns a positive value (>= 1).
	SampleIAT(rng *rand.Rand) int64
}

// clampIAT rounds a sampled gap to whole minutes, never below one.
func clampIAT(minutes float64) int64 {
	iat := int64(math.Round(minutes))
	if iat < 1 {
		return 1
	}
	return iat
}

// PoissonSampler generates exponentially-distributed inter-arrival times (CV=1).
type PoissonSampler struct {
	mean float64 // minutes between arrivals
}

func (s *PoissonSampler) SampleIAT(rng *rand.Rand) int64 {
	return clampIAT(rng.ExpFloat64() * s.mean)
}

// GammaSampler generates Gamma-distributed inter-arrival times.
// CV > 1 produces bursts of customers, as at a lunch rush.
type GammaSampler struct {
	shape float64 // 1/CV²
	scale float64 // mean·CV² in minutes
}

func (s *GammaSampler) SampleIAT(rng *rand.Rand) int64 {
	return clampIAT(gammaRand(rng, s.shape, s.scale))
}

// gammaRand samples from Gamma(shape, scale) with Marsaglia-Tsang.
// Shapes below 1 are boosted: Gamma(a) = Gamma(a+1) * U^(1/a).
func gammaRand(rng *rand.Rand, shape, scale float64) float64 {
	if shape < 1.0 {
		u := rng.Float64()
		return gammaRand(rng, shape+1.0, scale) * math.Pow(u, 1.0/shape)
	}

	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)
	for {
		x := rng.NormFloat64()
		v := 1.0 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := rng.Float64()
		if u < 1.0-0.0331*(x*x)*(x*x) || math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
			return d * v * scale
		}
	}
}

// WeibullSampler generates Weibull-distributed inter-arrival times.
type WeibullSampler struct {
	shape float64 // k
	scale float64 // λ in minutes
}

func (s *WeibullSampler) SampleIAT(rng *rand.Rand) int64 {
	u := rng.Float64()
	if u == 0 {
		u = math.SmallestNonzeroFloat64 // -ln(0) = +Inf
	}
	return clampIAT(s.scale * math.Pow(-math.Log(u), 1.0/s.shape))
}

// ConstantSampler spaces arrivals evenly.
type ConstantSampler struct {
	gap int64
}

func (s *ConstantSampler) SampleIAT(*rand.Rand) int64 {
	return s.gap
}

// NewArrivalSampler creates the sampler for a generated arrival process.
// The ArrivalSpec must have passed validation; unknown processes fall back to Poisson.
func NewArrivalSampler(spec ArrivalSpec) ArrivalSampler {
	mean := spec.MeanInterarrival
	if mean < 1e-9 {
		mean = 1e-9
	}
	cv := 1.0
	if spec.CV != nil && *spec.CV > 0 {
		cv = *spec.CV
	}
	switch spec.Process {
	case ProcessGamma:
		shape := 1.0 / (cv * cv)
		if shape < 0.01 {
			logrus.Warnf("Gamma shape %.4f (CV=%.1f) is very small; falling back to Poisson", shape, cv)
			return &PoissonSampler{mean: mean}
		}
		return &GammaSampler{shape: shape, scale: mean * cv * cv}

	case ProcessWeibull:
		k := weibullShapeFromCV(cv)
		// scale = mean / Γ(1 + 1/k)
		return &WeibullSampler{shape: k, scale: mean / math.Gamma(1.0+1.0/k)}

	case ProcessConstant:
		return &ConstantSampler{gap: clampIAT(mean)}

	default:
		return &PoissonSampler{mean: mean}
	}
}

// weibullShapeFromCV finds the Weibull shape k whose coefficient of variation
// is targetCV, by bisection over k ∈ [0.1, 100].
func weibullShapeFromCV(targetCV float64) float64 {
	lo, hi := 0.1, 100.0
	for i := 0; i < 100; i++ {
		mid := (lo + hi) / 2.0
		cv := weibullCV(mid)
		if math.Abs(cv-targetCV) < 0.001 {
			return mid
		}
		// CV decreases as k grows
		if cv > targetCV {
			lo = mid
		} else {
			hi = mid
		}
	}
	logrus.Warnf("weibullShapeFromCV: no convergence for CV=%.3f; using k=%.3f", targetCV, (lo+hi)/2.0)
	return (lo + hi) / 2.0
}

func weibullCV(k float64) float64 {
	g1 := math.Gamma(1.0 + 1.0/k)
	g2 := math.Gamma(1.0 + 2.0/k)
	return math.Sqrt(g2/(g1*g1) - 1.0)
}
