package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/servsim/sim/workload"
)

const defaultPreset = "restaurant"

// scenarioOptions are the flags shared by every command that builds a
// scenario. Values given on the command line override the scenario file.
type scenarioOptions struct {
	file            string
	preset          string
	seed            int64
	numEntities     int
	horizon         int64
	patience        bool
	pRushed         float64
	meanServiceTime float64
	startTime       string
}

func (o *scenarioOptions) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.file, "scenario", "", "Path to a YAML scenario file")
	f.StringVar(&o.preset, "preset", "", "Built-in scenario ("+strings.Join(workload.PresetNames(), ", ")+")")
	f.Int64Var(&o.seed, "seed", 42, "Seed for arrivals, pool choice and durations")
	f.IntVar(&o.numEntities, "num-entities", 0, "Number of orders")
	f.Int64Var(&o.horizon, "horizon", 0, "Simulation horizon in minutes")
	f.BoolVar(&o.patience, "patience", false, "Enable balking and reneging")
	f.Float64Var(&o.pRushed, "p-rushed", 0.5, "Probability that an order is rushed")
	f.Float64Var(&o.meanServiceTime, "mean-service-time", 2, "Mean service time in minutes, scales the renege limits")
	f.StringVar(&o.startTime, "start-time", "", "Wall-clock time of minute 0 ("+workload.StartTimeLayout+")")
}

// load resolves the scenario from --scenario, $SERVSIM_SCENARIO or --preset,
// then applies the flags that were set explicitly.
func (o *scenarioOptions) load(cmd *cobra.Command) (*workload.ScenarioSpec, error) {
	flags := cmd.Flags()

	file := o.file
	if !flags.Changed("scenario") && !flags.Changed("preset") {
		file = os.Getenv(envScenario)
	}
	if file != "" && o.preset != "" {
		return nil, errors.New("--scenario and --preset are mutually exclusive")
	}

	seed := o.seed
	seedSet := flags.Changed("seed")
	if !seedSet {
		if v, ok := os.LookupEnv(envSeed); ok {
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", envSeed, err)
			}
			seed, seedSet = parsed, true
		}
	}

	var spec *workload.ScenarioSpec
	if file != "" {
		loaded, err := workload.LoadScenarioSpec(file)
		if err != nil {
			return nil, err
		}
		logrus.Infof("Loaded scenario %s", file)
		spec = loaded
	} else {
		name := o.preset
		if name == "" {
			name = defaultPreset
		}
		preset, err := workload.Preset(name, seed)
		if err != nil {
			return nil, err
		}
		logrus.Infof("Using preset scenario %s", name)
		spec = preset
	}

	if seedSet {
		spec.RandomSeed = seed
	}
	if flags.Changed("num-entities") {
		spec.NumEntities = o.numEntities
	}
	if flags.Changed("horizon") {
		spec.Horizon = o.horizon
	}
	if flags.Changed("patience") {
		spec.Patience = o.patience
	}
	if flags.Changed("p-rushed") {
		spec.PRushed = o.pRushed
	}
	if flags.Changed("mean-service-time") {
		spec.MeanServiceTime = o.meanServiceTime
	}
	if flags.Changed("start-time") {
		spec.StartTime = o.startTime
	}
	return spec, nil
}
