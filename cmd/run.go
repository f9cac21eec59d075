package cmd

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/servsim/sim"
	"github.com/inference-sim/servsim/sim/trace"
	"github.com/inference-sim/servsim/sim/workload"
)

var (
	runOpts     scenarioOptions
	csvPath     string // Trace CSV output path
	sqlitePath  string // Trace SQLite output path
	showSummary bool   // Print trace statistics after the metrics
)

// runCmd executes one simulation and prints its metrics
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario and print its metrics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := runOpts.load(cmd)
		if err != nil {
			return err
		}
		s, err := simulate(spec, traceOutputs{csv: csvPath, sqlite: sqlitePath})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		s.Metrics().Print(out)
		if showSummary {
			printSummary(out, trace.Summarize(s.Records()))
		}
		return nil
	},
}

// traceOutputs names the files the trace is exported to. Empty paths are
// skipped.
type traceOutputs struct {
	csv    string
	sqlite string
}

// simulate builds the scenario, runs it to completion and closes the trace
// files. The returned simulator has drained.
func simulate(spec *workload.ScenarioSpec, outputs traceOutputs) (*sim.Simulator, error) {
	scenario, err := spec.Build()
	if err != nil {
		return nil, err
	}

	runID := xid.New()
	var sinks []trace.Sink
	var closers []io.Closer
	if outputs.csv != "" {
		w, err := trace.CreateCSVFile(outputs.csv, scenario.StartTime)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, w)
		closers = append(closers, w)
	}
	if outputs.sqlite != "" {
		w, err := trace.OpenSQLite(outputs.sqlite, runID.String())
		if err != nil {
			closeAll(closers)
			return nil, err
		}
		sinks = append(sinks, w)
		closers = append(closers, w)
	}

	opts := append(scenario.Options(), sim.WithRunID(runID))
	if len(sinks) > 0 {
		opts = append(opts, sim.WithSink(trace.NewMultiSink(sinks...)))
	}
	s, err := sim.NewSimulator(scenario.Config, opts...)
	if err != nil {
		closeAll(closers)
		return nil, err
	}

	logrus.Infof("Starting run %s: %d orders, horizon %d min, pools %v",
		s.RunID(), spec.NumEntities, spec.Horizon, scenario.Config.PoolNames())
	started := time.Now()
	runErr := s.Run()
	if err := closeAll(closers); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return nil, runErr
	}
	logrus.Infof("Run %s finished in %v", s.RunID(), time.Since(started))
	return s, nil
}

func closeAll(closers []io.Closer) error {
	var first error
	for _, c := range closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func printSummary(w io.Writer, summary *trace.Summary) {
	fmt.Fprintln(w, "=== Trace Summary ===")
	fmt.Fprintf(w, "Records              : %d\n", summary.TotalRecords)
	fmt.Fprintf(w, "Mean Order Duration  : %.2f min\n", summary.MeanOrderDuration)
	for _, a := range summary.Activities {
		fmt.Fprintf(w, "Activity %-20s: %d completions between %d and %d min\n",
			a.Activity, a.Count, a.First, a.Last)
	}
	servers := make([]string, 0, len(summary.ServerLoad))
	for server := range summary.ServerLoad {
		servers = append(servers, server)
	}
	sort.Strings(servers)
	for _, server := range servers {
		fmt.Fprintf(w, "Server %-22s: %d activities\n", server, summary.ServerLoad[server])
	}
}

func init() {
	runOpts.register(runCmd)
	runCmd.Flags().StringVar(&csvPath, "csv", "", "Write the trace to this CSV file")
	runCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "Write the trace to this SQLite database")
	runCmd.Flags().BoolVar(&showSummary, "summary", true, "Print trace statistics")
}
