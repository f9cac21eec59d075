package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/servsim/sim/monitoring"
)

var (
	serveOpts  scenarioOptions
	servePort  int // Port of the monitoring server
	serveTrace string
)

// serveCmd runs a scenario and keeps serving it over HTTP until interrupted
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a scenario and serve its trace over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := serveOpts.load(cmd)
		if err != nil {
			return err
		}
		s, err := simulate(spec, traceOutputs{sqlite: serveTrace})
		if err != nil {
			return err
		}

		server := monitoring.NewServer().WithPortNumber(servePort)
		server.RegisterRun(s)
		if _, err := server.Start(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		logrus.Info("Shutting down monitoring server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

func init() {
	serveOpts.register(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port of the monitoring server (0 picks a free port)")
	serveCmd.Flags().StringVar(&serveTrace, "sqlite", "", "Also write the trace to this SQLite database")
}
