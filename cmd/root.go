package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// Environment variables read from the process environment or a .env file in
// the working directory. Flags given on the command line take precedence.
const (
	envLogLevel = "SERVSIM_LOG"
	envSeed     = "SERVSIM_SEED"
	envScenario = "SERVSIM_SCENARIO"
)

var logLevel string // Log verbosity level

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:          "servsim",
	Short:        "Discrete-event simulator for orders contending for server pools",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadDotEnv(".env"); err != nil {
			return err
		}
		if !cmd.Flags().Changed("log") {
			if level, ok := os.LookupEnv(envLogLevel); ok {
				logLevel = level
			}
		}
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logrus.SetLevel(level)
		return nil
	},
}

// loadDotEnv loads path into the environment when it exists. Variables that
// are already set are not overridden.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// Execute runs the CLI root command. Exiting through atexit flushes and closes
// trace files that are still open.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(serveCmd)
}
