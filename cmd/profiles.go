package cmd

import (
	"github.com/spf13/cobra"

	"github.com/inference-sim/servsim/sim/workload"
)

var profilesOpts scenarioOptions

// profilesCmd prints the case profiles a scenario would assign
var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Print the generated case profiles as CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := profilesOpts.load(cmd)
		if err != nil {
			return err
		}
		if err := spec.Validate(); err != nil {
			return err
		}
		gen, err := spec.NewProfileGenerator()
		if err != nil {
			return err
		}
		return workload.WriteProfilesCSV(cmd.OutOrStdout(), gen.Profiles(spec.NumEntities))
	},
}

func init() {
	profilesOpts.register(profilesCmd)
}
