package commands

import (
	"github.com/spf13/cobra"
)

var restartCmd = &cobra.Command{
	Use:   "restart [map] [file] [container...]",
	Short: "Stop one or more containers' dependents, then bring everything back up",
	Long: `Restart runs a stop pass (Dependent order) immediately followed by
an up pass (Dependency order) against the same targets — equivalent to
"fleetmap stop" then "fleetmap up" in sequence.`,
	Args: cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRestartPass(args[0], args[1], args[2:])
	},
}
