package commands

import (
	"github.com/spf13/cobra"

	"evalgo.org/fleetmap/internal/state"
)

var upCmd = &cobra.Command{
	Use:   "up [map] [file] [container...]",
	Short: "Bring one or more containers and their dependencies up",
	Long: `Up resolves each container's forward dependency closure (dependencies
first) and brings every object to its RUNNING/PRESENT steady state.
Multiple containers may be given; their paths are merged so a shared
dependency is only reconciled once.`,
	Args: cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPass(args[0], args[1], args[2:], state.Dependency)
	},
}
