package commands

import (
	"github.com/spf13/cobra"

	"evalgo.org/fleetmap/internal/state"
)

var stopCmd = &cobra.Command{
	Use:   "stop [map] [file] [container...]",
	Short: "Stop one or more containers and everything that depends on them",
	Long: `Stop walks each container's backward (dependent) closure, so
consumers of a container are reconciled before the container itself.
The Runner's Update action table only issues stop/remove for objects
whose state calls for it; stop does not force removal.`,
	Args: cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPass(args[0], args[1], args[2:], state.Dependent)
	},
}
