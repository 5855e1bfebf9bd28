package commands

import (
	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm [map] [file] [container...]",
	Short: "Stop and remove one or more containers and everything that depends on them",
	Long: `Rm walks each container's backward (dependent) closure, consumers
first, and unconditionally stops and removes every container on the
path, independent of the mismatch flags the Update action table looks
at. Attached volumes are only removed when pass.remove_attached is set.`,
	Args: cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRemovalPass(args[0], args[1], args[2:])
	},
}
