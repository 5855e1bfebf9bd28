package commands

import (
	"github.com/spf13/cobra"
)

var execCmd = &cobra.Command{
	Use:   "exec [map] [file] [container...]",
	Short: "Run a container's declared exec_commands",
	Long: `Exec inspects each named container alone (no dependency walk) and
runs any declared exec_commands against every currently RUNNING
instance, honoring each command's policy: INITIAL commands are skipped
once already observed running, RESTART commands always run.`,
	Args: cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExecPass(args[0], args[1], args[2:])
	},
}
