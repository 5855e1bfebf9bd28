package commands

import (
	"github.com/spf13/cobra"

	"evalgo.org/fleetmap/internal/state"
)

var updateCmd = &cobra.Command{
	Use:   "update [map] [file] [container...]",
	Short: "Reconcile one or more containers and their dependencies against declared config",
	Long: `Update generates the same merged path as "up" but with full
configuration comparison enabled: image identity, mounts, env, command,
ports, links, and network attachments are compared against the observed
container and a stop/remove/create/start sequence is issued wherever
they differ.`,
	Args: cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPass(args[0], args[1], args[2:], state.Update)
	},
}
