package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [map] [file]",
	Short: "Validate a container map's integrity",
	Long: `Validate checks a named map within a configuration document against
the invariants check_integrity enforces: unique shared/attached names,
resolvable uses/binds/attaches/links references.

Examples:
  fleetmap validate main maps/main.yaml`,
	Args: cobra.ExactArgs(2),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	mapName, file := args[0], args[1]

	m, err := resolveMap(mapName, file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(exitCodeFor(err))
	}

	fmt.Printf("map %q is valid: %d containers, %d networks\n", m.Name, len(m.Containers), len(m.Networks))
	return nil
}
