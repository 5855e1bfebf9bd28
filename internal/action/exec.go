package action

import (
	"context"

	"evalgo.org/fleetmap/internal/daemon"
	"evalgo.org/fleetmap/internal/mapmodel"
	"evalgo.org/fleetmap/internal/state"
)

// runExecCommands issues exec_create (and, if an id is returned,
// exec_start) for every declared command not already run, per spec.md
// §4.3's exec mixin: INITIAL-policy commands skip when already_run;
// RESTART-policy commands always run.
func runExecCommands(ctx context.Context, client daemon.Client, name string, entries []state.ExecEntry) error {
	for _, entry := range entries {
		if entry.Command.Policy == mapmodel.ExecPolicyInitial && entry.AlreadyRun {
			continue
		}
		cmd := splitCmd(entry.Command.Cmd)
		execID, err := client.ExecCreate(ctx, name, entry.Command.User, cmd)
		if err != nil {
			return err
		}
		if execID == "" {
			// No id returned: the daemon auto-started the command.
			continue
		}
		if err := client.ExecStart(ctx, execID); err != nil {
			return err
		}
	}
	return nil
}

func splitCmd(cmd string) []string {
	var fields []string
	start := -1
	for i := 0; i <= len(cmd); i++ {
		if i < len(cmd) && cmd[i] != ' ' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			fields = append(fields, cmd[start:i])
			start = -1
		}
	}
	return fields
}
