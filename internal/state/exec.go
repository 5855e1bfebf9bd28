package state

import (
	"context"

	"evalgo.org/fleetmap/internal/mapmodel"
)

// execEntries matches each declared exec command against the container's
// current process list: already_run is true iff an identical (user, cmd)
// pair is present. INITIAL-policy commands with already_run=true are
// skipped by the runner; RESTART-policy commands always run regardless.
func (g *Generator) execEntries(ctx context.Context, daemonName string, a *mapmodel.ContainerAssignment) ([]ExecEntry, error) {
	if len(a.ExecCommands) == 0 {
		return nil, nil
	}
	running, err := g.cache.Top(ctx, daemonName)
	if err != nil {
		return nil, err
	}

	entries := make([]ExecEntry, 0, len(a.ExecCommands))
	for _, cmd := range a.ExecCommands {
		entries = append(entries, ExecEntry{
			Command:    cmd,
			AlreadyRun: running[execKey{user: cmd.User, cmd: cmd.Cmd}],
		})
	}
	return entries, nil
}
