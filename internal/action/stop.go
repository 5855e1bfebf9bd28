package action

import (
	"context"
	"time"

	"evalgo.org/fleetmap/internal/daemon"
	"evalgo.org/fleetmap/internal/fleeterr"
)

const defaultStopTimeout = 10 * time.Second

// stopContainer implements the stop dispatch rule: a signal of "" or
// SIGTERM uses the daemon's own stop (which sends SIGTERM then SIGKILLs
// after timeout); any other configured signal is sent explicitly via
// kill, followed by an explicit wait. A stop timeout is downgraded to a
// warning (the daemon completes the kill on its own) rather than failing
// the object.
func stopContainer(ctx context.Context, client daemon.Client, name string, signal string, timeout time.Duration) (warning error, err error) {
	if timeout <= 0 {
		timeout = defaultStopTimeout
	}

	if signal == "" || signal == "SIGTERM" {
		if stopErr := client.Stop(ctx, name, timeout); stopErr != nil {
			if _, isTimeout := stopErr.(*fleeterr.ActionTimeout); isTimeout {
				return stopErr, nil
			}
			return nil, stopErr
		}
		return nil, nil
	}

	if killErr := client.Kill(ctx, name, signal); killErr != nil {
		return nil, killErr
	}
	if waitErr := client.Wait(ctx, name, timeout); waitErr != nil {
		return nil, waitErr
	}
	return nil, nil
}
