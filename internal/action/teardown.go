package action

import (
	"context"

	"evalgo.org/fleetmap/internal/daemon"
	"evalgo.org/fleetmap/internal/mapmodel"
	"evalgo.org/fleetmap/internal/policy"
	"evalgo.org/fleetmap/internal/state"
)

// RunRemoval stops and removes every container state in states
// unconditionally (regardless of mismatch flags), in the order given —
// runRemovalPass hands it the Dependent-mode stream reversed, so
// consumers are torn down before what they depend on. Attached volumes
// are only removed when RemoveAttached is set; networks are never
// removed, whatever RemoveNetworks says.
func (r *Runner) RunRemoval(ctx context.Context, states []state.ConfigState) Result {
	var result Result

	for _, st := range states {
		switch st.ConfigID.ConfigType {
		case mapmodel.ContainerType:
			if err := r.teardownContainer(ctx, st); err != nil {
				result.Failures = append(result.Failures, Failure{ConfigID: st.ConfigID, Err: err})
				if r.Options.AbortOnError {
					return result
				}
			}
		case mapmodel.VolumeType:
			if !r.Options.RemoveAttached {
				continue
			}
			if err := r.teardownVolume(ctx, st); err != nil {
				result.Failures = append(result.Failures, Failure{ConfigID: st.ConfigID, Err: err})
				if r.Options.AbortOnError {
					return result
				}
			}
		case mapmodel.NetworkType:
			if !r.Options.RemoveNetworks {
				continue
			}
			// The daemon.Client interface has no network-removal call, so
			// network states are skipped here.
		}
	}
	return result
}

func (r *Runner) teardownContainer(ctx context.Context, st state.ConfigState) error {
	if st.BaseState == state.Absent {
		return nil
	}
	a := r.Map.GetExisting(st.ConfigID.ConfigName)
	if a == nil {
		return nil
	}
	daemonName := r.Map.CName(st.ConfigID.ConfigName, st.ConfigID.InstanceName)

	for _, clientName := range policy.ClientsFor(a, daemon.DefaultClientName) {
		client, err := r.Clients.Get(clientName)
		if err != nil {
			return err
		}
		if st.BaseState == state.Running {
			if _, err := stopContainer(ctx, client, daemonName, a.StopSignal, stopTimeout(a)); err != nil {
				return err
			}
		}
		removeVolumes, force := r.Kwargs.RemoveKwargs(r.Options.RemoveAttached)
		if err := client.Remove(ctx, daemonName, removeVolumes, force); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) teardownVolume(ctx context.Context, st state.ConfigState) error {
	if st.BaseState == state.Absent {
		return nil
	}
	client, err := r.Clients.Get(daemon.DefaultClientName)
	if err != nil {
		return err
	}
	daemonName := r.Policy.IName(st.ConfigID.ConfigName, st.ConfigID.InstanceName)
	return client.Remove(ctx, daemonName, true, false)
}
