package action

import (
	"context"
	"fmt"
	"strings"
	"time"

	"evalgo.org/fleetmap/internal/daemon"
	"evalgo.org/fleetmap/internal/depresolver"
	"evalgo.org/fleetmap/internal/logging"
	"evalgo.org/fleetmap/internal/mapmodel"
	"evalgo.org/fleetmap/internal/policy"
	"evalgo.org/fleetmap/internal/state"
)

// Options configures a single Runner pass.
type Options struct {
	AbortOnError    bool
	RemoveAttached  bool
	RemoveNetworks  bool
	PullBeforeCreate bool
}

// Failure records one object's failed action for the caller to report.
type Failure struct {
	ConfigID mapmodel.MapConfigId
	Action   Kind
	Err      error
}

// Result is the outcome of one Runner.Run call.
type Result struct {
	Failures  []Failure
	Suppressed []mapmodel.MapConfigId
}

// Runner walks a ConfigState stream and issues the daemon calls each
// record implies, in strict per-object order (stop -> remove -> create
// -> start -> exec), suppressing further actions for any object whose
// dependencies failed (spec.md §5/§7).
type Runner struct {
	Map     *mapmodel.ContainerMap
	Policy  *policy.Policy
	Clients *daemon.Manager
	Deps    *depresolver.ContainerDependencyResolver
	Kwargs  *KwargsHooks
	Options Options
}

// New builds a Runner for m (already resolved/extends-merged).
func New(m *mapmodel.ContainerMap, clients *daemon.Manager, opts Options) *Runner {
	p := policy.New(m)
	return &Runner{
		Map:     m,
		Policy:  p,
		Clients: clients,
		Deps:    depresolver.NewContainerDependencyResolver(m),
		Kwargs:  &KwargsHooks{Map: m, Policy: p},
		Options: opts,
	}
}

// Run executes every action implied by states, in the order given. The
// caller is responsible for handing states in dependency-correct order
// (state.Generator already does this).
func (r *Runner) Run(ctx context.Context, states []state.ConfigState) Result {
	var result Result
	failed := make(map[string]bool) // failed container config names

	for _, st := range states {
		if st.ConfigID.ConfigType == mapmodel.ContainerType {
			if r.isSuppressed(st.ConfigID.ConfigName, failed) {
				result.Suppressed = append(result.Suppressed, st.ConfigID)
				failed[st.ConfigID.ConfigName] = true
				continue
			}
		}

		if err := r.runOne(ctx, st); err != nil {
			result.Failures = append(result.Failures, Failure{ConfigID: st.ConfigID, Err: err})
			if st.ConfigID.ConfigType == mapmodel.ContainerType {
				failed[st.ConfigID.ConfigName] = true
			}
			if r.Options.AbortOnError {
				return result
			}
		}
	}
	return result
}

// isSuppressed reports whether name transitively depends (directly or
// through any number of hops) on an already-failed container.
func (r *Runner) isSuppressed(name string, failed map[string]bool) bool {
	if len(failed) == 0 {
		return false
	}
	deps, err := r.Deps.Forward.GetDependencies(name)
	if err != nil {
		return false
	}
	for _, d := range deps {
		// Instance nodes ("name.instance") count against their container.
		base, _, _ := strings.Cut(d, ".")
		if failed[d] || failed[base] {
			return true
		}
	}
	return false
}

func (r *Runner) runOne(ctx context.Context, st state.ConfigState) error {
	switch st.ConfigID.ConfigType {
	case mapmodel.VolumeType:
		return r.runVolume(ctx, st)
	case mapmodel.NetworkType:
		return r.runNetwork(ctx, st)
	case mapmodel.ContainerType:
		return r.runContainer(ctx, st)
	default:
		return fmt.Errorf("unknown config type %v", st.ConfigID.ConfigType)
	}
}

func (r *Runner) runVolume(ctx context.Context, st state.ConfigState) error {
	for _, act := range selectVolumeActions(st) {
		if act != Create {
			continue
		}
		client, err := r.clientFor(nil)
		if err != nil {
			return err
		}
		owner := r.Map.GetExisting(st.ConfigID.ConfigName)
		if owner == nil {
			return fmt.Errorf("undeclared container %q", st.ConfigID.ConfigName)
		}
		spec := daemon.CreateContainerSpec{
			Name:  r.Policy.IName(st.ConfigID.ConfigName, st.ConfigID.InstanceName),
			Image: r.Policy.ImageName(owner.Image),
		}
		if _, err := client.CreateContainer(ctx, spec); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runNetwork(ctx context.Context, st state.ConfigState) error {
	for _, act := range selectNetworkActions(st) {
		if act != NetworkCreate {
			continue
		}
		client, err := r.clientFor(nil)
		if err != nil {
			return err
		}
		n := r.Map.Networks[st.ConfigID.ConfigName]
		if n == nil {
			return fmt.Errorf("undeclared network %q", st.ConfigID.ConfigName)
		}
		if _, err := client.CreateNetwork(ctx, r.Kwargs.NetworkCreateKwargs(st.ConfigID.ConfigName, n)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runContainer(ctx context.Context, st state.ConfigState) error {
	a := r.Map.GetExisting(st.ConfigID.ConfigName)
	if a == nil {
		return fmt.Errorf("undeclared container %q", st.ConfigID.ConfigName)
	}
	daemonName := r.Map.CName(st.ConfigID.ConfigName, st.ConfigID.InstanceName)

	for _, clientName := range policy.ClientsFor(a, daemon.DefaultClientName) {
		client, err := r.Clients.Get(clientName)
		if err != nil {
			return err
		}
		if err := r.runContainerActions(ctx, client, daemonName, st, a); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runContainerActions(ctx context.Context, client daemon.Client, daemonName string, st state.ConfigState, a *mapmodel.ContainerAssignment) error {
	for _, act := range selectActions(st) {
		logging.Debug("%s: %s flags=%v", act, daemonName, st.StateFlags)
		switch act {
		case Stop:
			warning, err := stopContainer(ctx, client, daemonName, a.StopSignal, stopTimeout(a))
			if err != nil {
				return err
			}
			if warning != nil {
				logging.Warn("stop timed out for %s, proceeding: %v", daemonName, warning)
			}
		case Remove:
			removeVolumes, force := r.Kwargs.RemoveKwargs(r.Options.RemoveAttached)
			if err := client.Remove(ctx, daemonName, removeVolumes, force); err != nil {
				return err
			}
		case Create:
			if r.Options.PullBeforeCreate && a.Image != "" {
				if err := client.PullImage(ctx, r.Policy.ImageName(a.Image)); err != nil {
					return err
				}
			}
			spec := r.Kwargs.CreateKwargs(st.ConfigID.ConfigName, st.ConfigID.InstanceName, a, nil)
			if _, err := client.CreateContainer(ctx, spec); err != nil {
				return err
			}
		case Start:
			if err := client.Start(ctx, daemonName); err != nil {
				return err
			}
		}
	}

	if len(st.ExtraData.ExecCommands) > 0 {
		if err := runExecCommands(ctx, client, daemonName, st.ExtraData.ExecCommands); err != nil {
			return err
		}
	}
	return nil
}

// RunExecOnly runs the declared exec_commands for every running
// container in states, ignoring every other action the state would
// otherwise imply. Used by the "exec" command, which never starts,
// stops, or recreates anything — it only re-checks and runs commands
// against containers already RUNNING.
func (r *Runner) RunExecOnly(ctx context.Context, states []state.ConfigState) Result {
	var result Result

	for _, st := range states {
		if st.ConfigID.ConfigType != mapmodel.ContainerType {
			continue
		}
		if st.BaseState != state.Running || len(st.ExtraData.ExecCommands) == 0 {
			continue
		}
		a := r.Map.GetExisting(st.ConfigID.ConfigName)
		if a == nil {
			continue
		}
		daemonName := r.Map.CName(st.ConfigID.ConfigName, st.ConfigID.InstanceName)

		for _, clientName := range policy.ClientsFor(a, daemon.DefaultClientName) {
			client, err := r.Clients.Get(clientName)
			if err != nil {
				result.Failures = append(result.Failures, Failure{ConfigID: st.ConfigID, Action: ExecStartKind, Err: err})
				continue
			}
			if err := runExecCommands(ctx, client, daemonName, st.ExtraData.ExecCommands); err != nil {
				result.Failures = append(result.Failures, Failure{ConfigID: st.ConfigID, Action: ExecStartKind, Err: err})
				if r.Options.AbortOnError {
					return result
				}
			}
		}
	}
	return result
}

func stopTimeout(a *mapmodel.ContainerAssignment) time.Duration {
	if a.StopTimeout > 0 {
		return time.Duration(a.StopTimeout) * time.Second
	}
	return 0
}

func (r *Runner) clientFor(names []string) (daemon.Client, error) {
	name := daemon.DefaultClientName
	if len(names) > 0 {
		name = names[0]
	}
	return r.Clients.Get(name)
}
