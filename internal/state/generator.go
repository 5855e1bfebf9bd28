package state

import (
	"context"
	"strings"

	"evalgo.org/fleetmap/internal/daemon"
	"evalgo.org/fleetmap/internal/depresolver"
	"evalgo.org/fleetmap/internal/fleeterr"
	"evalgo.org/fleetmap/internal/mapmodel"
	"evalgo.org/fleetmap/internal/policy"
)

// Mode selects which of the four path functions (spec.md §4.2) a
// Generate call uses.
type Mode int

const (
	// Single visits only the requested target.
	Single Mode = iota
	// Dependency visits the target's forward closure, dependencies first.
	Dependency
	// Dependent visits the target's backward closure, dependents last.
	Dependent
	// Update is Dependency's path with full configuration comparison.
	Update
)

func (mode Mode) String() string {
	switch mode {
	case Single:
		return "single"
	case Dependency:
		return "dependency"
	case Dependent:
		return "dependent"
	case Update:
		return "update"
	default:
		return "unknown"
	}
}

// Options configures a single reconciliation pass.
type Options struct {
	ForceUpdate map[mapmodel.MapConfigId]bool
	// StrictInspect turns an observed container that looks like it
	// belongs to this map but matches no declared object into a fatal
	// InspectInconsistency instead of a logged warning (spec.md §7).
	StrictInspect bool
}

// Generator produces the ConfigState stream for one ContainerMap against
// one daemon client.
type Generator struct {
	Map     *mapmodel.ContainerMap
	Policy  *policy.Policy
	Client  daemon.Client
	Deps    *depresolver.ContainerDependencyResolver
	Options Options

	cache *inspectCache
}

// New builds a Generator. m should already be the fully-resolved
// (extends-merged) map.
func New(m *mapmodel.ContainerMap, client daemon.Client, opts Options) (*Generator, error) {
	if err := m.CheckIntegrity(true); err != nil {
		return nil, err
	}
	if opts.ForceUpdate == nil {
		opts.ForceUpdate = make(map[mapmodel.MapConfigId]bool)
	}
	return &Generator{
		Map:     m,
		Policy:  policy.New(m),
		Client:  client,
		Deps:    depresolver.NewContainerDependencyResolver(m),
		Options: opts,
		cache:   newInspectCache(client, m, opts.StrictInspect),
	}, nil
}

// Generate walks targetName's path under mode and returns the emitted
// ConfigState stream.
func (g *Generator) Generate(ctx context.Context, targetName string, mode Mode) ([]ConfigState, error) {
	path, err := g.path(targetName, mode)
	if err != nil {
		return nil, err
	}

	var out []ConfigState
	emittedNetworks := make(map[string]bool)
	for _, name := range path {
		a := g.Map.GetExisting(name)
		if a == nil {
			return nil, fleeterr.NewMapKeyError(name)
		}
		flags := Dependent
		if name == targetName {
			flags = 0
		}

		records, err := g.emitContainer(ctx, name, a, flags, mode == Update, emittedNetworks)
		if err != nil {
			return nil, err
		}
		out = append(out, records...)
	}
	return out, nil
}

// GenerateMany is Generate for several targets at once: each target's
// path is resolved independently, then depresolver.MergePaths
// consolidates overlapping paths into the minimal non-overlapping set
// of roots before any records are emitted, so a container shared by
// two targets' dependency closures is only reconciled once (spec.md §8,
// the multi-target `fleetmap up redis.cache server` case).
func (g *Generator) GenerateMany(ctx context.Context, targetNames []string, mode Mode) ([]ConfigState, error) {
	pairs := make([]depresolver.RootPath[string], 0, len(targetNames))
	for _, target := range targetNames {
		path, err := g.path(target, mode)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, depresolver.RootPath[string]{Root: target, Path: path})
	}
	merged := depresolver.MergePaths(pairs)

	isTarget := make(map[string]bool, len(targetNames))
	for _, t := range targetNames {
		isTarget[t] = true
	}

	var out []ConfigState
	emittedNetworks := make(map[string]bool)
	emittedContainers := make(map[string]bool)
	for _, rp := range merged {
		for _, name := range rp.Path {
			if emittedContainers[name] {
				continue
			}
			emittedContainers[name] = true

			a := g.Map.GetExisting(name)
			if a == nil {
				return nil, fleeterr.NewMapKeyError(name)
			}
			flags := Dependent
			if isTarget[name] {
				flags = 0
			}
			records, err := g.emitContainer(ctx, name, a, flags, mode == Update, emittedNetworks)
			if err != nil {
				return nil, err
			}
			out = append(out, records...)
		}
	}
	return out, nil
}

// path resolves targetName's container path per mode, as bare (non-
// instance) container names in the order records should be emitted.
func (g *Generator) path(targetName string, mode Mode) ([]string, error) {
	switch mode {
	case Single:
		return []string{targetName}, nil
	case Dependency, Update:
		deps, err := g.Deps.Forward.GetDependencies(targetName)
		if err != nil {
			return nil, err
		}
		// GetDependencies lists the nearest dependencies first; reverse
		// so the deepest ones are emitted first.
		path := onlyContainers(deps, g.Map)
		for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
			path[i], path[j] = path[j], path[i]
		}
		return append(path, targetName), nil
	case Dependent:
		deps, err := g.Deps.Backward.GetDependencies(targetName)
		if err != nil {
			return nil, err
		}
		return append([]string{targetName}, onlyContainers(deps, g.Map)...), nil
	default:
		return nil, nil
	}
}

// onlyContainers filters a dependency-node list down to bare container
// names declared in m, preserving order: a "name.instance" node maps to
// "name", and each name is kept only at its first sighting.
func onlyContainers(nodes []string, m *mapmodel.ContainerMap) []string {
	seen := make(map[string]bool)
	var out []string
	for _, n := range nodes {
		name, isBare := bareContainerName(n, m)
		if !isBare || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

func bareContainerName(node string, m *mapmodel.ContainerMap) (string, bool) {
	if _, ok := m.Containers[node]; ok {
		return node, true
	}
	if base, _, found := strings.Cut(node, "."); found {
		if _, ok := m.Containers[base]; ok {
			return base, true
		}
	}
	return "", false
}

// emitContainer produces, in order: C's attached volumes, each instance
// (or the bare config if no instances declared), networks C joins (if
// not yet emitted by an earlier container in this path).
func (g *Generator) emitContainer(ctx context.Context, name string, a *mapmodel.ContainerAssignment, flags ConfigFlags, update bool, emittedNetworks map[string]bool) ([]ConfigState, error) {
	var out []ConfigState

	for _, alias := range a.Attaches {
		st, err := g.volumeState(ctx, name, alias)
		if err != nil {
			return nil, err
		}
		st.ConfigFlags = flags
		out = append(out, st)
	}

	instances := a.Instances
	if len(instances) == 0 {
		instances = []string{""}
	}
	for _, inst := range instances {
		st, err := g.containerState(ctx, name, inst, a, update)
		if err != nil {
			return nil, err
		}
		st.ConfigFlags = flags
		out = append(out, st)
	}

	for _, netName := range a.Networks {
		if emittedNetworks[netName] {
			continue
		}
		emittedNetworks[netName] = true
		st, err := g.networkState(ctx, netName)
		if err != nil {
			return nil, err
		}
		st.ConfigFlags = flags
		out = append(out, st)
	}

	return out, nil
}

func (g *Generator) volumeState(ctx context.Context, owner, alias string) (ConfigState, error) {
	daemonName := g.Policy.IName(owner, alias)
	insp, err := g.cache.Inspect(ctx, daemonName)
	if err != nil {
		return ConfigState{}, err
	}
	id := mapmodel.MapConfigId{ConfigType: mapmodel.VolumeType, MapName: g.Map.Name, ConfigName: owner, InstanceName: alias}
	if insp == nil {
		return ConfigState{ConfigID: id, BaseState: Absent}, nil
	}
	// Attached volumes are only ever ABSENT or PRESENT: an exited
	// data-only container is the expected steady state.
	return ConfigState{ConfigID: id, BaseState: Present, StateFlags: volumeFlags(insp)}, nil
}

func volumeFlags(insp *daemon.ContainerInspect) Flags {
	var f Flags
	if insp.State.StartedAt == InitialStartTime {
		f |= Initial
	}
	return f
}

func (g *Generator) networkState(ctx context.Context, name string) (ConfigState, error) {
	exists, err := g.cache.networkExists(ctx, name)
	if err != nil {
		return ConfigState{}, err
	}
	id := mapmodel.MapConfigId{ConfigType: mapmodel.NetworkType, MapName: g.Map.Name, ConfigName: name}
	if !exists {
		return ConfigState{ConfigID: id, BaseState: Absent}, nil
	}
	return ConfigState{ConfigID: id, BaseState: Present}, nil
}

func (g *Generator) containerState(ctx context.Context, name, instance string, a *mapmodel.ContainerAssignment, update bool) (ConfigState, error) {
	daemonName := g.Map.CName(name, instance)
	id := mapmodel.MapConfigId{ConfigType: mapmodel.ContainerType, MapName: g.Map.Name, ConfigName: name, InstanceName: instance}

	insp, err := g.cache.Inspect(ctx, daemonName)
	if err != nil {
		return ConfigState{}, err
	}
	if insp == nil {
		st := ConfigState{ConfigID: id, BaseState: Absent}
		if g.Options.ForceUpdate[id] {
			st.StateFlags |= ForcedReset
		}
		return st, nil
	}

	base := Present
	if insp.State.Running {
		base = Running
	}
	var flags Flags
	if insp.State.StartedAt == InitialStartTime {
		flags |= Initial
	}
	if insp.State.Restarting {
		flags |= Restarting
	}
	if base == Present && !insp.State.Restarting && insp.State.ExitCode != 0 {
		flags |= Nonrecoverable
	}
	if g.Options.ForceUpdate[id] {
		flags |= ForcedReset
	}

	st := ConfigState{ConfigID: id, BaseState: base, StateFlags: flags}

	if update {
		mismatchFlags, err := g.compareConfiguration(ctx, name, instance, a, insp)
		if err != nil {
			return ConfigState{}, err
		}
		st.StateFlags |= mismatchFlags
	}

	if base == Running {
		execEntries, err := g.execEntries(ctx, daemonName, a)
		if err != nil {
			return ConfigState{}, err
		}
		st.ExtraData.ExecCommands = execEntries
	}

	return st, nil
}
