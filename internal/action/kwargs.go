package action

import (
	"fmt"

	"evalgo.org/fleetmap/internal/daemon"
	"evalgo.org/fleetmap/internal/mapmodel"
	"evalgo.org/fleetmap/internal/policy"
)

// KwargsHooks assembles the per-call daemon argument structs from a
// container assignment plus client-global options, the way graphium's
// Deployer.buildContainerConfig/buildHostConfig turn a declarative spec
// into Docker API types. CreateKwargs takes a per-call override that
// merges last-wins over the computed default (a nil override yields the
// default); the other hooks take no override.
type KwargsHooks struct {
	Map    *mapmodel.ContainerMap
	Policy *policy.Policy
}

// CreateKwargs builds the daemon.CreateContainerSpec default for one
// container instance.
func (h *KwargsHooks) CreateKwargs(name, instance string, a *mapmodel.ContainerAssignment, override *daemon.CreateContainerSpec) daemon.CreateContainerSpec {
	spec := daemon.CreateContainerSpec{
		Name:        h.Map.CName(name, instance),
		Image:       h.Policy.ImageName(a.Image),
		Cmd:         a.Command,
		Entrypoint:  a.Entrypoint,
		StopSignal:  a.StopSignal,
		NetworkMode: firstOrEmpty(a.Networks),
	}
	for k, v := range a.Environment {
		spec.Env = append(spec.Env, fmt.Sprintf("%s=%s", k, v))
	}
	if a.StopTimeout > 0 {
		spec.StopTimeout = &a.StopTimeout
	}

	spec.Binds = h.bindSpecs(name, instance, a)
	for _, l := range a.Links {
		alias := l.Alias
		if alias == "" {
			alias = policy.Hostname(l.ContainerRef)
		}
		spec.Links = append(spec.Links, l.ContainerRef+":"+alias)
	}
	for _, e := range a.Exposes {
		spec.ExposedPorts = append(spec.ExposedPorts, e.ContainerPort)
		if e.HostPort != 0 {
			if spec.PortBindings == nil {
				spec.PortBindings = make(map[int]daemon.PortBindSpec)
			}
			proto := e.Protocol
			if proto == "" {
				proto = "tcp"
			}
			spec.PortBindings[e.ContainerPort] = daemon.PortBindSpec{
				HostIP:   e.Interface,
				HostPort: fmt.Sprintf("%d", e.HostPort),
				Protocol: proto,
			}
		}
	}

	if override != nil {
		mergeCreateOverride(&spec, override)
	}
	return spec
}

func (h *KwargsHooks) bindSpecs(name, instance string, a *mapmodel.ContainerAssignment) []daemon.BindSpec {
	var binds []daemon.BindSpec
	for _, alias := range a.Attaches {
		binds = append(binds, daemon.BindSpec{FromVolumesOf: h.Policy.IName(name, alias)})
	}
	for _, u := range a.Uses {
		if owner := h.attachedOwner(u.Ref); owner != "" {
			binds = append(binds, daemon.BindSpec{FromVolumesOf: h.Policy.IName(owner, u.Ref), ReadOnly: u.ReadOnly})
		}
	}
	for _, b := range a.Binds {
		if b.IsInline() {
			binds = append(binds, daemon.BindSpec{Source: b.HostSubPath, Target: b.ContainerPath, ReadOnly: b.ReadOnly})
			continue
		}
		hostPath, ok := policy.HostPath(h.Map, b.VolumeAlias, instance)
		if !ok {
			continue
		}
		binds = append(binds, daemon.BindSpec{
			Source:   hostPath,
			Target:   h.Map.Volumes[b.VolumeAlias],
			ReadOnly: b.ReadOnly,
		})
	}
	return binds
}

func (h *KwargsHooks) attachedOwner(ref string) string {
	for _, name := range h.Map.Names() {
		for _, alias := range h.Map.Containers[name].Attaches {
			if alias == ref {
				return name
			}
		}
	}
	return ""
}

func firstOrEmpty(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

func mergeCreateOverride(spec, override *daemon.CreateContainerSpec) {
	if override.Image != "" {
		spec.Image = override.Image
	}
	if len(override.Env) > 0 {
		spec.Env = override.Env
	}
	if len(override.Cmd) > 0 {
		spec.Cmd = override.Cmd
	}
	if len(override.Entrypoint) > 0 {
		spec.Entrypoint = override.Entrypoint
	}
	if override.Labels != nil {
		spec.Labels = override.Labels
	}
	if len(override.Binds) > 0 {
		spec.Binds = override.Binds
	}
	if override.NetworkMode != "" {
		spec.NetworkMode = override.NetworkMode
	}
	if override.StopSignal != "" {
		spec.StopSignal = override.StopSignal
	}
	if override.StopTimeout != nil {
		spec.StopTimeout = override.StopTimeout
	}
}

// RemoveKwargs builds the default removeVolumes/force pair for Remove.
func (h *KwargsHooks) RemoveKwargs(removeAttached bool) (removeVolumes, force bool) {
	return removeAttached, false
}

// NetworkCreateKwargs builds the default daemon.CreateNetworkSpec for a
// declared network.
func (h *KwargsHooks) NetworkCreateKwargs(name string, n *mapmodel.NetworkAssignment) daemon.CreateNetworkSpec {
	return daemon.CreateNetworkSpec{
		Name:     name,
		Driver:   n.Driver,
		Options:  n.Options,
		Internal: n.Internal,
	}
}
