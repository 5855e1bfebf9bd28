package mapmodel

import "evalgo.org/fleetmap/internal/fleeterr"

// Resolve returns the fully-merged view of m: every map named in m.Extends
// (and transitively, in theirs) applied in declaration order as a base,
// with m's own assignments layered on top. The result is computed once and
// cached on m; later calls return the same *ContainerMap.
//
// registry resolves a map name to the ContainerMap it names; it is the
// caller's already-parsed document set (spec.md §6's "configuration
// document" collection), not looked up on m itself.
func (m *ContainerMap) Resolve(registry map[string]*ContainerMap) (*ContainerMap, error) {
	if m.extended != nil {
		return m.extended, nil
	}
	merged, err := resolveChain(m, registry, nil)
	if err != nil {
		return nil, err
	}
	m.extended = merged
	return merged, nil
}

// resolveChain walks m.Extends depth-first, merging each named base map
// (itself fully resolved first) before m's own assignments, and raises
// CircularDependency if a map extends itself transitively.
func resolveChain(m *ContainerMap, registry map[string]*ContainerMap, onStack []string) (*ContainerMap, error) {
	for _, s := range onStack {
		if s == m.Name {
			return nil, fleeterr.NewCircularDependency(append(onStack, m.Name))
		}
	}
	if len(m.Extends) == 0 {
		return m, nil
	}

	stack := append(append([]string{}, onStack...), m.Name)
	result := New(m.Name)
	for _, baseName := range m.Extends {
		base, ok := registry[baseName]
		if !ok {
			return nil, fleeterr.NewMapKeyError(baseName)
		}
		resolvedBase, err := resolveChain(base, registry, stack)
		if err != nil {
			return nil, err
		}
		mergeInto(result, resolvedBase)
	}
	mergeInto(result, m)
	result.Extends = nil
	return result, nil
}

// mergeInto layers src's assignments onto dst: string fields are
// overwritten when src sets them, UseAttachedParentName is always taken
// from src, map fields are merged key-wise (src
// wins on conflict), and per-container assignments merge field-by-field
// via mergeAssignment rather than wholesale replacement.
func mergeInto(dst, src *ContainerMap) {
	if src.HostRoot != "" {
		dst.HostRoot = src.HostRoot
	}
	if src.Repository != "" {
		dst.Repository = src.Repository
	}
	if src.DefaultDomain != "" {
		dst.DefaultDomain = src.DefaultDomain
	}
	dst.UseAttachedParentName = src.UseAttachedParentName

	for alias, path := range src.Host {
		dst.Host[alias] = path
	}
	for alias, path := range src.Volumes {
		dst.Volumes[alias] = path
	}
	for name, net := range src.Networks {
		dst.Networks[name] = net
	}
	for name, a := range src.Containers {
		if existing, ok := dst.Containers[name]; ok {
			dst.Containers[name] = mergeAssignment(existing, a)
		} else {
			copied := *a
			dst.Containers[name] = &copied
		}
	}
}

// mergeAssignment layers override onto a copy of base: scalars set in
// override replace base's, lists are concatenated (base first), maps are
// merged key-wise with override winning.
func mergeAssignment(base, override *ContainerAssignment) *ContainerAssignment {
	merged := *base

	if override.Image != "" {
		merged.Image = override.Image
	}
	if override.StopSignal != "" {
		merged.StopSignal = override.StopSignal
	}
	if override.StopTimeout != 0 {
		merged.StopTimeout = override.StopTimeout
	}
	if len(override.Command) > 0 {
		merged.Command = override.Command
	}
	if len(override.Entrypoint) > 0 {
		merged.Entrypoint = override.Entrypoint
	}
	if len(override.Clients) > 0 {
		merged.Clients = override.Clients
	}

	merged.Instances = append(append([]string{}, base.Instances...), override.Instances...)
	merged.Shares = append(append([]string{}, base.Shares...), override.Shares...)
	merged.Binds = append(append([]BindMount{}, base.Binds...), override.Binds...)
	merged.Uses = append(append([]UsesRef{}, base.Uses...), override.Uses...)
	merged.Attaches = append(append([]string{}, base.Attaches...), override.Attaches...)
	merged.Links = append(append([]Link{}, base.Links...), override.Links...)
	merged.Exposes = append(append([]PortExposure{}, base.Exposes...), override.Exposes...)
	merged.Networks = append(append([]string{}, base.Networks...), override.Networks...)
	merged.ExecCommands = append(append([]ExecCommand{}, base.ExecCommands...), override.ExecCommands...)

	merged.Environment = mergeStringMap(base.Environment, override.Environment)
	merged.CreateOptions = mergeAnyMap(base.CreateOptions, override.CreateOptions)
	merged.HostConfig = mergeAnyMap(base.HostConfig, override.HostConfig)

	return &merged
}

func mergeStringMap(base, override map[string]string) map[string]string {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

func mergeAnyMap(base, override map[string]interface{}) map[string]interface{} {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}
