package state

import (
	"context"
	"sort"
	"strconv"

	"evalgo.org/fleetmap/internal/daemon"
	"evalgo.org/fleetmap/internal/mapmodel"
	"evalgo.org/fleetmap/internal/policy"
)

// compareConfiguration implements the Update-mode mismatch checks of
// spec.md §4.2: image identity, mount set, and the remaining
// "miscellaneous" comparisons (env, command/entrypoint, ports, links,
// networks).
func (g *Generator) compareConfiguration(ctx context.Context, name, instance string, a *mapmodel.ContainerAssignment, insp *daemon.ContainerInspect) (Flags, error) {
	var flags Flags

	if a.Image != "" {
		mismatch, err := g.imageMismatch(ctx, a.Image, insp)
		if err != nil {
			return 0, err
		}
		if mismatch {
			flags |= ImageMismatch
		}
	}

	if g.volumeMismatch(name, instance, a, insp) {
		flags |= VolumeMismatch
	}

	if g.miscMismatch(name, a, insp) {
		flags |= MiscMismatch
	}

	return flags, nil
}

func (g *Generator) imageMismatch(ctx context.Context, image string, insp *daemon.ContainerInspect) (bool, error) {
	tag := g.Policy.ImageName(image)
	id, err := g.cache.ImageID(ctx, tag)
	if err != nil {
		return false, err
	}
	if id == "" {
		// Tag still unresolved after a pull attempt; cannot assert a
		// mismatch either way.
		return false, nil
	}
	return id != insp.Image, nil
}

// expectedMount is one mount the declared assignment implies.
type expectedMount struct {
	source      string
	destination string
	readOnly    bool
}

func (g *Generator) volumeMismatch(name, instance string, a *mapmodel.ContainerAssignment, insp *daemon.ContainerInspect) bool {
	var expected []expectedMount

	for _, alias := range a.Attaches {
		expected = append(expected, expectedMount{
			source:      g.Policy.IName(name, alias),
			destination: g.Map.Volumes[alias],
		})
	}
	for _, u := range a.Uses {
		ref := u.Ref
		if owner := g.attachedOwner(ref); owner != "" {
			expected = append(expected, expectedMount{
				source:      g.Policy.IName(owner, ref),
				destination: g.Map.Volumes[ref],
				readOnly:    u.ReadOnly,
			})
		}
		// A uses ref naming another shared container instance (rather
		// than an attached volume) contributes no mount of its own.
	}
	for _, b := range a.Binds {
		if b.IsInline() {
			hostPath, _ := resolveHostSubPath(g.Map, b.HostSubPath, instance)
			expected = append(expected, expectedMount{
				source:      hostPath,
				destination: b.ContainerPath,
				readOnly:    b.ReadOnly,
			})
			continue
		}
		hostPath, ok := hostPathForAlias(g.Map, b.VolumeAlias, instance)
		if !ok {
			continue
		}
		expected = append(expected, expectedMount{
			source:      hostPath,
			destination: g.Map.Volumes[b.VolumeAlias],
			readOnly:    b.ReadOnly,
		})
	}
	for _, share := range a.Shares {
		expected = append(expected, expectedMount{destination: share})
	}

	observed := make(map[string]daemon.Mount, len(insp.Mounts))
	for _, m := range insp.Mounts {
		observed[m.Destination] = m
	}

	for _, exp := range expected {
		obs, ok := observed[exp.destination]
		if !ok {
			return true
		}
		if exp.readOnly != !obs.RW {
			return true
		}
		if exp.source != "" && obs.Source != "" && exp.source != obs.Source {
			return true
		}
	}
	return false
}

func (g *Generator) attachedOwner(ref string) string {
	for _, name := range g.Map.Names() {
		for _, alias := range g.Map.Containers[name].Attaches {
			if alias == ref {
				return name
			}
		}
	}
	return ""
}

func resolveHostSubPath(m *mapmodel.ContainerMap, subPath, instance string) (string, bool) {
	if m.HostRoot == "" {
		return subPath, true
	}
	return m.HostRoot + "/" + instantiate(subPath, instance), true
}

func hostPathForAlias(m *mapmodel.ContainerMap, alias, instance string) (string, bool) {
	tmpl, ok := m.Host[alias]
	if !ok {
		return "", false
	}
	return instantiate(tmpl, instance), true
}

func instantiate(tmpl, instance string) string {
	const placeholder = "{instance}"
	out := tmpl
	for {
		idx := indexOf(out, placeholder)
		if idx < 0 {
			return out
		}
		out = out[:idx] + instance + out[idx+len(placeholder):]
	}
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

func (g *Generator) miscMismatch(name string, a *mapmodel.ContainerAssignment, insp *daemon.ContainerInspect) bool {
	if !envIsSubset(a.Environment, insp.Env) {
		return true
	}
	if len(a.Command) > 0 && !stringsEqual(a.Command, insp.Cmd) {
		return true
	}
	if len(a.Entrypoint) > 0 && !stringsEqual(a.Entrypoint, insp.Entrypoint) {
		return true
	}
	if portsDiffer(a.Exposes, insp.Ports) {
		return true
	}
	if linksDiffer(g.Map, name, a.Links, insp.Links) {
		return true
	}
	if networksDiffer(a.Networks, insp.Networks) {
		return true
	}
	return false
}

func envIsSubset(declared map[string]string, observed []string) bool {
	observedSet := make(map[string]bool, len(observed))
	for _, kv := range observed {
		observedSet[kv] = true
	}
	for k, v := range declared {
		if !observedSet[k+"="+v] {
			return false
		}
	}
	return true
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func portsDiffer(declared []mapmodel.PortExposure, observed []daemon.PortBinding) bool {
	type key struct {
		port  int
		proto string
	}
	want := make(map[key]string, len(declared))
	for _, e := range declared {
		if e.HostPort == 0 {
			continue
		}
		proto := e.Protocol
		if proto == "" {
			proto = "tcp"
		}
		iface := e.Interface
		if iface == "" {
			iface = "0.0.0.0"
		}
		want[key{e.ContainerPort, proto}] = iface + ":" + strconv.Itoa(e.HostPort)
	}
	got := make(map[key]string, len(observed))
	for _, p := range observed {
		hostIP := p.HostIP
		if hostIP == "" {
			hostIP = "0.0.0.0"
		}
		got[key{p.ContainerPort, p.Protocol}] = hostIP + ":" + p.HostPort
	}
	if len(want) != len(got) {
		return true
	}
	for k, v := range want {
		if got[k] != v {
			return true
		}
	}
	return false
}

func linksDiffer(m *mapmodel.ContainerMap, name string, declared []mapmodel.Link, observed []string) bool {
	want := make([]string, 0, len(declared))
	for _, l := range declared {
		alias := l.Alias
		if alias == "" {
			alias = policy.Hostname(l.ContainerRef)
		}
		want = append(want, alias)
	}
	sort.Strings(want)
	got := append([]string{}, observed...)
	sort.Strings(got)
	if len(want) != len(got) {
		return true
	}
	for i := range want {
		if !containsSuffix(got[i], want[i]) {
			return true
		}
	}
	return false
}

// containsSuffix reports whether the observed link entry (typically
// "/src:/dst/alias") ends in "/"+alias.
func containsSuffix(observed, alias string) bool {
	suffix := "/" + alias
	if len(observed) < len(suffix) {
		return false
	}
	return observed[len(observed)-len(suffix):] == suffix
}

func networksDiffer(declared, observed []string) bool {
	want := append([]string{}, declared...)
	got := append([]string{}, observed...)
	sort.Strings(want)
	sort.Strings(got)
	return !stringsEqual(want, got)
}
