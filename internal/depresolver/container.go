package depresolver

import (
	"strings"

	"evalgo.org/fleetmap/internal/mapmodel"
)

// containerItems implements Items over a ContainerMap's dependency_items:
// for every container and every instance thereof, a node id plus its
// direct deps (uses — with attached-volume refs rewritten to their
// owning container — links, and network membership).
//
// Attached volumes are NOT separate nodes here: resolving "uses: vol"
// points at vol's owning container. The state pipeline re-expands the
// owner back into its attached volumes at emission time (§4.1 note).
type containerItems struct {
	m        *mapmodel.ContainerMap
	attached map[string]string // alias -> owning container name
	nodes    []string
	deps     map[string][]string
}

// NewContainerItems builds the Items adapter for m, ready to back both a
// forward (uses/links/networks) and, via Invert, a backward (used-by)
// Resolver.
func NewContainerItems(m *mapmodel.ContainerMap) Items {
	attached := make(map[string]string)
	for _, name := range m.Names() {
		a := m.Containers[name]
		for _, alias := range a.Attaches {
			attached[alias] = name
		}
	}

	ci := &containerItems{m: m, attached: attached, deps: make(map[string][]string)}

	for _, name := range m.Names() {
		a := m.Containers[name]
		depSet := directDepsOf(name, a, attached)

		for _, inst := range a.Instances {
			node := name + "." + inst
			ci.nodes = append(ci.nodes, node)
			ci.deps[node] = depSet
		}
		ci.nodes = append(ci.nodes, name)
		ci.deps[name] = depSet
	}

	return ci
}

// directDepsOf computes the direct dependency set for container name,
// in declaration order: uses (attached refs rewritten to their owner),
// then the container side of each link, then networks. Self-references
// are dropped; duplicates are collapsed, first occurrence wins.
func directDepsOf(name string, a *mapmodel.ContainerAssignment, attached map[string]string) []string {
	var deps []string
	seen := make(map[string]struct{})
	add := func(ref string) {
		base, _, _ := strings.Cut(ref, ".")
		if base == name {
			return // self-reference, ignored
		}
		if _, ok := seen[ref]; ok {
			return
		}
		seen[ref] = struct{}{}
		deps = append(deps, ref)
	}

	for _, u := range a.Uses {
		ref := u.Ref
		if owner, ok := attached[ref]; ok {
			ref = owner
		}
		add(ref)
	}
	for _, l := range a.Links {
		add(l.ContainerRef)
	}
	for _, n := range a.Networks {
		add(n)
	}

	return deps
}

func (c *containerItems) DirectDeps(node string) []string { return c.deps[node] }
func (c *containerItems) Nodes() []string                 { return c.nodes }

// ContainerDependencyResolver pairs forward and backward Resolvers over
// the same ContainerMap, giving §4.1's "dependency path" / "dependent
// path" traversals independent memoized caches fed from inverted edge
// sets.
type ContainerDependencyResolver struct {
	Forward  *Resolver // uses/links/networks
	Backward *Resolver // used-by
}

// NewContainerDependencyResolver builds both directions for m.
func NewContainerDependencyResolver(m *mapmodel.ContainerMap) *ContainerDependencyResolver {
	items := NewContainerItems(m)
	return &ContainerDependencyResolver{
		Forward:  New(items),
		Backward: New(Invert(items)),
	}
}
