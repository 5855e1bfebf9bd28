// Package depresolver implements the generic forward/backward transitive
// dependency resolver spec.md §4.1 describes, and its specialization for
// container/volume/network edges derived from a ContainerMap.
package depresolver

import "evalgo.org/fleetmap/internal/fleeterr"

// Items supplies direct dependency edges: for a node, the ordered list
// of its immediate parents (the things it depends on). Self-references
// are expected to already be filtered out by the caller.
type Items interface {
	// DirectDeps returns the direct parents of node, in declaration order.
	DirectDeps(node string) []string
	// Nodes returns all known node names, in a stable order.
	Nodes() []string
}

// Resolver computes the memoized transitive closure of a direct-edge
// relation, merging parents-first and preserving first-seen order
// without duplicates.
//
// A single Resolver instance is unidirectional: feed it forward edges
// for a "depends on" resolver, or inverted edges for a "used by"
// resolver. Cycles between distinct nodes are rejected; self-references
// are ignored by the edge source, not by the Resolver.
type Resolver struct {
	items Items
	cache map[string][]string
}

// New creates a Resolver over the given edge source.
func New(items Items) *Resolver {
	return &Resolver{items: items, cache: make(map[string][]string)}
}

// GetDependencies returns the ordered, duplicate-free list of nodes
// transitively reachable from node via direct edges: node's direct
// edges come first, followed by each one's own resolved list, each new
// node appended in first-seen order (nearest nodes first). The result
// is memoized per node.
func (r *Resolver) GetDependencies(node string) ([]string, error) {
	if cached, ok := r.cache[node]; ok {
		return cached, nil
	}
	resolved, err := r.resolve(node, nil)
	if err != nil {
		return nil, err
	}
	r.cache[node] = resolved
	return resolved, nil
}

// resolve computes the merged dependency list for node, detecting
// cycles via onStack (the path from the original call down to node).
func (r *Resolver) resolve(node string, onStack []string) ([]string, error) {
	for _, s := range onStack {
		if s == node {
			return nil, fleeterr.NewCircularDependency(append(append([]string{}, onStack...), node))
		}
	}

	parents := r.items.DirectDeps(node)
	if len(parents) == 0 {
		return nil, nil
	}

	stack := append(append([]string{}, onStack...), node)
	dep := append([]string{}, parents...)
	seen := make(map[string]struct{}, len(dep))
	for _, p := range dep {
		seen[p] = struct{}{}
	}

	for _, parent := range parents {
		if cached, ok := r.cache[parent]; ok {
			dep = appendNew(dep, seen, cached)
			continue
		}
		parentDep, err := r.resolve(parent, stack)
		if err != nil {
			return nil, err
		}
		r.cache[parent] = parentDep
		dep = appendNew(dep, seen, parentDep)
	}

	return dep, nil
}

func appendNew(dep []string, seen map[string]struct{}, additions []string) []string {
	for _, a := range additions {
		if _, ok := seen[a]; !ok {
			seen[a] = struct{}{}
			dep = append(dep, a)
		}
	}
	return dep
}

// Invert builds an Items whose DirectDeps(n) returns every node whose
// direct deps include n — i.e. the reverse ("used by") edge set,
// used to construct the Dependent (backward) resolver from a forward
// Items source.
func Invert(forward Items) Items {
	inverted := make(map[string][]string)
	for _, n := range forward.Nodes() {
		inverted[n] = nil
	}
	for _, n := range forward.Nodes() {
		for _, parent := range forward.DirectDeps(n) {
			inverted[parent] = append(inverted[parent], n)
		}
	}
	return &staticItems{nodes: forward.Nodes(), deps: inverted}
}

type staticItems struct {
	nodes []string
	deps  map[string][]string
}

func (s *staticItems) DirectDeps(node string) []string { return s.deps[node] }
func (s *staticItems) Nodes() []string                 { return s.nodes }
