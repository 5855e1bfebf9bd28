package depresolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeItems struct {
	deps map[string][]string
}

func (f *fakeItems) DirectDeps(node string) []string { return f.deps[node] }
func (f *fakeItems) Nodes() []string {
	nodes := make([]string, 0, len(f.deps))
	for n := range f.deps {
		nodes = append(nodes, n)
	}
	return nodes
}

// chain: server -> svc -> sub_svc -> redis
func chainItems() *fakeItems {
	return &fakeItems{deps: map[string][]string{
		"redis":   nil,
		"sub_svc": {"redis"},
		"svc":     {"sub_svc"},
		"server":  {"svc"},
	}}
}

func TestGetDependenciesLeaf(t *testing.T) {
	r := New(chainItems())
	deps, err := r.GetDependencies("redis")
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestGetDependenciesChain(t *testing.T) {
	r := New(chainItems())
	deps, err := r.GetDependencies("server")
	require.NoError(t, err)
	assert.Equal(t, []string{"svc", "sub_svc", "redis"}, deps)
}

func TestGetDependenciesMemoizes(t *testing.T) {
	r := New(chainItems())
	first, err := r.GetDependencies("server")
	require.NoError(t, err)
	second, err := r.GetDependencies("server")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGetDependenciesDedupesDiamond(t *testing.T) {
	// server depends on both svc and sub_svc directly, and svc also
	// depends on sub_svc: sub_svc/redis must appear once each.
	items := &fakeItems{deps: map[string][]string{
		"redis":   nil,
		"sub_svc": {"redis"},
		"svc":     {"sub_svc"},
		"server":  {"svc", "sub_svc"},
	}}
	r := New(items)
	deps, err := r.GetDependencies("server")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"svc", "sub_svc", "redis"}, deps)
	assert.Len(t, deps, 3)
}

func TestGetDependenciesDetectsCycle(t *testing.T) {
	items := &fakeItems{deps: map[string][]string{
		"a": {"b"},
		"b": {"a"},
	}}
	r := New(items)
	_, err := r.GetDependencies("a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular")
}

func TestInvertBuildsBackwardEdges(t *testing.T) {
	forward := chainItems()
	backward := Invert(forward)

	r := New(backward)
	deps, err := r.GetDependencies("redis")
	require.NoError(t, err)
	assert.Equal(t, []string{"sub_svc", "svc", "server"}, deps)
}
