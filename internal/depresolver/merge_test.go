package depresolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergePathsDropsContainedRoot(t *testing.T) {
	pairs := []RootPath[string]{
		{Root: "server", Path: []string{"svc", "sub_svc", "server"}},
		{Root: "svc", Path: []string{"sub_svc", "svc"}},
	}
	merged := MergePaths(pairs)

	assert := assert.New(t)
	assert.Len(merged, 1)
	assert.Equal("server", merged[0].Root)
	assert.Equal([]string{"svc", "sub_svc", "server"}, merged[0].Path)
}

func TestMergePathsReducesOverlap(t *testing.T) {
	// Two independent roots sharing a common dependency ("redis"), with
	// neither root name appearing inside the other's path.
	pairs := []RootPath[string]{
		{Root: "svc", Path: []string{"redis", "svc"}},
		{Root: "svc2", Path: []string{"redis", "svc2"}},
	}
	merged := MergePaths(pairs)

	assert := assert.New(t)
	if assert.Len(merged, 2) {
		assert.Equal("svc", merged[0].Root)
		assert.Equal([]string{"redis", "svc"}, merged[0].Path)
		assert.Equal("svc2", merged[1].Root)
		assert.Equal([]string{"svc2"}, merged[1].Path, "redis already covered by the first path")
	}
}

func TestMergePathsIndependentSubgraphs(t *testing.T) {
	pairs := []RootPath[string]{
		{Root: "a", Path: []string{"a"}},
		{Root: "b", Path: []string{"b"}},
	}
	merged := MergePaths(pairs)
	assert.Len(t, merged, 2)
}
