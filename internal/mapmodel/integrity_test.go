package mapmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildSampleMap mirrors the shape of tests/test_state.py's MAP_DATA_2:
// a chain redis.cache/redis.queue (shared), sub_svc (uses redis,
// attaches a volume), sub_sub_svc (uses sub_svc's attached volume), svc
// (uses sub_svc), server (links svc).
func buildSampleMap() *ContainerMap {
	m := New("main")
	m.Host["data"] = "/var/lib/main/{instance}"
	m.Volumes["data"] = "/data"

	m.Containers["redis"] = &ContainerAssignment{
		Image:     "redis:latest",
		Instances: []string{"cache", "queue"},
		Shares:    []string{"/data"},
	}
	m.Containers["sub_svc"] = &ContainerAssignment{
		Image:    "sub_svc:latest",
		Attaches: []string{"data"},
		Uses: []UsesRef{
			{Ref: "redis.cache"},
		},
	}
	m.Containers["sub_sub_svc"] = &ContainerAssignment{
		Image: "sub_sub_svc:latest",
		Uses: []UsesRef{
			{Ref: "data"},
		},
	}
	m.Containers["svc"] = &ContainerAssignment{
		Image: "svc:latest",
		Uses: []UsesRef{
			{Ref: "sub_svc"},
		},
	}
	m.Containers["server"] = &ContainerAssignment{
		Image: "server:latest",
		Links: []Link{
			{ContainerRef: "svc"},
		},
	}
	return m
}

func TestCheckIntegrityValidMap(t *testing.T) {
	m := buildSampleMap()
	assert.NoError(t, m.CheckIntegrity(true))
}

func TestCheckIntegrityUndeclaredUse(t *testing.T) {
	m := buildSampleMap()
	m.Containers["svc"].Uses = append(m.Containers["svc"].Uses, UsesRef{Ref: "nonexistent"})

	err := m.CheckIntegrity(true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent")
}

func TestCheckIntegrityUndeclaredLink(t *testing.T) {
	m := buildSampleMap()
	m.Containers["server"].Links = append(m.Containers["server"].Links, Link{ContainerRef: "ghost"})

	err := m.CheckIntegrity(true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestCheckIntegrityDuplicateSharedName(t *testing.T) {
	m := buildSampleMap()
	m.Containers["svc"].Attaches = []string{"redis.cache"}

	err := m.CheckIntegrity(true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicated")
}

func TestCheckIntegrityBindWithoutHostShare(t *testing.T) {
	m := buildSampleMap()
	m.Containers["svc"].Binds = []BindMount{{VolumeAlias: "unmapped"}}

	err := m.CheckIntegrity(true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmapped")
}

func TestExpandInstances(t *testing.T) {
	m := buildSampleMap()

	ids := ExpandInstances(MapConfigId{ConfigType: ContainerType, MapName: "main", ConfigName: "redis"}, m)
	require.Len(t, ids, 2)
	assert.Equal(t, "cache", ids[0].InstanceName)
	assert.Equal(t, "queue", ids[1].InstanceName)

	// Already-instanced ids pass through unchanged.
	already := MapConfigId{ConfigType: ContainerType, MapName: "main", ConfigName: "redis", InstanceName: "cache"}
	assert.Equal(t, []MapConfigId{already}, ExpandInstances(already, m))

	// Non-instanced containers pass through as a single-element slice.
	single := MapConfigId{ConfigType: ContainerType, MapName: "main", ConfigName: "svc"}
	assert.Equal(t, []MapConfigId{single}, ExpandInstances(single, m))
}
