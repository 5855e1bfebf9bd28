package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/fleetmap/internal/daemon"
	"evalgo.org/fleetmap/internal/fleeterr"
	"evalgo.org/fleetmap/internal/mapmodel"
)

// buildMap is the fixture shared by this file's tests: "db" is a plain
// container with no dependencies; "app" uses "db" (a container-to-
// container "uses", spec.md §4.1) and links to it.
func buildMap() *mapmodel.ContainerMap {
	m := mapmodel.New("main")
	m.Containers["db"] = &mapmodel.ContainerAssignment{Image: "postgres"}
	m.Containers["app"] = &mapmodel.ContainerAssignment{
		Image: "app",
		Uses:  []mapmodel.UsesRef{{Ref: "db"}},
		Links: []mapmodel.Link{{ContainerRef: "db"}},
	}
	return m
}

func newGenerator(t *testing.T, m *mapmodel.ContainerMap, client daemon.Client) *Generator {
	t.Helper()
	g, err := New(m, client, Options{})
	require.NoError(t, err)
	return g
}

func TestGenerateSingleAbsent(t *testing.T) {
	m := buildMap()
	client := newFakeClient()
	g := newGenerator(t, m, client)

	states, err := g.Generate(context.Background(), "app", Single)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, Absent, states[0].BaseState)
	assert.Equal(t, ConfigFlags(0), states[0].ConfigFlags)
}

func TestGenerateDependencyPathOrdersDependenciesFirst(t *testing.T) {
	// spec.md §8 dependency_states_running: walking "app" in Dependency
	// mode visits "db" before "app", and only "app" carries ConfigFlags 0
	// (it is the target; "db" is Dependent).
	m := buildMap()
	client := newFakeClient()
	client.put("main.db", &daemon.ContainerInspect{State: daemon.ContainerState{Running: true, StartedAt: "2024-01-01T00:00:00Z"}})
	client.put("main.app", &daemon.ContainerInspect{State: daemon.ContainerState{Running: true, StartedAt: "2024-01-01T00:00:00Z"}})
	g := newGenerator(t, m, client)

	states, err := g.Generate(context.Background(), "app", Dependency)
	require.NoError(t, err)
	require.Len(t, states, 2)

	assert.Equal(t, "db", states[0].ConfigID.ConfigName)
	assert.Equal(t, Running, states[0].BaseState)
	assert.Equal(t, Dependent, states[0].ConfigFlags)

	assert.Equal(t, "app", states[1].ConfigID.ConfigName)
	assert.Equal(t, ConfigFlags(0), states[1].ConfigFlags)
}

func TestGenerateDependentPathOrdersTargetFirst(t *testing.T) {
	// Walking "db" in Dependent mode visits "db" itself first, then "app"
	// (its dependent), with only "db" unflagged.
	m := buildMap()
	client := newFakeClient()
	g := newGenerator(t, m, client)

	states, err := g.Generate(context.Background(), "db", Dependent)
	require.NoError(t, err)
	require.Len(t, states, 2)

	assert.Equal(t, "db", states[0].ConfigID.ConfigName)
	assert.Equal(t, ConfigFlags(0), states[0].ConfigFlags)

	assert.Equal(t, "app", states[1].ConfigID.ConfigName)
	assert.Equal(t, Dependent, states[1].ConfigFlags)
}

func TestGenerateFlagsInitialStartTime(t *testing.T) {
	m := buildMap()
	client := newFakeClient()
	client.put("main.db", &daemon.ContainerInspect{State: daemon.ContainerState{StartedAt: InitialStartTime}})
	g := newGenerator(t, m, client)

	states, err := g.Generate(context.Background(), "db", Single)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, Present, states[0].BaseState)
	assert.True(t, states[0].StateFlags.Has(Initial))
}

func TestGenerateFlagsNonrecoverableExit(t *testing.T) {
	m := buildMap()
	client := newFakeClient()
	client.put("main.db", &daemon.ContainerInspect{State: daemon.ContainerState{
		StartedAt: "2024-01-01T00:00:00Z",
		ExitCode:  1,
	}})
	g := newGenerator(t, m, client)

	states, err := g.Generate(context.Background(), "db", Single)
	require.NoError(t, err)
	assert.True(t, states[0].StateFlags.Has(Nonrecoverable))
	assert.True(t, states[0].StateFlags.NeedsReset())
}

func TestGenerateForcedResetAppliesToAbsent(t *testing.T) {
	m := buildMap()
	client := newFakeClient()
	id := mapmodel.MapConfigId{ConfigType: mapmodel.ContainerType, MapName: "main", ConfigName: "db"}
	g, err := New(m, client, Options{ForceUpdate: map[mapmodel.MapConfigId]bool{id: true}})
	require.NoError(t, err)

	states, err := g.Generate(context.Background(), "db", Single)
	require.NoError(t, err)
	assert.Equal(t, Absent, states[0].BaseState)
	assert.True(t, states[0].StateFlags.Has(ForcedReset))
}

func TestGenerateUpdateDetectsImageMismatch(t *testing.T) {
	m := buildMap()
	client := newFakeClient()
	client.images["postgres:latest"] = "sha256:new"
	client.put("main.db", &daemon.ContainerInspect{
		Image: "sha256:old",
		State: daemon.ContainerState{Running: true, StartedAt: "2024-01-01T00:00:00Z"},
	})
	g := newGenerator(t, m, client)

	states, err := g.Generate(context.Background(), "db", Update)
	require.NoError(t, err)
	assert.True(t, states[0].StateFlags.Has(ImageMismatch))
	assert.True(t, states[0].StateFlags.NeedsReset())
}

func TestGenerateUpdateNoMismatchWhenImageMatches(t *testing.T) {
	m := buildMap()
	client := newFakeClient()
	client.images["postgres:latest"] = "sha256:same"
	client.put("main.db", &daemon.ContainerInspect{
		Image: "sha256:same",
		State: daemon.ContainerState{Running: true, StartedAt: "2024-01-01T00:00:00Z"},
	})
	g := newGenerator(t, m, client)

	states, err := g.Generate(context.Background(), "db", Update)
	require.NoError(t, err)
	assert.False(t, states[0].StateFlags.Has(ImageMismatch))
}

func TestGenerateEmitsExecEntriesOnlyWhenRunning(t *testing.T) {
	m := buildMap()
	m.Containers["db"].ExecCommands = []mapmodel.ExecCommand{
		{Cmd: "migrate", Policy: mapmodel.ExecPolicyInitial},
	}
	client := newFakeClient()
	client.put("main.db", &daemon.ContainerInspect{State: daemon.ContainerState{Running: true, StartedAt: "2024-01-01T00:00:00Z"}})
	client.tops["main.db"] = []daemon.ProcessEntry{{User: "", Cmd: "migrate"}}
	g := newGenerator(t, m, client)

	states, err := g.Generate(context.Background(), "db", Single)
	require.NoError(t, err)
	require.Len(t, states[0].ExtraData.ExecCommands, 1)
	assert.True(t, states[0].ExtraData.ExecCommands[0].AlreadyRun)
}

func TestGenerateManyDedupesSharedDependency(t *testing.T) {
	// "app" and a second container "app2" both depend on "db": GenerateMany
	// must emit "db" once, not twice (spec.md §8 multi-target case).
	m := buildMap()
	m.Containers["app2"] = &mapmodel.ContainerAssignment{
		Image: "app2",
		Uses:  []mapmodel.UsesRef{{Ref: "db"}},
	}
	client := newFakeClient()
	g := newGenerator(t, m, client)

	states, err := g.GenerateMany(context.Background(), []string{"app", "app2"}, Dependency)
	require.NoError(t, err)

	dbCount := 0
	for _, st := range states {
		if st.ConfigID.ConfigName == "db" {
			dbCount++
		}
	}
	assert.Equal(t, 1, dbCount, "db is a shared dependency of both targets and must only be emitted once")

	names := make([]string, 0, len(states))
	for _, st := range states {
		names = append(names, st.ConfigID.ConfigName)
	}
	assert.ElementsMatch(t, []string{"db", "app", "app2"}, names)
}

func TestGenerateUnknownTargetIsMapKeyError(t *testing.T) {
	m := buildMap()
	client := newFakeClient()
	g := newGenerator(t, m, client)

	_, err := g.Generate(context.Background(), "ghost", Single)
	require.Error(t, err)
	var keyErr *fleeterr.MapKeyError
	require.ErrorAs(t, err, &keyErr)
}

func TestGenerateSkipsUndeclaredObservedContainerByDefault(t *testing.T) {
	// "main.ghost" carries this map's own name prefix but matches no
	// declared object (e.g. left over from a since-removed declaration).
	// Outside strict mode this is only a logged warning, not a failure.
	m := buildMap()
	client := newFakeClient()
	client.put("main.db", &daemon.ContainerInspect{State: daemon.ContainerState{Running: true, StartedAt: "2024-01-01T00:00:00Z"}})
	client.put("main.ghost", &daemon.ContainerInspect{State: daemon.ContainerState{Running: true, StartedAt: "2024-01-01T00:00:00Z"}})
	g := newGenerator(t, m, client)

	states, err := g.Generate(context.Background(), "db", Single)
	require.NoError(t, err)
	assert.Equal(t, Running, states[0].BaseState)
}

func TestGenerateStrictModeErrorsOnUndeclaredObservedContainer(t *testing.T) {
	m := buildMap()
	client := newFakeClient()
	client.put("main.ghost", &daemon.ContainerInspect{State: daemon.ContainerState{Running: true, StartedAt: "2024-01-01T00:00:00Z"}})
	g, err := New(m, client, Options{StrictInspect: true})
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "db", Single)
	require.Error(t, err)
	var inconsistency *fleeterr.InspectInconsistency
	require.ErrorAs(t, err, &inconsistency)
	assert.Equal(t, "main.ghost", inconsistency.ObservedName)
}
