package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"evalgo.org/fleetmap/internal/mapmodel"
)

func TestCNameINameDelegateToMap(t *testing.T) {
	m := mapmodel.New("main")
	p := New(m)

	assert.Equal(t, "main.svc.cache", p.CName("svc", "cache"))
	assert.Equal(t, "main.svc", p.CName("svc", ""))
	assert.Equal(t, "main.svc.data", p.IName("svc", "data"))
}

func TestImageNameAddsDefaultTag(t *testing.T) {
	m := mapmodel.New("main")
	p := New(m)

	assert.Equal(t, "redis:latest", p.ImageName("redis"))
}

func TestImageNameKeepsExplicitTag(t *testing.T) {
	m := mapmodel.New("main")
	p := New(m)

	assert.Equal(t, "redis:6-alpine", p.ImageName("redis:6-alpine"))
}

func TestImageNameKeepsDigest(t *testing.T) {
	m := mapmodel.New("main")
	p := New(m)

	assert.Equal(t, "redis@sha256:deadbeef", p.ImageName("redis@sha256:deadbeef"))
}

func TestImageNamePrefixesRepository(t *testing.T) {
	m := mapmodel.New("main")
	m.Repository = "registry.internal"
	p := New(m)

	assert.Equal(t, "registry.internal/redis:latest", p.ImageName("redis"))
}

func TestImageNameSlashedTagBypassesRepository(t *testing.T) {
	m := mapmodel.New("main")
	m.Repository = "registry.internal"
	p := New(m)

	assert.Equal(t, "library/redis:latest", p.ImageName("library/redis"))
}

func TestImageNameAlreadyPrefixedWithRepository(t *testing.T) {
	m := mapmodel.New("main")
	m.Repository = "registry.internal"
	p := New(m)

	// already under the repository, not "registry.internal/registry.internal/..."
	assert.Equal(t, "registry.internal/redis:latest", p.ImageName("registry.internal/redis"))
}

func TestImageNameEmptyIsPassthrough(t *testing.T) {
	m := mapmodel.New("main")
	p := New(m)

	assert.Equal(t, "", p.ImageName(""))
}

func TestHostname(t *testing.T) {
	assert.Equal(t, "main-svc-cache", Hostname("main.svc.cache"))
	assert.Equal(t, "svc", Hostname("svc"))
}

func TestClientsForDeclared(t *testing.T) {
	a := &mapmodel.ContainerAssignment{Clients: []string{"east", "west"}}
	assert.Equal(t, []string{"east", "west"}, ClientsFor(a, "default"))
}

func TestClientsForFallsBackToDefault(t *testing.T) {
	a := &mapmodel.ContainerAssignment{}
	assert.Equal(t, []string{"default"}, ClientsFor(a, "default"))
}

func TestHostPathSubstitutesInstance(t *testing.T) {
	m := mapmodel.New("main")
	m.Host["data"] = "/var/lib/main/{instance}/data"

	path, ok := HostPath(m, "data", "cache")
	assert.True(t, ok)
	assert.Equal(t, "/var/lib/main/cache/data", path)
}

func TestHostPathMissingAlias(t *testing.T) {
	m := mapmodel.New("main")

	_, ok := HostPath(m, "data", "cache")
	assert.False(t, ok)
}
