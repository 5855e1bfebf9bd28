// Package policy derives daemon-facing names and per-action argument
// defaults from a ContainerMap (spec.md §4.3): container/volume naming,
// image tag resolution, link hostnames, and client routing. The state
// generator and action runner both consult it rather than re-deriving
// these rules themselves.
package policy

import (
	"strings"

	"evalgo.org/fleetmap/internal/mapmodel"
)

// Policy wraps a single resolved ContainerMap with its naming rules.
type Policy struct {
	Map *mapmodel.ContainerMap
}

func New(m *mapmodel.ContainerMap) *Policy {
	return &Policy{Map: m}
}

// CName formats a container's daemon-facing name.
func (p *Policy) CName(config, instance string) string {
	return p.Map.CName(config, instance)
}

// IName formats an attached volume's daemon-facing name.
func (p *Policy) IName(owner, alias string) string {
	return p.Map.IName(owner, alias)
}

// ImageName resolves a declared image tag to the full reference the
// daemon should pull/create from: a tag containing a slash, or already
// prefixed with the map's repository, is used as-is; otherwise it is
// prefixed with "repository/". A missing tag suffix defaults to ":latest".
func (p *Policy) ImageName(image string) string {
	if image == "" {
		return image
	}
	repo := p.Map.Repository
	if !strings.Contains(image, "/") && repo != "" && !strings.HasPrefix(image, repo+"/") {
		image = repo + "/" + image
	}
	if !hasTag(image) {
		image += ":latest"
	}
	return image
}

// hasTag reports whether image already names a tag or digest, i.e. a
// ":" or "@" appears after the last "/".
func hasTag(image string) bool {
	slash := strings.LastIndex(image, "/")
	rest := image[slash+1:]
	return strings.ContainsAny(rest, ":@")
}

// Hostname derives a stable DNS-safe hostname for a link alias from a
// container reference, replacing the dots CName/IName introduce with
// dashes so the result is a single DNS label component.
func Hostname(containerRef string) string {
	return strings.ReplaceAll(containerRef, ".", "-")
}

// ClientsFor returns the client names an assignment's actions should run
// on: its declared Clients, or DefaultClientName if none are set.
func ClientsFor(a *mapmodel.ContainerAssignment, defaultClient string) []string {
	if len(a.Clients) > 0 {
		return a.Clients
	}
	return []string{defaultClient}
}

// HostPath resolves a volume alias to its declared host path (inline
// host sub-paths are not handled here), substituting the "{instance}" placeholder with the
// container's instance name, the way host entries are declared with
// per-instance variation in mind (spec.md §3 "host" map).
func HostPath(m *mapmodel.ContainerMap, alias, instance string) (string, bool) {
	tmpl, ok := m.Host[alias]
	if !ok {
		return "", false
	}
	return strings.ReplaceAll(tmpl, "{instance}", instance), true
}
