package state

import (
	"context"
	"strings"

	"evalgo.org/fleetmap/internal/daemon"
	"evalgo.org/fleetmap/internal/fleeterr"
	"evalgo.org/fleetmap/internal/logging"
	"evalgo.org/fleetmap/internal/mapmodel"
)

// inspectCache memoizes the daemon calls a single pass needs per the
// "minimum set of daemon calls" rule in spec.md §4.2: one ListContainers
// for name resolution, one InspectContainer per referenced name, one Top
// per running container with declared exec commands (in any mode), one
// ListImages (+PullImage as
// needed), one ListNetworks.
type inspectCache struct {
	client daemon.Client

	mapName  string
	declared map[string]bool // every daemon-facing name this map declares
	strict   bool

	listedContainers bool
	nameToID         map[string]string

	inspects map[string]*daemon.ContainerInspect

	tops map[string]map[execKey]bool

	listedImages bool
	imageIDs     map[string]string // repo:tag -> id

	listedNetworks bool
	networkIDs     map[string]string
}

type execKey struct {
	user string
	cmd  string
}

func newInspectCache(client daemon.Client, m *mapmodel.ContainerMap, strict bool) *inspectCache {
	return &inspectCache{
		client:     client,
		mapName:    m.Name,
		declared:   declaredDaemonNames(m),
		strict:     strict,
		nameToID:   make(map[string]string),
		inspects:   make(map[string]*daemon.ContainerInspect),
		tops:       make(map[string]map[execKey]bool),
		imageIDs:   make(map[string]string),
		networkIDs: make(map[string]string),
	}
}

// declaredDaemonNames enumerates every container-shaped daemon name m
// declares: one per container instance (CName) plus one per attached
// volume (IName, itself a data-volume container from the daemon's point
// of view).
func declaredDaemonNames(m *mapmodel.ContainerMap) map[string]bool {
	names := make(map[string]bool)
	for _, name := range m.Names() {
		a := m.Containers[name]
		instances := a.Instances
		if len(instances) == 0 {
			instances = []string{""}
		}
		for _, inst := range instances {
			names[m.CName(name, inst)] = true
		}
		for _, alias := range a.Attaches {
			names[m.IName(name, alias)] = true
		}
	}
	return names
}

func (c *inspectCache) resolveID(ctx context.Context, name string) (string, bool, error) {
	if !c.listedContainers {
		summaries, err := c.client.ListContainers(ctx)
		if err != nil {
			return "", false, err
		}
		prefix := c.mapName + "."
		for _, s := range summaries {
			for _, n := range s.Names {
				trimmed := trimSlash(n)
				if strings.HasPrefix(trimmed, prefix) && !c.declared[trimmed] {
					if c.strict {
						return "", false, fleeterr.NewInspectInconsistency(trimmed)
					}
					logging.Warn("observed container %q does not map to any declared object in map %q, skipping", trimmed, c.mapName)
				}
				c.nameToID[trimmed] = s.ID
			}
		}
		c.listedContainers = true
	}
	id, ok := c.nameToID[name]
	return id, ok, nil
}

func trimSlash(name string) string {
	if len(name) > 0 && name[0] == '/' {
		return name[1:]
	}
	return name
}

// Inspect returns the cached inspect for name, or nil if the container
// does not currently exist.
func (c *inspectCache) Inspect(ctx context.Context, name string) (*daemon.ContainerInspect, error) {
	if insp, ok := c.inspects[name]; ok {
		return insp, nil
	}
	id, ok, err := c.resolveID(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		c.inspects[name] = nil
		return nil, nil
	}
	insp, err := c.client.InspectContainer(ctx, id)
	if err != nil {
		return nil, err
	}
	c.inspects[name] = insp
	return insp, nil
}

// Top returns the set of (user, cmd) pairs observed running in name's
// process list, fetched and cached on first use.
func (c *inspectCache) Top(ctx context.Context, name string) (map[execKey]bool, error) {
	if set, ok := c.tops[name]; ok {
		return set, nil
	}
	procs, err := c.client.Top(ctx, name)
	if err != nil {
		return nil, err
	}
	set := make(map[execKey]bool, len(procs))
	for _, p := range procs {
		set[execKey{user: p.User, cmd: p.Cmd}] = true
	}
	c.tops[name] = set
	return set, nil
}

// ImageID resolves a declared image tag to its current daemon-side image
// id, pulling once and re-checking if the tag is not yet known.
func (c *inspectCache) ImageID(ctx context.Context, tag string) (string, error) {
	if id, ok := c.imageIDs[tag]; ok {
		return id, nil
	}
	if err := c.loadImages(ctx); err != nil {
		return "", err
	}
	if id, ok := c.imageIDs[tag]; ok {
		return id, nil
	}
	if err := c.client.PullImage(ctx, tag); err != nil {
		return "", err
	}
	c.listedImages = false
	if err := c.loadImages(ctx); err != nil {
		return "", err
	}
	return c.imageIDs[tag], nil
}

func (c *inspectCache) loadImages(ctx context.Context) error {
	if c.listedImages {
		return nil
	}
	images, err := c.client.ListImages(ctx)
	if err != nil {
		return err
	}
	for _, img := range images {
		for _, tag := range img.RepoTags {
			c.imageIDs[tag] = img.ID
		}
	}
	c.listedImages = true
	return nil
}

func (c *inspectCache) networkExists(ctx context.Context, name string) (bool, error) {
	if !c.listedNetworks {
		networks, err := c.client.ListNetworks(ctx)
		if err != nil {
			return false, err
		}
		for _, n := range networks {
			c.networkIDs[n.Name] = n.ID
		}
		c.listedNetworks = true
	}
	_, ok := c.networkIDs[name]
	return ok, nil
}
