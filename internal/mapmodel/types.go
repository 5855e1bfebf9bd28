// Package mapmodel holds the declarative model for a container map: the
// host/volume/container/network assignments a ContainerMap groups
// together, the identifiers that address them, and the integrity check
// every later pipeline stage depends on.
package mapmodel

import (
	"fmt"
	"sort"
)

// ConfigType is the closed set of addressable object kinds.
type ConfigType int

const (
	// ContainerType addresses a container (or one of its instances).
	ContainerType ConfigType = iota
	// VolumeType addresses an attached (data-only) volume container.
	VolumeType
	// NetworkType addresses a Docker network.
	NetworkType
)

func (t ConfigType) String() string {
	switch t {
	case ContainerType:
		return "container"
	case VolumeType:
		return "volume"
	case NetworkType:
		return "network"
	default:
		return "unknown"
	}
}

// MapConfigId uniquely addresses a container, attached volume, or network
// within a single container map.
type MapConfigId struct {
	ConfigType   ConfigType
	MapName      string
	ConfigName   string
	InstanceName string // present for multi-instance containers and attached volumes
}

// String renders map.config, or map.config.instance when InstanceName is
// set. It does not apply use_attached_parent_name; Policy.IName does.
func (id MapConfigId) String() string {
	if id.InstanceName != "" {
		return fmt.Sprintf("%s.%s.%s", id.MapName, id.ConfigName, id.InstanceName)
	}
	return fmt.Sprintf("%s.%s", id.MapName, id.ConfigName)
}

// ExecPolicy controls when a declared exec command runs.
type ExecPolicy string

const (
	// ExecPolicyInitial runs once: skipped if an identical (user, cmd)
	// already appears in the container's process list.
	ExecPolicyInitial ExecPolicy = "INITIAL"
	// ExecPolicyRestart always runs again after any restart.
	ExecPolicyRestart ExecPolicy = "RESTART"
)

// ExecCommand is a single command declared to run inside a container.
type ExecCommand struct {
	User   string
	Cmd    string     `validate:"required"`
	Policy ExecPolicy `validate:"required,oneof=INITIAL RESTART"`
}

// UsesRef is one entry of a container's `uses` list: a reference to a
// container instance or an attached volume alias, in the same map.
type UsesRef struct {
	Ref      string // "config_name" or "config_name.instance_name", or an attached alias
	ReadOnly bool
}

// BindMount is one entry of a container's `binds` list.
type BindMount struct {
	// VolumeAlias is set when the bind names a declared volume alias
	// (looked up in ContainerMap.Volumes and ContainerMap.Host).
	VolumeAlias string
	// ContainerPath/HostSubPath are set for an inline (path, host_sub_path) bind.
	ContainerPath string
	HostSubPath   string
	ReadOnly      bool
}

// IsInline reports whether this bind is an inline path pair rather than
// an alias into ContainerMap.Volumes.
func (b BindMount) IsInline() bool {
	return b.VolumeAlias == ""
}

// Link is one entry of a container's `links` list.
type Link struct {
	ContainerRef string // "config_name" or "config_name.instance_name"
	Alias        string // optional; defaults to the hostname of ContainerRef
}

// PortExposure is one entry of a container's `exposes` list.
type PortExposure struct {
	ContainerPort int    `validate:"required,min=1,max=65535"`
	HostPort      int    `validate:"omitempty,min=1,max=65535"` // 0 means "exposed but not published"
	Interface     string
	Protocol      string `validate:"omitempty,oneof=tcp udp"` // "tcp" (default) or "udp"
}

// NetworkAssignment is a declared network within a ContainerMap.
type NetworkAssignment struct {
	Driver   string
	Options  map[string]string
	Internal bool
}

// ContainerAssignment is the declarative record for one container (or
// attached-volume / host group) inside a map. All fields default to
// empty/zero.
type ContainerAssignment struct {
	Image         string
	Instances     []string
	Shares        []string
	Binds         []BindMount
	Uses          []UsesRef
	Attaches      []string
	Links         []Link
	Exposes       []PortExposure `validate:"dive"`
	Networks      []string
	ExecCommands  []ExecCommand `validate:"dive"`
	StopSignal    string
	StopTimeout   int `validate:"min=0"` // seconds; 0 means daemon default
	CreateOptions map[string]interface{}
	HostConfig    map[string]interface{}
	Environment   map[string]string
	Command       []string
	Entrypoint    []string
	Clients       []string // nil means "__default__" only
}

// ContainerMap is one logical deployment: its host paths, volume path
// mapping, container and network assignments, and inheritance (extends).
type ContainerMap struct {
	Name        string
	HostRoot    string
	Host        map[string]string // volume alias -> host path (instance placeholders substituted at lookup)
	Volumes     map[string]string // alias -> container path
	Containers  map[string]*ContainerAssignment
	Networks    map[string]*NetworkAssignment
	Repository  string
	DefaultDomain string
	UseAttachedParentName bool
	Extends     []string

	extended *ContainerMap // memoized result of Resolve
}

// New creates an empty container map ready to be populated.
func New(name string) *ContainerMap {
	return &ContainerMap{
		Name:                  name,
		Host:                  make(map[string]string),
		Volumes:               make(map[string]string),
		Containers:            make(map[string]*ContainerAssignment),
		Networks:              make(map[string]*NetworkAssignment),
		UseAttachedParentName: true,
	}
}

// GetExisting returns a container's assignment, or nil if undeclared.
// The state pipeline must use this, never GetOrCreate, so that a
// reference to an undeclared container surfaces as MapKeyError rather
// than silently materializing an empty assignment.
func (m *ContainerMap) GetExisting(name string) *ContainerAssignment {
	return m.Containers[name]
}

// GetOrCreate returns a container's assignment, creating an empty one
// (and registering it in the map) if it does not yet exist. The state
// pipeline never calls it.
func (m *ContainerMap) GetOrCreate(name string) *ContainerAssignment {
	if a, ok := m.Containers[name]; ok {
		return a
	}
	a := &ContainerAssignment{}
	m.Containers[name] = a
	return a
}

// Names returns container names in a deterministic (sorted) order.
func (m *ContainerMap) Names() []string {
	names := make([]string, 0, len(m.Containers))
	for name := range m.Containers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CName formats the daemon-facing container name. Instances are
// formatted "map.config.instance"; non-instance containers "map.config".
func (m *ContainerMap) CName(config, instance string) string {
	if instance != "" {
		return fmt.Sprintf("%s.%s.%s", m.Name, config, instance)
	}
	return fmt.Sprintf("%s.%s", m.Name, config)
}

// IName formats the daemon-facing name of an attached volume. When
// UseAttachedParentName is true, the form is "map.owner.alias"; otherwise
// "map.alias" (the owning container name is dropped).
func (m *ContainerMap) IName(owner, alias string) string {
	if m.UseAttachedParentName {
		return fmt.Sprintf("%s.%s.%s", m.Name, owner, alias)
	}
	return fmt.Sprintf("%s.%s", m.Name, alias)
}

