// Package daemon defines the opaque control-API surface the resolver,
// state generator, and action runner drive (spec.md §6), and provides a
// concrete binding of that surface onto the Docker Engine HTTP API via
// github.com/docker/docker/client.
package daemon

import (
	"context"
	"time"
)

// ContainerSummary is the minimal shape returned by ListContainers,
// enough to resolve a declared name to a daemon-assigned id.
type ContainerSummary struct {
	ID    string
	Names []string
}

// ContainerState mirrors the daemon's reported run state for a single
// container (spec.md §3 "Observed state").
type ContainerState struct {
	Running     bool
	Restarting  bool
	ExitCode    int
	StartedAt   string
}

// Mount is one observed bind/volume mount on an inspected container.
type Mount struct {
	Source      string
	Destination string
	RW          bool
}

// PortBinding is one observed published port on an inspected container.
type PortBinding struct {
	ContainerPort int
	Protocol      string
	HostIP        string
	HostPort      string
}

// ContainerInspect is the subset of the full inspect payload the state
// generator compares against declared configuration.
type ContainerInspect struct {
	ID              string
	Image           string // image id the container was created from
	State           ContainerState
	Mounts          []Mount
	Links           []string // HostConfig.Links
	Networks        []string // NetworkSettings.Networks keys
	Ports           []PortBinding
	Env             []string
	Cmd             []string
	Entrypoint      []string
}

// ProcessEntry is one row of a `top` call's process list.
type ProcessEntry struct {
	User string
	Cmd  string
}

// ImageSummary is a resolved tag -> id mapping entry from ListImages.
type ImageSummary struct {
	ID       string
	RepoTags []string
}

// NetworkSummary is a resolved network name -> id mapping entry.
type NetworkSummary struct {
	ID   string
	Name string
}

// CreateContainerSpec is the argument struct assembled for CreateContainer.
type CreateContainerSpec struct {
	Name          string
	Image         string
	Env           []string
	Cmd           []string
	Entrypoint    []string
	Labels        map[string]string
	ExposedPorts  []int
	Binds         []BindSpec
	PortBindings  map[int]PortBindSpec
	Links         []string
	NetworkMode   string
	StopSignal    string
	StopTimeout   *int
}

// BindSpec describes one mount to attach at create time.
type BindSpec struct {
	Source      string // host path, or another container's name for volumes-from
	Target      string
	ReadOnly    bool
	FromVolumesOf string // set instead of Source for "volumes from container X"
}

// PortBindSpec is a single published port.
type PortBindSpec struct {
	HostIP   string
	HostPort string
	Protocol string
}

// ConnectNetworkSpec is the argument struct for ConnectContainerToNetwork.
type ConnectNetworkSpec struct {
	NetworkName string
	Aliases     []string
}

// CreateNetworkSpec is the argument struct for CreateNetwork.
type CreateNetworkSpec struct {
	Name     string
	Driver   string
	Options  map[string]string
	Internal bool
}

// Client is the opaque daemon control surface spec.md §1/§6 declares
// out of scope as an external collaborator: everything downstream of
// this package talks to the daemon only through this interface.
type Client interface {
	ListContainers(ctx context.Context) ([]ContainerSummary, error)
	InspectContainer(ctx context.Context, nameOrID string) (*ContainerInspect, error)
	CreateContainer(ctx context.Context, spec CreateContainerSpec) (id string, err error)
	Start(ctx context.Context, nameOrID string) error
	Stop(ctx context.Context, nameOrID string, timeout time.Duration) error
	Kill(ctx context.Context, nameOrID string, signal string) error
	Wait(ctx context.Context, nameOrID string, timeout time.Duration) error
	Remove(ctx context.Context, nameOrID string, removeVolumes, force bool) error

	ExecCreate(ctx context.Context, nameOrID, user string, cmd []string) (execID string, err error)
	ExecStart(ctx context.Context, execID string) error
	Top(ctx context.Context, nameOrID string) ([]ProcessEntry, error)

	ListImages(ctx context.Context) ([]ImageSummary, error)
	PullImage(ctx context.Context, image string) error

	ListNetworks(ctx context.Context) ([]NetworkSummary, error)
	CreateNetwork(ctx context.Context, spec CreateNetworkSpec) (id string, err error)
	ConnectContainerToNetwork(ctx context.Context, nameOrID string, spec ConnectNetworkSpec) error
}
