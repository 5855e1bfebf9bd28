package daemon

import (
	"context"
	"fmt"
	"time"

	dockercontainer "github.com/docker/docker/api/types/container"
	dockerimage "github.com/docker/docker/api/types/image"
	dockernetwork "github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"

	"evalgo.org/fleetmap/internal/fleeterr"
)

// DockerClient implements Client against a single Docker Engine endpoint
// via github.com/docker/docker/client, the way graphium's
// internal/stack.Deployer assembles container.Config/HostConfig from a
// declarative spec and internal/orchestration.DockerClientManager pools
// one *client.Client per host.
type DockerClient struct {
	cli *client.Client
}

// NewDockerClient dials the given Docker host (unix:///var/run/docker.sock,
// tcp://host:port, ssh://user@host, ...) and verifies connectivity with a
// Ping, the way DockerClientManager.AddHost does.
func NewDockerClient(ctx context.Context, host string) (*DockerClient, error) {
	cli, err := client.NewClientWithOpts(
		client.WithHost(host),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client for %s: %w", host, err)
	}
	if _, err := cli.Ping(ctx); err != nil {
		cli.Close()
		return nil, fleeterr.NewDaemonError("ping", 0, host, err)
	}
	return &DockerClient{cli: cli}, nil
}

func (d *DockerClient) Close() error {
	return d.cli.Close()
}

func (d *DockerClient) ListContainers(ctx context.Context) ([]ContainerSummary, error) {
	containers, err := d.cli.ContainerList(ctx, dockercontainer.ListOptions{All: true})
	if err != nil {
		return nil, fleeterr.NewDaemonError("containers/json", 0, "", err)
	}
	out := make([]ContainerSummary, len(containers))
	for i, c := range containers {
		out[i] = ContainerSummary{ID: c.ID, Names: c.Names}
	}
	return out, nil
}

func (d *DockerClient) InspectContainer(ctx context.Context, nameOrID string) (*ContainerInspect, error) {
	info, err := d.cli.ContainerInspect(ctx, nameOrID)
	if err != nil {
		return nil, fleeterr.NewDaemonError("containers/json", 0, nameOrID, err)
	}

	inspect := &ContainerInspect{ID: info.ID, Image: info.Image}
	if info.State != nil {
		inspect.State = ContainerState{
			Running:    info.State.Running,
			Restarting: info.State.Restarting,
			ExitCode:   info.State.ExitCode,
			StartedAt:  info.State.StartedAt,
		}
	}
	for _, m := range info.Mounts {
		inspect.Mounts = append(inspect.Mounts, Mount{
			Source:      m.Source,
			Destination: m.Destination,
			RW:          m.RW,
		})
	}
	if info.HostConfig != nil {
		inspect.Links = info.HostConfig.Links
	}
	if info.Config != nil {
		inspect.Env = info.Config.Env
		inspect.Cmd = info.Config.Cmd
		inspect.Entrypoint = info.Config.Entrypoint
	}
	if info.NetworkSettings != nil {
		for name := range info.NetworkSettings.Networks {
			inspect.Networks = append(inspect.Networks, name)
		}
		for port, bindings := range info.NetworkSettings.Ports {
			for _, b := range bindings {
				inspect.Ports = append(inspect.Ports, PortBinding{
					ContainerPort: port.Int(),
					Protocol:      port.Proto(),
					HostIP:        b.HostIP,
					HostPort:      b.HostPort,
				})
			}
		}
	}
	return inspect, nil
}

func (d *DockerClient) CreateContainer(ctx context.Context, spec CreateContainerSpec) (string, error) {
	config := &dockercontainer.Config{
		Image:      spec.Image,
		Env:        spec.Env,
		Cmd:        spec.Cmd,
		Entrypoint: spec.Entrypoint,
		Labels:     spec.Labels,
	}
	if len(spec.ExposedPorts) > 0 {
		config.ExposedPorts = make(nat.PortSet)
		for _, p := range spec.ExposedPorts {
			config.ExposedPorts[nat.Port(fmt.Sprintf("%d/tcp", p))] = struct{}{}
		}
	}

	hostConfig := &dockercontainer.HostConfig{
		Links: spec.Links,
	}
	if spec.NetworkMode != "" {
		hostConfig.NetworkMode = dockercontainer.NetworkMode(spec.NetworkMode)
	}
	if spec.StopSignal != "" {
		config.StopSignal = spec.StopSignal
	}
	if spec.StopTimeout != nil {
		config.StopTimeout = spec.StopTimeout
	}
	for _, b := range spec.Binds {
		if b.FromVolumesOf != "" {
			hostConfig.VolumesFrom = append(hostConfig.VolumesFrom, b.FromVolumesOf)
			continue
		}
		hostConfig.Mounts = append(hostConfig.Mounts, mount.Mount{
			Type:     mount.TypeBind,
			Source:   b.Source,
			Target:   b.Target,
			ReadOnly: b.ReadOnly,
		})
	}
	if len(spec.PortBindings) > 0 {
		hostConfig.PortBindings = make(nat.PortMap)
		for port, binding := range spec.PortBindings {
			proto := binding.Protocol
			if proto == "" {
				proto = "tcp"
			}
			key := nat.Port(fmt.Sprintf("%d/%s", port, proto))
			hostConfig.PortBindings[key] = []nat.PortBinding{{
				HostIP:   binding.HostIP,
				HostPort: binding.HostPort,
			}}
		}
	}

	resp, err := d.cli.ContainerCreate(ctx, config, hostConfig, nil, nil, spec.Name)
	if err != nil {
		return "", fleeterr.NewDaemonError("containers/create", 0, spec.Name, err)
	}
	return resp.ID, nil
}

func (d *DockerClient) Start(ctx context.Context, nameOrID string) error {
	if err := d.cli.ContainerStart(ctx, nameOrID, dockercontainer.StartOptions{}); err != nil {
		return fleeterr.NewDaemonError("containers/start", 0, nameOrID, err)
	}
	return nil
}

func (d *DockerClient) Stop(ctx context.Context, nameOrID string, timeout time.Duration) error {
	seconds := int(timeout.Seconds())
	if err := d.cli.ContainerStop(ctx, nameOrID, dockercontainer.StopOptions{Timeout: &seconds}); err != nil {
		return fleeterr.NewDaemonError("containers/stop", 0, nameOrID, err)
	}
	return nil
}

func (d *DockerClient) Kill(ctx context.Context, nameOrID string, signal string) error {
	if err := d.cli.ContainerKill(ctx, nameOrID, signal); err != nil {
		return fleeterr.NewDaemonError("containers/kill", 0, nameOrID, err)
	}
	return nil
}

func (d *DockerClient) Wait(ctx context.Context, nameOrID string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	statusCh, errCh := d.cli.ContainerWait(waitCtx, nameOrID, dockercontainer.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		if err != nil {
			if waitCtx.Err() != nil {
				return fleeterr.NewActionTimeout(nameOrID, "wait")
			}
			return fleeterr.NewDaemonError("containers/wait", 0, nameOrID, err)
		}
	case <-statusCh:
	case <-waitCtx.Done():
		return fleeterr.NewActionTimeout(nameOrID, "wait")
	}
	return nil
}

func (d *DockerClient) Remove(ctx context.Context, nameOrID string, removeVolumes, force bool) error {
	if err := d.cli.ContainerRemove(ctx, nameOrID, dockercontainer.RemoveOptions{
		RemoveVolumes: removeVolumes,
		Force:         force,
	}); err != nil {
		return fleeterr.NewDaemonError("containers/remove", 0, nameOrID, err)
	}
	return nil
}

func (d *DockerClient) ExecCreate(ctx context.Context, nameOrID, user string, cmd []string) (string, error) {
	resp, err := d.cli.ContainerExecCreate(ctx, nameOrID, dockercontainer.ExecOptions{
		User: user,
		Cmd:  cmd,
	})
	if err != nil {
		return "", fleeterr.NewDaemonError("exec/create", 0, nameOrID, err)
	}
	return resp.ID, nil
}

func (d *DockerClient) ExecStart(ctx context.Context, execID string) error {
	if err := d.cli.ContainerExecStart(ctx, execID, dockercontainer.ExecStartOptions{}); err != nil {
		return fleeterr.NewDaemonError("exec/start", 0, execID, err)
	}
	return nil
}

func (d *DockerClient) Top(ctx context.Context, nameOrID string) ([]ProcessEntry, error) {
	top, err := d.cli.ContainerTop(ctx, nameOrID, nil)
	if err != nil {
		return nil, fleeterr.NewDaemonError("containers/top", 0, nameOrID, err)
	}

	userIdx, cmdIdx := -1, -1
	for i, title := range top.Titles {
		switch title {
		case "USER":
			userIdx = i
		case "CMD", "COMMAND":
			cmdIdx = i
		}
	}

	entries := make([]ProcessEntry, 0, len(top.Processes))
	for _, row := range top.Processes {
		var entry ProcessEntry
		if userIdx >= 0 && userIdx < len(row) {
			entry.User = row[userIdx]
		}
		if cmdIdx >= 0 && cmdIdx < len(row) {
			entry.Cmd = row[cmdIdx]
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (d *DockerClient) ListImages(ctx context.Context) ([]ImageSummary, error) {
	images, err := d.cli.ImageList(ctx, dockerimage.ListOptions{})
	if err != nil {
		return nil, fleeterr.NewDaemonError("images/json", 0, "", err)
	}
	out := make([]ImageSummary, len(images))
	for i, img := range images {
		out[i] = ImageSummary{ID: img.ID, RepoTags: img.RepoTags}
	}
	return out, nil
}

func (d *DockerClient) PullImage(ctx context.Context, image string) error {
	reader, err := d.cli.ImagePull(ctx, image, dockerimage.PullOptions{})
	if err != nil {
		return fleeterr.NewDaemonError("images/create", 0, image, err)
	}
	defer reader.Close()
	// Drain the streamed progress output; callers only need completion.
	buf := make([]byte, 4096)
	for {
		if _, err := reader.Read(buf); err != nil {
			break
		}
	}
	return nil
}

func (d *DockerClient) ListNetworks(ctx context.Context) ([]NetworkSummary, error) {
	networks, err := d.cli.NetworkList(ctx, dockernetwork.ListOptions{})
	if err != nil {
		return nil, fleeterr.NewDaemonError("networks", 0, "", err)
	}
	out := make([]NetworkSummary, len(networks))
	for i, n := range networks {
		out[i] = NetworkSummary{ID: n.ID, Name: n.Name}
	}
	return out, nil
}

func (d *DockerClient) CreateNetwork(ctx context.Context, spec CreateNetworkSpec) (string, error) {
	resp, err := d.cli.NetworkCreate(ctx, spec.Name, dockernetwork.CreateOptions{
		Driver:   spec.Driver,
		Options:  spec.Options,
		Internal: spec.Internal,
	})
	if err != nil {
		return "", fleeterr.NewDaemonError("networks/create", 0, spec.Name, err)
	}
	return resp.ID, nil
}

func (d *DockerClient) ConnectContainerToNetwork(ctx context.Context, nameOrID string, spec ConnectNetworkSpec) error {
	var endpointConfig *dockernetwork.EndpointSettings
	if len(spec.Aliases) > 0 {
		endpointConfig = &dockernetwork.EndpointSettings{Aliases: spec.Aliases}
	}
	if err := d.cli.NetworkConnect(ctx, spec.NetworkName, nameOrID, endpointConfig); err != nil {
		return fleeterr.NewDaemonError("networks/connect", 0, nameOrID, err)
	}
	return nil
}

var _ Client = (*DockerClient)(nil)
