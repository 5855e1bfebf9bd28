package action

import (
	"context"
	"errors"
	"time"

	"evalgo.org/fleetmap/internal/daemon"
)

// recordingClient is a daemon.Client double that records every call it
// receives, in order, so a test can assert the exact action sequence a
// Runner issued (spec.md §4.3's "strict per-object order").
type recordingClient struct {
	calls []string

	stopErr   error
	createErr error
	failNames map[string]bool // CreateContainer/Start fails for these names
}

func newRecordingClient() *recordingClient {
	return &recordingClient{failNames: make(map[string]bool)}
}

func (c *recordingClient) ListContainers(ctx context.Context) ([]daemon.ContainerSummary, error) {
	return nil, nil
}
func (c *recordingClient) InspectContainer(ctx context.Context, nameOrID string) (*daemon.ContainerInspect, error) {
	return nil, nil
}
func (c *recordingClient) CreateContainer(ctx context.Context, spec daemon.CreateContainerSpec) (string, error) {
	c.calls = append(c.calls, "create:"+spec.Name)
	if c.createErr != nil {
		return "", c.createErr
	}
	if c.failNames[spec.Name] {
		return "", errors.New("create failed")
	}
	return spec.Name + "-id", nil
}
func (c *recordingClient) Start(ctx context.Context, nameOrID string) error {
	c.calls = append(c.calls, "start:"+nameOrID)
	if c.failNames[nameOrID] {
		return errors.New("start failed")
	}
	return nil
}
func (c *recordingClient) Stop(ctx context.Context, nameOrID string, timeout time.Duration) error {
	c.calls = append(c.calls, "stop:"+nameOrID)
	return c.stopErr
}
func (c *recordingClient) Kill(ctx context.Context, nameOrID string, signal string) error {
	c.calls = append(c.calls, "kill:"+nameOrID+":"+signal)
	return nil
}
func (c *recordingClient) Wait(ctx context.Context, nameOrID string, timeout time.Duration) error {
	c.calls = append(c.calls, "wait:"+nameOrID)
	return nil
}
func (c *recordingClient) Remove(ctx context.Context, nameOrID string, removeVolumes, force bool) error {
	c.calls = append(c.calls, "remove:"+nameOrID)
	return nil
}

func (c *recordingClient) ExecCreate(ctx context.Context, nameOrID, user string, cmd []string) (string, error) {
	c.calls = append(c.calls, "exec_create:"+nameOrID)
	return "exec-1", nil
}
func (c *recordingClient) ExecStart(ctx context.Context, execID string) error {
	c.calls = append(c.calls, "exec_start:"+execID)
	return nil
}
func (c *recordingClient) Top(ctx context.Context, nameOrID string) ([]daemon.ProcessEntry, error) {
	return nil, nil
}

func (c *recordingClient) ListImages(ctx context.Context) ([]daemon.ImageSummary, error) {
	return nil, nil
}
func (c *recordingClient) PullImage(ctx context.Context, image string) error {
	c.calls = append(c.calls, "pull:"+image)
	return nil
}

func (c *recordingClient) ListNetworks(ctx context.Context) ([]daemon.NetworkSummary, error) {
	return nil, nil
}
func (c *recordingClient) CreateNetwork(ctx context.Context, spec daemon.CreateNetworkSpec) (string, error) {
	c.calls = append(c.calls, "network_create:"+spec.Name)
	return "net-id", nil
}
func (c *recordingClient) ConnectContainerToNetwork(ctx context.Context, nameOrID string, spec daemon.ConnectNetworkSpec) error {
	return nil
}

func newManagerWith(cli daemon.Client) *daemon.Manager {
	m := daemon.NewManager(func(ctx context.Context, host string) (daemon.Client, error) {
		return cli, nil
	})
	_ = m.AddHost(context.Background(), daemon.DefaultClientName, "unused")
	return m
}
