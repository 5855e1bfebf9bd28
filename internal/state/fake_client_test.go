package state

import (
	"context"
	"time"

	"evalgo.org/fleetmap/internal/daemon"
)

// fakeClient is a minimal in-memory daemon.Client double, grounded on
// tests/test_state.py's CLIENT_DATA_1 fixture: named containers with a
// fixed running/exited state, queried by name rather than by a real
// Engine API round trip.
type fakeClient struct {
	containers map[string]*daemon.ContainerInspect // by daemon name
	images     map[string]string                   // repo:tag -> id
	networks   []string
	tops       map[string][]daemon.ProcessEntry

	pulled []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		containers: make(map[string]*daemon.ContainerInspect),
		images:     make(map[string]string),
		tops:       make(map[string][]daemon.ProcessEntry),
	}
}

func (f *fakeClient) ListContainers(ctx context.Context) ([]daemon.ContainerSummary, error) {
	out := make([]daemon.ContainerSummary, 0, len(f.containers))
	for name, insp := range f.containers {
		out = append(out, daemon.ContainerSummary{ID: insp.ID, Names: []string{"/" + name}})
	}
	return out, nil
}

func (f *fakeClient) InspectContainer(ctx context.Context, nameOrID string) (*daemon.ContainerInspect, error) {
	for _, insp := range f.containers {
		if insp.ID == nameOrID {
			return insp, nil
		}
	}
	return nil, nil
}

func (f *fakeClient) CreateContainer(ctx context.Context, spec daemon.CreateContainerSpec) (string, error) {
	return "", nil
}
func (f *fakeClient) Start(ctx context.Context, nameOrID string) error { return nil }
func (f *fakeClient) Stop(ctx context.Context, nameOrID string, timeout time.Duration) error {
	return nil
}
func (f *fakeClient) Kill(ctx context.Context, nameOrID string, signal string) error { return nil }
func (f *fakeClient) Wait(ctx context.Context, nameOrID string, timeout time.Duration) error {
	return nil
}
func (f *fakeClient) Remove(ctx context.Context, nameOrID string, removeVolumes, force bool) error {
	return nil
}

func (f *fakeClient) ExecCreate(ctx context.Context, nameOrID, user string, cmd []string) (string, error) {
	return "exec-1", nil
}
func (f *fakeClient) ExecStart(ctx context.Context, execID string) error { return nil }

func (f *fakeClient) Top(ctx context.Context, nameOrID string) ([]daemon.ProcessEntry, error) {
	return f.tops[nameOrID], nil
}

func (f *fakeClient) ListImages(ctx context.Context) ([]daemon.ImageSummary, error) {
	out := make([]daemon.ImageSummary, 0, len(f.images))
	for tag, id := range f.images {
		out = append(out, daemon.ImageSummary{ID: id, RepoTags: []string{tag}})
	}
	return out, nil
}
func (f *fakeClient) PullImage(ctx context.Context, image string) error {
	f.pulled = append(f.pulled, image)
	return nil
}

func (f *fakeClient) ListNetworks(ctx context.Context) ([]daemon.NetworkSummary, error) {
	out := make([]daemon.NetworkSummary, 0, len(f.networks))
	for _, n := range f.networks {
		out = append(out, daemon.NetworkSummary{ID: "net-" + n, Name: n})
	}
	return out, nil
}
func (f *fakeClient) CreateNetwork(ctx context.Context, spec daemon.CreateNetworkSpec) (string, error) {
	return "", nil
}
func (f *fakeClient) ConnectContainerToNetwork(ctx context.Context, nameOrID string, spec daemon.ConnectNetworkSpec) error {
	return nil
}

// put registers a running/present container inspection under its
// daemon-facing name.
func (f *fakeClient) put(name string, insp *daemon.ContainerInspect) {
	if insp.ID == "" {
		insp.ID = name + "-id"
	}
	f.containers[name] = insp
}
