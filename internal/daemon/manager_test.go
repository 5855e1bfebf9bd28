package daemon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct{ closed bool }

func (s *stubClient) ListContainers(ctx context.Context) ([]ContainerSummary, error) { return nil, nil }
func (s *stubClient) InspectContainer(ctx context.Context, nameOrID string) (*ContainerInspect, error) {
	return nil, nil
}
func (s *stubClient) CreateContainer(ctx context.Context, spec CreateContainerSpec) (string, error) {
	return "", nil
}
func (s *stubClient) Start(ctx context.Context, nameOrID string) error { return nil }
func (s *stubClient) Stop(ctx context.Context, nameOrID string, timeout time.Duration) error {
	return nil
}
func (s *stubClient) Kill(ctx context.Context, nameOrID string, signal string) error { return nil }
func (s *stubClient) Wait(ctx context.Context, nameOrID string, timeout time.Duration) error {
	return nil
}
func (s *stubClient) Remove(ctx context.Context, nameOrID string, removeVolumes, force bool) error {
	return nil
}
func (s *stubClient) ExecCreate(ctx context.Context, nameOrID, user string, cmd []string) (string, error) {
	return "", nil
}
func (s *stubClient) ExecStart(ctx context.Context, execID string) error { return nil }
func (s *stubClient) Top(ctx context.Context, nameOrID string) ([]ProcessEntry, error) {
	return nil, nil
}
func (s *stubClient) ListImages(ctx context.Context) ([]ImageSummary, error) { return nil, nil }
func (s *stubClient) PullImage(ctx context.Context, image string) error      { return nil }
func (s *stubClient) ListNetworks(ctx context.Context) ([]NetworkSummary, error) {
	return nil, nil
}
func (s *stubClient) CreateNetwork(ctx context.Context, spec CreateNetworkSpec) (string, error) {
	return "", nil
}
func (s *stubClient) ConnectContainerToNetwork(ctx context.Context, nameOrID string, spec ConnectNetworkSpec) error {
	return nil
}
func (s *stubClient) Close() error {
	s.closed = true
	return nil
}

func TestManagerAddHostAndGet(t *testing.T) {
	cli := &stubClient{}
	m := NewManager(func(ctx context.Context, host string) (Client, error) {
		return cli, nil
	})

	require.NoError(t, m.AddHost(context.Background(), "east", "tcp://east:2375"))

	got, err := m.Get("east")
	require.NoError(t, err)
	assert.Same(t, Client(cli), got)
}

func TestManagerGetEmptyNameUsesDefault(t *testing.T) {
	cli := &stubClient{}
	m := NewManager(func(ctx context.Context, host string) (Client, error) { return cli, nil })
	require.NoError(t, m.AddHost(context.Background(), DefaultClientName, "unused"))

	got, err := m.Get("")
	require.NoError(t, err)
	assert.Same(t, Client(cli), got)
}

func TestManagerGetUnknownNameErrors(t *testing.T) {
	m := NewManager(func(ctx context.Context, host string) (Client, error) { return &stubClient{}, nil })
	_, err := m.Get("ghost")
	require.Error(t, err)
}

func TestManagerAddHostDialError(t *testing.T) {
	m := NewManager(func(ctx context.Context, host string) (Client, error) {
		return nil, errors.New("dial failed")
	})
	err := m.AddHost(context.Background(), "east", "tcp://east:2375")
	require.Error(t, err)
}

func TestManagerAddHostReplacesAndClosesOldClient(t *testing.T) {
	first := &stubClient{}
	second := &stubClient{}
	calls := 0
	m := NewManager(func(ctx context.Context, host string) (Client, error) {
		calls++
		if calls == 1 {
			return first, nil
		}
		return second, nil
	})

	require.NoError(t, m.AddHost(context.Background(), "east", "host-a"))
	require.NoError(t, m.AddHost(context.Background(), "east", "host-b"))

	assert.True(t, first.closed)
	got, err := m.Get("east")
	require.NoError(t, err)
	assert.Same(t, Client(second), got)
}

func TestManagerNames(t *testing.T) {
	m := NewManager(func(ctx context.Context, host string) (Client, error) { return &stubClient{}, nil })
	require.NoError(t, m.AddHost(context.Background(), "east", "a"))
	require.NoError(t, m.AddHost(context.Background(), "west", "b"))
	assert.ElementsMatch(t, []string{"east", "west"}, m.Names())
}

func TestManagerCloseClosesAllClients(t *testing.T) {
	a := &stubClient{}
	b := &stubClient{}
	calls := 0
	m := NewManager(func(ctx context.Context, host string) (Client, error) {
		calls++
		if calls == 1 {
			return a, nil
		}
		return b, nil
	})
	require.NoError(t, m.AddHost(context.Background(), "east", "x"))
	require.NoError(t, m.AddHost(context.Background(), "west", "y"))

	require.NoError(t, m.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}
