package daemon

import (
	"context"
	"fmt"
	"sync"
)

// DefaultClientName is the routing key a ContainerAssignment resolves to
// when its Clients list is empty (spec.md §4.3's per-client routing).
const DefaultClientName = "__default__"

// Manager pools one Client per named daemon endpoint, the way graphium's
// DockerClientManager keeps one *client.Client per configured host so the
// action runner can route each container to the daemon that owns it.
type Manager struct {
	mu      sync.Mutex
	clients map[string]Client
	dial    func(ctx context.Context, host string) (Client, error)
}

// NewManager builds an empty Manager. dial is the constructor used by
// AddHost to turn a host URL into a Client; tests supply a fake, production
// callers wrap NewDockerClient.
func NewManager(dial func(ctx context.Context, host string) (Client, error)) *Manager {
	return &Manager{clients: make(map[string]Client), dial: dial}
}

// AddHost dials host and registers the resulting Client under name,
// replacing (and closing, if Closeable) any prior client with that name.
func (m *Manager) AddHost(ctx context.Context, name, host string) error {
	cli, err := m.dial(ctx, host)
	if err != nil {
		return fmt.Errorf("failed to add daemon client %q: %w", name, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.clients[name]; ok {
		if closer, ok := old.(interface{ Close() error }); ok {
			closer.Close()
		}
	}
	m.clients[name] = cli
	return nil
}

// Get returns the client registered under name, or the default client if
// name is empty.
func (m *Manager) Get(name string) (Client, error) {
	if name == "" {
		name = DefaultClientName
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cli, ok := m.clients[name]
	if !ok {
		return nil, fmt.Errorf("no daemon client registered for %q", name)
	}
	return cli, nil
}

// Names returns the registered client names.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.clients))
	for n := range m.clients {
		names = append(names, n)
	}
	return names
}

// Close closes every registered client that supports it.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var firstErr error
	for _, cli := range m.clients {
		if closer, ok := cli.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
