package commands

import (
	"context"
	"fmt"
	"os"

	"evalgo.org/fleetmap/internal/daemon"
	"evalgo.org/fleetmap/internal/fleeterr"
	"evalgo.org/fleetmap/internal/mapmodel"
)

// Exit codes for the CLI driver (spec.md §6).
const (
	exitSuccess        = 0
	exitIntegrityError = 1
	exitDaemonError    = 2
	exitCycle          = 3
)

func loadDocument(path string) (map[string]*mapmodel.ContainerMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read map document %q: %w", path, err)
	}
	docs, err := mapmodel.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse map document %q: %w", path, err)
	}
	return docs, nil
}

func resolveMap(mapName, file string) (*mapmodel.ContainerMap, error) {
	docs, err := loadDocument(file)
	if err != nil {
		return nil, err
	}
	m, ok := docs[mapName]
	if !ok {
		return nil, fleeterr.NewMapKeyError(mapName)
	}
	resolved, err := m.Resolve(docs)
	if err != nil {
		return nil, err
	}
	if err := resolved.Validate(); err != nil {
		return nil, err
	}
	if err := resolved.CheckIntegrity(true); err != nil {
		return nil, err
	}
	return resolved, nil
}

// buildClients dials every configured client and registers it by name.
func buildClients(ctx context.Context) (*daemon.Manager, error) {
	manager := daemon.NewManager(func(ctx context.Context, host string) (daemon.Client, error) {
		return daemon.NewDockerClient(ctx, host)
	})
	for _, c := range cfg.Clients {
		if err := manager.AddHost(ctx, c.Name, c.Host); err != nil {
			return nil, err
		}
	}
	return manager, nil
}

// exitCodeFor maps a pass-ending error to the CLI's documented exit code.
func exitCodeFor(err error) int {
	if err == nil {
		return exitSuccess
	}
	switch err.(type) {
	case *fleeterr.IntegrityError:
		return exitIntegrityError
	case *fleeterr.CircularDependency:
		return exitCycle
	case *fleeterr.DaemonError:
		return exitDaemonError
	default:
		return exitDaemonError
	}
}
