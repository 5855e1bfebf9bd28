package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"evalgo.org/fleetmap/internal/action"
	"evalgo.org/fleetmap/internal/daemon"
	"evalgo.org/fleetmap/internal/logging"
	"evalgo.org/fleetmap/internal/state"
)

// preparedPass holds everything a command needs to run and report a
// reconciliation pass: the resolved map, the dialed client pool, and the
// generated ConfigState stream.
type preparedPass struct {
	ctx     context.Context
	clients *daemon.Manager
	runner  *action.Runner
	states  []state.ConfigState
}

func prepare(mapName, file string, targets []string, mode state.Mode) (*preparedPass, error) {
	passID := uuid.NewString()
	logging.Info("pass %s: map=%s targets=%s mode=%v", passID, mapName, strings.Join(targets, ","), mode)

	m, err := resolveMap(mapName, file)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	clients, err := buildClients(ctx)
	if err != nil {
		return nil, err
	}

	defaultClient, err := clients.Get("")
	if err != nil {
		clients.Close()
		return nil, err
	}

	gen, err := state.New(m, defaultClient, state.Options{StrictInspect: cfg.Pass.StrictInspect})
	if err != nil {
		clients.Close()
		return nil, err
	}

	states, err := gen.GenerateMany(ctx, targets, mode)
	if err != nil {
		clients.Close()
		return nil, err
	}

	runner := action.New(m, clients, action.Options{
		AbortOnError:     cfg.Pass.AbortOnError,
		RemoveAttached:   cfg.Pass.RemoveAttached,
		RemoveNetworks:   cfg.Pass.RemoveNetworks,
		PullBeforeCreate: cfg.Pass.PullBeforeCreate,
	})

	return &preparedPass{ctx: ctx, clients: clients, runner: runner, states: states}, nil
}

// runPass resolves mapName/file, generates the merged ConfigState stream
// for targets under mode (inspecting the default client), and runs the
// Runner over it, which sends each container's actions to the clients
// its assignment names; exits with the spec.md §6 exit code on failure.
func runPass(mapName, file string, targets []string, mode state.Mode) error {
	p, err := prepare(mapName, file, targets, mode)
	if err != nil {
		return fail(err)
	}
	defer p.clients.Close()

	result := p.runner.Run(p.ctx, p.states)
	return report(result)
}

// runRestartPass tears down targets' dependent closure and brings it
// back up again: a stop pass (Dependent order) followed by an up pass
// (Dependency order), the way a restart is just a stop/up pair rather
// than a distinct action-table row.
func runRestartPass(mapName, file string, targets []string) error {
	if err := runPass(mapName, file, targets, state.Dependent); err != nil {
		return err
	}
	return runPass(mapName, file, targets, state.Dependency)
}

// runRemovalPass is like runPass but unconditionally stops and removes
// every container in the walked path instead of following the Update
// action table. The Dependent stream lists each target before its
// dependents, so it is run in reverse: consumers go first.
func runRemovalPass(mapName, file string, targets []string) error {
	p, err := prepare(mapName, file, targets, state.Dependent)
	if err != nil {
		return fail(err)
	}
	defer p.clients.Close()

	states := make([]state.ConfigState, len(p.states))
	for i, st := range p.states {
		states[len(states)-1-i] = st
	}
	result := p.runner.RunRemoval(p.ctx, states)
	return report(result)
}

// runExecPass generates a Single-mode state for targets (no dependency
// walk) and runs only their declared exec_commands against whichever
// instances are currently RUNNING.
func runExecPass(mapName, file string, targets []string) error {
	p, err := prepare(mapName, file, targets, state.Single)
	if err != nil {
		return fail(err)
	}
	defer p.clients.Close()

	result := p.runner.RunExecOnly(p.ctx, p.states)
	return report(result)
}

func report(result action.Result) error {
	for _, f := range result.Failures {
		logging.Warn("action %s failed for %s: %v", f.Action, f.ConfigID, f.Err)
		fmt.Fprintf(os.Stderr, "action failed for %s: %v\n", f.ConfigID, f.Err)
	}
	for _, s := range result.Suppressed {
		logging.Info("suppressed %s (dependency failed)", s)
		fmt.Fprintf(os.Stderr, "suppressed %s (dependency failed)\n", s)
	}
	if len(result.Failures) > 0 {
		os.Exit(exitCodeFor(result.Failures[0].Err))
	}
	return nil
}

func fail(err error) error {
	fmt.Fprintf(os.Stderr, "%v\n", err)
	os.Exit(exitCodeFor(err))
	return nil
}
