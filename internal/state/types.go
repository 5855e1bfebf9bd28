// Package state generates the ConfigState stream a reconciliation pass
// runs on: it inspects the live daemon, classifies every dependency-
// relevant object into a (base_state, state_flags) pair, and — in Update
// mode — compares declared configuration against observed container
// metadata to decide whether each object is correct, reset-required, or
// missing (spec.md §4.2).
package state

import "evalgo.org/fleetmap/internal/mapmodel"

// BaseState is the coarse observed lifecycle state of a config object.
type BaseState int

const (
	Absent BaseState = iota
	Present
	Running
)

func (s BaseState) String() string {
	switch s {
	case Absent:
		return "ABSENT"
	case Present:
		return "PRESENT"
	case Running:
		return "RUNNING"
	default:
		return "UNKNOWN"
	}
}

// Flags is a bitmask of independently-set state observations.
type Flags uint16

const (
	Initial Flags = 1 << iota
	Restarting
	Nonrecoverable
	ImageMismatch
	VolumeMismatch
	MiscMismatch
	ForcedReset
)

// NeedsReset is a derived alias, true whenever any of VolumeMismatch,
// ImageMismatch, ForcedReset, or Nonrecoverable is set. Pure MiscMismatch
// alone does not imply NeedsReset.
func (f Flags) NeedsReset() bool {
	return f&(VolumeMismatch|ImageMismatch|ForcedReset|Nonrecoverable) != 0
}

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	names := []struct {
		bit  Flags
		name string
	}{
		{Initial, "INITIAL"},
		{Restarting, "RESTARTING"},
		{Nonrecoverable, "NONRECOVERABLE"},
		{ImageMismatch, "IMAGE_MISMATCH"},
		{VolumeMismatch, "VOLUME_MISMATCH"},
		{MiscMismatch, "MISC_MISMATCH"},
		{ForcedReset, "FORCED_RESET"},
	}
	s := ""
	for _, n := range names {
		if f.Has(n.bit) {
			if s != "" {
				s += "|"
			}
			s += n.name
		}
	}
	return s
}

// ConfigFlags carries metadata about a record's role in the requested path.
type ConfigFlags uint8

const (
	// Dependent marks a record emitted for a transitive dependency of the
	// originally requested target, rather than the target itself.
	Dependent ConfigFlags = 1 << iota
)

// ExecEntry pairs a declared exec command with whether an identical
// (user, cmd) was already observed in the container's process list.
type ExecEntry struct {
	Command    mapmodel.ExecCommand
	AlreadyRun bool
}

// ExtraData is the per-state payload required by downstream actions.
type ExtraData struct {
	ExecCommands []ExecEntry
}

// ConfigState is one emitted record of the state stream.
type ConfigState struct {
	ConfigID    mapmodel.MapConfigId
	BaseState   BaseState
	StateFlags  Flags
	ConfigFlags ConfigFlags
	ExtraData   ExtraData
}

// InitialStartTime is the sentinel StartedAt value reported by the daemon
// for a container that has never been started.
const InitialStartTime = "0001-01-01T00:00:00Z"
