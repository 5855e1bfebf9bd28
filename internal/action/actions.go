// Package action runs the Runner that walks a state.ConfigState stream
// and issues the daemon calls each record implies (spec.md §4.3): the
// state x action-kind selection table, strict per-object action
// ordering, partial-failure/dependent-suppression semantics, and the
// stop/kill/exec dispatch mixins.
package action

import "evalgo.org/fleetmap/internal/state"

// Kind names one daemon-facing action the Runner can emit for an object.
type Kind string

const (
	Create         Kind = "create"
	Start          Kind = "start"
	Stop           Kind = "stop"
	Remove         Kind = "remove"
	ExecCreateKind Kind = "exec_create"
	ExecStartKind  Kind = "exec_start"
	NetworkCreate  Kind = "network_create"
	NetworkConnect Kind = "network_connect"
)

// selectActions returns, in strict execution order, the actions implied
// by a single container's ConfigState per the Update action-generator
// table (spec.md §4.3).
func selectActions(st state.ConfigState) []Kind {
	needsReset := st.StateFlags.NeedsReset()
	miscOnly := st.StateFlags.Has(state.MiscMismatch) && !needsReset

	switch st.BaseState {
	case state.Absent:
		return []Kind{Create, Start}
	case state.Running:
		switch {
		case needsReset:
			return []Kind{Stop, Remove, Create, Start}
		case miscOnly:
			return []Kind{Stop, Start}
		default:
			return nil
		}
	case state.Present:
		if needsReset {
			return []Kind{Remove, Create, Start}
		}
		return []Kind{Start}
	default:
		return nil
	}
}

// selectVolumeActions returns the actions for an attached-volume object,
// which only ever needs creating when absent.
func selectVolumeActions(st state.ConfigState) []Kind {
	if st.BaseState == state.Absent {
		return []Kind{Create}
	}
	return nil
}

// selectNetworkActions returns the actions for a network object.
func selectNetworkActions(st state.ConfigState) []Kind {
	if st.BaseState == state.Absent {
		return []Kind{NetworkCreate}
	}
	return nil
}
