// Package fleeterr defines the typed error taxonomy shared across the
// resolver, state generator, and action runner: integrity failures,
// dependency cycles, undeclared references, daemon call failures, action
// timeouts, and inspection inconsistencies. Each carries enough context
// (a MapConfigId where applicable) for a caller to report the offending
// object without re-deriving it from a plain string.
package fleeterr

import "fmt"

// IntegrityError reports a violated ContainerMap invariant (§ check
// integrity). Fatal before any reconciliation pass begins.
type IntegrityError struct {
	Message string
}

func NewIntegrityError(message string) *IntegrityError {
	return &IntegrityError{Message: message}
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity error: %s", e.Message)
}

// CircularDependency is raised when the dependency resolver finds a
// cycle between two or more distinct containers. Self-references are not
// cycles; the dependency edge source drops them before the resolver
// sees them.
type CircularDependency struct {
	Path []string // node names, in traversal order, closing the cycle
}

func NewCircularDependency(path []string) *CircularDependency {
	cp := make([]string, len(path))
	copy(cp, path)
	return &CircularDependency{Path: cp}
}

func (e *CircularDependency) Error() string {
	return fmt.Sprintf("circular dependency detected: %v", e.Path)
}

// MapKeyError is a reference to an undeclared container, volume, or
// network encountered during state generation.
type MapKeyError struct {
	Reference string
}

func NewMapKeyError(reference string) *MapKeyError {
	return &MapKeyError{Reference: reference}
}

func (e *MapKeyError) Error() string {
	return fmt.Sprintf("undeclared reference: %s", e.Reference)
}

// DaemonError wraps a failed daemon API call with enough context to
// diagnose it: the endpoint, the reported status, and the object the
// call concerned.
type DaemonError struct {
	Endpoint string
	Status   int
	ConfigID string // the object the call concerned (daemon name, host, image or exec id), if any
	Err      error
}

func NewDaemonError(endpoint string, status int, configID string, err error) *DaemonError {
	return &DaemonError{Endpoint: endpoint, Status: status, ConfigID: configID, Err: err}
}

func (e *DaemonError) Error() string {
	if e.ConfigID != "" {
		return fmt.Sprintf("daemon error on %s for %s (status %d): %v", e.Endpoint, e.ConfigID, e.Status, e.Err)
	}
	return fmt.Sprintf("daemon error on %s (status %d): %v", e.Endpoint, e.Status, e.Err)
}

func (e *DaemonError) Unwrap() error {
	return e.Err
}

// ActionTimeout reports that a stop/wait action exceeded its configured
// timeout. For `stop` this is downgraded by the caller to a warning
// (the daemon performs SIGKILL); for `wait` it propagates.
type ActionTimeout struct {
	ConfigID string
	Action   string
}

func NewActionTimeout(configID, action string) *ActionTimeout {
	return &ActionTimeout{ConfigID: configID, Action: action}
}

func (e *ActionTimeout) Error() string {
	return fmt.Sprintf("%s timed out for %s", e.Action, e.ConfigID)
}

// InspectInconsistency reports an observed container name that maps to
// no declared object. Skipped with a warning by default; fatal in
// strict mode.
type InspectInconsistency struct {
	ObservedName string
}

func NewInspectInconsistency(observedName string) *InspectInconsistency {
	return &InspectInconsistency{ObservedName: observedName}
}

func (e *InspectInconsistency) Error() string {
	return fmt.Sprintf("observed container %q does not map to any declared object", e.ObservedName)
}
