package nodes

import (
	"context"
	"time"

	"github.com/redhat/perf-tests-ocs/test/framework/resource"
)

// Status is a node status as reported by the cluster, in the form shown by
// the CLI status column.
type Status string

// Node statuses the harness waits on
const (
	StatusReady                      Status = "Ready"
	StatusNotReady                   Status = "NotReady"
	StatusReadySchedulingDisabled    Status = "Ready,SchedulingDisabled"
	StatusNotReadySchedulingDisabled Status = "NotReady,SchedulingDisabled"
)

// StorageLabel marks nodes that are eligible to run storage workloads
const StorageLabel = "cluster.ocs.openshift.io/openshift-storage"

// Observation pairs a node handle with its status at sampling time
type Observation struct {
	Handle resource.Handle
	Status Status
}

// Query reads node state from the cluster. The cluster is the single source
// of truth: observations are never cached beyond one wait call.
type Query interface {
	// List returns all nodes matching the label selector; an empty selector
	// matches every node
	List(ctx context.Context, selector string) ([]Observation, error)

	// Get returns observations for the named nodes only. Nodes that no
	// longer exist are omitted from the result.
	Get(ctx context.Context, names []string) ([]Observation, error)

	// Describe returns a human-readable diagnostic dump for the node
	Describe(ctx context.Context, h resource.Handle) (string, error)
}

// Mutator changes node scheduling state and membership
type Mutator interface {
	// Cordon marks the node unschedulable
	Cordon(ctx context.Context, h resource.Handle) error

	// Uncordon reverts a cordon
	Uncordon(ctx context.Context, h resource.Handle) error

	// Drain evicts all non-daemon workloads from the node under its own
	// budget, separate from the caller's overall operation budget. A budget
	// overrun surfaces as a DrainTimeoutError.
	Drain(ctx context.Context, h resource.Handle, timeout time.Duration) error

	// Delete removes the node resource record
	Delete(ctx context.Context, h resource.Handle) error

	// AddLabel applies a label to the node
	AddLabel(ctx context.Context, h resource.Handle, key, value string) error
}

// HealthCapture takes a diagnostic snapshot of the storage backend. Invoked
// only on the drain-timeout failure path, for operator diagnosis.
type HealthCapture interface {
	Capture(ctx context.Context, component string) (string, error)
}
