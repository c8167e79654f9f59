package nodes

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// WrongStatusError indicates that one or more nodes never reached the target
// status within the wait budget. Pending maps each unconverged node name to
// its describe output, captured at the timeout boundary for diagnosis.
type WrongStatusError struct {
	Target  Status
	Pending map[string]string
}

func (e *WrongStatusError) Error() string {
	names := make([]string, 0, len(e.Pending))
	for name := range e.Pending {
		names = append(names, name)
	}
	return fmt.Sprintf("nodes [%s] never reached status %q", strings.Join(names, ", "), e.Target)
}

// Describe returns the full diagnostic dump for every pending node
func (e *WrongStatusError) Describe() string {
	var b strings.Builder
	for name, dump := range e.Pending {
		fmt.Fprintf(&b, "--- %s ---\n%s\n", name, dump)
	}
	return b.String()
}

// ProvisioningError indicates that the provisioning backend did not honor a
// scale request: observed pool membership never reached the requested count.
// Fatal; never retried.
type ProvisioningError struct {
	PoolID    string
	Requested int
	Observed  int
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("pool %s: backend did not honor scale request, requested %d members but observed %d",
		e.PoolID, e.Requested, e.Observed)
}

// DrainTimeoutError indicates that evicting workloads from a node exceeded
// the drain budget. Health holds the storage health snapshot captured before
// propagation; an incomplete drain of a storage node risks data
// unavailability, so the node is never deleted in this state.
type DrainTimeoutError struct {
	Node   string
	Budget time.Duration
	Health string
	Err    error
}

func (e *DrainTimeoutError) Error() string {
	msg := fmt.Sprintf("draining node %s did not complete within %v", e.Node, e.Budget)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Health != "" {
		msg += "\nstorage health at failure:\n" + e.Health
	}
	return msg
}

func (e *DrainTimeoutError) Unwrap() error {
	return e.Err
}

// IsDrainTimeout reports whether the error is a drain timeout
func IsDrainTimeout(err error) bool {
	var dte *DrainTimeoutError
	return errors.As(err, &dte)
}
