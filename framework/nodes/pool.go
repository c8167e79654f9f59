package nodes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redhat/perf-tests-ocs/test/framework/config"
	"github.com/redhat/perf-tests-ocs/test/framework/platform"
	"github.com/redhat/perf-tests-ocs/test/framework/resource"
	"github.com/redhat/perf-tests-ocs/test/framework/sampler"
)

// Orchestrator coordinates scale-up and scale-down of a worker pool. All
// state it works from is re-read from the cluster and the provisioning
// backend at operation time; nothing survives across calls or process
// restarts.
type Orchestrator struct {
	backend platform.Backend
	waiter  *Waiter
	mutator Mutator
	health  HealthCapture
	cfg     *config.Config
	logger  *slog.Logger

	// Label is applied to newly ready nodes to mark them for storage
	// workload scheduling. Empty disables labeling.
	Label string
}

// NewOrchestrator wires an Orchestrator from its collaborators
func NewOrchestrator(backend platform.Backend, waiter *Waiter, mutator Mutator, health HealthCapture, cfg *config.Config, logger *slog.Logger) *Orchestrator {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		backend: backend,
		waiter:  waiter,
		mutator: mutator,
		health:  health,
		cfg:     cfg,
		logger:  logger,
		Label:   StorageLabel,
	}
}

// ScaleUp grows the pool by delta members and returns the handles of the
// newly ready nodes. New members are identified by diffing membership before
// and after the grow, since backends do not reliably return new-instance
// identifiers synchronously. A delta of zero is a no-op that never touches
// the backend.
//
// The grow itself failing to materialize is fatal: if observed membership
// does not reach the requested count within the budget the backend did not
// honor the request, and a ProvisioningError is returned without entering
// the readiness wait.
func (o *Orchestrator) ScaleUp(ctx context.Context, poolID string, delta int) ([]resource.Handle, error) {
	if delta < 0 {
		return nil, fmt.Errorf("scale-up delta must be non-negative, got %d", delta)
	}
	if delta == 0 {
		return nil, nil
	}

	before, err := o.backend.CurrentMembers(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("snapshotting pool %s membership: %w", poolID, err)
	}
	target := before.Len() + delta
	o.logger.Info("scaling up pool",
		"pool", poolID, "current", before.Len(), "target", target)

	if err := o.backend.SetDesiredReplicas(ctx, poolID, target); err != nil {
		return nil, err
	}

	s := sampler.New(o.cfg.MembershipPollInterval, o.cfg.MembershipTimeout, func(ctx context.Context) (resource.Set, error) {
		return o.backend.CurrentMembers(ctx, poolID)
	})
	after, err := s.WaitFor(ctx, func(members resource.Set) bool {
		return members.Len() >= target
	})
	if err != nil {
		if sampler.IsTimeout(err) {
			observed := before.Len()
			if after != nil {
				observed = after.Len()
			}
			return nil, &ProvisioningError{PoolID: poolID, Requested: target, Observed: observed}
		}
		return nil, fmt.Errorf("observing pool %s membership: %w", poolID, err)
	}

	fresh := after.Diff(before)
	o.logger.Info("new pool members observed", "pool", poolID, "nodes", fresh.Names())

	if err := o.waiter.WaitForStatus(ctx, fresh.Names(), StatusReady, o.cfg.NodeReadyTimeout); err != nil {
		return nil, err
	}

	handles := fresh.Handles()
	if o.Label != "" {
		for _, h := range handles {
			if err := o.mutator.AddLabel(ctx, h, o.Label, ""); err != nil {
				return nil, fmt.Errorf("labeling node %s: %w", h.Name, err)
			}
			o.logger.Info("labeled node for storage scheduling", "node", h.Name, "label", o.Label)
		}
	}
	return handles, nil
}

// Remove takes nodes out of the cluster through a strict three-phase
// protocol: cordon, drain, delete. Each phase is a hard precondition for the
// next; a node is never deleted while its drain status is unknown. A drain
// overrunning its budget triggers a storage health snapshot for diagnosis
// before the failure propagates, and does not stop the removal of the other
// nodes in the batch. Cordon and drain are not rolled back on failure; the
// protocol is idempotent and can be re-run from the same phase.
func (o *Orchestrator) Remove(ctx context.Context, handles []resource.Handle) error {
	if len(handles) == 0 {
		return nil
	}

	names := make([]string, 0, len(handles))
	for _, h := range handles {
		names = append(names, h.Name)
	}
	o.logger.Info("removing nodes", "nodes", names)

	// Phase 1: cordon, then wait for the scheduling state to be reflected
	for _, h := range handles {
		if err := o.mutator.Cordon(ctx, h); err != nil {
			return fmt.Errorf("cordoning node %s: %w", h.Name, err)
		}
	}
	if err := o.waiter.WaitForStatus(ctx, names, StatusReadySchedulingDisabled, o.cfg.NodeReadyTimeout); err != nil {
		return err
	}

	// Phases 2 and 3 proceed per node so one stuck drain does not block the
	// rest of the batch
	var failures []error
	for _, h := range handles {
		if err := o.drainAndDelete(ctx, h); err != nil {
			failures = append(failures, err)
		}
	}
	return errors.Join(failures...)
}

func (o *Orchestrator) drainAndDelete(ctx context.Context, h resource.Handle) error {
	o.logger.Info("draining node", "node", h.Name, "budget", o.cfg.DrainTimeout)
	if err := o.mutator.Drain(ctx, h, o.cfg.DrainTimeout); err != nil {
		var dte *DrainTimeoutError
		if errors.As(err, &dte) && o.health != nil {
			snapshot, captureErr := o.health.Capture(ctx, "ceph")
			if captureErr != nil {
				snapshot = fmt.Sprintf("(health capture failed: %v)", captureErr)
			}
			dte.Health = snapshot
			o.logger.Error("drain did not complete, captured storage health",
				"node", h.Name, "health", snapshot)
		}
		return err
	}

	o.logger.Info("deleting node", "node", h.Name)
	if err := o.mutator.Delete(ctx, h); err != nil {
		return fmt.Errorf("deleting node %s: %w", h.Name, err)
	}
	return nil
}

// Reschedule reverts a cordon on the given nodes and waits for them to
// report Ready again. Used when a removal is abandoned before delete.
func (o *Orchestrator) Reschedule(ctx context.Context, handles []resource.Handle) error {
	names := make([]string, 0, len(handles))
	for _, h := range handles {
		if err := o.mutator.Uncordon(ctx, h); err != nil {
			return fmt.Errorf("uncordoning node %s: %w", h.Name, err)
		}
		names = append(names, h.Name)
	}
	return o.waiter.WaitForStatus(ctx, names, StatusReady, o.cfg.NodeReadyTimeout)
}
