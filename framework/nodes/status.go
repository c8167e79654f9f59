package nodes

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redhat/perf-tests-ocs/test/framework/config"
	"github.com/redhat/perf-tests-ocs/test/framework/resource"
	"github.com/redhat/perf-tests-ocs/test/framework/sampler"
)

// Waiter polls a set of nodes for convergence to a target status.
type Waiter struct {
	query  Query
	cfg    *config.Config
	logger *slog.Logger
}

// NewWaiter creates a Waiter over the given query
func NewWaiter(query Query, cfg *config.Config, logger *slog.Logger) *Waiter {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Waiter{query: query, cfg: cfg, logger: logger}
}

// WaitForStatus waits until every named node reports the target status. An
// empty name list is first resolved to the full current node list, sampling
// until a non-empty snapshot is obtained: a freshly created cluster can
// briefly report zero nodes. On timeout it fails with a WrongStatusError
// naming the nodes that never converged, each with its describe dump.
//
// Convergence is one-way within a single call: once a node reports the
// target status it is removed from the pending set and never re-added, even
// if it flaps before the wait resolves. Each poll cycle queries only the
// still-pending nodes.
func (w *Waiter) WaitForStatus(ctx context.Context, names []string, target Status, timeout time.Duration) error {
	if len(names) == 0 {
		resolved, err := w.resolveAllNodes(ctx)
		if err != nil {
			return err
		}
		names = resolved
	}

	pending := resource.NewSet()
	for _, name := range names {
		pending.Add(resource.NewNode(name))
	}

	w.logger.Info("waiting for nodes to reach status",
		"nodes", pending.Names(), "status", string(target), "timeout", timeout)

	s := sampler.New(w.cfg.StatusPollInterval, timeout, func(ctx context.Context) ([]Observation, error) {
		return w.query.Get(ctx, pending.Names())
	})

	_, err := s.WaitFor(ctx, func(observations []Observation) bool {
		for _, obs := range observations {
			if obs.Status == target {
				w.logger.Debug("node converged", "node", obs.Handle.Name, "status", string(target))
				pending.Remove(obs.Handle)
			}
		}
		return pending.Len() == 0
	})
	if err != nil {
		if sampler.IsTimeout(err) {
			w.logger.Error("nodes never reached status",
				"nodes", pending.Names(), "status", string(target))
			return w.wrongStatus(ctx, target, pending)
		}
		return fmt.Errorf("waiting for nodes %v to reach status %q: %w", pending.Names(), target, err)
	}
	return nil
}

// resolveAllNodes samples the full node list until it is non-empty
func (w *Waiter) resolveAllNodes(ctx context.Context) ([]string, error) {
	s := sampler.New(w.cfg.NodeListPollInterval, w.cfg.NodeListTimeout, func(ctx context.Context) ([]Observation, error) {
		return w.query.List(ctx, "")
	})

	observations, err := s.WaitFor(ctx, func(observations []Observation) bool {
		return len(observations) > 0
	})
	if err != nil {
		return nil, fmt.Errorf("resolving cluster node list: %w", err)
	}

	names := make([]string, 0, len(observations))
	for _, obs := range observations {
		names = append(names, obs.Handle.Name)
	}
	return names, nil
}

// wrongStatus builds the terminal failure, attaching a describe dump for
// every node still pending
func (w *Waiter) wrongStatus(ctx context.Context, target Status, pending resource.Set) error {
	dumps := make(map[string]string, pending.Len())
	for _, h := range pending.Handles() {
		dump, err := w.query.Describe(ctx, h)
		if err != nil {
			dump = fmt.Sprintf("(describe failed: %v)", err)
		}
		dumps[h.Name] = dump
	}
	return &WrongStatusError{Target: target, Pending: dumps}
}
