package ceph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redhat/perf-tests-ocs/test/framework/retry"
)

// HealthOK is the status Ceph reports when the cluster is fully healthy
const HealthOK = "HEALTH_OK"

// HealthError indicates that the storage cluster reports a status other
// than HEALTH_OK. Detail carries the full health output for diagnosis.
type HealthError struct {
	Status string
	Detail string
}

func (e *HealthError) Error() string {
	return fmt.Sprintf("ceph cluster is unhealthy: %s", e.Status)
}

// IsHealthError reports whether the error is a storage health failure
func IsHealthError(err error) bool {
	var he *HealthError
	return errors.As(err, &he)
}

// Health inspects the storage cluster through the toolbox
type Health struct {
	exec   Executor
	logger *slog.Logger
}

// NewHealth creates a Health inspector over the given executor
func NewHealth(exec Executor, logger *slog.Logger) *Health {
	if logger == nil {
		logger = slog.Default()
	}
	return &Health{exec: exec, logger: logger}
}

// Capture takes a diagnostic snapshot of the named component. It is used on
// failure paths, so a capture error degrades to a placeholder rather than
// masking the original failure at the call site.
func (h *Health) Capture(ctx context.Context, component string) (string, error) {
	var command []string
	switch component {
	case "osd":
		command = []string{"ceph", "osd", "tree"}
	case "health":
		command = []string{"ceph", "health", "detail"}
	default:
		command = []string{"ceph", "status"}
	}
	return h.exec.Exec(ctx, command)
}

// Check queries the cluster health once. Anything other than HEALTH_OK
// fails with a HealthError carrying the detailed health output.
func (h *Health) Check(ctx context.Context) error {
	out, err := h.exec.Exec(ctx, []string{"ceph", "health"})
	if err != nil {
		return fmt.Errorf("querying ceph health: %w", err)
	}

	status := strings.TrimSpace(out)
	if strings.HasPrefix(status, HealthOK) {
		return nil
	}

	detail, err := h.exec.Exec(ctx, []string{"ceph", "health", "detail"})
	if err != nil {
		detail = fmt.Sprintf("(health detail unavailable: %v)", err)
	}
	h.logger.Warn("ceph cluster not healthy", "status", status)
	return &HealthError{Status: status, Detail: detail}
}

// WaitUntilHealthy polls the cluster health at a fixed interval until it
// reports HEALTH_OK or the attempts are exhausted. Recovery after an OSD
// rebalance is slow; the interval should be generous.
func (h *Health) WaitUntilHealthy(ctx context.Context, attempts int, interval time.Duration) error {
	return retry.Do(ctx, h.Check,
		retry.WithMaxAttempts(attempts),
		retry.WithDelay(interval),
		retry.WithBackoff(1.0),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			h.logger.Info("waiting for ceph cluster to recover",
				"attempt", attempt, "error", err, "next_check_in", delay)
		}))
}
