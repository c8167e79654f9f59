package workload

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	corev1 "k8s.io/api/core/v1"

	"github.com/redhat/perf-tests-ocs/test/framework/config"
	"github.com/redhat/perf-tests-ocs/test/framework/sampler"
)

// Tracker follows a benchmark run to completion. It holds no state between
// calls; everything it knows about a run it learns from the cluster while
// Await is executing.
type Tracker struct {
	observer Observer
	logs     LogSink
	cfg      *config.Config
	logger   *slog.Logger
}

// NewTracker wires a Tracker from its collaborators
func NewTracker(observer Observer, logs LogSink, cfg *config.Config, logger *slog.Logger) *Tracker {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{observer: observer, logs: logs, cfg: cfg, logger: logger}
}

// Await follows the benchmark run until the runner pod succeeds, returning
// the run outcome with the runner's full log.
//
// The tracker starts with no known runner identity, so the first observed
// pod counts as the first identity change. Every identity change grants a
// fresh time budget: a rescheduled runner starts its work over, and judging
// the replacement by the original's elapsed time would fail runs that are
// making progress. Identity changes beyond the restart tolerance, a missing
// runner, and any phase other than Running or Pending are all terminal; the
// benchmark operator does not recover a run from any of these on its own.
func (t *Tracker) Await(ctx context.Context, jobID string) (*Run, error) {
	started := time.Now()
	deadline := started.Add(t.cfg.WorkloadTimeout)

	current := ""
	restarts := 0
	iterations := 0

	s := sampler.New(t.cfg.WorkloadPollInterval, sampler.Forever, func(ctx context.Context) (RunnerObservation, error) {
		return t.observer.RunnerPod(ctx, jobID)
	})

	for obs, err := range s.Results(ctx) {
		iterations++
		if err != nil {
			return nil, fmt.Errorf("observing benchmark %s: %w", jobID, err)
		}

		if !obs.Found {
			return nil, &LaunchError{JobID: jobID}
		}

		if obs.Name != current {
			restarts++
			t.logger.Info("benchmark runner identity observed",
				"job", jobID, "runner", obs.Name, "identity_count", restarts)
			if restarts > t.cfg.MaxRestarts {
				return nil, &ExcessiveRestartsError{JobID: jobID, Restarts: restarts, Max: t.cfg.MaxRestarts}
			}
			current = obs.Name
			deadline = time.Now().Add(t.cfg.WorkloadTimeout)
		}

		switch obs.Phase {
		case corev1.PodSucceeded:
			return t.finish(ctx, jobID, current, restarts, started)
		case corev1.PodRunning, corev1.PodPending:
		default:
			// Failed, Unknown and anything else a future API adds
			return nil, &WrongPhaseError{JobID: jobID, Pod: current, Phase: obs.Phase}
		}

		if !time.Now().Before(deadline) {
			return nil, &sampler.TimeoutError{
				Iterations: iterations,
				Last:       obs,
				Budget:     t.cfg.WorkloadTimeout,
			}
		}
	}
	return nil, ctx.Err()
}

func (t *Tracker) finish(ctx context.Context, jobID, runner string, restarts int, started time.Time) (*Run, error) {
	elapsed := time.Since(started)
	t.logger.Info("benchmark finished", "job", jobID, "runner", runner, "elapsed", elapsed)

	logs := ""
	if t.logs != nil {
		out, err := t.logs.FetchLogs(ctx, runner)
		if err != nil {
			return nil, fmt.Errorf("fetching logs of runner %s: %w", runner, err)
		}
		logs = out
	}

	return &Run{
		JobID:    jobID,
		Runner:   runner,
		Restarts: restarts,
		Logs:     logs,
		Elapsed:  elapsed,
	}, nil
}
