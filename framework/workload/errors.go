package workload

import (
	"errors"
	"fmt"

	corev1 "k8s.io/api/core/v1"
)

// LaunchError indicates that the benchmark runner pod never appeared, or
// disappeared during the run without a replacement.
type LaunchError struct {
	JobID string
	Err   error
}

func (e *LaunchError) Error() string {
	msg := fmt.Sprintf("benchmark %s has no runner pod", e.JobID)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// IsLaunchError reports whether the error is a runner launch failure
func IsLaunchError(err error) bool {
	var le *LaunchError
	return errors.As(err, &le)
}

// ExcessiveRestartsError indicates that the runner pod was replaced more
// times than the tolerance allows. A runner that keeps getting rescheduled
// is failing for a reason restarts will not fix.
type ExcessiveRestartsError struct {
	JobID    string
	Restarts int
	Max      int
}

func (e *ExcessiveRestartsError) Error() string {
	return fmt.Sprintf("benchmark %s runner restarted %d times, tolerance is %d", e.JobID, e.Restarts, e.Max)
}

// WrongPhaseError indicates that the runner pod entered a terminal phase
// other than Succeeded
type WrongPhaseError struct {
	JobID string
	Pod   string
	Phase corev1.PodPhase
}

func (e *WrongPhaseError) Error() string {
	return fmt.Sprintf("benchmark %s runner %s is in phase %s", e.JobID, e.Pod, e.Phase)
}
