package workload

import (
	"context"
	"time"

	corev1 "k8s.io/api/core/v1"
)

// RunnerMarker is the name fragment that identifies the pod executing the
// benchmark job, as opposed to the server and orchestration pods the
// operator deploys alongside it.
const RunnerMarker = "client"

// RunnerObservation is a point-in-time view of the benchmark runner pod
type RunnerObservation struct {
	Name  string
	Phase corev1.PodPhase
	Found bool
}

// Observer locates the benchmark runner pod for a job. The cluster is the
// only source of truth; identity is re-resolved on every call so a replaced
// runner is observed as a new name.
type Observer interface {
	RunnerPod(ctx context.Context, jobID string) (RunnerObservation, error)
}

// LogSink fetches the full log of a pod
type LogSink interface {
	FetchLogs(ctx context.Context, podName string) (string, error)
}

// Run is the outcome of a completed benchmark run
type Run struct {
	JobID    string
	Runner   string
	Restarts int
	Logs     string
	Elapsed  time.Duration
}
