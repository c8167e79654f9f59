package workload

import (
	"context"
	"fmt"
	"io"
	"strings"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// KubeObserver resolves the benchmark runner pod through the Kubernetes API
type KubeObserver struct {
	client    kubernetes.Interface
	namespace string
}

// NewKubeObserver creates a KubeObserver for the given namespace
func NewKubeObserver(client kubernetes.Interface, namespace string) *KubeObserver {
	return &KubeObserver{client: client, namespace: namespace}
}

// RunnerPod finds the job's runner pod by the client name fragment. The
// benchmark operator deploys server and orchestration pods alongside the
// runner; only the client pod's lifecycle reflects the run.
func (o *KubeObserver) RunnerPod(ctx context.Context, jobID string) (RunnerObservation, error) {
	pods, err := o.client.CoreV1().Pods(o.namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return RunnerObservation{}, fmt.Errorf("listing pods in %s: %w", o.namespace, err)
	}

	for i := range pods.Items {
		name := pods.Items[i].Name
		if !strings.Contains(name, RunnerMarker) {
			continue
		}
		if jobID != "" && !strings.Contains(name, jobID) {
			continue
		}
		return RunnerObservation{
			Name:  name,
			Phase: pods.Items[i].Status.Phase,
			Found: true,
		}, nil
	}
	return RunnerObservation{}, nil
}

// KubeLogSink fetches pod logs through the Kubernetes API
type KubeLogSink struct {
	client    kubernetes.Interface
	namespace string
}

// NewKubeLogSink creates a KubeLogSink for the given namespace
func NewKubeLogSink(client kubernetes.Interface, namespace string) *KubeLogSink {
	return &KubeLogSink{client: client, namespace: namespace}
}

// FetchLogs returns the full log of the named pod
func (s *KubeLogSink) FetchLogs(ctx context.Context, podName string) (string, error) {
	stream, err := s.client.CoreV1().Pods(s.namespace).GetLogs(podName, &corev1.PodLogOptions{}).Stream(ctx)
	if err != nil {
		return "", fmt.Errorf("opening log stream of pod %s: %w", podName, err)
	}
	defer stream.Close()

	out, err := io.ReadAll(stream)
	if err != nil {
		return "", fmt.Errorf("reading logs of pod %s: %w", podName, err)
	}
	return string(out), nil
}
