package wait

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/client-go/kubernetes"

	"github.com/redhat/perf-tests-ocs/test/framework/sampler"
)

// PollInterval is the pause between probes for all waits in this package
var PollInterval = 5 * time.Second

// Clients provides access to Kubernetes clients needed for wait operations
type Clients interface {
	Client() kubernetes.Interface
	Context() context.Context
	Namespace() string
	Logger() *slog.Logger
}

// ForPodsReady waits for at least minReady pods matching the selector to be
// ready
func ForPodsReady(c Clients, selector labels.Selector, timeout time.Duration, minReady int) error {
	s := sampler.New(PollInterval, timeout, func(ctx context.Context) (int, error) {
		pods, err := c.Client().CoreV1().Pods(c.Namespace()).List(ctx, metav1.ListOptions{
			LabelSelector: selector.String(),
		})
		if err != nil {
			return 0, fmt.Errorf("failed to list pods: %w", err)
		}

		readyCount := 0
		for i := range pods.Items {
			if IsPodReady(&pods.Items[i]) {
				readyCount++
			}
		}
		return readyCount, nil
	})

	_, err := s.WaitFor(c.Context(), func(ready int) bool {
		return ready >= minReady && ready > 0
	})
	if err != nil {
		if sampler.IsTimeout(err) {
			return fmt.Errorf("pods matching %s not ready after %v (expected at least %d ready)",
				selector.String(), timeout, minReady)
		}
		return err
	}
	return nil
}

// ForPodsTerminated waits for pods matching the selector to be fully
// terminated
func ForPodsTerminated(c Clients, selector labels.Selector, timeout time.Duration) error {
	s := sampler.New(PollInterval, timeout, func(ctx context.Context) (int, error) {
		pods, err := c.Client().CoreV1().Pods(c.Namespace()).List(ctx, metav1.ListOptions{
			LabelSelector: selector.String(),
		})
		if err != nil {
			return 0, fmt.Errorf("failed to list pods: %w", err)
		}
		return len(pods.Items), nil
	})

	_, err := s.WaitFor(c.Context(), func(remaining int) bool {
		return remaining == 0
	})
	if err != nil {
		if sampler.IsTimeout(err) {
			return fmt.Errorf("pods matching %s not terminated after %v", selector.String(), timeout)
		}
		return err
	}
	return nil
}

// ForDeploymentReady waits for a deployment to have all replicas ready. A
// missing deployment keeps the wait going; the operator may not have created
// it yet.
func ForDeploymentReady(c Clients, name string, timeout time.Duration) error {
	s := sampler.New(PollInterval, timeout, func(ctx context.Context) (bool, error) {
		deployment, err := c.Client().AppsV1().Deployments(c.Namespace()).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return false, nil
		}
		return deployment.Status.ReadyReplicas == deployment.Status.Replicas &&
			deployment.Status.ReadyReplicas > 0, nil
	})

	_, err := s.WaitFor(c.Context(), func(ready bool) bool { return ready })
	if err != nil {
		if sampler.IsTimeout(err) {
			return fmt.Errorf("deployment %s not ready after %v", name, timeout)
		}
		return err
	}
	return nil
}

// IsPodReady checks if a pod is in Ready state
func IsPodReady(pod *corev1.Pod) bool {
	if pod.Status.Phase != corev1.PodRunning {
		return false
	}

	for _, condition := range pod.Status.Conditions {
		if condition.Type == corev1.PodReady {
			return condition.Status == corev1.ConditionTrue
		}
	}

	return false
}
