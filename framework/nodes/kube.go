package nodes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/kubernetes"
	"k8s.io/kubectl/pkg/drain"
	"sigs.k8s.io/yaml"

	"github.com/redhat/perf-tests-ocs/test/framework/resource"
)

// KubeQuery reads node state through the Kubernetes API
type KubeQuery struct {
	client kubernetes.Interface
}

// NewKubeQuery creates a KubeQuery over the given clientset
func NewKubeQuery(client kubernetes.Interface) *KubeQuery {
	return &KubeQuery{client: client}
}

// List returns all nodes matching the label selector
func (q *KubeQuery) List(ctx context.Context, selector string) ([]Observation, error) {
	nodes, err := q.client.CoreV1().Nodes().List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return nil, fmt.Errorf("listing nodes: %w", err)
	}

	observations := make([]Observation, 0, len(nodes.Items))
	for i := range nodes.Items {
		observations = append(observations, Observation{
			Handle: resource.NewNode(nodes.Items[i].Name),
			Status: statusOf(&nodes.Items[i]),
		})
	}
	return observations, nil
}

// Get returns observations for the named nodes, omitting nodes that no
// longer exist
func (q *KubeQuery) Get(ctx context.Context, names []string) ([]Observation, error) {
	observations := make([]Observation, 0, len(names))
	for _, name := range names {
		node, err := q.client.CoreV1().Nodes().Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			if apierrors.IsNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("fetching node %s: %w", name, err)
		}
		observations = append(observations, Observation{
			Handle: resource.NewNode(node.Name),
			Status: statusOf(node),
		})
	}
	return observations, nil
}

// Describe returns the node serialized as YAML for diagnosis
func (q *KubeQuery) Describe(ctx context.Context, h resource.Handle) (string, error) {
	node, err := q.client.CoreV1().Nodes().Get(ctx, h.Name, metav1.GetOptions{})
	if err != nil {
		return "", fmt.Errorf("fetching node %s: %w", h.Name, err)
	}
	out, err := yaml.Marshal(node)
	if err != nil {
		return "", fmt.Errorf("serializing node %s: %w", h.Name, err)
	}
	return string(out), nil
}

// statusOf maps node conditions and scheduling state to the CLI-style
// status column
func statusOf(node *corev1.Node) Status {
	ready := false
	for _, condition := range node.Status.Conditions {
		if condition.Type == corev1.NodeReady {
			ready = condition.Status == corev1.ConditionTrue
			break
		}
	}

	switch {
	case ready && node.Spec.Unschedulable:
		return StatusReadySchedulingDisabled
	case ready:
		return StatusReady
	case node.Spec.Unschedulable:
		return StatusNotReadySchedulingDisabled
	default:
		return StatusNotReady
	}
}

// KubeMutator changes node state through the Kubernetes API, using the
// kubectl drain helper for cordon and eviction semantics.
type KubeMutator struct {
	client kubernetes.Interface
	logger *slog.Logger
}

// NewKubeMutator creates a KubeMutator over the given clientset
func NewKubeMutator(client kubernetes.Interface, logger *slog.Logger) *KubeMutator {
	if logger == nil {
		logger = slog.Default()
	}
	return &KubeMutator{client: client, logger: logger}
}

// Cordon marks the node unschedulable
func (m *KubeMutator) Cordon(ctx context.Context, h resource.Handle) error {
	return m.setUnschedulable(ctx, h, true)
}

// Uncordon reverts a cordon
func (m *KubeMutator) Uncordon(ctx context.Context, h resource.Handle) error {
	return m.setUnschedulable(ctx, h, false)
}

func (m *KubeMutator) setUnschedulable(ctx context.Context, h resource.Handle, desired bool) error {
	node, err := m.client.CoreV1().Nodes().Get(ctx, h.Name, metav1.GetOptions{})
	if err != nil {
		return fmt.Errorf("fetching node %s: %w", h.Name, err)
	}
	if err := drain.RunCordonOrUncordon(m.drainHelper(ctx, 0), node, desired); err != nil {
		verb := "cordon"
		if !desired {
			verb = "uncordon"
		}
		return fmt.Errorf("%s of node %s failed: %w", verb, h.Name, err)
	}
	return nil
}

// Drain evicts all non-daemon workloads from the node under the given
// budget. Local (emptyDir) data is discarded and unmanaged pods are forced,
// matching the eviction posture used for storage node replacement.
func (m *KubeMutator) Drain(ctx context.Context, h resource.Handle, timeout time.Duration) error {
	err := drain.RunNodeDrain(m.drainHelper(ctx, timeout), h.Name)
	if err == nil {
		return nil
	}
	if isDrainTimeout(err) {
		return &DrainTimeoutError{Node: h.Name, Budget: timeout, Err: err}
	}
	return fmt.Errorf("draining node %s: %w", h.Name, err)
}

// Delete removes the node resource record
func (m *KubeMutator) Delete(ctx context.Context, h resource.Handle) error {
	if err := m.client.CoreV1().Nodes().Delete(ctx, h.Name, metav1.DeleteOptions{}); err != nil {
		return fmt.Errorf("deleting node %s: %w", h.Name, err)
	}
	return nil
}

// AddLabel applies a label to the node. An empty value is valid; marker
// labels carry no value.
func (m *KubeMutator) AddLabel(ctx context.Context, h resource.Handle, key, value string) error {
	patch := []byte(fmt.Sprintf(`{"metadata":{"labels":{%q:%q}}}`, key, value))
	_, err := m.client.CoreV1().Nodes().Patch(ctx, h.Name, types.MergePatchType, patch, metav1.PatchOptions{})
	if err != nil {
		return fmt.Errorf("labeling node %s with %s: %w", h.Name, key, err)
	}
	return nil
}

func (m *KubeMutator) drainHelper(ctx context.Context, timeout time.Duration) *drain.Helper {
	return &drain.Helper{
		Ctx:                 ctx,
		Client:              m.client,
		Force:               true,
		IgnoreAllDaemonSets: true,
		DeleteEmptyDirData:  true,
		GracePeriodSeconds:  -1,
		Timeout:             timeout,
		Out:                 &logWriter{logger: m.logger},
		ErrOut:              &logWriter{logger: m.logger, errStream: true},
	}
}

func isDrainTimeout(err error) bool {
	return wait.Interrupted(err) ||
		errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(err.Error(), "global timeout reached")
}

// logWriter adapts the drain helper's stream output to structured logging
type logWriter struct {
	logger    *slog.Logger
	errStream bool
}

func (w *logWriter) Write(p []byte) (int, error) {
	msg := strings.TrimSpace(string(p))
	if msg != "" {
		if w.errStream {
			w.logger.Warn(msg)
		} else {
			w.logger.Info(msg)
		}
	}
	return len(p), nil
}
