package wait

import (
	"context"
	"log/slog"
	"testing"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/fake"
)

type testClients struct {
	client    kubernetes.Interface
	namespace string
}

func (c *testClients) Client() kubernetes.Interface { return c.client }
func (c *testClients) Context() context.Context     { return context.Background() }
func (c *testClients) Namespace() string            { return c.namespace }
func (c *testClients) Logger() *slog.Logger         { return slog.Default() }

func readyPod(name string, lbls map[string]string) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "perf", Labels: lbls},
		Status: corev1.PodStatus{
			Phase: corev1.PodRunning,
			Conditions: []corev1.PodCondition{
				{Type: corev1.PodReady, Status: corev1.ConditionTrue},
			},
		},
	}
}

func fastPoll(t *testing.T) {
	t.Helper()
	old := PollInterval
	PollInterval = time.Millisecond
	t.Cleanup(func() { PollInterval = old })
}

func TestForPodsReady(t *testing.T) {
	fastPoll(t)
	c := &testClients{
		client:    fake.NewClientset(readyPod("fio-client-1", map[string]string{"app": "fio"})),
		namespace: "perf",
	}

	selector := labels.SelectorFromSet(labels.Set{"app": "fio"})
	if err := ForPodsReady(c, selector, 20*time.Millisecond, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestForPodsReadyTimeout(t *testing.T) {
	fastPoll(t)
	notReady := readyPod("fio-client-1", map[string]string{"app": "fio"})
	notReady.Status.Conditions[0].Status = corev1.ConditionFalse
	c := &testClients{client: fake.NewClientset(notReady), namespace: "perf"}

	selector := labels.SelectorFromSet(labels.Set{"app": "fio"})
	if err := ForPodsReady(c, selector, 10*time.Millisecond, 1); err == nil {
		t.Fatal("expected timeout")
	}
}

func TestForPodsReadyRequiresMinimum(t *testing.T) {
	fastPoll(t)
	c := &testClients{
		client:    fake.NewClientset(readyPod("fio-client-1", map[string]string{"app": "fio"})),
		namespace: "perf",
	}

	selector := labels.SelectorFromSet(labels.Set{"app": "fio"})
	if err := ForPodsReady(c, selector, 10*time.Millisecond, 2); err == nil {
		t.Fatal("one ready pod must not satisfy a minimum of two")
	}
}

func TestForPodsTerminated(t *testing.T) {
	fastPoll(t)
	c := &testClients{client: fake.NewClientset(), namespace: "perf"}

	selector := labels.SelectorFromSet(labels.Set{"app": "fio"})
	if err := ForPodsTerminated(c, selector, 20*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestForPodsTerminatedTimeout(t *testing.T) {
	fastPoll(t)
	c := &testClients{
		client:    fake.NewClientset(readyPod("fio-client-1", map[string]string{"app": "fio"})),
		namespace: "perf",
	}

	selector := labels.SelectorFromSet(labels.Set{"app": "fio"})
	if err := ForPodsTerminated(c, selector, 10*time.Millisecond); err == nil {
		t.Fatal("expected timeout while the pod lingers")
	}
}

func TestIsPodReady(t *testing.T) {
	pod := readyPod("p", nil)
	if !IsPodReady(pod) {
		t.Error("running pod with Ready=True should be ready")
	}

	pod.Status.Conditions[0].Status = corev1.ConditionFalse
	if IsPodReady(pod) {
		t.Error("Ready=False should not be ready")
	}

	pod.Status.Conditions[0].Status = corev1.ConditionTrue
	pod.Status.Phase = corev1.PodPending
	if IsPodReady(pod) {
		t.Error("pending pod should not be ready")
	}
}
