package framework

import (
	"context"
	"fmt"
	"testing"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/redhat/perf-tests-ocs/test/framework/config"
	"github.com/redhat/perf-tests-ocs/test/framework/gvr"
	"github.com/redhat/perf-tests-ocs/test/framework/workload"
)

func testFramework(t *testing.T, objects ...runtime.Object) *Framework {
	t.Helper()

	cfg := config.Default()
	cfg.CRDeletionTimeout = 50 * time.Millisecond
	cfg.CRDeletionPollInterval = time.Millisecond
	cfg.NamespaceDeletionTimeout = 50 * time.Millisecond

	scheme := runtime.NewScheme()
	dyn := dynamicfake.NewSimpleDynamicClientWithCustomListKinds(scheme,
		map[schema.GroupVersionResource]string{
			gvr.Benchmark: "BenchmarkList",
		}, objects...)

	f, err := NewWithClients(context.Background(), "perf-test", fake.NewClientset(), dyn, nil, WithConfig(cfg))
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestNewRequiresNamespace(t *testing.T) {
	if _, err := NewWithClients(context.Background(), "", fake.NewClientset(), nil, nil); err != ErrNamespaceRequired {
		t.Fatalf("expected ErrNamespaceRequired, got %v", err)
	}
}

func TestEnsureNamespaceIsIdempotent(t *testing.T) {
	f := testFramework(t)

	if err := f.EnsureNamespace(); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := f.EnsureNamespace(); err != nil {
		t.Fatalf("second create should be a no-op: %v", err)
	}

	ns, err := f.Client().CoreV1().Namespaces().Get(context.Background(), "perf-test", metav1.GetOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if ns.Labels[LabelManagedBy] != LabelManagedByValue {
		t.Errorf("namespace should carry the managed-by label, got %v", ns.Labels)
	}
}

func TestGetManagedLabels(t *testing.T) {
	f := testFramework(t)

	labels := f.GetManagedLabels()
	if labels[LabelManagedBy] != LabelManagedByValue {
		t.Errorf("managed-by = %q", labels[LabelManagedBy])
	}
	if labels[LabelInstance] != "perf-test" {
		t.Errorf("instance = %q", labels[LabelInstance])
	}
}

func TestCleanupDeletesTrackedCRs(t *testing.T) {
	benchmark := workload.Benchmark("fio-benchmark", "perf-test", map[string]interface{}{"name": "fio"})
	f := testFramework(t, benchmark)

	if err := f.EnsureNamespace(); err != nil {
		t.Fatal(err)
	}
	f.TrackCR(gvr.Benchmark, "perf-test", "fio-benchmark")

	if err := f.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	if _, err := f.DynamicClient().Resource(gvr.Benchmark).Namespace("perf-test").Get(context.Background(), "fio-benchmark", metav1.GetOptions{}); err == nil {
		t.Fatal("tracked benchmark should be deleted by cleanup")
	}
	if _, err := f.Client().CoreV1().Namespaces().Get(context.Background(), "perf-test", metav1.GetOptions{}); err == nil {
		t.Fatal("namespace should be deleted by cleanup")
	}
}

func TestCleanupDeletesMoreCRsThanTheWaitLimit(t *testing.T) {
	// More tracked CRs than the bulk-wait parallelism allows in flight;
	// the bounded fan-out must still delete every one of them.
	var objects []runtime.Object
	var names []string
	for i := 0; i < 8; i++ {
		name := fmt.Sprintf("fio-benchmark-%d", i)
		objects = append(objects, workload.Benchmark(name, "perf-test", map[string]interface{}{"name": "fio"}))
		names = append(names, name)
	}
	f := testFramework(t, objects...)

	if err := f.EnsureNamespace(); err != nil {
		t.Fatal(err)
	}
	for _, name := range names {
		f.TrackCR(gvr.Benchmark, "perf-test", name)
	}
	if limit := f.FrameworkConfig().BulkWaitLimit; len(names) <= limit {
		t.Fatalf("test needs more CRs than the limit of %d", limit)
	}

	if err := f.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	for _, name := range names {
		if _, err := f.DynamicClient().Resource(gvr.Benchmark).Namespace("perf-test").Get(context.Background(), name, metav1.GetOptions{}); err == nil {
			t.Errorf("benchmark %s should be deleted by cleanup", name)
		}
	}
}

func TestCollectLogsGathersComponentStreams(t *testing.T) {
	var pods []runtime.Object
	for i := 0; i < 3; i++ {
		pods = append(pods, &corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{
				Name:      fmt.Sprintf("fio-client-%d", i),
				Namespace: "perf-test",
				Labels:    map[string]string{"benchmark-operator-workload": "true"},
			},
			Spec:   corev1.PodSpec{Containers: []corev1.Container{{Name: "fio"}}},
			Status: corev1.PodStatus{Phase: corev1.PodRunning},
		})
	}

	scheme := runtime.NewScheme()
	dyn := dynamicfake.NewSimpleDynamicClientWithCustomListKinds(scheme,
		map[schema.GroupVersionResource]string{
			gvr.Benchmark: "BenchmarkList",
		})
	f, err := NewWithClients(context.Background(), "perf-test", fake.NewClientset(pods...), dyn, nil)
	if err != nil {
		t.Fatal(err)
	}

	result, err := f.CollectLogs(&LogCollectionConfig{OutputDir: t.TempDir()})
	if err != nil {
		t.Fatalf("collect logs: %v", err)
	}
	if len(result.Logs) != 3 {
		t.Fatalf("logs entries = %d, want one per runner pod", len(result.Logs))
	}
	seen := map[string]bool{}
	for _, entry := range result.Logs {
		if entry.Error != nil {
			t.Errorf("pod %s: %v", entry.Pod, entry.Error)
		}
		if entry.Component != "benchmark-runner" {
			t.Errorf("component = %q, want benchmark-runner", entry.Component)
		}
		seen[entry.Pod] = true
	}
	if len(seen) != 3 {
		t.Errorf("pods covered = %v, want all three runners", seen)
	}
}

func TestTrackedResourcesAreCopied(t *testing.T) {
	f := testFramework(t)
	f.TrackCR(gvr.Benchmark, "perf-test", "fio-benchmark")

	tracked := f.GetTrackedCRs()
	tracked[0].Name = "mutated"

	if got := f.GetTrackedCRs()[0].Name; got != "fio-benchmark" {
		t.Errorf("internal tracking mutated through the returned slice: %q", got)
	}
}
