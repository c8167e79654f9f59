package workload

import (
	"context"
	"testing"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/redhat/perf-tests-ocs/test/framework/gvr"
)

func newFakeDynamic(objects ...runtime.Object) *dynamicfake.FakeDynamicClient {
	scheme := runtime.NewScheme()
	return dynamicfake.NewSimpleDynamicClientWithCustomListKinds(scheme,
		map[schema.GroupVersionResource]string{
			gvr.Benchmark: "BenchmarkList",
		}, objects...)
}

func TestDeployCreatesBenchmark(t *testing.T) {
	dyn := newFakeDynamic()
	d := NewDeployer(dyn, nil, "benchmark-operator", fastWorkloadConfig(), nil)

	benchmark := Benchmark("fio-benchmark", "benchmark-operator", map[string]interface{}{
		"name": "fio",
		"args": map[string]interface{}{"jobs": []interface{}{"randrw"}},
	})
	if err := d.Deploy(context.Background(), benchmark); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	created, err := dyn.Resource(gvr.Benchmark).Namespace("benchmark-operator").Get(context.Background(), "fio-benchmark", metav1.GetOptions{})
	if err != nil {
		t.Fatalf("benchmark not created: %v", err)
	}
	name, found, err := unstructured.NestedString(created.Object, "spec", "workload", "name")
	if err != nil || !found || name != "fio" {
		t.Errorf("workload name = %q (found %v, err %v), want fio", name, found, err)
	}
}

func TestDeployDuplicateFails(t *testing.T) {
	dyn := newFakeDynamic()
	d := NewDeployer(dyn, nil, "benchmark-operator", fastWorkloadConfig(), nil)

	benchmark := Benchmark("fio-benchmark", "benchmark-operator", map[string]interface{}{"name": "fio"})
	if err := d.Deploy(context.Background(), benchmark); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.Deploy(context.Background(), benchmark.DeepCopy()); err == nil {
		t.Fatal("expected duplicate create to fail")
	}
}

func TestWaitForStartFindsRunner(t *testing.T) {
	observer := &scriptedObserver{steps: []RunnerObservation{
		{},
		{},
		{Name: "fio-client-1", Phase: corev1.PodPending, Found: true},
	}}
	d := NewDeployer(newFakeDynamic(), observer, "benchmark-operator", fastWorkloadConfig(), nil)

	obs, err := d.WaitForStart(context.Background(), "fio")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obs.Name != "fio-client-1" {
		t.Errorf("runner = %q, want fio-client-1", obs.Name)
	}
}

func TestWaitForStartTimeoutIsLaunchError(t *testing.T) {
	observer := &scriptedObserver{steps: []RunnerObservation{{}}}
	d := NewDeployer(newFakeDynamic(), observer, "benchmark-operator", fastWorkloadConfig(), nil)

	_, err := d.WaitForStart(context.Background(), "fio")
	if !IsLaunchError(err) {
		t.Fatalf("expected LaunchError, got %T: %v", err, err)
	}
}

func TestTeardownRemovesBenchmark(t *testing.T) {
	benchmark := Benchmark("fio-benchmark", "benchmark-operator", map[string]interface{}{"name": "fio"})
	dyn := newFakeDynamic(benchmark)
	d := NewDeployer(dyn, nil, "benchmark-operator", fastWorkloadConfig(), nil)

	if err := d.Teardown(context.Background(), "fio-benchmark"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := dyn.Resource(gvr.Benchmark).Namespace("benchmark-operator").Get(context.Background(), "fio-benchmark", metav1.GetOptions{}); err == nil {
		t.Fatal("benchmark should be gone after teardown")
	}
}

func TestTeardownMissingBenchmarkIsNoop(t *testing.T) {
	d := NewDeployer(newFakeDynamic(), nil, "benchmark-operator", fastWorkloadConfig(), nil)
	if err := d.Teardown(context.Background(), "never-deployed"); err != nil {
		t.Fatalf("teardown of a missing benchmark should succeed, got %v", err)
	}
}

func TestKubeObserverSelectsClientPod(t *testing.T) {
	pod := func(name string, phase corev1.PodPhase) *corev1.Pod {
		return &corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "benchmark-operator"},
			Status:     corev1.PodStatus{Phase: phase},
		}
	}
	client := fake.NewClientset(
		pod("fio-server-1", corev1.PodRunning),
		pod("benchmark-controller-manager", corev1.PodRunning),
		pod("fio-client-1", corev1.PodRunning),
	)
	o := NewKubeObserver(client, "benchmark-operator")

	obs, err := o.RunnerPod(context.Background(), "fio")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !obs.Found || obs.Name != "fio-client-1" {
		t.Fatalf("observation = %+v, want the fio client pod", obs)
	}
	if obs.Phase != corev1.PodRunning {
		t.Errorf("phase = %s, want Running", obs.Phase)
	}
}

func TestKubeObserverNoRunner(t *testing.T) {
	client := fake.NewClientset(&corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "fio-server-1", Namespace: "benchmark-operator"},
	})
	o := NewKubeObserver(client, "benchmark-operator")

	obs, err := o.RunnerPod(context.Background(), "fio")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obs.Found {
		t.Fatalf("expected no runner, got %+v", obs)
	}
}
