package framework

import (
	"time"

	"github.com/redhat/perf-tests-ocs/test/framework/ceph"
	"github.com/redhat/perf-tests-ocs/test/framework/gvr"
	"github.com/redhat/perf-tests-ocs/test/framework/nodes"
	"github.com/redhat/perf-tests-ocs/test/framework/platform"
	"github.com/redhat/perf-tests-ocs/test/framework/wait"
	"github.com/redhat/perf-tests-ocs/test/framework/workload"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/labels"
)

// CephHealth returns a health inspector wired to the storage toolbox
func (f *Framework) CephHealth() *ceph.Health {
	exec := ceph.NewRemoteExecutor(f.client, f.restConfig, StorageNamespace)
	return ceph.NewHealth(exec, f.logger)
}

// NodePool builds a node pool orchestrator for the named platform. The
// vsphere platform requires connection details set via WithVSphere.
func (f *Framework) NodePool(platformName string) (*nodes.Orchestrator, error) {
	backend, err := platform.New(f.ctx, platformName, platform.Deps{
		Dynamic: f.dynamicClient,
		VSphere: f.vsphere,
		Logger:  f.logger,
	})
	if err != nil {
		return nil, err
	}

	waiter := nodes.NewWaiter(nodes.NewKubeQuery(f.client), f.config, f.logger)
	mutator := nodes.NewKubeMutator(f.client, f.logger)
	return nodes.NewOrchestrator(backend, waiter, mutator, f.CephHealth(), f.config, f.logger), nil
}

// NodeWaiter returns a status waiter over the cluster's nodes
func (f *Framework) NodeWaiter() *nodes.Waiter {
	return nodes.NewWaiter(nodes.NewKubeQuery(f.client), f.config, f.logger)
}

// BenchmarkDeployer returns a deployer for benchmark CRs in the framework
// namespace
func (f *Framework) BenchmarkDeployer() *workload.Deployer {
	observer := workload.NewKubeObserver(f.client, f.namespace)
	return workload.NewDeployer(f.dynamicClient, observer, f.namespace, f.config, f.logger)
}

// WorkloadTracker returns a tracker that follows benchmark runs in the
// framework namespace
func (f *Framework) WorkloadTracker() *workload.Tracker {
	observer := workload.NewKubeObserver(f.client, f.namespace)
	sink := workload.NewKubeLogSink(f.client, f.namespace)
	return workload.NewTracker(observer, sink, f.config, f.logger)
}

// RunBenchmark deploys a benchmark CR, waits for its runner to launch and
// follows the run to completion. The CR is tracked for cleanup either way.
func (f *Framework) RunBenchmark(benchmark *unstructured.Unstructured, jobID string) (*workload.Run, error) {
	deployer := f.BenchmarkDeployer()

	if err := deployer.Deploy(f.ctx, benchmark); err != nil {
		return nil, err
	}
	f.TrackCR(gvr.Benchmark, f.namespace, benchmark.GetName())

	if _, err := deployer.WaitForStart(f.ctx, jobID); err != nil {
		return nil, err
	}

	return f.WorkloadTracker().Await(f.ctx, jobID)
}

// WaitForPodsReady waits for pods matching the selector to be ready
func (f *Framework) WaitForPodsReady(selector labels.Selector, timeout time.Duration, minReady int) error {
	return wait.ForPodsReady(f, selector, timeout, minReady)
}

// WaitForDeploymentReady waits for a deployment to be ready
func (f *Framework) WaitForDeploymentReady(name string, timeout time.Duration) error {
	return wait.ForDeploymentReady(f, name, timeout)
}

// WaitForPodsTerminated waits for pods matching the selector to be fully terminated
func (f *Framework) WaitForPodsTerminated(selector labels.Selector, timeout time.Duration) error {
	return wait.ForPodsTerminated(f, selector, timeout)
}
