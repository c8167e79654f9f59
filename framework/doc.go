// Package framework provides a testing harness for storage performance
// tests on OpenShift clusters running OpenShift Data Foundation.
//
// The framework automates node pool scaling, benchmark execution through
// the benchmark operator, storage health checks, and cleanup, providing a
// high-level API for performance testing workflows.
//
// # Quick Start
//
// Create a new framework instance and run a benchmark:
//
//	ctx := context.Background()
//	fw, err := framework.New(ctx, "my-test-namespace")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer fw.Cleanup()
//
//	// Check prerequisites
//	prereqs, _ := fw.CheckPrerequisites()
//	if !prereqs.AllMet {
//	    log.Fatal("Prerequisites not met: ", prereqs.String())
//	}
//
//	// Grow the worker pool by two storage nodes
//	pool, _ := fw.NodePool("machineset")
//	added, _ := pool.ScaleUp(ctx, "cluster-abc12-worker-a", 2)
//
//	// Run a fio benchmark and wait for it to finish
//	benchmark := workload.Benchmark("fio-benchmark", fw.Namespace(), fioSpec)
//	run, _ := fw.RunBenchmark(benchmark, "fio")
//	fmt.Println(run.Logs)
//
// # Context Support
//
// The framework supports context-based cancellation for all operations:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 6*time.Hour)
//	defer cancel()
//
//	fw, err := framework.New(ctx, "test-namespace")
//
// # Package Structure
//
// The framework is organized into subpackages:
//
//   - ceph: storage health checks through the toolbox pod
//   - concurrent: concurrent execution helpers for parallel operations
//   - config: centralized configuration with environment variable support
//   - gvr: centralized GroupVersionResource definitions
//   - nodes: node status waits and pool scaling orchestration
//   - platform: provisioning backends (MachineSet, vSphere)
//   - profile: test profile loading from YAML
//   - resource: typed handles for cluster resources
//   - retry: retry policies for transient cluster errors
//   - sampler: lazy polling primitive underlying all waits
//   - wait: readiness checks for pods and deployments
//   - workload: benchmark deployment and run tracking
package framework
