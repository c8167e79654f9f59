package workload

import (
	"context"
	"fmt"
	"log/slog"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/client-go/dynamic"

	"github.com/redhat/perf-tests-ocs/test/framework/config"
	"github.com/redhat/perf-tests-ocs/test/framework/gvr"
	"github.com/redhat/perf-tests-ocs/test/framework/sampler"
)

// Deployer manages benchmark custom resources. Creating the resource hands
// the run to the benchmark operator; the Deployer then only observes.
type Deployer struct {
	dynamic   dynamic.Interface
	observer  Observer
	namespace string
	cfg       *config.Config
	logger    *slog.Logger
}

// NewDeployer wires a Deployer for the given namespace
func NewDeployer(dyn dynamic.Interface, observer Observer, namespace string, cfg *config.Config, logger *slog.Logger) *Deployer {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Deployer{
		dynamic:   dyn,
		observer:  observer,
		namespace: namespace,
		cfg:       cfg,
		logger:    logger,
	}
}

// Benchmark builds a benchmark resource around the given workload spec
func Benchmark(name, namespace string, workloadSpec map[string]interface{}) *unstructured.Unstructured {
	return &unstructured.Unstructured{
		Object: map[string]interface{}{
			"apiVersion": gvr.Benchmark.Group + "/" + gvr.Benchmark.Version,
			"kind":       "Benchmark",
			"metadata": map[string]interface{}{
				"name":      name,
				"namespace": namespace,
			},
			"spec": map[string]interface{}{
				"workload": workloadSpec,
			},
		},
	}
}

// Deploy creates the benchmark resource
func (d *Deployer) Deploy(ctx context.Context, benchmark *unstructured.Unstructured) error {
	name := benchmark.GetName()
	d.logger.Info("deploying benchmark", "name", name, "namespace", d.namespace)

	_, err := d.dynamic.Resource(gvr.Benchmark).Namespace(d.namespace).Create(ctx, benchmark, metav1.CreateOptions{})
	if err != nil {
		return fmt.Errorf("creating benchmark %s: %w", name, err)
	}
	return nil
}

// WaitForStart waits until the operator has launched the runner pod for the
// job. The launch budget is separate from the run budget: a run that never
// gets a runner fails fast instead of consuming hours of benchmark budget.
func (d *Deployer) WaitForStart(ctx context.Context, jobID string) (RunnerObservation, error) {
	s := sampler.New(d.cfg.LaunchPollInterval, d.cfg.LaunchTimeout, func(ctx context.Context) (RunnerObservation, error) {
		return d.observer.RunnerPod(ctx, jobID)
	})

	obs, err := s.WaitFor(ctx, func(obs RunnerObservation) bool {
		return obs.Found
	})
	if err != nil {
		if sampler.IsTimeout(err) {
			return RunnerObservation{}, &LaunchError{JobID: jobID, Err: err}
		}
		return RunnerObservation{}, fmt.Errorf("waiting for benchmark %s to start: %w", jobID, err)
	}

	d.logger.Info("benchmark runner is up", "job", jobID, "runner", obs.Name, "phase", obs.Phase)
	return obs, nil
}

// Teardown deletes the benchmark resource and waits until it is gone. A
// missing resource is not an error; teardown runs on every cleanup path.
func (d *Deployer) Teardown(ctx context.Context, name string) error {
	d.logger.Info("tearing down benchmark", "name", name, "namespace", d.namespace)

	err := d.dynamic.Resource(gvr.Benchmark).Namespace(d.namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("deleting benchmark %s: %w", name, err)
	}

	s := sampler.New(d.cfg.LaunchPollInterval, d.cfg.LaunchTimeout, func(ctx context.Context) (bool, error) {
		_, err := d.dynamic.Resource(gvr.Benchmark).Namespace(d.namespace).Get(ctx, name, metav1.GetOptions{})
		if apierrors.IsNotFound(err) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		return false, nil
	})
	if _, err := s.WaitFor(ctx, func(gone bool) bool { return gone }); err != nil {
		return fmt.Errorf("waiting for benchmark %s to be deleted: %w", name, err)
	}
	return nil
}
