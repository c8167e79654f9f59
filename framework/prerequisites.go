package framework

import (
	"context"
	"fmt"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	apiextensionsclient "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// PrerequisiteStatus represents the status of a single prerequisite
type PrerequisiteStatus struct {
	Name      string
	Installed bool
	Message   string
}

// PrerequisitesResult contains the results of all prerequisite checks
type PrerequisitesResult struct {
	StorageOperator   PrerequisiteStatus
	MachineAPI        PrerequisiteStatus
	BenchmarkOperator PrerequisiteStatus
	AllMet            bool
}

// Required CRDs for each operator
var (
	storageCRDs = []string{
		"storageclusters.ocs.openshift.io",
		"cephclusters.ceph.rook.io",
	}

	machineAPICRDs = []string{
		"machinesets.machine.openshift.io",
		"machines.machine.openshift.io",
	}

	benchmarkCRDs = []string{
		"benchmarks.ripsaw.cloudbulldozer.io",
	}
)

// CheckPrerequisites verifies that required operators are installed in the cluster
func (f *Framework) CheckPrerequisites() (*PrerequisitesResult, error) {
	apiextClient, err := apiextensionsclient.NewForConfig(f.restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create apiextensions client: %w", err)
	}

	result := &PrerequisitesResult{
		AllMet: true,
	}

	result.StorageOperator = checkCRDs(f.ctx, apiextClient, "OpenShift Data Foundation", storageCRDs)
	if !result.StorageOperator.Installed {
		result.AllMet = false
	}

	result.MachineAPI = checkCRDs(f.ctx, apiextClient, "Machine API", machineAPICRDs)
	if !result.MachineAPI.Installed {
		result.AllMet = false
	}

	result.BenchmarkOperator = checkCRDs(f.ctx, apiextClient, "Benchmark Operator", benchmarkCRDs)
	if !result.BenchmarkOperator.Installed {
		result.AllMet = false
	}

	return result, nil
}

// checkCRDs verifies that all required CRDs for an operator are installed
func checkCRDs(ctx context.Context, client apiextensionsclient.Interface, operatorName string, crds []string) PrerequisiteStatus {
	status := PrerequisiteStatus{
		Name:      operatorName,
		Installed: true,
	}

	var missing []string
	var found []string

	for _, crdName := range crds {
		crd, err := client.ApiextensionsV1().CustomResourceDefinitions().Get(ctx, crdName, metav1.GetOptions{})
		if err != nil {
			missing = append(missing, crdName)
			status.Installed = false
			continue
		}

		if !isCRDEstablished(crd) {
			missing = append(missing, crdName+" (not established)")
			status.Installed = false
			continue
		}

		found = append(found, crdName)
	}

	if status.Installed {
		status.Message = fmt.Sprintf("All CRDs found: %v", found)
	} else {
		status.Message = fmt.Sprintf("Missing CRDs: %v", missing)
	}

	return status
}

// isCRDEstablished checks if the CRD has the Established condition set to True
func isCRDEstablished(crd *apiextensionsv1.CustomResourceDefinition) bool {
	for _, cond := range crd.Status.Conditions {
		if cond.Type == apiextensionsv1.Established && cond.Status == apiextensionsv1.ConditionTrue {
			return true
		}
	}
	return false
}

// String returns a human-readable summary of the prerequisites result
func (r *PrerequisitesResult) String() string {
	mark := func(s PrerequisiteStatus) string {
		if s.Installed {
			return "ok"
		}
		return "missing"
	}

	return fmt.Sprintf(
		"Prerequisites Check:\n"+
			"  [%s] OpenShift Data Foundation: %s\n"+
			"  [%s] Machine API: %s\n"+
			"  [%s] Benchmark Operator: %s\n"+
			"  All prerequisites met: %v",
		mark(r.StorageOperator), r.StorageOperator.Message,
		mark(r.MachineAPI), r.MachineAPI.Message,
		mark(r.BenchmarkOperator), r.BenchmarkOperator.Message,
		r.AllMet,
	)
}
