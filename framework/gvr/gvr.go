package gvr

import (
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// Machine API resources
var (
	// MachineSet is the GVR for OpenShift MachineSet custom resources
	MachineSet = schema.GroupVersionResource{
		Group:    "machine.openshift.io",
		Version:  "v1beta1",
		Resource: "machinesets",
	}

	// Machine is the GVR for OpenShift Machine custom resources
	Machine = schema.GroupVersionResource{
		Group:    "machine.openshift.io",
		Version:  "v1beta1",
		Resource: "machines",
	}
)

// Storage custom resources
var (
	// CephCluster is the GVR for Rook CephCluster custom resources
	CephCluster = schema.GroupVersionResource{
		Group:    "ceph.rook.io",
		Version:  "v1",
		Resource: "cephclusters",
	}

	// StorageCluster is the GVR for ODF StorageCluster custom resources
	StorageCluster = schema.GroupVersionResource{
		Group:    "ocs.openshift.io",
		Version:  "v1",
		Resource: "storageclusters",
	}
)

// Benchmark custom resources
var (
	// Benchmark is the GVR for benchmark-operator Benchmark custom resources
	Benchmark = schema.GroupVersionResource{
		Group:    "ripsaw.cloudbulldozer.io",
		Version:  "v1alpha1",
		Resource: "benchmarks",
	}
)

// Core resources
var (
	// Namespace is the GVR for Namespace resources
	Namespace = schema.GroupVersionResource{
		Group:    "",
		Version:  "v1",
		Resource: "namespaces",
	}

	// Pod is the GVR for Pod resources
	Pod = schema.GroupVersionResource{
		Group:    "",
		Version:  "v1",
		Resource: "pods",
	}

	// Node is the GVR for Node resources
	Node = schema.GroupVersionResource{
		Group:    "",
		Version:  "v1",
		Resource: "nodes",
	}

	// PersistentVolume is the GVR for PersistentVolume resources
	PersistentVolume = schema.GroupVersionResource{
		Group:    "",
		Version:  "v1",
		Resource: "persistentvolumes",
	}
)

// AllManagedCRs returns the custom resource types the harness creates and is
// responsible for cleaning up
func AllManagedCRs() []schema.GroupVersionResource {
	return []schema.GroupVersionResource{
		Benchmark,
	}
}
