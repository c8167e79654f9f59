package platform

import (
	"context"
	"fmt"
	"log/slog"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/dynamic"

	"github.com/redhat/perf-tests-ocs/test/framework/gvr"
	"github.com/redhat/perf-tests-ocs/test/framework/resource"
)

// PlatformMachineSet selects the OpenShift MachineSet backend
const PlatformMachineSet = "machineset"

// MachineNamespace is where the Machine API keeps its resources
const MachineNamespace = "openshift-machine-api"

// machineSetLabel links a Machine to its owning MachineSet
const machineSetLabel = "machine.openshift.io/cluster-api-machineset"

func init() {
	Register(PlatformMachineSet, func(ctx context.Context, deps Deps) (Backend, error) {
		if deps.Dynamic == nil {
			return nil, fmt.Errorf("machineset backend requires a dynamic client")
		}
		return NewMachineSetBackend(deps.Dynamic, deps.Logger), nil
	})
}

// MachineSetBackend scales worker pools through OpenShift MachineSets. The
// pool ID is the MachineSet name.
type MachineSetBackend struct {
	dynamic   dynamic.Interface
	namespace string
	logger    *slog.Logger
}

// NewMachineSetBackend creates a backend over the given dynamic client
func NewMachineSetBackend(client dynamic.Interface, logger *slog.Logger) *MachineSetBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &MachineSetBackend{
		dynamic:   client,
		namespace: MachineNamespace,
		logger:    logger,
	}
}

// SetDesiredReplicas patches the MachineSet's replica count
func (b *MachineSetBackend) SetDesiredReplicas(ctx context.Context, poolID string, count int) error {
	patch := []byte(fmt.Sprintf(`{"spec":{"replicas":%d}}`, count))
	_, err := b.dynamic.Resource(gvr.MachineSet).Namespace(b.namespace).
		Patch(ctx, poolID, types.MergePatchType, patch, metav1.PatchOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return fmt.Errorf("machineset %s/%s not found", b.namespace, poolID)
		}
		return fmt.Errorf("scaling machineset %s to %d replicas: %w", poolID, count, err)
	}
	b.logger.Info("machineset replica count updated", "machineset", poolID, "replicas", count)
	return nil
}

// CurrentMembers lists the machines owned by the MachineSet and returns a
// node handle for each machine already linked to a node. Machines still
// provisioning have no node reference yet and are not counted as members.
func (b *MachineSetBackend) CurrentMembers(ctx context.Context, poolID string) (resource.Set, error) {
	machines, err := b.dynamic.Resource(gvr.Machine).Namespace(b.namespace).
		List(ctx, metav1.ListOptions{
			LabelSelector: fmt.Sprintf("%s=%s", machineSetLabel, poolID),
		})
	if err != nil {
		return nil, fmt.Errorf("listing machines of machineset %s: %w", poolID, err)
	}

	members := resource.NewSet()
	for _, machine := range machines.Items {
		nodeName := nodeRefName(&machine)
		if nodeName == "" {
			continue
		}
		members.Add(resource.NewNode(nodeName))
	}
	return members, nil
}

func nodeRefName(machine *unstructured.Unstructured) string {
	name, found, err := unstructured.NestedString(machine.Object, "status", "nodeRef", "name")
	if !found || err != nil {
		return ""
	}
	return name
}
