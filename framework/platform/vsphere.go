package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"sort"

	"github.com/vmware/govmomi"
	"github.com/vmware/govmomi/find"
	"github.com/vmware/govmomi/object"
	"github.com/vmware/govmomi/vim25/soap"
	"github.com/vmware/govmomi/vim25/types"

	"github.com/redhat/perf-tests-ocs/test/framework/resource"
)

// PlatformVSphere selects the vSphere backend
const PlatformVSphere = "vsphere"

// VSphereConfig holds connection settings for a vCenter endpoint
type VSphereConfig struct {
	URL        string
	Username   string
	Password   string
	Datacenter string
	// Folder is the inventory folder holding the pool's pre-provisioned VMs
	Folder   string
	Insecure bool
}

func init() {
	Register(PlatformVSphere, func(ctx context.Context, deps Deps) (Backend, error) {
		if deps.VSphere == nil {
			return nil, fmt.Errorf("vsphere backend requires connection settings")
		}
		return NewVSphereBackend(ctx, deps.VSphere, deps.Logger)
	})
}

// VSphereBackend scales a pool of pre-provisioned vSphere VMs by powering
// members on and off. The pool ID is the VM name prefix; membership is the
// set of powered-on VMs carrying it. UPI clusters on vSphere provision their
// worker VMs out of band, so scaling here is a power operation rather than a
// clone.
type VSphereBackend struct {
	client *govmomi.Client
	finder *find.Finder
	folder string
	logger *slog.Logger
}

// NewVSphereBackend connects to vCenter and prepares the inventory finder
func NewVSphereBackend(ctx context.Context, cfg *VSphereConfig, logger *slog.Logger) (*VSphereBackend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	u, err := soap.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing vcenter url: %w", err)
	}
	u.User = url.UserPassword(cfg.Username, cfg.Password)

	client, err := govmomi.NewClient(ctx, u, cfg.Insecure)
	if err != nil {
		return nil, fmt.Errorf("connecting to vcenter %s: %w", u.Host, err)
	}

	finder := find.NewFinder(client.Client)
	dc, err := finder.Datacenter(ctx, cfg.Datacenter)
	if err != nil {
		return nil, fmt.Errorf("locating datacenter %s: %w", cfg.Datacenter, err)
	}
	finder.SetDatacenter(dc)

	return &VSphereBackend{
		client: client,
		finder: finder,
		folder: cfg.Folder,
		logger: logger,
	}, nil
}

// CurrentMembers returns the pool's powered-on VMs as node handles
func (b *VSphereBackend) CurrentMembers(ctx context.Context, poolID string) (resource.Set, error) {
	vms, err := b.poolVMs(ctx, poolID)
	if err != nil {
		return nil, err
	}

	members := resource.NewSet()
	for _, vm := range vms {
		state, err := vm.PowerState(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading power state of %s: %w", vm.Name(), err)
		}
		if state == types.VirtualMachinePowerStatePoweredOn {
			members.Add(resource.NewNode(vm.Name()))
		}
	}
	return members, nil
}

// SetDesiredReplicas powers pool VMs on or off until count are running.
// Scaling beyond the pre-provisioned pool fails: the harness does not clone
// VMs (cluster provisioning is out of scope).
func (b *VSphereBackend) SetDesiredReplicas(ctx context.Context, poolID string, count int) error {
	vms, err := b.poolVMs(ctx, poolID)
	if err != nil {
		return err
	}

	var on, off []*object.VirtualMachine
	for _, vm := range vms {
		state, err := vm.PowerState(ctx)
		if err != nil {
			return fmt.Errorf("reading power state of %s: %w", vm.Name(), err)
		}
		if state == types.VirtualMachinePowerStatePoweredOn {
			on = append(on, vm)
		} else {
			off = append(off, vm)
		}
	}

	switch {
	case count > len(on):
		needed := count - len(on)
		if needed > len(off) {
			return fmt.Errorf("pool %s: requested %d members but only %d VMs are provisioned",
				poolID, count, len(vms))
		}
		for _, vm := range off[:needed] {
			b.logger.Info("powering on pool VM", "pool", poolID, "vm", vm.Name())
			if err := b.await(ctx, vm.PowerOn); err != nil {
				return fmt.Errorf("powering on %s: %w", vm.Name(), err)
			}
		}
	case count < len(on):
		excess := len(on) - count
		// Shed the highest-indexed members first
		for _, vm := range on[len(on)-excess:] {
			b.logger.Info("powering off pool VM", "pool", poolID, "vm", vm.Name())
			if err := b.await(ctx, vm.PowerOff); err != nil {
				return fmt.Errorf("powering off %s: %w", vm.Name(), err)
			}
		}
	}
	return nil
}

// poolVMs lists the pool's VMs sorted by name. An empty inventory is a
// valid pool state, not an error.
func (b *VSphereBackend) poolVMs(ctx context.Context, poolID string) ([]*object.VirtualMachine, error) {
	pattern := path.Join(b.folder, poolID+"-*")
	vms, err := b.finder.VirtualMachineList(ctx, pattern)
	if err != nil {
		var notFound *find.NotFoundError
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing VMs for pool %s: %w", poolID, err)
	}
	sort.Slice(vms, func(i, j int) bool { return vms[i].Name() < vms[j].Name() })
	return vms, nil
}

func (b *VSphereBackend) await(ctx context.Context, start func(context.Context) (*object.Task, error)) error {
	task, err := start(ctx)
	if err != nil {
		return err
	}
	return task.Wait(ctx)
}
