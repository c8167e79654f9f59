package platform

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"k8s.io/client-go/dynamic"

	"github.com/redhat/perf-tests-ocs/test/framework/resource"
)

// Backend provisions and inventories the members of a worker pool on one
// platform. Implementations exist per platform and are selected through the
// registry by platform name.
type Backend interface {
	// SetDesiredReplicas requests that the pool converge to count members.
	// The request is asynchronous; callers observe convergence through
	// CurrentMembers.
	SetDesiredReplicas(ctx context.Context, poolID string, count int) error

	// CurrentMembers returns the pool's current membership as node handles.
	// Always re-read from the platform; membership is never cached.
	CurrentMembers(ctx context.Context, poolID string) (resource.Set, error)
}

// Deps carries the dependencies a backend factory may need. Factories use
// what applies to their platform and ignore the rest.
type Deps struct {
	Dynamic dynamic.Interface
	VSphere *VSphereConfig
	Logger  *slog.Logger
}

// Factory constructs a Backend from its dependencies
type Factory func(ctx context.Context, deps Deps) (Backend, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register adds a backend factory under a platform name. Registration
// happens from package init functions; duplicate names panic.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("platform %q registered twice", name))
	}
	registry[name] = factory
}

// New constructs the backend registered under the platform name
func New(ctx context.Context, name string, deps Deps) (Backend, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown platform %q (available: %v)", name, Names())
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return factory(ctx, deps)
}

// Names returns the registered platform names, sorted
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
