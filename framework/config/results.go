package config

import (
	"errors"
	"fmt"
)

// ResultsTargetKind discriminates the two ways a results store can be reached
type ResultsTargetKind string

const (
	// ResultsManaged points at a store deployed inside the cluster,
	// addressed by namespace and service name
	ResultsManaged ResultsTargetKind = "managed"

	// ResultsExternal points at a store outside the cluster, addressed by
	// host and port
	ResultsExternal ResultsTargetKind = "external"
)

// ErrInvalidResultsTarget indicates a results target that is neither a
// complete managed reference nor a complete external address
var ErrInvalidResultsTarget = errors.New("invalid results target")

// ResultsTarget is a tagged reference to the results store, resolved once at
// configuration time. Exactly one of the managed or external field groups is
// populated, according to Kind.
type ResultsTarget struct {
	Kind ResultsTargetKind

	// Managed target
	Namespace string
	Service   string

	// External target
	Address string
	Port    int
}

// NewManagedTarget returns a ResultsTarget for an in-cluster store
func NewManagedTarget(namespace, service string) ResultsTarget {
	return ResultsTarget{Kind: ResultsManaged, Namespace: namespace, Service: service}
}

// NewExternalTarget returns a ResultsTarget for an out-of-cluster store
func NewExternalTarget(address string, port int) ResultsTarget {
	return ResultsTarget{Kind: ResultsExternal, Address: address, Port: port}
}

// Validate checks that the target is complete for its kind
func (t ResultsTarget) Validate() error {
	switch t.Kind {
	case ResultsManaged:
		if t.Namespace == "" || t.Service == "" {
			return fmt.Errorf("%w: managed target requires namespace and service", ErrInvalidResultsTarget)
		}
	case ResultsExternal:
		if t.Address == "" || t.Port <= 0 {
			return fmt.Errorf("%w: external target requires address and port", ErrInvalidResultsTarget)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidResultsTarget, t.Kind)
	}
	return nil
}

func (t ResultsTarget) String() string {
	if t.Kind == ResultsManaged {
		return fmt.Sprintf("managed://%s/%s", t.Namespace, t.Service)
	}
	return fmt.Sprintf("external://%s:%d", t.Address, t.Port)
}
