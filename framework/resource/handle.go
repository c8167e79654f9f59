package resource

import "fmt"

// Kind identifies the type of an externally managed resource
type Kind string

// Resource kinds tracked by the harness
const (
	KindNode    Kind = "Node"
	KindPod     Kind = "Pod"
	KindMachine Kind = "Machine"
)

// Handle identifies a named external resource such as a node or a pod.
// Handles are immutable once created.
type Handle struct {
	Name string
	Kind Kind
}

// NewNode returns a Handle for a node with the given name
func NewNode(name string) Handle {
	return Handle{Name: name, Kind: KindNode}
}

// NewPod returns a Handle for a pod with the given name
func NewPod(name string) Handle {
	return Handle{Name: name, Kind: KindPod}
}

func (h Handle) String() string {
	return fmt.Sprintf("%s/%s", h.Kind, h.Name)
}
