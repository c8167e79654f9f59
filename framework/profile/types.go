package profile

import (
	"fmt"
	"time"

	"github.com/redhat/perf-tests-ocs/test/framework/config"
)

// Profile represents a complete test profile configuration
type Profile struct {
	// Name is the unique identifier for this profile
	Name string `json:"name"`

	// Description provides human-readable details about the profile
	Description string `json:"description"`

	// Platform selects the provisioning backend: "machineset" or "vsphere"
	Platform string `json:"platform"`

	// Pool contains worker pool scaling configuration
	Pool PoolConfig `json:"pool"`

	// Workload contains benchmark workload configuration
	Workload WorkloadConfig `json:"workload"`

	// Results configures where benchmark results are shipped (optional)
	Results *ResultsSpec `json:"results,omitempty"`
}

// PoolConfig defines worker pool scaling settings
type PoolConfig struct {
	// ID names the pool on the platform: a MachineSet name or a vSphere VM
	// name prefix
	ID string `json:"id"`

	// Delta is the number of nodes to add before the workload runs
	Delta int `json:"delta"`

	// Label overrides the storage scheduling label applied to new nodes.
	// Empty uses the default.
	Label string `json:"label,omitempty"`
}

// WorkloadConfig defines benchmark settings
type WorkloadConfig struct {
	// JobID names the benchmark job; the runner pod name carries it
	JobID string `json:"jobId"`

	// Spec is the benchmark workload spec passed through to the operator
	Spec map[string]interface{} `json:"spec,omitempty"`

	// Timeout bounds the whole run (e.g. "5h"). Empty uses the default.
	Timeout string `json:"timeout,omitempty"`

	// PollInterval is the pause between run status probes (e.g. "5m")
	PollInterval string `json:"pollInterval,omitempty"`

	// MaxRestarts is the runner restart tolerance. Zero uses the default.
	MaxRestarts int `json:"maxRestarts,omitempty"`
}

// ResultsSpec defines where benchmark results are shipped. Exactly one of
// the two forms must be set: a managed in-cluster service or an external
// address.
type ResultsSpec struct {
	// Managed names an in-cluster results service
	Managed *ManagedResults `json:"managed,omitempty"`

	// External points at a results endpoint outside the cluster
	External *ExternalResults `json:"external,omitempty"`
}

// ManagedResults identifies an in-cluster results service
type ManagedResults struct {
	Namespace string `json:"namespace"`
	Service   string `json:"service"`
}

// ExternalResults identifies a results endpoint outside the cluster
type ExternalResults struct {
	Address string `json:"address"`
	Port    int    `json:"port"`
}

// Target resolves the results spec into a validated config target
func (r *ResultsSpec) Target() (config.ResultsTarget, error) {
	var t config.ResultsTarget
	switch {
	case r.External != nil:
		t = config.NewExternalTarget(r.External.Address, r.External.Port)
	case r.Managed != nil:
		t = config.NewManagedTarget(r.Managed.Namespace, r.Managed.Service)
	default:
		return t, config.ErrInvalidResultsTarget
	}
	if err := t.Validate(); err != nil {
		return config.ResultsTarget{}, err
	}
	return t, nil
}

// ApplyTo overlays the profile's workload timing settings onto a config
func (w *WorkloadConfig) ApplyTo(cfg *config.Config) *config.Config {
	out := cfg
	if w.Timeout != "" {
		if d, err := time.ParseDuration(w.Timeout); err == nil {
			out = out.WithWorkloadTimeout(d)
		}
	}
	if w.PollInterval != "" {
		if d, err := time.ParseDuration(w.PollInterval); err == nil {
			out = out.WithWorkloadPollInterval(d)
		}
	}
	if w.MaxRestarts > 0 {
		out = out.WithMaxRestarts(w.MaxRestarts)
	}
	return out
}

// ApplyTo overlays the profile's run settings onto a config: the workload
// timing knobs plus the resolved results target when one is configured.
func (p *Profile) ApplyTo(cfg *config.Config) (*config.Config, error) {
	out := p.Workload.ApplyTo(cfg)
	if p.Results != nil {
		t, err := p.Results.Target()
		if err != nil {
			return nil, fmt.Errorf("profile %s results: %w", p.Name, err)
		}
		out = out.WithResultsTarget(t)
	}
	return out, nil
}
