package config

import (
	"os"
	"strconv"
	"time"
)

// Default timeouts and intervals used throughout the harness
const (
	// DefaultNodeReadyTimeout bounds a wait for nodes to reach a status
	DefaultNodeReadyTimeout = 180 * time.Second

	// DefaultStatusPollInterval is the pause between node status probes
	DefaultStatusPollInterval = 3 * time.Second

	// DefaultNodeListTimeout bounds the bootstrap wait for a non-empty node
	// list (a freshly created cluster can briefly report zero nodes)
	DefaultNodeListTimeout = 60 * time.Second

	// DefaultNodeListPollInterval is the pause between node list probes
	DefaultNodeListPollInterval = 3 * time.Second

	// DefaultMembershipTimeout bounds the wait for a scaled pool to reach
	// its requested member count
	DefaultMembershipTimeout = 600 * time.Second

	// DefaultMembershipPollInterval is the pause between membership probes
	DefaultMembershipPollInterval = 6 * time.Second

	// DefaultDrainTimeout is the internal budget of a single drain call,
	// separate from the overall removal budget
	DefaultDrainTimeout = 1200 * time.Second

	// DefaultWorkloadTimeout bounds a benchmark run
	DefaultWorkloadTimeout = 18000 * time.Second

	// DefaultWorkloadPollInterval is the pause between workload phase probes
	DefaultWorkloadPollInterval = 300 * time.Second

	// DefaultLaunchTimeout bounds the wait for a benchmark runner pod to appear
	DefaultLaunchTimeout = 300 * time.Second

	// DefaultLaunchPollInterval is the pause between runner pod probes
	DefaultLaunchPollInterval = 20 * time.Second

	// DefaultMaxRestarts is the number of runner pod restarts tolerated
	// before a workload is declared permanently failed
	DefaultMaxRestarts = 3

	// DefaultBulkWaitLimit is the parallelism for bulk wait operations
	DefaultBulkWaitLimit = 5

	// DefaultCRDeletionTimeout bounds the wait for a deleted custom resource
	// to be fully removed
	DefaultCRDeletionTimeout = 120 * time.Second

	// DefaultCRDeletionPollInterval is the pause between deletion probes
	DefaultCRDeletionPollInterval = 5 * time.Second

	// DefaultNamespaceDeletionTimeout bounds the wait for a namespace to be
	// fully removed
	DefaultNamespaceDeletionTimeout = 120 * time.Second
)

// Environment variable names for configuration overrides
const (
	EnvNodeReadyTimeout  = "OCS_PERF_NODE_READY_TIMEOUT"
	EnvMembershipTimeout = "OCS_PERF_MEMBERSHIP_TIMEOUT"
	EnvDrainTimeout      = "OCS_PERF_DRAIN_TIMEOUT"
	EnvWorkloadTimeout   = "OCS_PERF_WORKLOAD_TIMEOUT"
	EnvLaunchTimeout     = "OCS_PERF_LAUNCH_TIMEOUT"
	EnvMaxRestarts       = "OCS_PERF_MAX_RESTARTS"
	EnvBulkWaitLimit     = "OCS_PERF_BULK_WAIT_LIMIT"
)

// Config holds harness configuration with optional overrides. It is
// constructed once at process start and passed into each orchestrator;
// nothing reads it ambiently.
type Config struct {
	// Node lifecycle
	NodeReadyTimeout       time.Duration
	StatusPollInterval     time.Duration
	NodeListTimeout        time.Duration
	NodeListPollInterval   time.Duration
	MembershipTimeout      time.Duration
	MembershipPollInterval time.Duration
	DrainTimeout           time.Duration

	// Workload lifecycle
	WorkloadTimeout      time.Duration
	WorkloadPollInterval time.Duration
	LaunchTimeout        time.Duration
	LaunchPollInterval   time.Duration
	MaxRestarts          int

	// Concurrency
	BulkWaitLimit int

	// Cleanup
	CRDeletionTimeout        time.Duration
	CRDeletionPollInterval   time.Duration
	NamespaceDeletionTimeout time.Duration

	// Results is where benchmark results are shipped. The zero value means
	// no results store is configured.
	Results ResultsTarget
}

// Default returns a Config with all default values
func Default() *Config {
	return &Config{
		NodeReadyTimeout:       DefaultNodeReadyTimeout,
		StatusPollInterval:     DefaultStatusPollInterval,
		NodeListTimeout:        DefaultNodeListTimeout,
		NodeListPollInterval:   DefaultNodeListPollInterval,
		MembershipTimeout:      DefaultMembershipTimeout,
		MembershipPollInterval: DefaultMembershipPollInterval,
		DrainTimeout:           DefaultDrainTimeout,
		WorkloadTimeout:        DefaultWorkloadTimeout,
		WorkloadPollInterval:   DefaultWorkloadPollInterval,
		LaunchTimeout:          DefaultLaunchTimeout,
		LaunchPollInterval:     DefaultLaunchPollInterval,
		MaxRestarts:            DefaultMaxRestarts,
		BulkWaitLimit:          DefaultBulkWaitLimit,

		CRDeletionTimeout:        DefaultCRDeletionTimeout,
		CRDeletionPollInterval:   DefaultCRDeletionPollInterval,
		NamespaceDeletionTimeout: DefaultNamespaceDeletionTimeout,
	}
}

// FromEnv returns a Config with values from environment variables, falling
// back to defaults
func FromEnv() *Config {
	cfg := Default()

	if v := os.Getenv(EnvNodeReadyTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.NodeReadyTimeout = d
		}
	}

	if v := os.Getenv(EnvMembershipTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.MembershipTimeout = d
		}
	}

	if v := os.Getenv(EnvDrainTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.DrainTimeout = d
		}
	}

	if v := os.Getenv(EnvWorkloadTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.WorkloadTimeout = d
		}
	}

	if v := os.Getenv(EnvLaunchTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.LaunchTimeout = d
		}
	}

	if v := os.Getenv(EnvMaxRestarts); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxRestarts = n
		}
	}

	if v := os.Getenv(EnvBulkWaitLimit); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.BulkWaitLimit = n
		}
	}

	return cfg
}

// WithNodeReadyTimeout returns a copy with updated node ready timeout
func (c *Config) WithNodeReadyTimeout(d time.Duration) *Config {
	cp := *c
	cp.NodeReadyTimeout = d
	return &cp
}

// WithDrainTimeout returns a copy with updated drain budget
func (c *Config) WithDrainTimeout(d time.Duration) *Config {
	cp := *c
	cp.DrainTimeout = d
	return &cp
}

// WithWorkloadTimeout returns a copy with updated workload budget
func (c *Config) WithWorkloadTimeout(d time.Duration) *Config {
	cp := *c
	cp.WorkloadTimeout = d
	return &cp
}

// WithMaxRestarts returns a copy with updated restart tolerance
func (c *Config) WithMaxRestarts(n int) *Config {
	cp := *c
	cp.MaxRestarts = n
	return &cp
}

// WithWorkloadPollInterval returns a copy with updated workload probe pause
func (c *Config) WithWorkloadPollInterval(d time.Duration) *Config {
	cp := *c
	cp.WorkloadPollInterval = d
	return &cp
}

// WithResultsTarget returns a copy with the resolved results store
func (c *Config) WithResultsTarget(t ResultsTarget) *Config {
	cp := *c
	cp.Results = t
	return &cp
}
