package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sigs.k8s.io/yaml"

	"github.com/redhat/perf-tests-ocs/test/framework/platform"
)

// Load reads a profile from a YAML file
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file %s: %w", path, err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}

	if err := Validate(&profile); err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", path, err)
	}

	return &profile, nil
}

// LoadAll reads all YAML profiles from a directory
func LoadAll(dir string) ([]*Profile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles directory %s: %w", dir, err)
	}

	var profiles []*Profile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		profile, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}

	return profiles, nil
}

// LoadByNames loads specific profiles by name from a directory
func LoadByNames(dir string, names []string) ([]*Profile, error) {
	var profiles []*Profile
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		// Try with .yaml extension first, then .yml
		path := filepath.Join(dir, name+".yaml")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			path = filepath.Join(dir, name+".yml")
		}

		profile, err := Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load profile %q: %w", name, err)
		}
		profiles = append(profiles, profile)
	}

	return profiles, nil
}

// Validate checks that a profile has all required fields
func Validate(p *Profile) error {
	if p.Name == "" {
		return fmt.Errorf("profile name is required")
	}

	if p.Platform == "" {
		return fmt.Errorf("platform is required (one of %v)", platform.Names())
	}
	known := false
	for _, name := range platform.Names() {
		if p.Platform == name {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown platform %q (available: %v)", p.Platform, platform.Names())
	}

	if p.Pool.ID == "" {
		return fmt.Errorf("pool.id is required")
	}
	if p.Pool.Delta < 0 {
		return fmt.Errorf("pool.delta cannot be negative")
	}

	if p.Workload.JobID == "" {
		return fmt.Errorf("workload.jobId is required")
	}
	if p.Workload.Timeout != "" {
		if _, err := time.ParseDuration(p.Workload.Timeout); err != nil {
			return fmt.Errorf("workload.timeout is not a valid duration: %w", err)
		}
	}
	if p.Workload.PollInterval != "" {
		if _, err := time.ParseDuration(p.Workload.PollInterval); err != nil {
			return fmt.Errorf("workload.pollInterval is not a valid duration: %w", err)
		}
	}
	if p.Workload.MaxRestarts < 0 {
		return fmt.Errorf("workload.maxRestarts cannot be negative")
	}

	if p.Results != nil {
		if _, err := p.Results.Target(); err != nil {
			return fmt.Errorf("results: %w", err)
		}
	}

	return nil
}

// ListProfileNames returns the names of all profiles in a directory
func ListProfileNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".yaml") {
			names = append(names, strings.TrimSuffix(name, ".yaml"))
		} else if strings.HasSuffix(name, ".yml") {
			names = append(names, strings.TrimSuffix(name, ".yml"))
		}
	}

	return names, nil
}
