// Package scenario loads stress-scenario configuration files.
package scenario

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario describes one stress run.
type Scenario struct {
	Registry RegistryScenario `yaml:"registry"`
	Arena    ArenaScenario    `yaml:"arena"`
}

// RegistryScenario configures the handle-registry contention workload.
type RegistryScenario struct {
	// Readers is the number of goroutines hammering Upgrade on a shared
	// weak handle.
	Readers int `yaml:"readers"`
	// Writers is the number of goroutines churning clones of the owning
	// handle.
	Writers int `yaml:"writers"`
	// Ops is the number of operations each goroutine performs.
	Ops int `yaml:"ops"`
}

// ArenaScenario configures the frame-churn workload.
type ArenaScenario struct {
	// Frames is the number of build passes to run.
	Frames int `yaml:"frames"`
	// Nodes is the tree size built each pass.
	Nodes int `yaml:"nodes"`
	// HoldEvery shares every Nth frame with a simulated renderer that
	// releases it a few frames late, deferring arena reclamation.
	// Zero disables holding.
	HoldEvery int `yaml:"hold_every"`
}

// Default returns the scenario used when no file is given.
func Default() *Scenario {
	return &Scenario{
		Registry: RegistryScenario{Readers: 8, Writers: 2, Ops: 200000},
		Arena:    ArenaScenario{Frames: 10000, Nodes: 256, HoldEvery: 16},
	}
}

// LoadOptional reads a scenario file if path is non-empty, filling omitted
// fields from Default.
func LoadOptional(path string) (*Scenario, error) {
	sc := Default()
	if path == "" {
		return sc, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("scenario file %s does not exist", path)
		}
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var loaded fileScenario
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse scenario file: %w", err)
	}

	merge(sc, &loaded)
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// fileScenario mirrors Scenario with pointer fields so an omitted key can be
// told apart from an explicit zero (hold_every: 0 disables holding).
type fileScenario struct {
	Registry struct {
		Readers *int `yaml:"readers"`
		Writers *int `yaml:"writers"`
		Ops     *int `yaml:"ops"`
	} `yaml:"registry"`
	Arena struct {
		Frames    *int `yaml:"frames"`
		Nodes     *int `yaml:"nodes"`
		HoldEvery *int `yaml:"hold_every"`
	} `yaml:"arena"`
}

func merge(base *Scenario, loaded *fileScenario) {
	if v := loaded.Registry.Readers; v != nil {
		base.Registry.Readers = *v
	}
	if v := loaded.Registry.Writers; v != nil {
		base.Registry.Writers = *v
	}
	if v := loaded.Registry.Ops; v != nil {
		base.Registry.Ops = *v
	}
	if v := loaded.Arena.Frames; v != nil {
		base.Arena.Frames = *v
	}
	if v := loaded.Arena.Nodes; v != nil {
		base.Arena.Nodes = *v
	}
	if v := loaded.Arena.HoldEvery; v != nil {
		base.Arena.HoldEvery = *v
	}
}

func (s *Scenario) validate() error {
	if s.Registry.Readers < 1 {
		return fmt.Errorf("registry.readers must be positive, got %d", s.Registry.Readers)
	}
	if s.Registry.Writers < 1 {
		return fmt.Errorf("registry.writers must be positive, got %d", s.Registry.Writers)
	}
	if s.Registry.Ops < 1 {
		return fmt.Errorf("registry.ops must be positive, got %d", s.Registry.Ops)
	}
	if s.Arena.Frames < 1 {
		return fmt.Errorf("arena.frames must be positive, got %d", s.Arena.Frames)
	}
	if s.Arena.Nodes < 1 {
		return fmt.Errorf("arena.nodes must be positive, got %d", s.Arena.Nodes)
	}
	if s.Arena.HoldEvery < 0 {
		return fmt.Errorf("arena.hold_every must not be negative, got %d", s.Arena.HoldEvery)
	}
	return nil
}
