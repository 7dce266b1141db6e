package stress

import (
	"testing"

	"github.com/nextcore/sable/cmd/sable/internal/scenario"
)

func TestRunRegistrySmall(t *testing.T) {
	result, err := RunRegistry(scenario.RegistryScenario{
		Readers: 4,
		Writers: 2,
		Ops:     2000,
	})
	if err != nil {
		t.Fatalf("RunRegistry() error = %v", err)
	}
	if result.Upgrades != 4*2000 {
		t.Errorf("Upgrades = %d, want %d", result.Upgrades, 4*2000)
	}
	if result.Clones != 2*2000 {
		t.Errorf("Clones = %d, want %d", result.Clones, 2*2000)
	}
	// One shared slot for the whole run; writers recycle nothing else.
	if result.TableLen != 1 {
		t.Errorf("TableLen = %d, want 1", result.TableLen)
	}
	if result.LiveCount != 0 {
		t.Errorf("LiveCount = %d, want 0", result.LiveCount)
	}
}

func TestRunArenaSmall(t *testing.T) {
	result, err := RunArena(scenario.ArenaScenario{
		Frames:    50,
		Nodes:     16,
		HoldEvery: 8,
	})
	if err != nil {
		t.Fatalf("RunArena() error = %v", err)
	}
	if result.FramesBuilt != 50 {
		t.Errorf("FramesBuilt = %d, want 50", result.FramesBuilt)
	}
	// Held frames are released three frames late, so some resets must have
	// been deferred.
	if result.ResetsDeferred == 0 {
		t.Error("ResetsDeferred = 0, want deferred resets with holders active")
	}
	if result.PeakBytes == 0 {
		t.Error("PeakBytes = 0, want nonzero")
	}
}

func TestRunArenaNoHolders(t *testing.T) {
	result, err := RunArena(scenario.ArenaScenario{
		Frames:    20,
		Nodes:     8,
		HoldEvery: 0,
	})
	if err != nil {
		t.Fatalf("RunArena() error = %v", err)
	}
	if result.ResetsDeferred != 0 {
		t.Errorf("ResetsDeferred = %d, want 0 without holders", result.ResetsDeferred)
	}
}
