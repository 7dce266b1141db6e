// Package stress runs contention workloads against the ownership substrate.
package stress

import (
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nextcore/sable/cmd/sable/internal/scenario"
	"github.com/nextcore/sable/pkg/arena"
	"github.com/nextcore/sable/pkg/frame"
	"github.com/nextcore/sable/pkg/handle"
)

// payload is the shared widget state the workload upgrades into.
type payload struct {
	marker uint64
}

const markerValue = 0xA11CE

// RegistryResult summarizes a registry contention run.
type RegistryResult struct {
	Upgrades  uint64
	Misses    uint64
	BadReads  uint64
	Clones    uint64
	Elapsed   time.Duration
	TableLen  int
	LiveCount int
}

// OpsPerSecond returns total registry operations per second.
func (r RegistryResult) OpsPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	total := float64(r.Upgrades + r.Misses + r.Clones)
	return total / r.Elapsed.Seconds()
}

// RunRegistry drives the registry's worst-case contention pattern: reader
// goroutines repeatedly upgrading one shared weak handle while writer
// goroutines clone and release owning handles, all serializing on the
// registry lock. The run fails if bookkeeping does not return to quiescence
// exactly.
func RunRegistry(sc scenario.RegistryScenario) (RegistryResult, error) {
	reg := handle.NewRegistry()
	owner := handle.NewIn(reg, payload{marker: markerValue})
	weak := owner.Downgrade()

	var upgrades, misses, badReads, clones atomic.Uint64

	start := time.Now()
	var g errgroup.Group

	for range sc.Readers {
		g.Go(func() error {
			for range sc.Ops {
				u, ok := weak.Upgrade()
				if !ok {
					misses.Add(1)
					continue
				}
				if u.Get().marker != markerValue {
					badReads.Add(1)
				}
				upgrades.Add(1)
				u.Release()
			}
			return nil
		})
	}

	for range sc.Writers {
		g.Go(func() error {
			held := make([]*handle.Strong[payload], 0, 8)
			for i := range sc.Ops {
				held = append(held, owner.Clone())
				clones.Add(1)
				if i%8 == 7 {
					for _, h := range held {
						h.Release()
					}
					held = held[:0]
				}
			}
			for _, h := range held {
				h.Release()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return RegistryResult{}, err
	}
	elapsed := time.Since(start)

	result := RegistryResult{
		Upgrades: upgrades.Load(),
		Misses:   misses.Load(),
		BadReads: badReads.Load(),
		Clones:   clones.Load(),
		Elapsed:  elapsed,
		TableLen: reg.Len(),
	}

	// The owner stayed alive throughout, so no upgrade may have missed and
	// no read may have seen foreign data.
	if result.Misses != 0 {
		return result, fmt.Errorf("registry stress: %d upgrades missed while the owner was alive", result.Misses)
	}
	if result.BadReads != 0 {
		return result, fmt.Errorf("registry stress: %d reads saw a foreign payload", result.BadReads)
	}

	owner.Release()
	result.LiveCount = reg.LiveCount()
	if result.LiveCount != 0 {
		return result, fmt.Errorf("registry stress: %d slots still live at quiescence, want 0", result.LiveCount)
	}
	return result, nil
}

// treeNode is the per-frame tree shape for the arena workload.
type treeNode struct {
	id       int
	children arena.Seq[*treeNode]
}

// ArenaResult summarizes a frame-churn run.
type ArenaResult struct {
	FramesBuilt    uint64
	ResetsDeferred uint64
	PeakBytes      int
	Elapsed        time.Duration
}

// RunArena churns build passes through a frame owner. With HoldEvery > 0,
// every Nth frame is shared with a simulated renderer that releases it a few
// frames late, exercising the deferred-reset path.
func RunArena(sc scenario.ArenaScenario) (ArenaResult, error) {
	owner := frame.NewOwner[*treeNode]()

	type heldScope struct {
		scope   arena.Scope[*treeNode]
		release int // frame index at which the holder lets go
	}
	var held []heldScope

	start := time.Now()
	for i := range sc.Frames {
		// Simulated renderer catches up before the next pass.
		kept := held[:0]
		for _, h := range held {
			if h.release <= i {
				h.scope.Release()
			} else {
				kept = append(kept, h)
			}
		}
		held = kept

		_, err := owner.BuildFrame(func(a *arena.Arena) *treeNode {
			root := arena.New(a, treeNode{id: i})
			root.children = arena.NewSeqCap[*treeNode](a, sc.Nodes)
			for n := range sc.Nodes {
				root.children.Push(arena.New(a, treeNode{id: n}))
			}
			return root
		})
		if err != nil {
			return ArenaResult{}, fmt.Errorf("arena stress: frame %d: %w", i, err)
		}

		if sc.HoldEvery > 0 && i%sc.HoldEvery == 0 {
			if scope, ok := owner.Share(); ok {
				held = append(held, heldScope{scope: scope, release: i + 3})
			}
		}
	}
	for _, h := range held {
		h.scope.Release()
	}
	if err := owner.Retire(); err != nil {
		return ArenaResult{}, fmt.Errorf("arena stress: final retire: %w", err)
	}
	elapsed := time.Since(start)

	stats := owner.Stats()
	return ArenaResult{
		FramesBuilt:    stats.FramesBuilt,
		ResetsDeferred: stats.ResetsDeferred,
		PeakBytes:      owner.Arena().Peak(),
		Elapsed:        elapsed,
	}, nil
}
