package cmd

import (
	"fmt"
	"strings"

	"github.com/nextcore/sable/cmd/sable/internal/scenario"
	"github.com/nextcore/sable/cmd/sable/internal/stress"
	"github.com/nextcore/sable/pkg/errors"
)

func init() {
	RegisterCommand(&Command{
		Name:  "stress",
		Short: "Run contention workloads against the substrate",
		Long: `Run the substrate's contention workloads and report results.

Two workloads run in sequence:
  registry   Reader goroutines repeatedly upgrade one shared weak handle
             while writers churn clones of the owning handle. Every
             operation serializes on the registry's single lock; this is
             the substrate's known throughput ceiling.
  arena      Frame-churn: build passes allocate a tree in the scoped
             arena while a simulated renderer occasionally holds a frame
             past its replacement, deferring reclamation.

Both workloads verify bookkeeping at quiescence and fail loudly on any
mismatch.

Flags:
  -c, --config FILE   Load a scenario file (yaml); omitted fields use
                      the built-in defaults`,
		Usage: "sable stress [-c scenario.yaml]",
		Run:   runStress,
	})
}

func runStress(args []string) error {
	path := ""
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-c", "--config":
			if i+1 >= len(args) {
				return fmt.Errorf("%s requires a file path", arg)
			}
			path = args[i+1]
			i++
		default:
			if strings.HasPrefix(arg, "--config=") {
				path = strings.TrimPrefix(arg, "--config=")
				continue
			}
			return fmt.Errorf("unknown flag %q", arg)
		}
	}

	sc, err := scenario.LoadOptional(path)
	if err != nil {
		errors.Report(&errors.SableError{Op: "scenario.Load", Kind: errors.KindConfig, Err: err})
		return err
	}

	fmt.Printf("registry: %d readers, %d writers, %d ops each\n",
		sc.Registry.Readers, sc.Registry.Writers, sc.Registry.Ops)
	regResult, err := stress.RunRegistry(sc.Registry)
	if err != nil {
		errors.Report(&errors.SableError{Op: "stress.RunRegistry", Kind: errors.KindRegistry, Err: err})
		return err
	}
	fmt.Printf("  upgrades     %12d\n", regResult.Upgrades)
	fmt.Printf("  clones       %12d\n", regResult.Clones)
	fmt.Printf("  table size   %12d\n", regResult.TableLen)
	fmt.Printf("  elapsed      %12s\n", regResult.Elapsed)
	fmt.Printf("  throughput   %12.0f ops/s\n", regResult.OpsPerSecond())
	fmt.Println()

	fmt.Printf("arena: %d frames, %d nodes each, hold every %d\n",
		sc.Arena.Frames, sc.Arena.Nodes, sc.Arena.HoldEvery)
	arenaResult, err := stress.RunArena(sc.Arena)
	if err != nil {
		errors.Report(&errors.SableError{Op: "stress.RunArena", Kind: errors.KindArena, Err: err})
		return err
	}
	fmt.Printf("  frames built   %10d\n", arenaResult.FramesBuilt)
	fmt.Printf("  resets deferred%10d\n", arenaResult.ResetsDeferred)
	fmt.Printf("  peak bytes     %10d\n", arenaResult.PeakBytes)
	fmt.Printf("  elapsed        %10s\n", arenaResult.Elapsed)

	return nil
}
