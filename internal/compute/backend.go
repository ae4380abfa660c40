package compute

import (
	"fmt"
	"runtime"

	"github.com/san-kum/carbonsim/internal/flow"
)

// Backend applies ordered operation sets to a pool batch. Operations apply
// strictly sequentially: operation k+1 consumes the pool state operation k
// produced for every stand. Implementations must validate the whole set
// before mutating anything, so a failed call leaves pools and flux untouched.
type Backend interface {
	Name() string
	Available() bool

	// Apply updates pools in place. Stands with enabled=false pass through
	// bit-identical. A nil mask enables every stand.
	Apply(ops []*flow.Operation, pools *flow.Pools, enabled []bool) error

	// ApplyWithFlux performs the same pool update and additionally
	// accumulates categorized movement into flux per the layout's
	// indicators. Flux is never reset here.
	ApplyWithFlux(ops []*flow.Operation, layout *flow.Layout, pools *flow.Pools, flux *flow.Flux, enabled []bool) error

	Cleanup()
}

// New returns the backend with the given name.
func New(name string) (Backend, error) {
	switch name {
	case "serial":
		return NewSerial(), nil
	case "parallel":
		return NewParallel(0), nil
	case "auto", "":
		return Auto(), nil
	default:
		return nil, fmt.Errorf("unknown backend: %s", name)
	}
}

// Auto selects the parallel backend on multicore hosts, serial otherwise.
func Auto() Backend {
	if runtime.NumCPU() > 1 {
		return NewParallel(0)
	}
	return NewSerial()
}

func validate(ops []*flow.Operation, pools *flow.Pools, enabled []bool) error {
	for _, op := range ops {
		if err := op.Validate(pools.N, pools.P); err != nil {
			return fmt.Errorf("%w: %v", flow.ErrOperationFailed, err)
		}
	}
	if enabled != nil && len(enabled) != pools.N {
		return fmt.Errorf("%w: enabled mask length %d, batch has %d stands",
			flow.ErrShapeMismatch, len(enabled), pools.N)
	}
	return nil
}

func validateFlux(layout *flow.Layout, pools *flow.Pools, flux *flow.Flux) error {
	if layout.NPools() != pools.P {
		return fmt.Errorf("%w: layout has %d pools, batch has %d",
			flow.ErrShapeMismatch, layout.NPools(), pools.P)
	}
	if flux.N != pools.N || flux.F != layout.NFlux() {
		return fmt.Errorf("%w: flux is %dx%d, want %dx%d",
			flow.ErrShapeMismatch, flux.N, flux.F, pools.N, layout.NFlux())
	}
	return nil
}

// routes maps each matrix entry of an operation to the flux indicators that
// record it, computed once per distinct matrix per call.
func routes(layout *flow.Layout, op *flow.Operation) [][][]int {
	mats := op.Matrices()
	out := make([][][]int, len(mats))
	for m, entries := range mats {
		r := make([][]int, len(entries))
		for e, c := range entries {
			r[e] = layout.Routes(op.Process, c.Src, c.Snk)
		}
		out[m] = r
	}
	return out
}

// applyStand advances one stand through one operation, using scratch as the
// destination buffer.
func applyStand(entries []flow.Coord, row, scratch []float64) {
	for i := range scratch {
		scratch[i] = 0
	}
	for _, c := range entries {
		scratch[c.Snk] += row[c.Src] * c.Value
	}
	copy(row, scratch)
}

// applyStandFlux is applyStand plus indicator accumulation from the pre-op
// pool values.
func applyStandFlux(entries []flow.Coord, entryRoutes [][]int, row, scratch, fluxRow []float64) {
	for i := range scratch {
		scratch[i] = 0
	}
	for e, c := range entries {
		moved := row[c.Src] * c.Value
		scratch[c.Snk] += moved
		for _, f := range entryRoutes[e] {
			fluxRow[f] += moved
		}
	}
	copy(row, scratch)
}
