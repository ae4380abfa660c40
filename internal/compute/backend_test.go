package compute

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/san-kum/carbonsim/internal/flow"
)

func mustOp(t *testing.T, name string, proc flow.Process, nPools int, coords []flow.Coord) *flow.Operation {
	t.Helper()
	op, err := flow.NewOperation(name, proc, nPools, coords)
	if err != nil {
		t.Fatalf("op %s: %v", name, err)
	}
	return op
}

// A self-loop on the Input pool leaves the batch untouched: Input is reset
// to one before the operation and retained entirely by it.
func TestInputSelfLoop(t *testing.T) {
	op := mustOp(t, "idle", flow.ProcessNone, 3,
		[]flow.Coord{{Src: flow.PoolInput, Snk: flow.PoolInput, Value: 1.0}})

	pools := flow.NewPools(1, 3)
	pools.Row(0)[1] = 2.5
	pools.Row(0)[2] = 0.75

	if err := NewSerial().Apply([]*flow.Operation{op}, pools, nil); err != nil {
		t.Fatalf("apply: %v", err)
	}
	want := []float64{1.0, 2.5, 0.75}
	for i, v := range want {
		if pools.Row(0)[i] != v {
			t.Errorf("pool %d: expected %f, got %f", i, v, pools.Row(0)[i])
		}
	}
}

// Half of pool A flows to pool B; A keeps the rest.
func TestProportionalFlow(t *testing.T) {
	op := mustOp(t, "half", flow.ProcessNone, 3,
		[]flow.Coord{{Src: 1, Snk: 2, Value: 0.5}})

	pools := flow.NewPools(1, 3)
	pools.Row(0)[1] = 1.0

	if err := NewSerial().Apply([]*flow.Operation{op}, pools, nil); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if pools.Row(0)[1] != 0.5 || pools.Row(0)[2] != 0.5 {
		t.Errorf("expected [0.5 0.5], got [%f %f]", pools.Row(0)[1], pools.Row(0)[2])
	}
}

// Operations compose sequentially: the second consumes what the first
// produced.
func TestSequentialComposition(t *testing.T) {
	grow := mustOp(t, "grow", flow.ProcessGrowth, 3,
		[]flow.Coord{{Src: flow.PoolInput, Snk: 1, Value: 2.0}})
	decay := mustOp(t, "decay", flow.ProcessDOMDecay, 3,
		[]flow.Coord{{Src: 1, Snk: 2, Value: 0.5}})

	pools := flow.NewPools(1, 3)
	if err := NewSerial().Apply([]*flow.Operation{grow, decay}, pools, nil); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if pools.Row(0)[1] != 1.0 || pools.Row(0)[2] != 1.0 {
		t.Errorf("expected [1 1] after grow then decay, got [%f %f]",
			pools.Row(0)[1], pools.Row(0)[2])
	}
}

func TestDisabledStandsBitIdentical(t *testing.T) {
	op := mustOp(t, "grow", flow.ProcessGrowth, 3,
		[]flow.Coord{{Src: flow.PoolInput, Snk: 1, Value: 2.0}})

	pools := flow.NewPools(2, 3)
	pools.Row(1)[flow.PoolInput] = 0.123
	pools.Row(1)[1] = 4.56
	before := append([]float64(nil), pools.Row(1)...)

	if err := NewSerial().Apply([]*flow.Operation{op}, pools, []bool{true, false}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	for i, v := range before {
		if pools.Row(1)[i] != v {
			t.Errorf("disabled stand pool %d changed: %f -> %f", i, v, pools.Row(1)[i])
		}
	}
	if pools.Row(0)[1] != 2.0 {
		t.Errorf("enabled stand should have grown, got %f", pools.Row(0)[1])
	}
}

func TestNoPartialApplication(t *testing.T) {
	good := mustOp(t, "grow", flow.ProcessGrowth, 3,
		[]flow.Coord{{Src: flow.PoolInput, Snk: 1, Value: 2.0}})
	wrongShape := mustOp(t, "bad", flow.ProcessNone, 5, nil)

	pools := flow.NewPools(1, 3)
	pools.Row(0)[1] = 7.0
	before := append([]float64(nil), pools.Row(0)...)

	err := NewSerial().Apply([]*flow.Operation{good, wrongShape}, pools, nil)
	if !errors.Is(err, flow.ErrOperationFailed) {
		t.Fatalf("expected ErrOperationFailed, got %v", err)
	}
	for i, v := range before {
		if pools.Row(0)[i] != v {
			t.Errorf("pool %d mutated despite failed validation", i)
		}
	}
}

func fluxLayout(t *testing.T) *flow.Layout {
	t.Helper()
	l, err := flow.NewLayout([]string{"Input", "Live", "Dead", "CO2"}, []flow.Indicator{
		{Name: "NPP", Process: flow.ProcessGrowth, Sources: []int{0}, Sinks: []int{1}},
		{Name: "Turnover", Process: flow.ProcessBiomassTurnover, Sources: []int{1}, Sinks: []int{2}},
		{Name: "Emissions", Process: flow.ProcessDOMDecay, Sources: []int{2}, Sinks: []int{3}},
	})
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	return l
}

// Flux is computed from pre-operation pool values and only for movements
// whose process and endpoints match an indicator.
func TestFluxAccumulation(t *testing.T) {
	layout := fluxLayout(t)
	grow := mustOp(t, "grow", flow.ProcessGrowth, 4,
		[]flow.Coord{{Src: flow.PoolInput, Snk: 1, Value: 3.0}})
	turn := mustOp(t, "turnover", flow.ProcessBiomassTurnover, 4,
		[]flow.Coord{{Src: 1, Snk: 2, Value: 0.5}})

	pools := flow.NewPools(1, 4)
	pools.Row(0)[1] = 1.0
	flux := flow.NewFlux(1, layout.NFlux())

	err := NewSerial().ApplyWithFlux([]*flow.Operation{grow, turn}, layout, pools, flux, nil)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if flux.Row(0)[0] != 3.0 {
		t.Errorf("expected NPP 3.0, got %f", flux.Row(0)[0])
	}
	// turnover saw Live = 4.0 pre-op
	if flux.Row(0)[1] != 2.0 {
		t.Errorf("expected turnover 2.0, got %f", flux.Row(0)[1])
	}
	if flux.Row(0)[2] != 0 {
		t.Errorf("untouched indicator should stay zero, got %f", flux.Row(0)[2])
	}
}

// Flux accumulates across calls; the engine never resets it.
func TestFluxNeverReset(t *testing.T) {
	layout := fluxLayout(t)
	grow := mustOp(t, "grow", flow.ProcessGrowth, 4,
		[]flow.Coord{{Src: flow.PoolInput, Snk: 1, Value: 1.0}})

	pools := flow.NewPools(1, 4)
	flux := flow.NewFlux(1, layout.NFlux())

	be := NewSerial()
	for i := 0; i < 3; i++ {
		if err := be.ApplyWithFlux([]*flow.Operation{grow}, layout, pools, flux, nil); err != nil {
			t.Fatalf("apply: %v", err)
		}
	}
	if flux.Row(0)[0] != 3.0 {
		t.Errorf("expected accumulated NPP 3.0, got %f", flux.Row(0)[0])
	}
}

func randomOps(t *testing.T, rng *rand.Rand, nStands, nPools, nOps int) []*flow.Operation {
	t.Helper()
	ops := make([]*flow.Operation, nOps)
	for i := range ops {
		matrices := make([][]flow.Coord, nStands)
		for s := range matrices {
			src := 1 + rng.Intn(nPools-1)
			snk := 1 + rng.Intn(nPools-1)
			matrices[s] = []flow.Coord{
				{Src: flow.PoolInput, Snk: src, Value: rng.Float64()},
				{Src: src, Snk: snk, Value: rng.Float64() * 0.9},
			}
		}
		op, err := flow.NewPerStandOperation("rand", flow.ProcessGrowth, nPools, matrices)
		if err != nil {
			t.Fatalf("op: %v", err)
		}
		ops[i] = op
	}
	return ops
}

func TestSerialParallelEquivalence(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const nStands, nPools = 500, 6

	ops := randomOps(t, rng, nStands, nPools, 4)
	enabled := make([]bool, nStands)
	for s := range enabled {
		enabled[s] = rng.Intn(4) != 0
	}

	serialPools := flow.NewPools(nStands, nPools)
	parallelPools := flow.NewPools(nStands, nPools)
	for s := 0; s < nStands; s++ {
		for p := 1; p < nPools; p++ {
			v := rng.Float64()
			serialPools.Row(s)[p] = v
			parallelPools.Row(s)[p] = v
		}
	}

	if err := NewSerial().Apply(ops, serialPools, enabled); err != nil {
		t.Fatalf("serial: %v", err)
	}
	if err := NewParallel(4).Apply(ops, parallelPools, enabled); err != nil {
		t.Fatalf("parallel: %v", err)
	}

	for s := 0; s < nStands; s++ {
		sr, pr := serialPools.Row(s), parallelPools.Row(s)
		for p := 0; p < nPools; p++ {
			if sr[p] != pr[p] {
				t.Fatalf("stand %d pool %d: serial %v, parallel %v", s, p, sr[p], pr[p])
			}
		}
	}
}

func TestSerialParallelFluxEquivalence(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	const nStands = 300

	layout := fluxLayout(t)
	ops := randomOps(t, rng, nStands, layout.NPools(), 3)

	serialPools := flow.NewPools(nStands, layout.NPools())
	parallelPools := serialPools.Clone()
	serialFlux := flow.NewFlux(nStands, layout.NFlux())
	parallelFlux := flow.NewFlux(nStands, layout.NFlux())

	if err := NewSerial().ApplyWithFlux(ops, layout, serialPools, serialFlux, nil); err != nil {
		t.Fatalf("serial: %v", err)
	}
	if err := NewParallel(3).ApplyWithFlux(ops, layout, parallelPools, parallelFlux, nil); err != nil {
		t.Fatalf("parallel: %v", err)
	}
	for s := 0; s < nStands; s++ {
		for f := 0; f < layout.NFlux(); f++ {
			if serialFlux.Row(s)[f] != parallelFlux.Row(s)[f] {
				t.Fatalf("stand %d flux %d differs", s, f)
			}
		}
	}
}

// Mass is conserved: a flow matrix only moves carbon between pools, so the
// non-Input total changes only by what growth injected.
func TestMassConservation(t *testing.T) {
	layout := fluxLayout(t)
	grow := mustOp(t, "grow", flow.ProcessGrowth, 4,
		[]flow.Coord{{Src: flow.PoolInput, Snk: 1, Value: 1.5}})
	turn := mustOp(t, "turnover", flow.ProcessBiomassTurnover, 4,
		[]flow.Coord{{Src: 1, Snk: 2, Value: 0.3}})
	decay := mustOp(t, "decay", flow.ProcessDOMDecay, 4,
		[]flow.Coord{{Src: 2, Snk: 3, Value: 0.1}})

	pools := flow.NewPools(1, 4)
	pools.Row(0)[1] = 10.0
	pools.Row(0)[2] = 5.0
	flux := flow.NewFlux(1, layout.NFlux())

	before := pools.Row(0)[1] + pools.Row(0)[2] + pools.Row(0)[3]
	err := NewSerial().ApplyWithFlux([]*flow.Operation{grow, turn, decay}, layout, pools, flux, nil)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	after := pools.Row(0)[1] + pools.Row(0)[2] + pools.Row(0)[3]
	npp := flux.Row(0)[0]

	if math.Abs((after-before)-npp) > 1e-12 {
		t.Errorf("mass not conserved: delta %f, npp %f", after-before, npp)
	}
}

func TestNew(t *testing.T) {
	for _, name := range []string{"serial", "parallel", "auto", ""} {
		be, err := New(name)
		if err != nil {
			t.Errorf("backend %q: %v", name, err)
		}
		if be == nil || !be.Available() {
			t.Errorf("backend %q not available", name)
		}
	}
	if _, err := New("gpu"); err == nil {
		t.Error("expected error for unknown backend")
	}
}
