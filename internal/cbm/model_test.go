package cbm

import (
	"testing"

	"github.com/san-kum/carbonsim/internal/compute"
	"github.com/san-kum/carbonsim/internal/flow"
	"github.com/san-kum/carbonsim/internal/sim"
)

func TestLayout(t *testing.T) {
	layout, err := NewLayout()
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if layout.NPools() != NPools {
		t.Errorf("expected %d pools, got %d", NPools, layout.NPools())
	}
	if layout.NFlux() != 8 {
		t.Errorf("expected 8 flux indicators, got %d", layout.NFlux())
	}

	if got := layout.Routes(flow.ProcessGrowth, flow.PoolInput, PoolMerch); len(got) == 0 {
		t.Error("expected growth from Input to Merch to feed NPP")
	}
	// disturbed biomass landing in DOM counts once, not as an emission
	routes := layout.Routes(flow.ProcessDisturbance, PoolMerch, PoolMediumSoil)
	if len(routes) != 1 {
		t.Errorf("expected one route for disturbed merch to soil, got %d", len(routes))
	}
}

func TestScheduleBracketsGrowth(t *testing.T) {
	count := 0
	for _, name := range Schedule {
		if name == "growth" {
			count++
		}
	}
	if count != 2 {
		t.Errorf("expected growth scheduled twice, got %d", count)
	}
}

// Full model smoke test: one stand spins up and takes a disturbed step
// without losing mass.
func TestModelRoundTrip(t *testing.T) {
	b := testBuilder(t)
	m, err := New(b, compute.NewSerial())
	if err != nil {
		t.Fatalf("model: %v", err)
	}

	inv := &sim.Inventory{
		N:                   1,
		Age:                 []int{4},
		HistoricDisturbance: []int{1},
		LastPassDisturbance: []int{1},
		MeanAnnualTemp:      []float64{10},
		HistoricMeanTemp:    []float64{10},
		LandClass:           []int{0},
		Delay:               []int{0},
	}
	result, err := m.Spinup(inv, &sim.SpinupParams{
		ReturnInterval: []int{5},
		MaxRotations:   []int{10},
		MaxIterations:  sim.DefaultMaxIterations,
	})
	if err != nil {
		t.Fatalf("spinup: %v", err)
	}
	if len(result.NotConverged) != 0 {
		t.Errorf("expected convergence, got stands %v", result.NotConverged)
	}
	// spinup ends on the last-pass wildfire, which clears merch, but the
	// humified carbon it built up over the rotations survives
	if result.Pools.Row(0)[PoolAGSlow] <= 0 {
		t.Error("expected slow carbon after spinup")
	}

	flux := flow.NewFlux(1, m.Layout().NFlux())
	quiet := &sim.StepParams{
		DisturbanceType: []int{0},
		TransitionRule:  []int{0},
		MeanAnnualTemp:  []float64{10},
	}
	if err := m.Step(result.Pools, flux, result.State, quiet); err != nil {
		t.Fatalf("step: %v", err)
	}
	if result.Pools.Row(0)[PoolMerch] <= 0 {
		t.Error("expected merch carbon after a growth year")
	}

	burn := &sim.StepParams{
		DisturbanceType: []int{1},
		TransitionRule:  []int{0},
		MeanAnnualTemp:  []float64{10},
	}
	if err := m.Step(result.Pools, flux, result.State, burn); err != nil {
		t.Fatalf("step: %v", err)
	}

	names := m.Layout().FluxNames()
	byName := make(map[string]float64, len(names))
	for i, name := range names {
		byName[name] = flux.Row(0)[i]
	}
	if byName["NPP"] <= 0 {
		t.Error("expected positive NPP")
	}
	if byName["DisturbanceEmissions"] <= 0 {
		t.Error("expected disturbance emissions")
	}
}
