package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/carbonsim/internal/flow"
)

func TestTotalCarbon(t *testing.T) {
	pools := flow.NewPools(2, 4)
	pools.Row(0)[1] = 2.0
	pools.Row(0)[2] = 3.0
	pools.Row(1)[1] = 1.0

	m := NewTotalCarbon("total", []int{1, 2})
	m.Observe(0, pools, nil)
	if m.Value() != 6.0 {
		t.Errorf("expected total 6.0, got %f", m.Value())
	}

	// latest observation wins, no accumulation
	m.Observe(1, pools, nil)
	if m.Value() != 6.0 {
		t.Errorf("expected total 6.0 after second observation, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestFluxTotal(t *testing.T) {
	flux := flow.NewFlux(2, 2)
	flux.Row(0)[0] = 0.5
	flux.Row(1)[0] = 0.25
	flux.Row(1)[1] = 9.0 // different indicator, ignored

	m := NewFluxTotal("npp", 0)
	m.Observe(1, nil, flux)
	m.Observe(2, nil, flux)
	if m.Value() != 1.5 {
		t.Errorf("expected accumulated 1.5, got %f", m.Value())
	}

	m.Observe(3, nil, nil)
	if m.Value() != 1.5 {
		t.Errorf("nil flux should not change the total, got %f", m.Value())
	}
}

func TestMassBalance(t *testing.T) {
	pools := flow.NewPools(1, 3)
	pools.Row(0)[1] = 10.0

	m := NewMassBalance("balance", []int{0})
	m.Observe(0, pools, nil)

	// a step adds 2.0 via growth and the pools reflect exactly that
	flux := flow.NewFlux(1, 1)
	flux.Row(0)[0] = 2.0
	pools.Row(0)[1] = 11.0
	pools.Row(0)[2] = 1.0
	m.Observe(1, pools, flux)
	if m.Value() > 1e-12 {
		t.Errorf("balanced step should have zero drift, got %g", m.Value())
	}

	// carbon appears from nowhere
	pools.Row(0)[2] = 6.0
	emptyFlux := flow.NewFlux(1, 1)
	m.Observe(2, pools, emptyFlux)
	want := 5.0 / 17.0
	if math.Abs(m.Value()-want) > 1e-12 {
		t.Errorf("expected drift %g, got %g", want, m.Value())
	}
}
