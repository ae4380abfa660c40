package metrics

import (
	"github.com/san-kum/carbonsim/internal/flow"
)

// Metric accumulates a scalar over a stepped simulation. Observe is called
// once per timestep with the post-step batches; flux may be nil when a
// metric is evaluated on spinup output.
type Metric interface {
	Name() string
	Observe(step int, pools *flow.Pools, flux *flow.Flux)
	Value() float64
	Reset()
}

// TotalCarbon tracks the batch-wide sum over a set of pools at the most
// recent observation.
type TotalCarbon struct {
	name  string
	pools []int
	total float64
}

func NewTotalCarbon(name string, pools []int) *TotalCarbon {
	return &TotalCarbon{name: name, pools: pools}
}

func (m *TotalCarbon) Name() string { return m.name }

func (m *TotalCarbon) Observe(step int, pools *flow.Pools, flux *flow.Flux) {
	var total float64
	for s := 0; s < pools.N; s++ {
		row := pools.Row(s)
		for _, p := range m.pools {
			total += row[p]
		}
	}
	m.total = total
}

func (m *TotalCarbon) Value() float64 { return m.total }

func (m *TotalCarbon) Reset() { m.total = 0 }

// FluxTotal accumulates one flux indicator over every observed step.
type FluxTotal struct {
	name      string
	indicator int
	sum       float64
}

func NewFluxTotal(name string, indicator int) *FluxTotal {
	return &FluxTotal{name: name, indicator: indicator}
}

func (m *FluxTotal) Name() string { return m.name }

func (m *FluxTotal) Observe(step int, pools *flow.Pools, flux *flow.Flux) {
	if flux == nil {
		return
	}
	for s := 0; s < flux.N; s++ {
		m.sum += flux.Row(s)[m.indicator]
	}
}

func (m *FluxTotal) Value() float64 { return m.sum }

func (m *FluxTotal) Reset() { m.sum = 0 }
