package cbm

import (
	"github.com/san-kum/carbonsim/internal/compute"
	"github.com/san-kum/carbonsim/internal/sim"
)

// Schedule is the annual process order. Growth appears twice: the builder
// emits half-increment growth matrices so the two applications bracket the
// turnover and decay operations.
var Schedule = []string{
	"growth",
	"snag_turnover",
	"biomass_turnover",
	"growth",
	"dom_decay",
	"slow_decay",
	"slow_mixing",
}

// New wires a CBM builder into a simulation model on the given backend.
// A nil backend selects one automatically.
func New(b *Builder, backend compute.Backend) (*sim.Model, error) {
	layout, err := NewLayout()
	if err != nil {
		return nil, err
	}
	return sim.NewModel(sim.Definition{
		Layout:         layout,
		SlowPools:      []int{PoolAGSlow, PoolBGSlow},
		AnnualSchedule: Schedule,
	}, b, backend)
}
