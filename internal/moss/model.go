// Package moss models feather moss and sphagnum carbon on the forest floor.
// It reuses the generic flow engine with its own pool layout: the same
// spinup and stepping controllers run unchanged against the moss builder.
package moss

import (
	"github.com/san-kum/carbonsim/internal/compute"
	"github.com/san-kum/carbonsim/internal/sim"
)

// New wires a moss builder into a simulation model. The slow pools drive
// spinup convergence just as they do for the mineral-soil model.
func New(b *Builder, backend compute.Backend) (*sim.Model, error) {
	layout, err := NewLayout()
	if err != nil {
		return nil, err
	}
	return sim.NewModel(sim.Definition{
		Layout:         layout,
		SlowPools:      []int{PoolFeatherSlow, PoolSphagnumSlow},
		AnnualSchedule: []string{"annual_process"},
	}, b, backend)
}

// DefaultParams are the published moss coefficient values.
func DefaultParams() Params {
	return Params{
		OpennessA: -1.3056,
		OpennessB: 2.9282,

		FeatherCoverC:  -0.9194,
		FeatherCoverD:  94.4064,
		SphagnumCoverE: -0.0866,
		SphagnumCoverF: 6.5228,

		FeatherNPPG:  0.2932,
		FeatherNPPH:  0.1355,
		SphagnumNPPI: -0.0187,
		SphagnumNPPJ: 0.9907,
		SphagnumNPPL: 2.3171,

		SlowBaseM: -0.0007,
		SlowBaseN: 0.0083,

		Q10:  2.0,
		TRef: 10.0,

		KFeatherFast:  0.2,
		KSphagnumFast: 0.08,
		KFeatherSlow:  0.012,

		FastToSlow: 0.15,
	}
}
