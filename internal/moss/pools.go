package moss

import "github.com/san-kum/carbonsim/internal/flow"

// Moss pool indices. Feather moss and sphagnum each carry a live, fast and
// slow compartment.
const (
	PoolInput = iota
	PoolFeatherLive
	PoolSphagnumLive
	PoolFeatherFast
	PoolSphagnumFast
	PoolFeatherSlow
	PoolSphagnumSlow
	PoolCO2

	NPools
)

var poolNames = []string{
	"Input",
	"FeatherMossLive",
	"SphagnumMossLive",
	"FeatherMossFast",
	"SphagnumMossFast",
	"FeatherMossSlow",
	"SphagnumMossSlow",
	"CO2",
}

var livePools = []int{PoolFeatherLive, PoolSphagnumLive}

var domPools = []int{
	PoolFeatherFast, PoolSphagnumFast, PoolFeatherSlow, PoolSphagnumSlow,
}

// NewLayout builds the moss pool layout with its flux indicators. The annual
// dynamics run as one operation, so the indicators discriminate by pool
// membership rather than by operation.
func NewLayout() (*flow.Layout, error) {
	return flow.NewLayout(poolNames, []flow.Indicator{
		{
			Name:    "MossNPP",
			Process: flow.ProcessAnnual,
			Sources: []int{PoolInput},
			Sinks:   livePools,
		},
		{
			Name:    "MossLitterfall",
			Process: flow.ProcessAnnual,
			Sources: livePools,
			Sinks:   []int{PoolFeatherFast, PoolSphagnumFast},
		},
		{
			Name:    "MossHumification",
			Process: flow.ProcessAnnual,
			Sources: []int{PoolFeatherFast, PoolSphagnumFast},
			Sinks:   []int{PoolFeatherSlow, PoolSphagnumSlow},
		},
		{
			Name:    "MossEmissions",
			Process: flow.ProcessAnnual,
			Sources: domPools,
			Sinks:   []int{PoolCO2},
		},
		{
			Name:    "MossDisturbanceEmissions",
			Process: flow.ProcessDisturbance,
			Sources: append(append([]int{}, livePools...), domPools...),
			Sinks:   []int{PoolCO2},
		},
	})
}
