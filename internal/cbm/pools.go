package cbm

import "github.com/san-kum/carbonsim/internal/flow"

// Pool indices for the CBM pool vector. Input is the reserved constant
// source column.
const (
	PoolInput = iota
	PoolMerch
	PoolFoliage
	PoolOther
	PoolFineRoots
	PoolCoarseRoots
	PoolAGVeryFast
	PoolBGVeryFast
	PoolAGFast
	PoolBGFast
	PoolMediumSoil
	PoolAGSlow
	PoolBGSlow
	PoolStemSnag
	PoolBranchSnag
	PoolCO2

	NPools
)

var poolNames = []string{
	"Input",
	"Merch",
	"Foliage",
	"Other",
	"FineRoots",
	"CoarseRoots",
	"AGVeryFast",
	"BGVeryFast",
	"AGFast",
	"BGFast",
	"MediumSoil",
	"AGSlow",
	"BGSlow",
	"StemSnag",
	"BranchSnag",
	"CO2",
}

var biomassPools = []int{
	PoolMerch, PoolFoliage, PoolOther, PoolFineRoots, PoolCoarseRoots,
}

var domPools = []int{
	PoolAGVeryFast, PoolBGVeryFast, PoolAGFast, PoolBGFast,
	PoolMediumSoil, PoolStemSnag, PoolBranchSnag,
}

// slowTarget maps each decaying DOM pool to the slow pool its humified
// fraction feeds.
var slowTarget = map[int]int{
	PoolAGVeryFast: PoolAGSlow,
	PoolBGVeryFast: PoolBGSlow,
	PoolAGFast:     PoolAGSlow,
	PoolBGFast:     PoolBGSlow,
	PoolMediumSoil: PoolAGSlow,
	PoolStemSnag:   PoolAGSlow,
	PoolBranchSnag: PoolAGSlow,
}

// NewLayout builds the CBM pool/flux layout: net growth, turnover transfers,
// decay emissions and disturbance emissions, partitioned so that one
// timestep's flux calls never double count.
func NewLayout() (*flow.Layout, error) {
	return flow.NewLayout(poolNames, []flow.Indicator{
		{
			Name:    "NPP",
			Process: flow.ProcessGrowth,
			Sources: []int{PoolInput},
			Sinks:   biomassPools,
		},
		{
			Name:    "BiomassToDOM",
			Process: flow.ProcessBiomassTurnover,
			Sources: biomassPools,
			Sinks:   domPools,
		},
		{
			Name:    "SnagToDOM",
			Process: flow.ProcessSnagTurnover,
			Sources: []int{PoolStemSnag, PoolBranchSnag},
			Sinks:   []int{PoolMediumSoil, PoolAGFast},
		},
		{
			Name:    "DOMEmissions",
			Process: flow.ProcessDOMDecay,
			Sources: domPools,
			Sinks:   []int{PoolCO2},
		},
		{
			Name:    "SlowEmissions",
			Process: flow.ProcessSlowDecay,
			Sources: []int{PoolAGSlow, PoolBGSlow},
			Sinks:   []int{PoolCO2},
		},
		{
			Name:    "SlowMixing",
			Process: flow.ProcessSlowMixing,
			Sources: []int{PoolAGSlow},
			Sinks:   []int{PoolBGSlow},
		},
		{
			Name:    "DisturbanceEmissions",
			Process: flow.ProcessDisturbance,
			Sources: append(append([]int{}, biomassPools...), domPools...),
			Sinks:   []int{PoolCO2},
		},
		{
			Name:    "DisturbanceToDOM",
			Process: flow.ProcessDisturbance,
			Sources: biomassPools,
			Sinks:   domPools,
		},
	})
}
