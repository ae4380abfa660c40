package moss

import (
	"fmt"

	"github.com/san-kum/carbonsim/internal/flow"
	"github.com/san-kum/carbonsim/internal/sim"
)

// Builder assembles moss operations. The overstory merchantable volume
// drives moss growth, so the builder carries each stand's volume curve as a
// plain age-indexed series.
type Builder struct {
	params Params

	// volume[s][age], clamped at both ends
	volume [][]float64
	maxVol []float64

	disturbances map[int][]flow.Coord
}

func NewBuilder(params Params, volume [][]float64, disturbances map[int][]flow.Coord) (*Builder, error) {
	if len(volume) == 0 {
		return nil, fmt.Errorf("moss: no volume curves")
	}
	maxVol := make([]float64, len(volume))
	for s, curve := range volume {
		if len(curve) == 0 {
			return nil, fmt.Errorf("moss: stand %d has an empty volume curve", s)
		}
		for _, v := range curve {
			if v > maxVol[s] {
				maxVol[s] = v
			}
		}
	}
	return &Builder{
		params:       params,
		volume:       volume,
		maxVol:       maxVol,
		disturbances: disturbances,
	}, nil
}

func (b *Builder) volumeAt(stand, age int) float64 {
	curve := b.volume[stand]
	if age < 0 {
		age = 0
	}
	if age >= len(curve) {
		age = len(curve) - 1
	}
	return curve[age]
}

// AnnualOps builds the single combined annual operation: growth scaled by
// ground cover, full annual litterfall of the live pools, and Q10 decay of
// the dead pools.
func (b *Builder) AnnualOps(ctx sim.BuildContext) (map[string]*flow.Operation, error) {
	if len(ctx.Age) != len(b.volume) {
		return nil, fmt.Errorf("moss: context for %d stands, builder has %d: %w",
			len(ctx.Age), len(b.volume), flow.ErrShapeMismatch)
	}
	p := b.params
	matrices := make([][]flow.Coord, len(b.volume))
	for s := range b.volume {
		age := ctx.Age[s]
		temp := ctx.MeanAnnualTemp[s]
		openness := p.Openness(b.volumeAt(s, age))

		mult := 1.0
		if ctx.GrowthMultiplier != nil {
			mult = ctx.GrowthMultiplier[s]
		}
		nppFeather := p.FeatherNPP(openness) * p.FeatherCover(openness, age) / 100.0 * mult
		nppSphagnum := p.SphagnumNPP(openness) * p.SphagnumCover(openness, age) / 100.0 * mult

		kff := p.AppliedRate(p.KFeatherFast, temp)
		ksf := p.AppliedRate(p.KSphagnumFast, temp)
		kfs := p.AppliedRate(p.KFeatherSlow, temp)
		kss := p.AppliedRate(p.SphagnumSlowBase(b.maxVol[s]), temp)

		matrices[s] = []flow.Coord{
			{Src: PoolInput, Snk: PoolFeatherLive, Value: nppFeather},
			{Src: PoolInput, Snk: PoolSphagnumLive, Value: nppSphagnum},

			// live moss turns over completely each year
			{Src: PoolFeatherLive, Snk: PoolFeatherFast, Value: 1},
			{Src: PoolSphagnumLive, Snk: PoolSphagnumFast, Value: 1},

			{Src: PoolFeatherFast, Snk: PoolFeatherSlow, Value: kff * p.FastToSlow},
			{Src: PoolFeatherFast, Snk: PoolCO2, Value: kff * (1 - p.FastToSlow)},
			{Src: PoolSphagnumFast, Snk: PoolSphagnumSlow, Value: ksf * p.FastToSlow},
			{Src: PoolSphagnumFast, Snk: PoolCO2, Value: ksf * (1 - p.FastToSlow)},

			{Src: PoolFeatherSlow, Snk: PoolCO2, Value: kfs},
			{Src: PoolSphagnumSlow, Snk: PoolCO2, Value: kss},
		}
	}
	op, err := flow.NewPerStandOperation("annual_process", flow.ProcessAnnual, NPools, matrices)
	if err != nil {
		return nil, err
	}
	return map[string]*flow.Operation{"annual_process": op}, nil
}

// DisturbanceOp resolves per-stand disturbance types, 0 meaning none.
func (b *Builder) DisturbanceOp(types []int) (*flow.Operation, error) {
	matrices := [][]flow.Coord{nil}
	slot := map[int]int{0: 0}
	index := make([]int, len(types))
	for s, dt := range types {
		ix, ok := slot[dt]
		if !ok {
			coords, found := b.disturbances[dt]
			if !found {
				return nil, fmt.Errorf("%w: %d", flow.ErrUnknownDisturbanceType, dt)
			}
			ix = len(matrices)
			matrices = append(matrices, coords)
			slot[dt] = ix
		}
		index[s] = ix
	}
	return flow.NewIndexedOperation("disturbance", flow.ProcessDisturbance, NPools,
		matrices, index)
}
