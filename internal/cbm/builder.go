package cbm

import (
	"fmt"

	"github.com/san-kum/carbonsim/internal/flow"
	"github.com/san-kum/carbonsim/internal/sim"
)

// Builder assembles the annual process and disturbance operations for a
// batch of stands from the parameter tables. It also carries the per-stand
// classifier sets so transition rules can remap them after a disturbance.
type Builder struct {
	params      *Params
	curves      *CurveSet
	classifiers *Classifiers
	transitions *TransitionRules

	standSets   [][]string
	spatialUnit []int

	// spatial unit id -> slot in the turnover matrix list
	spuSlot map[int]int
	spuList []int
}

func NewBuilder(params *Params, curves *CurveSet, classifiers *Classifiers,
	transitions *TransitionRules, standSets [][]string, spatialUnit []int) (*Builder, error) {

	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(standSets) != len(spatialUnit) {
		return nil, fmt.Errorf("cbm: %d classifier sets, %d spatial units: %w",
			len(standSets), len(spatialUnit), flow.ErrShapeMismatch)
	}
	b := &Builder{
		params:      params,
		curves:      curves,
		classifiers: classifiers,
		transitions: transitions,
		standSets:   make([][]string, len(standSets)),
		spatialUnit: spatialUnit,
		spuSlot:     make(map[int]int),
	}
	for i, set := range standSets {
		if err := classifiers.CheckSet(set); err != nil {
			return nil, fmt.Errorf("stand %d: %w", i, err)
		}
		if _, err := curves.Get(set); err != nil {
			return nil, fmt.Errorf("stand %d: %w", i, err)
		}
		b.standSets[i] = append([]string(nil), set...)
	}
	for i, spu := range spatialUnit {
		if _, ok := params.Turnover[spu]; !ok {
			return nil, fmt.Errorf("cbm: stand %d: no turnover parameters for spatial unit %d", i, spu)
		}
		if _, seen := b.spuSlot[spu]; !seen {
			b.spuSlot[spu] = len(b.spuList)
			b.spuList = append(b.spuList, spu)
		}
	}
	return b, nil
}

// ClassifierSet returns the current classifier values of one stand.
func (b *Builder) ClassifierSet(stand int) []string {
	return append([]string(nil), b.standSets[stand]...)
}

// AnnualOps builds the annual process operations for the current batch
// context. The growth operation carries half the curve increment since the
// schedule applies it twice per step.
func (b *Builder) AnnualOps(ctx sim.BuildContext) (map[string]*flow.Operation, error) {
	growth, err := b.growthOp(ctx)
	if err != nil {
		return nil, err
	}
	snag, err := b.snagTurnoverOp()
	if err != nil {
		return nil, err
	}
	biomass, err := b.biomassTurnoverOp()
	if err != nil {
		return nil, err
	}
	domDecay, err := b.domDecayOp(ctx)
	if err != nil {
		return nil, err
	}
	slowDecay, err := b.slowDecayOp(ctx)
	if err != nil {
		return nil, err
	}
	mixing, err := flow.NewOperation("slow_mixing", flow.ProcessSlowMixing, NPools,
		[]flow.Coord{{Src: PoolAGSlow, Snk: PoolBGSlow, Value: b.params.SlowMixing}})
	if err != nil {
		return nil, err
	}
	return map[string]*flow.Operation{
		"growth":           growth,
		"snag_turnover":    snag,
		"biomass_turnover": biomass,
		"dom_decay":        domDecay,
		"slow_decay":       slowDecay,
		"slow_mixing":      mixing,
	}, nil
}

func (b *Builder) growthOp(ctx sim.BuildContext) (*flow.Operation, error) {
	matrices := make([][]flow.Coord, len(b.standSets))
	for s, set := range b.standSets {
		curve, err := b.curves.Get(set)
		if err != nil {
			return nil, err
		}
		mult := 1.0
		if ctx.GrowthMultiplier != nil {
			mult = ctx.GrowthMultiplier[s]
		}
		inc := curve.Increment(ctx.Age[s])
		coords := make([]flow.Coord, 0, len(inc))
		for k, pool := range curve.Pools() {
			v := inc[k] * mult * 0.5
			if v == 0 {
				continue
			}
			coords = append(coords, flow.Coord{Src: flow.PoolInput, Snk: pool, Value: v})
		}
		matrices[s] = coords
	}
	return flow.NewPerStandOperation("growth", flow.ProcessGrowth, NPools, matrices)
}

func (b *Builder) snagTurnoverOp() (*flow.Operation, error) {
	matrices := make([][]flow.Coord, len(b.spuList))
	for slot, spu := range b.spuList {
		t := b.params.Turnover[spu]
		matrices[slot] = []flow.Coord{
			{Src: PoolStemSnag, Snk: PoolMediumSoil, Value: t.StemSnagTurnover},
			{Src: PoolBranchSnag, Snk: PoolAGFast, Value: t.BranchSnagTurnover},
		}
	}
	return flow.NewIndexedOperation("snag_turnover", flow.ProcessSnagTurnover, NPools,
		matrices, b.spuIndex())
}

func (b *Builder) biomassTurnoverOp() (*flow.Operation, error) {
	matrices := make([][]flow.Coord, len(b.spuList))
	for slot, spu := range b.spuList {
		t := b.params.Turnover[spu]
		matrices[slot] = []flow.Coord{
			{Src: PoolMerch, Snk: PoolStemSnag, Value: t.StemAnnualTurnover},
			{Src: PoolFoliage, Snk: PoolAGVeryFast, Value: t.FoliageFall},
			{Src: PoolOther, Snk: PoolBranchSnag, Value: t.BranchTurnover * t.OtherToBranchSnag},
			{Src: PoolOther, Snk: PoolAGFast, Value: t.BranchTurnover * (1 - t.OtherToBranchSnag)},
			{Src: PoolFineRoots, Snk: PoolAGVeryFast, Value: t.FineRootTurnover * t.FineRootAGSplit},
			{Src: PoolFineRoots, Snk: PoolBGVeryFast, Value: t.FineRootTurnover * (1 - t.FineRootAGSplit)},
			{Src: PoolCoarseRoots, Snk: PoolAGFast, Value: t.CoarseRootTurnover * t.CoarseRootAGSplit},
			{Src: PoolCoarseRoots, Snk: PoolBGFast, Value: t.CoarseRootTurnover * (1 - t.CoarseRootAGSplit)},
		}
	}
	return flow.NewIndexedOperation("biomass_turnover", flow.ProcessBiomassTurnover, NPools,
		matrices, b.spuIndex())
}

func (b *Builder) domDecayOp(ctx sim.BuildContext) (*flow.Operation, error) {
	matrices := make([][]flow.Coord, len(b.standSets))
	for s := range b.standSets {
		temp := ctx.MeanAnnualTemp[s]
		coords := make([]flow.Coord, 0, 2*len(domPools))
		for _, pool := range domPools {
			d := b.params.Decay[pool]
			rate := d.AppliedRate(temp)
			coords = append(coords,
				flow.Coord{Src: pool, Snk: PoolCO2, Value: rate * d.PropToAtmosphere},
				flow.Coord{Src: pool, Snk: slowTarget[pool], Value: rate * (1 - d.PropToAtmosphere)},
			)
		}
		matrices[s] = coords
	}
	return flow.NewPerStandOperation("dom_decay", flow.ProcessDOMDecay, NPools, matrices)
}

func (b *Builder) slowDecayOp(ctx sim.BuildContext) (*flow.Operation, error) {
	matrices := make([][]flow.Coord, len(b.standSets))
	for s := range b.standSets {
		temp := ctx.MeanAnnualTemp[s]
		ag := b.params.Decay[PoolAGSlow]
		bg := b.params.Decay[PoolBGSlow]
		matrices[s] = []flow.Coord{
			{Src: PoolAGSlow, Snk: PoolCO2, Value: ag.AppliedRate(temp)},
			{Src: PoolBGSlow, Snk: PoolCO2, Value: bg.AppliedRate(temp)},
		}
	}
	return flow.NewPerStandOperation("slow_decay", flow.ProcessSlowDecay, NPools, matrices)
}

func (b *Builder) spuIndex() []int {
	index := make([]int, len(b.spatialUnit))
	for s, spu := range b.spatialUnit {
		index[s] = b.spuSlot[spu]
	}
	return index
}

// DisturbanceOp builds the disturbance operation for one step. Type 0 maps
// to the identity matrix; every other type must resolve in the matrix set.
func (b *Builder) DisturbanceOp(types []int) (*flow.Operation, error) {
	matrices := [][]flow.Coord{nil} // slot 0: identity
	slot := map[int]int{0: 0}
	index := make([]int, len(types))
	for s, dt := range types {
		ix, ok := slot[dt]
		if !ok {
			m, found := b.params.Disturbances.Get(dt)
			if !found {
				return nil, fmt.Errorf("%w: %d", flow.ErrUnknownDisturbanceType, dt)
			}
			coords := make([]flow.Coord, len(m.Entries))
			for i, e := range m.Entries {
				coords[i] = flow.Coord{Src: e.Src, Snk: e.Snk, Value: e.Prop}
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

// Transition applies a transition rule to one stand: the classifier set is
// remapped in place and the post-disturbance age and regeneration delay are
// returned. ResetAge < 0 keeps the stand's age.
func (b *Builder) Transition(stand, rule int) (resetAge, regenDelay int, err error) {
	r, ok := b.transitions.Get(rule)
	if !ok {
		return 0, 0, fmt.Errorf("cbm: unknown transition rule %d", rule)
	}
	next := r.Apply(b.standSets[stand])
	if err := b.classifiers.CheckSet(next); err != nil {
		return 0, 0, fmt.Errorf("transition rule %d: %w", rule, err)
	}
	if _, err := b.curves.Get(next); err != nil {
		return 0, 0, fmt.Errorf("transition rule %d: %w", rule, err)
	}
	b.standSets[stand] = next
	return r.ResetAge, r.RegenDelay, nil
}
