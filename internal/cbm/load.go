package cbm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/carbonsim/internal/tables"
)

// TurnoverFromTable reads per-spatial-unit turnover parameters. Expected
// columns: spatial_unit plus one column per TurnoverParams rate.
func TurnoverFromTable(t *tables.Table) (map[int]TurnoverParams, error) {
	spu, err := t.Ints("spatial_unit")
	if err != nil {
		return nil, err
	}
	cols := map[string][]float64{}
	for _, name := range []string{
		"stem_annual_turnover", "foliage_fall", "branch_turnover",
		"fine_root_turnover", "coarse_root_turnover", "other_to_branch_snag",
		"coarse_root_ag_split", "fine_root_ag_split",
		"stem_snag_turnover", "branch_snag_turnover",
	} {
		v, err := t.Num(name)
		if err != nil {
			return nil, err
		}
		cols[name] = v
	}
	out := make(map[int]TurnoverParams, len(spu))
	for i, unit := range spu {
		if _, dup := out[unit]; dup {
			return nil, fmt.Errorf("cbm: duplicate turnover row for spatial unit %d", unit)
		}
		out[unit] = TurnoverParams{
			SpatialUnit:        unit,
			StemAnnualTurnover: cols["stem_annual_turnover"][i],
			FoliageFall:        cols["foliage_fall"][i],
			BranchTurnover:     cols["branch_turnover"][i],
			FineRootTurnover:   cols["fine_root_turnover"][i],
			CoarseRootTurnover: cols["coarse_root_turnover"][i],
			OtherToBranchSnag:  cols["other_to_branch_snag"][i],
			CoarseRootAGSplit:  cols["coarse_root_ag_split"][i],
			FineRootAGSplit:    cols["fine_root_ag_split"][i],
			StemSnagTurnover:   cols["stem_snag_turnover"][i],
			BranchSnagTurnover: cols["branch_snag_turnover"][i],
		}
	}
	return out, nil
}

// DecayFromTable reads per-pool decay parameters. Expected columns: pool,
// base_rate, q10, t_ref, prop_to_atmosphere, max_rate.
func DecayFromTable(t *tables.Table) (map[int]DecayParams, error) {
	names, err := t.Str("pool")
	if err != nil {
		return nil, err
	}
	base, err := t.Num("base_rate")
	if err != nil {
		return nil, err
	}
	q10, err := t.Num("q10")
	if err != nil {
		return nil, err
	}
	tref, err := t.Num("t_ref")
	if err != nil {
		return nil, err
	}
	prop, err := t.Num("prop_to_atmosphere")
	if err != nil {
		return nil, err
	}
	maxRate, err := t.Num("max_rate")
	if err != nil {
		return nil, err
	}
	out := make(map[int]DecayParams, len(names))
	for i, name := range names {
		pool, err := PoolByName(name)
		if err != nil {
			return nil, err
		}
		out[pool] = DecayParams{
			Pool:             pool,
			BaseRate:         base[i],
			Q10:              q10[i],
			TRef:             tref[i],
			PropToAtmosphere: prop[i],
			MaxRate:          maxRate[i],
		}
	}
	return out, nil
}

// PoolByName resolves a pool name to its index.
func PoolByName(name string) (int, error) {
	for i, n := range poolNames {
		if n == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("cbm: unknown pool %q", name)
}

// DisturbancesFromTable reads a long-form disturbance matrix table. Expected
// columns: matrix_id, name, source, sink, proportion.
func DisturbancesFromTable(t *tables.Table) (*DisturbanceSet, error) {
	ids, err := t.Ints("matrix_id")
	if err != nil {
		return nil, err
	}
	names, err := t.Str("name")
	if err != nil {
		return nil, err
	}
	src, err := t.Str("source")
	if err != nil {
		return nil, err
	}
	snk, err := t.Str("sink")
	if err != nil {
		return nil, err
	}
	prop, err := t.Num("proportion")
	if err != nil {
		return nil, err
	}
	byID := map[int]*DisturbanceMatrix{}
	for i, id := range ids {
		m := byID[id]
		if m == nil {
			m = &DisturbanceMatrix{ID: id, Name: names[i]}
			byID[id] = m
		}
		s, err := PoolByName(src[i])
		if err != nil {
			return nil, fmt.Errorf("matrix %d: %w", id, err)
		}
		k, err := PoolByName(snk[i])
		if err != nil {
			return nil, fmt.Errorf("matrix %d: %w", id, err)
		}
		m.Entries = append(m.Entries, DisturbanceEntry{Src: s, Snk: k, Prop: prop[i]})
	}
	matrices := make([]DisturbanceMatrix, 0, len(byID))
	for _, m := range byID {
		matrices = append(matrices, *m)
	}
	sort.Slice(matrices, func(i, j int) bool { return matrices[i].ID < matrices[j].ID })
	return NewDisturbanceSet(matrices)
}

// CurvesFromTable reads yield curves in long form. Expected columns:
// classifier_set (values joined with "|"), pool, age, stock. Each
// classifier set must carry the same pools over a dense age range
// starting at zero.
func CurvesFromTable(t *tables.Table) (*CurveSet, error) {
	sets, err := t.Str("classifier_set")
	if err != nil {
		return nil, err
	}
	pools, err := t.Str("pool")
	if err != nil {
		return nil, err
	}
	ages, err := t.Ints("age")
	if err != nil {
		return nil, err
	}
	stocks, err := t.Num("stock")
	if err != nil {
		return nil, err
	}

	type series map[int]float64
	bySet := map[string]map[int]series{} // set -> pool -> age -> stock
	for i := range sets {
		pool, err := PoolByName(pools[i])
		if err != nil {
			return nil, err
		}
		if bySet[sets[i]] == nil {
			bySet[sets[i]] = map[int]series{}
		}
		if bySet[sets[i]][pool] == nil {
			bySet[sets[i]][pool] = series{}
		}
		bySet[sets[i]][pool][ages[i]] = stocks[i]
	}

	out := NewCurveSet()
	for set, byPool := range bySet {
		poolIDs := make([]int, 0, len(byPool))
		for p := range byPool {
			poolIDs = append(poolIDs, p)
		}
		sort.Ints(poolIDs)
		var stockSeries [][]float64
		for _, p := range poolIDs {
			s := byPool[p]
			vals := make([]float64, len(s))
			for age, v := range s {
				if age < 0 || age >= len(vals) {
					return nil, fmt.Errorf("cbm: curve %q pool %s: sparse or negative age %d",
						set, poolNames[p], age)
				}
				vals[age] = v
			}
			stockSeries = append(stockSeries, vals)
		}
		c, err := NewCurve(poolIDs, stockSeries)
		if err != nil {
			return nil, fmt.Errorf("curve %q: %w", set, err)
		}
		out.Add(strings.Split(set, "|"), c)
	}
	return out, nil
}

// TransitionsFromTable reads transition rules. Expected columns: rule_id,
// classifier_set (values joined with "|", "?" keeps the current value),
// reset_age, regen_delay.
func TransitionsFromTable(t *tables.Table, c *Classifiers) (*TransitionRules, error) {
	ids, err := t.Ints("rule_id")
	if err != nil {
		return nil, err
	}
	sets, err := t.Str("classifier_set")
	if err != nil {
		return nil, err
	}
	resetAge, err := t.Ints("reset_age")
	if err != nil {
		return nil, err
	}
	delay, err := t.Ints("regen_delay")
	if err != nil {
		return nil, err
	}
	rules := make([]TransitionRule, len(ids))
	for i, id := range ids {
		rules[i] = TransitionRule{
			ID:         id,
			Values:     strings.Split(sets[i], "|"),
			ResetAge:   resetAge[i],
			RegenDelay: delay[i],
		}
	}
	return NewTransitionRules(rules, c)
}
