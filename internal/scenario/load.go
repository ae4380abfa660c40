package scenario

import (
	"fmt"
	"strings"

	"github.com/san-kum/carbonsim/internal/cbm"
	"github.com/san-kum/carbonsim/internal/flow"
	"github.com/san-kum/carbonsim/internal/moss"
	"github.com/san-kum/carbonsim/internal/sim"
	"github.com/san-kum/carbonsim/internal/tables"
)

func (s *Scenario) loadCBM() error {
	d := s.cfg.Data

	turnoverTable, err := tables.ReadCSV(d.Turnover)
	if err != nil {
		return fmt.Errorf("turnover: %w", err)
	}
	turnover, err := cbm.TurnoverFromTable(turnoverTable)
	if err != nil {
		return err
	}

	decayTable, err := tables.ReadCSV(d.Decay)
	if err != nil {
		return fmt.Errorf("decay: %w", err)
	}
	decay, err := cbm.DecayFromTable(decayTable)
	if err != nil {
		return err
	}

	distTable, err := tables.ReadCSV(d.Disturbances)
	if err != nil {
		return fmt.Errorf("disturbances: %w", err)
	}
	disturbances, err := cbm.DisturbancesFromTable(distTable)
	if err != nil {
		return err
	}
	s.resolveDisturbance = disturbances.ID

	curveTable, err := tables.ReadCSV(d.Curves)
	if err != nil {
		return fmt.Errorf("curves: %w", err)
	}
	curves, err := cbm.CurvesFromTable(curveTable)
	if err != nil {
		return err
	}

	classifiers, err := loadClassifiers(d.Classifiers)
	if err != nil {
		return err
	}

	transTable, err := tables.ReadCSV(d.Transitions)
	if err != nil {
		return fmt.Errorf("transitions: %w", err)
	}
	transitions, err := cbm.TransitionsFromTable(transTable, classifiers)
	if err != nil {
		return err
	}

	inv, standSets, spatialUnit, err := s.loadInventory(d.Inventory)
	if err != nil {
		return err
	}
	s.inventory = inv

	// slow mixing comes from decay table conventions in the CBM-CFS3
	// parameter archive; a fixed rate is used here
	builder, err := cbm.NewBuilder(&cbm.Params{
		Turnover:     turnover,
		Decay:        decay,
		SlowMixing:   0.006,
		Disturbances: disturbances,
	}, curves, classifiers, transitions, standSets, spatialUnit)
	if err != nil {
		return err
	}

	s.model, err = cbm.New(builder, s.backend)
	return err
}

func (s *Scenario) loadMoss() error {
	d := s.cfg.Data

	inv, _, _, err := s.loadInventory(d.Inventory)
	if err != nil {
		return err
	}
	s.inventory = inv

	volumes, err := loadVolumeCurves(d.Curves, inv.N)
	if err != nil {
		return err
	}

	disturbances := map[int][]flow.Coord{}
	if d.Disturbances != "" {
		disturbances, err = loadMossDisturbances(d.Disturbances)
		if err != nil {
			return err
		}
	}

	builder, err := moss.NewBuilder(moss.DefaultParams(), volumes, disturbances)
	if err != nil {
		return err
	}
	s.model, err = moss.New(builder, s.backend)
	return err
}

// disturbanceTypes reads a column of disturbance types given either as
// numeric matrix ids or as matrix names. Names resolve through the loaded
// matrix library; blank entries mean no disturbance.
func (s *Scenario) disturbanceTypes(t *tables.Table, col string) ([]int, error) {
	if ids, err := t.Ints(col); err == nil {
		return ids, nil
	}
	names, err := t.Str(col)
	if err != nil {
		return nil, fmt.Errorf("table %s: no disturbance type column %s", t.Name(), col)
	}
	if s.resolveDisturbance == nil {
		return nil, fmt.Errorf("table %s: column %s uses disturbance names, but the %s matrices are unnamed",
			t.Name(), col, s.cfg.Model)
	}
	ids := make([]int, len(names))
	for i, name := range names {
		if name == "" {
			continue
		}
		id, ok := s.resolveDisturbance(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", flow.ErrUnknownDisturbanceType, name)
		}
		ids[i] = id
	}
	return ids, nil
}

// loadInventory reads the stand inventory. The classifier_set and
// spatial_unit columns are only present for the cbm model.
func (s *Scenario) loadInventory(path string) (*sim.Inventory, [][]string, []int, error) {
	t, err := tables.ReadCSV(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("inventory: %w", err)
	}

	inv := &sim.Inventory{N: t.Len()}
	if inv.Age, err = t.Ints("age"); err != nil {
		return nil, nil, nil, err
	}
	if inv.HistoricDisturbance, err = s.disturbanceTypes(t, "historic_disturbance"); err != nil {
		return nil, nil, nil, err
	}
	if inv.LastPassDisturbance, err = s.disturbanceTypes(t, "last_pass_disturbance"); err != nil {
		return nil, nil, nil, err
	}
	if inv.MeanAnnualTemp, err = t.Num("mean_annual_temp"); err != nil {
		return nil, nil, nil, err
	}
	if inv.HistoricMeanTemp, err = t.Num("historic_mean_temp"); err != nil {
		inv.HistoricMeanTemp = append([]float64(nil), inv.MeanAnnualTemp...)
	}
	if inv.LandClass, err = t.Ints("land_class"); err != nil {
		inv.LandClass = make([]int, inv.N)
	}
	if inv.Delay, err = t.Ints("delay"); err != nil {
		inv.Delay = make([]int, inv.N)
	}
	if err := inv.Validate(); err != nil {
		return nil, nil, nil, err
	}

	var standSets [][]string
	if sets, err := t.Str("classifier_set"); err == nil {
		standSets = make([][]string, len(sets))
		for i, set := range sets {
			standSets[i] = strings.Split(set, "|")
		}
	}
	spatialUnit, err := t.Ints("spatial_unit")
	if err != nil {
		spatialUnit = make([]int, inv.N)
	}
	return inv, standSets, spatialUnit, nil
}

// loadClassifiers reads the classifier configuration: one row per
// classifier, values comma separated.
func loadClassifiers(path string) (*cbm.Classifiers, error) {
	t, err := tables.ReadCSV(path)
	if err != nil {
		return nil, fmt.Errorf("classifiers: %w", err)
	}
	names, err := t.Str("classifier")
	if err != nil {
		return nil, err
	}
	valueLists, err := t.Str("values")
	if err != nil {
		return nil, err
	}
	values := make([][]string, len(valueLists))
	for i, list := range valueLists {
		values[i] = strings.Split(list, ",")
	}
	return cbm.NewClassifiers(names, values)
}

// loadVolumeCurves reads per-stand merchantable volume by age in long form:
// stand, age, volume. Ages must be dense from zero.
func loadVolumeCurves(path string, nStands int) ([][]float64, error) {
	t, err := tables.ReadCSV(path)
	if err != nil {
		return nil, fmt.Errorf("curves: %w", err)
	}
	stands, err := t.Ints("stand")
	if err != nil {
		return nil, err
	}
	ages, err := t.Ints("age")
	if err != nil {
		return nil, err
	}
	volumes, err := t.Num("volume")
	if err != nil {
		return nil, err
	}

	byStand := make(map[int]map[int]float64)
	for i, stand := range stands {
		if stand < 0 || stand >= nStands {
			return nil, fmt.Errorf("curves: stand %d out of range", stand)
		}
		if byStand[stand] == nil {
			byStand[stand] = map[int]float64{}
		}
		byStand[stand][ages[i]] = volumes[i]
	}

	out := make([][]float64, nStands)
	for stand := 0; stand < nStands; stand++ {
		points := byStand[stand]
		if len(points) == 0 {
			return nil, fmt.Errorf("curves: no volume curve for stand %d", stand)
		}
		curve := make([]float64, len(points))
		for age, v := range points {
			if age < 0 || age >= len(curve) {
				return nil, fmt.Errorf("curves: stand %d: sparse or negative age %d", stand, age)
			}
			curve[age] = v
		}
		out[stand] = curve
	}
	return out, nil
}

// loadMossDisturbances reads moss disturbance matrices in the same long
// form as the cbm set, with moss pool names.
func loadMossDisturbances(path string) (map[int][]flow.Coord, error) {
	t, err := tables.ReadCSV(path)
	if err != nil {
		return nil, fmt.Errorf("disturbances: %w", err)
	}
	layout, err := moss.NewLayout()
	if err != nil {
		return nil, err
	}
	ids, err := t.Ints("matrix_id")
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
	out := map[int][]flow.Coord{}
	for i, id := range ids {
		s, ok := layout.PoolIndex(src[i])
		if !ok {
			return nil, fmt.Errorf("disturbances: matrix %d: unknown pool %q", id, src[i])
		}
		k, ok := layout.PoolIndex(snk[i])
		if !ok {
			return nil, fmt.Errorf("disturbances: matrix %d: unknown pool %q", id, snk[i])
		}
		out[id] = append(out[id], flow.Coord{Src: s, Snk: k, Value: prop[i]})
	}
	return out, nil
}

func (s *Scenario) loadEvents(path string) error {
	t, err := tables.ReadCSV(path)
	if err != nil {
		return fmt.Errorf("disturbance events: %w", err)
	}
	steps, err := t.Ints("timestep")
	if err != nil {
		return err
	}
	stands, err := t.Ints("stand")
	if err != nil {
		return err
	}
	types, err := s.disturbanceTypes(t, "disturbance_type")
	if err != nil {
		return err
	}
	rules, err := t.Ints("transition_rule")
	if err != nil {
		rules = make([]int, t.Len())
	}
	for i := range steps {
		if stands[i] < 0 || stands[i] >= s.inventory.N {
			return fmt.Errorf("disturbance events: stand %d out of range", stands[i])
		}
		ev := Event{
			Timestep:        steps[i],
			Stand:           stands[i],
			DisturbanceType: types[i],
			TransitionRule:  rules[i],
		}
		s.events[ev.Timestep] = append(s.events[ev.Timestep], ev)
	}
	return nil
}
