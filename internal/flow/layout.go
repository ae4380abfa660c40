package flow

import "fmt"

// Process tags an operation for flux-accounting purposes. Indicators only
// record movement from operations carrying their process tag.
type Process int

const (
	ProcessNone Process = iota
	ProcessGrowth
	ProcessBiomassTurnover
	ProcessSnagTurnover
	ProcessDOMDecay
	ProcessSlowDecay
	ProcessSlowMixing
	ProcessDisturbance

	// ProcessAnnual tags models that bundle their annual dynamics into a
	// single operation.
	ProcessAnnual
)

func (p Process) String() string {
	switch p {
	case ProcessGrowth:
		return "growth"
	case ProcessBiomassTurnover:
		return "biomass_turnover"
	case ProcessSnagTurnover:
		return "snag_turnover"
	case ProcessDOMDecay:
		return "dom_decay"
	case ProcessSlowDecay:
		return "slow_decay"
	case ProcessSlowMixing:
		return "slow_mixing"
	case ProcessDisturbance:
		return "disturbance"
	case ProcessAnnual:
		return "annual_process"
	default:
		return "none"
	}
}

// Indicator names a flux accumulator: carbon moved from any source pool to
// any sink pool by an operation tagged with Process.
type Indicator struct {
	Name    string
	Process Process
	Sources []int
	Sinks   []int
}

// Layout is the immutable pool and flux-indicator configuration of a model.
// It is constructed once and passed by reference into engine calls.
type Layout struct {
	poolNames  []string
	poolIndex  map[string]int
	indicators []Indicator

	// source/sink membership per indicator, for O(1) flux routing
	srcSets []map[int]bool
	snkSets []map[int]bool
}

func NewLayout(poolNames []string, indicators []Indicator) (*Layout, error) {
	if len(poolNames) == 0 {
		return nil, fmt.Errorf("layout: no pools defined")
	}
	idx := make(map[string]int, len(poolNames))
	for i, name := range poolNames {
		if _, dup := idx[name]; dup {
			return nil, fmt.Errorf("layout: duplicate pool %q", name)
		}
		idx[name] = i
	}
	l := &Layout{
		poolNames:  append([]string(nil), poolNames...),
		poolIndex:  idx,
		indicators: append([]Indicator(nil), indicators...),
		srcSets:    make([]map[int]bool, len(indicators)),
		snkSets:    make([]map[int]bool, len(indicators)),
	}
	for i, ind := range indicators {
		src := make(map[int]bool, len(ind.Sources))
		for _, p := range ind.Sources {
			if p < 0 || p >= len(poolNames) {
				return nil, fmt.Errorf("layout: indicator %q: source pool %d out of range", ind.Name, p)
			}
			src[p] = true
		}
		snk := make(map[int]bool, len(ind.Sinks))
		for _, p := range ind.Sinks {
			if p < 0 || p >= len(poolNames) {
				return nil, fmt.Errorf("layout: indicator %q: sink pool %d out of range", ind.Name, p)
			}
			snk[p] = true
		}
		l.srcSets[i] = src
		l.snkSets[i] = snk
	}
	return l, nil
}

func (l *Layout) NPools() int { return len(l.poolNames) }

func (l *Layout) NFlux() int { return len(l.indicators) }

func (l *Layout) PoolNames() []string {
	return append([]string(nil), l.poolNames...)
}

func (l *Layout) PoolIndex(name string) (int, bool) {
	i, ok := l.poolIndex[name]
	return i, ok
}

func (l *Layout) FluxNames() []string {
	names := make([]string, len(l.indicators))
	for i, ind := range l.indicators {
		names[i] = ind.Name
	}
	return names
}

// Routes returns the indicator indices that record a movement src->snk under
// the given process tag.
func (l *Layout) Routes(proc Process, src, snk int) []int {
	var out []int
	for i, ind := range l.indicators {
		if ind.Process == proc && l.srcSets[i][src] && l.snkSets[i][snk] {
			out = append(out, i)
		}
	}
	return out
}
