package cbm

import (
	"fmt"
	"math"
)

// TurnoverParams hold the annual biomass and snag turnover proportions for
// one spatial unit.
type TurnoverParams struct {
	SpatialUnit int

	StemAnnualTurnover   float64
	FoliageFall          float64
	BranchTurnover       float64
	FineRootTurnover     float64
	CoarseRootTurnover   float64
	OtherToBranchSnag    float64 // share of turned-over other going to branch snag
	CoarseRootAGSplit    float64 // above-ground share of coarse root turnover
	FineRootAGSplit      float64 // above-ground share of fine root turnover
	StemSnagTurnover     float64
	BranchSnagTurnover   float64
}

// DecayParams describe first-order decay of one DOM pool, temperature
// adjusted by a Q10 response around a reference temperature.
type DecayParams struct {
	Pool             int
	BaseRate         float64
	Q10              float64
	TRef             float64
	PropToAtmosphere float64
	MaxRate          float64
}

// AppliedRate returns the decay proportion at mean annual temperature t.
func (d DecayParams) AppliedRate(t float64) float64 {
	rate := d.BaseRate * math.Pow(d.Q10, (t-d.TRef)/10.0)
	if d.MaxRate > 0 && rate > d.MaxRate {
		rate = d.MaxRate
	}
	return rate
}

// Params is the full parameter set for one simulation: per-spatial-unit
// turnover, per-pool decay, slow mixing, and the disturbance matrix library.
type Params struct {
	Turnover     map[int]TurnoverParams
	Decay        map[int]DecayParams
	SlowMixing   float64
	Disturbances *DisturbanceSet
}

func (p *Params) Validate() error {
	if len(p.Turnover) == 0 {
		return fmt.Errorf("cbm: no turnover parameters")
	}
	for _, pool := range domPools {
		if _, ok := p.Decay[pool]; !ok {
			return fmt.Errorf("cbm: no decay parameters for pool %s", poolNames[pool])
		}
	}
	if _, ok := p.Decay[PoolAGSlow]; !ok {
		return fmt.Errorf("cbm: no decay parameters for pool %s", poolNames[PoolAGSlow])
	}
	if _, ok := p.Decay[PoolBGSlow]; !ok {
		return fmt.Errorf("cbm: no decay parameters for pool %s", poolNames[PoolBGSlow])
	}
	if p.SlowMixing <= 0 || p.SlowMixing >= 1 {
		return fmt.Errorf("cbm: slow mixing rate %g out of (0,1)", p.SlowMixing)
	}
	if p.Disturbances == nil {
		return fmt.Errorf("cbm: no disturbance matrix set")
	}
	return nil
}

// DisturbanceMatrix is the proportional pool reallocation of one disturbance
// type.
type DisturbanceMatrix struct {
	ID      int
	Name    string
	Entries []DisturbanceEntry
}

type DisturbanceEntry struct {
	Src, Snk int
	Prop     float64
}

// DisturbanceSet resolves disturbance type ids and names to matrices.
// Type id 0 means no disturbance and is always present as the identity.
type DisturbanceSet struct {
	byID   map[int]*DisturbanceMatrix
	byName map[string]int
}

func NewDisturbanceSet(matrices []DisturbanceMatrix) (*DisturbanceSet, error) {
	s := &DisturbanceSet{
		byID:   make(map[int]*DisturbanceMatrix, len(matrices)),
		byName: make(map[string]int, len(matrices)),
	}
	for i := range matrices {
		m := &matrices[i]
		if m.ID <= 0 {
			return nil, fmt.Errorf("cbm: disturbance matrix %q has non-positive id %d", m.Name, m.ID)
		}
		if _, dup := s.byID[m.ID]; dup {
			return nil, fmt.Errorf("cbm: duplicate disturbance matrix id %d", m.ID)
		}
		s.byID[m.ID] = m
		if m.Name != "" {
			s.byName[m.Name] = m.ID
		}
	}
	return s, nil
}

func (s *DisturbanceSet) Get(id int) (*DisturbanceMatrix, bool) {
	m, ok := s.byID[id]
	return m, ok
}

func (s *DisturbanceSet) ID(name string) (int, bool) {
	id, ok := s.byName[name]
	return id, ok
}
