package cbm

import (
	"fmt"

	"github.com/san-kum/carbonsim/internal/flow"
)

// Curve holds per-age carbon stocks for the biomass pools of one classifier
// set. Values are indexed by age; lookups beyond the last age clamp to it,
// lookups below zero clamp to zero.
type Curve struct {
	pools  []int
	stocks [][]float64 // stocks[k][age] for pool pools[k]
	maxAge int
}

func NewCurve(pools []int, stocks [][]float64) (*Curve, error) {
	if len(pools) != len(stocks) {
		return nil, fmt.Errorf("cbm: curve has %d pools, %d stock series", len(pools), len(stocks))
	}
	if len(stocks) == 0 || len(stocks[0]) == 0 {
		return nil, fmt.Errorf("cbm: empty yield curve")
	}
	maxAge := len(stocks[0]) - 1
	for k, s := range stocks {
		if len(s) != maxAge+1 {
			return nil, fmt.Errorf("cbm: curve pool %s has %d ages, want %d",
				poolNames[pools[k]], len(s), maxAge+1)
		}
	}
	return &Curve{pools: pools, stocks: stocks, maxAge: maxAge}, nil
}

func (c *Curve) clamp(age int) int {
	if age < 0 {
		return 0
	}
	if age > c.maxAge {
		return c.maxAge
	}
	return age
}

// Stock returns the carbon stock of pool k at the given age.
func (c *Curve) Stock(k, age int) float64 {
	return c.stocks[k][c.clamp(age)]
}

// Increment returns the net stock change per pool from age to age+1. The
// increment is zero once the curve plateaus past its last age.
func (c *Curve) Increment(age int) []float64 {
	inc := make([]float64, len(c.pools))
	for k := range c.pools {
		inc[k] = c.Stock(k, age+1) - c.Stock(k, age)
	}
	return inc
}

func (c *Curve) Pools() []int { return c.pools }

// CurveSet maps classifier sets to yield curves.
type CurveSet struct {
	curves map[string]*Curve
}

func NewCurveSet() *CurveSet {
	return &CurveSet{curves: make(map[string]*Curve)}
}

func (s *CurveSet) Add(set []string, c *Curve) {
	s.curves[Key(set)] = c
}

func (s *CurveSet) Get(set []string) (*Curve, error) {
	c, ok := s.curves[Key(set)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", flow.ErrCurveLookup, Key(set))
	}
	return c, nil
}

func (s *CurveSet) Len() int { return len(s.curves) }
