package metrics

import (
	"math"

	"github.com/san-kum/carbonsim/internal/flow"
)

// MassBalance checks that batch-wide carbon outside the Input pool only
// changes by the amount the growth indicators added. Flow matrices move
// carbon between pools, so once emissions land in a sink pool the total is
// conserved up to new primary production.
type MassBalance struct {
	name    string
	growth  []int // flux indicator indices that record new carbon
	prev    float64
	started bool
	max     float64
}

func NewMassBalance(name string, growthIndicators []int) *MassBalance {
	return &MassBalance{name: name, growth: growthIndicators}
}

func (m *MassBalance) Name() string { return m.name }

func (m *MassBalance) Observe(step int, pools *flow.Pools, flux *flow.Flux) {
	total := batchTotal(pools)
	if !m.started {
		m.prev = total
		m.started = true
		return
	}
	if flux == nil {
		m.prev = total
		return
	}
	var added float64
	for s := 0; s < flux.N; s++ {
		row := flux.Row(s)
		for _, i := range m.growth {
			added += row[i]
		}
	}
	drift := math.Abs((total - m.prev) - added)
	if ref := math.Abs(total); ref > 1 {
		drift /= ref
	}
	if drift > m.max {
		m.max = drift
	}
	m.prev = total
}

// Value returns the worst relative step imbalance seen so far.
func (m *MassBalance) Value() float64 { return m.max }

func (m *MassBalance) Reset() {
	m.prev = 0
	m.started = false
	m.max = 0
}

func batchTotal(pools *flow.Pools) float64 {
	var total float64
	for s := 0; s < pools.N; s++ {
		row := pools.Row(s)
		// skip the Input column, it is pinned to 1
		for p := flow.PoolInput + 1; p < pools.P; p++ {
			total += row[p]
		}
	}
	return total
}
