package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/carbonsim/internal/flow"
)

// slowTolerance is the relative slow-pool difference under which two
// successive rotations count as equilibrated.
const slowTolerance = 0.001

// DefaultMaxIterations caps the spinup loop when stands refuse to converge.
const DefaultMaxIterations = 10000

// SpinupParams configures the spinup run. ReturnInterval and MaxRotations
// are per stand; use PromoteInt for scalar inputs.
type SpinupParams struct {
	ReturnInterval []int
	MaxRotations   []int
	MaxIterations  int
}

// SpinupResult is the batch outcome of a spinup run: equilibrated pools, the
// stepping-ready state, and the indices of any stands that were
// force-finalized at the iteration cap.
type SpinupResult struct {
	Pools        *flow.Pools
	State        *State
	Iterations   int
	NotConverged []int
}

// advanceSpinup is the per-stand transition function, exhaustive over
// (state, age reached return interval, converged, rotation cap reached).
func advanceSpinup(st SpinupState, atInterval, converged, rotationCap bool) SpinupState {
	switch st {
	case SpinupAnnualProcesses:
		switch {
		case !atInterval:
			return SpinupAnnualProcesses
		case converged || rotationCap:
			return SpinupLastPassEvent
		default:
			return SpinupHistoricalEvent
		}
	case SpinupHistoricalEvent:
		return SpinupAnnualProcesses
	case SpinupLastPassEvent:
		return SpinupEnd
	default:
		return SpinupEnd
	}
}

// slowConverged reports whether two successive rotation totals differ by
// less than the tolerance, relative to their mean. Two zero totals count as
// converged: there is no slow mass to equilibrate.
func slowConverged(last, this float64) bool {
	mean := (last + this) / 2
	if mean == 0 {
		return true
	}
	return math.Abs(last-this)/mean < slowTolerance
}

// Spinup drives every stand through repeated historical
// disturbance/regrowth rotations until the slow pools equilibrate, and
// returns pools and state ready for stepping. Stands that miss the iteration
// cap are force-finalized and reported on the result; that is a diagnostic,
// not an error.
func (m *Model) Spinup(inv *Inventory, params *SpinupParams) (*SpinupResult, error) {
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	n := inv.N
	if len(params.ReturnInterval) != n || len(params.MaxRotations) != n {
		return nil, fmt.Errorf("%w: spinup parameters sized %d/%d, want %d",
			flow.ErrShapeMismatch, len(params.ReturnInterval), len(params.MaxRotations), n)
	}
	maxIter := params.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	pools := flow.NewPools(n, m.def.Layout.NPools())
	pools.ResetInput(nil)
	state := NewState(n)

	iteration := 0
	for ; iteration < maxIter; iteration++ {
		finished := 0
		for s := 0; s < n; s++ {
			state.Spinup[s] = advanceSpinup(
				state.Spinup[s],
				state.Age[s] >= params.ReturnInterval[s],
				slowConverged(state.LastRotationSlow[s], state.ThisRotationSlow[s]),
				state.Rotation[s] >= params.MaxRotations[s],
			)
			switch state.Spinup[s] {
			case SpinupHistoricalEvent:
				state.DisturbanceType[s] = inv.HistoricDisturbance[s]
			case SpinupLastPassEvent:
				state.DisturbanceType[s] = inv.LastPassDisturbance[s]
			default:
				state.DisturbanceType[s] = 0
			}
			state.Enabled[s] = state.Spinup[s] != SpinupEnd
			if !state.Enabled[s] {
				finished++
			}
		}
		if finished == n {
			break
		}

		ops, err := m.builder.AnnualOps(BuildContext{
			Age:            state.Age,
			MeanAnnualTemp: inv.HistoricMeanTemp,
			Spinup:         true,
		})
		if err != nil {
			return nil, err
		}
		seq, err := m.schedule(ops)
		if err != nil {
			return nil, err
		}
		dist, err := m.builder.DisturbanceOp(state.DisturbanceType)
		if err != nil {
			return nil, err
		}
		seq = append(seq, dist)

		if err := m.backend.Apply(seq, pools, state.Enabled); err != nil {
			return nil, err
		}

		m.endSpinupIteration(pools, state)

		for _, o := range m.observers {
			o.OnIteration(iteration, pools, state)
		}
	}

	var notConverged []int
	for s := 0; s < n; s++ {
		if state.Spinup[s] != SpinupEnd {
			state.Spinup[s] = SpinupEnd
			notConverged = append(notConverged, s)
		}
	}

	m.initLandState(inv, state)

	return &SpinupResult{
		Pools:        pools,
		State:        state,
		Iterations:   iteration,
		NotConverged: notConverged,
	}, nil
}

// endSpinupIteration applies the per-stand bookkeeping that closes one
// spinup iteration.
func (m *Model) endSpinupIteration(pools *flow.Pools, state *State) {
	for s := 0; s < state.N; s++ {
		switch state.Spinup[s] {
		case SpinupAnnualProcesses:
			state.Age[s]++
			state.ThisRotationSlow[s] = m.slowSum(pools, s)
		case SpinupHistoricalEvent:
			state.Rotation[s]++
			state.Age[s] = 0
			state.LastRotationSlow[s] = state.ThisRotationSlow[s]
		case SpinupLastPassEvent:
			state.Age[s] = 0
		}
	}
}

// initLandState readies the post-spinup state for stepping: ages come from
// the inventory, the last-pass disturbance becomes the last recorded
// disturbance, and growth waits out any regeneration delay.
func (m *Model) initLandState(inv *Inventory, state *State) {
	for s := 0; s < state.N; s++ {
		state.Age[s] = inv.Age[s]
		state.LandClass[s] = inv.LandClass[s]
		state.LastDisturbance[s] = inv.LastPassDisturbance[s]
		state.TimeSinceDisturbance[s] = inv.Age[s]
		state.RegenDelay[s] = inv.Delay[s]
		state.Enabled[s] = true
		state.GrowthEnabled[s] = inv.Delay[s] == 0
		state.DisturbanceType[s] = 0
	}
}
