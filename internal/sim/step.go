package sim

import (
	"fmt"

	"github.com/san-kum/carbonsim/internal/flow"
)

// StepParams are the externally supplied inputs for one simulation year.
// DisturbanceType and TransitionRule are 0 where nothing happens.
type StepParams struct {
	DisturbanceType  []int
	TransitionRule   []int
	MeanAnnualTemp   []float64
	GrowthMultiplier []float64
}

func (p *StepParams) validate(n int) error {
	if len(p.DisturbanceType) != n || len(p.MeanAnnualTemp) != n {
		return fmt.Errorf("%w: step parameters sized %d/%d, want %d",
			flow.ErrShapeMismatch, len(p.DisturbanceType), len(p.MeanAnnualTemp), n)
	}
	if p.TransitionRule != nil && len(p.TransitionRule) != n {
		return fmt.Errorf("%w: transition rules sized %d, want %d",
			flow.ErrShapeMismatch, len(p.TransitionRule), n)
	}
	if p.GrowthMultiplier != nil && len(p.GrowthMultiplier) != n {
		return fmt.Errorf("%w: growth multipliers sized %d, want %d",
			flow.ErrShapeMismatch, len(p.GrowthMultiplier), n)
	}
	return nil
}

// Step advances pools, flux and state by one simulation year. Flux is zeroed
// here, then filled by two non-overlapping flux-tracked calls: the
// disturbance operation alone, followed by the annual-process schedule.
func (m *Model) Step(pools *flow.Pools, flux *flow.Flux, state *State, params *StepParams) error {
	if err := params.validate(state.N); err != nil {
		return err
	}
	if pools.N != state.N {
		return fmt.Errorf("%w: pools have %d stands, state has %d",
			flow.ErrShapeMismatch, pools.N, state.N)
	}

	pools.ResetInput(state.Enabled)
	flux.Zero()

	if err := m.advanceStandState(state, params); err != nil {
		return err
	}

	// Disturbance applies unmasked: a stand disturbed this year records
	// disturbance flux even when its other carbon dynamics are disabled.
	// This mirrors CBM3 and is deliberate.
	dist, err := m.builder.DisturbanceOp(params.DisturbanceType)
	if err != nil {
		return err
	}
	if err := m.backend.ApplyWithFlux([]*flow.Operation{dist}, m.def.Layout, pools, flux, nil); err != nil {
		return err
	}

	// Regenerating stands keep their other dynamics but grow nothing.
	growthMult := make([]float64, state.N)
	for s := range growthMult {
		switch {
		case !state.GrowthEnabled[s]:
			growthMult[s] = 0
		case params.GrowthMultiplier != nil:
			growthMult[s] = params.GrowthMultiplier[s]
		default:
			growthMult[s] = 1
		}
	}

	ops, err := m.builder.AnnualOps(BuildContext{
		Age:              state.Age,
		MeanAnnualTemp:   params.MeanAnnualTemp,
		GrowthMultiplier: growthMult,
	})
	if err != nil {
		return err
	}
	seq, err := m.schedule(ops)
	if err != nil {
		return err
	}
	if err := m.backend.ApplyWithFlux(seq, m.def.Layout, pools, flux, state.Enabled); err != nil {
		return err
	}

	m.endStep(state)
	return nil
}

// advanceStandState applies this year's disturbance and transition-rule
// bookkeeping before any carbon moves.
func (m *Model) advanceStandState(state *State, params *StepParams) error {
	tr, canTransition := m.builder.(Transitioner)
	for s := 0; s < state.N; s++ {
		if params.DisturbanceType[s] != 0 {
			state.LastDisturbance[s] = params.DisturbanceType[s]
			state.TimeSinceDisturbance[s] = 0
		} else {
			state.TimeSinceDisturbance[s]++
		}
		state.DisturbanceType[s] = params.DisturbanceType[s]

		if params.TransitionRule == nil || params.TransitionRule[s] == 0 {
			continue
		}
		if !canTransition {
			return fmt.Errorf("sim: transition rule %d for stand %d but builder has no transitions",
				params.TransitionRule[s], s)
		}
		resetAge, regenDelay, err := tr.Transition(s, params.TransitionRule[s])
		if err != nil {
			return err
		}
		if resetAge >= 0 {
			state.Age[s] = resetAge
		}
		state.RegenDelay[s] = regenDelay
		if regenDelay > 0 {
			state.GrowthEnabled[s] = false
		}
	}
	return nil
}

// endStep finalizes the year: age advances where growth ran, and stands in
// regeneration count down toward growing again.
func (m *Model) endStep(state *State) {
	for s := 0; s < state.N; s++ {
		if !state.Enabled[s] {
			continue
		}
		if state.GrowthEnabled[s] {
			state.Age[s]++
		}
		if state.RegenDelay[s] > 0 {
			state.RegenDelay[s]--
			if state.RegenDelay[s] == 0 {
				state.GrowthEnabled[s] = true
			}
		}
	}
}
