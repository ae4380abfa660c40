package sim

import (
	"fmt"

	"github.com/san-kum/carbonsim/internal/flow"
)

// SpinupState is the per-stand position in the spinup cycle.
type SpinupState uint8

const (
	SpinupAnnualProcesses SpinupState = iota
	SpinupHistoricalEvent
	SpinupLastPassEvent
	SpinupEnd
)

func (s SpinupState) String() string {
	switch s {
	case SpinupAnnualProcesses:
		return "annual_processes"
	case SpinupHistoricalEvent:
		return "historical_event"
	case SpinupLastPassEvent:
		return "last_pass_event"
	case SpinupEnd:
		return "end"
	default:
		return fmt.Sprintf("SpinupState(%d)", s)
	}
}

// State holds all non-pool simulation variables, one slot per stand.
type State struct {
	N int

	Age      []int
	Spinup   []SpinupState
	Rotation []int

	LastRotationSlow []float64
	ThisRotationSlow []float64

	// DisturbanceType is the matrix id applied this iteration (0 = none).
	DisturbanceType []int

	Enabled       []bool
	GrowthEnabled []bool

	LandClass            []int
	LastDisturbance      []int
	TimeSinceDisturbance []int
	RegenDelay           []int
}

func NewState(n int) *State {
	s := &State{
		N:                    n,
		Age:                  make([]int, n),
		Spinup:               make([]SpinupState, n),
		Rotation:             make([]int, n),
		LastRotationSlow:     make([]float64, n),
		ThisRotationSlow:     make([]float64, n),
		DisturbanceType:      make([]int, n),
		Enabled:              make([]bool, n),
		GrowthEnabled:        make([]bool, n),
		LandClass:            make([]int, n),
		LastDisturbance:      make([]int, n),
		TimeSinceDisturbance: make([]int, n),
		RegenDelay:           make([]int, n),
	}
	for i := 0; i < n; i++ {
		// the first rotation is in progress from the start
		s.Rotation[i] = 1
		s.Enabled[i] = true
		s.GrowthEnabled[i] = true
	}
	return s
}

// Inventory is the read-only per-stand input shared by every model: ages,
// historic and last-pass disturbance matrix ids, temperatures, land class
// and regeneration delay.
type Inventory struct {
	N int

	Age                 []int
	HistoricDisturbance []int
	LastPassDisturbance []int

	// MeanAnnualTemp drives decay during stepping; HistoricMeanTemp is the
	// long-run mean used for every spinup iteration.
	MeanAnnualTemp   []float64
	HistoricMeanTemp []float64

	LandClass []int
	Delay     []int
}

func (inv *Inventory) Validate() error {
	check := func(name string, got int) error {
		if got != inv.N {
			return fmt.Errorf("%w: inventory column %s has %d rows, want %d",
				flow.ErrShapeMismatch, name, got, inv.N)
		}
		return nil
	}
	for _, c := range []struct {
		name string
		n    int
	}{
		{"age", len(inv.Age)},
		{"historic_disturbance", len(inv.HistoricDisturbance)},
		{"last_pass_disturbance", len(inv.LastPassDisturbance)},
		{"mean_annual_temp", len(inv.MeanAnnualTemp)},
		{"historic_mean_temp", len(inv.HistoricMeanTemp)},
		{"land_class", len(inv.LandClass)},
		{"delay", len(inv.Delay)},
	} {
		if err := check(c.name, c.n); err != nil {
			return err
		}
	}
	return nil
}

// PromoteInt expands a scalar parameter to a per-stand vector. Vectors pass
// through unchanged.
func PromoteInt(value, n int) []int {
	v := make([]int, n)
	for i := range v {
		v[i] = value
	}
	return v
}
