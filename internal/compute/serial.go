package compute

import "github.com/san-kum/carbonsim/internal/flow"

// Serial applies operation sets on a single goroutine. It is the reference
// implementation for the backend contract.
type Serial struct{}

func NewSerial() *Serial { return &Serial{} }

func (s *Serial) Name() string    { return "serial" }
func (s *Serial) Available() bool { return true }
func (s *Serial) Cleanup()        {}

func (s *Serial) Apply(ops []*flow.Operation, pools *flow.Pools, enabled []bool) error {
	if err := validate(ops, pools, enabled); err != nil {
		return err
	}
	scratch := make([]float64, pools.P)
	for _, op := range ops {
		pools.ResetInput(enabled)
		for st := 0; st < pools.N; st++ {
			if enabled != nil && !enabled[st] {
				continue
			}
			applyStand(op.Entries(st), pools.Row(st), scratch)
		}
	}
	return nil
}

func (s *Serial) ApplyWithFlux(ops []*flow.Operation, layout *flow.Layout, pools *flow.Pools, flux *flow.Flux, enabled []bool) error {
	if err := validate(ops, pools, enabled); err != nil {
		return err
	}
	if err := validateFlux(layout, pools, flux); err != nil {
		return err
	}
	scratch := make([]float64, pools.P)
	for _, op := range ops {
		r := routes(layout, op)
		pools.ResetInput(enabled)
		for st := 0; st < pools.N; st++ {
			if enabled != nil && !enabled[st] {
				continue
			}
			m := op.MatrixIndex(st)
			applyStandFlux(op.Matrices()[m], r[m], pools.Row(st), scratch, flux.Row(st))
		}
	}
	return nil
}
