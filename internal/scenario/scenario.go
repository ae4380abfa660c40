// Package scenario binds a configuration file to a runnable simulation: it
// loads the input tables, assembles the model for the configured backend,
// and drives spinup plus the stepped projection while collecting metrics.
package scenario

import (
	"context"
	"fmt"

	"github.com/san-kum/carbonsim/internal/compute"
	"github.com/san-kum/carbonsim/internal/config"
	"github.com/san-kum/carbonsim/internal/flow"
	"github.com/san-kum/carbonsim/internal/metrics"
	"github.com/san-kum/carbonsim/internal/sim"
	"github.com/san-kum/carbonsim/internal/storage"
)

// Event is one scheduled disturbance: the stand is disturbed with the given
// matrix at the given timestep, optionally remapped by a transition rule.
type Event struct {
	Timestep        int
	Stand           int
	DisturbanceType int
	TransitionRule  int
}

type Scenario struct {
	cfg       *config.Config
	model     *sim.Model
	inventory *sim.Inventory
	events    map[int][]Event
	metrics   []metrics.Metric
	backend   compute.Backend

	// resolveDisturbance maps a matrix name to its id, when the loaded
	// matrix library carries names
	resolveDisturbance func(string) (int, bool)
}

// Result bundles everything a finished run produces.
type Result struct {
	Meta   storage.RunMetadata
	Data   *storage.RunResult
	Spinup *sim.SpinupResult
}

func (s *Scenario) Model() *sim.Model { return s.model }

func (s *Scenario) Stands() int { return s.inventory.N }

// Load builds a runnable scenario from a configuration.
func Load(cfg *config.Config) (*Scenario, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	backend, err := compute.New(cfg.Backend)
	if err != nil {
		return nil, err
	}

	s := &Scenario{cfg: cfg, backend: backend, events: map[int][]Event{}}
	switch cfg.Model {
	case "cbm":
		err = s.loadCBM()
	case "moss":
		err = s.loadMoss()
	}
	if err != nil {
		return nil, err
	}

	if cfg.Step.Disturbances != "" {
		if err := s.loadEvents(cfg.Step.Disturbances); err != nil {
			return nil, err
		}
	}

	s.defaultMetrics()
	return s, nil
}

func (s *Scenario) defaultMetrics() {
	layout := s.model.Layout()
	var pools []int
	for p := flow.PoolInput + 1; p < layout.NPools(); p++ {
		pools = append(pools, p)
	}
	s.metrics = append(s.metrics, metrics.NewTotalCarbon("total_carbon", pools))

	var growth []int
	for i, name := range layout.FluxNames() {
		if name == "NPP" || name == "MossNPP" {
			growth = append(growth, i)
		}
	}
	if len(growth) > 0 {
		s.metrics = append(s.metrics, metrics.NewMassBalance("mass_balance_drift", growth))
		s.metrics = append(s.metrics, metrics.NewFluxTotal("npp_total", growth[0]))
	}
}

// AddObserver forwards spinup iteration observers to the model.
func (s *Scenario) AddObserver(o sim.Observer) { s.model.AddObserver(o) }

// Run spins the batch up to its pre-simulation state and projects it through
// the configured number of timesteps.
func (s *Scenario) Run(ctx context.Context) (*Result, error) {
	spinupResult, err := s.model.Spinup(s.inventory, &sim.SpinupParams{
		ReturnInterval: sim.PromoteInt(s.cfg.Spinup.ReturnInterval, s.inventory.N),
		MaxRotations:   sim.PromoteInt(s.cfg.Spinup.MaxRotations, s.inventory.N),
		MaxIterations:  s.cfg.Spinup.MaxIterations,
	})
	if err != nil {
		return nil, fmt.Errorf("spinup: %w", err)
	}

	layout := s.model.Layout()
	pools := spinupResult.Pools
	state := spinupResult.State
	flux := flow.NewFlux(s.inventory.N, layout.NFlux())

	data := &storage.RunResult{
		Layout: layout,
		Pools:  []*flow.Pools{pools.Clone()},
	}
	for _, m := range s.metrics {
		m.Observe(0, pools, nil)
	}

	for step := 1; step <= s.cfg.Step.Steps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		params := s.stepParams(step)
		if err := s.model.Step(pools, flux, state, params); err != nil {
			return nil, fmt.Errorf("step %d: %w", step, err)
		}
		data.Pools = append(data.Pools, pools.Clone())
		data.Flux = append(data.Flux, flux.Clone())
		for _, m := range s.metrics {
			m.Observe(step, pools, flux)
		}
	}

	meta := storage.RunMetadata{
		Name:             s.cfg.Output.Name,
		Model:            s.cfg.Model,
		Backend:          s.backend.Name(),
		Stands:           s.inventory.N,
		Steps:            s.cfg.Step.Steps,
		SpinupIterations: spinupResult.Iterations,
		NotConverged:     len(spinupResult.NotConverged),
		Summary:          map[string]float64{},
	}
	for _, m := range s.metrics {
		meta.Summary[m.Name()] = m.Value()
	}
	return &Result{Meta: meta, Data: data, Spinup: spinupResult}, nil
}

func (s *Scenario) stepParams(step int) *sim.StepParams {
	n := s.inventory.N
	params := &sim.StepParams{
		DisturbanceType: make([]int, n),
		TransitionRule:  make([]int, n),
		MeanAnnualTemp:  append([]float64(nil), s.inventory.MeanAnnualTemp...),
	}
	for _, ev := range s.events[step] {
		params.DisturbanceType[ev.Stand] = ev.DisturbanceType
		params.TransitionRule[ev.Stand] = ev.TransitionRule
	}
	return params
}
