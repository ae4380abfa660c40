package sim

import (
	"fmt"

	"github.com/san-kum/carbonsim/internal/compute"
	"github.com/san-kum/carbonsim/internal/flow"
)

// Definition is the immutable shape of a carbon model: its pool/flux layout,
// which pools feed the spinup convergence test, and the order its annual
// process operations apply in. The disturbance operation is scheduled by the
// controllers, not listed here.
type Definition struct {
	Layout *flow.Layout

	// SlowPools are the pool indices summed into the per-rotation slow
	// carbon total.
	SlowPools []int

	// AnnualSchedule names the annual-process operations in application
	// order. Names must match the keys returned by the builder.
	AnnualSchedule []string
}

// BuildContext carries the per-stand variables an operation builder needs
// for one iteration or timestep.
type BuildContext struct {
	Age              []int
	MeanAnnualTemp   []float64
	GrowthMultiplier []float64 // nil during spinup
	Spinup           bool
}

// OperationBuilder turns biological and environmental parameters into named
// flow operations. Implementations may cache operations that do not depend
// on the context (turnover rates, for example).
type OperationBuilder interface {
	// AnnualOps returns the annual-process operations keyed by schedule
	// name.
	AnnualOps(ctx BuildContext) (map[string]*flow.Operation, error)

	// DisturbanceOp resolves per-stand disturbance matrix ids (0 meaning
	// none) into a single indexed operation.
	DisturbanceOp(types []int) (*flow.Operation, error)
}

// Transitioner is implemented by builders whose models support transition
// rules: a rule may remap a stand's classifier set and dictate regeneration
// behavior. A negative resetAge means the stand's age is left alone.
type Transitioner interface {
	Transition(stand, rule int) (resetAge, regenDelay int, err error)
}

// Observer receives the batch state after each spinup iteration.
type Observer interface {
	OnIteration(iteration int, pools *flow.Pools, state *State)
}

// Model drives a carbon model definition through spinup and timestep
// simulation using a compute backend.
type Model struct {
	def       Definition
	builder   OperationBuilder
	backend   compute.Backend
	observers []Observer
}

func NewModel(def Definition, builder OperationBuilder, backend compute.Backend) (*Model, error) {
	if def.Layout == nil {
		return nil, fmt.Errorf("sim: definition has no layout")
	}
	for _, p := range def.SlowPools {
		if p < 0 || p >= def.Layout.NPools() {
			return nil, fmt.Errorf("sim: slow pool %d out of range", p)
		}
	}
	if len(def.AnnualSchedule) == 0 {
		return nil, fmt.Errorf("sim: definition has no annual schedule")
	}
	if backend == nil {
		backend = compute.Auto()
	}
	return &Model{def: def, builder: builder, backend: backend}, nil
}

func (m *Model) AddObserver(o Observer) { m.observers = append(m.observers, o) }

func (m *Model) Layout() *flow.Layout { return m.def.Layout }

// schedule resolves the definition's annual schedule against a built
// operation map, preserving order. The spinup path appends the disturbance
// operation afterward.
func (m *Model) schedule(ops map[string]*flow.Operation) ([]*flow.Operation, error) {
	seq := make([]*flow.Operation, 0, len(m.def.AnnualSchedule))
	for _, name := range m.def.AnnualSchedule {
		op, ok := ops[name]
		if !ok {
			return nil, fmt.Errorf("sim: builder produced no %q operation", name)
		}
		seq = append(seq, op)
	}
	return seq, nil
}

func (m *Model) slowSum(pools *flow.Pools, stand int) float64 {
	row := pools.Row(stand)
	var sum float64
	for _, p := range m.def.SlowPools {
		sum += row[p]
	}
	return sum
}
