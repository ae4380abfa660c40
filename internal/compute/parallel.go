package compute

import (
	"runtime"
	"sync"

	"github.com/san-kum/carbonsim/internal/flow"
)

// Below this many stands the chunking overhead is not worth paying.
const parallelThreshold = 64

// Parallel partitions the stand axis across workers. Stands are independent,
// so workers share nothing but their own row ranges; the barrier between
// operations preserves the sequential composition contract.
type Parallel struct {
	workers int
}

func NewParallel(workers int) *Parallel {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Parallel{workers: workers}
}

func (p *Parallel) Name() string    { return "parallel" }
func (p *Parallel) Available() bool { return true }
func (p *Parallel) Cleanup()        {}

func (p *Parallel) Apply(ops []*flow.Operation, pools *flow.Pools, enabled []bool) error {
	if err := validate(ops, pools, enabled); err != nil {
		return err
	}
	for _, op := range ops {
		pools.ResetInput(enabled)
		p.forStands(pools.N, func(start, end int) {
			scratch := make([]float64, pools.P)
			for st := start; st < end; st++ {
				if enabled != nil && !enabled[st] {
					continue
				}
				applyStand(op.Entries(st), pools.Row(st), scratch)
			}
		})
	}
	return nil
}

func (p *Parallel) ApplyWithFlux(ops []*flow.Operation, layout *flow.Layout, pools *flow.Pools, flux *flow.Flux, enabled []bool) error {
	if err := validate(ops, pools, enabled); err != nil {
		return err
	}
	if err := validateFlux(layout, pools, flux); err != nil {
		return err
	}
	for _, op := range ops {
		r := routes(layout, op)
		mats := op.Matrices()
		pools.ResetInput(enabled)
		p.forStands(pools.N, func(start, end int) {
			scratch := make([]float64, pools.P)
			for st := start; st < end; st++ {
				if enabled != nil && !enabled[st] {
					continue
				}
				m := op.MatrixIndex(st)
				applyStandFlux(mats[m], r[m], pools.Row(st), scratch, flux.Row(st))
			}
		})
	}
	return nil
}

func (p *Parallel) forStands(n int, fn func(start, end int)) {
	if n < parallelThreshold || p.workers <= 1 {
		fn(0, n)
		return
	}
	workers := p.workers
	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if start >= n {
			break
		}
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
