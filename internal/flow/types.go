package flow

// PoolInput is the reserved constant source column in every pool batch.
const PoolInput = 0

// Pools is an N x P batch of per-stand pool vectors stored row-major.
type Pools struct {
	N, P int
	data []float64
}

func NewPools(n, p int) *Pools {
	return &Pools{N: n, P: p, data: make([]float64, n*p)}
}

// Row returns the pool vector of one stand, backed by the batch storage.
func (p *Pools) Row(stand int) []float64 {
	return p.data[stand*p.P : (stand+1)*p.P]
}

func (p *Pools) Clone() *Pools {
	c := &Pools{N: p.N, P: p.P, data: make([]float64, len(p.data))}
	copy(c.data, p.data)
	return c
}

// ResetInput sets the Input column to 1.0 for every enabled stand. Disabled
// stands are not written.
func (p *Pools) ResetInput(enabled []bool) {
	for s := 0; s < p.N; s++ {
		if enabled == nil || enabled[s] {
			p.data[s*p.P+PoolInput] = 1.0
		}
	}
}

// Flux is an N x F accumulator of categorized carbon movement. It is zeroed
// by the caller once per timestep, never by the engine.
type Flux struct {
	N, F int
	data []float64
}

func NewFlux(n, f int) *Flux {
	return &Flux{N: n, F: f, data: make([]float64, n*f)}
}

func (f *Flux) Row(stand int) []float64 {
	return f.data[stand*f.F : (stand+1)*f.F]
}

func (f *Flux) Zero() {
	for i := range f.data {
		f.data[i] = 0
	}
}

func (f *Flux) Clone() *Flux {
	c := &Flux{N: f.N, F: f.F, data: make([]float64, len(f.data))}
	copy(c.data, f.data)
	return c
}
