package flow

import "fmt"

// Coord is a single proportional flow: Value of the Src pool moves to Snk.
// A Src == Snk entry sets the source's retention explicitly.
type Coord struct {
	Src   int
	Snk   int
	Value float64
}

// Operation is a named sparse flow matrix batch: either one matrix shared by
// all stands, or a matrix list addressed by a per-stand index. Matrices are
// normalized at construction so that every pool row carries an explicit
// retention entry.
type Operation struct {
	Name    string
	Process Process

	nPools   int
	matrices [][]Coord
	index    []int // nil means matrix 0 is shared by all stands
}

// NewOperation builds an operation with a single matrix shared by all stands.
func NewOperation(name string, proc Process, nPools int, coords []Coord) (*Operation, error) {
	m, err := normalize(nPools, coords)
	if err != nil {
		return nil, fmt.Errorf("op %q: %w", name, err)
	}
	return &Operation{
		Name:     name,
		Process:  proc,
		nPools:   nPools,
		matrices: [][]Coord{m},
	}, nil
}

// NewIndexedOperation builds an operation from a matrix list and a per-stand
// index into that list.
func NewIndexedOperation(name string, proc Process, nPools int, matrices [][]Coord, index []int) (*Operation, error) {
	norm := make([][]Coord, len(matrices))
	for i, coords := range matrices {
		m, err := normalize(nPools, coords)
		if err != nil {
			return nil, fmt.Errorf("op %q matrix %d: %w", name, i, err)
		}
		norm[i] = m
	}
	for s, ix := range index {
		if ix < 0 || ix >= len(matrices) {
			return nil, fmt.Errorf("op %q: stand %d: matrix index %d out of range: %w",
				name, s, ix, ErrShapeMismatch)
		}
	}
	return &Operation{
		Name:     name,
		Process:  proc,
		nPools:   nPools,
		matrices: norm,
		index:    index,
	}, nil
}

// NewPerStandOperation builds an operation with one matrix per stand, in
// stand order.
func NewPerStandOperation(name string, proc Process, nPools int, matrices [][]Coord) (*Operation, error) {
	index := make([]int, len(matrices))
	for i := range index {
		index[i] = i
	}
	return NewIndexedOperation(name, proc, nPools, matrices, index)
}

// Identity returns an operation that leaves every pool vector unchanged.
func Identity(name string, proc Process, nPools int) *Operation {
	op, _ := NewOperation(name, proc, nPools, nil)
	return op
}

// Entries returns the normalized matrix for one stand.
func (op *Operation) Entries(stand int) []Coord {
	if op.index == nil {
		return op.matrices[0]
	}
	return op.matrices[op.index[stand]]
}

// Matrices returns the normalized matrix list backing this operation.
func (op *Operation) Matrices() [][]Coord { return op.matrices }

// MatrixIndex returns the index into Matrices used by one stand.
func (op *Operation) MatrixIndex(stand int) int {
	if op.index == nil {
		return 0
	}
	return op.index[stand]
}

// Validate checks the operation against the batch dimensions it will be
// applied to.
func (op *Operation) Validate(nStands, nPools int) error {
	if op.nPools != nPools {
		return fmt.Errorf("op %q: built for %d pools, batch has %d: %w",
			op.Name, op.nPools, nPools, ErrShapeMismatch)
	}
	if op.index != nil && len(op.index) != nStands {
		return fmt.Errorf("op %q: index length %d, batch has %d stands: %w",
			op.Name, len(op.index), nStands, ErrShapeMismatch)
	}
	return nil
}

// normalize completes a coordinate list into a full transfer matrix in sparse
// form: off-diagonal entries accumulate, an explicit diagonal sets retention,
// and rows with outflow but no diagonal retain one minus their outflow sum.
// Untouched rows retain everything.
func normalize(nPools int, coords []Coord) ([]Coord, error) {
	outflow := make([]float64, nPools)
	diag := make([]float64, nPools)
	hasDiag := make([]bool, nPools)

	out := make([]Coord, 0, len(coords)+nPools)
	for _, c := range coords {
		if c.Src < 0 || c.Src >= nPools || c.Snk < 0 || c.Snk >= nPools {
			return nil, fmt.Errorf("coordinate (%d,%d) out of range for %d pools: %w",
				c.Src, c.Snk, nPools, ErrShapeMismatch)
		}
		if c.Src == c.Snk {
			diag[c.Src] = c.Value
			hasDiag[c.Src] = true
			continue
		}
		outflow[c.Src] += c.Value
		out = append(out, c)
	}
	for i := 0; i < nPools; i++ {
		switch {
		case hasDiag[i]:
			out = append(out, Coord{Src: i, Snk: i, Value: diag[i]})
		case outflow[i] != 0:
			out = append(out, Coord{Src: i, Snk: i, Value: 1 - outflow[i]})
		default:
			out = append(out, Coord{Src: i, Snk: i, Value: 1})
		}
	}
	return out, nil
}
