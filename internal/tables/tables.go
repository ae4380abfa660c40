package tables

import (
	"fmt"

	"github.com/san-kum/carbonsim/internal/flow"
)

// Table is a named collection of equal-length columns. Numeric columns hold
// float64; identifier columns (names, classifier values) hold strings. All
// columns added to one table must agree on length.
type Table struct {
	name string
	n    int
	set  bool

	nums map[string][]float64
	strs map[string][]string
	// column order as added, for deterministic iteration
	order []string
}

func New(name string) *Table {
	return &Table{
		name: name,
		nums: make(map[string][]float64),
		strs: make(map[string][]string),
	}
}

func (t *Table) Name() string { return t.name }

// Len is the row count shared by every column.
func (t *Table) Len() int { return t.n }

func (t *Table) Columns() []string {
	return append([]string(nil), t.order...)
}

func (t *Table) checkLen(col string, n int) error {
	if !t.set {
		t.n = n
		t.set = true
		return nil
	}
	if n != t.n {
		return fmt.Errorf("%w: table %s column %s has %d rows, want %d",
			flow.ErrShapeMismatch, t.name, col, n, t.n)
	}
	return nil
}

func (t *Table) AddNum(col string, values []float64) error {
	if err := t.checkLen(col, len(values)); err != nil {
		return err
	}
	t.nums[col] = values
	t.order = append(t.order, col)
	return nil
}

func (t *Table) AddStr(col string, values []string) error {
	if err := t.checkLen(col, len(values)); err != nil {
		return err
	}
	t.strs[col] = values
	t.order = append(t.order, col)
	return nil
}

// Num returns a numeric column by name.
func (t *Table) Num(col string) ([]float64, error) {
	v, ok := t.nums[col]
	if !ok {
		return nil, fmt.Errorf("table %s: no numeric column %s", t.name, col)
	}
	return v, nil
}

// Str returns an identifier column by name.
func (t *Table) Str(col string) ([]string, error) {
	v, ok := t.strs[col]
	if !ok {
		return nil, fmt.Errorf("table %s: no string column %s", t.name, col)
	}
	return v, nil
}

// Ints returns a numeric column truncated to int.
func (t *Table) Ints(col string) ([]int, error) {
	v, err := t.Num(col)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(v))
	for i, x := range v {
		out[i] = int(x)
	}
	return out, nil
}
