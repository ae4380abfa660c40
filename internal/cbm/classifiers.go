package cbm

import (
	"fmt"
	"strings"
)

// Wildcard in a transition rule keeps the stand's current classifier value.
const Wildcard = "?"

// Classifiers is the immutable classifier configuration: the ordered
// classifier names and the admissible values of each. Built once, shared by
// reference.
type Classifiers struct {
	names  []string
	values []map[string]bool
}

func NewClassifiers(names []string, values [][]string) (*Classifiers, error) {
	if len(names) != len(values) {
		return nil, fmt.Errorf("cbm: %d classifier names, %d value sets", len(names), len(values))
	}
	c := &Classifiers{names: names, values: make([]map[string]bool, len(names))}
	for i, vs := range values {
		set := make(map[string]bool, len(vs))
		for _, v := range vs {
			set[v] = true
		}
		c.values[i] = set
	}
	return c, nil
}

func (c *Classifiers) Count() int { return len(c.names) }

func (c *Classifiers) Names() []string {
	return append([]string(nil), c.names...)
}

// CheckSet validates a classifier value set against the configuration.
func (c *Classifiers) CheckSet(set []string) error {
	if len(set) != len(c.names) {
		return fmt.Errorf("cbm: classifier set has %d values, want %d", len(set), len(c.names))
	}
	for i, v := range set {
		if !c.values[i][v] {
			return fmt.Errorf("cbm: classifier %s has no value %q", c.names[i], v)
		}
	}
	return nil
}

// Key flattens a classifier value set into a map key.
func Key(set []string) string {
	return strings.Join(set, "|")
}

// TransitionRule remaps a disturbed stand: classifier values (Wildcard keeps
// the current value), a post-disturbance age, and a regeneration delay.
// ResetAge < 0 leaves the age alone.
type TransitionRule struct {
	ID         int
	Values     []string
	ResetAge   int
	RegenDelay int
}

// TransitionRules is an immutable rule lookup by id.
type TransitionRules struct {
	rules map[int]TransitionRule
}

func NewTransitionRules(rules []TransitionRule, c *Classifiers) (*TransitionRules, error) {
	byID := make(map[int]TransitionRule, len(rules))
	for _, r := range rules {
		if r.ID == 0 {
			return nil, fmt.Errorf("cbm: transition rule id 0 is reserved")
		}
		if len(r.Values) != c.Count() {
			return nil, fmt.Errorf("cbm: transition rule %d has %d classifier values, want %d",
				r.ID, len(r.Values), c.Count())
		}
		if _, dup := byID[r.ID]; dup {
			return nil, fmt.Errorf("cbm: duplicate transition rule %d", r.ID)
		}
		byID[r.ID] = r
	}
	return &TransitionRules{rules: byID}, nil
}

func (t *TransitionRules) Get(id int) (TransitionRule, bool) {
	r, ok := t.rules[id]
	return r, ok
}

// Apply merges a rule into a stand's classifier set, honoring wildcards.
func (r TransitionRule) Apply(current []string) []string {
	out := make([]string, len(current))
	for i, v := range r.Values {
		if v == Wildcard {
			out[i] = current[i]
		} else {
			out[i] = v
		}
	}
	return out
}
