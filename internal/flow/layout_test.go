package flow

import "testing"

func testLayout(t *testing.T) *Layout {
	t.Helper()
	l, err := NewLayout([]string{"Input", "Live", "Dead", "CO2"}, []Indicator{
		{Name: "NPP", Process: ProcessGrowth, Sources: []int{0}, Sinks: []int{1}},
		{Name: "Turnover", Process: ProcessBiomassTurnover, Sources: []int{1}, Sinks: []int{2}},
		{Name: "Emissions", Process: ProcessDOMDecay, Sources: []int{2}, Sinks: []int{3}},
		{Name: "AllToCO2", Process: ProcessDOMDecay, Sources: []int{1, 2}, Sinks: []int{3}},
	})
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	return l
}

func TestLayoutRoutes(t *testing.T) {
	l := testLayout(t)

	routes := l.Routes(ProcessGrowth, 0, 1)
	if len(routes) != 1 || routes[0] != 0 {
		t.Errorf("expected route to indicator 0, got %v", routes)
	}

	// same movement, wrong process: no route
	if routes := l.Routes(ProcessDOMDecay, 0, 1); routes != nil {
		t.Errorf("expected no routes, got %v", routes)
	}

	// one movement can feed several indicators
	routes = l.Routes(ProcessDOMDecay, 2, 3)
	if len(routes) != 2 {
		t.Errorf("expected 2 routes, got %v", routes)
	}
}

func TestLayoutPoolIndex(t *testing.T) {
	l := testLayout(t)
	if i, ok := l.PoolIndex("Dead"); !ok || i != 2 {
		t.Errorf("expected Dead at 2, got %d (%v)", i, ok)
	}
	if _, ok := l.PoolIndex("Missing"); ok {
		t.Error("expected lookup miss")
	}
}

func TestLayoutDuplicatePool(t *testing.T) {
	if _, err := NewLayout([]string{"A", "A"}, nil); err == nil {
		t.Error("expected error for duplicate pool name")
	}
}

func TestLayoutBadIndicator(t *testing.T) {
	_, err := NewLayout([]string{"A", "B"}, []Indicator{
		{Name: "bad", Process: ProcessNone, Sources: []int{7}, Sinks: []int{0}},
	})
	if err == nil {
		t.Error("expected error for out of range source")
	}
}
