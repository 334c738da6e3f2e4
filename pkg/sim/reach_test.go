package sim

import (
	"errors"
	"testing"

	"github.com/opmstudio/engine/pkg/graph"
	"github.com/opmstudio/engine/pkg/model"
	"github.com/opmstudio/engine/pkg/petri"
)

// TestMarkingKeyCanonical same marking, same key, regardless of zeros
func TestMarkingKeyCanonical(t *testing.T) {
	a := petri.Marking{"place_b": 1, "place_a": 2}
	b := petri.Marking{"place_a": 2, "place_b": 1, "place_c": 0}
	if MarkingKey(a) != MarkingKey(b) {
		t.Errorf("Keys differ: %q vs %q", MarkingKey(a), MarkingKey(b))
	}
	if got := MarkingKey(a); got != "place_a=2 place_b=1" {
		t.Errorf("Key = %q", got)
	}
	if MarkingKey(petri.Marking{}) != "" {
		t.Error("Empty marking should key to the empty string")
	}
}

// TestReachabilityLinearChain two states beyond the initial one, one deadlock
func TestReachabilityLinearChain(t *testing.T) {
	net, _, knowPl, readTr := readingNet(t)
	g, err := Reachability(net, 100)
	if err != nil {
		t.Fatalf("Reachability: %v", err)
	}
	if len(g.Nodes) != 2 {
		t.Fatalf("%d nodes, want 2", len(g.Nodes))
	}
	if len(g.Edges) != 1 || g.Edges[0].Transition != readTr {
		t.Fatalf("Edges = %+v", g.Edges)
	}
	if len(g.Deadlocks) != 1 {
		t.Fatalf("Deadlocks = %v, want one", g.Deadlocks)
	}
	dead := g.Nodes[g.Deadlocks[0]]
	if dead.Marking.Tokens(knowPl) != 1 {
		t.Errorf("Deadlock marking = %v", dead.Marking)
	}
}

// TestReachabilityBranchRejoin two orders of firing meet in one marking
func TestReachabilityBranchRejoin(t *testing.T) {
	st := graph.NewStore()
	a, _ := st.AddNode(model.KindObject, "A", model.Geometry{}, "")
	b, _ := st.AddNode(model.KindObject, "B", model.Geometry{}, "")
	x, _ := st.AddNode(model.KindObject, "X", model.Geometry{}, "")
	y, _ := st.AddNode(model.KindObject, "Y", model.Geometry{}, "")
	p1, _ := st.AddNode(model.KindProcess, "Left", model.Geometry{}, "")
	p2, _ := st.AddNode(model.KindProcess, "Right", model.Geometry{}, "")
	st.AddLink(model.LinkConsumption, a.ID, p1.ID, nil, nil)
	st.AddLink(model.LinkResult, p1.ID, x.ID, nil, nil)
	st.AddLink(model.LinkConsumption, b.ID, p2.ID, nil, nil)
	st.AddLink(model.LinkResult, p2.ID, y.ID, nil, nil)

	net, _ := petri.Build(st)
	net.Initial = petri.Marking{"place_" + a.ID: 1, "place_" + b.ID: 1}
	g, err := Reachability(net, 100)
	if err != nil {
		t.Fatalf("Reachability: %v", err)
	}
	// {A,B} -> {X,B} or {A,Y} -> {X,Y}: four markings, four edges, one sink
	if len(g.Nodes) != 4 {
		t.Errorf("%d nodes, want 4", len(g.Nodes))
	}
	if len(g.Edges) != 4 {
		t.Errorf("%d edges, want 4", len(g.Edges))
	}
	if len(g.Deadlocks) != 1 {
		t.Errorf("Deadlocks = %v, want one", g.Deadlocks)
	}
}

// TestReachabilityDeterministic two explorations agree edge for edge
func TestReachabilityDeterministic(t *testing.T) {
	net, _, _, _ := readingNet(t)
	g1, err := Reachability(net, 100)
	if err != nil {
		t.Fatalf("Reachability: %v", err)
	}
	g2, err := Reachability(net, 100)
	if err != nil {
		t.Fatalf("Reachability: %v", err)
	}
	if len(g1.Edges) != len(g2.Edges) {
		t.Fatal("Edge counts differ between runs")
	}
	for i := range g1.Edges {
		if g1.Edges[i] != g2.Edges[i] {
			t.Errorf("Edge %d differs: %+v vs %+v", i, g1.Edges[i], g2.Edges[i])
		}
	}
}

// TestReachabilityNodeCap an unbounded producer loop trips the cap
func TestReachabilityNodeCap(t *testing.T) {
	st := graph.NewStore()
	obj, _ := st.AddNode(model.KindObject, "Seed", model.Geometry{}, "")
	grow, _ := st.AddNode(model.KindProcess, "Growing", model.Geometry{}, "")
	// Test arc input keeps the transition enabled while each firing adds a
	// token, so every marking is new.
	st.AddLink(model.LinkInstrument, obj.ID, grow.ID, nil, nil)
	st.AddLink(model.LinkResult, grow.ID, obj.ID, nil, nil)

	net, _ := petri.Build(st)
	g, err := Reachability(net, 10)
	if !errors.Is(err, ErrStateSpaceTooLarge) {
		t.Fatalf("Expected ErrStateSpaceTooLarge, got %v", err)
	}
	if len(g.Nodes) != 10 {
		t.Errorf("Partial graph has %d nodes, want the cap of 10", len(g.Nodes))
	}
}

// TestReachabilityExploresFromInitialOnly the simulator's own marking does
// not leak into exploration
func TestReachabilityExploresFromInitialOnly(t *testing.T) {
	net, bookPl, _, _ := readingNet(t)
	s := New(net)
	if _, err := s.Step(LowestID); err != nil {
		t.Fatalf("Step: %v", err)
	}
	g, err := Reachability(net, 100)
	if err != nil {
		t.Fatalf("Reachability: %v", err)
	}
	root := g.Nodes[MarkingKey(net.Initial)]
	if root == nil || root.Marking.Tokens(bookPl) != 1 {
		t.Error("Exploration root is not the initial marking")
	}
}
