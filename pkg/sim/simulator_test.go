package sim

import (
	"errors"
	"testing"

	"github.com/opmstudio/engine/pkg/graph"
	"github.com/opmstudio/engine/pkg/model"
	"github.com/opmstudio/engine/pkg/petri"
)

// readingNet builds the Book consumed by Read yielding Knowledge net and
// returns the relevant ids.
func readingNet(t *testing.T) (*petri.Net, string, string, string) {
	t.Helper()
	st := graph.NewStore()
	book, _ := st.AddNode(model.KindObject, "Book", model.Geometry{}, "")
	knowledge, _ := st.AddNode(model.KindObject, "Knowledge", model.Geometry{}, "")
	read, _ := st.AddNode(model.KindProcess, "Read", model.Geometry{}, "")
	if _, err := st.AddLink(model.LinkConsumption, book.ID, read.ID, nil, nil); err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	if _, err := st.AddLink(model.LinkResult, read.ID, knowledge.ID, nil, nil); err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	net, err := petri.Build(st)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return net, "place_" + book.ID, "place_" + knowledge.ID, "transition_" + read.ID
}

// TestStepConsumesAndProduces one step moves the token from Book to Knowledge
func TestStepConsumesAndProduces(t *testing.T) {
	net, bookPl, knowPl, readTr := readingNet(t)
	s := New(net)

	tid, err := s.Step(LowestID)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if tid != readTr {
		t.Errorf("Fired %s, want %s", tid, readTr)
	}
	m := s.Marking()
	if m.Tokens(bookPl) != 0 {
		t.Errorf("Book tokens = %d, want 0", m.Tokens(bookPl))
	}
	if m.Tokens(knowPl) != 1 {
		t.Errorf("Knowledge tokens = %d, want 1", m.Tokens(knowPl))
	}
	if got := s.History(); len(got) != 1 || got[0] != readTr {
		t.Errorf("History = %v", got)
	}
}

// TestStepDeadlock a second step fails and leaves the marking untouched
func TestStepDeadlock(t *testing.T) {
	net, _, knowPl, _ := readingNet(t)
	s := New(net)
	if _, err := s.Step(LowestID); err != nil {
		t.Fatalf("Step: %v", err)
	}

	before := s.Marking()
	if _, err := s.Step(LowestID); !errors.Is(err, ErrDeadlocked) {
		t.Fatalf("Expected ErrDeadlocked, got %v", err)
	}
	after := s.Marking()
	if after.Tokens(knowPl) != before.Tokens(knowPl) || after.Total() != before.Total() {
		t.Error("Deadlocked step moved the marking")
	}
}

// TestFireNotEnabled an explicit fire of a starved transition changes nothing
func TestFireNotEnabled(t *testing.T) {
	net, bookPl, _, readTr := readingNet(t)
	net.Initial = petri.Marking{} // starve the net
	s := New(net)

	if err := s.Fire(readTr); !errors.Is(err, ErrNotEnabled) {
		t.Fatalf("Expected ErrNotEnabled, got %v", err)
	}
	if s.Marking().Tokens(bookPl) != 0 || len(s.History()) != 0 {
		t.Error("Failed fire left a trace")
	}
}

// TestFireUnknownTransition
func TestFireUnknownTransition(t *testing.T) {
	net, _, _, _ := readingNet(t)
	s := New(net)
	if err := s.Fire("transition_process_999"); !errors.Is(err, ErrUnknownTransition) {
		t.Errorf("Expected ErrUnknownTransition, got %v", err)
	}
}

// TestTestArcsDoNotConsume agents and instruments keep their tokens
func TestTestArcsDoNotConsume(t *testing.T) {
	st := graph.NewStore()
	book, _ := st.AddNode(model.KindObject, "Book", model.Geometry{}, "")
	person, _ := st.AddNode(model.KindObject, "Person", model.Geometry{}, "")
	read, _ := st.AddNode(model.KindProcess, "Read", model.Geometry{}, "")
	st.AddLink(model.LinkConsumption, book.ID, read.ID, nil, nil)
	st.AddLink(model.LinkAgent, person.ID, read.ID, nil, nil)

	net, err := petri.Build(st)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	s := New(net)
	if err := s.Fire("transition_" + read.ID); err != nil {
		t.Fatalf("Fire: %v", err)
	}
	if got := s.Marking().Tokens("place_" + person.ID); got != 1 {
		t.Errorf("Agent tokens = %d, want 1", got)
	}
}

// TestTestArcStillGates a missing agent token keeps the transition disabled
func TestTestArcStillGates(t *testing.T) {
	st := graph.NewStore()
	book, _ := st.AddNode(model.KindObject, "Book", model.Geometry{}, "")
	person, _ := st.AddNode(model.KindObject, "Person", model.Geometry{}, "")
	read, _ := st.AddNode(model.KindProcess, "Read", model.Geometry{}, "")
	st.AddLink(model.LinkConsumption, book.ID, read.ID, nil, nil)
	st.AddLink(model.LinkAgent, person.ID, read.ID, nil, nil)

	net, _ := petri.Build(st)
	delete(net.Initial, "place_"+person.ID)
	s := New(net)
	ok, err := s.Enabled("transition_" + read.ID)
	if err != nil {
		t.Fatalf("Enabled: %v", err)
	}
	if ok {
		t.Error("Transition enabled without its agent token")
	}
}

// TestInputlessTransitionNeverEnabled a process with only a result link
// cannot fire
func TestInputlessTransitionNeverEnabled(t *testing.T) {
	st := graph.NewStore()
	out, _ := st.AddNode(model.KindObject, "Out", model.Geometry{}, "")
	gen, _ := st.AddNode(model.KindProcess, "Generating", model.Geometry{}, "")
	st.AddLink(model.LinkResult, gen.ID, out.ID, nil, nil)

	net, _ := petri.Build(st)
	s := New(net)
	ok, err := s.Enabled("transition_" + gen.ID)
	if err != nil {
		t.Fatalf("Enabled: %v", err)
	}
	if ok {
		t.Error("Input-less transition reported enabled")
	}
	if len(s.EnabledSet()) != 0 {
		t.Errorf("EnabledSet = %v, want empty", s.EnabledSet())
	}
}

// TestExplicitPolicy declines transitions outside the enabled set
func TestExplicitPolicy(t *testing.T) {
	net, _, _, readTr := readingNet(t)
	s := New(net)

	if _, err := s.Step(Explicit("transition_absent")); !errors.Is(err, ErrNotEnabled) {
		t.Fatalf("Expected ErrNotEnabled, got %v", err)
	}
	tid, err := s.Step(Explicit(readTr))
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if tid != readTr {
		t.Errorf("Fired %s, want %s", tid, readTr)
	}
}

// TestRunToFixpoint a two-stage chain runs to its dead marking
func TestRunToFixpoint(t *testing.T) {
	st := graph.NewStore()
	a, _ := st.AddNode(model.KindObject, "A", model.Geometry{}, "")
	b, _ := st.AddNode(model.KindObject, "B", model.Geometry{}, "")
	c, _ := st.AddNode(model.KindObject, "C", model.Geometry{}, "")
	p1, _ := st.AddNode(model.KindProcess, "First", model.Geometry{}, "")
	p2, _ := st.AddNode(model.KindProcess, "Second", model.Geometry{}, "")
	st.AddLink(model.LinkConsumption, a.ID, p1.ID, nil, nil)
	st.AddLink(model.LinkResult, p1.ID, b.ID, nil, nil)
	st.AddLink(model.LinkConsumption, b.ID, p2.ID, nil, nil)
	st.AddLink(model.LinkResult, p2.ID, c.ID, nil, nil)

	net, _ := petri.Build(st)
	// Only A starts marked, so the chain fires in order.
	net.Initial = petri.Marking{"place_" + a.ID: 1}
	s := New(net)

	fired, err := s.RunToFixpoint(100)
	if err != nil {
		t.Fatalf("RunToFixpoint: %v", err)
	}
	want := []string{"transition_" + p1.ID, "transition_" + p2.ID}
	if len(fired) != 2 || fired[0] != want[0] || fired[1] != want[1] {
		t.Errorf("Fired = %v, want %v", fired, want)
	}
	if got := s.Marking().Tokens("place_" + c.ID); got != 1 {
		t.Errorf("C tokens = %d, want 1", got)
	}
}

// TestRunToFixpointStepLimit a self-sustaining loop hits the budget
func TestRunToFixpointStepLimit(t *testing.T) {
	st := graph.NewStore()
	obj, _ := st.AddNode(model.KindObject, "Clock", model.Geometry{}, "")
	tick, _ := st.AddNode(model.KindProcess, "Ticking", model.Geometry{}, "")
	st.AddLink(model.LinkConsumption, obj.ID, tick.ID, nil, nil)
	st.AddLink(model.LinkResult, tick.ID, obj.ID, nil, nil)

	net, _ := petri.Build(st)
	s := New(net)
	fired, err := s.RunToFixpoint(5)
	if !errors.Is(err, ErrStepLimitExceeded) {
		t.Fatalf("Expected ErrStepLimitExceeded, got %v", err)
	}
	if len(fired) != 5 {
		t.Errorf("Fired %d transitions, want 5", len(fired))
	}
}

// TestReset rewinds marking and history
func TestReset(t *testing.T) {
	net, bookPl, _, _ := readingNet(t)
	s := New(net)
	if _, err := s.Step(LowestID); err != nil {
		t.Fatalf("Step: %v", err)
	}
	s.Reset()
	if s.Marking().Tokens(bookPl) != 1 || len(s.History()) != 0 {
		t.Error("Reset did not restore the initial marking")
	}
}
