package petri

import (
	"errors"
	"fmt"

	"github.com/opmstudio/engine/pkg/graph"
	"github.com/opmstudio/engine/pkg/model"
)

// ErrUnsupportedTopology is returned when a procedural link endpoint cannot
// be resolved to a place.
var ErrUnsupportedTopology = errors.New("petri: unsupported topology")

// Build derives a place/transition net from the current diagram.
//
// Every object contributes a place; an object with states contributes one
// place per state plus an object-level place, and procedural links drawn to
// the bare object bind to that object-level place. Every process becomes a
// transition. Consumption links consume, result links produce, and agent,
// instrument and effect links become test arcs into the transition.
// Structural links carry no tokens and are ignored.
//
// The initial marking puts one token on each stateless object's place and
// on each declared-initial state's place; an object with states but no
// initial state gets its token on the object-level place.
func Build(st *graph.Store) (*Net, error) {
	net := &Net{
		Places:      make(map[string]*Place),
		Transitions: make(map[string]*Transition),
		Initial:     make(Marking),
	}

	for _, n := range st.Nodes() {
		switch n.Kind {
		case model.KindObject:
			net.Places[placeID(n.ID, "")] = &Place{
				ID:       placeID(n.ID, ""),
				Label:    n.Label,
				ObjectID: n.ID,
			}
			states := st.StatesOf(n.ID)
			for _, s := range states {
				net.Places[placeID(n.ID, s.ID)] = &Place{
					ID:       placeID(n.ID, s.ID),
					Label:    n.Label + ": " + s.Label,
					ObjectID: n.ID,
					StateID:  s.ID,
				}
			}
			marked := placeID(n.ID, "")
			for _, s := range states {
				if s.Initial {
					marked = placeID(n.ID, s.ID)
				}
			}
			net.Initial[marked] = 1
		case model.KindProcess:
			net.Transitions[transitionID(n.ID)] = &Transition{
				ID:        transitionID(n.ID),
				Label:     n.Label,
				ProcessID: n.ID,
			}
		}
	}

	for _, l := range st.Links() {
		if !l.Kind.IsProcedural() {
			continue
		}
		if err := bindArc(st, net, l); err != nil {
			return nil, err
		}
	}
	return net, nil
}

// bindArc attaches one procedural link to its transition.
func bindArc(st *graph.Store, net *Net, l *model.Link) error {
	src, err := st.GetNode(l.SourceID)
	if err != nil {
		return fmt.Errorf("%w: link %s source %s", ErrUnsupportedTopology, l.ID, l.SourceID)
	}
	dst, err := st.GetNode(l.TargetID)
	if err != nil {
		return fmt.Errorf("%w: link %s target %s", ErrUnsupportedTopology, l.ID, l.TargetID)
	}

	// Orient so proc is the transition side; effect links may be stored in
	// either direction.
	proc, other := dst, src
	if src.Kind == model.KindProcess {
		proc, other = src, dst
	}
	if proc.Kind != model.KindProcess || other.Kind == model.KindProcess {
		return fmt.Errorf("%w: link %s joins %s and %s", ErrUnsupportedTopology, l.ID, src.Kind, dst.Kind)
	}

	pid, err := resolvePlace(net, other)
	if err != nil {
		return fmt.Errorf("%w: link %s: %v", ErrUnsupportedTopology, l.ID, err)
	}
	return attachArc(net, l.Kind, proc.ID, pid)
}

func attachArc(net *Net, kind model.LinkKind, processID, pid string) error {
	t, ok := net.Transitions[transitionID(processID)]
	if !ok {
		return fmt.Errorf("%w: no transition for process %s", ErrUnsupportedTopology, processID)
	}
	switch kind {
	case model.LinkConsumption:
		t.Inputs = append(t.Inputs, Arc{Kind: ArcConsume, PlaceID: pid})
	case model.LinkResult:
		t.Outputs = append(t.Outputs, Arc{Kind: ArcProduce, PlaceID: pid})
	case model.LinkAgent, model.LinkInstrument, model.LinkEffect:
		t.Inputs = append(t.Inputs, Arc{Kind: ArcTest, PlaceID: pid})
	default:
		return fmt.Errorf("%w: link kind %s", ErrUnsupportedTopology, kind)
	}
	return nil
}

// resolvePlace maps an object or state node to its place id.
func resolvePlace(net *Net, n *model.Node) (string, error) {
	var pid string
	switch n.Kind {
	case model.KindObject:
		pid = placeID(n.ID, "")
	case model.KindState:
		pid = placeID(n.ParentObjectID, n.ID)
	default:
		return "", fmt.Errorf("node %s is a %s", n.ID, n.Kind)
	}
	if _, ok := net.Places[pid]; !ok {
		return "", fmt.Errorf("no place for node %s", n.ID)
	}
	return pid, nil
}

func placeID(objectID, stateID string) string {
	if stateID == "" {
		return "place_" + objectID
	}
	return "place_" + objectID + "_" + stateID
}

func transitionID(processID string) string {
	return "transition_" + processID
}
