// Package petri holds the place/transition net the simulator runs on, plus
// the transformer that derives one from a diagram graph. The net is a pure
// value: building it never touches the store, and firing it never feeds
// back into the diagram.
package petri

import "sort"

// ArcKind distinguishes how a transition relates to an input place.
type ArcKind uint8

const (
	// ArcConsume moves a token from the place when the transition fires.
	ArcConsume ArcKind = iota
	// ArcProduce deposits a token in the place when the transition fires.
	ArcProduce
	// ArcTest requires a token but leaves it in place.
	ArcTest
)

// Place is a token holder derived from an object or one of its states.
type Place struct {
	ID       string
	Label    string
	ObjectID string
	// StateID is empty for the object-level ("stateless") place.
	StateID string
}

// Arc connects a transition to a place with unit weight.
type Arc struct {
	Kind    ArcKind
	PlaceID string
}

// Transition is derived from a process. Inputs holds consume and test arcs,
// Outputs holds produce arcs.
type Transition struct {
	ID        string
	Label     string
	ProcessID string
	Inputs    []Arc
	Outputs   []Arc
}

// Marking maps place id to token count. Places absent from the map hold
// zero tokens.
type Marking map[string]int

// Clone returns an independent copy, dropping zero entries.
func (m Marking) Clone() Marking {
	out := make(Marking, len(m))
	for pid, n := range m {
		if n != 0 {
			out[pid] = n
		}
	}
	return out
}

// Tokens returns the count at a place, zero if unmarked.
func (m Marking) Tokens(placeID string) int {
	return m[placeID]
}

// Total returns the token count over all places.
func (m Marking) Total() int {
	sum := 0
	for _, n := range m {
		sum += n
	}
	return sum
}

// Net is an immutable place/transition net with its initial marking.
type Net struct {
	Places      map[string]*Place
	Transitions map[string]*Transition
	Initial     Marking
}

// PlaceIDs returns all place ids in sorted order.
func (n *Net) PlaceIDs() []string {
	ids := make([]string, 0, len(n.Places))
	for pid := range n.Places {
		ids = append(ids, pid)
	}
	sort.Strings(ids)
	return ids
}

// TransitionIDs returns all transition ids in sorted order.
func (n *Net) TransitionIDs() []string {
	ids := make([]string, 0, len(n.Transitions))
	for tid := range n.Transitions {
		ids = append(ids, tid)
	}
	sort.Strings(ids)
	return ids
}
