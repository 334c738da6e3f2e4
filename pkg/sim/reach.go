package sim

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/opmstudio/engine/pkg/petri"
)

// ErrStateSpaceTooLarge is returned when reachability exploration exceeds
// its node cap before exhausting the state space.
var ErrStateSpaceTooLarge = errors.New("sim: state space too large")

// ReachNode is one distinct marking in the reachability graph.
type ReachNode struct {
	Key     string
	Marking petri.Marking
}

// ReachEdge records that firing Transition from the marking keyed From
// produces the marking keyed To.
type ReachEdge struct {
	From       string
	To         string
	Transition string
}

// ReachGraph is the deduplicated marking graph explored breadth-first from
// the initial marking.
type ReachGraph struct {
	Nodes map[string]*ReachNode
	Edges []ReachEdge
	// Deadlocks holds the keys of markings with no enabled transition.
	Deadlocks []string
}

// MarkingKey canonicalizes a marking: place ids sorted, zero counts
// dropped. Two markings are the same state iff their keys are equal.
func MarkingKey(m petri.Marking) string {
	ids := make([]string, 0, len(m))
	for pid, n := range m {
		if n != 0 {
			ids = append(ids, pid)
		}
	}
	sort.Strings(ids)
	var b strings.Builder
	for i, pid := range ids {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(pid)
		b.WriteByte('=')
		b.WriteString(strconv.Itoa(m[pid]))
	}
	return b.String()
}

// Reachability explores every marking reachable from the net's initial
// marking, firing transitions in lowest-id order so the traversal is
// deterministic. maxNodes bounds the number of distinct markings; crossing
// it returns ErrStateSpaceTooLarge with the graph built so far.
func Reachability(net *petri.Net, maxNodes int) (*ReachGraph, error) {
	g := &ReachGraph{Nodes: make(map[string]*ReachNode)}

	initial := net.Initial.Clone()
	key := MarkingKey(initial)
	g.Nodes[key] = &ReachNode{Key: key, Marking: initial}
	queue := []string{key}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		m := g.Nodes[cur].Marking

		enabled := enabledSet(net, m)
		if len(enabled) == 0 {
			g.Deadlocks = append(g.Deadlocks, cur)
			continue
		}
		for _, tid := range enabled {
			next := fire(net.Transitions[tid], m)
			nkey := MarkingKey(next)
			if _, seen := g.Nodes[nkey]; !seen {
				if len(g.Nodes) >= maxNodes {
					return g, fmt.Errorf("%w: cap %d", ErrStateSpaceTooLarge, maxNodes)
				}
				g.Nodes[nkey] = &ReachNode{Key: nkey, Marking: next}
				queue = append(queue, nkey)
			}
			g.Edges = append(g.Edges, ReachEdge{From: cur, To: nkey, Transition: tid})
		}
	}
	sort.Strings(g.Deadlocks)
	return g, nil
}
