// Package layout auto-arranges diagrams. Every algorithm positions the
// objects and processes of a diagram on a fixed canvas; states are left
// alone because their geometry is relative to the owning object.
package layout

import (
	"fmt"
	"sort"

	"github.com/opmstudio/engine/pkg/command"
	"github.com/opmstudio/engine/pkg/graph"
	"github.com/opmstudio/engine/pkg/model"
)

// Position is a 2D canvas coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Config configures layout parameters.
type Config struct {
	Width      float64 // Canvas width
	Height     float64 // Canvas height
	Iterations int     // Number of iterations for iterative algorithms
	Padding    float64 // Padding from edges
}

// Layout computes a position for every object and process in the store.
type Layout interface {
	Compute(st *graph.Store) (map[string]Position, error)
}

// ForName returns the layout algorithm registered under the given name.
func ForName(name string, config *Config) (Layout, error) {
	switch name {
	case "hierarchical":
		return NewHierarchicalLayout(config), nil
	case "force":
		return NewForceLayout(config), nil
	case "circular":
		return NewCircularLayout(config), nil
	default:
		return nil, fmt.Errorf("layout: unknown algorithm %q", name)
	}
}

// Apply moves every positioned node through the command engine, so an
// applied layout is one undo step per node.
func Apply(st *graph.Store, eng *command.Engine, positions map[string]Position) error {
	ids := make([]string, 0, len(positions))
	for id := range positions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		pos := positions[id]
		mv, err := command.NewMove(st, id, pos.X, pos.Y)
		if err != nil {
			return err
		}
		if err := eng.Execute(mv); err != nil {
			return err
		}
	}
	return nil
}

// layoutNodes returns the nodes an algorithm should place, sorted by id so
// every algorithm sees the same order.
func layoutNodes(st *graph.Store) []*model.Node {
	var nodes []*model.Node
	for _, n := range st.Nodes() {
		if n.Kind == model.KindState {
			continue
		}
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// flowNeighbors maps each placed node to the placed nodes its links point
// at, with state endpoints lifted to their parent object.
func flowNeighbors(st *graph.Store) map[string][]string {
	lift := func(id string) string {
		n, err := st.GetNode(id)
		if err != nil {
			return ""
		}
		if n.Kind == model.KindState {
			return n.ParentObjectID
		}
		return n.ID
	}
	out := make(map[string][]string)
	for _, l := range st.Links() {
		src, dst := lift(l.SourceID), lift(l.TargetID)
		if src == "" || dst == "" || src == dst {
			continue
		}
		out[src] = append(out[src], dst)
	}
	return out
}
