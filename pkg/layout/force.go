package layout

import (
	"math"
	"math/rand"

	"github.com/opmstudio/engine/pkg/graph"
)

// ForceLayout implements force-directed placement: linked nodes attract,
// all nodes repel. Seeded, so the same diagram always lands the same way.
type ForceLayout struct {
	config *Config
}

// NewForceLayout creates a new force-directed layout
func NewForceLayout(config *Config) *ForceLayout {
	if config.Iterations == 0 {
		config.Iterations = 50
	}
	if config.Padding == 0 {
		config.Padding = 50
	}
	return &ForceLayout{config: config}
}

// Compute runs the force simulation and normalizes the result to the canvas.
func (fl *ForceLayout) Compute(st *graph.Store) (map[string]Position, error) {
	nodes := layoutNodes(st)
	positions := make(map[string]Position)
	if len(nodes) == 0 {
		return positions, nil
	}
	if len(nodes) == 1 {
		positions[nodes[0].ID] = Position{X: fl.config.Width / 2, Y: fl.config.Height / 2}
		return positions, nil
	}

	rng := rand.New(rand.NewSource(int64(len(nodes))))
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
		positions[n.ID] = Position{
			X: rng.Float64()*(fl.config.Width-2*fl.config.Padding) + fl.config.Padding,
			Y: rng.Float64()*(fl.config.Height-2*fl.config.Padding) + fl.config.Padding,
		}
	}

	edgeMap := make(map[string]map[string]bool)
	for src, targets := range flowNeighbors(st) {
		for _, dst := range targets {
			if edgeMap[src] == nil {
				edgeMap[src] = make(map[string]bool)
			}
			edgeMap[src][dst] = true
		}
	}

	area := fl.config.Width * fl.config.Height
	k := math.Sqrt(area / float64(len(ids)))
	temperature := fl.config.Width / 10

	for iter := 0; iter < fl.config.Iterations; iter++ {
		forces := make(map[string]Position)

		// Repulsion between every pair
		for i, id1 := range ids {
			for j := i + 1; j < len(ids); j++ {
				id2 := ids[j]
				dx := positions[id1].X - positions[id2].X
				dy := positions[id1].Y - positions[id2].Y
				dist := math.Sqrt(dx*dx + dy*dy)
				if dist < 0.01 {
					dist = 0.01
				}
				force := (k * k) / dist
				fx := (dx / dist) * force
				fy := (dy / dist) * force
				forces[id1] = Position{X: forces[id1].X + fx, Y: forces[id1].Y + fy}
				forces[id2] = Position{X: forces[id2].X - fx, Y: forces[id2].Y - fy}
			}
		}

		// Attraction between linked nodes
		for _, id1 := range ids {
			for id2 := range edgeMap[id1] {
				if _, ok := positions[id2]; !ok {
					continue
				}
				dx := positions[id1].X - positions[id2].X
				dy := positions[id1].Y - positions[id2].Y
				dist := math.Sqrt(dx*dx + dy*dy)
				if dist < 0.01 {
					continue
				}
				force := (dist * dist) / k
				fx := (dx / dist) * force
				fy := (dy / dist) * force
				forces[id1] = Position{X: forces[id1].X - fx, Y: forces[id1].Y - fy}
				forces[id2] = Position{X: forces[id2].X + fx, Y: forces[id2].Y + fy}
			}
		}

		// Apply forces with cooling
		cool := 1.0 - float64(iter)/float64(fl.config.Iterations)
		for _, id := range ids {
			fx, fy := forces[id].X, forces[id].Y
			force := math.Sqrt(fx*fx + fy*fy)
			if force > 0 {
				dx := (fx / force) * math.Min(force, temperature) * cool
				dy := (fy / force) * math.Min(force, temperature) * cool
				positions[id] = Position{X: positions[id].X + dx, Y: positions[id].Y + dy}
			}
		}
		temperature *= 0.95
	}

	return normalizePositions(positions, fl.config.Width, fl.config.Height, fl.config.Padding), nil
}
