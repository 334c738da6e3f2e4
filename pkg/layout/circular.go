package layout

import (
	"math"

	"github.com/opmstudio/engine/pkg/graph"
)

// CircularLayout arranges nodes in a circle.
type CircularLayout struct {
	config *Config
}

// NewCircularLayout creates a new circular layout
func NewCircularLayout(config *Config) *CircularLayout {
	if config.Padding == 0 {
		config.Padding = 50
	}
	return &CircularLayout{config: config}
}

// Compute places nodes evenly on a circle centered in the canvas.
func (cl *CircularLayout) Compute(st *graph.Store) (map[string]Position, error) {
	positions := make(map[string]Position)
	nodes := layoutNodes(st)
	if len(nodes) == 0 {
		return positions, nil
	}

	centerX := cl.config.Width / 2
	centerY := cl.config.Height / 2
	radius := math.Min(centerX, centerY) - cl.config.Padding
	angleStep := 2 * math.Pi / float64(len(nodes))

	for i, n := range nodes {
		angle := float64(i) * angleStep
		positions[n.ID] = Position{
			X: centerX + radius*math.Cos(angle),
			Y: centerY + radius*math.Sin(angle),
		}
	}
	return positions, nil
}
