package layout

import (
	"github.com/opmstudio/engine/pkg/graph"
)

// HierarchicalLayout arranges nodes in layers following link direction:
// consumed objects above the processes that consume them, results below.
type HierarchicalLayout struct {
	config *Config
}

// NewHierarchicalLayout creates a new hierarchical layout
func NewHierarchicalLayout(config *Config) *HierarchicalLayout {
	if config.Padding == 0 {
		config.Padding = 50
	}
	return &HierarchicalLayout{config: config}
}

// Compute arranges nodes level by level.
func (hl *HierarchicalLayout) Compute(st *graph.Store) (map[string]Position, error) {
	positions := make(map[string]Position)
	nodes := layoutNodes(st)
	if len(nodes) == 0 {
		return positions, nil
	}
	neighbors := flowNeighbors(st)

	// Roots are nodes nothing points at.
	hasIncoming := make(map[string]bool)
	for _, targets := range neighbors {
		for _, dst := range targets {
			hasIncoming[dst] = true
		}
	}
	var roots []string
	for _, n := range nodes {
		if !hasIncoming[n.ID] {
			roots = append(roots, n.ID)
		}
	}
	if len(roots) == 0 {
		// Fully cyclic diagram, start anywhere.
		roots = []string{nodes[0].ID}
	}

	// Build levels using BFS
	var levels [][]string
	visited := make(map[string]bool)
	currentLevel := roots
	for _, id := range roots {
		visited[id] = true
	}
	for len(currentLevel) > 0 {
		levels = append(levels, currentLevel)
		var nextLevel []string
		for _, id := range currentLevel {
			for _, dst := range neighbors[id] {
				if !visited[dst] {
					visited[dst] = true
					nextLevel = append(nextLevel, dst)
				}
			}
		}
		currentLevel = nextLevel
	}

	// Disconnected nodes join the last level.
	for _, n := range nodes {
		if !visited[n.ID] {
			levels[len(levels)-1] = append(levels[len(levels)-1], n.ID)
		}
	}

	levelHeight := (hl.config.Height - 2*hl.config.Padding) / float64(len(levels))
	for levelIdx, level := range levels {
		y := hl.config.Padding + float64(levelIdx)*levelHeight + levelHeight/2
		levelWidth := hl.config.Width - 2*hl.config.Padding
		spacing := levelWidth / float64(len(level)+1)
		for nodeIdx, id := range level {
			x := hl.config.Padding + spacing*float64(nodeIdx+1)
			positions[id] = Position{X: x, Y: y}
		}
	}
	return positions, nil
}
