package model

import "sort"

// OwnershipOrder sorts nodes so every node comes after the owner or parent
// it references within the slice: processes before the nodes they own,
// objects before their states. References to nodes outside the slice do not
// affect the order. Ties break on id, so the result is deterministic.
// Bulk insertion (undo of a delete, paste, import) relies on this order so
// each node's parent is already present when it goes in.
func OwnershipOrder(nodes []*Node) []*Node {
	inSet := make(map[string]*Node, len(nodes))
	for _, n := range nodes {
		inSet[n.ID] = n
	}
	depthOf := make(map[string]int, len(nodes))
	var depth func(n *Node) int
	depth = func(n *Node) int {
		if d, ok := depthOf[n.ID]; ok {
			return d
		}
		depthOf[n.ID] = 0 // cycle guard; ownership is a forest
		ref := n.OwningProcessID
		if n.Kind == KindState {
			ref = n.ParentObjectID
		}
		d := 0
		if parent, ok := inSet[ref]; ok {
			d = depth(parent) + 1
		}
		depthOf[n.ID] = d
		return d
	}
	ordered := append([]*Node(nil), nodes...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if di, dj := depth(ordered[i]), depth(ordered[j]); di != dj {
			return di < dj
		}
		return ordered[i].ID < ordered[j].ID
	})
	return ordered
}
