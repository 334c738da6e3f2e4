// Package clipboard implements copy, paste, and duplication over the
// diagram graph. A snapshot is a self-contained deep copy of a selection;
// pasting replays it under freshly allocated identifiers so a snapshot can
// be pasted any number of times, even after the originals are deleted.
package clipboard

import (
	"errors"
	"sort"

	"github.com/google/uuid"

	"github.com/opmstudio/engine/pkg/graph"
	"github.com/opmstudio/engine/pkg/model"
)

// ErrEmptySelection is returned when a copy request resolves to no nodes.
var ErrEmptySelection = errors.New("clipboard: empty selection")

// Snapshot is an immutable copy of a selection closure: the selected nodes,
// the states of every selected object, everything owned by selected
// processes, and the links whose both endpoints fall inside that set.
type Snapshot struct {
	ID    string
	Nodes []*model.Node
	Links []*model.Link
}

// Copy captures the closure of the given selection. Selected states whose
// parent object is outside the closure are dropped; a state cannot exist
// without its object.
func Copy(st *graph.Store, nodeIDs []string) (*Snapshot, error) {
	closure := make(map[string]bool)
	for _, nid := range nodeIDs {
		n, err := st.GetNode(nid)
		if err != nil {
			return nil, err
		}
		closure[n.ID] = true
		switch n.Kind {
		case model.KindObject:
			for _, s := range st.StatesOf(n.ID) {
				closure[s.ID] = true
			}
		case model.KindProcess:
			for _, did := range st.Descendants(n.ID) {
				closure[did] = true
				child, err := st.GetNode(did)
				if err != nil {
					return nil, err
				}
				if child.Kind == model.KindObject {
					for _, s := range st.StatesOf(did) {
						closure[s.ID] = true
					}
				}
			}
		}
	}

	snap := &Snapshot{ID: uuid.NewString()}
	for nid := range closure {
		n, err := st.GetNode(nid)
		if err != nil {
			return nil, err
		}
		if n.Kind == model.KindState && !closure[n.ParentObjectID] {
			continue
		}
		snap.Nodes = append(snap.Nodes, n)
	}
	if len(snap.Nodes) == 0 {
		return nil, ErrEmptySelection
	}
	sort.Slice(snap.Nodes, func(i, j int) bool { return snap.Nodes[i].ID < snap.Nodes[j].ID })

	ids := make([]string, 0, len(snap.Nodes))
	for _, n := range snap.Nodes {
		ids = append(ids, n.ID)
	}
	snap.Links = st.LinksBetween(ids)
	return snap, nil
}
