package clipboard

import (
	"sort"

	"github.com/opmstudio/engine/pkg/command"
	"github.com/opmstudio/engine/pkg/graph"
	"github.com/opmstudio/engine/pkg/model"
)

// Paste materializes a snapshot into the store under fresh identifiers.
// The identifiers are allocated once, when the command is built, so undo
// followed by redo brings back the same entities.
type Paste struct {
	command.Base
	st    *graph.Store
	nodes []*model.Node
	links []*model.Link
	roots []string
}

// NewPaste builds a paste of the snapshot offset by (dx, dy). States keep
// their parent-relative geometry and are not offset. An owner reference to
// a process inside the snapshot is remapped with it; a reference to a
// process still alive in the store is kept, so pasting inside a zoomed view
// lands in the same view; anything else falls back to root level.
func NewPaste(st *graph.Store, snap *Snapshot, dx, dy float64) *Paste {
	remap := make(map[string]string, len(snap.Nodes))
	for _, n := range snap.Nodes {
		remap[n.ID] = st.Alloc().Next(n.Kind.String())
	}

	p := &Paste{Base: command.NewBase("Paste")}
	p.st = st
	for _, src := range snap.Nodes {
		n := src.Clone()
		n.ID = remap[src.ID]
		if n.Kind != model.KindState {
			n.Geom = n.Geom.Translated(dx, dy)
		}
		ownedInside := false
		if fresh, ok := remap[n.OwningProcessID]; ok {
			n.OwningProcessID = fresh
			ownedInside = true
		} else if !st.HasNode(n.OwningProcessID) {
			n.OwningProcessID = ""
		}
		if fresh, ok := remap[n.ParentObjectID]; ok {
			n.ParentObjectID = fresh
		}
		p.nodes = append(p.nodes, n)
		if n.Kind != model.KindState && !ownedInside {
			p.roots = append(p.roots, n.ID)
		}
	}
	for _, src := range snap.Links {
		l := src.Clone()
		l.ID = st.Alloc().Next("link")
		l.SourceID = remap[src.SourceID]
		l.TargetID = remap[src.TargetID]
		p.links = append(p.links, l)
	}
	sort.Strings(p.roots)
	return p
}

// PastedNodeIDs returns the identifiers the paste creates, in insertion
// order. Valid immediately after construction.
func (p *Paste) PastedNodeIDs() []string {
	ids := make([]string, 0, len(p.nodes))
	for _, n := range model.OwnershipOrder(p.nodes) {
		ids = append(ids, n.ID)
	}
	return ids
}

func (p *Paste) Redo() error {
	p.EnsurePending()
	for _, n := range model.OwnershipOrder(p.nodes) {
		if err := p.st.RestoreNode(n); err != nil {
			return err
		}
	}
	for _, l := range p.links {
		if err := p.st.RestoreLink(l); err != nil {
			return err
		}
	}
	p.MarkApplied()
	return nil
}

// Undo removes the pasted roots; the cascade takes owned nodes, states and
// links with them.
func (p *Paste) Undo() error {
	p.EnsureApplied()
	if _, _, err := p.st.RemoveNodes(p.roots); err != nil {
		return err
	}
	p.MarkPending()
	return nil
}

// Duplicate copies the selection and immediately pastes it through the
// engine, returning the new node identifiers.
func Duplicate(st *graph.Store, eng *command.Engine, nodeIDs []string, dx, dy float64) ([]string, error) {
	snap, err := Copy(st, nodeIDs)
	if err != nil {
		return nil, err
	}
	p := NewPaste(st, snap, dx, dy)
	if err := eng.Execute(p); err != nil {
		return nil, err
	}
	return p.PastedNodeIDs(), nil
}
