package command

import (
	"github.com/opmstudio/engine/pkg/graph"
	"github.com/opmstudio/engine/pkg/model"
)

// AddNode creates an object or process. The identifier is allocated on the
// first Redo and reused on every later Redo.
type AddNode struct {
	Base
	st    *graph.Store
	kind  model.NodeKind
	label string
	geom  model.Geometry
	owner string
	node  *model.Node
}

// NewAddNode builds the command; nothing is applied until Redo.
func NewAddNode(st *graph.Store, kind model.NodeKind, label string, geom model.Geometry, owner string) *AddNode {
	return &AddNode{Base: NewBase("Add " + kind.String()), st: st, kind: kind, label: label, geom: geom, owner: owner}
}

// Node returns the created node (nil before the first Redo).
func (c *AddNode) Node() *model.Node {
	if c.node == nil {
		return nil
	}
	return c.node.Clone()
}

func (c *AddNode) Redo() error {
	c.EnsurePending()
	if c.node == nil {
		n, err := c.st.AddNode(c.kind, c.label, c.geom, c.owner)
		if err != nil {
			return err
		}
		c.node = n
	} else if err := c.st.RestoreNode(c.node); err != nil {
		return err
	}
	c.MarkApplied()
	return nil
}

func (c *AddNode) Undo() error {
	c.EnsureApplied()
	if _, _, err := c.st.RemoveNode(c.node.ID); err != nil {
		return err
	}
	c.MarkPending()
	return nil
}

// AddState creates a state inside an object, remembering which sibling held
// the initial flag so undo can give it back.
type AddState struct {
	Base
	st          *graph.Store
	parent      string
	label       string
	geom        model.Geometry
	initial     bool
	prevInitial string
	node        *model.Node
}

func NewAddState(st *graph.Store, parentObject, label string, geom model.Geometry, initial bool) *AddState {
	return &AddState{Base: NewBase("Add state"), st: st, parent: parentObject, label: label, geom: geom, initial: initial}
}

// Node returns the created state (nil before the first Redo).
func (c *AddState) Node() *model.Node {
	if c.node == nil {
		return nil
	}
	return c.node.Clone()
}

func (c *AddState) Redo() error {
	c.EnsurePending()
	if c.node == nil {
		if c.initial {
			for _, sib := range c.st.StatesOf(c.parent) {
				if sib.Initial {
					c.prevInitial = sib.ID
				}
			}
		}
		n, err := c.st.AddState(c.parent, c.label, c.geom, c.initial)
		if err != nil {
			return err
		}
		c.node = n
	} else {
		if err := c.st.RestoreNode(c.node); err != nil {
			return err
		}
		if c.initial {
			if err := c.st.SetInitialState(c.parent, c.node.ID); err != nil {
				return err
			}
		}
	}
	c.MarkApplied()
	return nil
}

func (c *AddState) Undo() error {
	c.EnsureApplied()
	if _, _, err := c.st.RemoveNode(c.node.ID); err != nil {
		return err
	}
	if c.prevInitial != "" {
		if err := c.st.SetInitialState(c.parent, c.prevInitial); err != nil {
			return err
		}
	}
	c.MarkPending()
	return nil
}

// AddLink creates a link between two live nodes.
type AddLink struct {
	Base
	st               *graph.Store
	kind             model.LinkKind
	srcID, dstID     string
	cardSrc, cardDst *model.Cardinality
	link             *model.Link
}

func NewAddLink(st *graph.Store, kind model.LinkKind, srcID, dstID string, cardSrc, cardDst *model.Cardinality) *AddLink {
	return &AddLink{Base: NewBase("Add " + kind.String()), st: st, kind: kind, srcID: srcID, dstID: dstID, cardSrc: cardSrc, cardDst: cardDst}
}

// Link returns the created link (nil before the first Redo).
func (c *AddLink) Link() *model.Link {
	if c.link == nil {
		return nil
	}
	return c.link.Clone()
}

func (c *AddLink) Redo() error {
	c.EnsurePending()
	if c.link == nil {
		l, err := c.st.AddLink(c.kind, c.srcID, c.dstID, c.cardSrc, c.cardDst)
		if err != nil {
			return err
		}
		c.link = l
	} else if err := c.st.RestoreLink(c.link); err != nil {
		return err
	}
	c.MarkApplied()
	return nil
}

func (c *AddLink) Undo() error {
	c.EnsureApplied()
	if _, err := c.st.RemoveLink(c.link.ID); err != nil {
		return err
	}
	c.MarkPending()
	return nil
}

// Move repositions a node, capturing the old position at build time.
type Move struct {
	Base
	st         *graph.Store
	id         string
	oldX, oldY float64
	newX, newY float64
}

func NewMove(st *graph.Store, nodeID string, x, y float64) (*Move, error) {
	n, err := st.GetNode(nodeID)
	if err != nil {
		return nil, err
	}
	return &Move{Base: NewBase("Move"), st: st, id: nodeID, oldX: n.Geom.X, oldY: n.Geom.Y, newX: x, newY: y}, nil
}

func (c *Move) Redo() error {
	c.EnsurePending()
	if err := c.st.MoveNode(c.id, c.newX, c.newY); err != nil {
		return err
	}
	c.MarkApplied()
	return nil
}

func (c *Move) Undo() error {
	c.EnsureApplied()
	if err := c.st.MoveNode(c.id, c.oldX, c.oldY); err != nil {
		return err
	}
	c.MarkPending()
	return nil
}

// Resize changes a node's extent.
type Resize struct {
	Base
	st         *graph.Store
	id         string
	oldW, oldH float64
	newW, newH float64
}

func NewResize(st *graph.Store, nodeID string, w, h float64) (*Resize, error) {
	n, err := st.GetNode(nodeID)
	if err != nil {
		return nil, err
	}
	return &Resize{Base: NewBase("Resize"), st: st, id: nodeID, oldW: n.Geom.W, oldH: n.Geom.H, newW: w, newH: h}, nil
}

func (c *Resize) Redo() error {
	c.EnsurePending()
	if err := c.st.ResizeNode(c.id, c.newW, c.newH); err != nil {
		return err
	}
	c.MarkApplied()
	return nil
}

func (c *Resize) Undo() error {
	c.EnsureApplied()
	if err := c.st.ResizeNode(c.id, c.oldW, c.oldH); err != nil {
		return err
	}
	c.MarkPending()
	return nil
}

// Relabel renames a node.
type Relabel struct {
	Base
	st       *graph.Store
	id       string
	old, new string
}

func NewRelabel(st *graph.Store, nodeID, label string) (*Relabel, error) {
	n, err := st.GetNode(nodeID)
	if err != nil {
		return nil, err
	}
	return &Relabel{Base: NewBase("Rename"), st: st, id: nodeID, old: n.Label, new: label}, nil
}

func (c *Relabel) Redo() error {
	c.EnsurePending()
	if err := c.st.Relabel(c.id, c.new); err != nil {
		return err
	}
	c.MarkApplied()
	return nil
}

func (c *Relabel) Undo() error {
	c.EnsureApplied()
	if err := c.st.Relabel(c.id, c.old); err != nil {
		return err
	}
	c.MarkPending()
	return nil
}

// SetAttributes updates a node's essence and affiliation.
type SetAttributes struct {
	Base
	st             *graph.Store
	id             string
	oldEss, newEss model.Essence
	oldAff, newAff model.Affiliation
}

func NewSetAttributes(st *graph.Store, nodeID string, essence model.Essence, affiliation model.Affiliation) (*SetAttributes, error) {
	n, err := st.GetNode(nodeID)
	if err != nil {
		return nil, err
	}
	return &SetAttributes{
		Base: NewBase("Set attributes"), st: st, id: nodeID,
		oldEss: n.Essence, newEss: essence,
		oldAff: n.Affiliation, newAff: affiliation,
	}, nil
}

func (c *SetAttributes) Redo() error {
	c.EnsurePending()
	if err := c.st.SetNodeAttributes(c.id, c.newEss, c.newAff); err != nil {
		return err
	}
	c.MarkApplied()
	return nil
}

func (c *SetAttributes) Undo() error {
	c.EnsureApplied()
	if err := c.st.SetNodeAttributes(c.id, c.oldEss, c.oldAff); err != nil {
		return err
	}
	c.MarkPending()
	return nil
}

// SetLinkKind retypes a link.
type SetLinkKind struct {
	Base
	st       *graph.Store
	id       string
	old, new model.LinkKind
}

func NewSetLinkKind(st *graph.Store, linkID string, kind model.LinkKind) (*SetLinkKind, error) {
	l, err := st.GetLink(linkID)
	if err != nil {
		return nil, err
	}
	return &SetLinkKind{Base: NewBase("Change link type"), st: st, id: linkID, old: l.Kind, new: kind}, nil
}

func (c *SetLinkKind) Redo() error {
	c.EnsurePending()
	if err := c.st.SetLinkKind(c.id, c.new); err != nil {
		return err
	}
	c.MarkApplied()
	return nil
}

func (c *SetLinkKind) Undo() error {
	c.EnsureApplied()
	if err := c.st.SetLinkKind(c.id, c.old); err != nil {
		return err
	}
	c.MarkPending()
	return nil
}

// Reparent moves a node into another process's zoom-in view.
type Reparent struct {
	Base
	st       *graph.Store
	id       string
	old, new string
}

func NewReparent(st *graph.Store, nodeID, newOwner string) (*Reparent, error) {
	n, err := st.GetNode(nodeID)
	if err != nil {
		return nil, err
	}
	return &Reparent{Base: NewBase("Reparent"), st: st, id: nodeID, old: n.OwningProcessID, new: newOwner}, nil
}

func (c *Reparent) Redo() error {
	c.EnsurePending()
	if err := c.st.Reparent(c.id, c.new); err != nil {
		return err
	}
	c.MarkApplied()
	return nil
}

func (c *Reparent) Undo() error {
	c.EnsureApplied()
	if err := c.st.Reparent(c.id, c.old); err != nil {
		return err
	}
	c.MarkPending()
	return nil
}

// Delete removes a selection with full cascade: dependent states,
// transitively owned nodes, and every incident link. Undo restores the
// whole set; partial undo never happens.
type Delete struct {
	Base
	st    *graph.Store
	ids   []string
	nodes []*model.Node
	links []*model.Link
}

func NewDelete(st *graph.Store, nodeIDs []string) *Delete {
	return &Delete{Base: NewBase("Delete selection"), st: st, ids: append([]string(nil), nodeIDs...)}
}

// NewClearAll deletes every root-level node (the cascade takes the rest).
func NewClearAll(st *graph.Store) *Delete {
	var roots []string
	for _, n := range st.ChildrenOf("") {
		roots = append(roots, n.ID)
	}
	d := NewDelete(st, roots)
	d.Base = NewBase("Clear all")
	return d
}

// Removed reports the captured cascade (valid once Applied at least once).
func (c *Delete) Removed() (nodes []*model.Node, links []*model.Link) {
	return c.nodes, c.links
}

func (c *Delete) Redo() error {
	c.EnsurePending()
	nodes, links, err := c.st.RemoveNodes(c.ids)
	if err != nil {
		return err
	}
	c.nodes, c.links = nodes, links
	c.MarkApplied()
	return nil
}

func (c *Delete) Undo() error {
	c.EnsureApplied()
	if err := restoreAll(c.st, c.nodes, c.links); err != nil {
		return err
	}
	c.MarkPending()
	return nil
}

// restoreAll re-inserts a removed set: owners before owned nodes, parents
// before states, links last.
func restoreAll(st *graph.Store, nodes []*model.Node, links []*model.Link) error {
	for _, n := range model.OwnershipOrder(nodes) {
		if err := st.RestoreNode(n); err != nil {
			return err
		}
	}
	for _, l := range links {
		if err := st.RestoreLink(l); err != nil {
			return err
		}
	}
	return nil
}

// Composite is one command spanning several edits. Redo applies children in
// order and rolls already-applied children back if one fails; Undo reverts
// in reverse order. The whole set applies or none of it does.
type Composite struct {
	Base
	children []Command
}

func NewComposite(name string, children ...Command) *Composite {
	return &Composite{Base: NewBase(name), children: children}
}

// Append adds a child; only valid while Pending.
func (c *Composite) Append(cmd Command) {
	c.EnsurePending()
	c.children = append(c.children, cmd)
}

// Len returns the number of children.
func (c *Composite) Len() int {
	return len(c.children)
}

func (c *Composite) Redo() error {
	c.EnsurePending()
	for i, child := range c.children {
		if err := child.Redo(); err != nil {
			for j := i - 1; j >= 0; j-- {
				if uerr := c.children[j].Undo(); uerr != nil {
					panic("composite rollback failed: " + uerr.Error())
				}
			}
			return err
		}
	}
	c.MarkApplied()
	return nil
}

func (c *Composite) Undo() error {
	c.EnsureApplied()
	for i := len(c.children) - 1; i >= 0; i-- {
		if err := c.children[i].Undo(); err != nil {
			for j := i + 1; j < len(c.children); j++ {
				if rerr := c.children[j].Redo(); rerr != nil {
					panic("composite roll-forward failed: " + rerr.Error())
				}
			}
			return err
		}
	}
	c.MarkPending()
	return nil
}
