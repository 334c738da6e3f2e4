// Package graph owns the diagram graph: a flat arena of nodes and links
// addressed by identifier, with adjacency indexes, referential integrity
// checks, cascading deletion, and nesting-cycle rejection.
//
// All operations are synchronous and atomic: they validate first and mutate
// only on success, so a failed call leaves the store unchanged. The store
// follows the engine's single-threaded mutation discipline and holds no
// locks; the change notifier is the only internally synchronized part.
package graph

import (
	"sort"

	"github.com/opmstudio/engine/pkg/id"
	"github.com/opmstudio/engine/pkg/model"
)

// Store is the diagram graph arena.
type Store struct {
	nodes map[string]*model.Node
	links map[string]*model.Link

	// Adjacency indexes.
	linksByNode       map[string][]string // node ID -> incident link IDs
	childrenByProcess map[string][]string // process ID -> owned node IDs
	statesByObject    map[string][]string // object ID -> state IDs

	alloc    *id.Allocator
	notifier *Notifier
}

// NewStore creates an empty store with a fresh identifier allocator.
func NewStore() *Store {
	return &Store{
		nodes:             make(map[string]*model.Node),
		links:             make(map[string]*model.Link),
		linksByNode:       make(map[string][]string),
		childrenByProcess: make(map[string][]string),
		statesByObject:    make(map[string][]string),
		alloc:             id.NewAllocator(),
		notifier:          NewNotifier(),
	}
}

// Alloc exposes the store's identifier allocator. Commands that must keep
// identifiers stable across redo (paste) allocate through it up front.
func (s *Store) Alloc() *id.Allocator {
	return s.alloc
}

// Notifier exposes the change notification bus.
func (s *Store) Notifier() *Notifier {
	return s.notifier
}

// AddNode creates an object or process node. An empty owningProcess means
// root level; otherwise it must resolve to a live process.
func (s *Store) AddNode(kind model.NodeKind, label string, geom model.Geometry, owningProcess string) (*model.Node, error) {
	if kind != model.KindObject && kind != model.KindProcess {
		return nil, nodeError("AddNode", "", ErrInvalidParent)
	}
	if err := s.checkOwner(owningProcess); err != nil {
		return nil, nodeError("AddNode", owningProcess, err)
	}

	n := &model.Node{
		ID:              s.alloc.Next(kind.String()),
		Kind:            kind,
		Label:           label,
		Geom:            geom,
		Essence:         model.DefaultEssence(kind),
		Affiliation:     model.AffiliationSystemic,
		OwningProcessID: owningProcess,
	}
	s.insertNode(n)
	s.notifier.Publish(Event{Op: EventNodeAdded, Kind: n.Kind, ID: n.ID})
	return n.Clone(), nil
}

// AddState creates a state owned by parentObject. The state's geometry is
// expressed in the parent's local coordinate frame. If initial is set, any
// previously initial state of the same object loses the flag.
func (s *Store) AddState(parentObject, label string, geom model.Geometry, initial bool) (*model.Node, error) {
	parent, ok := s.nodes[parentObject]
	if !ok {
		return nil, nodeError("AddState", parentObject, ErrNotFound)
	}
	if parent.Kind != model.KindObject {
		return nil, nodeError("AddState", parentObject, ErrInvalidParent)
	}

	if initial {
		s.clearInitialState(parentObject)
	}
	n := &model.Node{
		ID:             s.alloc.Next(model.KindState.String()),
		Kind:           model.KindState,
		Label:          label,
		Geom:           geom,
		ParentObjectID: parentObject,
		Initial:        initial,
	}
	s.insertNode(n)
	s.notifier.Publish(Event{Op: EventNodeAdded, Kind: n.Kind, ID: n.ID})
	return n.Clone(), nil
}

// AddLink creates a link after validating that both endpoints are live, that
// the kind/endpoint-kind constraint holds, and that no identical parallel
// link exists. Parallel links with the same kind, source and target are
// forbidden by policy.
func (s *Store) AddLink(kind model.LinkKind, srcID, dstID string, cardSrc, cardDst *model.Cardinality) (*model.Link, error) {
	src, ok := s.nodes[srcID]
	if !ok {
		return nil, linkError("AddLink", srcID, ErrDanglingReference)
	}
	dst, ok := s.nodes[dstID]
	if !ok {
		return nil, linkError("AddLink", dstID, ErrDanglingReference)
	}
	if !model.EndpointsCompatible(kind, src.Kind, dst.Kind) {
		return nil, linkError("AddLink", "", ErrIncompatibleEndpoints)
	}
	if s.findLink(kind, srcID, dstID) != "" {
		return nil, linkError("AddLink", "", ErrDuplicateLink)
	}

	l := &model.Link{
		ID:       s.alloc.Next("link"),
		Kind:     kind,
		SourceID: srcID,
		TargetID: dstID,
		CardSrc:  cardSrc,
		CardDst:  cardDst,
	}
	s.insertLink(l)
	s.notifier.Publish(Event{Op: EventLinkAdded, ID: l.ID})
	return l.Clone(), nil
}

// RestoreNode re-inserts a node with its original, already-allocated
// identifier. Command undo/redo and paste go through here so identifiers
// stay stable; the allocator is bumped past the identifier, never rewound.
func (s *Store) RestoreNode(n *model.Node) error {
	if _, exists := s.nodes[n.ID]; exists {
		return nodeError("RestoreNode", n.ID, ErrIDInUse)
	}
	if n.Kind == model.KindState {
		parent, ok := s.nodes[n.ParentObjectID]
		if !ok || parent.Kind != model.KindObject {
			return nodeError("RestoreNode", n.ParentObjectID, ErrDanglingReference)
		}
	} else if err := s.checkOwner(n.OwningProcessID); err != nil {
		return nodeError("RestoreNode", n.OwningProcessID, err)
	}
	s.insertNode(n.Clone())
	s.alloc.Observe(n.ID)
	s.notifier.Publish(Event{Op: EventNodeAdded, Kind: n.Kind, ID: n.ID})
	return nil
}

// RestoreLink re-inserts a link with its original identifier.
func (s *Store) RestoreLink(l *model.Link) error {
	if _, exists := s.links[l.ID]; exists {
		return linkError("RestoreLink", l.ID, ErrIDInUse)
	}
	if _, ok := s.nodes[l.SourceID]; !ok {
		return linkError("RestoreLink", l.SourceID, ErrDanglingReference)
	}
	if _, ok := s.nodes[l.TargetID]; !ok {
		return linkError("RestoreLink", l.TargetID, ErrDanglingReference)
	}
	s.insertLink(l.Clone())
	s.alloc.Observe(l.ID)
	s.notifier.Publish(Event{Op: EventLinkAdded, ID: l.ID})
	return nil
}

// RemoveNode deletes the node, every dependent state, every transitively
// owned node (for processes) and every link touching any removed node, as
// one atomic operation. It returns the removed entities as deep copies so a
// delete command can restore exactly that set on undo.
func (s *Store) RemoveNode(nodeID string) ([]*model.Node, []*model.Link, error) {
	if _, ok := s.nodes[nodeID]; !ok {
		return nil, nil, nodeError("RemoveNode", nodeID, ErrNotFound)
	}
	nodes, links := s.removeCascade([]string{nodeID})
	return nodes, links, nil
}

// RemoveNodes deletes a selection of nodes with the same cascade semantics
// as RemoveNode, as one atomic operation.
func (s *Store) RemoveNodes(nodeIDs []string) ([]*model.Node, []*model.Link, error) {
	for _, nid := range nodeIDs {
		if _, ok := s.nodes[nid]; !ok {
			return nil, nil, nodeError("RemoveNodes", nid, ErrNotFound)
		}
	}
	nodes, links := s.removeCascade(nodeIDs)
	return nodes, links, nil
}

func (s *Store) removeCascade(roots []string) ([]*model.Node, []*model.Link) {
	doomed := s.removalSet(roots)

	var nodes []*model.Node
	var links []*model.Link
	for _, l := range s.links {
		if doomed[l.SourceID] || doomed[l.TargetID] {
			links = append(links, l.Clone())
		}
	}
	for nid := range doomed {
		nodes = append(nodes, s.nodes[nid].Clone())
	}
	sortNodes(nodes)
	sortLinks(links)

	for _, l := range links {
		s.deleteLink(l.ID)
	}
	// States go first so object index cleanup still finds their parents.
	for _, n := range nodes {
		if n.Kind == model.KindState {
			s.deleteNode(n.ID)
		}
	}
	for _, n := range nodes {
		if n.Kind != model.KindState {
			s.deleteNode(n.ID)
		}
	}

	for _, l := range links {
		s.notifier.Publish(Event{Op: EventLinkRemoved, ID: l.ID})
	}
	for _, n := range nodes {
		s.notifier.Publish(Event{Op: EventNodeRemoved, Kind: n.Kind, ID: n.ID})
	}
	return nodes, links
}

// removalSet expands the roots to the full cascade: transitively owned
// nodes of processes, and states of every doomed object.
func (s *Store) removalSet(roots []string) map[string]bool {
	doomed := make(map[string]bool)
	queue := append([]string(nil), roots...)
	for len(queue) > 0 {
		nid := queue[0]
		queue = queue[1:]
		if doomed[nid] {
			continue
		}
		n, ok := s.nodes[nid]
		if !ok {
			continue
		}
		doomed[nid] = true
		switch n.Kind {
		case model.KindProcess:
			queue = append(queue, s.childrenByProcess[nid]...)
		case model.KindObject:
			queue = append(queue, s.statesByObject[nid]...)
		}
	}
	return doomed
}

// RemoveLink deletes a single link, returning a deep copy for undo.
func (s *Store) RemoveLink(linkID string) (*model.Link, error) {
	l, ok := s.links[linkID]
	if !ok {
		return nil, linkError("RemoveLink", linkID, ErrNotFound)
	}
	removed := l.Clone()
	s.deleteLink(linkID)
	s.notifier.Publish(Event{Op: EventLinkRemoved, ID: linkID})
	return removed, nil
}

// MoveNode repositions a node, keeping its extent.
func (s *Store) MoveNode(nodeID string, x, y float64) error {
	n, ok := s.nodes[nodeID]
	if !ok {
		return nodeError("MoveNode", nodeID, ErrNotFound)
	}
	n.Geom.X, n.Geom.Y = x, y
	s.notifier.Publish(Event{Op: EventNodeMoved, Kind: n.Kind, ID: nodeID})
	return nil
}

// ResizeNode changes a node's extent, keeping its position.
func (s *Store) ResizeNode(nodeID string, w, h float64) error {
	n, ok := s.nodes[nodeID]
	if !ok {
		return nodeError("ResizeNode", nodeID, ErrNotFound)
	}
	n.Geom.W, n.Geom.H = w, h
	s.notifier.Publish(Event{Op: EventNodeResized, Kind: n.Kind, ID: nodeID})
	return nil
}

// Relabel changes a node's label.
func (s *Store) Relabel(nodeID, label string) error {
	n, ok := s.nodes[nodeID]
	if !ok {
		return nodeError("Relabel", nodeID, ErrNotFound)
	}
	n.Label = label
	s.notifier.Publish(Event{Op: EventRelabeled, Kind: n.Kind, ID: nodeID})
	return nil
}

// SetNodeAttributes updates essence and affiliation.
func (s *Store) SetNodeAttributes(nodeID string, essence model.Essence, affiliation model.Affiliation) error {
	n, ok := s.nodes[nodeID]
	if !ok {
		return nodeError("SetNodeAttributes", nodeID, ErrNotFound)
	}
	n.Essence = essence
	n.Affiliation = affiliation
	s.notifier.Publish(Event{Op: EventAttributesChanged, Kind: n.Kind, ID: nodeID})
	return nil
}

// SetLinkLabel changes a link's label.
func (s *Store) SetLinkLabel(linkID, label string) error {
	l, ok := s.links[linkID]
	if !ok {
		return linkError("SetLinkLabel", linkID, ErrNotFound)
	}
	l.Label = label
	s.notifier.Publish(Event{Op: EventLinkChanged, ID: linkID})
	return nil
}

// SetLinkKind changes a link's kind, revalidating endpoint compatibility
// and the parallel-link policy under the new kind.
func (s *Store) SetLinkKind(linkID string, kind model.LinkKind) error {
	l, ok := s.links[linkID]
	if !ok {
		return linkError("SetLinkKind", linkID, ErrNotFound)
	}
	src := s.nodes[l.SourceID]
	dst := s.nodes[l.TargetID]
	if !model.EndpointsCompatible(kind, src.Kind, dst.Kind) {
		return linkError("SetLinkKind", linkID, ErrIncompatibleEndpoints)
	}
	if existing := s.findLink(kind, l.SourceID, l.TargetID); existing != "" && existing != linkID {
		return linkError("SetLinkKind", linkID, ErrDuplicateLink)
	}
	l.Kind = kind
	s.notifier.Publish(Event{Op: EventLinkChanged, ID: linkID})
	return nil
}

// SetCardinality updates the cardinality pair of a link.
func (s *Store) SetCardinality(linkID string, cardSrc, cardDst *model.Cardinality) error {
	l, ok := s.links[linkID]
	if !ok {
		return linkError("SetCardinality", linkID, ErrNotFound)
	}
	l.CardSrc, l.CardDst = cardSrc, cardDst
	s.notifier.Publish(Event{Op: EventLinkChanged, ID: linkID})
	return nil
}

// SetInitialState marks stateID as the initial state of its object,
// clearing the flag on its siblings. An empty stateID clears the object's
// initial state entirely.
func (s *Store) SetInitialState(objectID, stateID string) error {
	obj, ok := s.nodes[objectID]
	if !ok || obj.Kind != model.KindObject {
		return nodeError("SetInitialState", objectID, ErrNotFound)
	}
	if stateID != "" {
		st, ok := s.nodes[stateID]
		if !ok || st.Kind != model.KindState || st.ParentObjectID != objectID {
			return nodeError("SetInitialState", stateID, ErrNotFound)
		}
	}
	s.clearInitialState(objectID)
	if stateID != "" {
		s.nodes[stateID].Initial = true
	}
	s.notifier.Publish(Event{Op: EventAttributesChanged, Kind: model.KindObject, ID: objectID})
	return nil
}

// Reparent moves a node to a new owning process. An empty newOwner moves it
// to the root level. Re-parenting that would nest a process inside itself or
// one of its own descendants fails with ErrCycleDetected. States cannot be
// re-parented; they follow their object.
func (s *Store) Reparent(nodeID, newOwner string) error {
	n, ok := s.nodes[nodeID]
	if !ok {
		return nodeError("Reparent", nodeID, ErrNotFound)
	}
	if n.Kind == model.KindState {
		return nodeError("Reparent", nodeID, ErrInvalidParent)
	}
	if err := s.checkOwner(newOwner); err != nil {
		return nodeError("Reparent", newOwner, err)
	}
	if n.Kind == model.KindProcess && s.ownerChainContains(newOwner, nodeID) {
		return nodeError("Reparent", nodeID, ErrCycleDetected)
	}

	if n.OwningProcessID != "" {
		s.childrenByProcess[n.OwningProcessID] = removeID(s.childrenByProcess[n.OwningProcessID], nodeID)
	}
	n.OwningProcessID = newOwner
	if newOwner != "" {
		s.childrenByProcess[newOwner] = append(s.childrenByProcess[newOwner], nodeID)
	}
	s.notifier.Publish(Event{Op: EventReparented, Kind: n.Kind, ID: nodeID})
	return nil
}

// ownerChainContains walks the owning-process chain upward from start,
// reporting whether target appears on it. start itself counts.
func (s *Store) ownerChainContains(start, target string) bool {
	for cur := start; cur != ""; {
		if cur == target {
			return true
		}
		n, ok := s.nodes[cur]
		if !ok {
			return false
		}
		cur = n.OwningProcessID
	}
	return false
}

func (s *Store) checkOwner(owner string) error {
	if owner == "" {
		return nil
	}
	p, ok := s.nodes[owner]
	if !ok || p.Kind != model.KindProcess {
		return ErrInvalidParent
	}
	return nil
}

func (s *Store) clearInitialState(objectID string) {
	for _, sid := range s.statesByObject[objectID] {
		s.nodes[sid].Initial = false
	}
}

// findLink returns the ID of an existing link with the same kind, source
// and target, or the empty string.
func (s *Store) findLink(kind model.LinkKind, srcID, dstID string) string {
	for _, lid := range s.linksByNode[srcID] {
		l := s.links[lid]
		if l.Kind == kind && l.SourceID == srcID && l.TargetID == dstID {
			return lid
		}
	}
	return ""
}

func (s *Store) insertNode(n *model.Node) {
	s.nodes[n.ID] = n
	switch n.Kind {
	case model.KindState:
		s.statesByObject[n.ParentObjectID] = append(s.statesByObject[n.ParentObjectID], n.ID)
	default:
		if n.OwningProcessID != "" {
			s.childrenByProcess[n.OwningProcessID] = append(s.childrenByProcess[n.OwningProcessID], n.ID)
		}
	}
}

func (s *Store) insertLink(l *model.Link) {
	s.links[l.ID] = l
	s.linksByNode[l.SourceID] = append(s.linksByNode[l.SourceID], l.ID)
	if l.TargetID != l.SourceID {
		s.linksByNode[l.TargetID] = append(s.linksByNode[l.TargetID], l.ID)
	}
}

func (s *Store) deleteNode(nid string) {
	n := s.nodes[nid]
	switch n.Kind {
	case model.KindState:
		s.statesByObject[n.ParentObjectID] = removeID(s.statesByObject[n.ParentObjectID], nid)
	default:
		if n.OwningProcessID != "" {
			s.childrenByProcess[n.OwningProcessID] = removeID(s.childrenByProcess[n.OwningProcessID], nid)
		}
	}
	delete(s.statesByObject, nid)
	delete(s.childrenByProcess, nid)
	delete(s.linksByNode, nid)
	delete(s.nodes, nid)
}

func (s *Store) deleteLink(lid string) {
	l := s.links[lid]
	s.linksByNode[l.SourceID] = removeID(s.linksByNode[l.SourceID], lid)
	s.linksByNode[l.TargetID] = removeID(s.linksByNode[l.TargetID], lid)
	delete(s.links, lid)
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func sortNodes(ns []*model.Node) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].Kind != ns[j].Kind {
			return ns[i].Kind < ns[j].Kind
		}
		return ns[i].ID < ns[j].ID
	})
}

func sortLinks(ls []*model.Link) {
	sort.Slice(ls, func(i, j int) bool { return ls[i].ID < ls[j].ID })
}
