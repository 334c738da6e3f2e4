package graph

import "github.com/opmstudio/engine/pkg/model"

// GetNode retrieves a node by ID. The returned node is a deep copy; callers
// never alias live arena entities.
func (s *Store) GetNode(nodeID string) (*model.Node, error) {
	n, ok := s.nodes[nodeID]
	if !ok {
		return nil, nodeError("GetNode", nodeID, ErrNotFound)
	}
	return n.Clone(), nil
}

// GetLink retrieves a link by ID as a deep copy.
func (s *Store) GetLink(linkID string) (*model.Link, error) {
	l, ok := s.links[linkID]
	if !ok {
		return nil, linkError("GetLink", linkID, ErrNotFound)
	}
	return l.Clone(), nil
}

// HasNode reports whether the identifier resolves to a live node.
func (s *Store) HasNode(nodeID string) bool {
	_, ok := s.nodes[nodeID]
	return ok
}

// NodeCount returns the number of live nodes.
func (s *Store) NodeCount() int {
	return len(s.nodes)
}

// LinkCount returns the number of live links.
func (s *Store) LinkCount() int {
	return len(s.links)
}

// Nodes returns deep copies of all nodes, ordered by kind then ID for
// deterministic iteration.
func (s *Store) Nodes() []*model.Node {
	out := make([]*model.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, n.Clone())
	}
	sortNodes(out)
	return out
}

// Links returns deep copies of all links, ordered by ID.
func (s *Store) Links() []*model.Link {
	out := make([]*model.Link, 0, len(s.links))
	for _, l := range s.links {
		out = append(out, l.Clone())
	}
	sortLinks(out)
	return out
}

// ChildrenOf returns the nodes whose owning process equals processID; an
// empty processID selects the root level. This materializes a zoom-in view.
func (s *Store) ChildrenOf(processID string) []*model.Node {
	var out []*model.Node
	if processID == "" {
		for _, n := range s.nodes {
			if n.Kind != model.KindState && n.OwningProcessID == "" {
				out = append(out, n.Clone())
			}
		}
	} else {
		for _, nid := range s.childrenByProcess[processID] {
			out = append(out, s.nodes[nid].Clone())
		}
	}
	sortNodes(out)
	return out
}

// StatesOf returns the states of an object, ordered by ID.
func (s *Store) StatesOf(objectID string) []*model.Node {
	var out []*model.Node
	for _, sid := range s.statesByObject[objectID] {
		out = append(out, s.nodes[sid].Clone())
	}
	sortNodes(out)
	return out
}

// FindByLabel returns the first object or process with the given label, or
// nil. The OPL parser uses labels as the user-facing entity keys.
func (s *Store) FindByLabel(label string) *model.Node {
	var found *model.Node
	for _, n := range s.nodes {
		if n.Kind == model.KindState || n.Label != label {
			continue
		}
		if found == nil || n.ID < found.ID {
			found = n
		}
	}
	if found == nil {
		return nil
	}
	return found.Clone()
}

// FindStateByLabel returns the state of objectID with the given label, or nil.
func (s *Store) FindStateByLabel(objectID, label string) *model.Node {
	for _, sid := range s.statesByObject[objectID] {
		if s.nodes[sid].Label == label {
			return s.nodes[sid].Clone()
		}
	}
	return nil
}

// LinksBetween returns exactly the links whose source and target are both
// members of the given set, ordered by ID. The clipboard captures links
// through this so dangling endpoints are excluded by construction.
func (s *Store) LinksBetween(nodeIDs []string) []*model.Link {
	member := make(map[string]bool, len(nodeIDs))
	for _, nid := range nodeIDs {
		member[nid] = true
	}
	var out []*model.Link
	seen := make(map[string]bool)
	for _, nid := range nodeIDs {
		for _, lid := range s.linksByNode[nid] {
			if seen[lid] {
				continue
			}
			l := s.links[lid]
			if member[l.SourceID] && member[l.TargetID] {
				out = append(out, l.Clone())
				seen[lid] = true
			}
		}
	}
	sortLinks(out)
	return out
}

// LinksTouching returns every link with the node as source or target.
func (s *Store) LinksTouching(nodeID string) []*model.Link {
	var out []*model.Link
	for _, lid := range s.linksByNode[nodeID] {
		out = append(out, s.links[lid].Clone())
	}
	sortLinks(out)
	return out
}

// Descendants returns the IDs of every node transitively owned by the
// process, including states of owned objects. The process itself is not
// included.
func (s *Store) Descendants(processID string) []string {
	var out []string
	queue := append([]string(nil), s.childrenByProcess[processID]...)
	for len(queue) > 0 {
		nid := queue[0]
		queue = queue[1:]
		n, ok := s.nodes[nid]
		if !ok {
			continue
		}
		out = append(out, nid)
		switch n.Kind {
		case model.KindProcess:
			queue = append(queue, s.childrenByProcess[nid]...)
		case model.KindObject:
			queue = append(queue, s.statesByObject[nid]...)
		}
	}
	return out
}
