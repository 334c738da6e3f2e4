// Package model defines the diagram entity types: nodes (objects, processes,
// states), links (structural and procedural relations), and the closed set of
// kind constants with their endpoint compatibility rules.
package model

import "fmt"

// NodeKind identifies the variant of a diagram node.
type NodeKind uint8

const (
	KindObject NodeKind = iota
	KindProcess
	KindState
)

// String returns the wire-format name of the node kind.
func (k NodeKind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindProcess:
		return "process"
	case KindState:
		return "state"
	default:
		return "unknown"
	}
}

// ParseNodeKind converts a wire-format name to a NodeKind.
func ParseNodeKind(s string) (NodeKind, error) {
	switch s {
	case "object":
		return KindObject, nil
	case "process":
		return KindProcess, nil
	case "state":
		return KindState, nil
	default:
		return 0, fmt.Errorf("unknown node kind %q", s)
	}
}

// LinkKind identifies the variant of a diagram link.
type LinkKind uint8

const (
	// Structural relations.
	LinkAggregation LinkKind = iota
	LinkExhibition
	LinkGeneralization
	LinkInstantiation
	// Procedural relations.
	LinkConsumption
	LinkResult
	LinkEffect
	LinkAgent
	LinkInstrument
)

// String returns the wire-format name of the link kind.
func (k LinkKind) String() string {
	switch k {
	case LinkAggregation:
		return "aggregation"
	case LinkExhibition:
		return "exhibition"
	case LinkGeneralization:
		return "generalization"
	case LinkInstantiation:
		return "instantiation"
	case LinkConsumption:
		return "consumption"
	case LinkResult:
		return "result"
	case LinkEffect:
		return "effect"
	case LinkAgent:
		return "agent"
	case LinkInstrument:
		return "instrument"
	default:
		return "unknown"
	}
}

// ParseLinkKind converts a wire-format name to a LinkKind.
func ParseLinkKind(s string) (LinkKind, error) {
	for k := LinkAggregation; k <= LinkInstrument; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown link kind %q", s)
}

// IsStructural reports whether the link kind is a structural relation.
func (k LinkKind) IsStructural() bool {
	switch k {
	case LinkAggregation, LinkExhibition, LinkGeneralization, LinkInstantiation:
		return true
	}
	return false
}

// IsProcedural reports whether the link kind is a procedural relation.
func (k LinkKind) IsProcedural() bool {
	return !k.IsStructural()
}

// Essence classifies a node as physical or informatical.
type Essence string

const (
	EssencePhysical     Essence = "physical"
	EssenceInformatical Essence = "informatical"
)

// Affiliation classifies a node as systemic or environmental.
type Affiliation string

const (
	AffiliationSystemic      Affiliation = "systemic"
	AffiliationEnvironmental Affiliation = "environmental"
)

// DefaultEssence returns the essence a freshly created node of the given
// kind carries when none is specified: objects default to informatical,
// processes to physical.
func DefaultEssence(kind NodeKind) Essence {
	if kind == KindObject {
		return EssenceInformatical
	}
	return EssencePhysical
}

// Default node dimensions. States are drawn smaller than objects and
// processes, and state positions are expressed in the parent object's
// local coordinate frame.
const (
	DefaultNodeW  = 140.0
	DefaultNodeH  = 70.0
	DefaultStateW = 100.0
	DefaultStateH = 28.0
)

// Geometry is a node's placement: center position plus extent.
type Geometry struct {
	X float64
	Y float64
	W float64
	H float64
}

// Translated returns the geometry shifted by (dx, dy).
func (g Geometry) Translated(dx, dy float64) Geometry {
	g.X += dx
	g.Y += dy
	return g
}

// Node is one diagram entity. Identifiers are allocator-issued strings of
// the form "<kind>_<n>". The empty string in a relational field means
// "absent": OwningProcessID "" is the root level, ParentObjectID is set only
// on states. Relations are stored as identifier fields and resolved through
// the graph store on demand, never as live references.
type Node struct {
	ID          string
	Kind        NodeKind
	Label       string
	Geom        Geometry
	Essence     Essence
	Affiliation Affiliation

	// OwningProcessID nests the node inside a process ("zoom-in" view).
	OwningProcessID string

	// ParentObjectID is the owning object of a state. A state cannot exist
	// without its parent and is destroyed with it. State geometry is in the
	// parent's local coordinate frame.
	ParentObjectID string

	// Initial marks the state that carries the token in the initial marking
	// of a derived Petri net. At most one state per object is initial.
	Initial bool
}

// Clone creates a deep copy of the node.
func (n *Node) Clone() *Node {
	c := *n
	return &c
}

// Link is one relation between two nodes, referenced by identifier.
type Link struct {
	ID       string
	Kind     LinkKind
	SourceID string
	TargetID string
	Label    string
	CardSrc  *Cardinality
	CardDst  *Cardinality
}

// Clone creates a deep copy of the link.
func (l *Link) Clone() *Link {
	c := *l
	if l.CardSrc != nil {
		cs := *l.CardSrc
		c.CardSrc = &cs
	}
	if l.CardDst != nil {
		cd := *l.CardDst
		c.CardDst = &cd
	}
	return &c
}
