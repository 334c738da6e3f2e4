// Package codec reads and writes the diagram exchange format: a JSON
// document with `nodes` and `links` arrays, optionally wrapped in a
// snappy-compressed container for on-disk storage. Import is forgiving at
// the record level and strict at the reference level: malformed records are
// collected and reported, never silently dropped, and a link to a missing
// node is rejected rather than crashed on.
package codec

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/opmstudio/engine/pkg/graph"
	"github.com/opmstudio/engine/pkg/metrics"
	"github.com/opmstudio/engine/pkg/model"
)

// NodeRecord is one node in the exchange document.
type NodeRecord struct {
	ID              string  `json:"id" validate:"required"`
	Kind            string  `json:"kind" validate:"required,oneof=object process state"`
	Label           string  `json:"label"`
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	W               float64 `json:"w"`
	H               float64 `json:"h"`
	Essence         string  `json:"essence" validate:"omitempty,oneof=physical informatical"`
	Affiliation     string  `json:"affiliation" validate:"omitempty,oneof=systemic environmental"`
	ParentProcessID *string `json:"parent_process_id"`
	ParentObjectID  string  `json:"parent_object_id,omitempty" validate:"required_if=Kind state"`
	Initial         bool    `json:"initial,omitempty"`
}

// LinkRecord is one link in the exchange document.
type LinkRecord struct {
	ID       string  `json:"id" validate:"required"`
	Kind     string  `json:"kind" validate:"required,oneof=aggregation exhibition generalization instantiation consumption result effect agent instrument"`
	SourceID string  `json:"source_id" validate:"required"`
	TargetID string  `json:"target_id" validate:"required"`
	Label    string  `json:"label,omitempty"`
	CardSrc  *string `json:"card_src"`
	CardDst  *string `json:"card_dst"`
}

// Document is the exchange format root.
type Document struct {
	Nodes []NodeRecord `json:"nodes"`
	Links []LinkRecord `json:"links"`
}

// RecordError ties an import failure to the record that caused it.
type RecordError struct {
	Entity string // "node" or "link"
	Index  int
	ID     string
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s[%d] %s: %v", e.Entity, e.Index, e.ID, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Report lists everything that went wrong during an import. A nil or empty
// report means every record landed.
type Report struct {
	Errors []*RecordError
}

// OK reports whether the import was clean.
func (r *Report) OK() bool {
	return len(r.Errors) == 0
}

func (r *Report) add(entity string, index int, id string, err error) {
	r.Errors = append(r.Errors, &RecordError{Entity: entity, Index: index, ID: id, Err: err})
}

// Codec imports and exports exchange documents.
type Codec struct {
	validate *validator.Validate
	metrics  *metrics.Registry
}

// New returns a Codec with record validation wired up.
func New() *Codec {
	return &Codec{validate: validator.New()}
}

// SetMetrics attaches a metrics registry; nil disables instrumentation.
func (c *Codec) SetMetrics(m *metrics.Registry) {
	c.metrics = m
}

// Import decodes an exchange document into a fresh store. Malformed or
// dangling records are skipped and reported; the returned store holds
// everything that validated, with the identifier allocator positioned past
// every imported identifier. The error is non-nil only when the document
// itself cannot be decoded.
func (c *Codec) Import(data []byte) (*graph.Store, *Report, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("codec: decode document: %w", err)
	}
	st := graph.NewStore()
	report := &Report{}

	nodes := make([]*model.Node, 0, len(doc.Nodes))
	recordIndex := make(map[string]int, len(doc.Nodes))
	for i, rec := range doc.Nodes {
		c.countRecord()
		if err := c.validate.Struct(rec); err != nil {
			report.add("node", i, rec.ID, err)
			c.countError()
			continue
		}
		n, err := nodeFromRecord(rec)
		if err != nil {
			report.add("node", i, rec.ID, err)
			c.countError()
			continue
		}
		nodes = append(nodes, n)
		recordIndex[n.ID] = i
	}

	// Owners go in before the nodes they own; a node whose parent was
	// rejected fails its own RestoreNode and is reported too.
	for _, n := range model.OwnershipOrder(nodes) {
		if err := st.RestoreNode(n); err != nil {
			report.add("node", recordIndex[n.ID], n.ID, err)
			c.countError()
		}
	}

	for i, rec := range doc.Links {
		c.countRecord()
		if err := c.validate.Struct(rec); err != nil {
			report.add("link", i, rec.ID, err)
			c.countError()
			continue
		}
		l, err := linkFromRecord(rec)
		if err != nil {
			report.add("link", i, rec.ID, err)
			c.countError()
			continue
		}
		if err := checkEndpoints(st, l); err != nil {
			report.add("link", i, rec.ID, err)
			c.countError()
			continue
		}
		if err := st.RestoreLink(l); err != nil {
			report.add("link", i, rec.ID, err)
			c.countError()
		}
	}
	return st, report, nil
}

// Export encodes the store as an exchange document, nodes and links sorted
// by identifier so the output is byte-stable for a given diagram.
func (c *Codec) Export(st *graph.Store) ([]byte, error) {
	doc := Document{
		Nodes: make([]NodeRecord, 0, st.NodeCount()),
		Links: make([]LinkRecord, 0, st.LinkCount()),
	}
	for _, n := range st.Nodes() {
		doc.Nodes = append(doc.Nodes, recordFromNode(n))
	}
	for _, l := range st.Links() {
		doc.Links = append(doc.Links, recordFromLink(l))
	}
	sort.Slice(doc.Nodes, func(i, j int) bool { return doc.Nodes[i].ID < doc.Nodes[j].ID })
	sort.Slice(doc.Links, func(i, j int) bool { return doc.Links[i].ID < doc.Links[j].ID })
	return json.MarshalIndent(doc, "", "  ")
}

func (c *Codec) countRecord() {
	if c.metrics != nil {
		c.metrics.ImportRecords.Inc()
	}
}

func (c *Codec) countError() {
	if c.metrics != nil {
		c.metrics.ImportErrors.Inc()
	}
}

// checkEndpoints enforces the kind-pair constraint on imported links; the
// store's restore path only guards against dangling references.
func checkEndpoints(st *graph.Store, l *model.Link) error {
	src, err := st.GetNode(l.SourceID)
	if err != nil {
		return err
	}
	dst, err := st.GetNode(l.TargetID)
	if err != nil {
		return err
	}
	if !model.EndpointsCompatible(l.Kind, src.Kind, dst.Kind) {
		return fmt.Errorf("%s link %s -> %s: %w", l.Kind, src.Kind, dst.Kind, graph.ErrIncompatibleEndpoints)
	}
	return nil
}

func nodeFromRecord(rec NodeRecord) (*model.Node, error) {
	kind, err := model.ParseNodeKind(rec.Kind)
	if err != nil {
		return nil, err
	}
	n := &model.Node{
		ID:             rec.ID,
		Kind:           kind,
		Label:          rec.Label,
		Geom:           model.Geometry{X: rec.X, Y: rec.Y, W: rec.W, H: rec.H},
		Essence:        model.Essence(rec.Essence),
		Affiliation:    model.Affiliation(rec.Affiliation),
		ParentObjectID: rec.ParentObjectID,
		Initial:        rec.Initial,
	}
	if rec.ParentProcessID != nil {
		n.OwningProcessID = *rec.ParentProcessID
	}
	if n.Essence == "" {
		n.Essence = model.DefaultEssence(kind)
	}
	if n.Affiliation == "" {
		n.Affiliation = model.AffiliationSystemic
	}
	return n, nil
}

func linkFromRecord(rec LinkRecord) (*model.Link, error) {
	kind, err := model.ParseLinkKind(rec.Kind)
	if err != nil {
		return nil, err
	}
	cardSrc, err := parseCard(rec.CardSrc)
	if err != nil {
		return nil, fmt.Errorf("card_src: %w", err)
	}
	cardDst, err := parseCard(rec.CardDst)
	if err != nil {
		return nil, fmt.Errorf("card_dst: %w", err)
	}
	return &model.Link{
		ID:       rec.ID,
		Kind:     kind,
		SourceID: rec.SourceID,
		TargetID: rec.TargetID,
		Label:    rec.Label,
		CardSrc:  cardSrc,
		CardDst:  cardDst,
	}, nil
}

func parseCard(s *string) (*model.Cardinality, error) {
	if s == nil {
		return nil, nil
	}
	return model.ParseCardinality(*s)
}

func recordFromNode(n *model.Node) NodeRecord {
	rec := NodeRecord{
		ID:             n.ID,
		Kind:           n.Kind.String(),
		Label:          n.Label,
		X:              n.Geom.X,
		Y:              n.Geom.Y,
		W:              n.Geom.W,
		H:              n.Geom.H,
		Essence:        string(n.Essence),
		Affiliation:    string(n.Affiliation),
		ParentObjectID: n.ParentObjectID,
		Initial:        n.Initial,
	}
	if n.OwningProcessID != "" {
		owner := n.OwningProcessID
		rec.ParentProcessID = &owner
	}
	return rec
}

func recordFromLink(l *model.Link) LinkRecord {
	rec := LinkRecord{
		ID:       l.ID,
		Kind:     l.Kind.String(),
		SourceID: l.SourceID,
		TargetID: l.TargetID,
		Label:    l.Label,
	}
	if l.CardSrc != nil {
		s := l.CardSrc.String()
		rec.CardSrc = &s
	}
	if l.CardDst != nil {
		s := l.CardDst.String()
		rec.CardDst = &s
	}
	return rec
}
