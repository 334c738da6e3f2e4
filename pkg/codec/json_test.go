package codec

import (
	"bytes"
	"testing"

	"github.com/opmstudio/engine/pkg/graph"
	"github.com/opmstudio/engine/pkg/model"
)

func sampleDiagram(t *testing.T) *graph.Store {
	t.Helper()
	st := graph.NewStore()
	book, err := st.AddNode(model.KindObject, "Book", model.Geometry{X: 10, Y: 20, W: 140, H: 70}, "")
	if err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	st.AddState(book.ID, "Open", model.Geometry{W: 100, H: 28}, true)
	read, _ := st.AddNode(model.KindProcess, "Reading", model.Geometry{X: 200, W: 160, H: 80}, "")
	knowledge, _ := st.AddNode(model.KindObject, "Knowledge", model.Geometry{X: 400, W: 140, H: 70}, "")
	st.AddLink(model.LinkConsumption, book.ID, read.ID, nil, nil)
	st.AddLink(model.LinkResult, read.ID, knowledge.ID, nil, nil)
	return st
}

// TestExportImportRoundTrip a clean document restores every node and link
// under the same identifiers
func TestExportImportRoundTrip(t *testing.T) {
	st := sampleDiagram(t)
	c := New()

	data, err := c.Export(st)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	st2, report, err := c.Import(data)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !report.OK() {
		t.Fatalf("Report = %+v", report.Errors)
	}
	if st2.NodeCount() != st.NodeCount() || st2.LinkCount() != st.LinkCount() {
		t.Fatalf("Counts = %d/%d, want %d/%d", st2.NodeCount(), st2.LinkCount(), st.NodeCount(), st.LinkCount())
	}
	for _, n := range st.Nodes() {
		got, err := st2.GetNode(n.ID)
		if err != nil {
			t.Fatalf("Node %s lost: %v", n.ID, err)
		}
		if got.Label != n.Label || got.Kind != n.Kind || got.Geom != n.Geom ||
			got.Initial != n.Initial || got.ParentObjectID != n.ParentObjectID {
			t.Errorf("Node %s = %+v, want %+v", n.ID, got, n)
		}
	}
}

// TestExportDeterministic byte-stable output for the same diagram
func TestExportDeterministic(t *testing.T) {
	st := sampleDiagram(t)
	c := New()
	first, err := c.Export(st)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	second, err := c.Export(st)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("Two exports of one diagram differ")
	}
}

// TestImportReseedsAllocator new identifiers continue past the imported ones
func TestImportReseedsAllocator(t *testing.T) {
	doc := []byte(`{
		"nodes": [
			{"id": "object_7", "kind": "object", "label": "A", "w": 140, "h": 70},
			{"id": "object_3", "kind": "object", "label": "B", "w": 140, "h": 70}
		],
		"links": []
	}`)
	st, report, err := New().Import(doc)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !report.OK() {
		t.Fatalf("Report = %+v", report.Errors)
	}
	n, err := st.AddNode(model.KindObject, "C", model.Geometry{}, "")
	if err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if n.ID != "object_8" {
		t.Errorf("Next identifier = %s, want object_8", n.ID)
	}
}

// TestImportCollectsBadRecords malformed records are reported and skipped
// while the rest import
func TestImportCollectsBadRecords(t *testing.T) {
	doc := []byte(`{
		"nodes": [
			{"id": "object_1", "kind": "object", "label": "Good", "w": 140, "h": 70},
			{"id": "object_2", "kind": "blob", "label": "BadKind"},
			{"id": "state_1", "kind": "state", "label": "Orphan"}
		],
		"links": []
	}`)
	st, report, err := New().Import(doc)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if st.NodeCount() != 1 {
		t.Errorf("NodeCount = %d, want 1", st.NodeCount())
	}
	if len(report.Errors) != 2 {
		t.Fatalf("Report = %+v, want two errors", report.Errors)
	}
	ids := map[string]bool{}
	for _, re := range report.Errors {
		if re.Entity != "node" {
			t.Errorf("Entity = %s", re.Entity)
		}
		ids[re.ID] = true
	}
	if !ids["object_2"] || !ids["state_1"] {
		t.Errorf("Reported ids = %v", ids)
	}
}

// TestImportRejectsDanglingLink a link to a missing node is an error entry
func TestImportRejectsDanglingLink(t *testing.T) {
	doc := []byte(`{
		"nodes": [
			{"id": "object_1", "kind": "object", "label": "A", "w": 140, "h": 70}
		],
		"links": [
			{"id": "link_1", "kind": "consumption", "source_id": "object_1", "target_id": "process_9"}
		]
	}`)
	st, report, err := New().Import(doc)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if st.LinkCount() != 0 {
		t.Errorf("LinkCount = %d, want 0", st.LinkCount())
	}
	if len(report.Errors) != 1 || report.Errors[0].Entity != "link" || report.Errors[0].ID != "link_1" {
		t.Errorf("Report = %+v", report.Errors)
	}
}

// TestImportRejectsIncompatibleLink kind-pair rules hold on import too
func TestImportRejectsIncompatibleLink(t *testing.T) {
	doc := []byte(`{
		"nodes": [
			{"id": "object_1", "kind": "object", "label": "A", "w": 140, "h": 70},
			{"id": "object_2", "kind": "object", "label": "B", "w": 140, "h": 70}
		],
		"links": [
			{"id": "link_1", "kind": "consumption", "source_id": "object_1", "target_id": "object_2"}
		]
	}`)
	st, report, err := New().Import(doc)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if st.LinkCount() != 0 {
		t.Errorf("LinkCount = %d, want 0", st.LinkCount())
	}
	if report.OK() {
		t.Error("Incompatible link imported without a report entry")
	}
}

// TestImportCascadesParentFailure a child whose owner was rejected fails too
func TestImportCascadesParentFailure(t *testing.T) {
	doc := []byte(`{
		"nodes": [
			{"id": "process_1", "kind": "martian", "label": "BadOwner"},
			{"id": "object_1", "kind": "object", "label": "Child", "parent_process_id": "process_1"}
		],
		"links": []
	}`)
	st, report, err := New().Import(doc)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if st.NodeCount() != 0 {
		t.Errorf("NodeCount = %d, want 0", st.NodeCount())
	}
	if len(report.Errors) != 2 {
		t.Errorf("Report = %+v, want owner and child entries", report.Errors)
	}
}

// TestImportOutOfOrderOwnership children listed before their owners still land
func TestImportOutOfOrderOwnership(t *testing.T) {
	doc := []byte(`{
		"nodes": [
			{"id": "state_1", "kind": "state", "label": "on", "parent_object_id": "object_1"},
			{"id": "object_1", "kind": "object", "label": "Switch", "parent_process_id": "process_1", "w": 140, "h": 70},
			{"id": "process_1", "kind": "process", "label": "Operating", "w": 160, "h": 80}
		],
		"links": []
	}`)
	st, report, err := New().Import(doc)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !report.OK() {
		t.Fatalf("Report = %+v", report.Errors)
	}
	if st.NodeCount() != 3 {
		t.Errorf("NodeCount = %d, want 3", st.NodeCount())
	}
}

// TestImportDefaults omitted essence and affiliation fall back per kind
func TestImportDefaults(t *testing.T) {
	doc := []byte(`{
		"nodes": [
			{"id": "object_1", "kind": "object", "label": "A", "w": 140, "h": 70},
			{"id": "process_1", "kind": "process", "label": "P", "w": 160, "h": 80}
		],
		"links": []
	}`)
	st, _, err := New().Import(doc)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	obj, _ := st.GetNode("object_1")
	if obj.Essence != model.DefaultEssence(model.KindObject) || obj.Affiliation != model.AffiliationSystemic {
		t.Errorf("Object defaults = %s/%s", obj.Essence, obj.Affiliation)
	}
	proc, _ := st.GetNode("process_1")
	if proc.Essence != model.DefaultEssence(model.KindProcess) {
		t.Errorf("Process essence = %s", proc.Essence)
	}
}

// TestImportCardinalities parse and survive a round trip
func TestImportCardinalities(t *testing.T) {
	st := graph.NewStore()
	car, _ := st.AddNode(model.KindObject, "Car", model.Geometry{}, "")
	wheel, _ := st.AddNode(model.KindObject, "Wheel", model.Geometry{}, "")
	card, err := model.ParseCardinality("4")
	if err != nil {
		t.Fatalf("ParseCardinality: %v", err)
	}
	if _, err := st.AddLink(model.LinkAggregation, wheel.ID, car.ID, card, nil); err != nil {
		t.Fatalf("AddLink: %v", err)
	}

	c := New()
	data, err := c.Export(st)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	st2, report, err := c.Import(data)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !report.OK() {
		t.Fatalf("Report = %+v", report.Errors)
	}
	links := st2.Links()
	if len(links) != 1 || links[0].CardSrc == nil || links[0].CardSrc.String() != "4" {
		t.Errorf("Links = %+v", links)
	}
}

// TestImportGarbage a non-JSON payload is a document-level error
func TestImportGarbage(t *testing.T) {
	if _, _, err := New().Import([]byte("not json")); err == nil {
		t.Error("Expected a decode error")
	}
}
