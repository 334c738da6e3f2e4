package model

import "testing"

// TestLinkKindFamilies checks the structural/procedural partition
func TestLinkKindFamilies(t *testing.T) {
	structural := []LinkKind{LinkAggregation, LinkExhibition, LinkGeneralization, LinkInstantiation}
	procedural := []LinkKind{LinkConsumption, LinkResult, LinkEffect, LinkAgent, LinkInstrument}

	for _, k := range structural {
		if !k.IsStructural() || k.IsProcedural() {
			t.Errorf("%s should be structural", k)
		}
	}
	for _, k := range procedural {
		if !k.IsProcedural() || k.IsStructural() {
			t.Errorf("%s should be procedural", k)
		}
	}
}

// TestKindRoundTrip checks String/Parse agree for every kind
func TestKindRoundTrip(t *testing.T) {
	for k := LinkAggregation; k <= LinkInstrument; k++ {
		parsed, err := ParseLinkKind(k.String())
		if err != nil {
			t.Fatalf("ParseLinkKind(%q): %v", k.String(), err)
		}
		if parsed != k {
			t.Errorf("ParseLinkKind(%q) = %v, want %v", k.String(), parsed, k)
		}
	}
	for _, k := range []NodeKind{KindObject, KindProcess, KindState} {
		parsed, err := ParseNodeKind(k.String())
		if err != nil {
			t.Fatalf("ParseNodeKind(%q): %v", k.String(), err)
		}
		if parsed != k {
			t.Errorf("ParseNodeKind(%q) = %v, want %v", k.String(), parsed, k)
		}
	}
	if _, err := ParseLinkKind("bogus"); err == nil {
		t.Error("Expected error for unknown link kind")
	}
}

// TestEndpointsCompatible covers the kind-pair constraint table
func TestEndpointsCompatible(t *testing.T) {
	tests := []struct {
		name string
		kind LinkKind
		src  NodeKind
		dst  NodeKind
		want bool
	}{
		{"generalization object-object", LinkGeneralization, KindObject, KindObject, true},
		{"generalization process-process", LinkGeneralization, KindProcess, KindProcess, true},
		{"generalization mixed kinds", LinkGeneralization, KindObject, KindProcess, false},
		{"aggregation state not allowed", LinkAggregation, KindState, KindObject, false},
		{"consumption object to process", LinkConsumption, KindObject, KindProcess, true},
		{"consumption state to process", LinkConsumption, KindState, KindProcess, true},
		{"consumption wrong direction", LinkConsumption, KindProcess, KindObject, false},
		{"result process to object", LinkResult, KindProcess, KindObject, true},
		{"result process to state", LinkResult, KindProcess, KindState, true},
		{"result wrong direction", LinkResult, KindObject, KindProcess, false},
		{"agent object to process", LinkAgent, KindObject, KindProcess, true},
		{"instrument state to process", LinkInstrument, KindState, KindProcess, true},
		{"effect either direction a", LinkEffect, KindProcess, KindObject, true},
		{"effect either direction b", LinkEffect, KindObject, KindProcess, true},
		{"effect object-object", LinkEffect, KindObject, KindObject, false},
	}
	for _, tt := range tests {
		if got := EndpointsCompatible(tt.kind, tt.src, tt.dst); got != tt.want {
			t.Errorf("%s: EndpointsCompatible = %v, want %v", tt.name, got, tt.want)
		}
	}
}

// TestCardinalityParse covers exact counts, open ranges and rejects
func TestCardinalityParse(t *testing.T) {
	c, err := ParseCardinality("3")
	if err != nil || c == nil || c.Min != 3 || c.Open {
		t.Errorf("ParseCardinality(3) = %+v, %v", c, err)
	}
	c, err = ParseCardinality("0..*")
	if err != nil || c == nil || c.Min != 0 || !c.Open {
		t.Errorf("ParseCardinality(0..*) = %+v, %v", c, err)
	}
	if c.String() != "0..*" {
		t.Errorf("String() = %q, want 0..*", c.String())
	}
	c, err = ParseCardinality("")
	if err != nil || c != nil {
		t.Errorf("Empty cardinality should be nil, got %+v, %v", c, err)
	}
	for _, bad := range []string{"-1", "x", "*..0", "1..x"} {
		if _, err := ParseCardinality(bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}

// TestOwnershipOrder verifies parents sort before the nodes that need them
func TestOwnershipOrder(t *testing.T) {
	nodes := []*Node{
		{ID: "state_1", Kind: KindState, ParentObjectID: "object_1"},
		{ID: "object_1", Kind: KindObject, OwningProcessID: "process_1"},
		{ID: "process_2", Kind: KindProcess, OwningProcessID: "process_1"},
		{ID: "process_1", Kind: KindProcess},
	}
	ordered := OwnershipOrder(nodes)

	pos := make(map[string]int)
	for i, n := range ordered {
		pos[n.ID] = i
	}
	if pos["process_1"] > pos["object_1"] || pos["process_1"] > pos["process_2"] {
		t.Errorf("Owner should come first: %v", pos)
	}
	if pos["object_1"] > pos["state_1"] {
		t.Errorf("Parent object should come before its state: %v", pos)
	}
}

// TestNodeCloneIsDeep verifies mutating a clone leaves the original alone
func TestNodeCloneIsDeep(t *testing.T) {
	min := 1
	l := &Link{ID: "link_1", Kind: LinkAggregation, SourceID: "object_1", TargetID: "object_2", CardSrc: &Cardinality{Min: min}}
	c := l.Clone()
	c.CardSrc.Min = 99
	if l.CardSrc.Min != 1 {
		t.Error("Clone shares cardinality with original")
	}
}
