package opl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/opmstudio/engine/pkg/graph"
	"github.com/opmstudio/engine/pkg/model"
)

// Generate walks the diagram and renders it as OPL sentences, one per
// line: state declarations first, then the procedural sentences grouped per
// process, then the structural ones. Output is deterministic for a given
// diagram so previews stay stable across edits that change nothing.
func Generate(st *graph.Store) string {
	var lines []string
	lines = append(lines, stateSentences(st)...)
	lines = append(lines, proceduralSentences(st)...)
	lines = append(lines, structuralSentences(st)...)
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n")
}

func stateSentences(st *graph.Store) []string {
	var lines []string
	for _, n := range st.Nodes() {
		if n.Kind != model.KindObject {
			continue
		}
		var labels []string
		for _, s := range st.StatesOf(n.ID) {
			labels = append(labels, s.Label)
		}
		sort.Strings(labels)
		switch len(labels) {
		case 0:
		case 1:
			lines = append(lines, fmt.Sprintf("%s is %s.", n.Label, labels[0]))
		default:
			lines = append(lines, fmt.Sprintf("%s can be %s.", n.Label, joinOr(labels)))
		}
	}
	return lines
}

// procBucket collects one process's procedural sentences before rendering.
type procBucket struct {
	consumes    []string
	yields      []string
	affects     []string
	agents      []string
	instruments []string
	// in/out map object label to the state consumed from / produced to, so
	// a matched pair renders as one "changes ... from ... to ..." sentence.
	in  map[string]string
	out map[string]string
}

func proceduralSentences(st *graph.Store) []string {
	buckets := make(map[string]*procBucket)
	bucket := func(procID string) *procBucket {
		b := buckets[procID]
		if b == nil {
			b = &procBucket{in: make(map[string]string), out: make(map[string]string)}
			buckets[procID] = b
		}
		return b
	}

	for _, l := range st.Links() {
		if !l.Kind.IsProcedural() {
			continue
		}
		src, err := st.GetNode(l.SourceID)
		if err != nil {
			continue
		}
		dst, err := st.GetNode(l.TargetID)
		if err != nil {
			continue
		}
		switch {
		case dst.Kind == model.KindProcess:
			b := bucket(dst.ID)
			switch l.Kind {
			case model.LinkConsumption:
				b.consumes = append(b.consumes, entityPhrase(st, src))
				if src.Kind == model.KindState {
					b.in[parentLabel(st, src)] = src.Label
				}
			case model.LinkAgent:
				b.agents = append(b.agents, entityPhrase(st, src))
			case model.LinkInstrument:
				b.instruments = append(b.instruments, entityPhrase(st, src))
			case model.LinkEffect:
				b.affects = append(b.affects, entityPhrase(st, src))
			}
		case src.Kind == model.KindProcess:
			b := bucket(src.ID)
			switch l.Kind {
			case model.LinkResult:
				if dst.Kind == model.KindState {
					b.out[parentLabel(st, dst)] = dst.Label
				} else {
					b.yields = append(b.yields, entityPhrase(st, dst))
				}
			case model.LinkEffect:
				b.affects = append(b.affects, entityPhrase(st, dst))
			}
		}
	}

	procIDs := make([]string, 0, len(buckets))
	for pid := range buckets {
		procIDs = append(procIDs, pid)
	}
	sort.Strings(procIDs)

	var lines []string
	for _, pid := range procIDs {
		proc, err := st.GetNode(pid)
		if err != nil {
			continue
		}
		b := buckets[pid]

		// A state consumed and a state produced on the same object render
		// as one state-change sentence; the consumed state drops out of
		// the consumes list.
		changed := make(map[string]bool)
		var objLabels []string
		for obj := range b.in {
			if _, ok := b.out[obj]; ok {
				objLabels = append(objLabels, obj)
			}
		}
		sort.Strings(objLabels)
		for _, obj := range objLabels {
			lines = append(lines, fmt.Sprintf("%s changes %s from %s to %s.", proc.Label, obj, b.in[obj], b.out[obj]))
			changed[obj+" at state "+b.in[obj]] = true
		}

		consumes := b.consumes[:0]
		for _, c := range b.consumes {
			if !changed[c] {
				consumes = append(consumes, c)
			}
		}
		if len(consumes) > 0 {
			lines = append(lines, fmt.Sprintf("%s consumes %s.", proc.Label, joinAnd(consumes)))
		}
		if len(b.yields) > 0 {
			lines = append(lines, fmt.Sprintf("%s yields %s.", proc.Label, joinAnd(b.yields)))
		}
		if len(b.affects) > 0 {
			lines = append(lines, fmt.Sprintf("%s affects %s.", proc.Label, joinAnd(b.affects)))
		}
		if len(b.agents) > 0 {
			lines = append(lines, fmt.Sprintf("%s handles %s.", joinAnd(b.agents), proc.Label))
		}
		if len(b.instruments) > 0 {
			lines = append(lines, fmt.Sprintf("%s requires %s.", proc.Label, joinAnd(b.instruments)))
		}
	}
	return lines
}

func structuralSentences(st *graph.Store) []string {
	// Structural links store the significant node (whole, exhibitor,
	// superclass, class) as the target; sentences group sources under it.
	grouped := make(map[model.LinkKind]map[string][]string)
	for _, l := range st.Links() {
		if !l.Kind.IsStructural() {
			continue
		}
		src, err := st.GetNode(l.SourceID)
		if err != nil {
			continue
		}
		dst, err := st.GetNode(l.TargetID)
		if err != nil {
			continue
		}
		if grouped[l.Kind] == nil {
			grouped[l.Kind] = make(map[string][]string)
		}
		grouped[l.Kind][dst.Label] = append(grouped[l.Kind][dst.Label], src.Label)
	}

	var lines []string
	for _, kind := range []model.LinkKind{model.LinkAggregation, model.LinkExhibition, model.LinkGeneralization, model.LinkInstantiation} {
		heads := make([]string, 0, len(grouped[kind]))
		for head := range grouped[kind] {
			heads = append(heads, head)
		}
		sort.Strings(heads)
		for _, head := range heads {
			members := grouped[kind][head]
			sort.Strings(members)
			switch kind {
			case model.LinkAggregation:
				lines = append(lines, fmt.Sprintf("%s consists of %s.", head, joinAnd(members)))
			case model.LinkExhibition:
				lines = append(lines, fmt.Sprintf("%s exhibits %s.", head, joinAnd(members)))
			case model.LinkGeneralization:
				if len(members) == 1 {
					lines = append(lines, fmt.Sprintf("%s is a %s.", members[0], head))
				} else {
					lines = append(lines, fmt.Sprintf("%s are %ss.", joinAnd(members), head))
				}
			case model.LinkInstantiation:
				if len(members) == 1 {
					lines = append(lines, fmt.Sprintf("%s is an instance of %s.", members[0], head))
				} else {
					lines = append(lines, fmt.Sprintf("%s are instances of %s.", joinAnd(members), head))
				}
			}
		}
	}
	return lines
}

// entityPhrase names a node in a sentence; states read as
// "Parent at state Label".
func entityPhrase(st *graph.Store, n *model.Node) string {
	if n.Kind == model.KindState {
		return parentLabel(st, n) + " at state " + n.Label
	}
	return n.Label
}

func parentLabel(st *graph.Store, state *model.Node) string {
	parent, err := st.GetNode(state.ParentObjectID)
	if err != nil {
		return "?"
	}
	return parent.Label
}

// joinAnd renders "A", "A and B", "A, B and C".
func joinAnd(names []string) string {
	return joinWith(names, "and")
}

// joinOr renders state lists, which join with "or".
func joinOr(names []string) string {
	return joinWith(names, "or")
}

func joinWith(names []string, conj string) string {
	names = dedupe(names)
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " " + conj + " " + names[len(names)-1]
	}
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
