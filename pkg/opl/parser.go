package opl

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/opmstudio/engine/pkg/command"
	"github.com/opmstudio/engine/pkg/graph"
	"github.com/opmstudio/engine/pkg/model"
)

// Parser turns OPL sentences into diagram edits. Every mutation goes
// through the command engine, so a parsed batch is undoable like any other
// edit sequence.
type Parser struct {
	st  *graph.Store
	eng *command.Engine

	kindOf map[string]model.NodeKind
	essOf  map[string]model.Essence
	affOf  map[string]model.Affiliation

	baseX       float64
	procI, objI int
}

// NewParser builds a parser writing into the given store via the engine.
func NewParser(st *graph.Store, eng *command.Engine) *Parser {
	return &Parser{st: st, eng: eng}
}

// Build parses the text sentence by sentence, creating nodes and links on
// demand. Nodes are matched to existing ones by label. It returns the lines
// it could not interpret, including links rejected by the graph's
// compatibility rules; the error is non-nil only when the store itself
// fails.
func (p *Parser) Build(text string) (ignored []string, err error) {
	p.kindOf = make(map[string]model.NodeKind)
	p.essOf = make(map[string]model.Essence)
	p.affOf = make(map[string]model.Affiliation)
	for _, n := range p.st.Nodes() {
		if n.Kind == model.KindState {
			continue
		}
		p.kindOf[n.Label] = n.Kind
		p.essOf[n.Label] = n.Essence
		p.affOf[n.Label] = n.Affiliation
	}

	// New nodes line up to the right of the existing diagram: processes in
	// a top row, objects in a bottom row.
	p.baseX = 350
	for _, n := range p.st.Nodes() {
		if right := n.Geom.X + n.Geom.W + 150; right > p.baseX {
			p.baseX = right
		}
	}

	lines := strings.Split(text, "\n")
	handled := make([]bool, len(lines))

	// Definitions go first so attributes exist before links create nodes.
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			handled[i] = true
			continue
		}
		ok, derr := p.parseDefinition(line)
		if derr != nil {
			return ignored, derr
		}
		handled[i] = ok
	}

	for i, raw := range lines {
		if handled[i] {
			continue
		}
		line := strings.TrimSpace(raw)
		skipped, perr := p.parseSentence(line, &ignored)
		if perr != nil {
			return ignored, perr
		}
		if skipped {
			ignored = append(ignored, line)
		}
	}
	return ignored, nil
}

// parseDefinition handles the "X is a <essence> and <affiliation> <kind>."
// family. Returns true when the line was consumed.
func (p *Parser) parseDefinition(line string) (bool, error) {
	if m := reDefinition.FindStringSubmatch(line); m != nil {
		name := norm(group(reDefinition, m, "name"))
		essence := model.Essence(strings.ToLower(group(reDefinition, m, "essence1")))
		affiliation := model.Affiliation(strings.ToLower(group(reDefinition, m, "affiliation1")))
		if essence == "" {
			essence = model.Essence(strings.ToLower(group(reDefinition, m, "essence2")))
			affiliation = model.Affiliation(strings.ToLower(group(reDefinition, m, "affiliation2")))
		}
		kind := model.KindObject
		if strings.EqualFold(group(reDefinition, m, "kind"), "process") {
			kind = model.KindProcess
		}
		return true, p.define(name, kind, essence, affiliation)
	}
	if m := reDefinitionSingle.FindStringSubmatch(line); m != nil {
		attr := group(reDefinitionSingle, m, "attr")
		// An uppercase attribute is a generalization target, not an
		// attribute; leave the line for the second pass.
		if attr == "" || attr[0] >= 'A' && attr[0] <= 'Z' {
			return false, nil
		}
		name := norm(group(reDefinitionSingle, m, "name"))
		kind := model.KindObject
		if strings.EqualFold(group(reDefinitionSingle, m, "kind"), "process") {
			kind = model.KindProcess
		}
		essence, affiliation := singleAttr(attr, kind)
		return true, p.define(name, kind, essence, affiliation)
	}
	if m := reDefinitionMinimal.FindStringSubmatch(line); m != nil {
		attr := group(reDefinitionMinimal, m, "attr")
		if attr == "" || attr[0] >= 'A' && attr[0] <= 'Z' {
			return false, nil
		}
		name := norm(group(reDefinitionMinimal, m, "name"))
		essence, affiliation := singleAttr(attr, model.KindObject)
		return true, p.define(name, model.KindObject, essence, affiliation)
	}
	return false, nil
}

func singleAttr(attr string, kind model.NodeKind) (model.Essence, model.Affiliation) {
	switch model.Essence(strings.ToLower(attr)) {
	case model.EssencePhysical, model.EssenceInformatical:
		return model.Essence(strings.ToLower(attr)), model.AffiliationSystemic
	}
	return model.DefaultEssence(kind), model.Affiliation(strings.ToLower(attr))
}

// define creates or updates a node carrying explicit attributes.
func (p *Parser) define(name string, kind model.NodeKind, essence model.Essence, affiliation model.Affiliation) error {
	p.kindOf[name] = kind
	p.essOf[name] = essence
	p.affOf[name] = affiliation
	if existing := p.st.FindByLabel(name); existing != nil {
		cmd, err := command.NewSetAttributes(p.st, existing.ID, essence, affiliation)
		if err != nil {
			return err
		}
		return p.eng.Execute(cmd)
	}
	_, err := p.create(name, kind)
	return err
}

// parseSentence handles every non-definition pattern. It returns true when
// no pattern matched and the line should be reported as ignored.
func (p *Parser) parseSentence(line string, ignored *[]string) (skipped bool, err error) {
	if m := reConsumes.FindStringSubmatch(line); m != nil {
		proc, err := p.getOrCreate(group(reConsumes, m, "p"), model.KindProcess)
		if err != nil {
			return false, err
		}
		obj, err := p.getOrCreate(group(reConsumes, m, "obj"), model.KindObject)
		if err != nil {
			return false, err
		}
		src := obj
		if state := group(reConsumes, m, "state"); state != "" {
			if src, err = p.getOrCreateState(obj, state); err != nil {
				return false, err
			}
		}
		return false, p.ensureLink(model.LinkConsumption, src, proc, ignored)
	}
	if m := reInputs.FindStringSubmatch(line); m != nil {
		proc, err := p.getOrCreate(group(reInputs, m, "p"), model.KindProcess)
		if err != nil {
			return false, err
		}
		for _, name := range splitNames(group(reInputs, m, "objs")) {
			obj, err := p.getOrCreate(name, model.KindObject)
			if err != nil {
				return false, err
			}
			if err := p.ensureLink(model.LinkConsumption, obj, proc, ignored); err != nil {
				return false, err
			}
		}
		return false, nil
	}
	if m := reYields.FindStringSubmatch(line); m != nil {
		proc, err := p.getOrCreate(group(reYields, m, "p"), model.KindProcess)
		if err != nil {
			return false, err
		}
		obj, err := p.getOrCreate(group(reYields, m, "obj"), model.KindObject)
		if err != nil {
			return false, err
		}
		dst := obj
		if state := group(reYields, m, "state"); state != "" {
			if dst, err = p.getOrCreateState(obj, state); err != nil {
				return false, err
			}
		}
		return false, p.ensureLink(model.LinkResult, proc, dst, ignored)
	}
	if m := reChanges.FindStringSubmatch(line); m != nil {
		proc, err := p.getOrCreate(group(reChanges, m, "p"), model.KindProcess)
		if err != nil {
			return false, err
		}
		obj, err := p.getOrCreate(group(reChanges, m, "obj"), model.KindObject)
		if err != nil {
			return false, err
		}
		from, err := p.getOrCreateState(obj, norm(group(reChanges, m, "from")))
		if err != nil {
			return false, err
		}
		to, err := p.getOrCreateState(obj, norm(group(reChanges, m, "to")))
		if err != nil {
			return false, err
		}
		if err := p.ensureLink(model.LinkConsumption, from, proc, ignored); err != nil {
			return false, err
		}
		return false, p.ensureLink(model.LinkResult, proc, to, ignored)
	}
	if m := reComposed.FindStringSubmatch(line); m != nil {
		return false, p.structuralFanIn(model.LinkAggregation, group(reComposed, m, "whole"), splitNames(group(reComposed, m, "parts")), ignored)
	}
	if m := reCharacterized.FindStringSubmatch(line); m != nil {
		return false, p.structuralFanIn(model.LinkExhibition, group(reCharacterized, m, "obj"), splitNames(group(reCharacterized, m, "attrs")), ignored)
	}
	if m := reExhibits.FindStringSubmatch(line); m != nil {
		return false, p.structuralFanIn(model.LinkExhibition, group(reExhibits, m, "obj"), splitNames(group(reExhibits, m, "attrs")), ignored)
	}
	if m := reGeneralizes.FindStringSubmatch(line); m != nil {
		return false, p.structuralFanIn(model.LinkGeneralization, group(reGeneralizes, m, "super"), splitNames(group(reGeneralizes, m, "subs")), ignored)
	}
	if m := reInstances.FindStringSubmatch(line); m != nil {
		return false, p.structuralFanIn(model.LinkInstantiation, group(reInstances, m, "class"), splitNames(group(reInstances, m, "insts")), ignored)
	}
	if m := reAre.FindStringSubmatch(line); m != nil {
		return false, p.structuralFanIn(model.LinkGeneralization, group(reAre, m, "super"), splitNames(group(reAre, m, "subs")), ignored)
	}
	if m := reHandles.FindStringSubmatch(line); m != nil {
		proc, err := p.getOrCreate(group(reHandles, m, "p"), model.KindProcess)
		if err != nil {
			return false, err
		}
		for _, name := range splitNames(group(reHandles, m, "agents")) {
			agent, err := p.getOrCreate(name, model.KindObject)
			if err != nil {
				return false, err
			}
			if err := p.ensureLink(model.LinkAgent, agent, proc, ignored); err != nil {
				return false, err
			}
		}
		return false, nil
	}
	if m := reRequires.FindStringSubmatch(line); m != nil {
		proc, err := p.getOrCreate(group(reRequires, m, "p"), model.KindProcess)
		if err != nil {
			return false, err
		}
		for _, name := range splitNames(group(reRequires, m, "objs")) {
			inst, err := p.getOrCreate(name, model.KindObject)
			if err != nil {
				return false, err
			}
			if err := p.ensureLink(model.LinkInstrument, inst, proc, ignored); err != nil {
				return false, err
			}
		}
		return false, nil
	}
	if m := reStates.FindStringSubmatch(line); m != nil {
		obj, err := p.getOrCreate(group(reStates, m, "obj"), model.KindObject)
		if err != nil {
			return false, err
		}
		for _, s := range splitStates(group(reStates, m, "states")) {
			if _, err := p.getOrCreateState(obj, s); err != nil {
				return false, err
			}
		}
		return false, nil
	}
	if m := reInstance.FindStringSubmatch(line); m != nil {
		inst, err := p.getOrCreate(group(reInstance, m, "inst"), model.KindObject)
		if err != nil {
			return false, err
		}
		class, err := p.getOrCreate(group(reInstance, m, "class"), model.KindObject)
		if err != nil {
			return false, err
		}
		return false, p.ensureLink(model.LinkInstantiation, inst, class, ignored)
	}
	if m := reIsA.FindStringSubmatch(line); m != nil {
		super := strings.TrimSpace(group(reIsA, m, "super"))
		// Lowercase right-hand sides are attribute or state sentences,
		// handled elsewhere; consume the line without drawing anything.
		if super != "" && super[0] >= 'A' && super[0] <= 'Z' {
			sub, err := p.getOrCreate(group(reIsA, m, "sub"), model.KindObject)
			if err != nil {
				return false, err
			}
			sup, err := p.getOrCreate(super, model.KindObject)
			if err != nil {
				return false, err
			}
			return false, p.ensureLink(model.LinkGeneralization, sub, sup, ignored)
		}
		return false, nil
	}
	if m := reIsState.FindStringSubmatch(line); m != nil {
		state := group(reIsState, m, "state")
		if state != "" && state[0] >= 'a' && state[0] <= 'z' {
			obj, err := p.getOrCreate(group(reIsState, m, "obj"), model.KindObject)
			if err != nil {
				return false, err
			}
			_, err = p.getOrCreateState(obj, state)
			return false, err
		}
	}
	if m := reAffects.FindStringSubmatch(line); m != nil {
		x := norm(group(reAffects, m, "x"))
		y := norm(group(reAffects, m, "y"))
		// Prefer recorded kinds; default to process-affects-object.
		procName, objName := x, y
		if p.kindOf[x] == model.KindObject || p.kindOf[y] == model.KindProcess {
			procName, objName = y, x
		}
		proc, err := p.getOrCreate(procName, model.KindProcess)
		if err != nil {
			return false, err
		}
		obj, err := p.getOrCreate(objName, model.KindObject)
		if err != nil {
			return false, err
		}
		if procName == x {
			return false, p.ensureLink(model.LinkEffect, proc, obj, ignored)
		}
		return false, p.ensureLink(model.LinkEffect, obj, proc, ignored)
	}
	return true, nil
}

// structuralFanIn links every listed node toward the significant one (the
// whole, the exhibitor, the superclass, the class). Structural links are
// stored with the significant node as the target.
func (p *Parser) structuralFanIn(kind model.LinkKind, headName string, names []string, ignored *[]string) error {
	head, err := p.getOrCreate(headName, model.KindObject)
	if err != nil {
		return err
	}
	for _, name := range names {
		n, err := p.getOrCreate(name, model.KindObject)
		if err != nil {
			return err
		}
		if err := p.ensureLink(kind, n, head, ignored); err != nil {
			return err
		}
	}
	return nil
}

// getOrCreate finds a node by label or creates one of the given kind. A
// label already taken by the other kind wins; sentences never retype nodes.
func (p *Parser) getOrCreate(rawName string, kind model.NodeKind) (*model.Node, error) {
	name := norm(rawName)
	if existing := p.st.FindByLabel(name); existing != nil {
		return existing, nil
	}
	return p.create(name, kind)
}

func (p *Parser) create(name string, kind model.NodeKind) (*model.Node, error) {
	geom := model.Geometry{W: model.DefaultNodeW, H: model.DefaultNodeH}
	if kind == model.KindProcess {
		geom.X = p.baseX + float64(p.procI)*200
		geom.Y = -150
		p.procI++
	} else {
		geom.X = p.baseX + float64(p.objI)*200
		geom.Y = 130
		p.objI++
	}
	cmd := command.NewAddNode(p.st, kind, name, geom, "")
	if err := p.eng.Execute(cmd); err != nil {
		return nil, err
	}
	n := cmd.Node()
	if ess, ok := p.essOf[name]; ok {
		attr, err := command.NewSetAttributes(p.st, n.ID, ess, p.affOf[name])
		if err != nil {
			return nil, err
		}
		if err := p.eng.Execute(attr); err != nil {
			return nil, err
		}
	}
	if _, ok := p.kindOf[name]; !ok {
		p.kindOf[name] = kind
	}
	return n, nil
}

func (p *Parser) getOrCreateState(obj *model.Node, label string) (*model.Node, error) {
	if existing := p.st.FindStateByLabel(obj.ID, label); existing != nil {
		return existing, nil
	}
	geom := model.Geometry{W: model.DefaultStateW, H: model.DefaultStateH}
	cmd := command.NewAddState(p.st, obj.ID, label, geom, false)
	if err := p.eng.Execute(cmd); err != nil {
		return nil, err
	}
	return cmd.Node(), nil
}

// ensureLink draws the link unless it already exists; a link the graph
// rejects as incompatible is reported, not fatal.
func (p *Parser) ensureLink(kind model.LinkKind, src, dst *model.Node, ignored *[]string) error {
	for _, l := range p.st.LinksTouching(src.ID) {
		if l.Kind == kind && l.SourceID == src.ID && l.TargetID == dst.ID {
			return nil
		}
	}
	err := p.eng.Execute(command.NewAddLink(p.st, kind, src.ID, dst.ID, nil, nil))
	if errors.Is(err, graph.ErrIncompatibleEndpoints) || errors.Is(err, graph.ErrDuplicateLink) {
		*ignored = append(*ignored, fmt.Sprintf("link skipped: %s %s -> %s", kind, src.Label, dst.Label))
		return nil
	}
	return err
}

func norm(name string) string {
	return strings.Trim(strings.TrimSpace(name), `"`)
}

var reAndOr = regexp.MustCompile(`(?i)\s+(?:and|or)\s+`)
var reOr = regexp.MustCompile(`(?i)\s+or\s+`)

// splitNames breaks "A, B and C" into its parts, deduplicated in order.
func splitNames(s string) []string {
	return splitList(reAndOr.ReplaceAllString(strings.Trim(strings.TrimSpace(s), "."), ", "))
}

// splitStates breaks "A, B or C" into its parts; states join with "or".
func splitStates(s string) []string {
	return splitList(reOr.ReplaceAllString(strings.Trim(strings.TrimSpace(s), "."), ", "))
}

func splitList(s string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, part := range strings.Split(s, ",") {
		name := norm(part)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
