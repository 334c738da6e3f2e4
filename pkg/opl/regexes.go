// Package opl parses and generates Object-Process Language sentences, the
// restricted-English rendering of a diagram. The parser turns a batch of
// sentences into graph edits executed through the command engine; the
// generator walks the graph and emits the sentences back.
package opl

import "regexp"

// Sentence patterns. Each consumes a full line ending in a period.
var (
	// "Manufacturing consumes Material." / "... consumes Material at state Raw."
	reConsumes = regexp.MustCompile(`(?i)^\s*(?P<p>.+?)\s+consumes?\s+(?P<obj>.+?)(?:\s+at\s+state\s+(?P<state>\w+(?:-\w+)*))?\.\s*$`)
	// "Processing takes A, B and C as input."
	reInputs = regexp.MustCompile(`(?i)^\s*(?P<p>.+?)\s+takes?\s+(?P<objs>.+?)\s+as\s+input\.\s*$`)
	// "Manufacturing yields Product." / "Machining yields Part at state pre-tested."
	reYields = regexp.MustCompile(`(?i)^\s*(?P<p>.+?)\s+yields?\s+(?P<obj>.+?)(?:\s+at\s+state\s+(?P<state>\w+(?:-\w+)*))?\.\s*$`)
	// "Worker handles Manufacturing."
	reHandles = regexp.MustCompile(`(?i)^\s*(?P<agents>.+?)\s+handles?\s+(?P<p>.+?)\.\s*$`)
	// "Manufacturing requires Tools."
	reRequires = regexp.MustCompile(`(?i)^\s*(?P<p>.+?)\s+requires?\s+(?P<objs>.+?)\.\s*$`)
	// "Temperature affects Quality."
	reAffects = regexp.MustCompile(`(?i)^\s*(?P<x>.+?)\s+affects?\s+(?P<y>.+?)\.\s*$`)

	// "Car consists of Engine, Wheels and Body."
	reComposed = regexp.MustCompile(`(?i)^\s*(?P<whole>.+?)\s+consists\s+of\s+(?P<parts>.+?)\.\s*$`)
	// "Person is characterized by Name and Age."
	reCharacterized = regexp.MustCompile(`(?i)^\s*(?P<obj>.+?)\s+is\s+characterized\s+by\s+(?P<attrs>.+?)\.\s*$`)
	// "Product exhibits Quality."
	reExhibits = regexp.MustCompile(`(?i)^\s*(?P<obj>.+?)\s+exhibits?\s+(?P<attrs>.+?)\.\s*$`)
	// "Vehicle generalizes Car and Bike."
	reGeneralizes = regexp.MustCompile(`(?i)^\s*(?P<super>.+?)\s+generalizes?\s+(?P<subs>.+?)\.\s*$`)
	// "Freezing, Dehydrating and Canning are Spoilage Slowing."
	reAre = regexp.MustCompile(`(?i)^\s*(?P<subs>.+?)\s+are\s+(?P<super>.+?)\.\s*$`)
	// "Person has instances John, Mary and Bob."
	reInstances = regexp.MustCompile(`(?i)^\s*(?P<class>.+?)\s+has\s+instances\s+(?P<insts>.+?)\.\s*$`)

	// "Order can be Pending, Confirmed or Delivered."
	reStates = regexp.MustCompile(`(?i)^\s*(?P<obj>.+?)\s+can\s+be\s+(?P<states>.+?)\.\s*$`)
	// "Car is a Vehicle." Case-sensitive on purpose: a lowercase right-hand
	// side is an attribute or state sentence, not a generalization.
	reIsA = regexp.MustCompile(`^\s*(?P<sub>.+?)\s+is\s+an?\s+(?P<super>.+?)\.\s*$`)
	// "John is an instance of Person."
	reInstance = regexp.MustCompile(`(?i)^\s*(?P<inst>\w+)\s+is\s+an\s+instance\s+of\s+(?P<class>\w+)\.\s*$`)
	// "Processing changes Order from Pending to Confirmed."
	reChanges = regexp.MustCompile(`(?i)^\s*(?P<p>.+?)\s+changes?\s+(?P<obj>.+?)\s+from\s+(?P<from>.+?)\s+to\s+(?P<to>.+?)\.\s*$`)

	// "A is an informatical and systemic object." Both attribute orders.
	reDefinition = regexp.MustCompile(`(?i)^\s*(?P<name>.+?)\s+is\s+(?:an?\s+)?` +
		`(?:(?P<essence1>physical|informatical)\s+and\s+(?P<affiliation1>systemic|environmental)|` +
		`(?P<affiliation2>systemic|environmental)\s+and\s+(?P<essence2>physical|informatical))` +
		`\s+(?P<kind>object|process)\.+\s*$`)
	// "Car is an informatical object." The unstated attribute defaults.
	reDefinitionSingle = regexp.MustCompile(`(?i)^\s*(?P<name>.+?)\s+is\s+(?:an?\s+)?` +
		`(?P<attr>physical|informatical|systemic|environmental)` +
		`\s+(?P<kind>object|process)\.+\s*$`)
	// "Raw Metal Bar is physical." Creates an object by default.
	reDefinitionMinimal = regexp.MustCompile(`(?i)^\s*(?P<name>.+?)\s+is\s+` +
		`(?P<attr>physical|informatical|systemic|environmental)\.+\s*$`)
	// "A is pre-cut." A lowercase right-hand side declares a single state.
	reIsState = regexp.MustCompile(`(?i)^\s*(?P<obj>.+?)\s+is\s+(?P<state>[^\s.]+)\.\s*$`)
)

// group extracts a named capture from a match slice.
func group(re *regexp.Regexp, match []string, name string) string {
	for i, n := range re.SubexpNames() {
		if n == name && i < len(match) {
			return match[i]
		}
	}
	return ""
}
