package model

// EndpointsCompatible reports whether a link of the given kind may connect a
// source node of kind src to a target node of kind dst.
//
// Structural relations connect two nodes of the same kind, object-object or
// process-process, never across. Procedural relations connect an object or a
// state with a process; direction is semantically meaningful: consumption,
// agent and instrument flow toward the process, result flows away from it,
// and effect is accepted in either direction.
func EndpointsCompatible(kind LinkKind, src, dst NodeKind) bool {
	switch kind {
	case LinkAggregation, LinkExhibition, LinkGeneralization, LinkInstantiation:
		if src != dst {
			return false
		}
		return src == KindObject || src == KindProcess

	case LinkConsumption, LinkAgent, LinkInstrument:
		return (src == KindObject || src == KindState) && dst == KindProcess

	case LinkResult:
		return src == KindProcess && (dst == KindObject || dst == KindState)

	case LinkEffect:
		if (src == KindObject || src == KindState) && dst == KindProcess {
			return true
		}
		return src == KindProcess && (dst == KindObject || dst == KindState)

	default:
		return false
	}
}
