package diff

import (
	"nodediff/match"
	"nodediff/script"
)

// The per-property diff functions iterate the version side, compare against
// the ancestor after translating references through the matches, and return
// the number of differing properties. When out is non-nil the differing
// entries are also collected into it: the version-side value, with a matched
// reference translated to its ancestor id.

func diffValues(ancestor, version map[string]script.Value, out map[string]script.Value) int {
	count := 0
	for name, versionValue := range version {
		if !ancestor[name].Equal(versionValue) {
			count++
			if out != nil {
				out[name] = versionValue
			}
		}
	}
	return count
}

func diffNodeRefs(ancestor, version map[string]script.NodeRef, nodeMatches *match.RefMatch[script.NodeRef], out map[string]script.NodeRef) int {
	count := 0
	for name, versionRef := range version {
		ancestorRef := ancestor[name]

		// A referenced node without an ancestor match is itself added in the
		// version, so its id is kept verbatim.
		if !nodeMatches.HasMatchInAncestor(versionRef) {
			count++
			if out != nil {
				out[name] = versionRef
			}
			continue
		}
		if matched := nodeMatches.ToAncestor(versionRef); matched != ancestorRef {
			count++
			if out != nil {
				out[name] = matched
			}
		}
	}
	return count
}

func diffGraphRefs(ancestor, version map[string]script.GraphRef, graphMatches *match.RefMatch[script.GraphRef], out map[string]script.GraphRef) int {
	count := 0
	for name, versionRef := range version {
		ancestorRef := ancestor[name]

		if !graphMatches.HasMatchInAncestor(versionRef) {
			count++
			if out != nil {
				out[name] = versionRef
			}
			continue
		}
		if matched := graphMatches.ToAncestor(versionRef); matched != ancestorRef {
			count++
			if out != nil {
				out[name] = matched
			}
		}
	}
	return count
}

func diffTextureRefs(ancestor, version map[string]script.TextureRef, out map[string]script.TextureRef) int {
	count := 0
	for name, versionRef := range version {
		if !ancestor[name].Equal(versionRef) {
			count++
			if out != nil {
				out[name] = versionRef
			}
		}
	}
	return count
}

func diffInputRefs(ancestor, version map[string]script.Edge, nodeMatches *match.RefMatch[script.NodeRef], out map[string]script.Edge) int {
	count := 0
	for socket, versionEdge := range version {
		ancestorEdge := ancestor[socket]

		if !nodeMatches.HasMatchInAncestor(versionEdge.Node) {
			count++
			if out != nil {
				out[socket] = versionEdge
			}
			continue
		}
		matched := script.Edge{Node: nodeMatches.ToAncestor(versionEdge.Node), Socket: versionEdge.Socket}
		if ancestorEdge != matched {
			count++
			if out != nil {
				out[socket] = matched
			}
		}
	}
	return count
}
