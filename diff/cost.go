package diff

import (
	"math"

	"nodediff/match"
	"nodediff/script"
)

// Match thresholds: a graph pair is accepted below 0.65, a node pair below
// 0.35. Both single-pass.
const (
	graphMatchThreshold = 0.65
	nodeMatchThreshold  = 0.35
)

// GraphCost is the edit cost between two graphs: the per-node-type histogram
// difference normalized by the ancestor's node count. The version tally is
// subtracted from the ancestor tally in place and types the ancestor never
// had accumulate separately; the denominator stays the ancestor size.
func GraphCost(ancestor, version *script.Graph, typeFn match.TypeFunc) float64 {
	ancestorCount := map[string]int{}
	for _, n := range ancestor.Nodes {
		ancestorCount[typeFn(n)]++
	}

	versionCount := map[string]int{}
	for _, n := range version.Nodes {
		t := typeFn(n)
		if _, ok := ancestorCount[t]; ok {
			ancestorCount[t]--
		} else {
			versionCount[t]++
		}
	}

	cost := 0
	for _, c := range ancestorCount {
		if c < 0 {
			c = -c
		}
		cost += c
	}
	for _, c := range versionCount {
		cost += c
	}
	return float64(cost) / float64(len(ancestor.Nodes))
}

// NodeCost is the edit cost between two nodes: infinite when the types
// differ, otherwise the changed-property count across the five maps
// normalized by the ancestor's total property count. References are
// compared after translating through the accumulated matches.
func NodeCost(ancestor, version *script.Node, nodeMatches *match.RefMatch[script.NodeRef], graphMatches *match.RefMatch[script.GraphRef], typeFn match.TypeFunc) float64 {
	if typeFn(ancestor) != typeFn(version) {
		return math.Inf(1)
	}

	changed := diffValues(ancestor.Values, version.Values, nil)
	changed += diffNodeRefs(ancestor.NodeRefs, version.NodeRefs, nodeMatches, nil)
	changed += diffGraphRefs(ancestor.GraphRefs, version.GraphRefs, graphMatches, nil)
	changed += diffTextureRefs(ancestor.TextureRefs, version.TextureRefs, nil)
	changed += diffInputRefs(ancestor.InputRefs, version.InputRefs, nodeMatches, nil)

	return float64(changed) / float64(ancestor.Len())
}

// MatchGraphs matches the graphs of two scripts with a single
// histogram-cost pass.
func MatchGraphs(ancestor, version *script.Script, typeFn match.TypeFunc) *match.RefMatch[script.GraphRef] {
	cost := func(a, v script.GraphRef, _ *match.RefMatch[script.GraphRef]) float64 {
		return GraphCost(ancestor.Graph(a), version.Graph(v), typeFn)
	}
	return match.Objects(ancestor.Graphs, version.Graphs, []match.Pass[script.GraphRef]{
		{Cost: cost, Threshold: graphMatchThreshold},
	})
}

// MatchNodes matches the nodes of two graphs with a single edit-cost pass,
// given the graph matches established earlier.
func MatchNodes(ancestor, version *script.Graph, graphMatches *match.RefMatch[script.GraphRef], typeFn match.TypeFunc) *match.RefMatch[script.NodeRef] {
	cost := func(a, v script.NodeRef, nodeMatches *match.RefMatch[script.NodeRef]) float64 {
		return NodeCost(ancestor.Node(a), version.Node(v), nodeMatches, graphMatches, typeFn)
	}
	return match.Objects(ancestor.Nodes, version.Nodes, []match.Pass[script.NodeRef]{
		{Cost: cost, Threshold: nodeMatchThreshold},
	})
}
