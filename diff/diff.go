package diff

import (
	"nodediff/cas"
	"nodediff/match"
	"nodediff/script"
)

// renameNode rewrites every reference inside an added node to its
// ancestor-side id when a match exists. An add may point at nodes that
// already exist on the ancestor side under a different id; renaming makes
// the diff independently applicable to the ancestor.
func renameNode(n *script.Node, nodeMatches *match.RefMatch[script.NodeRef], graphMatches *match.RefMatch[script.GraphRef]) {
	for name, ref := range n.NodeRefs {
		if nodeMatches.HasMatchInAncestor(ref) {
			n.NodeRefs[name] = nodeMatches.ToAncestor(ref)
		}
	}
	for name, ref := range n.GraphRefs {
		if graphMatches.HasMatchInAncestor(ref) {
			n.GraphRefs[name] = graphMatches.ToAncestor(ref)
		}
	}
	for socket, e := range n.InputRefs {
		if nodeMatches.HasMatchInAncestor(e.Node) {
			e.Node = nodeMatches.ToAncestor(e.Node)
			n.InputRefs[socket] = e
		}
	}
}

// renameGraph rewrites graph references in every node of an added graph.
// Node matches do not apply: the graph is new, so its nodes are too.
func renameGraph(g *script.Graph, graphMatches *match.RefMatch[script.GraphRef]) {
	empty := match.NewRefMatch[script.NodeRef]()
	for _, n := range g.Nodes {
		renameNode(n, empty, graphMatches)
	}
}

// DiffNodes returns the partial node holding every property of version that
// differs from ancestor under the given matches. All five maps are diffed;
// the result is empty when the nodes are equivalent.
func DiffNodes(ancestor, version *script.Node, nodeMatches *match.RefMatch[script.NodeRef], graphMatches *match.RefMatch[script.GraphRef]) *script.Node {
	d := script.NewNode()
	diffValues(ancestor.Values, version.Values, d.Values)
	diffNodeRefs(ancestor.NodeRefs, version.NodeRefs, nodeMatches, d.NodeRefs)
	diffGraphRefs(ancestor.GraphRefs, version.GraphRefs, graphMatches, d.GraphRefs)
	diffTextureRefs(ancestor.TextureRefs, version.TextureRefs, d.TextureRefs)
	diffInputRefs(ancestor.InputRefs, version.InputRefs, nodeMatches, d.InputRefs)
	return d
}

// DiffGraphs returns the per-node change set between two graphs. Unmatched
// version nodes become adds with renamed references, matched nodes with a
// non-empty node diff become edits keyed by the ancestor id, and unmatched
// ancestor nodes become deletes carrying the ancestor node.
func DiffGraphs(ancestor, version *script.Graph, nodeMatches *match.RefMatch[script.NodeRef], graphMatches *match.RefMatch[script.GraphRef]) *GraphDiff {
	d := NewGraphDiff()

	for versionID, versionNode := range version.Nodes {
		if !nodeMatches.HasMatchInAncestor(versionID) {
			added := versionNode.Clone()
			renameNode(added, nodeMatches, graphMatches)
			d.Nodes[versionID] = NodeChange{Op: OpAdd, Diff: added}
			continue
		}

		ancestorID := nodeMatches.ToAncestor(versionID)
		nd := DiffNodes(ancestor.Node(ancestorID), versionNode, nodeMatches, graphMatches)
		if !NodeDiffIsEmpty(nd) {
			d.Nodes[ancestorID] = NodeChange{Op: OpEdit, Diff: nd}
		}
	}

	for ancestorID, ancestorNode := range ancestor.Nodes {
		if !nodeMatches.HasMatchInVersion(ancestorID) {
			d.Nodes[ancestorID] = NodeChange{Op: OpDel, Diff: ancestorNode.Clone()}
		}
	}
	return d
}

// DiffScripts returns the per-graph change set between two scripts. Node
// matches are computed per matched graph pair; the type function feeds the
// node cost.
func DiffScripts(ancestor, version *script.Script, graphMatches *match.RefMatch[script.GraphRef], typeFn match.TypeFunc) *ScriptDiff {
	d := NewScriptDiff()

	for versionID, versionGraph := range version.Graphs {
		if !graphMatches.HasMatchInAncestor(versionID) {
			added := versionGraph.Clone()
			renameGraph(added, graphMatches)
			d.Graphs[versionID] = GraphChange{Op: OpAdd, Graph: added}
			continue
		}

		ancestorID := graphMatches.ToAncestor(versionID)
		ancestorGraph := ancestor.Graph(ancestorID)
		nodeMatches := MatchNodes(ancestorGraph, versionGraph, graphMatches, typeFn)

		gd := DiffGraphs(ancestorGraph, versionGraph, nodeMatches, graphMatches)
		if !gd.IsEmpty() {
			d.Graphs[ancestorID] = GraphChange{Op: OpEdit, Diff: gd}
		}
	}

	for ancestorID, ancestorGraph := range ancestor.Graphs {
		if !graphMatches.HasMatchInVersion(ancestorID) {
			d.Graphs[ancestorID] = GraphChange{Op: OpDel, Graph: ancestorGraph.Clone()}
		}
	}
	return d
}

// RemoveCommonAdds drops from diff2 every add whose node content already
// appears as an add in diff1 under the same graph. Concurrent identical
// insertions collapse to one; the merge result is unchanged because both
// versions would have produced the same concrete addition.
func RemoveCommonAdds(diff1, diff2 *ScriptDiff) {
	for graphID, change1 := range diff1.Graphs {
		change2, ok := diff2.Graphs[graphID]
		if change1.Op == OpEdit && ok && change2.Op == OpEdit {
			removeCommonGraphAdds(change1.Diff, change2.Diff)
		}
	}
}

// removeCommonGraphAdds indexes diff1's add payloads by content digest and
// drops diff2 adds with a digest hit. Digests can collide across numeric
// kinds after canonicalization, so a hit is confirmed structurally.
func removeCommonGraphAdds(diff1, diff2 *GraphDiff) {
	adds := map[string][]*script.Node{}
	for _, change := range diff1.Nodes {
		if change.Op != OpAdd {
			continue
		}
		digest, err := cas.DigestHex(change.Diff)
		if err != nil {
			continue
		}
		adds[digest] = append(adds[digest], change.Diff)
	}
	if len(adds) == 0 {
		return
	}

	for id, change := range diff2.Nodes {
		if change.Op != OpAdd {
			continue
		}
		digest, err := cas.DigestHex(change.Diff)
		if err != nil {
			continue
		}
		for _, n := range adds[digest] {
			if n.Equal(change.Diff) {
				delete(diff2.Nodes, id)
				break
			}
		}
	}
}
