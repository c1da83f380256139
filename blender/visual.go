package blender

import (
	"fmt"

	"nodediff/config"
	"nodediff/diff"
	"nodediff/script"
)

// ColorNode marks a node with a custom editor color.
func ColorNode(n *script.Node, c config.Color) {
	n.Values[UseCustomColorProp] = script.Int(1)
	n.Values[ColorProp] = script.FloatArray([]float64{c[0], c[1], c[2]})
}

// PatchGraph colors every node a graph diff touched, in a graph the diff
// was already applied to. Deleted nodes are re-inserted with their input
// edges cleared so they survive as tombstones. Interface-inputs virtual
// nodes never render, so they stay uncolored.
func PatchGraph(g *script.Graph, d *diff.GraphDiff, pal config.Palette) {
	for id, change := range d.Nodes {
		if change.Op == diff.OpDel {
			g.AddNode(id, change.Diff.Clone())
		}
		n := g.Node(id)
		if isInterfaceInputs(n) {
			continue
		}
		switch change.Op {
		case diff.OpAdd:
			ColorNode(n, pal.Add)
		case diff.OpDel:
			ColorNode(n, pal.Del)
			n.InputRefs = map[string]script.Edge{}
		case diff.OpEdit:
			ColorNode(n, pal.Edit)
		default:
			panic(fmt.Sprintf("blender: invalid operation %q", change.Op))
		}
	}
}

// PatchScript colors every node a script diff touched. Added and deleted
// graphs have no surviving editor view, so only graph edits recurse.
func PatchScript(s *script.Script, d *diff.ScriptDiff, pal config.Palette) {
	for id, change := range d.Graphs {
		if change.Op == diff.OpEdit {
			PatchGraph(s.Graph(id), change.Diff, pal)
		}
	}
}

// PatchMerge colors a merged script with both diffs: the primary palette
// for the first, the secondary for the second, and the concurrent palette
// over nodes both diffs touched.
func PatchMerge(s *script.Script, diff1, diff2 *diff.ScriptDiff, cfg *config.Config) {
	PatchScript(s, diff1, cfg.Palette)
	PatchScript(s, diff2, cfg.Secondary)

	for id, change1 := range diff1.Graphs {
		if change1.Op != diff.OpEdit {
			continue
		}
		change2, ok := diff2.Graphs[id]
		if !ok || change2.Diff == nil {
			continue
		}
		g := s.Graph(id)
		for nodeID, nodeChange := range change1.Diff.Nodes {
			if _, ok := change2.Diff.Nodes[nodeID]; !ok {
				continue
			}
			n := g.Node(nodeID)
			switch nodeChange.Op {
			case diff.OpAdd:
				ColorNode(n, cfg.Concurrent.Add)
			case diff.OpDel:
				ColorNode(n, cfg.Concurrent.Del)
			case diff.OpEdit:
				ColorNode(n, cfg.Concurrent.Edit)
			default:
				panic(fmt.Sprintf("blender: invalid operation %q", nodeChange.Op))
			}
		}
	}
}
