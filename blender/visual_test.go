package blender

import (
	"testing"

	"nodediff/config"
	"nodediff/diff"
	"nodediff/script"
)

func plainNode() *script.Node {
	n := script.NewNode()
	n.Values[NodeTypeProp] = script.String("ShaderNodeRGB")
	return n
}

func hasColor(t *testing.T, n *script.Node, c config.Color) bool {
	t.Helper()
	use, ok := n.Values[UseCustomColorProp]
	if !ok || !use.Equal(script.Int(1)) {
		return false
	}
	return n.Values[ColorProp].Equal(script.FloatArray([]float64{c[0], c[1], c[2]}))
}

func TestColorNode(t *testing.T) {
	n := plainNode()
	ColorNode(n, config.Color{0.1, 0.2, 0.3})
	if !hasColor(t, n, config.Color{0.1, 0.2, 0.3}) {
		t.Errorf("node color properties = %v", n.Values)
	}
}

func TestPatchGraph_ColorsByOperation(t *testing.T) {
	g := script.NewGraph()
	g.AddNode("n1", plainNode())
	g.AddNode("n2", plainNode())

	deleted := plainNode()
	deleted.InputRefs["i.0.Color"] = script.Edge{Node: "n1", Socket: "o.0.Color"}

	edit := script.NewNode()
	edit.Values["v.x"] = script.Float(5)
	d := diff.NewGraphDiff()
	d.Nodes["n1"] = diff.NodeChange{Op: diff.OpEdit, Diff: edit}
	d.Nodes["n2"] = diff.NodeChange{Op: diff.OpAdd, Diff: plainNode()}
	d.Nodes["n3"] = diff.NodeChange{Op: diff.OpDel, Diff: deleted}

	pal := config.DefaultPalette
	PatchGraph(g, d, pal)

	if !hasColor(t, g.Node("n1"), pal.Edit) {
		t.Error("edited node is not colored with the edit color")
	}
	if !hasColor(t, g.Node("n2"), pal.Add) {
		t.Error("added node is not colored with the add color")
	}
	tomb := g.Node("n3")
	if !hasColor(t, tomb, pal.Del) {
		t.Error("deleted node was not re-inserted with the del color")
	}
	if len(tomb.InputRefs) != 0 {
		t.Error("deleted node kept its input edges")
	}
	if len(deleted.InputRefs) != 1 {
		t.Error("patching mutated the diff payload")
	}
}

func TestPatchGraph_SkipsInterfaceInputs(t *testing.T) {
	iface := script.NewNode()
	iface.Values[NodeTypeProp] = script.String(InterfaceInputsType)
	g := script.NewGraph()
	g.AddNode("n1", iface)

	edit := script.NewNode()
	edit.Values["p.0.default"] = script.Float(1)
	d := diff.NewGraphDiff()
	d.Nodes["n1"] = diff.NodeChange{Op: diff.OpEdit, Diff: edit}

	PatchGraph(g, d, config.DefaultPalette)
	if _, ok := g.Node("n1").Values[UseCustomColorProp]; ok {
		t.Error("interface-inputs node was colored")
	}
}

func TestPatchGraph_PanicsOnInvalidOp(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("invalid operation did not panic")
		}
	}()
	g := script.NewGraph()
	g.AddNode("n1", plainNode())
	d := diff.NewGraphDiff()
	d.Nodes["n1"] = diff.NodeChange{Op: diff.OpNone, Diff: script.NewNode()}
	PatchGraph(g, d, config.DefaultPalette)
}

func TestPatchScript_OnlyEditsRecurse(t *testing.T) {
	s := script.NewScript()
	g := script.NewGraph()
	g.AddNode("n1", plainNode())
	s.AddGraph(script.MainGraphID, g)

	edit := script.NewNode()
	edit.Values["v.x"] = script.Float(5)
	gd := diff.NewGraphDiff()
	gd.Nodes["n1"] = diff.NodeChange{Op: diff.OpEdit, Diff: edit}

	d := diff.NewScriptDiff()
	d.Graphs[script.MainGraphID] = diff.GraphChange{Op: diff.OpEdit, Diff: gd}
	d.Graphs["gone"] = diff.GraphChange{Op: diff.OpDel, Graph: script.NewGraph()}

	PatchScript(s, d, config.DefaultPalette)
	if !hasColor(t, s.Main().Node("n1"), config.DefaultPalette.Edit) {
		t.Error("edited node in an edited graph is not colored")
	}
}

func TestPatchMerge_ConcurrentOverlay(t *testing.T) {
	s := script.NewScript()
	g := script.NewGraph()
	g.AddNode("n1", plainNode())
	g.AddNode("n2", plainNode())
	g.AddNode("n3", plainNode())
	s.AddGraph(script.MainGraphID, g)

	editDiff := func(ids ...script.NodeRef) *diff.ScriptDiff {
		gd := diff.NewGraphDiff()
		for _, id := range ids {
			edit := script.NewNode()
			edit.Values["v.x"] = script.Float(5)
			gd.Nodes[id] = diff.NodeChange{Op: diff.OpEdit, Diff: edit}
		}
		d := diff.NewScriptDiff()
		d.Graphs[script.MainGraphID] = diff.GraphChange{Op: diff.OpEdit, Diff: gd}
		return d
	}

	cfg := config.Default()
	PatchMerge(s, editDiff("n1", "n2"), editDiff("n1", "n3"), cfg)

	if !hasColor(t, g.Node("n2"), cfg.Palette.Edit) {
		t.Error("node touched only by the first diff lacks the primary color")
	}
	if !hasColor(t, g.Node("n3"), cfg.Secondary.Edit) {
		t.Error("node touched only by the second diff lacks the secondary color")
	}
	if !hasColor(t, g.Node("n1"), cfg.Concurrent.Edit) {
		t.Error("node touched by both diffs lacks the concurrent color")
	}
}
