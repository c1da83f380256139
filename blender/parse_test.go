package blender

import (
	"fmt"
	"testing"

	"nodediff/script"
)

func presetNode(name string) *PresetNode {
	return &PresetNode{
		NodeName:    name,
		X:           script.Float(10),
		Y:           script.Float(20),
		Width:       script.Float(140),
		Height:      script.Float(100),
		WidthHidden: script.Float(42),
		Parent:      script.String("None"),
	}
}

func nodeByType(g *script.Graph, typ string) (script.NodeRef, *script.Node) {
	for id, n := range g.Nodes {
		if NodeType(n) == typ {
			return id, n
		}
	}
	return script.InvalidNodeRef, nil
}

func TestParseScript_NodeProperties(t *testing.T) {
	n := presetNode("ShaderNodeRGB")
	n.Outputs = []PresetSocket{{Name: "Color", TypeName: "NodeSocketColor", Value: script.FloatArray([]float64{1, 0, 0, 1})}}

	s, err := ParseScript(&Preset{NodesList: []*PresetNode{n}})
	if err != nil {
		t.Fatalf("ParseScript failed: %v", err)
	}

	main, ok := s.Graphs[script.MainGraphID]
	if !ok {
		t.Fatal("parsed script has no main graph")
	}
	if len(main.Nodes) != 1 {
		t.Fatalf("main graph has %d nodes, want 1", len(main.Nodes))
	}

	_, parsed := nodeByType(main, "ShaderNodeRGB")
	if parsed == nil {
		t.Fatal("node not found by type")
	}
	if parsed.Values[NodeXProp].AsFloat() != 10 {
		t.Errorf("x = %v, want 10", parsed.Values[NodeXProp])
	}
	if !parsed.Values["o.0.Color"].Equal(script.FloatArray([]float64{1, 0, 0, 1})) {
		t.Error("output socket value was not recorded")
	}
	if parsed.NodeRefs[NodeParentProp].Valid() {
		t.Error("parent \"None\" parsed to a valid reference")
	}
	if parsed.GraphRefs[NodeGroupProp].Valid() {
		t.Error("plain node has a node-group reference")
	}
}

func TestParseScript_InputSocketGetsEmptyEdge(t *testing.T) {
	n := presetNode("ShaderNodeOutputMaterial")
	n.Inputs = []PresetSocket{{Name: "Surface", TypeName: "NodeSocketShader"}}

	s, err := ParseScript(&Preset{NodesList: []*PresetNode{n}})
	if err != nil {
		t.Fatalf("ParseScript failed: %v", err)
	}
	_, parsed := nodeByType(s.Main(), "ShaderNodeOutputMaterial")
	e, ok := parsed.InputRefs["i.0.Surface"]
	if !ok {
		t.Fatal("input socket has no edge slot")
	}
	if e != (script.Edge{}) {
		t.Errorf("unconnected socket edge = %+v, want empty", e)
	}
}

func TestParseScript_LinksBecomeEdges(t *testing.T) {
	src := presetNode("ShaderNodeRGB")
	dst := presetNode("ShaderNodeOutputMaterial")
	dst.Inputs = []PresetSocket{{Name: "Surface", TypeName: "NodeSocketShader"}}

	s, err := ParseScript(&Preset{
		NodesList: []*PresetNode{src, dst},
		LinksList: []PresetLink{{
			FromNodeIndex: 0, FromSocketIndex: 0, FromSocketName: "Color",
			ToNodeIndex: 1, ToSocketIndex: 0, ToSocketName: "Surface",
		}},
	})
	if err != nil {
		t.Fatalf("ParseScript failed: %v", err)
	}

	srcID, _ := nodeByType(s.Main(), "ShaderNodeRGB")
	_, dstNode := nodeByType(s.Main(), "ShaderNodeOutputMaterial")
	want := script.Edge{Node: srcID, Socket: "o.0.Color"}
	if got := dstNode.InputRefs["i.0.Surface"]; got != want {
		t.Errorf("edge = %+v, want %+v", got, want)
	}
}

func TestParseScript_MultiLinkGetsVirtualIndices(t *testing.T) {
	src := presetNode("ShaderNodeRGB")
	dst := presetNode("GeometryNodeJoinGeometry")

	link := func(fromSocket int) PresetLink {
		return PresetLink{
			FromNodeIndex: 0, FromSocketIndex: fromSocket, FromSocketName: "Geometry",
			ToNodeIndex: 1, ToSocketIndex: 0, ToSocketName: "Geometry",
		}
	}
	s, err := ParseScript(&Preset{
		NodesList: []*PresetNode{src, dst},
		LinksList: []PresetLink{link(0), link(1)},
	})
	if err != nil {
		t.Fatalf("ParseScript failed: %v", err)
	}

	srcID, _ := nodeByType(s.Main(), "ShaderNodeRGB")
	_, dstNode := nodeByType(s.Main(), "GeometryNodeJoinGeometry")
	if got := dstNode.InputRefs["i.0.Geometry[0]"]; got != (script.Edge{Node: srcID, Socket: "o.0.Geometry"}) {
		t.Errorf("first virtual edge = %+v", got)
	}
	if got := dstNode.InputRefs["i.0.Geometry[1]"]; got != (script.Edge{Node: srcID, Socket: "o.1.Geometry"}) {
		t.Errorf("second virtual edge = %+v", got)
	}
}

func TestParseScript_ParentIndexResolves(t *testing.T) {
	frame := presetNode("NodeFrame")
	child := presetNode("ShaderNodeRGB")
	child.Parent = script.Int(0)

	s, err := ParseScript(&Preset{NodesList: []*PresetNode{frame, child}})
	if err != nil {
		t.Fatalf("ParseScript failed: %v", err)
	}
	frameID, _ := nodeByType(s.Main(), "NodeFrame")
	_, childNode := nodeByType(s.Main(), "ShaderNodeRGB")
	if childNode.NodeRefs[NodeParentProp] != frameID {
		t.Errorf("parent = %q, want the frame's id", childNode.NodeRefs[NodeParentProp])
	}
}

func TestParseScript_ParentIndexOutOfRange(t *testing.T) {
	n := presetNode("ShaderNodeRGB")
	n.Parent = script.Int(5)
	if _, err := ParseScript(&Preset{NodesList: []*PresetNode{n}}); err == nil {
		t.Error("out-of-range parent index did not return an error")
	}
}

func TestParseScript_LinkIndexOutOfRange(t *testing.T) {
	_, err := ParseScript(&Preset{
		NodesList: []*PresetNode{presetNode("ShaderNodeRGB")},
		LinksList: []PresetLink{{FromNodeIndex: 0, ToNodeIndex: 3}},
	})
	if err == nil {
		t.Error("out-of-range link destination did not return an error")
	}
}

func TestParseScript_JoinGeometryExpandsVirtualSlots(t *testing.T) {
	n := presetNode("GeometryNodeJoinGeometry")
	n.Inputs = []PresetSocket{{Name: "Geometry", TypeName: "NodeSocketGeometry"}}

	s, err := ParseScript(&Preset{NodesList: []*PresetNode{n}})
	if err != nil {
		t.Fatalf("ParseScript failed: %v", err)
	}
	_, parsed := nodeByType(s.Main(), "GeometryNodeJoinGeometry")
	for i := 0; i < MaxVirtualSockets; i++ {
		id := fmt.Sprintf("i.0.Geometry[%d]", i)
		if _, ok := parsed.InputRefs[id]; !ok {
			t.Fatalf("virtual slot %s missing", id)
		}
	}
	if _, ok := parsed.InputRefs["i.0.Geometry"]; ok {
		t.Error("multi-input socket kept its unexpanded slot")
	}
}

func TestParseScript_Attrs(t *testing.T) {
	n := presetNode("ShaderNodeMath")
	n.Attrs = []map[string]script.Value{
		{"attr_name": script.String("name"), "value": script.String("Math.001")},
		{"attr_name": script.String("operation"), "type_name": script.String("enum"), "value": script.String("ADD")},
		{"attr_name": script.String("image"), "value": script.String("tex.png")},
	}

	s, err := ParseScript(&Preset{NodesList: []*PresetNode{n}})
	if err != nil {
		t.Fatalf("ParseScript failed: %v", err)
	}
	_, parsed := nodeByType(s.Main(), "ShaderNodeMath")
	if _, ok := parsed.Values["a.name"]; ok {
		t.Error("display name attribute was not skipped")
	}
	if !parsed.Values["a.operation"].Equal(script.String("ADD")) {
		t.Errorf("a.operation = %v, want ADD", parsed.Values["a.operation"])
	}
	if _, ok := parsed.TextureRefs[ImageTextureProp]; !ok {
		t.Error("image attribute did not become a texture reference")
	}
}

func TestParseScript_SubgraphAndInterface(t *testing.T) {
	inner := presetNode("ShaderNodeRGB")
	group := presetNode("ShaderNodeGroup")
	group.NodeTree = &Preset{
		Name:      "MyGroup",
		NodesList: []*PresetNode{inner},
		InterfaceInputs: []PresetInterfaceInput{{
			Default: script.Float(0.5),
			Min:     script.Float(0),
			Max:     script.Float(1),
			Hide:    script.Bool(false),
		}},
	}

	s, err := ParseScript(&Preset{NodesList: []*PresetNode{group}})
	if err != nil {
		t.Fatalf("ParseScript failed: %v", err)
	}
	if len(s.Graphs) != 2 {
		t.Fatalf("parsed script has %d graphs, want 2", len(s.Graphs))
	}

	_, groupNode := nodeByType(s.Main(), "MyGroup")
	if groupNode == nil {
		t.Fatal("group node not found; group instances should carry the group name as their type")
	}
	subID := groupNode.GraphRefs[NodeGroupProp]
	if !subID.Valid() {
		t.Fatal("group node has no node-group reference")
	}
	sub, ok := s.Graphs[subID]
	if !ok {
		t.Fatal("node-group reference does not resolve to a parsed graph")
	}

	_, iface := nodeByType(sub, InterfaceInputsType)
	if iface == nil {
		t.Fatal("subgraph has no interface-inputs node")
	}
	if iface.Values[InterfaceInputsSizeProp].AsInt() != 1 {
		t.Errorf("interface size = %v, want 1", iface.Values[InterfaceInputsSizeProp])
	}
	if !iface.Values["p.0.default"].Equal(script.Float(0.5)) {
		t.Errorf("interface default = %v, want 0.5", iface.Values["p.0.default"])
	}
	if !iface.Values[GroupNameProp].Equal(script.String("MyGroup")) {
		t.Errorf("interface group name = %v, want MyGroup", iface.Values[GroupNameProp])
	}
}

func TestNodeType_GroupUsesGroupName(t *testing.T) {
	n := script.NewNode()
	n.Values[NodeTypeProp] = script.String("GeometryNodeGroup")
	n.Values[GroupNameProp] = script.String("Scatter")
	if got := NodeType(n); got != "Scatter" {
		t.Errorf("NodeType = %q, want Scatter", got)
	}

	n.Values[NodeTypeProp] = script.String("ShaderNodeMath")
	if got := NodeType(n); got != "ShaderNodeMath" {
		t.Errorf("NodeType = %q, want ShaderNodeMath", got)
	}

	if got := NodeType(script.NewNode()); got != "" {
		t.Errorf("NodeType without a type property = %q, want empty", got)
	}
}
