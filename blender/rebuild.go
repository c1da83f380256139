package blender

import (
	"encoding/json"
	"fmt"
	"os"
)

// NodeRebuild maps a node type's property names back to the Blender socket
// and attribute type names its preset form needs.
type NodeRebuild struct {
	FromAttributeName map[string]string `json:"fromAttributeName"`
	FromInputName     map[string]string `json:"fromInputName"`
	FromOutputName    map[string]string `json:"fromOutputName"`
}

// RebuildStructure carries the per-node-type rebuild maps plus the editor
// fields a preset needs, which the model does not store.
type RebuildStructure struct {
	FromNodeType map[string]NodeRebuild
	EditorType   string
	ShaderType   string
}

// NewRebuildStructure returns an empty structure with the editor defaults.
func NewRebuildStructure() *RebuildStructure {
	return &RebuildStructure{
		FromNodeType: map[string]NodeRebuild{},
		EditorType:   "ShaderNodeTree",
		ShaderType:   "OBJECT",
	}
}

// LoadRebuildStructure reads the rebuild maps from a JSON file: an object
// keyed by node type. Editor fields keep their defaults.
func LoadRebuildStructure(path string) (*RebuildStructure, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rebuild structure: %w", err)
	}
	rs := NewRebuildStructure()
	if err := json.Unmarshal(data, &rs.FromNodeType); err != nil {
		return nil, fmt.Errorf("parsing rebuild structure: %w", err)
	}
	return rs, nil
}

func (rs *RebuildStructure) attributeType(nodeType, name string) (string, error) {
	nr, ok := rs.FromNodeType[nodeType]
	if !ok {
		return "", fmt.Errorf("no rebuild entry for node type %q", nodeType)
	}
	t, ok := nr.FromAttributeName[name]
	if !ok {
		return "", fmt.Errorf("node type %q: unknown attribute %q", nodeType, name)
	}
	return t, nil
}

func (rs *RebuildStructure) inputType(nodeType, name string) (string, error) {
	nr, ok := rs.FromNodeType[nodeType]
	if !ok {
		return "", fmt.Errorf("no rebuild entry for node type %q", nodeType)
	}
	t, ok := nr.FromInputName[name]
	if !ok {
		return "", fmt.Errorf("node type %q: unknown input socket %q", nodeType, name)
	}
	return t, nil
}

func (rs *RebuildStructure) outputType(nodeType, name string) (string, error) {
	nr, ok := rs.FromNodeType[nodeType]
	if !ok {
		return "", fmt.Errorf("no rebuild entry for node type %q", nodeType)
	}
	t, ok := nr.FromOutputName[name]
	if !ok {
		return "", fmt.Errorf("node type %q: unknown output socket %q", nodeType, name)
	}
	return t, nil
}
