package diff

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"nodediff/script"
)

// Ignore filters noisy node-value properties out of a diff. Patterns are
// doublestar globs matched against property names, so "v.*" drops every
// value property with the "v." prefix.
type Ignore struct {
	patterns []string
}

// NewIgnore validates the patterns and returns the filter.
func NewIgnore(patterns []string) (*Ignore, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid ignore pattern %q", p)
		}
	}
	return &Ignore{patterns: patterns}, nil
}

func (ig *Ignore) matches(name string) bool {
	for _, p := range ig.patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

// StripNode removes matching value properties from a node diff.
func (ig *Ignore) StripNode(d *script.Node) {
	for name := range d.Values {
		if ig.matches(name) {
			delete(d.Values, name)
		}
	}
}

// StripGraph removes matching value properties from every edit in a graph
// diff, dropping edits that become empty. Adds and deletes keep their full
// payloads.
func (ig *Ignore) StripGraph(d *GraphDiff) {
	for id, change := range d.Nodes {
		if change.Op != OpEdit {
			continue
		}
		ig.StripNode(change.Diff)
		if NodeDiffIsEmpty(change.Diff) {
			delete(d.Nodes, id)
		}
	}
}

// StripScript removes matching value properties from every graph edit in a
// script diff, dropping edits that become empty.
func (ig *Ignore) StripScript(d *ScriptDiff) {
	for id, change := range d.Graphs {
		if change.Op != OpEdit {
			continue
		}
		ig.StripGraph(change.Diff)
		if change.Diff.IsEmpty() {
			delete(d.Graphs, id)
		}
	}
}
