package theme

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML decodes a theme reference from either a bare specifier
// string or an object with specifier and optional import sub-path.
func (r *Ref) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		r.Specifier = node.Value
		return nil
	case yaml.MappingNode:
		var obj struct {
			Specifier string `yaml:"specifier"`
			Import    string `yaml:"import"`
		}
		if err := node.Decode(&obj); err != nil {
			return fmt.Errorf("failed to decode theme reference: %w", err)
		}
		r.Specifier = obj.Specifier
		r.Import = obj.Import
		return nil
	}
	return fmt.Errorf("theme reference must be a string or an object, got %s", yamlKindName(node.Kind))
}

// RefList decodes a theme declaration that may be a single reference or a
// sequence of references. A single reference normalizes to a one-element list.
type RefList []Ref

// UnmarshalYAML decodes either one reference or a sequence of references.
func (l *RefList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var refs []Ref
		if err := node.Decode(&refs); err != nil {
			return err
		}
		*l = refs
		return nil
	}
	var one Ref
	if err := one.UnmarshalYAML(node); err != nil {
		return err
	}
	*l = RefList{one}
	return nil
}

func yamlKindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "unknown"
}
