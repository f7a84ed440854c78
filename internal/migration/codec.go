package migration

import (
	"bytes"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// document fixes the field order of a migration file.
type document struct {
	Version      string      `yaml:"version"`
	Name         string      `yaml:"name"`
	Namespace    string      `yaml:"namespace,omitempty"`
	Dependencies []string    `yaml:"dependencies"`
	Operations   []yaml.Node `yaml:"operations"`
	CreatedAt    *time.Time  `yaml:"created_at,omitempty"`
}

// Marshal renders m as a YAML migration document.
func Marshal(m *Migration) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("failed to encode migration %q: %w", m.Name, err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal parses a YAML migration document.
func Unmarshal(data []byte) (*Migration, error) {
	var m Migration
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m Migration) MarshalYAML() (interface{}, error) {
	doc := document{
		Version:      m.Version,
		Name:         m.Name,
		Namespace:    m.Namespace,
		Dependencies: append([]string{}, m.Dependencies...),
		Operations:   make([]yaml.Node, 0, len(m.Operations)),
	}
	if !m.CreatedAt.IsZero() {
		t := m.CreatedAt
		doc.CreatedAt = &t
	}
	for i, op := range m.Operations {
		n, err := encodeOperation(op)
		if err != nil {
			return nil, fmt.Errorf("operation %d (%s): %w", i, op.Kind(), err)
		}
		doc.Operations = append(doc.Operations, *n)
	}
	return doc, nil
}

func (m *Migration) UnmarshalYAML(node *yaml.Node) error {
	var doc document
	if err := node.Decode(&doc); err != nil {
		return err
	}
	out := Migration{
		Version:      doc.Version,
		Name:         doc.Name,
		Namespace:    doc.Namespace,
		Dependencies: doc.Dependencies,
		Operations:   make([]Operation, 0, len(doc.Operations)),
	}
	if out.Version == "" {
		out.Version = Version
	}
	if out.Dependencies == nil {
		out.Dependencies = []string{}
	}
	if doc.CreatedAt != nil {
		out.CreatedAt = *doc.CreatedAt
	}
	for i := range doc.Operations {
		op, err := decodeOperation(&doc.Operations[i])
		if err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
		out.Operations = append(out.Operations, op)
	}
	*m = out
	return nil
}

// encodeOperation encodes op as a mapping whose first key is "type".
func encodeOperation(op Operation) (*yaml.Node, error) {
	var body yaml.Node
	if err := body.Encode(op); err != nil {
		return nil, err
	}
	if body.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s did not encode to a mapping", op.Kind())
	}
	body.Content = append([]*yaml.Node{strNode("type"), strNode(string(op.Kind()))}, body.Content...)
	return &body, nil
}

func decodeOperation(node *yaml.Node) (Operation, error) {
	var head struct {
		Type Kind `yaml:"type"`
	}
	if err := node.Decode(&head); err != nil {
		return nil, err
	}
	switch head.Type {
	case KindCreateTable:
		return decodeAs[CreateTable](node)
	case KindDropTable:
		return decodeAs[DropTable](node)
	case KindRenameTable:
		return decodeAs[RenameTable](node)
	case KindAddColumn:
		return decodeAs[AddColumn](node)
	case KindRemoveColumn:
		return decodeAs[RemoveColumn](node)
	case KindAlterColumn:
		return decodeAs[AlterColumn](node)
	case KindRenameColumn:
		return decodeAs[RenameColumn](node)
	case KindAddIndex:
		return decodeAs[AddIndex](node)
	case KindRemoveIndex:
		return decodeAs[RemoveIndex](node)
	case KindAddForeignKey:
		return decodeAs[AddForeignKey](node)
	case KindRemoveForeignKey:
		return decodeAs[RemoveForeignKey](node)
	case KindAlterForeignKey:
		return decodeAs[AlterForeignKey](node)
	case "":
		return nil, fmt.Errorf("line %d: operation has no type", node.Line)
	default:
		return nil, fmt.Errorf("line %d: unknown operation type %q", node.Line, head.Type)
	}
}

func decodeAs[T Operation](node *yaml.Node) (Operation, error) {
	var op T
	if err := node.Decode(&op); err != nil {
		return nil, err
	}
	return op, nil
}

// MarshalYAML writes only the changed attributes. A cleared attribute is
// written as an explicit null so that replay can tell it from "unchanged".
func (a AlterColumn) MarshalYAML() (interface{}, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	var err error
	add := func(key string, value *yaml.Node, e error) {
		if e != nil && err == nil {
			err = fmt.Errorf("%s: %w", key, e)
		}
		n.Content = append(n.Content, strNode(key), value)
	}
	add("table_name", strNode(a.TableName), nil)
	add("column_name", strNode(a.ColumnName), nil)
	if a.NewType != nil {
		add("new_type", strNode(*a.NewType), nil)
	}
	if a.NewMaxLength != nil {
		v, e := updateNode(a.NewMaxLength)
		add("new_max_length", v, e)
	}
	if a.NewNullable != nil {
		add("new_nullable", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: fmt.Sprint(*a.NewNullable)}, nil)
	}
	if a.NewDefault != nil {
		v, e := updateNode(a.NewDefault)
		add("new_default", v, e)
	}
	if a.NewPrecision != nil {
		v, e := updateNode(a.NewPrecision)
		add("new_precision", v, e)
	}
	if a.NewScale != nil {
		v, e := updateNode(a.NewScale)
		add("new_scale", v, e)
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (a *AlterColumn) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: AlterColumn must be a mapping", node.Line)
	}
	var out AlterColumn
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i].Value, node.Content[i+1]
		var err error
		switch key {
		case "table_name":
			err = value.Decode(&out.TableName)
		case "column_name":
			err = value.Decode(&out.ColumnName)
		case "new_type":
			out.NewType, err = decodeOptional[string](value)
		case "new_nullable":
			out.NewNullable, err = decodeOptional[bool](value)
		case "new_max_length":
			out.NewMaxLength, err = decodeUpdate[int](value)
		case "new_default":
			out.NewDefault, err = decodeUpdate[string](value)
		case "new_precision":
			out.NewPrecision, err = decodeUpdate[int](value)
		case "new_scale":
			out.NewScale, err = decodeUpdate[int](value)
		}
		if err != nil {
			return fmt.Errorf("AlterColumn.%s: %w", key, err)
		}
	}
	*a = out
	return nil
}

func updateNode[T any](u *Update[T]) (*yaml.Node, error) {
	if u.Value == nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	}
	var v yaml.Node
	if err := v.Encode(*u.Value); err != nil {
		return nil, err
	}
	return &v, nil
}

func decodeUpdate[T any](n *yaml.Node) (*Update[T], error) {
	if isNull(n) {
		return &Update[T]{}, nil
	}
	v := new(T)
	if err := n.Decode(v); err != nil {
		return nil, err
	}
	return &Update[T]{Value: v}, nil
}

func decodeOptional[T any](n *yaml.Node) (*T, error) {
	if isNull(n) {
		return nil, nil
	}
	v := new(T)
	if err := n.Decode(v); err != nil {
		return nil, err
	}
	return v, nil
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}
