// Package migration defines the normalized schema descriptors, the closed set
// of schema-change operations and the Migration record that bundles them.
package migration

import (
	"gopkg.in/yaml.v3"
)

const (
	// Version is written into every generated migration document.
	Version = "1.0"

	// Cascade is the default referential action for foreign keys.
	Cascade = "CASCADE"
)

// Column is a normalized column descriptor.
type Column struct {
	Name       string  `yaml:"name"`
	Type       string  `yaml:"type"`
	PrimaryKey bool    `yaml:"primary_key"`
	Nullable   bool    `yaml:"nullable"`
	Default    *string `yaml:"default,omitempty"`
	MaxLength  *int    `yaml:"max_length,omitempty"`
	Precision  *int    `yaml:"precision,omitempty"`
	Scale      *int    `yaml:"scale,omitempty"`
	Unique     bool    `yaml:"unique"`
	Indexed    bool    `yaml:"indexed"`
	Comment    string  `yaml:"comment,omitempty"`
}

// UnmarshalYAML defaults nullable to true when the key is absent.
func (c *Column) UnmarshalYAML(node *yaml.Node) error {
	type plain Column
	out := plain{Nullable: true}
	if err := node.Decode(&out); err != nil {
		return err
	}
	*c = Column(out)
	return nil
}

// Table is a normalized table: a snake_case name and an ordered column list.
type Table struct {
	Name    string
	Columns []Column
}

// Column returns the named column.
func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// CloneColumns copies cols including the values behind pointer fields.
func CloneColumns(cols []Column) []Column {
	out := make([]Column, len(cols))
	for i, c := range cols {
		c.Default = clonePtr(c.Default)
		c.MaxLength = clonePtr(c.MaxLength)
		c.Precision = clonePtr(c.Precision)
		c.Scale = clonePtr(c.Scale)
		out[i] = c
	}
	return out
}

// Index is a normalized index descriptor.
type Index struct {
	Name    string   `yaml:"name"`
	Columns []string `yaml:"columns"`
	Unique  bool     `yaml:"unique"`
}

// ForeignKey is a normalized foreign-key descriptor. It does not carry its
// owning table; operations do.
type ForeignKey struct {
	ColumnName      string `yaml:"column_name"`
	ReferenceTable  string `yaml:"reference_table"`
	ReferenceColumn string `yaml:"reference_column"`
	OnDelete        string `yaml:"on_delete"`
	OnUpdate        string `yaml:"on_update"`
}

// UnmarshalYAML defaults both referential actions to CASCADE.
func (f *ForeignKey) UnmarshalYAML(node *yaml.Node) error {
	type plain ForeignKey
	out := plain{OnDelete: Cascade, OnUpdate: Cascade}
	if err := node.Decode(&out); err != nil {
		return err
	}
	*f = ForeignKey(out)
	return nil
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// EqualPtr reports whether a and b are both nil or point to equal values.
func EqualPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
