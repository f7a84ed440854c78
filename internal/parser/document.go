// Package parser reads ER model files. TOML, YAML and JSON files share one
// document shape: reusable column templates, entities that extend them and a
// list of relationships.
package parser

import (
	"fmt"

	"ermigrate/internal/schema"
)

type document struct {
	Templates     map[string]templateDoc `toml:"templates" yaml:"templates"`
	Entities      map[string]entityDoc   `toml:"entities" yaml:"entities"`
	Relationships []relationshipDoc      `toml:"relationships" yaml:"relationships"`

	// Map iteration order is random; these keep the order of the file.
	templateOrder []string
	entityOrder   []string
}

type templateDoc struct {
	Columns []columnDoc `toml:"columns" yaml:"columns"`
}

type entityDoc struct {
	Extends []string    `toml:"extends" yaml:"extends"`
	Columns []columnDoc `toml:"columns" yaml:"columns"`
	Comment string      `toml:"comment" yaml:"comment"`
}

type columnDoc struct {
	Name      string `toml:"name" yaml:"name"`
	Type      string `toml:"type" yaml:"type"`
	IsPK      bool   `toml:"is_pk" yaml:"is_pk"`
	IsFK      bool   `toml:"is_fk" yaml:"is_fk"`
	Nullable  *bool  `toml:"nullable" yaml:"nullable"`
	Unique    bool   `toml:"unique" yaml:"unique"`
	Indexed   bool   `toml:"indexed" yaml:"indexed"`
	MaxLength *int   `toml:"max_length" yaml:"max_length"`
	Precision *int   `toml:"precision" yaml:"precision"`
	Scale     *int   `toml:"scale" yaml:"scale"`
	Comment   string `toml:"comment" yaml:"comment"`
	Default   any    `toml:"default" yaml:"default"`
}

type relationshipDoc struct {
	Left        string `toml:"left" yaml:"left"`
	Right       string `toml:"right" yaml:"right"`
	Type        string `toml:"type" yaml:"type"`
	LeftColumn  string `toml:"left_column" yaml:"left_column"`
	RightColumn string `toml:"right_column" yaml:"right_column"`
	LeftLabel   string `toml:"left_label" yaml:"left_label"`
	RightLabel  string `toml:"right_label" yaml:"right_label"`
}

var relationAliases = map[string]string{
	schema.OneToOne:   schema.OneToOne,
	schema.OneToMany:  schema.OneToMany,
	schema.ManyToOne:  schema.ManyToOne,
	schema.ManyToMany: schema.ManyToMany,
	"1:1":             schema.OneToOne,
	"1:N":             schema.OneToMany,
	"N:1":             schema.ManyToOne,
	"N:M":             schema.ManyToMany,
}

func (c columnDoc) column() (schema.Column, error) {
	if c.Name == "" {
		return schema.Column{}, fmt.Errorf("column has no name")
	}
	if c.Type == "" {
		return schema.Column{}, fmt.Errorf("column %q has no type", c.Name)
	}

	col := schema.Column{
		Name:      c.Name,
		Type:      c.Type,
		IsPK:      c.IsPK,
		IsFK:      c.IsFK,
		Nullable:  true,
		Unique:    c.Unique,
		Indexed:   c.Indexed,
		MaxLength: c.MaxLength,
		Precision: c.Precision,
		Scale:     c.Scale,
		Comment:   c.Comment,
	}
	if c.Nullable != nil {
		col.Nullable = *c.Nullable
	}
	if c.Default != nil {
		d := fmt.Sprint(c.Default)
		col.Default = &d
	}
	return col, nil
}

// model resolves templates and aliases into an ER model.
func (d *document) model() (*schema.Model, error) {
	templates := make(map[string][]schema.Column, len(d.Templates))
	for _, name := range d.templateOrder {
		var cols []schema.Column
		for _, cd := range d.Templates[name].Columns {
			c, err := cd.column()
			if err != nil {
				return nil, fmt.Errorf("template %q: %w", name, err)
			}
			cols = append(cols, c)
		}
		templates[name] = cols
	}

	m := &schema.Model{}
	for _, name := range d.entityOrder {
		ed := d.Entities[name]
		e := schema.Entity{Name: name, Comment: ed.Comment}

		for _, tmpl := range ed.Extends {
			cols, ok := templates[tmpl]
			if !ok {
				return nil, fmt.Errorf("entity %q extends unknown template %q", name, tmpl)
			}
			for _, c := range cols {
				setColumn(&e, c)
			}
		}
		for _, cd := range ed.Columns {
			c, err := cd.column()
			if err != nil {
				return nil, fmt.Errorf("entity %q: %w", name, err)
			}
			setColumn(&e, c)
		}
		m.AddEntity(e)
	}

	for i, rd := range d.Relationships {
		if rd.Left == "" || rd.Right == "" {
			return nil, fmt.Errorf("relationship %d: left and right are required", i)
		}
		relType, ok := relationAliases[rd.Type]
		if !ok {
			return nil, fmt.Errorf("relationship %d: unknown relationship type %q", i, rd.Type)
		}
		m.AddRelationship(schema.Relationship{
			LeftEntity:   rd.Left,
			RightEntity:  rd.Right,
			RelationType: relType,
			LeftColumn:   rd.LeftColumn,
			RightColumn:  rd.RightColumn,
			LeftLabel:    rd.LeftLabel,
			RightLabel:   rd.RightLabel,
		})
	}
	return m, nil
}

// setColumn replaces a column of the same name in place, or appends c.
func setColumn(e *schema.Entity, c schema.Column) {
	if existing, ok := e.Column(c.Name); ok {
		*existing = c
		return
	}
	e.Columns = append(e.Columns, c)
}
