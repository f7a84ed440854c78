// Package normalize turns ER model entities and relationships into the
// normalized table, column, index and foreign-key descriptors the differ and
// the rebuilder work with.
package normalize

import (
	"ermigrate/internal/migration"
	"ermigrate/internal/schema"
)

// ConvertColumn copies an ER column into its normalized form.
func ConvertColumn(c schema.Column) migration.Column {
	return migration.CloneColumns([]migration.Column{{
		Name:       c.Name,
		Type:       c.Type,
		PrimaryKey: c.IsPK,
		Nullable:   c.Nullable,
		Default:    c.Default,
		MaxLength:  c.MaxLength,
		Precision:  c.Precision,
		Scale:      c.Scale,
		Unique:     c.Unique,
		Indexed:    c.Indexed,
		Comment:    c.Comment,
	}})[0]
}

// ConvertEntity returns the table name and normalized columns of e.
func ConvertEntity(e schema.Entity) (string, []migration.Column) {
	columns := make([]migration.Column, 0, len(e.Columns))
	for _, c := range e.Columns {
		columns = append(columns, ConvertColumn(c))
	}
	return schema.SnakeCase(e.Name), columns
}

// ExtractIndexes derives the single-column indexes implied by the column
// flags of e.
func ExtractIndexes(e schema.Entity) []migration.Index {
	name, columns := ConvertEntity(e)
	return TableIndexes(&migration.Table{Name: name, Columns: columns})
}

// TableIndexes derives indexes from column flags: a unique non-key column
// gets a unique index, otherwise an indexed column gets a plain one.
func TableIndexes(t *migration.Table) []migration.Index {
	var indexes []migration.Index
	for _, c := range t.Columns {
		switch {
		case c.Unique && !c.PrimaryKey:
			indexes = append(indexes, migration.Index{
				Name:    IndexName(t.Name, c.Name, true),
				Columns: []string{c.Name},
				Unique:  true,
			})
		case c.Indexed:
			indexes = append(indexes, migration.Index{
				Name:    IndexName(t.Name, c.Name, false),
				Columns: []string{c.Name},
			})
		}
	}
	return indexes
}

// placement resolves which side of rel owns the foreign key.
type placement struct {
	table, reference        string
	column, referenceColumn string
}

func place(rel schema.Relationship) placement {
	left := placement{
		table:           rel.LeftEntity,
		reference:       rel.RightEntity,
		column:          rel.LeftColumn,
		referenceColumn: rel.RightColumn,
	}
	right := placement{
		table:           rel.RightEntity,
		reference:       rel.LeftEntity,
		column:          rel.RightColumn,
		referenceColumn: rel.LeftColumn,
	}

	switch rel.RelationType {
	case schema.OneToMany:
		return right
	case schema.ManyToOne:
		return left
	case schema.OneToOne:
		if rel.RightColumn != "" {
			return right
		}
		return left
	default:
		return left
	}
}

// ForeignKeyTable returns the snake_case name of the table that holds the
// foreign key for rel.
func ForeignKeyTable(rel schema.Relationship) string {
	return schema.SnakeCase(place(rel).table)
}

// ConvertRelationship returns the foreign key implied by rel. one-to-many
// puts it on the right ("many") entity, many-to-one on the left, one-to-one
// on whichever side names a column (right first, left by default) and
// many-to-many on the left.
func ConvertRelationship(rel schema.Relationship) migration.ForeignKey {
	p := place(rel)
	refTable := schema.SnakeCase(p.reference)

	column := p.column
	if column == "" {
		column = refTable + "_id"
	}
	refColumn := p.referenceColumn
	if refColumn == "" {
		refColumn = "id"
	}

	return migration.ForeignKey{
		ColumnName:      column,
		ReferenceTable:  refTable,
		ReferenceColumn: refColumn,
		OnDelete:        migration.Cascade,
		OnUpdate:        migration.Cascade,
	}
}

// Convert normalizes a whole model. When two entities map to the same table
// name the first one wins.
func Convert(m *schema.Model) *migration.Snapshot {
	s := migration.NewSnapshot()
	if m == nil {
		return s
	}
	for _, e := range m.Entities {
		name, columns := ConvertEntity(e)
		if _, exists := s.Tables[name]; exists {
			continue
		}
		s.Tables[name] = &migration.Table{Name: name, Columns: columns}
	}
	s.Relationships = append(s.Relationships, m.Relationships...)
	return s
}

// Model converts a snapshot back into an ER model. Entity names are derived
// with PascalCase and are therefore not guaranteed to match the names the
// snapshot was built from.
func Model(s *migration.Snapshot) *schema.Model {
	m := &schema.Model{}
	for _, name := range s.TableNames() {
		t := s.Tables[name]
		e := schema.Entity{Name: PascalCase(name)}
		for _, c := range t.Columns {
			e.Columns = append(e.Columns, schema.Column{
				Name:      c.Name,
				Type:      c.Type,
				IsPK:      c.PrimaryKey,
				Nullable:  c.Nullable,
				Unique:    c.Unique,
				Indexed:   c.Indexed,
				MaxLength: c.MaxLength,
				Precision: c.Precision,
				Scale:     c.Scale,
				Comment:   c.Comment,
				Default:   c.Default,
			})
		}
		m.Entities = append(m.Entities, e)
	}
	m.Relationships = append(m.Relationships, s.Relationships...)
	return m
}
