package database

import (
	"ermigrate/internal/schema"
	"ermigrate/pkg/config"
)

// indexColumn is one column of one index as reported by the catalog.
type indexColumn struct {
	index  string
	column string
	unique bool
}

// applyIndexes turns single-column indexes into column flags. Composite
// indexes have no representation in the ER model and are skipped.
func applyIndexes(e *schema.Entity, cols []indexColumn) {
	width := make(map[string]int)
	for _, c := range cols {
		width[c.index]++
	}
	for _, c := range cols {
		if width[c.index] != 1 {
			continue
		}
		col, ok := e.Column(c.column)
		if !ok || col.IsPK {
			continue
		}
		if c.unique {
			col.Unique = true
		} else {
			col.Indexed = true
		}
	}
}

type foreignKey struct {
	table, column                     string
	referencedTable, referencedColumn string
}

// addForeignKeys records each foreign key between two extracted tables as a
// many-to-one relationship and flags the referencing column.
func addForeignKeys(m *schema.Model, cfg config.SchemaConfig, fks []foreignKey) {
	for _, fk := range fks {
		if !cfg.Wants(fk.table) || !cfg.Wants(fk.referencedTable) {
			continue
		}
		e, ok := m.Entity(fk.table)
		if !ok {
			continue
		}
		if _, ok := m.Entity(fk.referencedTable); !ok {
			continue
		}
		if col, ok := e.Column(fk.column); ok {
			col.IsFK = true
		}
		m.AddRelationship(schema.Relationship{
			LeftEntity:   fk.table,
			RightEntity:  fk.referencedTable,
			RelationType: schema.ManyToOne,
			LeftColumn:   fk.column,
			RightColumn:  fk.referencedColumn,
		})
	}
}

func intPtr(v int64) *int {
	i := int(v)
	return &i
}
