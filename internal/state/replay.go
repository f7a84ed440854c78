// Package state rebuilds the schema of a namespace by replaying its
// migration history.
package state

import (
	"fmt"

	"ermigrate/internal/migration"
	"ermigrate/internal/normalize"
	"ermigrate/internal/schema"
)

// Replay folds the operations of migrations, in order, into an empty
// snapshot. Operations that refer to missing tables or columns are ignored.
func Replay(migrations []*migration.Migration) *migration.Snapshot {
	s := migration.NewSnapshot()
	for _, m := range migrations {
		for _, op := range m.Operations {
			s = Apply(s, op)
		}
	}
	return s
}

// Apply folds one operation into s and returns it.
func Apply(s *migration.Snapshot, op migration.Operation) *migration.Snapshot {
	switch op := op.(type) {
	case migration.CreateTable:
		if _, exists := s.Tables[op.TableName]; !exists {
			s.Tables[op.TableName] = &migration.Table{
				Name:    op.TableName,
				Columns: migration.CloneColumns(op.Columns),
			}
		}

	case migration.DropTable:
		delete(s.Tables, op.TableName)

	case migration.RenameTable:
		t, ok := s.Tables[op.OldName]
		if !ok {
			break
		}
		delete(s.Tables, op.OldName)
		t.Name = op.NewName
		s.Tables[op.NewName] = t

	case migration.AddColumn:
		if t, ok := s.Tables[op.TableName]; ok {
			t.Columns = append(t.Columns, migration.CloneColumns([]migration.Column{op.Column})...)
		}

	case migration.RemoveColumn:
		if t, ok := s.Tables[op.TableName]; ok {
			kept := t.Columns[:0]
			for _, c := range t.Columns {
				if c.Name != op.ColumnName {
					kept = append(kept, c)
				}
			}
			t.Columns = kept
		}

	case migration.AlterColumn:
		if c, ok := column(s, op.TableName, op.ColumnName); ok {
			alter(c, op)
		}

	case migration.RenameColumn:
		if c, ok := column(s, op.TableName, op.OldName); ok {
			c.Name = op.NewName
		}

	case migration.AddIndex:
		setIndexFlags(s, op.TableName, op.Index, true)

	case migration.RemoveIndex:
		removeIndex(s, op.TableName, op.IndexName)

	case migration.AddForeignKey:
		addRelationship(s, schema.Relationship{
			LeftEntity:   normalize.PascalCase(op.TableName),
			RightEntity:  normalize.PascalCase(op.ForeignKey.ReferenceTable),
			RelationType: schema.ManyToOne,
			LeftColumn:   op.ForeignKey.ColumnName,
			RightColumn:  op.ForeignKey.ReferenceColumn,
		})

	case migration.RemoveForeignKey, migration.AlterForeignKey:
		// Never produced by the differ; constraint names are not tracked.

	default:
		panic(fmt.Sprintf("state: unhandled operation %T", op))
	}
	return s
}

func column(s *migration.Snapshot, table, name string) (*migration.Column, bool) {
	t, ok := s.Tables[table]
	if !ok {
		return nil, false
	}
	return t.Column(name)
}

func alter(c *migration.Column, op migration.AlterColumn) {
	if op.NewType != nil {
		c.Type = *op.NewType
	}
	if op.NewMaxLength != nil {
		c.MaxLength = copyOf(op.NewMaxLength.Value)
	}
	if op.NewNullable != nil {
		c.Nullable = *op.NewNullable
	}
	if op.NewDefault != nil {
		c.Default = copyOf(op.NewDefault.Value)
	}
	if op.NewPrecision != nil {
		c.Precision = copyOf(op.NewPrecision.Value)
	}
	if op.NewScale != nil {
		c.Scale = copyOf(op.NewScale.Value)
	}
}

// setIndexFlags marks the indexed columns unique or indexed depending on the
// kind of index.
func setIndexFlags(s *migration.Snapshot, table string, idx migration.Index, on bool) {
	for _, name := range idx.Columns {
		c, ok := column(s, table, name)
		if !ok {
			continue
		}
		if idx.Unique {
			c.Unique = on
		} else {
			c.Indexed = on
		}
	}
}

// removeIndex clears the flag of the column whose conventional index name
// matches. Indexes with other names are ignored.
func removeIndex(s *migration.Snapshot, table, indexName string) {
	t, ok := s.Tables[table]
	if !ok {
		return
	}
	for i := range t.Columns {
		c := &t.Columns[i]
		switch indexName {
		case normalize.IndexName(table, c.Name, true):
			c.Unique = false
			return
		case normalize.IndexName(table, c.Name, false):
			c.Indexed = false
			return
		}
	}
}

func addRelationship(s *migration.Snapshot, rel schema.Relationship) {
	for _, r := range s.Relationships {
		if r.LeftEntity == rel.LeftEntity && r.RightEntity == rel.RightEntity &&
			r.LeftColumn == rel.LeftColumn && r.RightColumn == rel.RightColumn {
			return
		}
	}
	s.Relationships = append(s.Relationships, rel)
}

func copyOf[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
