package diff

import (
	"ermigrate/internal/migration"
	"ermigrate/internal/normalize"
	"ermigrate/internal/schema"
)

type fkKey struct {
	table, column string
}

func foreignKeyOf(rel schema.Relationship) (fkKey, migration.ForeignKey) {
	fk := normalize.ConvertRelationship(rel)
	return fkKey{table: normalize.ForeignKeyTable(rel), column: fk.ColumnName}, fk
}

// diffForeignKeys emits AddForeignKey for every (table, column) pair that the
// new relationships imply and the old ones do not. Removal is not detected.
func diffForeignKeys(old, next *migration.Snapshot) []migration.Operation {
	existing := make(map[fkKey]bool, len(old.Relationships))
	for _, rel := range old.Relationships {
		k, _ := foreignKeyOf(rel)
		existing[k] = true
	}

	var ops []migration.Operation
	for _, rel := range next.Relationships {
		k, fk := foreignKeyOf(rel)
		if existing[k] {
			continue
		}
		existing[k] = true
		ops = append(ops, migration.AddForeignKey{TableName: k.table, ForeignKey: fk})
	}
	return ops
}
