// Package diff computes the ordered list of operations that turns one
// normalized snapshot into another.
package diff

import (
	"ermigrate/internal/migration"
	"ermigrate/internal/normalize"
)

// Diff compares old and next and returns the operations that migrate old to
// next. The result is deterministic and ordered as: table renames (each
// followed by the renamed table's column and index changes), drops, creates
// (each followed by its indexes), changes to tables present in both, and
// finally foreign-key additions. Removed foreign keys are not detected.
//
// Diff never fails; a nil snapshot is treated as empty.
func Diff(old, next *migration.Snapshot) []migration.Operation {
	if old == nil {
		old = migration.NewSnapshot()
	}
	if next == nil {
		next = migration.NewSnapshot()
	}

	var ops []migration.Operation

	dropped := difference(old.TableNames(), next.Tables)
	created := difference(next.TableNames(), old.Tables)

	renames := detectRenames(old, next, dropped, created)
	renamedFrom := make(map[string]bool, len(renames))
	renamedTo := make(map[string]bool, len(renames))
	for _, r := range renames {
		renamedFrom[r.from] = true
		renamedTo[r.to] = true

		ops = append(ops, migration.RenameTable{OldName: r.from, NewName: r.to})
		ops = append(ops, diffTable(r.to, old.Tables[r.from], next.Tables[r.to])...)
	}

	for _, name := range dropped {
		if renamedFrom[name] {
			continue
		}
		ops = append(ops, migration.DropTable{TableName: name})
	}

	for _, name := range created {
		if renamedTo[name] {
			continue
		}
		t := next.Tables[name]
		ops = append(ops, migration.CreateTable{
			TableName: name,
			Columns:   migration.CloneColumns(t.Columns),
		})
		for _, idx := range normalize.TableIndexes(t) {
			ops = append(ops, migration.AddIndex{TableName: name, Index: idx})
		}
	}

	for _, name := range old.TableNames() {
		t, ok := next.Tables[name]
		if !ok {
			continue
		}
		ops = append(ops, diffTable(name, old.Tables[name], t)...)
	}

	ops = append(ops, diffForeignKeys(old, next)...)
	return ops
}

// difference returns the names not present in other, keeping their order.
func difference(names []string, other map[string]*migration.Table) []string {
	var out []string
	for _, name := range names {
		if _, ok := other[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

// diffTable emits column and index changes between two versions of one
// table. name is the table's current name.
func diffTable(name string, old, next *migration.Table) []migration.Operation {
	ops := diffColumns(name, old, next)
	return append(ops, diffIndexes(name, old, next)...)
}

func diffColumns(name string, old, next *migration.Table) []migration.Operation {
	var ops []migration.Operation

	for _, c := range old.Columns {
		if _, ok := next.Column(c.Name); !ok {
			ops = append(ops, migration.RemoveColumn{TableName: name, ColumnName: c.Name})
		}
	}

	for _, c := range next.Columns {
		if _, ok := old.Column(c.Name); !ok {
			ops = append(ops, migration.AddColumn{
				TableName: name,
				Column:    migration.CloneColumns([]migration.Column{c})[0],
			})
		}
	}

	for _, c := range next.Columns {
		prev, ok := old.Column(c.Name)
		if !ok {
			continue
		}
		if alter, changed := alterColumn(name, *prev, c); changed {
			ops = append(ops, alter)
		}
	}

	return ops
}

// alterColumn compares the attributes that AlterColumn can carry and sets
// only the ones that differ.
func alterColumn(table string, old, next migration.Column) (migration.AlterColumn, bool) {
	alter := migration.AlterColumn{TableName: table, ColumnName: next.Name}

	if old.Type != next.Type {
		alter.NewType = migration.Ptr(next.Type)
	}
	if !migration.EqualPtr(old.MaxLength, next.MaxLength) {
		alter.NewMaxLength = migration.UpdateTo(next.MaxLength)
	}
	if old.Nullable != next.Nullable {
		alter.NewNullable = migration.Ptr(next.Nullable)
	}
	if !migration.EqualPtr(old.Default, next.Default) {
		alter.NewDefault = migration.UpdateTo(next.Default)
	}
	if !migration.EqualPtr(old.Precision, next.Precision) {
		alter.NewPrecision = migration.UpdateTo(next.Precision)
	}
	if !migration.EqualPtr(old.Scale, next.Scale) {
		alter.NewScale = migration.UpdateTo(next.Scale)
	}

	return alter, !alter.Empty()
}

// indexKey identifies an index by its column and uniqueness; names are
// derived and play no part in the comparison. Keys come from the column
// flags alone, so a unique primary-key column still carries its unique key
// and replaying an AddIndex always converges with the target.
type indexKey struct {
	column string
	unique bool
}

func diffIndexes(name string, old, next *migration.Table) []migration.Operation {
	var ops []migration.Operation

	oldKeys := indexKeys(old)
	newKeys := indexKeys(next)

	for _, k := range oldKeys.order {
		if !newKeys.set[k] {
			ops = append(ops, migration.RemoveIndex{
				TableName: name,
				IndexName: normalize.IndexName(name, k.column, k.unique),
			})
		}
	}

	for _, k := range newKeys.order {
		if !oldKeys.set[k] {
			ops = append(ops, migration.AddIndex{
				TableName: name,
				Index: migration.Index{
					Name:    normalize.IndexName(name, k.column, k.unique),
					Columns: []string{k.column},
					Unique:  k.unique,
				},
			})
		}
	}

	return ops
}

type keySet struct {
	order []indexKey
	set   map[indexKey]bool
}

// indexKeys reads one key per flagged column: unique wins over indexed.
func indexKeys(t *migration.Table) keySet {
	ks := keySet{set: make(map[indexKey]bool)}
	for _, c := range t.Columns {
		var k indexKey
		switch {
		case c.Unique:
			k = indexKey{column: c.Name, unique: true}
		case c.Indexed:
			k = indexKey{column: c.Name}
		default:
			continue
		}
		ks.order = append(ks.order, k)
		ks.set[k] = true
	}
	return ks
}
