package state

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"ermigrate/internal/migration"
	"ermigrate/internal/schema"
)

func history(ops ...migration.Operation) []*migration.Migration {
	return []*migration.Migration{{Name: "test", Operations: ops}}
}

func TestReplayEveryKind(t *testing.T) {
	ops := map[migration.Kind]migration.Operation{
		migration.KindCreateTable: migration.CreateTable{TableName: "person", Columns: []migration.Column{
			{Name: "id", Type: "int", PrimaryKey: true},
			{Name: "mail", Type: "varchar", MaxLength: migration.Ptr(100), Nullable: true},
			{Name: "nickname", Type: "varchar", Nullable: true},
		}},
		migration.KindRenameTable:      migration.RenameTable{OldName: "person", NewName: "member"},
		migration.KindAddColumn:        migration.AddColumn{TableName: "member", Column: migration.Column{Name: "team_id", Type: "int"}},
		migration.KindRemoveColumn:     migration.RemoveColumn{TableName: "member", ColumnName: "nickname"},
		migration.KindRenameColumn:     migration.RenameColumn{TableName: "member", OldName: "mail", NewName: "email"},
		migration.KindAlterColumn:      migration.AlterColumn{TableName: "member", ColumnName: "mail", NewMaxLength: &migration.Update[int]{}, NewNullable: migration.Ptr(false)},
		migration.KindAddIndex:         migration.AddIndex{TableName: "member", Index: migration.Index{Name: "idx_member_email_unique", Columns: []string{"email"}, Unique: true}},
		migration.KindRemoveIndex:      migration.RemoveIndex{TableName: "member", IndexName: "idx_member_email_unique"},
		migration.KindAddForeignKey:    migration.AddForeignKey{TableName: "member", ForeignKey: migration.ForeignKey{ColumnName: "team_id", ReferenceTable: "team", ReferenceColumn: "id"}},
		migration.KindRemoveForeignKey: migration.RemoveForeignKey{TableName: "member", ConstraintName: "fk"},
		migration.KindAlterForeignKey:  migration.AlterForeignKey{TableName: "member", ConstraintName: "fk"},
		migration.KindDropTable:        migration.DropTable{TableName: "scratch"},
	}

	var ordered []migration.Operation
	for _, k := range migration.Kinds {
		op, ok := ops[k]
		if !ok {
			t.Fatalf("no operation for kind %s", k)
		}
		if op.Kind() != k {
			t.Fatalf("operation for %s reports kind %s", k, op.Kind())
		}
		ordered = append(ordered, op)
	}
	// DropTable needs something to drop.
	ordered = append([]migration.Operation{migration.CreateTable{TableName: "scratch"}}, ordered...)

	s := Replay(history(ordered...))

	if diff := cmp.Diff([]string{"member"}, s.TableNames()); diff != "" {
		t.Fatalf("TableNames() mismatch (-want +got):\n%s", diff)
	}
	want := &migration.Table{Name: "member", Columns: []migration.Column{
		{Name: "id", Type: "int", PrimaryKey: true},
		{Name: "email", Type: "varchar"},
		{Name: "team_id", Type: "int"},
	}}
	if diff := cmp.Diff(want, s.Tables["member"]); diff != "" {
		t.Errorf("member mismatch (-want +got):\n%s", diff)
	}
	wantRels := []schema.Relationship{
		{LeftEntity: "Member", RightEntity: "Team", RelationType: schema.ManyToOne, LeftColumn: "team_id", RightColumn: "id"},
	}
	if diff := cmp.Diff(wantRels, s.Relationships); diff != "" {
		t.Errorf("Relationships mismatch (-want +got):\n%s", diff)
	}
}

func TestReplayMissingTargetsAreNoOps(t *testing.T) {
	ops := []migration.Operation{
		migration.DropTable{TableName: "ghost"},
		migration.RenameTable{OldName: "ghost", NewName: "spirit"},
		migration.AddColumn{TableName: "ghost", Column: migration.Column{Name: "x", Type: "int"}},
		migration.RemoveColumn{TableName: "ghost", ColumnName: "x"},
		migration.AlterColumn{TableName: "ghost", ColumnName: "x", NewType: migration.Ptr("text")},
		migration.RenameColumn{TableName: "ghost", OldName: "x", NewName: "y"},
		migration.AddIndex{TableName: "ghost", Index: migration.Index{Name: "idx_ghost_x", Columns: []string{"x"}}},
		migration.RemoveIndex{TableName: "ghost", IndexName: "idx_ghost_x"},
		migration.CreateTable{TableName: "real", Columns: []migration.Column{{Name: "id", Type: "int"}}},
		migration.AlterColumn{TableName: "real", ColumnName: "missing", NewType: migration.Ptr("text")},
		migration.RemoveIndex{TableName: "real", IndexName: "idx_custom"},
	}

	s := Replay(history(ops...))

	want := map[string]*migration.Table{
		"real": {Name: "real", Columns: []migration.Column{{Name: "id", Type: "int"}}},
	}
	if diff := cmp.Diff(want, s.Tables); diff != "" {
		t.Errorf("Tables mismatch (-want +got):\n%s", diff)
	}
}

func TestReplayCreateTableKeepsExisting(t *testing.T) {
	s := Replay(history(
		migration.CreateTable{TableName: "user", Columns: []migration.Column{{Name: "id", Type: "int"}}},
		migration.CreateTable{TableName: "user", Columns: []migration.Column{{Name: "other", Type: "text"}}},
	))

	want := []migration.Column{{Name: "id", Type: "int"}}
	if diff := cmp.Diff(want, s.Tables["user"].Columns); diff != "" {
		t.Errorf("Columns mismatch (-want +got):\n%s", diff)
	}
}

func TestReplayDeduplicatesRelationships(t *testing.T) {
	fk := migration.AddForeignKey{TableName: "blog_post", ForeignKey: migration.ForeignKey{
		ColumnName: "author_id", ReferenceTable: "user", ReferenceColumn: "id",
	}}
	migrations := []*migration.Migration{
		{Name: "one", Operations: []migration.Operation{fk}},
		{Name: "two", Operations: []migration.Operation{fk}},
	}

	s := Replay(migrations)

	want := []schema.Relationship{
		{LeftEntity: "BlogPost", RightEntity: "User", RelationType: schema.ManyToOne, LeftColumn: "author_id", RightColumn: "id"},
	}
	if diff := cmp.Diff(want, s.Relationships); diff != "" {
		t.Errorf("Relationships mismatch (-want +got):\n%s", diff)
	}
}

func TestReplayFoldsIndexesIntoFlags(t *testing.T) {
	s := Replay(history(
		migration.CreateTable{TableName: "user", Columns: []migration.Column{
			{Name: "email", Type: "varchar"},
			{Name: "handle", Type: "varchar"},
		}},
		migration.AddIndex{TableName: "user", Index: migration.Index{Name: "idx_user_email_unique", Columns: []string{"email"}, Unique: true}},
		migration.AddIndex{TableName: "user", Index: migration.Index{Name: "idx_user_handle", Columns: []string{"handle"}}},
		migration.RemoveIndex{TableName: "user", IndexName: "idx_user_email_unique"},
		migration.AddIndex{TableName: "user", Index: migration.Index{Name: "idx_user_email", Columns: []string{"email"}}},
	))

	want := []migration.Column{
		{Name: "email", Type: "varchar", Indexed: true},
		{Name: "handle", Type: "varchar", Indexed: true},
	}
	if diff := cmp.Diff(want, s.Tables["user"].Columns); diff != "" {
		t.Errorf("Columns mismatch (-want +got):\n%s", diff)
	}
}

func TestReplayDoesNotAliasOperations(t *testing.T) {
	create := migration.CreateTable{TableName: "user", Columns: []migration.Column{
		{Name: "name", Type: "varchar", MaxLength: migration.Ptr(10)},
	}}
	migrations := history(
		create,
		migration.AlterColumn{TableName: "user", ColumnName: "name", NewType: migration.Ptr("text")},
	)

	Replay(migrations)

	if got := create.Columns[0].Type; got != "varchar" {
		t.Errorf("replay mutated the CreateTable operation: type = %q", got)
	}
}

type fakeHistory struct {
	migrations []*migration.Migration
	err        error
}

func (f fakeHistory) LoadAll(string) ([]*migration.Migration, error) {
	return f.migrations, f.err
}

func TestRebuilder(t *testing.T) {
	r := New(fakeHistory{migrations: history(
		migration.CreateTable{TableName: "user", Columns: []migration.Column{{Name: "id", Type: "int"}}},
	)}, nil)

	s, err := r.Rebuild("blog")
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if diff := cmp.Diff([]string{"user"}, s.TableNames()); diff != "" {
		t.Errorf("TableNames() mismatch (-want +got):\n%s", diff)
	}

	empty, err := New(fakeHistory{}, nil).Rebuild("fresh")
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if !empty.Empty() {
		t.Errorf("Rebuild() of a fresh namespace has tables %v", empty.TableNames())
	}

	boom := errors.New("boom")
	if _, err := New(fakeHistory{err: boom}, nil).Rebuild("blog"); !errors.Is(err, boom) {
		t.Errorf("Rebuild() error = %v, want %v", err, boom)
	}
}
