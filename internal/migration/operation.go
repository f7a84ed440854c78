package migration

// Kind is the discriminator written as the "type" field of every operation.
type Kind string

const (
	KindCreateTable      Kind = "CreateTable"
	KindDropTable        Kind = "DropTable"
	KindRenameTable      Kind = "RenameTable"
	KindAddColumn        Kind = "AddColumn"
	KindRemoveColumn     Kind = "RemoveColumn"
	KindAlterColumn      Kind = "AlterColumn"
	KindRenameColumn     Kind = "RenameColumn"
	KindAddIndex         Kind = "AddIndex"
	KindRemoveIndex      Kind = "RemoveIndex"
	KindAddForeignKey    Kind = "AddForeignKey"
	KindRemoveForeignKey Kind = "RemoveForeignKey"
	KindAlterForeignKey  Kind = "AlterForeignKey"
)

// Kinds lists every operation kind in declaration order.
var Kinds = []Kind{
	KindCreateTable,
	KindDropTable,
	KindRenameTable,
	KindAddColumn,
	KindRemoveColumn,
	KindAlterColumn,
	KindRenameColumn,
	KindAddIndex,
	KindRemoveIndex,
	KindAddForeignKey,
	KindRemoveForeignKey,
	KindAlterForeignKey,
}

// Operation is one atomic schema change. The set of implementations is
// closed: only the types in this file satisfy it.
//
//sumtype:decl Operation
type Operation interface {
	Kind() Kind
	sealed()
}

type CreateTable struct {
	TableName string   `yaml:"table_name"`
	Columns   []Column `yaml:"columns"`
}

type DropTable struct {
	TableName string `yaml:"table_name"`
}

type RenameTable struct {
	OldName string `yaml:"old_name"`
	NewName string `yaml:"new_name"`
}

type AddColumn struct {
	TableName string `yaml:"table_name"`
	Column    Column `yaml:"column"`
}

type RemoveColumn struct {
	TableName  string `yaml:"table_name"`
	ColumnName string `yaml:"column_name"`
}

// Update is an explicit new value for a column attribute that may be null.
// A nil *Update means "unchanged"; an Update with a nil Value clears the
// attribute.
type Update[T any] struct {
	Value *T
}

// UpdateTo returns an Update holding v, which may be nil.
func UpdateTo[T any](v *T) *Update[T] {
	return &Update[T]{Value: clonePtr(v)}
}

// AlterColumn carries only the attributes that changed; every other field is
// nil.
type AlterColumn struct {
	TableName    string
	ColumnName   string
	NewType      *string
	NewMaxLength *Update[int]
	NewNullable  *bool
	NewDefault   *Update[string]
	NewPrecision *Update[int]
	NewScale     *Update[int]
}

// Empty reports whether no attribute is set.
func (a AlterColumn) Empty() bool {
	return a.NewType == nil && a.NewMaxLength == nil && a.NewNullable == nil &&
		a.NewDefault == nil && a.NewPrecision == nil && a.NewScale == nil
}

type RenameColumn struct {
	TableName string `yaml:"table_name"`
	OldName   string `yaml:"old_name"`
	NewName   string `yaml:"new_name"`
}

type AddIndex struct {
	TableName string `yaml:"table_name"`
	Index     Index  `yaml:"index"`
}

type RemoveIndex struct {
	TableName string `yaml:"table_name"`
	IndexName string `yaml:"index_name"`
}

type AddForeignKey struct {
	TableName  string     `yaml:"table_name"`
	ForeignKey ForeignKey `yaml:"foreign_key"`
}

type RemoveForeignKey struct {
	TableName      string `yaml:"table_name"`
	ConstraintName string `yaml:"constraint_name"`
}

type AlterForeignKey struct {
	TableName      string  `yaml:"table_name"`
	ConstraintName string  `yaml:"constraint_name"`
	NewOnDelete    *string `yaml:"new_on_delete,omitempty"`
	NewOnUpdate    *string `yaml:"new_on_update,omitempty"`
}

func (CreateTable) Kind() Kind      { return KindCreateTable }
func (DropTable) Kind() Kind        { return KindDropTable }
func (RenameTable) Kind() Kind      { return KindRenameTable }
func (AddColumn) Kind() Kind        { return KindAddColumn }
func (RemoveColumn) Kind() Kind     { return KindRemoveColumn }
func (AlterColumn) Kind() Kind      { return KindAlterColumn }
func (RenameColumn) Kind() Kind     { return KindRenameColumn }
func (AddIndex) Kind() Kind         { return KindAddIndex }
func (RemoveIndex) Kind() Kind      { return KindRemoveIndex }
func (AddForeignKey) Kind() Kind    { return KindAddForeignKey }
func (RemoveForeignKey) Kind() Kind { return KindRemoveForeignKey }
func (AlterForeignKey) Kind() Kind  { return KindAlterForeignKey }

func (CreateTable) sealed()      {}
func (DropTable) sealed()        {}
func (RenameTable) sealed()      {}
func (AddColumn) sealed()        {}
func (RemoveColumn) sealed()     {}
func (AlterColumn) sealed()      {}
func (RenameColumn) sealed()     {}
func (AddIndex) sealed()         {}
func (RemoveIndex) sealed()      {}
func (AddForeignKey) sealed()    {}
func (RemoveForeignKey) sealed() {}
func (AlterForeignKey) sealed()  {}
