// Package schema holds the source-agnostic ER model: entities, their columns
// and the relationships between them. Parsers and database introspection
// produce it; the migration core and the diagram renderers consume it.
package schema

// Relation types understood by the normalizer.
const (
	OneToOne   = "one-to-one"
	OneToMany  = "one-to-many"
	ManyToOne  = "many-to-one"
	ManyToMany = "many-to-many"
)

type Model struct {
	Entities      []Entity       `json:"entities" yaml:"entities"`
	Relationships []Relationship `json:"relationships" yaml:"relationships"`
}

type Entity struct {
	Name    string   `json:"name" yaml:"name"`
	Columns []Column `json:"columns" yaml:"columns"`
	Comment string   `json:"comment,omitempty" yaml:"comment,omitempty"`
}

type Column struct {
	Name      string  `json:"name" yaml:"name"`
	Type      string  `json:"type" yaml:"type"`
	IsPK      bool    `json:"is_pk" yaml:"is_pk"`
	IsFK      bool    `json:"is_fk" yaml:"is_fk"`
	Nullable  bool    `json:"nullable" yaml:"nullable"`
	Unique    bool    `json:"unique" yaml:"unique"`
	Indexed   bool    `json:"indexed" yaml:"indexed"`
	MaxLength *int    `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	Precision *int    `json:"precision,omitempty" yaml:"precision,omitempty"`
	Scale     *int    `json:"scale,omitempty" yaml:"scale,omitempty"`
	Comment   string  `json:"comment,omitempty" yaml:"comment,omitempty"`
	Default   *string `json:"default,omitempty" yaml:"default,omitempty"`
}

type Relationship struct {
	LeftEntity   string `json:"left_entity" yaml:"left_entity"`
	RightEntity  string `json:"right_entity" yaml:"right_entity"`
	RelationType string `json:"relation_type" yaml:"relation_type"`
	LeftColumn   string `json:"left_column,omitempty" yaml:"left_column,omitempty"`
	RightColumn  string `json:"right_column,omitempty" yaml:"right_column,omitempty"`
	LeftLabel    string `json:"left_label,omitempty" yaml:"left_label,omitempty"`
	RightLabel   string `json:"right_label,omitempty" yaml:"right_label,omitempty"`
}

// Entity returns the entity with the given name.
func (m *Model) Entity(name string) (*Entity, bool) {
	for i := range m.Entities {
		if m.Entities[i].Name == name {
			return &m.Entities[i], true
		}
	}
	return nil, false
}

// AddEntity appends e, replacing an existing entity with the same name.
func (m *Model) AddEntity(e Entity) {
	if existing, ok := m.Entity(e.Name); ok {
		*existing = e
		return
	}
	m.Entities = append(m.Entities, e)
}

func (m *Model) AddRelationship(r Relationship) {
	m.Relationships = append(m.Relationships, r)
}

// Column returns the column with the given name.
func (e *Entity) Column(name string) (*Column, bool) {
	for i := range e.Columns {
		if e.Columns[i].Name == name {
			return &e.Columns[i], true
		}
	}
	return nil, false
}

// IsRelationType reports whether t is one of the four known relation types.
func IsRelationType(t string) bool {
	switch t {
	case OneToOne, OneToMany, ManyToOne, ManyToMany:
		return true
	}
	return false
}
