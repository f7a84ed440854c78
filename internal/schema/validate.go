package schema

import (
	"fmt"
	"strings"
)

// ValidationError lists every problem found in a model.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid ER model: " + strings.Join(e.Problems, "; ")
}

// Validate checks that entity names are unique, non-empty and map to
// distinct table names, that every column has a name and a type, and that
// relationships only reference known entities and columns. It returns a
// *ValidationError or nil.
func (m *Model) Validate() error {
	var problems []string

	seen := make(map[string]bool, len(m.Entities))
	tables := make(map[string]string, len(m.Entities))
	for _, e := range m.Entities {
		if e.Name == "" {
			problems = append(problems, "entity with empty name")
			continue
		}
		if seen[e.Name] {
			problems = append(problems, fmt.Sprintf("duplicate entity %q", e.Name))
		} else if other, ok := tables[SnakeCase(e.Name)]; ok {
			problems = append(problems, fmt.Sprintf("entities %q and %q map to the same table %q", other, e.Name, SnakeCase(e.Name)))
		} else {
			tables[SnakeCase(e.Name)] = e.Name
		}
		seen[e.Name] = true

		cols := make(map[string]bool, len(e.Columns))
		for _, c := range e.Columns {
			switch {
			case c.Name == "":
				problems = append(problems, fmt.Sprintf("entity %q has a column with empty name", e.Name))
			case c.Type == "":
				problems = append(problems, fmt.Sprintf("column %s.%s has no type", e.Name, c.Name))
			case cols[c.Name]:
				problems = append(problems, fmt.Sprintf("duplicate column %s.%s", e.Name, c.Name))
			}
			cols[c.Name] = true
		}
	}

	for i, r := range m.Relationships {
		if !IsRelationType(r.RelationType) {
			problems = append(problems, fmt.Sprintf("relationship %d has unknown type %q", i, r.RelationType))
		}
		problems = append(problems, m.checkEnd(i, r.LeftEntity, r.LeftColumn)...)
		problems = append(problems, m.checkEnd(i, r.RightEntity, r.RightColumn)...)
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func (m *Model) checkEnd(i int, entity, column string) []string {
	e, ok := m.Entity(entity)
	if !ok {
		return []string{fmt.Sprintf("relationship %d references unknown entity %q", i, entity)}
	}
	if column == "" {
		return nil
	}
	if _, ok := e.Column(column); !ok {
		return []string{fmt.Sprintf("relationship %d references unknown column %s.%s", i, entity, column)}
	}
	return nil
}
