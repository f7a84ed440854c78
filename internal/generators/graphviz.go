package generators

import (
	"fmt"
	"strings"

	"ermigrate/internal/schema"
)

func GenerateGraphviz(m *schema.Model) string {
	var builder strings.Builder

	builder.WriteString("digraph schema {\n")
	builder.WriteString("  rankdir=TB;\n")
	builder.WriteString("  node [shape=record, style=filled, fillcolor=lightblue];\n")
	builder.WriteString("  edge [color=gray];\n\n")

	for _, e := range m.Entities {
		builder.WriteString(fmt.Sprintf("  %s [label=\"{%s|", cleanName(e.Name), e.Name))

		var fields []string
		for _, col := range e.Columns {
			field := col.Name + ": " + formatGraphvizType(col)
			if col.IsPK {
				field = "+" + field
			}
			if !col.Nullable {
				field += " NOT NULL"
			}
			fields = append(fields, field)
		}

		builder.WriteString(strings.Join(fields, "\\l"))
		builder.WriteString("\\l}\"];\n")
	}

	builder.WriteString("\n")

	for _, r := range m.Relationships {
		builder.WriteString(fmt.Sprintf("  %s -> %s [label=\"%s\", arrowhead=%s, arrowtail=%s, dir=both];\n",
			cleanName(r.LeftEntity),
			cleanName(r.RightEntity),
			relationLabel(r),
			graphvizEnd(r.RelationType, false),
			graphvizEnd(r.RelationType, true)))
	}

	builder.WriteString("}\n")

	return builder.String()
}

// graphvizEnd picks the arrow shape for one end of a relationship.
func graphvizEnd(relationType string, left bool) string {
	many := false
	switch relationType {
	case schema.OneToMany:
		many = !left
	case schema.ManyToOne:
		many = left
	case schema.ManyToMany:
		many = true
	}
	if many {
		return "crow"
	}
	return "tee"
}

func formatGraphvizType(col schema.Column) string {
	if t, ok := sizedType(col, "VARCHAR", "DECIMAL"); ok {
		return t
	}
	switch strings.ToLower(col.Type) {
	case "int", "integer":
		return "INT"
	case "boolean", "bool":
		return "BOOL"
	default:
		return strings.ToUpper(col.Type)
	}
}
