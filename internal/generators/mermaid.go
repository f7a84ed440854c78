package generators

import (
	"fmt"
	"strings"

	"ermigrate/internal/schema"
)

func GenerateMermaid(m *schema.Model) string {
	var builder strings.Builder

	builder.WriteString("# Database Schema Diagram\n\n")
	builder.WriteString("```mermaid\nerDiagram\n")

	for _, e := range m.Entities {
		builder.WriteString(fmt.Sprintf("    %s {\n", cleanName(e.Name)))

		for _, col := range e.Columns {
			var keys []string
			if col.IsPK {
				keys = append(keys, "PK")
			}
			if col.IsFK {
				keys = append(keys, "FK")
			}
			if col.Unique && !col.IsPK {
				keys = append(keys, "UK")
			}
			keyStr := ""
			if len(keys) > 0 {
				keyStr = " " + strings.Join(keys, ",")
			}
			builder.WriteString(fmt.Sprintf("        %s %s%s\n", formatMermaidType(col), col.Name, keyStr))
		}

		builder.WriteString("    }\n\n")
	}

	for _, r := range m.Relationships {
		builder.WriteString(fmt.Sprintf("    %s %s %s : %q\n",
			cleanName(r.LeftEntity),
			crowFoot(r.RelationType),
			cleanName(r.RightEntity),
			relationLabel(r)))
	}

	builder.WriteString("```\n\n")
	builder.WriteString(fmt.Sprintf("Total Entities: %d\n", len(m.Entities)))
	builder.WriteString(fmt.Sprintf("Total Relationships: %d\n", len(m.Relationships)))

	return builder.String()
}

func formatMermaidType(col schema.Column) string {
	if t, ok := sizedType(col, "varchar", "decimal"); ok {
		return t
	}
	switch strings.ToLower(col.Type) {
	case "int", "integer", "bigint":
		return "int"
	case "boolean", "bool":
		return "boolean"
	case "timestamp", "datetime":
		return "timestamp"
	default:
		// Mermaid attribute types cannot contain spaces or parentheses.
		return cleanName(strings.NewReplacer("(", "_", ")", "", ",", "_").Replace(col.Type))
	}
}
