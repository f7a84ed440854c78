package generators

import (
	"fmt"
	"strings"

	"ermigrate/internal/schema"
)

func GeneratePlantUML(m *schema.Model) string {
	var builder strings.Builder

	builder.WriteString("@startuml\n")
	builder.WriteString("!theme plain\n")
	builder.WriteString("skinparam linetype ortho\n\n")

	for _, e := range m.Entities {
		builder.WriteString(fmt.Sprintf("entity \"%s\" as %s {\n", e.Name, cleanName(e.Name)))

		for _, col := range e.Columns {
			if col.IsPK {
				builder.WriteString(fmt.Sprintf("  * %s : %s <<PK>>\n", col.Name, formatPlantUMLType(col)))
			}
		}

		builder.WriteString("  --\n")

		for _, col := range e.Columns {
			if col.IsPK {
				continue
			}
			var stereotypes string
			if col.IsFK {
				stereotypes += " <<FK>>"
			}
			if col.Unique {
				stereotypes += " <<UNIQUE>>"
			}
			if !col.Nullable {
				stereotypes += " <<NOT NULL>>"
			}
			builder.WriteString(fmt.Sprintf("  %s : %s%s\n", col.Name, formatPlantUMLType(col), stereotypes))
		}

		builder.WriteString("}\n\n")
	}

	for _, r := range m.Relationships {
		builder.WriteString(fmt.Sprintf("%s %s %s : %s\n",
			cleanName(r.LeftEntity),
			crowFoot(r.RelationType),
			cleanName(r.RightEntity),
			relationLabel(r)))
	}

	builder.WriteString("\n@enduml\n")

	return builder.String()
}

func formatPlantUMLType(col schema.Column) string {
	if t, ok := sizedType(col, "VARCHAR", "DECIMAL"); ok {
		return t
	}
	switch strings.ToLower(col.Type) {
	case "int", "integer":
		return "INTEGER"
	case "boolean", "bool":
		return "BOOLEAN"
	case "timestamp", "datetime":
		return "TIMESTAMP"
	default:
		return strings.ToUpper(col.Type)
	}
}
